package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/models"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/transport"
)

func (r *GormRepo) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	items := []models.Category{}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, userID, id string) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// CategoryNameExists reports whether another category of the same user
// already carries the name.
func (r *GormRepo) CategoryNameExists(ctx context.Context, userID, name, excludeID string) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).
		Model(&models.Category{}).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) PatchCategory(ctx context.Context, userID, id string, req transport.PatchCategoryRequest) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&cat).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		cat.Name = *req.Name
	}
	if req.Budget != nil {
		cat.BudgetCents = *req.Budget
	}
	if req.Emoji != nil {
		cat.Emoji = *req.Emoji
	}

	if err := r.DB.WithContext(ctx).Save(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, userID, id string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
