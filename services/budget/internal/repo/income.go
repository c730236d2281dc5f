package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/models"
)

func (r *GormRepo) CreateIncome(ctx context.Context, inc *models.Income) error {
	if inc.ID == "" {
		inc.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(inc).Error
}

func (r *GormRepo) GetIncome(ctx context.Context, userID, id string) (*models.Income, error) {
	var inc models.Income
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&inc).Error; err != nil {
		return nil, err
	}
	return &inc, nil
}

func (r *GormRepo) ListIncomes(ctx context.Context, userID string, month, year int) ([]models.Income, error) {
	start, end := monthRange(year, month)

	items := []models.Income{}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date DESC, created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveIncome(ctx context.Context, inc *models.Income) error {
	return r.DB.WithContext(ctx).Save(inc).Error
}

func (r *GormRepo) DeleteIncome(ctx context.Context, userID, id string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Income{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) SumIncomes(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&models.Income{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Scan(&total).Error
	return total, err
}
