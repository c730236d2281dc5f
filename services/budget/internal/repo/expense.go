package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/models"
)

func (r *GormRepo) CreateExpense(ctx context.Context, exp *models.Expense) error {
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(exp).Error
}

func (r *GormRepo) GetExpense(ctx context.Context, userID, id string) (*models.Expense, error) {
	var exp models.Expense
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&exp).Error; err != nil {
		return nil, err
	}
	return &exp, nil
}

// ListExpenses returns one calendar month of expenses, newest first.
func (r *GormRepo) ListExpenses(ctx context.Context, userID string, month, year int) ([]models.Expense, error) {
	start, end := monthRange(year, month)

	items := []models.Expense{}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date DESC, created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveExpense(ctx context.Context, exp *models.Expense) error {
	return r.DB.WithContext(ctx).Save(exp).Error
}

func (r *GormRepo) DeleteExpense(ctx context.Context, userID, id string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) SumExpenses(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&models.Expense{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Scan(&total).Error
	return total, err
}

func (r *GormRepo) SumExpensesForYear(ctx context.Context, userID string, year int) (int64, error) {
	start, end := yearRange(year)
	return r.SumExpenses(ctx, userID, start, end)
}

// SumExpensesByCategory returns per-category totals for the interval.
func (r *GormRepo) SumExpensesByCategory(ctx context.Context, userID string, start, end time.Time) (map[string]int64, error) {
	rows := []struct {
		CategoryID string
		Total      int64
	}{}
	if err := r.DB.WithContext(ctx).
		Model(&models.Expense{}).
		Select("category_id, SUM(amount_cents) AS total").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(rows))
	for _, row := range rows {
		totals[row.CategoryID] = row.Total
	}
	return totals, nil
}
