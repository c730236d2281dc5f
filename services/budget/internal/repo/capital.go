package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/models"
)

// UpsertCapital writes the snapshot for one calendar month, replacing
// the amount if the month already has one.
func (r *GormRepo) UpsertCapital(ctx context.Context, rec *models.CapitalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount_cents", "updated_at"}),
		}).
		Create(rec).Error
}

// CapitalFor returns the snapshot for the exact month, or nil.
func (r *GormRepo) CapitalFor(ctx context.Context, userID string, month, year int) (*models.CapitalRecord, error) {
	var rec models.CapitalRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestCapital returns the most recent snapshot across all months, or nil.
func (r *GormRepo) LatestCapital(ctx context.Context, userID string) (*models.CapitalRecord, error) {
	var rec models.CapitalRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("year DESC, month DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormRepo) ListCapital(ctx context.Context, userID string, year int) ([]models.CapitalRecord, error) {
	items := []models.CapitalRecord{}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		Order("month ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
