package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/models"
)

// ErrTokenConsumed is returned by Rotate when the record was marked
// used by a concurrent request between matching and rotation. The loser
// of that race must take the reuse-breach path.
var ErrTokenConsumed = errors.New("refresh token already consumed")

// CreateRefreshToken hashes the raw token and persists a new active
// record. The raw value itself is never stored.
func (r *GormRepo) CreateRefreshToken(ctx context.Context, userID, rawToken, userAgent, ipAddress string) (*models.RefreshToken, error) {
	record, err := r.newRecord(userID, rawToken, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *GormRepo) newRecord(userID, rawToken, userAgent, ipAddress string) (*models.RefreshToken, error) {
	tokenHash, err := r.TokenHasher.Hash(rawToken)
	if err != nil {
		return nil, err
	}
	now := r.now()
	return &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(r.RefreshTTL),
		Used:      false,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
	}, nil
}

// FindMatch returns the user's unexpired record whose hash verifies
// against the raw token, most recently created first, or (nil, nil).
// Used records are included on purpose: presenting an already-consumed
// token is the reuse signal the service must be able to see.
func (r *GormRepo) FindMatch(ctx context.Context, userID, rawToken string) (*models.RefreshToken, error) {
	var candidates []models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, r.now()).
		Order("created_at DESC, id DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if r.TokenHasher.Verify(rawToken, candidates[i].TokenHash) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// MarkUsed flips the used flag. Marking an already-used record again is
// a no-op, not an error.
func (r *GormRepo) MarkUsed(ctx context.Context, tokenID string) error {
	return r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", tokenID).
		Update("used", true).Error
}

// Rotate consumes the old record and stores the replacement as one
// atomic unit. The conditional update gives at-most-one-winner
// semantics: if a concurrent refresh consumed the record first, the
// update affects zero rows and ErrTokenConsumed is returned.
func (r *GormRepo) Rotate(ctx context.Context, oldTokenID, userID, newRawToken, userAgent, ipAddress string) (*models.RefreshToken, error) {
	record, err := r.newRecord(userID, newRawToken, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND used = ?", oldTokenID, false).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenConsumed
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *GormRepo) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return r.DB.WithContext(ctx).
		Delete(&models.RefreshToken{}, "id = ?", tokenID).Error
}

// DeleteAllRefreshTokens removes every record for the user, used or
// not, expired or not, and reports how many were removed.
func (r *GormRepo) DeleteAllRefreshTokens(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Delete(&models.RefreshToken{}, "user_id = ?", userID)
	return res.RowsAffected, res.Error
}

// PurgeExpiredAndUsed is housekeeping; nothing else depends on it.
func (r *GormRepo) PurgeExpiredAndUsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Delete(&models.RefreshToken{}, "expires_at < ? OR used = ?", now, true)
	return res.RowsAffected, res.Error
}
