package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokenhash"
)

type GormRepo struct {
	DB          *gorm.DB
	TokenHasher *tokenhash.Hasher
	RefreshTTL  time.Duration

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (r *GormRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
