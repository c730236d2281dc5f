package repo

import (
	"time"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

// monthRange returns the half-open [start, end) interval covering one
// calendar month in UTC.
func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func yearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
