package models

import "time"

// Income sources mirror the fixed set the frontend offers.
const (
	SourceSalary      = "SALARY"
	SourceFreelance   = "FREELANCE"
	SourceInvestments = "INVESTMENTS"
	SourceGifts       = "GIFTS"
	SourceOther       = "OTHER"
)

func ValidSource(s string) bool {
	switch s {
	case SourceSalary, SourceFreelance, SourceInvestments, SourceGifts, SourceOther:
		return true
	}
	return false
}

// Category groups expenses and carries an optional monthly budget limit.
// Amounts everywhere in this service are integer cents.
type Category struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;index;uniqueIndex:uq_categories_user_name" json:"-"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:uq_categories_user_name" json:"name"`
	BudgetCents int64     `gorm:"not null;default:0" json:"budget"`
	Emoji       string    `gorm:"size:10" json:"emoji,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Expense struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;index:idx_expenses_user_date" json:"-"`
	CategoryID  string    `gorm:"type:uuid;not null;index" json:"category_id"`
	AmountCents int64     `gorm:"not null" json:"amount"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Date        time.Time `gorm:"not null;index:idx_expenses_user_date" json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Income struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;index:idx_incomes_user_date" json:"-"`
	Source      string    `gorm:"size:50;not null" json:"source"`
	AmountCents int64     `gorm:"not null" json:"amount"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Date        time.Time `gorm:"not null;index:idx_incomes_user_date" json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CapitalRecord is a monthly snapshot of total capital; at most one row
// per user and calendar month.
type CapitalRecord struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;uniqueIndex:uq_capital_user_month_year" json:"-"`
	AmountCents int64     `gorm:"not null" json:"amount"`
	Month       int       `gorm:"not null;uniqueIndex:uq_capital_user_month_year" json:"month"`
	Year        int       `gorm:"not null;uniqueIndex:uq_capital_user_month_year" json:"year"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
