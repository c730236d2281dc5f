package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/logging"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/models"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/repo"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/search"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/transport"
)

const (
	minYear = 2020
	maxYear = 2100
)

type BudgetService struct {
	Repo   *repo.GormRepo
	Search *search.Client
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return d, nil
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	}
	if year < minYear || year > maxYear {
		return fmt.Errorf("%w: year must be between %d and %d", ErrValidation, minYear, maxYear)
	}
	return nil
}

func (s *BudgetService) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx, userID)
}

func (s *BudgetService) CreateCategory(ctx context.Context, userID string, req transport.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Budget < 0 {
		return nil, fmt.Errorf("%w: budget cannot be negative", ErrValidation)
	}

	taken, err := s.Repo.CategoryNameExists(ctx, userID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCategoryNameTaken
	}

	cat := &models.Category{
		UserID:      userID,
		Name:        name,
		BudgetCents: req.Budget,
		Emoji:       req.Emoji,
	}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *BudgetService) PatchCategory(ctx context.Context, userID, id string, req transport.PatchCategoryRequest) (*models.Category, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", ErrValidation)
		}
		*req.Name = name

		taken, err := s.Repo.CategoryNameExists(ctx, userID, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCategoryNameTaken
		}
	}
	if req.Budget != nil && *req.Budget < 0 {
		return nil, fmt.Errorf("%w: budget cannot be negative", ErrValidation)
	}

	return s.Repo.PatchCategory(ctx, userID, id, req)
}

func (s *BudgetService) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.Repo.DeleteCategory(ctx, userID, id)
}

func (s *BudgetService) ListExpenses(ctx context.Context, userID string, month, year int) ([]models.Expense, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	return s.Repo.ListExpenses(ctx, userID, month, year)
}

func (s *BudgetService) CreateExpense(ctx context.Context, userID string, req transport.CreateExpenseRequest) (*models.Expense, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.CategoryID == "" {
		return nil, fmt.Errorf("%w: category_id is required", ErrValidation)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	// The category must exist and belong to the caller.
	if _, err := s.Repo.GetCategory(ctx, userID, req.CategoryID); err != nil {
		return nil, err
	}

	exp := &models.Expense{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		AmountCents: req.Amount,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}
	if err := s.Repo.CreateExpense(ctx, exp); err != nil {
		return nil, err
	}

	s.indexExpense(ctx, exp)
	return exp, nil
}

func (s *BudgetService) PatchExpense(ctx context.Context, userID, id string, req transport.PatchExpenseRequest) (*models.Expense, error) {
	exp, err := s.Repo.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		exp.AmountCents = *req.Amount
	}
	if req.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, userID, *req.CategoryID); err != nil {
			return nil, err
		}
		exp.CategoryID = *req.CategoryID
	}
	if req.Description != nil {
		exp.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		exp.Date = date
	}

	if err := s.Repo.SaveExpense(ctx, exp); err != nil {
		return nil, err
	}

	s.indexExpense(ctx, exp)
	return exp, nil
}

func (s *BudgetService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.Repo.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	if err := s.Search.DeleteExpense(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("expense deindex failed", "expense_id", id, "error", err)
	}
	return nil
}

func (s *BudgetService) ListIncomes(ctx context.Context, userID string, month, year int) ([]models.Income, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	return s.Repo.ListIncomes(ctx, userID, month, year)
}

func (s *BudgetService) CreateIncome(ctx context.Context, userID string, req transport.CreateIncomeRequest) (*models.Income, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !models.ValidSource(req.Source) {
		return nil, fmt.Errorf("%w: unknown income source %q", ErrValidation, req.Source)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	inc := &models.Income{
		UserID:      userID,
		Source:      req.Source,
		AmountCents: req.Amount,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}
	if err := s.Repo.CreateIncome(ctx, inc); err != nil {
		return nil, err
	}
	return inc, nil
}

func (s *BudgetService) PatchIncome(ctx context.Context, userID, id string, req transport.PatchIncomeRequest) (*models.Income, error) {
	inc, err := s.Repo.GetIncome(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		inc.AmountCents = *req.Amount
	}
	if req.Source != nil {
		if !models.ValidSource(*req.Source) {
			return nil, fmt.Errorf("%w: unknown income source %q", ErrValidation, *req.Source)
		}
		inc.Source = *req.Source
	}
	if req.Description != nil {
		inc.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		inc.Date = date
	}

	if err := s.Repo.SaveIncome(ctx, inc); err != nil {
		return nil, err
	}
	return inc, nil
}

func (s *BudgetService) DeleteIncome(ctx context.Context, userID, id string) error {
	return s.Repo.DeleteIncome(ctx, userID, id)
}

func (s *BudgetService) PutCapital(ctx context.Context, userID string, req transport.PutCapitalRequest) (*models.CapitalRecord, error) {
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	if err := validatePeriod(req.Month, req.Year); err != nil {
		return nil, err
	}

	rec := &models.CapitalRecord{
		UserID:      userID,
		AmountCents: req.Amount,
		Month:       req.Month,
		Year:        req.Year,
	}
	if err := s.Repo.UpsertCapital(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BudgetService) ListCapital(ctx context.Context, userID string, year int) ([]models.CapitalRecord, error) {
	if year < minYear || year > maxYear {
		return nil, fmt.Errorf("%w: year must be between %d and %d", ErrValidation, minYear, maxYear)
	}
	return s.Repo.ListCapital(ctx, userID, year)
}

// SearchExpenses queries the Elasticsearch index; the database is never
// consulted here.
func (s *BudgetService) SearchExpenses(ctx context.Context, userID, query string, from, size int) (int64, []search.ExpenseDoc, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, []search.ExpenseDoc{}, nil
	}
	if !s.Search.Enabled() {
		return 0, nil, ErrSearchUnavailable
	}
	return s.Search.Search(ctx, userID, query, from, size)
}

// indexExpense is best-effort: a search lag must never fail a write.
func (s *BudgetService) indexExpense(ctx context.Context, exp *models.Expense) {
	if err := s.Search.IndexExpense(ctx, exp); err != nil {
		logging.FromContext(ctx).Warn("expense index failed", "expense_id", exp.ID, "error", err)
	}
}
