package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/logging"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/transport"
)

type periodAggregates struct {
	income   int64
	expenses int64
	balance  int64
}

// Summary assembles the month view: totals, capital, personal inflation,
// month-over-month trends and per-category spending.
func (s *BudgetService) Summary(ctx context.Context, userID string, month, year int) (*transport.SummaryResponse, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	l := logging.FromContext(ctx).With("svc", "budget.summary")

	current, err := s.periodAggregates(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	capital, err := s.capitalWithFallback(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	inflation, err := s.personalInflation(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	trends, err := s.trends(ctx, userID, month, year, current, capital, inflation)
	if err != nil {
		return nil, err
	}

	categories, err := s.categorySummaries(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	l.Debug("summary built", "user_id", userID, "month", month, "year", year)

	return &transport.SummaryResponse{
		Period:            transport.Period{Month: month, Year: year},
		Income:            current.income,
		Expenses:          current.expenses,
		Balance:           current.balance,
		Capital:           capital,
		PersonalInflation: inflation,
		Trends:            trends,
		Categories:        categories,
	}, nil
}

func (s *BudgetService) periodAggregates(ctx context.Context, userID string, month, year int) (periodAggregates, error) {
	start, end := monthBounds(month, year)

	income, err := s.Repo.SumIncomes(ctx, userID, start, end)
	if err != nil {
		return periodAggregates{}, fmt.Errorf("sum incomes: %w", err)
	}
	expenses, err := s.Repo.SumExpenses(ctx, userID, start, end)
	if err != nil {
		return periodAggregates{}, fmt.Errorf("sum expenses: %w", err)
	}

	return periodAggregates{
		income:   income,
		expenses: expenses,
		balance:  income - expenses,
	}, nil
}

// capitalWithFallback prefers the exact month's snapshot and otherwise
// reports the latest known one; zero when no record exists at all.
func (s *BudgetService) capitalWithFallback(ctx context.Context, userID string, month, year int) (int64, error) {
	rec, err := s.Repo.CapitalFor(ctx, userID, month, year)
	if err != nil {
		return 0, err
	}
	if rec != nil {
		return rec.AmountCents, nil
	}

	latest, err := s.Repo.LatestCapital(ctx, userID)
	if err != nil {
		return 0, err
	}
	if latest != nil {
		return latest.AmountCents, nil
	}
	return 0, nil
}

// personalInflation compares the average monthly spend of the current
// year (January through the requested month) against the previous
// year's monthly average, as a percentage with one decimal.
func (s *BudgetService) personalInflation(ctx context.Context, userID string, month, year int) (float64, error) {
	currentTotal, err := s.Repo.SumExpensesForYear(ctx, userID, year)
	if err != nil {
		return 0, err
	}
	previousTotal, err := s.Repo.SumExpensesForYear(ctx, userID, year-1)
	if err != nil {
		return 0, err
	}
	if previousTotal == 0 {
		return 0, nil
	}

	currentAvg := float64(currentTotal) / float64(month)
	previousAvg := float64(previousTotal) / 12

	return round1((currentAvg - previousAvg) / previousAvg * 100), nil
}

func (s *BudgetService) trends(ctx context.Context, userID string, month, year int, current periodAggregates, capital int64, inflation float64) (transport.Trends, error) {
	prevMonth, prevYear := previousPeriod(month, year)

	prev, err := s.periodAggregates(ctx, userID, prevMonth, prevYear)
	if err != nil {
		return transport.Trends{}, err
	}

	// The previous month's capital intentionally has no latest-known
	// fallback; a missing snapshot reads as zero.
	var prevCapital int64
	if rec, err := s.Repo.CapitalFor(ctx, userID, prevMonth, prevYear); err != nil {
		return transport.Trends{}, err
	} else if rec != nil {
		prevCapital = rec.AmountCents
	}

	prevInflation, err := s.personalInflation(ctx, userID, prevMonth, prevYear)
	if err != nil {
		return transport.Trends{}, err
	}

	return transport.Trends{
		Income:    formatTrend(float64(current.income), float64(prev.income)),
		Expenses:  formatTrend(float64(current.expenses), float64(prev.expenses)),
		Balance:   formatTrend(float64(current.balance), float64(prev.balance)),
		Capital:   formatTrend(float64(capital), float64(prevCapital)),
		Inflation: formatTrend(inflation, prevInflation),
	}, nil
}

func (s *BudgetService) categorySummaries(ctx context.Context, userID string, month, year int) ([]transport.CategorySummary, error) {
	categories, err := s.Repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end := monthBounds(month, year)
	totals, err := s.Repo.SumExpensesByCategory(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]transport.CategorySummary, 0, len(categories))
	for _, cat := range categories {
		amount := totals[cat.ID]
		out = append(out, transport.CategorySummary{
			ID:          cat.ID,
			Name:        cat.Name,
			Emoji:       cat.Emoji,
			Amount:      amount,
			Budget:      cat.BudgetCents,
			PercentUsed: percentUsed(amount, cat.BudgetCents),
		})
	}
	return out, nil
}

// monthBounds is the half-open [start, end) interval of one calendar
// month in UTC.
func monthBounds(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func previousPeriod(month, year int) (int, int) {
	if month == 1 {
		return 12, year - 1
	}
	return month - 1, year
}

// formatTrend renders the percentage change as "+8.2%" or "-3.1%".
// A zero baseline always reads "+0.0%".
func formatTrend(current, previous float64) string {
	if previous == 0 {
		return "+0.0%"
	}

	change := round1((current - previous) / math.Abs(previous) * 100)
	if change >= 0 {
		return fmt.Sprintf("+%.1f%%", change)
	}
	return fmt.Sprintf("%.1f%%", change)
}

// percentUsed caps overspending at 100: the UI renders a full bar.
func percentUsed(amount, budget int64) float64 {
	if budget == 0 {
		return 0
	}
	percent := round2(float64(amount) / float64(budget) * 100)
	return math.Min(percent, 100)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
