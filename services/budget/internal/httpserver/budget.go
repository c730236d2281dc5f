package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/logging"
	authmw "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/middleware/auth"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/service"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/transport"
)

type BudgetHTTP struct {
	Svc *service.BudgetService
}

func userID(c echo.Context) (string, error) {
	id, _ := c.Get(authmw.CtxUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	return id, nil
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// periodParams reads month/year query params, defaulting to the current
// UTC calendar month.
func periodParams(c echo.Context) (int, int) {
	now := time.Now().UTC()
	month := parseIntDefault(c.QueryParam("month"), int(now.Month()))
	year := parseIntDefault(c.QueryParam("year"), now.Year())
	return month, year
}

func (h *BudgetHTTP) GetSummary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "budget.summary")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	month, year := periodParams(c)

	res, err := h.Svc.Summary(ctx, uid, month, year)
	if err != nil {
		l.Warn("summary failed", "month", month, "year", year, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *BudgetHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	items, err := h.Svc.ListCategories(ctx, uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BudgetHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "budget.create_category")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.CreateCategory(ctx, uid, req)
	if err != nil {
		l.Warn("create category failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, cat)
}

func (h *BudgetHTTP) PatchCategory(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.PatchCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.PatchCategory(ctx, uid, c.Param("id"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *BudgetHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteCategory(ctx, uid, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BudgetHTTP) ListExpenses(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	month, year := periodParams(c)

	items, err := h.Svc.ListExpenses(ctx, uid, month, year)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BudgetHTTP) CreateExpense(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "budget.create_expense")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	exp, err := h.Svc.CreateExpense(ctx, uid, req)
	if err != nil {
		l.Warn("create expense failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, exp)
}

func (h *BudgetHTTP) PatchExpense(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.PatchExpenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	exp, err := h.Svc.PatchExpense(ctx, uid, c.Param("id"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, exp)
}

func (h *BudgetHTTP) DeleteExpense(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteExpense(ctx, uid, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BudgetHTTP) SearchExpenses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "budget.search_expenses")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	size := parseIntDefault(c.QueryParam("size"), 20)
	if size < 1 || size > 100 {
		size = 20
	}

	total, docs, err := h.Svc.SearchExpenses(ctx, uid, c.QueryParam("q"), (page-1)*size, size)
	if err != nil {
		l.Warn("expense search failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": docs,
		"meta": map[string]any{
			"page":  page,
			"size":  size,
			"total": total,
		},
	})
}

func (h *BudgetHTTP) ListIncomes(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	month, year := periodParams(c)

	items, err := h.Svc.ListIncomes(ctx, uid, month, year)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BudgetHTTP) CreateIncome(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "budget.create_income")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.CreateIncomeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	inc, err := h.Svc.CreateIncome(ctx, uid, req)
	if err != nil {
		l.Warn("create income failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, inc)
}

func (h *BudgetHTTP) PatchIncome(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.PatchIncomeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	inc, err := h.Svc.PatchIncome(ctx, uid, c.Param("id"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inc)
}

func (h *BudgetHTTP) DeleteIncome(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteIncome(ctx, uid, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BudgetHTTP) PutCapital(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.PutCapitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	rec, err := h.Svc.PutCapital(ctx, uid, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *BudgetHTTP) ListCapital(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := userID(c)
	if err != nil {
		return err
	}

	year := parseIntDefault(c.QueryParam("year"), time.Now().UTC().Year())

	items, err := h.Svc.ListCapital(ctx, uid, year)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCategoryNameTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrSearchUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
