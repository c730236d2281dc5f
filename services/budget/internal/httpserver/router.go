package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/middleware/auth"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
)

type Deps struct {
	BudgetHandler *BudgetHTTP
	Codec         *tokens.Codec
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/budget")
	api.Use(authmw.NewBearerAuth(d.Codec).RequireAuth)

	api.GET("/summary", d.BudgetHandler.GetSummary)

	api.GET("/categories", d.BudgetHandler.ListCategories)
	api.POST("/categories", d.BudgetHandler.CreateCategory)
	api.PATCH("/categories/:id", d.BudgetHandler.PatchCategory)
	api.DELETE("/categories/:id", d.BudgetHandler.DeleteCategory)

	api.GET("/expenses", d.BudgetHandler.ListExpenses)
	api.GET("/expenses/search", d.BudgetHandler.SearchExpenses)
	api.POST("/expenses", d.BudgetHandler.CreateExpense)
	api.PATCH("/expenses/:id", d.BudgetHandler.PatchExpense)
	api.DELETE("/expenses/:id", d.BudgetHandler.DeleteExpense)

	api.GET("/incomes", d.BudgetHandler.ListIncomes)
	api.POST("/incomes", d.BudgetHandler.CreateIncome)
	api.PATCH("/incomes/:id", d.BudgetHandler.PatchIncome)
	api.DELETE("/incomes/:id", d.BudgetHandler.DeleteIncome)

	api.GET("/capital", d.BudgetHandler.ListCapital)
	api.PUT("/capital", d.BudgetHandler.PutCapital)
}
