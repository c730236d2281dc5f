package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/gateway/internal/middleware"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
)

type Deps struct {
	AuthURL   string
	BudgetURL string

	JWTSecret      []byte
	AllowedOrigins []string
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, m := range middleware.Common(d.AllowedOrigins) {
		e.Use(m)
	}

	authProxy, err := newProxy(d.AuthURL, "/api/v1/auth", "/api/auth")
	if err != nil {
		return err
	}

	budgetProxy, err := newProxy(d.BudgetURL, "/api/v1/budget", "/api/budget")
	if err != nil {
		return err
	}

	// Auth endpoints stay public; logout authorization is enforced by
	// the auth service itself.
	e.Any("/api/v1/auth/*", authProxy)

	api := e.Group("/api/v1/budget")
	api.Use(middleware.JWT(tokens.NewCodec(d.JWTSecret, 0, 0)))
	api.Any("", budgetProxy)
	api.Any("/*", budgetProxy)

	return nil
}
