package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/middleware/auth"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Codec       *tokens.Codec
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMw := authmw.NewBearerAuth(d.Codec)

	api := e.Group("/api/auth")
	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)

	private := api.Group("")
	private.Use(authMw.RequireAuth)
	private.POST("/logout", d.AuthHandler.Logout)
}
