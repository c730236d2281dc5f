package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/cookie"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/logging"
	authmw "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/middleware/auth"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/service"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register rejected", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login rejected", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(cookie.Refresh(res.RefreshToken, h.Svc.Codec.RefreshTTL))

	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var raw string
	if ck, err := c.Cookie(cookie.RefreshName); err == nil {
		raw = ck.Value
	}

	res, err := h.Svc.Refresh(ctx, raw, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		if errors.Is(err, service.ErrRefreshTokenReused) ||
			errors.Is(err, service.ErrRefreshTokenExpired) {
			// Nothing the client holds is usable anymore.
			c.SetCookie(cookie.ClearRefresh())
		}
		return httpError(err)
	}

	c.SetCookie(cookie.Refresh(res.RefreshToken, h.Svc.Codec.RefreshTTL))

	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get(authmw.CtxUserID).(string)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var req transport.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var raw string
	if ck, err := c.Cookie(cookie.RefreshName); err == nil {
		raw = ck.Value
	}

	res, err := h.Svc.Logout(ctx, userID, raw, req.LogoutFromAll)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(cookie.ClearRefresh())

	return c.JSON(http.StatusOK, res)
}

// httpError translates service failures into transport codes. Every
// expected outcome has a distinct, user-visible message.
func httpError(err error) error {
	var locked *service.AccountLockedError

	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMissingRefreshToken):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenReused):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.As(err, &locked):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAccountInactive):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidRefreshToken.Error())
	case errors.Is(err, service.ErrEmailAlreadyInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
