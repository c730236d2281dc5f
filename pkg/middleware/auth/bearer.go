package authmw

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRoles  = "roles"
)

type BearerAuth struct {
	Codec *tokens.Codec
}

func NewBearerAuth(codec *tokens.Codec) *BearerAuth {
	return &BearerAuth{Codec: codec}
}

// RequireAuth resolves the Bearer token and populates the principal.
// Every failure mode collapses to a plain 401: the hot path never
// reveals why a token was rejected.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		email, err := m.Codec.SubjectEmail(raw)
		if err != nil || !m.Codec.IsAccessTokenValid(raw, email) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		claims, err := m.Codec.VerifyAndDecode(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Subject)
		c.Set(CtxRoles, claims.Roles)

		return next(c)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
