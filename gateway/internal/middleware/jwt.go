package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRoles = "X-User-Roles"
)

// JWT guards proxied routes. On success the verified principal is
// forwarded to the backend as enrichment headers; whatever the client
// sent in those headers is discarded first.
func JWT(codec *tokens.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			req.Header.Del(HeaderUserID)
			req.Header.Del(HeaderUserEmail)
			req.Header.Del(HeaderUserRoles)

			raw := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			claims, err := codec.VerifyAndDecode(raw)
			if err != nil || claims.IsRefresh() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			req.Header.Set(HeaderUserID, claims.UserID)
			req.Header.Set(HeaderUserEmail, claims.Subject)
			if len(claims.Roles) > 0 {
				req.Header.Set(HeaderUserRoles, strings.Join(claims.Roles, ","))
			}

			return next(c)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
