package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
)

func TestJWT_ForwardsPrincipalHeaders(t *testing.T) {
	t.Parallel()

	codec := tokens.NewCodec([]byte("gateway-secret"), 15*time.Minute, time.Hour)
	access, err := codec.IssueAccessToken(tokens.Identity{
		ID:    "user-1",
		Email: "a@b.com",
		Roles: []string{"USER", "ADMIN"},
	})
	require.NoError(t, err)

	e := echo.New()
	var got http.Header
	e.GET("/protected", func(c echo.Context) error {
		got = c.Request().Header.Clone()
		return c.NoContent(http.StatusOK)
	}, JWT(codec))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	// Spoofed enrichment headers must not survive.
	req.Header.Set(HeaderUserID, "attacker")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", got.Get(HeaderUserID))
	assert.Equal(t, "a@b.com", got.Get(HeaderUserEmail))
	assert.Equal(t, "USER,ADMIN", got.Get(HeaderUserRoles))
}

func TestJWT_Rejections(t *testing.T) {
	t.Parallel()

	codec := tokens.NewCodec([]byte("gateway-secret"), 15*time.Minute, time.Hour)
	refresh, err := codec.IssueRefreshToken(tokens.Identity{ID: "user-1", Email: "a@b.com"})
	require.NoError(t, err)

	expiredCodec := tokens.NewCodec([]byte("gateway-secret"), -time.Minute, time.Hour)
	expired, err := expiredCodec.IssueAccessToken(tokens.Identity{ID: "user-1", Email: "a@b.com"})
	require.NoError(t, err)

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, JWT(codec))

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage", header: "Bearer garbage"},
		{name: "refresh token rejected", header: "Bearer " + refresh},
		{name: "expired", header: "Bearer " + expired},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
