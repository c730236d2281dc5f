package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/cookie"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokenhash"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/models"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/repo"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/service"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserRole{}, &models.RefreshToken{}))

	svc := &service.AuthService{
		Repo: &repo.GormRepo{
			DB:          db,
			TokenHasher: tokenhash.NewWithIterations(1000),
			RefreshTTL:  7 * 24 * time.Hour,
		},
		Codec: tokens.NewCodec([]byte("handler-test-secret"), 15*time.Minute, 7*24*time.Hour),
	}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: svc},
		Codec:       svc.Codec,
	})
	return e
}

func doJSON(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookie.RefreshName {
			return ck
		}
	}
	t.Fatalf("no %s cookie in response", cookie.RefreshName)
	return nil
}

func registerAndLogin(t *testing.T, e *echo.Echo) (*httptest.ResponseRecorder, *http.Cookie) {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"email":"a@b.com","username":"alice","password":"pw123456"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"a@b.com","password":"pw123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	return rec, refreshCookie(t, rec)
}

func TestLoginHandler_SetsRefreshCookie(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	rec, ck := registerAndLogin(t, e)

	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, "/api/auth", ck.Path)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.NotEmpty(t, ck.Value)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "Bearer", body.TokenType)
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	registerAndLogin(t, e)

	rec := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"a@b.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshHandler_RotatesCookie(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	_, ck := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodPost, "/api/auth/refresh", "", ck)
	require.Equal(t, http.StatusOK, rec.Code)

	next := refreshCookie(t, rec)
	assert.NotEqual(t, ck.Value, next.Value)

	// The body carries a fresh access token but never the refresh token.
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["access_token"])
	assert.NotContains(t, body, "refresh_token")
}

func TestRefreshHandler_ReplayClearsCookie(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	_, ck := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodPost, "/api/auth/refresh", "", ck)
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the consumed cookie: 401 plus an expired cookie so the
	// client drops what it holds.
	rec = doJSON(e, http.MethodPost, "/api/auth/refresh", "", ck)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cleared := refreshCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestRefreshHandler_NoCookie(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/refresh", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandler_RequiresBearer(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	_, ck := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodPost, "/api/auth/logout", `{}`, ck)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutHandler_ClosesSession(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	loginRec, ck := registerAndLogin(t, e)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+login.AccessToken)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message        string `json:"message"`
		SessionsClosed int64  `json:"sessions_closed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "logged out", body.Message)
	assert.EqualValues(t, 1, body.SessionsClosed)

	cleared := refreshCookie(t, rec)
	assert.Equal(t, -1, cleared.MaxAge)

	// The rotated-out cookie is gone server-side too.
	rec = doJSON(e, http.MethodPost, "/api/auth/refresh", "", ck)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
