package cookie

import (
	"net/http"
	"time"
)

const (
	RefreshName = "refreshToken"

	// The cookie is scoped to the auth endpoints so the browser never
	// sends the refresh token to budget or any other service.
	refreshPath = "/api/auth"
)

// Refresh builds the httpOnly cookie carrying the raw refresh token.
// The token never appears in a JSON response body.
func Refresh(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshName,
		Value:    value,
		Path:     refreshPath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func ClearRefresh() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshName,
		Value:    "",
		Path:     refreshPath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
