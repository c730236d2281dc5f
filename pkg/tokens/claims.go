package tokens

import "github.com/golang-jwt/jwt/v5"

const typeRefresh = "refresh"

// Claims is the payload shared by access and refresh tokens. The subject
// is always the user's email; refresh tokens additionally carry
// Type="refresh" so the two kinds cannot be swapped for each other.
type Claims struct {
	jwt.RegisteredClaims
	UserID          string   `json:"userId"`
	Email           string   `json:"email,omitempty"`
	Username        string   `json:"username,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	SecurityVersion int      `json:"securityVersion"`
	Type            string   `json:"type,omitempty"`
}

func (c *Claims) IsRefresh() bool { return c.Type == typeRefresh }

// Identity carries the user fields that end up inside a token.
type Identity struct {
	ID              string
	Email           string
	Username        string
	Roles           []string
	SecurityVersion int
}
