package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
	ErrUnsupportedToken = errors.New("unsupported token")
)

// Codec issues and verifies HS256-signed access and refresh tokens.
// It is stateless: validity of an access token depends only on the
// signature and the expiry claim.
type Codec struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		Secret:     secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Codec) IssueAccessToken(id Identity) (string, error) {
	now := c.now()
	claims := Claims{
		UserID:          id.ID,
		Email:           id.Email,
		Username:        id.Username,
		Roles:           id.Roles,
		SecurityVersion: id.SecurityVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.AccessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

func (c *Codec) IssueRefreshToken(id Identity) (string, error) {
	now := c.now()
	claims := Claims{
		UserID:          id.ID,
		SecurityVersion: id.SecurityVersion,
		Type:            typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.RefreshTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

// VerifyAndDecode checks the signature and expiry and returns the
// claims. Failures map onto the package sentinel errors.
func (c *Codec) VerifyAndDecode(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("%w: signing method %s", ErrUnsupportedToken, t.Method.Alg())
		}
		return c.Secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidSignature
	}
	return &claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedToken):
		return ErrUnsupportedToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnsupportedToken
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

func (c *Codec) SubjectEmail(tokenStr string) (string, error) {
	claims, err := c.VerifyAndDecode(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) UserID(tokenStr string) (string, error) {
	claims, err := c.VerifyAndDecode(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// IsAccessTokenValid is the request-authentication check. It never
// returns an error: on the hot path every failure mode collapses to
// "not authenticated".
func (c *Codec) IsAccessTokenValid(tokenStr, expectedEmail string) bool {
	claims, err := c.VerifyAndDecode(tokenStr)
	if err != nil {
		return false
	}
	if claims.IsRefresh() {
		return false
	}
	return claims.Subject == expectedEmail
}
