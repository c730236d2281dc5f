package transport

import (
	"time"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LogoutRequest struct {
	LogoutFromAll bool `json:"logout_from_all"`
}

type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	IsActive    bool       `json:"is_active"`
	IsVerified  bool       `json:"is_verified"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func ToUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		Roles:       u.RoleNames(),
		LastLoginAt: u.LastLoginAt,
	}
}

type LoginResult struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int     `json:"expires_in"`
	User         UserDTO `json:"user"`
}

// RefreshResult deliberately hides the new refresh token from the JSON
// body; it travels only in the httpOnly cookie.
type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type LogoutResult struct {
	Message        string    `json:"message"`
	SessionsClosed int64     `json:"sessions_closed"`
	Timestamp      time.Time `json:"timestamp"`
}
