package models

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID                  string     `gorm:"primaryKey;type:uuid"  json:"id"`
	Username            string     `gorm:"not null"              json:"username"`
	Email               string     `gorm:"uniqueIndex;not null"  json:"email"`
	PasswordHash        string     `gorm:"not null"              json:"-"`
	IsActive            bool       `gorm:"default:true"          json:"is_active"`
	IsVerified          bool       `gorm:"default:false"         json:"is_verified"`
	FailedLoginAttempts int        `gorm:"default:0"             json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	LastLogoutAt        *time.Time `json:"-"`
	SecurityVersion     int        `gorm:"default:0"             json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Roles         []UserRole     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RefreshTokens []RefreshToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.RoleName)
	}
	return names
}

type UserRole struct {
	ID       uint   `gorm:"primaryKey"            json:"id"`
	UserID   string `gorm:"index;type:uuid;not null" json:"user_id"`
	RoleName string `gorm:"not null"              json:"role_name"`
}

// RefreshToken stores one issued refresh token. Only the PBKDF2 hash of
// the raw value is persisted. Used is monotonic: it goes false to true
// exactly once and is never reset.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey;type:uuid"     json:"id"`
	UserID    string    `gorm:"index;type:uuid;not null" json:"user_id"`
	TokenHash string    `gorm:"not null"                 json:"-"`
	ExpiresAt time.Time `gorm:"index;not null"           json:"expires_at"`
	Used      bool      `gorm:"default:false"            json:"used"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}
