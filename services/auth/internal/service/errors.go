package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountInactive     = errors.New("account is deactivated")
	ErrEmailAlreadyInUse   = errors.New("email already in use")
	ErrMissingRefreshToken = errors.New("refresh token is required")
	ErrInvalidRefreshToken = errors.New("refresh token not found or expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired, re-authentication required")
	ErrRefreshTokenReused  = errors.New("refresh token already used, all sessions terminated")
	ErrUserNotFound        = errors.New("user not found")
	ErrValidation          = errors.New("validation")
)

// AccountLockedError carries the lock deadline so callers can tell the
// user when another attempt is worth making.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}
