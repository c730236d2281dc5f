package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/events"
	pkghash "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/hash"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/logging"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/lockout"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/models"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/repo"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/transport"
)

// AuthService owns the session lifecycle: login with lockout, refresh
// with rotation and reuse detection, single and all-device logout.
type AuthService struct {
	Repo   *repo.GormRepo
	Codec  *tokens.Codec
	Events *events.Producer

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func identityOf(u *models.User) tokens.Identity {
	return tokens.Identity{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		Roles:           u.RoleNames(),
		SecurityVersion: u.SecurityVersion,
	}
}

func (s *AuthService) publish(ctx context.Context, evType string, u *models.User, userAgent, ipAddress string) {
	ev := events.SecurityEvent{
		Type:      evType,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		At:        s.now(),
	}
	if u != nil {
		ev.UserID = u.ID
		ev.Email = u.Email
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("security event not published", "type", evType, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*transport.UserDTO, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	existing, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		l.Warn("registration rejected", "reason", "email taken")
		return nil, ErrEmailAlreadyInUse
	}

	passwordHash, err := pkghash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		IsVerified:   false,
		Roles:        []models.UserRole{{RoleName: models.RoleUser}},
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	l.Info("user registered", "user_id", user.ID)
	dto := transport.ToUserDTO(user)
	return &dto, nil
}

func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Same failure as a wrong password: existence is not revealed.
		l.Warn("login failed", "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		l.Warn("login failed", "reason", "inactive account", "user_id", user.ID)
		return nil, ErrAccountInactive
	}

	now := s.now()
	decision := lockout.Check(lockoutState(user), now)
	if !decision.Allowed {
		l.Warn("login failed", "reason", "account locked", "user_id", user.ID, "locked_until", decision.LockedUntil)
		return nil, &AccountLockedError{Until: decision.LockedUntil}
	}
	if decision.LapsedLock {
		applyLockout(user, lockout.OnSuccess(lockoutState(user)))
		if err := s.Repo.SaveUser(ctx, user); err != nil {
			return nil, err
		}
	}

	if !pkghash.CheckPassword(user.PasswordHash, password) {
		// The counter moves even though the operation fails.
		next := lockout.OnFailure(lockoutState(user), now)
		applyLockout(user, next)
		if err := s.Repo.SaveUser(ctx, user); err != nil {
			return nil, err
		}
		s.publish(ctx, events.TypeLoginFailed, user, userAgent, ipAddress)
		if next.LockedUntil != nil {
			l.Warn("account locked", "user_id", user.ID, "locked_until", *next.LockedUntil)
			s.publish(ctx, events.TypeAccountLocked, user, userAgent, ipAddress)
		}
		return nil, ErrInvalidCredentials
	}

	applyLockout(user, lockout.OnSuccess(lockoutState(user)))
	user.LastLoginAt = &now
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	identity := identityOf(user)
	accessToken, err := s.Codec.IssueAccessToken(identity)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.Codec.IssueRefreshToken(identity)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.CreateRefreshToken(ctx, user.ID, refreshToken, userAgent, ipAddress); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeLoginSucceeded, user, userAgent, ipAddress)
	l.Info("login successful", "user_id", user.ID)

	return &transport.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.Codec.AccessTTL.Seconds()),
		User:         transport.ToUserDTO(user),
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken, userAgent, ipAddress string) (*transport.RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if strings.TrimSpace(rawRefreshToken) == "" {
		return nil, ErrMissingRefreshToken
	}

	claims, err := s.Codec.VerifyAndDecode(rawRefreshToken)
	if err != nil {
		if errors.Is(err, tokens.ErrExpiredToken) {
			l.Warn("refresh failed", "reason", "token expired")
			return nil, ErrRefreshTokenExpired
		}
		l.Warn("refresh failed", "reason", "invalid token", "error", err)
		return nil, ErrInvalidRefreshToken
	}
	if !claims.IsRefresh() {
		l.Warn("refresh failed", "reason", "access token presented")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		l.Warn("refresh failed", "reason", "user missing", "user_id", claims.UserID)
		return nil, ErrUserNotFound
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	now := s.now()
	if decision := lockout.Check(lockoutState(user), now); !decision.Allowed {
		return nil, &AccountLockedError{Until: decision.LockedUntil}
	}

	// A token minted before a forced all-device logout carries a stale
	// security version and dies here even if its record were somehow
	// still around.
	if claims.SecurityVersion != user.SecurityVersion {
		l.Warn("refresh failed", "reason", "stale security version", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}

	match, err := s.Repo.FindMatch(ctx, user.ID, rawRefreshToken)
	if err != nil {
		return nil, err
	}
	if match == nil {
		l.Warn("refresh failed", "reason", "no matching record", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}
	if match.Used {
		return nil, s.handleReuse(ctx, l, user, userAgent, ipAddress)
	}

	identity := identityOf(user)
	accessToken, err := s.Codec.IssueAccessToken(identity)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.Codec.IssueRefreshToken(identity)
	if err != nil {
		return nil, err
	}

	if _, err := s.Repo.Rotate(ctx, match.ID, user.ID, newRefreshToken, userAgent, ipAddress); err != nil {
		if errors.Is(err, repo.ErrTokenConsumed) {
			// Lost the race against a concurrent refresh of the same
			// record: treated identically to reuse.
			return nil, s.handleReuse(ctx, l, user, userAgent, ipAddress)
		}
		return nil, err
	}

	user.LastLoginAt = &now
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	l.Info("tokens rotated", "user_id", user.ID)

	return &transport.RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.Codec.AccessTTL.Seconds()),
	}, nil
}

func (s *AuthService) handleReuse(ctx context.Context, l *slog.Logger, user *models.User, userAgent, ipAddress string) error {
	l.Error("refresh token reuse detected, revoking all sessions", "user_id", user.ID)
	if _, err := s.Repo.DeleteAllRefreshTokens(ctx, user.ID); err != nil {
		return err
	}
	s.publish(ctx, events.TypeReuseDetected, user, userAgent, ipAddress)
	return ErrRefreshTokenReused
}

func (s *AuthService) Logout(ctx context.Context, userID, rawRefreshToken string, allDevices bool) (*transport.LogoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "all_devices", allDevices)

	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	var closed int64

	if allDevices {
		deleted, err := s.Repo.DeleteAllRefreshTokens(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.SecurityVersion++
		// The caller always sees at least one closed session, even if
		// no rows were active.
		closed = max(deleted, 1)
		l.Info("all sessions terminated", "user_id", user.ID, "deleted", deleted, "security_version", user.SecurityVersion)
	} else {
		if strings.TrimSpace(rawRefreshToken) == "" {
			return nil, ErrMissingRefreshToken
		}
		match, err := s.Repo.FindMatch(ctx, user.ID, rawRefreshToken)
		if err != nil {
			return nil, err
		}
		if match != nil {
			if err := s.Repo.DeleteRefreshToken(ctx, match.ID); err != nil {
				return nil, err
			}
			closed = 1
		}
		// No match means the session is already gone; logout stays
		// idempotent and reports zero.
	}

	user.LastLogoutAt = &now
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeLogout, user, "", "")

	message := "logged out"
	if allDevices {
		message = "logged out on all devices"
	}
	l.Info("logout completed", "user_id", user.ID, "sessions_closed", closed)

	return &transport.LogoutResult{
		Message:        message,
		SessionsClosed: closed,
		Timestamp:      now,
	}, nil
}

// PurgeExpired drops expired and consumed refresh-token rows. Called
// from a background sweeper, never from the request path.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Repo.PurgeExpiredAndUsed(ctx, s.now())
}

func lockoutState(u *models.User) lockout.State {
	return lockout.State{FailedAttempts: u.FailedLoginAttempts, LockedUntil: u.LockedUntil}
}

func applyLockout(u *models.User, s lockout.State) {
	u.FailedLoginAttempts = s.FailedAttempts
	u.LockedUntil = s.LockedUntil
}
