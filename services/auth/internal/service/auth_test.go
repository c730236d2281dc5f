package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokenhash"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/lockout"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/models"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/repo"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/transport"
)

const (
	testEmail    = "a@b.com"
	testPassword = "pw123456"
	testAgent    = "go-test-agent"
	testIP       = "192.0.2.10"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	db    *gorm.DB
	rp    *repo.GormRepo
	svc   *AuthService
	clock *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled connection to a fresh :memory: database would see an
	// empty schema, so the pool is pinned to a single connection.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserRole{}, &models.RefreshToken{}))

	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	rp := &repo.GormRepo{
		DB:          db,
		TokenHasher: tokenhash.NewWithIterations(1000),
		RefreshTTL:  7 * 24 * time.Hour,
		Now:         clock.Now,
	}

	svc := &AuthService{
		Repo:  rp,
		Codec: tokens.NewCodec([]byte("test-jwt-secret"), 15*time.Minute, 7*24*time.Hour),
		Now:   clock.Now,
	}

	return &testEnv{db: db, rp: rp, svc: svc, clock: clock}
}

func (env *testEnv) register(t *testing.T) *models.User {
	t.Helper()

	_, err := env.svc.Register(context.Background(), transport.RegisterRequest{
		Email:    testEmail,
		Username: "alice",
		Password: testPassword,
	})
	require.NoError(t, err)

	user, err := env.rp.FindByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func (env *testEnv) login(t *testing.T) *transport.LoginResult {
	t.Helper()

	res, err := env.svc.Login(context.Background(), testEmail, testPassword, testAgent, testIP)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func (env *testEnv) activeTokenCount(t *testing.T, userID string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, env.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND used = ? AND expires_at > ?", userID, false, env.clock.Now()).
		Count(&n).Error)
	return n
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t)

	_, err := env.svc.Register(context.Background(), transport.RegisterRequest{
		Email:    "A@B.COM",
		Username: "other",
		Password: "x12345678",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyInUse)
}

func TestLogin_Success_IssuesTokensAndSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)

	res := env.login(t)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int((15 * time.Minute).Seconds()), res.ExpiresIn)
	assert.Equal(t, testEmail, res.User.Email)
	assert.Equal(t, []string{models.RoleUser}, res.User.Roles)

	assert.True(t, env.svc.Codec.IsAccessTokenValid(res.AccessToken, testEmail))
	assert.EqualValues(t, 1, env.activeTokenCount(t, user.ID))

	reloaded, err := env.rp.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t)

	res, err := env.svc.Login(context.Background(), "A@B.com", testPassword, testAgent, testIP)
	require.NoError(t, err)
	assert.Equal(t, testEmail, res.User.Email)
}

func TestLogin_UnknownEmailAndWrongPassword_Indistinguishable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t)

	_, errUnknown := env.svc.Login(context.Background(), "nobody@b.com", testPassword, testAgent, testIP)
	_, errWrongPw := env.svc.Login(context.Background(), testEmail, "wrong-password", testAgent, testIP)

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
}

func TestLogin_InactiveAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)

	user.IsActive = false
	require.NoError(t, env.rp.SaveUser(context.Background(), user))

	_, err := env.svc.Login(context.Background(), testEmail, testPassword, testAgent, testIP)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestLogin_LockoutThreshold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	ctx := context.Background()

	for i := 0; i < lockout.MaxFailedAttempts; i++ {
		_, err := env.svc.Login(ctx, testEmail, "wrong-password", testAgent, testIP)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	reloaded, err := env.rp.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, lockout.MaxFailedAttempts, reloaded.FailedLoginAttempts)
	require.NotNil(t, reloaded.LockedUntil)
	assert.WithinDuration(t, env.clock.Now().Add(lockout.LockDuration), *reloaded.LockedUntil, time.Second)

	// Correct credentials during the lock still fail with the lock
	// error, not invalid credentials, and the counter stays put.
	var locked *AccountLockedError
	_, err = env.svc.Login(ctx, testEmail, testPassword, testAgent, testIP)
	require.ErrorAs(t, err, &locked)
	assert.WithinDuration(t, *reloaded.LockedUntil, locked.Until, time.Second)

	reloaded, err = env.rp.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, lockout.MaxFailedAttempts, reloaded.FailedLoginAttempts)
}

func TestLogin_LockExpiresLazily(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	ctx := context.Background()

	for i := 0; i < lockout.MaxFailedAttempts; i++ {
		_, _ = env.svc.Login(ctx, testEmail, "wrong-password", testAgent, testIP)
	}

	env.clock.Advance(lockout.LockDuration + time.Second)

	res, err := env.svc.Login(ctx, testEmail, testPassword, testAgent, testIP)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	reloaded, err := env.rp.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.FailedLoginAttempts)
	assert.Nil(t, reloaded.LockedUntil)
}

func TestRefresh_RotatesToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	ctx := context.Background()

	loginRes := env.login(t)

	refreshed, err := env.svc.Refresh(ctx, loginRes.RefreshToken, testAgent, testIP)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
	assert.NotEqual(t, loginRes.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, "Bearer", refreshed.TokenType)

	// Exactly one active record remains and the consumed one is kept
	// with used=true.
	assert.EqualValues(t, 1, env.activeTokenCount(t, user.ID))

	var used int64
	require.NoError(t, env.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND used = ?", user.ID, true).
		Count(&used).Error)
	assert.EqualValues(t, 1, used)
}

func TestRefresh_ReuseTerminatesAllSessions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	ctx := context.Background()

	loginRes := env.login(t)

	refreshed, err := env.svc.Refresh(ctx, loginRes.RefreshToken, testAgent, testIP)
	require.NoError(t, err)

	// Replaying the consumed token is a breach: everything goes.
	_, err = env.svc.Refresh(ctx, loginRes.RefreshToken, testAgent, testIP)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)

	var remaining int64
	require.NoError(t, env.db.Model(&models.RefreshToken{}).
		Where("user_id = ?", user.ID).
		Count(&remaining).Error)
	assert.Zero(t, remaining)

	// The rotated-in token was revoked along with everything else.
	_, err = env.svc.Refresh(ctx, refreshed.RefreshToken, testAgent, testIP)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_InputValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t)
	loginRes := env.login(t)
	ctx := context.Background()

	t.Run("blank token", func(t *testing.T) {
		_, err := env.svc.Refresh(ctx, "  ", testAgent, testIP)
		assert.ErrorIs(t, err, ErrMissingRefreshToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := env.svc.Refresh(ctx, "not-a-jwt", testAgent, testIP)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("access token presented", func(t *testing.T) {
		_, err := env.svc.Refresh(ctx, loginRes.AccessToken, testAgent, testIP)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestRefresh_ExpiredJWT(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)

	expiredCodec := tokens.NewCodec([]byte("test-jwt-secret"), 15*time.Minute, -time.Minute)
	stale, err := expiredCodec.IssueRefreshToken(tokens.Identity{
		ID:    user.ID,
		Email: user.Email,
	})
	require.NoError(t, err)

	_, err = env.svc.Refresh(context.Background(), stale, testAgent, testIP)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestRefresh_ExpiredRecord(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t)
	loginRes := env.login(t)

	// The record's expiry passes on the store clock while the JWT
	// itself is still within its own lifetime.
	env.clock.Advance(env.rp.RefreshTTL + time.Minute)

	_, err := env.svc.Refresh(context.Background(), loginRes.RefreshToken, testAgent, testIP)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_StaleSecurityVersion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	loginRes := env.login(t)
	ctx := context.Background()

	user.SecurityVersion++
	require.NoError(t, env.rp.SaveUser(ctx, user))

	_, err := env.svc.Refresh(ctx, loginRes.RefreshToken, testAgent, testIP)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_ConcurrentConsumption_OneWinner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	loginRes := env.login(t)
	ctx := context.Background()

	match, err := env.rp.FindMatch(ctx, user.ID, loginRes.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, match)

	_, err = env.rp.Rotate(ctx, match.ID, user.ID, "winner-token", testAgent, testIP)
	require.NoError(t, err)

	_, err = env.rp.Rotate(ctx, match.ID, user.ID, "loser-token", testAgent, testIP)
	assert.ErrorIs(t, err, repo.ErrTokenConsumed)
}

func TestMarkUsed_Idempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	loginRes := env.login(t)
	ctx := context.Background()

	match, err := env.rp.FindMatch(ctx, user.ID, loginRes.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, match)

	require.NoError(t, env.rp.MarkUsed(ctx, match.ID))
	// Marking an already-used record again is a no-op, not an error.
	require.NoError(t, env.rp.MarkUsed(ctx, match.ID))

	reloaded, err := env.rp.FindMatch(ctx, user.ID, loginRes.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.True(t, reloaded.Used)
}

func TestLogout_SingleSession_Idempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	loginRes := env.login(t)
	ctx := context.Background()

	res, err := env.svc.Logout(ctx, user.ID, loginRes.RefreshToken, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.SessionsClosed)

	// Same token again: already logged out, zero closed, no error.
	res, err = env.svc.Logout(ctx, user.ID, loginRes.RefreshToken, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.SessionsClosed)

	reloaded, err := env.rp.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLogoutAt)
}

func TestLogout_SingleSession_RequiresToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	env.login(t)

	_, err := env.svc.Logout(context.Background(), user.ID, "", false)
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}

func TestLogout_AllDevices(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.login(t)
	}
	require.EqualValues(t, 3, env.activeTokenCount(t, user.ID))

	res, err := env.svc.Logout(ctx, user.ID, "", true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.SessionsClosed)
	assert.EqualValues(t, 0, env.activeTokenCount(t, user.ID))

	reloaded, err := env.rp.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.SecurityVersion)

	// With nothing left to revoke the caller still sees one closed
	// session, and the security version moves again.
	res, err = env.svc.Logout(ctx, user.ID, "", true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.SessionsClosed)

	reloaded, err = env.rp.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.SecurityVersion)
}

func TestPurgeExpired_RemovesConsumedRows(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.register(t)
	ctx := context.Background()

	loginRes := env.login(t)
	_, err := env.svc.Refresh(ctx, loginRes.RefreshToken, testAgent, testIP)
	require.NoError(t, err)

	purged, err := env.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	// The still-active rotated token survives the sweep.
	assert.EqualValues(t, 1, env.activeTokenCount(t, user.ID))
}
