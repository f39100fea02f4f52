package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/backend"
	"audiosales/web-gateway/internal/retry"
	"audiosales/web-gateway/internal/session"
	"audiosales/web-gateway/models"
)

type fakeBackend struct {
	users        map[string]models.User
	getUserErr   error
	logoutErr    error
	logouts      []int
	getUserFails int
	getUserCalls int
	registerErr  error
}

func (f *fakeBackend) Login(_ context.Context, c models.Credentials) (models.User, error) {
	u, ok := f.users[c.Email]
	if !ok || c.Password != "secret" {
		return models.User{}, backend.ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeBackend) NotifyLogout(_ context.Context, userID int) error {
	f.logouts = append(f.logouts, userID)
	return f.logoutErr
}

func (f *fakeBackend) Register(_ context.Context, r models.Registration) (models.User, error) {
	if f.registerErr != nil {
		return models.User{}, f.registerErr
	}
	return models.User{ID: 50, Name: r.Name, Email: r.Email}, nil
}

func (f *fakeBackend) GetUser(_ context.Context, userID int) (models.User, error) {
	f.getUserCalls++
	if f.getUserErr != nil {
		return models.User{}, f.getUserErr
	}
	if f.getUserCalls <= f.getUserFails {
		return models.User{}, errors.New("cold start")
	}
	return models.User{ID: userID, Name: "Restored"}, nil
}

type recordedSleeps struct{ delays []time.Duration }

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newService(b *fakeBackend, secret string, sleeps *recordedSleeps) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	policy := retry.Linear(3, time.Second)
	policy.Sleep = sleeps.sleep
	return NewService(b, session.NewTokens(secret, time.Hour), session.DefaultRules(), policy, logger)
}

func sampleBackend() *fakeBackend {
	return &fakeBackend{users: map[string]models.User{
		"rep@example.com": {ID: 1, Name: "Rep"},
		"mgr@example.com": {ID: 2, Name: "Mgr", IsManager: true},
	}}
}

func TestLoginRedirectsByRole(t *testing.T) {
	svc := newService(sampleBackend(), "s3cret", &recordedSleeps{})
	ctx := context.Background()

	rep, err := svc.Login(ctx, models.Credentials{Email: "rep@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", rep.Redirect)
	assert.NotEmpty(t, rep.Token)
	assert.NotEmpty(t, rep.UserCookie)

	claims, err := svc.Tokens().Verify(rep.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID)

	mgr, err := svc.Login(ctx, models.Credentials{Email: "mgr@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "/manager-dashboard", mgr.Redirect)

	decoded, err := session.DecodeUser(mgr.UserCookie)
	require.NoError(t, err)
	assert.True(t, decoded.IsManager)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()

	_, err := newService(sampleBackend(), "s3cret", &recordedSleeps{}).
		Login(ctx, models.Credentials{Email: "rep@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.Equal(t, apperr.KeyInvalidCredentials, apperr.KeyOf(err))

	_, err = newService(sampleBackend(), "", &recordedSleeps{}).
		Login(ctx, models.Credentials{Email: "rep@example.com", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
}

func TestLogoutIgnoresBackendError(t *testing.T) {
	b := sampleBackend()
	b.logoutErr = errors.New("unreachable")
	svc := newService(b, "s3cret", &recordedSleeps{})

	svc.Logout(context.Background(), 7)
	svc.Logout(context.Background(), 0)
	assert.Equal(t, []int{7}, b.logouts)
}

func TestRegister(t *testing.T) {
	b := sampleBackend()
	svc := newService(b, "s3cret", &recordedSleeps{})

	u, err := svc.Register(context.Background(), models.Registration{Name: "New", Email: "new@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, 50, u.ID)

	b.registerErr = &backend.HTTPStatusError{Operation: "register", StatusCode: 409, Message: "exists"}
	_, err = svc.Register(context.Background(), models.Registration{Name: "New", Email: "new@example.com", Password: "longenough"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRestoreRetriesWithLinearBackoff(t *testing.T) {
	b := sampleBackend()
	b.getUserFails = 2
	sleeps := &recordedSleeps{}
	svc := newService(b, "s3cret", sleeps)

	u, ok := svc.Restore(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "Restored", u.Name)
	assert.Equal(t, 3, b.getUserCalls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
}

func TestRestoreGivesUpSilently(t *testing.T) {
	b := sampleBackend()
	b.getUserFails = 100
	sleeps := &recordedSleeps{}
	svc := newService(b, "s3cret", sleeps)

	_, ok := svc.Restore(context.Background(), 1)
	assert.False(t, ok)
	assert.Equal(t, 4, b.getUserCalls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, sleeps.delays)
}

func TestRestoreCoolsDownAfterFailure(t *testing.T) {
	b := sampleBackend()
	b.getUserFails = 100
	sleeps := &recordedSleeps{}
	svc := newService(b, "s3cret", sleeps)
	now := time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, ok := svc.Restore(context.Background(), 1)
	require.False(t, ok)
	require.Equal(t, 4, b.getUserCalls)

	_, ok = svc.Restore(context.Background(), 1)
	assert.False(t, ok)
	assert.Equal(t, 4, b.getUserCalls, "no backend calls while cooling down")

	b.getUserFails = 0
	b.getUserCalls = 0
	now = now.Add(RestoreCooldown)
	u, ok := svc.Restore(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, 1, b.getUserCalls)
}

func TestRestoreDoesNotRetryMissingUser(t *testing.T) {
	b := sampleBackend()
	b.getUserErr = backend.ErrNotFound
	sleeps := &recordedSleeps{}
	svc := newService(b, "s3cret", sleeps)

	_, ok := svc.Restore(context.Background(), 9)
	assert.False(t, ok)
	assert.Equal(t, 1, b.getUserCalls)
	assert.Empty(t, sleeps.delays)
}
