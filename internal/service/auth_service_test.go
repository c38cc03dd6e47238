package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
	"github.com/unclebandit/prospecting-dashboard/internal/service"
)

func newAuthService(t *testing.T, now time.Time) (*service.AuthService, *MockSessionRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &MockUserRepo{users: map[string]*model.User{
		"ana@example.com": {ID: 7, Name: "Ana", Email: "ana@example.com", PasswordHash: string(hash)},
	}}
	sessions := newMockSessionRepo()
	seq := 0
	svc := &service.AuthService{
		Users:       users,
		Sessions:    sessions,
		TTL:         12 * time.Hour,
		RememberTTL: 7 * 24 * time.Hour,
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return now },
		NewToken: func() string {
			seq++
			return fmt.Sprintf("tok-%d", seq)
		},
	}
	return svc, sessions
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("remember yields a persistent seven day session", func(t *testing.T) {
		svc, sessions := newAuthService(t, now)

		sess, err := svc.Login(ctx, "Ana@Example.com ", "s3cret", true)
		require.NoError(t, err)
		assert.True(t, sess.Persistent)
		assert.Equal(t, now.Add(7*24*time.Hour), sess.ExpiresAt)
		assert.Equal(t, 7, sess.UserID)
		assert.Equal(t, "Ana", sess.UserName)
		assert.Contains(t, sessions.sessions, sess.Token)
	})

	t.Run("without remember the session is browser scoped", func(t *testing.T) {
		svc, _ := newAuthService(t, now)

		sess, err := svc.Login(ctx, "ana@example.com", "s3cret", false)
		require.NoError(t, err)
		assert.False(t, sess.Persistent)
		assert.Equal(t, now.Add(12*time.Hour), sess.ExpiresAt)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		svc, sessions := newAuthService(t, now)

		_, errPw := svc.Login(ctx, "ana@example.com", "nope", true)
		_, errUser := svc.Login(ctx, "bob@example.com", "s3cret", true)

		assert.ErrorIs(t, errPw, appErrors.ErrInvalidCredentials)
		assert.ErrorIs(t, errUser, appErrors.ErrInvalidCredentials)
		assert.Equal(t, errPw.Error(), errUser.Error())
		assert.Empty(t, sessions.sessions)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, sessions := newAuthService(t, now)

	sess, err := svc.Login(ctx, "ana@example.com", "s3cret", false)
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.UserName)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
	_, err = svc.Authenticate(ctx, "forged")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)

	svc.Now = func() time.Time { return now.Add(13 * time.Hour) }
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
	assert.NotContains(t, sessions.sessions, sess.Token)
}

func TestLogoutAndSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, sessions := newAuthService(t, now)

	short, err := svc.Login(ctx, "ana@example.com", "s3cret", false)
	require.NoError(t, err)
	long, err := svc.Login(ctx, "ana@example.com", "s3cret", true)
	require.NoError(t, err)
	other, err := svc.Login(ctx, "ana@example.com", "s3cret", true)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, other.Token))
	require.NoError(t, svc.Logout(ctx, "unknown"))
	_, err = svc.Authenticate(ctx, other.Token)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)

	svc.Now = func() time.Time { return now.Add(24 * time.Hour) }
	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, sessions.sessions, short.Token)
	assert.Contains(t, sessions.sessions, long.Token)
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	svc, _ := newAuthService(t, time.Now())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.RunSweeper(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := service.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = service.HashPassword("")
	assert.ErrorIs(t, err, appErrors.ErrInvalidRequest)
}
