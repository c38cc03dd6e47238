package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
	"github.com/unclebandit/prospecting-dashboard/internal/repository"
)

type AuthService struct {
	Users    repository.UserRepositoryInterface
	Sessions repository.SessionRepositoryInterface

	// TTL bounds a browser-session login on the server side; RememberTTL is
	// the lifetime of a "remember me" login.
	TTL         time.Duration
	RememberTTL time.Duration

	Logger *zap.Logger

	Now      func() time.Time
	NewToken func() string
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// equalizer is compared against when the email is unknown so both failure
// paths spend the same bcrypt time.
func equalizer() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-user"), bcrypt.DefaultCost)
	})
	return dummyHash
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) token() string {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return uuid.NewString()
}

// Login checks the credentials and opens a session. Unknown email and wrong
// password both return appErrors.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*model.Session, error) {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(equalizer(), []byte(password))
		s.Logger.Info("login failed", zap.String("reason", "unknown email"))
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.Logger.Warn("stored password hash unusable", zap.Int("user_id", user.ID), zap.Error(err))
		}
		s.Logger.Info("login failed", zap.String("reason", "wrong password"), zap.Int("user_id", user.ID))
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	ttl := s.TTL
	if remember {
		ttl = s.RememberTTL
	}
	sess := &model.Session{
		Token:      s.token(),
		UserID:     user.ID,
		UserName:   user.Name,
		Persistent: remember,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.Logger.Info("user logged in", zap.Int("user_id", user.ID), zap.Bool("remember", remember))
	return sess, nil
}

// Authenticate resolves a session token. Missing, expired or anonymous
// sessions return appErrors.ErrSessionNotFound.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, appErrors.ErrSessionNotFound
	}
	sess, err := s.Sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess == nil || sess.UserID == 0 {
		return nil, appErrors.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		if err := s.Sessions.Delete(ctx, token); err != nil {
			s.Logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, appErrors.ErrSessionNotFound
	}
	return sess, nil
}

// Logout destroys the session. An unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, token)
}

func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.Sessions.DeleteExpired(ctx, s.now())
}

// RunSweeper deletes expired sessions every interval until ctx is done.
func (s *AuthService) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.Logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.Logger.Debug("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}

// HashPassword produces the stored form of a password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", &appErrors.MissingFieldError{Field: "password"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
