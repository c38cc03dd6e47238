package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unclebandit/prospecting-dashboard/internal/db"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

type SessionRepositoryInterface interface {
	Create(ctx context.Context, s *model.Session) error
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type SessionRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `
        INSERT INTO sessions (token, user_id, user_name, persistent, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query),
		s.Token, s.UserID, s.UserName, s.Persistent, s.ExpiresAt.UTC(), s.CreatedAt.UTC())
	return err
}

// GetByToken returns nil, nil for an unknown token. Expiry is left to the caller.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	query := `SELECT token, user_id, user_name, persistent, expires_at, created_at FROM sessions WHERE token = $1`
	var s model.Session
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), token).Scan(
		&s.Token, &s.UserID, &s.UserName, &s.Persistent, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM sessions WHERE token = $1`), token)
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM sessions WHERE expires_at <= $1`), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ SessionRepositoryInterface = (*SessionRepository)(nil)
