package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/unclebandit/prospecting-dashboard/internal/db"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

// UserRepositoryInterface defines methods used by the auth service and the seeder
type UserRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	ListAll(ctx context.Context) ([]model.User, error)
}

type UserRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// GetByEmail returns nil, nil when no user has that email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, name, email, password_hash FROM users WHERE email = $1`
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), normalizeEmail(email))

	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	query := `INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3)`
	id, err := r.Dialect.InsertReturningID(ctx, r.DB, query, u.Name, u.Email, u.PasswordHash)
	if err != nil {
		return err
	}
	u.ID = int(id)
	return nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, email, password_hash FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
