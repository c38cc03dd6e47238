package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/prospecting-dashboard/internal/db"
)

type CityRepositoryInterface interface {
	CitiesByState(ctx context.Context, state string) ([]string, error)
}

type CityRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// CitiesByState returns the distinct city names for an already-normalized
// state code. No match yields an empty slice.
func (r *CityRepository) CitiesByState(ctx context.Context, state string) ([]string, error) {
	query := `SELECT DISTINCT city FROM cities WHERE state = $1 ORDER BY city`
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := []string{}
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

// Add inserts the pair unless it is already present and reports whether a
// row was written.
func (r *CityRepository) Add(ctx context.Context, state, city string) (bool, error) {
	var exists int
	query := `SELECT COUNT(*) FROM cities WHERE state = $1 AND city = $2`
	if err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), state, city).Scan(&exists); err != nil {
		return false, err
	}
	if exists > 0 {
		return false, nil
	}
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`INSERT INTO cities (state, city) VALUES ($1, $2)`), state, city)
	return err == nil, err
}

var _ CityRepositoryInterface = (*CityRepository)(nil)
