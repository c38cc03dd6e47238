package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect captures the few places the supported SQL engines disagree:
// placeholder syntax and how an inserted id is read back.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

func ParseDialect(driver string) (Dialect, error) {
	switch d := Dialect(driver); d {
	case Postgres, MySQL, SQLite:
		return d, nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

func (d Dialect) DriverName() string {
	return string(d)
}

// Rebind rewrites $N placeholders for engines that do not speak them.
// Queries are written postgres-style throughout the repositories.
func (d Dialect) Rebind(query string) string {
	if d == Postgres || d == "" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != '$' || i+1 >= len(query) || query[i+1] < '0' || query[i+1] > '9' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		b.WriteByte('?')
		if d == SQLite {
			b.WriteString(query[i+1 : j])
		}
		i = j - 1
	}
	return b.String()
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertReturningID runs an INSERT written without a RETURNING clause and
// returns the generated id column.
func (d Dialect) InsertReturningID(ctx context.Context, e Execer, query string, args ...any) (int64, error) {
	if d == Postgres {
		var id int64
		err := e.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := e.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
