package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Statements returns the schema for the dialect split into single statements.
func (d Dialect) Statements() ([]string, error) {
	raw, err := schemaFS.ReadFile("schema/" + string(d) + ".sql")
	if err != nil {
		return nil, fmt.Errorf("read %s schema: %w", d, err)
	}

	var stmts []string
	for _, part := range strings.Split(string(raw), ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// Migrate creates any missing tables. Every statement is idempotent.
func Migrate(ctx context.Context, conn *sql.DB, d Dialect) error {
	stmts, err := d.Statements()
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	return nil
}
