// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/unclebandit/prospecting-dashboard/internal/config"
)

// Open connects with the configured driver, sizes the pool and pings.
// Callers treat an error here as fatal.
func Open(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", err
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, "", err
	}

	logger.Info("connecting to database",
		zap.String("driver", cfg.Driver),
		zap.String("host", cfg.Host),
		zap.String("name", cfg.Name),
		zap.Int("pool_size", cfg.PoolSize),
	)

	conn, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	conn.SetMaxOpenConns(cfg.PoolSize)
	conn.SetMaxIdleConns(cfg.PoolSize)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	logger.Info("connected to database")
	return conn, dialect, nil
}

// DSN renders the driver-specific connection string.
func DSN(cfg config.DBConfig) (string, error) {
	switch cfg.Driver {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     cfg.HostPort(),
			Path:     "/" + cfg.Name,
			RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
		}
		return u.String(), nil
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.HostPort()
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN(), nil
	case "sqlite":
		return cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	}
	return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
}
