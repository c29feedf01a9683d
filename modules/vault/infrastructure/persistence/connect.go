package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/iota-uz/vault-import/pkg/configuration"
)

// Open connects to the database described by opts and returns a store together
// with a function releasing every connection.
func Open(ctx context.Context, opts configuration.DatabaseOptions) (*SQLStore, func(), error) {
	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, nil, err
	}
	switch dialect.(type) {
	case SQLite:
		db, err := openSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return New(db, dialect), func() { _ = db.Close() }, nil
	default:
		poolConfig, err := pgxpool.ParseConfig(opts.ConnectionString())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
		}
		poolConfig.MaxConns = opts.MaxConns
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		db := stdlib.OpenDBFromPool(pool)
		return New(db, dialect), func() {
			_ = db.Close()
			pool.Close()
		}, nil
	}
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer; also keeps :memory: databases on one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}
