// Package db opens and migrates the SQLite-backed store used by the
// persistence contract (spec.md §5, §6). It is the only package that knows
// the store is SQLite; everything above internal/repository.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ConnectionConfig holds pool tuning for the single-writer SQLite handle.
type ConnectionConfig struct {
	BusyTimeout     time.Duration
	ConnMaxLifetime time.Duration
}

// DefaultConnectionConfig matches spec.md §5's external-collaborator
// property: WAL journal, synchronous=NORMAL, 30s busy timeout, foreign keys
// on.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		BusyTimeout:     30 * time.Second,
		ConnMaxLifetime: time.Hour,
	}
}

// Open creates (if needed) and opens the SQLite database at path, applying
// the pragmas spec.md §5 requires. path may be ":memory:" for tests.
func Open(path string, cfg ConnectionConfig) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("Open: MkdirAll %q: %w", dir, err)
			}
		}
	}

	dsn := fmt.Sprintf(
		"%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(ON)",
		path, cfg.BusyTimeout.Milliseconds(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: sql.Open: %w", err)
	}

	// SQLite supports exactly one writer; modernc.org/sqlite serializes
	// through a single *sql.DB connection just fine for our write volume
	// (per-feed aggregation runs, not a high-QPS OLTP workload).
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("Open: PingContext: %w", err)
	}

	slog.Info("database connection established", slog.String("path", path))
	return conn, nil
}
