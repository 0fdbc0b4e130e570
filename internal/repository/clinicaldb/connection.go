// Package clinicaldb is the database layer for the clinical store: it
// opens the connection, serializes table definitions for prompting, and
// executes generated queries defensively.
package clinicaldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/go-libsql"
)

// Supported driver names, as registered with database/sql.
const (
	DriverLibSQL   = "libsql"
	DriverPostgres = "pgx"
)

// DB wraps a database handle together with the driver it was opened with.
// The driver decides which catalog the schema snapshot reads from.
type DB struct {
	conn        *sql.DB
	driver      string
	allowWrites bool
	logger      *slog.Logger
}

// Open connects to the clinical database and verifies the connection.
// For libsql file DSNs the parent directory is created if missing.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*DB, error) {
	switch driver {
	case DriverLibSQL, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverLibSQL {
		if err := ensureFilePath(dsn); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{conn: conn, driver: driver, logger: logger}, nil
}

// NewWithConn wraps an existing handle. Used by tests to inject a mock
// connection.
func NewWithConn(conn *sql.DB, driver string, logger *slog.Logger) *DB {
	return &DB{conn: conn, driver: driver, logger: logger}
}

// AllowWrites disables the read-only guard on generated queries.
func (d *DB) AllowWrites(allow bool) {
	d.allowWrites = allow
}

// Dialect returns the SQL dialect name used in prompt wording.
func (d *DB) Dialect() string {
	if d.driver == DriverPostgres {
		return "PostgreSQL"
	}
	return "SQLite"
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// ensureFilePath creates the parent directory for file-backed DSNs.
// In-memory DSNs pass through untouched.
func ensureFilePath(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create database directory %s: %w", dir, err)
	}
	return nil
}
