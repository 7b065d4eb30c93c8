// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, pure Go).
//
// CONNECTION SETTINGS:
// database/sql hands out several pooled connections, and SQLite pragmas are
// per connection. They are therefore passed in the DSN (_pragma=...) so
// every connection in the pool gets foreign keys, WAL, and the busy timeout.
// _txlock=immediate makes BEGIN take the write lock up front, so a second
// writer waits out busy_timeout instead of failing mid-transaction.
//
// SCHEMA:
// Migrations live in migrations/*.sql, are embedded into the binary, and are
// applied with goose when the database is opened.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/club-league/internal/apperror"
)

//go:embed migrations/*.sql
var migrations embed.FS

const defaultBusyTimeout = 5 * time.Second

// Config selects the database file and its lock wait.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// DB wraps a sql.DB connection pool and implements every repository
// interface in internal/repository.
type DB struct {
	conn *sql.DB
}

// New opens the database at cfg.Path, verifies the connection, and applies
// any pending migrations.
func New(ctx context.Context, cfg Config) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if _, err := db.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func dsn(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Set("_txlock", "immediate")

	path := cfg.Path
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?" + q.Encode()
}

// Migrate applies pending migrations and returns the versions it applied,
// oldest first. It is safe to call on an up-to-date database.
func (db *DB) Migrate(ctx context.Context) ([]int64, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// withTx runs fn inside one transaction. fn's error is returned as is after
// the rollback; begin and commit failures are wrapped.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op+": begin", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap(op+": commit", err)
	}
	return nil
}

// =========================================================================
// ERROR TRANSLATION
// =========================================================================

// wrap turns a driver error into the error the services expect: busy and
// locked databases become apperror.Transient so callers can retry, anything
// else is wrapped with the operation name.
func wrap(op string, err error) error {
	if isTransient(err) {
		return apperror.Transient(op, err)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

func isTransient(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// =========================================================================
// HELPERS
// =========================================================================

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// execOne runs a statement that must touch exactly one row and returns
// NotFound otherwise.
func execOne(ctx context.Context, conn *sql.DB, op, resource, id, query string, args ...any) error {
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op+": rows affected", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
