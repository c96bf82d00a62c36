// Package database opens the SQL store shared by the order and product
// repositories and owns its schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/config"

	// PostgreSQL for deployments, pure-Go SQLite for local runs and tests
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and DDL
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrNotSQL is returned when the configured driver keeps data in memory
var ErrNotSQL = errors.New("database driver is not SQL-backed")

// DB wraps *sql.DB with the dialect it was opened with
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the configured database and verifies the connection
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch cfg.Driver {
	case "sqlite":
		dialect = DialectSQLite
		db, err = sql.Open("sqlite", sqliteDSN(cfg.DSN))
		if err != nil {
			return nil, fmt.Errorf("sqlite: open %q: %w", cfg.DSN, err)
		}
		// one connection: a single writer, and :memory: lives per connection
		db.SetMaxOpenConns(1)
	case "postgres":
		dialect = DialectPostgres
		db, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: open: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxOpenConns)
		}
		db.SetConnMaxLifetime(30 * time.Minute)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotSQL, cfg.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", dialect, err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// sqliteDSN enables foreign keys everywhere and WAL for file databases
func sqliteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	return fmt.Sprintf("file:%s?%s", path, pragmas)
}

// Rebind rewrites ? placeholders into the dialect's native form
func (db *DB) Rebind(query string) string {
	return Rebind(db.Dialect, query)
}

// Rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timestampLayout is fixed width so stored values sort chronologically as text
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp formats t the way every created_at column stores it
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp reads a created_at value scanned into a string
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
