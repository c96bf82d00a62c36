package database

import (
	"context"
	"fmt"
)

// sqliteSchema mirrors postgresSchema with SQLite types.
// order_items.position keeps line order stable on read-back.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		delivery_address TEXT NOT NULL,
		created_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         TEXT PRIMARY KEY,
		order_id   TEXT    NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		product_id TEXT    NOT NULL,
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		price      INTEGER NOT NULL CHECK (price > 0),
		position   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items (product_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT    NOT NULL,
		description TEXT    NOT NULL DEFAULT '',
		price       INTEGER NOT NULL,
		categories  TEXT    NOT NULL DEFAULT '[]',
		created_at  TEXT    NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               UUID PRIMARY KEY,
		delivery_address TEXT        NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         UUID PRIMARY KEY,
		order_id   UUID    NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		product_id UUID    NOT NULL,
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		price      BIGINT  NOT NULL CHECK (price > 0),
		position   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items (product_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          UUID PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		description TEXT         NOT NULL DEFAULT '',
		price       BIGINT       NOT NULL,
		categories  JSONB        NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ  NOT NULL
	)`,
}

// Migrate applies the schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if db.Dialect == DialectPostgres {
		stmts = postgresSchema
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: apply schema: %w", db.Dialect, err)
		}
	}
	return nil
}
