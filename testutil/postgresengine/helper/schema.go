package helper

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// SchemaStatements returns the DDL for the order store tables, optionally
// prefixed, in dependency order.
func SchemaStatements(prefix string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + prefix + `members (
			id       BIGSERIAL PRIMARY KEY,
			name     TEXT NOT NULL,
			city     TEXT NOT NULL DEFAULT '',
			street   TEXT NOT NULL DEFAULT '',
			zip_code TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + prefix + `items (
			id             BIGSERIAL PRIMARY KEY,
			kind           TEXT NOT NULL,
			name           TEXT NOT NULL,
			price          BIGINT NOT NULL,
			stock_quantity INTEGER NOT NULL,
			categories     JSONB NOT NULL DEFAULT '[]',
			author         TEXT NOT NULL DEFAULT '',
			isbn           TEXT NOT NULL DEFAULT '',
			artist         TEXT NOT NULL DEFAULT '',
			label          TEXT NOT NULL DEFAULT '',
			director       TEXT NOT NULL DEFAULT '',
			actor          TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + prefix + `deliveries (
			id       BIGSERIAL PRIMARY KEY,
			city     TEXT NOT NULL DEFAULT '',
			street   TEXT NOT NULL DEFAULT '',
			zip_code TEXT NOT NULL DEFAULT '',
			status   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + prefix + `orders (
			id          BIGSERIAL PRIMARY KEY,
			order_no    UUID NOT NULL UNIQUE,
			member_id   BIGINT NOT NULL REFERENCES ` + prefix + `members (id),
			delivery_id BIGINT NOT NULL REFERENCES ` + prefix + `deliveries (id),
			status      TEXT NOT NULL,
			ordered_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + prefix + `order_lines (
			id          BIGSERIAL PRIMARY KEY,
			order_id    BIGINT NOT NULL REFERENCES ` + prefix + `orders (id),
			item_id     BIGINT NOT NULL REFERENCES ` + prefix + `items (id),
			item_name   TEXT NOT NULL,
			order_price BIGINT NOT NULL,
			count       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `orders_member_id ON ` + prefix + `orders (member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `orders_status ON ` + prefix + `orders (status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `order_lines_order_id ON ` + prefix + `order_lines (order_id)`,
	}
}

// CreateSchema creates the order store tables for the test run.
func CreateSchema(t testing.TB, db *sql.DB) {
	t.Helper()

	for _, statement := range SchemaStatements("") {
		_, err := db.ExecContext(context.Background(), statement)
		require.NoError(t, err, "error creating test schema")
	}
}

// CleanTables truncates all order store tables so every test starts empty.
func CleanTables(t testing.TB, db *sql.DB) {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		`TRUNCATE TABLE order_lines, orders, deliveries, items, members RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "error cleaning test tables")
}
