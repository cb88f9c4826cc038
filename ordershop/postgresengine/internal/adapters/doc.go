// Package adapters provides the database abstraction layer for the Postgres
// engine, wrapping pgx.Pool, sqlx.DB and database/sql behind the DBAdapter
// interface so that all SQL shaping stays driver-agnostic. It also exposes
// transactional sessions with guaranteed commit-or-rollback semantics for the
// command operations.
package adapters
