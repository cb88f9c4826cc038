// Package postgresengine implements the order store on Postgres: the
// association loader with its four loading strategies, the command operations
// (create order, cancel order, member registration, item persistence and
// stock adjustment), and the SQL shaping for all of them via goqu.
//
// The engine supports multiple database drivers through the internal adapters
// abstraction: pgx.Pool (with optional read replica), sqlx.DB and sql.DB.
package postgresengine
