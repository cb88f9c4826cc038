package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the order store.
type DBAdapter interface {
	// Query executes a read statement, honoring the read-consistency
	// preference carried in the context where the driver supports it.
	Query(ctx context.Context, query string) (DBRows, error)

	// Exec executes a write statement outside an explicit transaction.
	Exec(ctx context.Context, query string) (DBResult, error)

	// BeginTx starts a transaction on the primary database.
	BeginTx(ctx context.Context) (DBSession, error)
}

// DBSession is one open transaction. Query and Exec run inside the
// transaction; exactly one of Commit or Rollback must be called on every path.
// Rollback after a successful Commit is a no-op, so it is safe to defer.
type DBSession interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
