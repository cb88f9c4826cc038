package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/shopkernel/ordershop-go/ordershop/postgresengine"
	"github.com/shopkernel/ordershop-go/testutil/postgresengine/config"
)

// Engine type constants, selected via the ADAPTER_TYPE environment variable.
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper abstracts over the different engine adapter types so the same
// integration tests run against pgx.Pool, sql.DB and sqlx.DB.
type Wrapper interface {
	GetOrderStore() postgresengine.OrderStore
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store postgresengine.OrderStore
}

func (w *PGXPoolWrapper) GetOrderStore() postgresengine.OrderStore {
	return w.store
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store postgresengine.OrderStore
}

func (w *SQLDBWrapper) GetOrderStore() postgresengine.OrderStore {
	return w.store
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db    *sqlx.DB
	store postgresengine.OrderStore
}

func (w *SQLXWrapper) GetOrderStore() postgresengine.OrderStore {
	return w.store
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the
// ADAPTER_TYPE environment variable, with optional store options.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolSingleConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		store, err := postgresengine.NewOrderStoreFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating order store")

		return &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db := config.PostgresSQLDBSingleConfig()

		store, err := postgresengine.NewOrderStoreFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating order store")

		return &SQLDBWrapper{db: db, store: store}

	case typeSQLXDB:
		db := config.PostgresSQLXSingleConfig()

		store, err := postgresengine.NewOrderStoreFromSQLX(db, options...)
		assert.NoError(t, err, "error creating order store")

		return &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// TryCreateOrderStoreWithTablePrefix tries to create an order store with the
// given table prefix and returns the error, for testing the option's error cases.
func TryCreateOrderStoreWithTablePrefix(t testing.TB, prefix string) error {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	options := []postgresengine.Option{postgresengine.WithTablePrefix(prefix)}

	switch engineTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolSingleConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")
		defer connPool.Close()

		_, err = postgresengine.NewOrderStoreFromPGXPool(connPool, options...)

		return err

	case typeSQLDB:
		db := config.PostgresSQLDBSingleConfig()
		defer func(db *sql.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewOrderStoreFromSQLDB(db, options...)

		return err

	case typeSQLXDB:
		db := config.PostgresSQLXSingleConfig()
		defer func(db *sqlx.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewOrderStoreFromSQLX(db, options...)

		return err

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// CleanUp truncates all order store tables for the given wrapper.
func CleanUp(t testing.TB, wrapper Wrapper) {
	const truncate = `TRUNCATE TABLE order_lines, orders, deliveries, items, members RESTART IDENTITY CASCADE`

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		_, err := w.pool.Exec(context.Background(), truncate)
		assert.NoError(t, err, "error cleaning up the order store tables")

	case *SQLDBWrapper:
		_, err := w.db.Exec(truncate)
		assert.NoError(t, err, "error cleaning up the order store tables")

	case *SQLXWrapper:
		_, err := w.db.Exec(truncate)
		assert.NoError(t, err, "error cleaning up the order store tables")

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}
}

// CountRowsInTable returns the number of rows in the given table for the wrapper.
func CountRowsInTable(t testing.TB, wrapper Wrapper, table string) int {
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, table)

	var cnt int
	var err error

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		row := w.pool.QueryRow(context.Background(), query)
		err = row.Scan(&cnt)

	case *SQLDBWrapper:
		row := w.db.QueryRow(query)
		err = row.Scan(&cnt)

	case *SQLXWrapper:
		row := w.db.QueryRow(query)
		err = row.Scan(&cnt)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}

	assert.NoError(t, err, "error counting rows in test")

	return cnt
}

// StockQuantityOfItem reads an item's current stock straight from the database,
// bypassing the store, for asserting restock effects.
func StockQuantityOfItem(t testing.TB, wrapper Wrapper, itemID int64) int {
	query := fmt.Sprintf(`SELECT stock_quantity FROM items WHERE id = %d`, itemID)

	var quantity int
	var err error

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		row := w.pool.QueryRow(context.Background(), query)
		err = row.Scan(&quantity)

	case *SQLDBWrapper:
		row := w.db.QueryRow(query)
		err = row.Scan(&quantity)

	case *SQLXWrapper:
		row := w.db.QueryRow(query)
		err = row.Scan(&quantity)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}

	assert.NoError(t, err, "error reading stock quantity in test")

	return quantity
}
