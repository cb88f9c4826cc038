package postgresengine

import (
	"database/sql"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/shopkernel/ordershop-go/ordershop"
	"github.com/shopkernel/ordershop-go/ordershop/postgresengine/internal/adapters"
)

const (
	defaultOrdersTable     = "orders"
	defaultOrderLinesTable = "order_lines"
	defaultDeliveriesTable = "deliveries"
	defaultMembersTable    = "members"
	defaultItemsTable      = "items"

	logMsgBuildQueryFailed    = "failed to build sql query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database statement execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgBeginTxFailed       = "failed to begin transaction"
	logMsgCommitTxFailed      = "failed to commit transaction"
	logMsgRollbackTxFailed    = "failed to roll back transaction"
	logMsgQueryCompleted      = "query completed"
	logMsgCommandCompleted    = "command completed"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "order store operation: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrStrategy           = "strategy"
	logAttrOrderCount         = "order_count"
	logAttrStatementCount     = "statement_count"
	logAttrDurationMS         = "duration_ms"
	logAttrOrderID            = "order_id"
	logAttrMemberID           = "member_id"
	logAttrItemID             = "item_id"

	dialectPostgres = "postgres"

	aliasOrders     = "o"
	aliasOrderLines = "ol"
	aliasDeliveries = "d"
	aliasMembers    = "m"

	colID            = "id"
	colOrderNo       = "order_no"
	colMemberID      = "member_id"
	colDeliveryID    = "delivery_id"
	colOrderID       = "order_id"
	colItemID        = "item_id"
	colStatus        = "status"
	colOrderedAt     = "ordered_at"
	colName          = "name"
	colCity          = "city"
	colStreet        = "street"
	colZipCode       = "zip_code"
	colItemName      = "item_name"
	colOrderPrice    = "order_price"
	colCount         = "count"
	colKind          = "kind"
	colPrice         = "price"
	colStockQuantity = "stock_quantity"
	colCategories    = "categories"
	colAuthor        = "author"
	colISBN          = "isbn"
	colArtist        = "artist"
	colLabel         = "label"
	colDirector      = "director"
	colActor         = "actor"
)

type (
	sqlQueryString = string
	queryDuration  = time.Duration
)

// tableNames holds the (optionally prefixed) table names the engine queries.
type tableNames struct {
	orders     string
	orderLines string
	deliveries string
	members    string
	items      string
}

func defaultTableNames() tableNames {
	return tableNames{
		orders:     defaultOrdersTable,
		orderLines: defaultOrderLinesTable,
		deliveries: defaultDeliveriesTable,
		members:    defaultMembersTable,
		items:      defaultItemsTable,
	}
}

func prefixedTableNames(prefix string) tableNames {
	return tableNames{
		orders:     prefix + defaultOrdersTable,
		orderLines: prefix + defaultOrderLinesTable,
		deliveries: prefix + defaultDeliveriesTable,
		members:    prefix + defaultMembersTable,
		items:      prefix + defaultItemsTable,
	}
}

// OrderStore is the Postgres-backed order store: it owns the decision logic
// for how queries are shaped (loader strategies) and keeps the Order
// aggregate's invariants consistent across its command operations.
// It leverages a database adapter and supports customizable logging,
// metrics, tracing and table naming.
type OrderStore struct {
	db               adapters.DBAdapter
	tables           tableNames
	logger           ordershop.Logger
	contextualLogger ordershop.ContextualLogger
	metricsCollector ordershop.MetricsCollector
	tracingCollector ordershop.TracingCollector
}

// NewOrderStoreFromPGXPool creates a new OrderStore using a pgx Pool with optional configuration.
func NewOrderStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (OrderStore, error) {
	if db == nil {
		return OrderStore{}, ordershop.ErrNilDatabaseConnection
	}

	return newOrderStore(adapters.NewPGXAdapter(db), options...)
}

// NewOrderStoreFromPGXPoolWithReplica creates a new OrderStore using a primary
// pgx Pool and a replica Pool for eventually consistent reads,
// with optional configuration.
func NewOrderStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (OrderStore, error) {
	if db == nil || replica == nil {
		return OrderStore{}, ordershop.ErrNilDatabaseConnection
	}

	return newOrderStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewOrderStoreFromSQLDB creates a new OrderStore using a sql.DB with optional configuration.
func NewOrderStoreFromSQLDB(db *sql.DB, options ...Option) (OrderStore, error) {
	if db == nil {
		return OrderStore{}, ordershop.ErrNilDatabaseConnection
	}

	return newOrderStore(adapters.NewSQLAdapter(db), options...)
}

// NewOrderStoreFromSQLX creates a new OrderStore using a sqlx.DB with optional configuration.
func NewOrderStoreFromSQLX(db *sqlx.DB, options ...Option) (OrderStore, error) {
	if db == nil {
		return OrderStore{}, ordershop.ErrNilDatabaseConnection
	}

	return newOrderStore(adapters.NewSQLXAdapter(db), options...)
}

func newOrderStore(db adapters.DBAdapter, options ...Option) (OrderStore, error) {
	store := OrderStore{
		db:     db,
		tables: defaultTableNames(),
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return OrderStore{}, err
		}
	}

	return store, nil
}
