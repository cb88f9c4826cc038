package ordershop

import (
	"errors"
)

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTablePrefix = errors.New("empty table prefix supplied")

var ErrBuildingQueryFailed = errors.New("building the sql query failed")
var ErrQueryingOrdersFailed = errors.New("querying orders failed")
var ErrScanningDBRowFailed = errors.New("scanning the database row failed")
var ErrExecutingStatementFailed = errors.New("executing the sql statement failed")
var ErrBeginningTransactionFailed = errors.New("beginning the transaction failed")
var ErrCommittingTransactionFailed = errors.New("committing the transaction failed")

var ErrOrderNotFound = errors.New("order not found")
var ErrMemberNotFound = errors.New("member not found")
var ErrItemNotFound = errors.New("item not found")

// OrderIDInt64 is a type alias for int64, representing the identity of an Order row.
type OrderIDInt64 = int64

// MemberIDInt64 is a type alias for int64, representing the identity of a Member row.
type MemberIDInt64 = int64

// ItemIDInt64 is a type alias for int64, representing the identity of an Item row.
type ItemIDInt64 = int64
