package ordershop

import (
	"time"

	"github.com/google/uuid"
)

// Loaded marks whether an association was requested from the loader and, if
// so, carries its concrete value. It replaces the lazy proxy of a classic ORM:
// there is no deferred handle that could fail outside the loading transaction,
// only "not requested" or a fully materialized value.
type Loaded[T any] struct {
	value     T
	requested bool
}

// LoadedValue wraps a concrete, fully materialized value.
func LoadedValue[T any](value T) Loaded[T] {
	return Loaded[T]{value: value, requested: true}
}

// NotRequested marks an association the caller did not ask for.
func NotRequested[T any]() Loaded[T] {
	return Loaded[T]{}
}

// IsLoaded reports whether the association was requested and materialized.
func (l Loaded[T]) IsLoaded() bool {
	return l.requested
}

// Value returns the materialized value and whether it was loaded at all.
func (l Loaded[T]) Value() (T, bool) {
	return l.value, l.requested
}

// OrderGraphs is an alias type for a slice of OrderGraph.
type OrderGraphs = []OrderGraph

// OrderGraph is the loader's result record for one order root: the root's own
// columns plus one Loaded slot per association. Associations the caller did
// not request stay NotRequested; requested ones are always concrete values.
type OrderGraph struct {
	ID        OrderIDInt64
	OrderNo   uuid.UUID
	MemberID  MemberIDInt64
	Status    OrderStatus
	OrderedAt time.Time
	Member    Loaded[Member]
	Delivery  Loaded[Delivery]
	Lines     Loaded[[]OrderLine]
}

// TotalPrice sums the line totals of a graph whose line items were loaded.
// It returns 0, false when the line items were not requested.
func (g OrderGraph) TotalPrice() (int64, bool) {
	orderLines, loaded := g.Lines.Value()
	if !loaded {
		return 0, false
	}

	var total int64
	for _, orderLine := range orderLines {
		total += orderLine.TotalPrice()
	}

	return total, true
}
