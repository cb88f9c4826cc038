package postgresengine

import (
	"github.com/shopkernel/ordershop-go/ordershop"
)

// Option defines a functional option for configuring OrderStore.
type Option func(*OrderStore) error

// WithTablePrefix prefixes all table names the engine queries, e.g. a prefix
// of "shop_" makes the engine use shop_orders, shop_order_lines and so on.
func WithTablePrefix(prefix string) Option {
	return func(store *OrderStore) error {
		if prefix == "" {
			return ordershop.ErrEmptyTablePrefix
		}

		store.tables = prefixedTableNames(prefix)

		return nil
	}
}

// WithLogger sets the logger for the OrderStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Order counts, strategy selection, durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger ordershop.Logger) Option {
	return func(store *OrderStore) error {
		store.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the OrderStore.
// The contextual logger will receive log messages with context information
// including automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger ordershop.ContextualLogger) Option {
	return func(store *OrderStore) error {
		store.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the OrderStore.
// The metrics collector will receive performance and operational metrics
// including query/command durations, statement counts per loader call,
// and database error counters.
func WithMetrics(collector ordershop.MetricsCollector) Option {
	return func(store *OrderStore) error {
		store.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the OrderStore.
// The tracing collector will receive distributed tracing information
// including span creation for loader and command operations,
// context propagation, and error tracking.
func WithTracing(collector ordershop.TracingCollector) Option {
	return func(store *OrderStore) error {
		store.tracingCollector = collector
		return nil
	}
}
