package postgresengine_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/shopkernel/ordershop-go/ordershop"
	. "github.com/shopkernel/ordershop-go/ordershop/postgresengine"
	. "github.com/shopkernel/ordershop-go/testutil/postgresengine/helper"
	"github.com/shopkernel/ordershop-go/testutil/postgresengine/helper/postgreswrapper"
)

func Test_Logging_ForTheLoaderStrategies(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logSpy := NewLogHandlerSpy(false)
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t, WithLogger(slog.New(logSpy)))
	defer wrapper.Close()
	store := wrapper.GetOrderStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 1})
	logSpy.Reset()

	// act
	_, err := store.QueryOrders(ctxWithTimeout,
		BuildCriteria().MatchingAnyOrder(),
		WithAssociations(AssociationLineItems),
		NoPagination())

	// assert
	assert.NoError(t, err)
	assert.True(t,
		logSpy.HasInfoLogWithMessage("order store operation: query_orders").
			WithStrategy("collection_join").
			WithStatementCount(1).
			WithOrderCount().
			WithDurationMS().
			Assert(),
		"the loader must log its strategy and statement count")
	assert.True(t,
		logSpy.HasDebugLogWithMessage("executed sql for: query_orders").Assert(),
		"the executed sql must be logged at debug level")
}

func Test_Logging_ForTheBatchedStrategy_ReportsTwoStatements(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logSpy := NewLogHandlerSpy(false)
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t, WithLogger(slog.New(logSpy)))
	defer wrapper.Close()
	store := wrapper.GetOrderStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 1})
	GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 1})
	logSpy.Reset()

	page, pageErr := BuildPageRequest(0, 10)
	assert.NoError(t, pageErr)

	// act
	_, err := store.QueryOrders(ctxWithTimeout,
		BuildCriteria().MatchingAnyOrder(),
		WithAssociations(AssociationLineItems),
		page)

	// assert
	assert.NoError(t, err)
	assert.True(t,
		logSpy.HasInfoLogWithMessage("order store operation: query_orders").
			WithStrategy("batched_collections").
			WithStatementCount(2).
			Assert())
}

func Test_Metrics_ForALoaderQuery(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metricsSpy := NewMetricsCollectorSpy(true)
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t, WithMetrics(metricsSpy))
	defer wrapper.Close()
	store := wrapper.GetOrderStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 1})
	metricsSpy.Reset()

	// act
	_, err := store.QueryOrders(ctxWithTimeout,
		BuildCriteria().MatchingAnyOrder(),
		WithAssociations(AssociationLineItems),
		NoPagination())

	// assert
	assert.NoError(t, err)
	assert.True(t,
		metricsSpy.HasDurationRecordForMetric("ordershop_query_duration_seconds").
			WithOperation("query_orders").
			WithStrategy("collection_join").
			WithStatus("success").
			Assert())
	assert.True(t,
		metricsSpy.HasValueRecordForMetric("ordershop_statements_per_query").
			WithOperation("query_orders").
			WithStrategy("collection_join").
			Assert())
}

func Test_Metrics_ForADomainRuleViolation(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metricsSpy := NewMetricsCollectorSpy(true)
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t, WithMetrics(metricsSpy))
	defer wrapper.Close()
	store := wrapper.GetOrderStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	order := GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 1})
	GivenOrderCancelled(t, ctxWithTimeout, store, order.ID)
	metricsSpy.Reset()

	// act
	err := store.CancelOrder(ctxWithTimeout, order.ID)

	// assert
	assert.ErrorIs(t, err, ErrOrderAlreadyCancelled)
	assert.True(t,
		metricsSpy.HasCounterRecordForMetric("ordershop_database_errors_total").
			WithOperation("cancel_order").
			WithErrorType("domain_rule").
			Assert())
}

func Test_Tracing_ForLoaderAndCommandSpans(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracingSpy := NewTracingCollectorSpy(true)
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t, WithTracing(tracingSpy))
	defer wrapper.Close()
	store := wrapper.GetOrderStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	tracingSpy.Reset()

	// act
	order, createErr := store.CreateOrder(ctxWithTimeout, memberID, FixtureAddress(),
		OrderLineSpec{ItemID: itemID, Count: 1})
	assert.NoError(t, createErr)

	_, queryErr := store.QueryOrders(ctxWithTimeout,
		BuildCriteria().MatchingAnyOrder(),
		WithAssociations(AssociationLineItems),
		NoPagination())
	assert.NoError(t, queryErr)

	cancelErr := store.CancelOrder(ctxWithTimeout, order.ID)
	assert.NoError(t, cancelErr)

	// assert
	assert.True(t,
		tracingSpy.HasSpanRecordForName("ordershop.create_order").
			WithStatus("success").
			Assert())
	assert.True(t,
		tracingSpy.HasSpanRecordForName("ordershop.query_orders").
			WithStatus("success").
			WithStartAttribute("strategy", "collection_join").
			WithEndAttribute("statement_count", "1").
			Assert())
	assert.True(t,
		tracingSpy.HasSpanRecordForName("ordershop.cancel_order").
			WithStatus("success").
			Assert())
	assert.Equal(t, 1, tracingSpy.CountSpanRecordsForName("ordershop.query_orders"))
}

func Test_ContextualLogger_IsPreferredOverThePlainLogger(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	plainSpy := NewLogHandlerSpy(false)
	contextualSpy := NewContextualLoggerSpy(true)
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t,
		WithLogger(slog.New(plainSpy)),
		WithContextualLogger(contextualSpy))
	defer wrapper.Close()
	store := wrapper.GetOrderStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	plainSpy.Reset()
	contextualSpy.Reset()

	// act
	_, err := store.QueryOrders(ctxWithTimeout,
		BuildCriteria().MatchingAnyOrder(),
		NoAssociations(),
		NoPagination())

	// assert
	assert.NoError(t, err)
	assert.True(t, contextualSpy.HasRecordWithMessage("info", "order store operation: query_orders"))
	assert.Equal(t, 0, plainSpy.GetRecordCount(),
		"the plain logger must stay silent when a contextual logger is configured")
}
