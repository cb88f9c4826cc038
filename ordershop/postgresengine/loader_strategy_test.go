package postgresengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shopkernel/ordershop-go/ordershop"
)

const (
	testOrderNoOne   = "0190a6e2-0000-7000-8000-000000000001"
	testOrderNoTwo   = "0190a6e2-0000-7000-8000-000000000002"
	testOrderNoThree = "0190a6e2-0000-7000-8000-000000000003"
)

var testOrderedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func rootRowWithoutAssociations(orderID int64, orderNo string) []any {
	return []any{orderID, orderNo, int64(7), "ORDERED", testOrderedAt}
}

func joinedLineColumns(lineID int64, itemID int64, itemName string, orderPrice int64, count int64) []any {
	return []any{lineID, itemID, itemName, orderPrice, count}
}

func Test_QueryOrders_UsesASingleQuery_ForToOneAssociations(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{
		{int64(1), testOrderNoOne, int64(7), "ORDERED", testOrderedAt,
			int64(7), "kim", "Seoul", "Teheran-ro 1", "06234",
			int64(3), "READY", "Seoul", "Teheran-ro 1", "06234"},
	})
	store := newOrderStoreWithRecordingAdapter(adapter)

	// act
	graphs, err := store.QueryOrders(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.WithAssociations(ordershop.AssociationMember, ordershop.AssociationDelivery),
		ordershop.NoPagination(),
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, adapter.statementCount())
	assert.Contains(t, adapter.queries[0], `INNER JOIN "members"`)
	assert.Contains(t, adapter.queries[0], `INNER JOIN "deliveries"`)
	assert.NotContains(t, adapter.queries[0], "LEFT JOIN")

	assert.Len(t, graphs, 1)

	member, memberLoaded := graphs[0].Member.Value()
	assert.True(t, memberLoaded)
	assert.Equal(t, "kim", member.Name)

	delivery, deliveryLoaded := graphs[0].Delivery.Value()
	assert.True(t, deliveryLoaded)
	assert.Equal(t, ordershop.DeliveryStatusReady, delivery.Status)

	assert.False(t, graphs[0].Lines.IsLoaded(), "an association that was not requested must stay unloaded")
}

func Test_QueryOrders_AppliesPaginationDirectly_ForToOneAssociations(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{
		rootRowWithoutAssociations(3, testOrderNoThree),
	})
	store := newOrderStoreWithRecordingAdapter(adapter)

	page, pageErr := ordershop.BuildPageRequest(2, 1)
	assert.NoError(t, pageErr)

	// act
	graphs, err := store.QueryOrders(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.NoAssociations(),
		page,
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, adapter.statementCount())
	assert.Contains(t, adapter.queries[0], "LIMIT 1")
	assert.Contains(t, adapter.queries[0], "OFFSET 2")
	assert.Len(t, graphs, 1)
}

func Test_QueryOrders_JoinFetchesTheCollection_WhenNoPaginationWasRequested(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{
		append(rootRowWithoutAssociations(1, testOrderNoOne),
			joinedLineColumns(10, 1, "Learning Domain-Driven Design", 4500, 2)...),
		append(rootRowWithoutAssociations(1, testOrderNoOne),
			joinedLineColumns(11, 2, "Kind of Blue", 1800, 1)...),
		append(rootRowWithoutAssociations(2, testOrderNoTwo),
			[]any{nil, nil, nil, nil, nil}...),
	})
	store := newOrderStoreWithRecordingAdapter(adapter)

	// act
	graphs, err := store.QueryOrders(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.WithAssociations(ordershop.AssociationLineItems),
		ordershop.NoPagination(),
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, adapter.statementCount(), "the join-fetch strategy must issue a single statement")
	assert.Contains(t, adapter.queries[0], `LEFT JOIN "order_lines"`)

	assert.Len(t, graphs, 2, "multiplied join rows must be deduplicated by root id")

	firstLines, firstLoaded := graphs[0].Lines.Value()
	assert.True(t, firstLoaded)
	assert.Len(t, firstLines, 2)
	assert.Equal(t, "Learning Domain-Driven Design", firstLines[0].ItemName)
	assert.Equal(t, "Kind of Blue", firstLines[1].ItemName)

	secondLines, secondLoaded := graphs[1].Lines.Value()
	assert.True(t, secondLoaded, "a childless order must still get a loaded, empty collection")
	assert.Empty(t, secondLines)
}

func Test_QueryOrders_BatchesTheCollection_WhenPaginationWasRequested(t *testing.T) {
	// setup
	adapter := newRecordingAdapter(
		[][]any{
			rootRowWithoutAssociations(1, testOrderNoOne),
			rootRowWithoutAssociations(2, testOrderNoTwo),
		},
		[][]any{
			{int64(1), int64(10), int64(1), "Learning Domain-Driven Design", int64(4500), int64(2)},
			{int64(1), int64(11), int64(2), "Kind of Blue", int64(1800), int64(1)},
		},
	)
	store := newOrderStoreWithRecordingAdapter(adapter)

	page, pageErr := ordershop.BuildPageRequest(0, 2)
	assert.NoError(t, pageErr)

	// act
	graphs, err := store.QueryOrders(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.WithAssociations(ordershop.AssociationLineItems),
		page,
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, adapter.statementCount(), "one root page query plus one keyed collection query")
	assert.Contains(t, adapter.queries[0], "LIMIT 2")
	assert.Contains(t, adapter.queries[1], "IN (1, 2)")

	assert.Len(t, graphs, 2)

	firstLines, _ := graphs[0].Lines.Value()
	assert.Len(t, firstLines, 2)

	secondLines, secondLoaded := graphs[1].Lines.Value()
	assert.True(t, secondLoaded)
	assert.Empty(t, secondLines)
}

func Test_QueryOrders_StatementCount_IsIndependentOfTheResultSize(t *testing.T) {
	// setup
	rootRows := [][]any{
		rootRowWithoutAssociations(1, testOrderNoOne),
		rootRowWithoutAssociations(2, testOrderNoTwo),
		rootRowWithoutAssociations(3, testOrderNoThree),
	}

	lineRows := make([][]any, 0)
	for lineID := int64(1); lineID <= 30; lineID++ {
		lineRows = append(lineRows,
			[]any{lineID%3 + 1, lineID, int64(1), "Learning Domain-Driven Design", int64(4500), int64(1)})
	}

	adapter := newRecordingAdapter(rootRows, lineRows)
	store := newOrderStoreWithRecordingAdapter(adapter)

	page, pageErr := ordershop.BuildPageRequest(0, 3)
	assert.NoError(t, pageErr)

	// act
	graphs, err := store.QueryOrders(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.WithAssociations(ordershop.AssociationLineItems),
		page,
	)

	// assert
	assert.NoError(t, err)
	assert.Len(t, graphs, 3)
	assert.Equal(t, 2, adapter.statementCount(),
		"the statement count must not grow with the number of orders or lines")
}

func Test_QueryOrders_JoinsMembers_WhenFilteringOnTheBuyerName(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{
		rootRowWithoutAssociations(1, testOrderNoOne),
	})
	store := newOrderStoreWithRecordingAdapter(adapter)

	criteria := ordershop.BuildCriteria().
		WithStatus(ordershop.OrderStatusOrdered).
		WithMemberNameContaining("ki").
		Finalize()

	// act
	graphs, err := store.QueryOrders(
		context.Background(), criteria, ordershop.NoAssociations(), ordershop.NoPagination())

	// assert
	assert.NoError(t, err)
	assert.Len(t, graphs, 1)
	assert.Contains(t, adapter.queries[0], `INNER JOIN "members"`,
		"the buyer-name filter needs the member table even when the association was not requested")
	assert.Contains(t, adapter.queries[0], `LIKE '%ki%'`)
	assert.Contains(t, adapter.queries[0], `'ORDERED'`)
}

func Test_QueryOrdersWithCollectionJoin_RejectsPagination_BeforeAnyStatement(t *testing.T) {
	// setup
	adapter := newRecordingAdapter()
	store := newOrderStoreWithRecordingAdapter(adapter)

	page, pageErr := ordershop.BuildPageRequest(0, 10)
	assert.NoError(t, pageErr)

	// act
	graphs, err := store.QueryOrdersWithCollectionJoin(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.WithAssociations(ordershop.AssociationLineItems),
		page,
	)

	// assert
	assert.ErrorIs(t, err, ordershop.ErrIncompatiblePaginationRequest)
	assert.Nil(t, graphs)
	assert.Equal(t, 0, adapter.statementCount(), "the rejection must happen before any statement is issued")
}

func Test_QueryOrdersWithCollectionJoin_ForcesTheLineItemsAssociation(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{
		append(rootRowWithoutAssociations(1, testOrderNoOne),
			joinedLineColumns(10, 1, "Learning Domain-Driven Design", 4500, 2)...),
	})
	store := newOrderStoreWithRecordingAdapter(adapter)

	// act
	graphs, err := store.QueryOrdersWithCollectionJoin(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.NoAssociations(),
		ordershop.NoPagination(),
	)

	// assert
	assert.NoError(t, err)
	assert.Len(t, graphs, 1)

	lines, loaded := graphs[0].Lines.Value()
	assert.True(t, loaded)
	assert.Len(t, lines, 1)
}

func Test_QueryOrderRowsFlat_RejectsPagination(t *testing.T) {
	// setup
	adapter := newRecordingAdapter()
	store := newOrderStoreWithRecordingAdapter(adapter)

	page, pageErr := ordershop.BuildPageRequest(0, 10)
	assert.NoError(t, pageErr)

	// act
	rows, err := store.QueryOrderRowsFlat(
		context.Background(), ordershop.BuildCriteria().MatchingAnyOrder(), page)

	// assert
	assert.ErrorIs(t, err, ordershop.ErrIncompatiblePaginationRequest)
	assert.Nil(t, rows)
	assert.Equal(t, 0, adapter.statementCount())
}

func Test_QueryOrderRowsFlat_EmitsOneRowForAChildlessOrder(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{
		{int64(1), testOrderNoOne, "kim", "ORDERED", testOrderedAt,
			"Seoul", "Teheran-ro 1", "06234",
			"Learning Domain-Driven Design", int64(4500), int64(2)},
		{int64(2), testOrderNoTwo, "lee", "ORDERED", testOrderedAt,
			"Seoul", "Teheran-ro 1", "06234",
			nil, nil, nil},
	})
	store := newOrderStoreWithRecordingAdapter(adapter)

	// act
	rows, err := store.QueryOrderRowsFlat(
		context.Background(), ordershop.BuildCriteria().MatchingAnyOrder(), ordershop.NoPagination())

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, adapter.statementCount())
	assert.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].LineCount)
	assert.Equal(t, "Learning Domain-Driven Design", rows[0].ItemName)

	assert.Equal(t, 0, rows[1].LineCount, "the NULL left-join row of a childless order maps to line count 0")
	assert.Empty(t, rows[1].ItemName)
}

func Test_QueryOrderViews_UsesAtMostTwoStatements(t *testing.T) {
	// setup
	adapter := newRecordingAdapter(
		[][]any{
			{int64(1), testOrderNoOne, "kim", "ORDERED", testOrderedAt, "Seoul", "Teheran-ro 1", "06234"},
			{int64(2), testOrderNoTwo, "lee", "CANCELLED", testOrderedAt, "Seoul", "Teheran-ro 1", "06234"},
		},
		[][]any{
			{int64(1), int64(10), int64(1), "Learning Domain-Driven Design", int64(4500), int64(2)},
			{int64(2), int64(11), int64(2), "Kind of Blue", int64(1800), int64(1)},
		},
	)
	store := newOrderStoreWithRecordingAdapter(adapter)

	// act
	views, err := store.QueryOrderViews(
		context.Background(), ordershop.BuildCriteria().MatchingAnyOrder(), ordershop.NoPagination())

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, adapter.statementCount())
	assert.Contains(t, adapter.queries[1], "IN (1, 2)")

	assert.Len(t, views, 2)
	assert.Equal(t, "kim", views[0].MemberName)
	assert.Len(t, views[0].Lines, 1)
	assert.Equal(t, ordershop.OrderStatusCancelled, views[1].Status)
	assert.Len(t, views[1].Lines, 1)
}

func Test_QueryOrderViews_SkipsTheLineQuery_WhenNoOrderMatched(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{})
	store := newOrderStoreWithRecordingAdapter(adapter)

	// act
	views, err := store.QueryOrderViews(
		context.Background(), ordershop.BuildCriteria().MatchingAnyOrder(), ordershop.NoPagination())

	// assert
	assert.NoError(t, err)
	assert.Empty(t, views)
	assert.Equal(t, 1, adapter.statementCount())
}

func Test_QueryOrders_LogsStrategyAndStatementCount(t *testing.T) {
	// setup
	adapter := newRecordingAdapter([][]any{}, [][]any{})
	loggerSpy := &capturingContextualLogger{}
	store := newOrderStoreWithRecordingAdapter(adapter, WithContextualLogger(loggerSpy))

	page, pageErr := ordershop.BuildPageRequest(0, 5)
	assert.NoError(t, pageErr)

	// act
	_, err := store.QueryOrders(
		context.Background(),
		ordershop.BuildCriteria().MatchingAnyOrder(),
		ordershop.WithAssociations(ordershop.AssociationLineItems),
		page,
	)

	// assert
	assert.NoError(t, err)

	record, found := loggerSpy.infoRecordWithMessage(logMsgOperation + opQueryOrders)
	assert.True(t, found)
	assert.Contains(t, record.args, logAttrStrategy)
	assert.Contains(t, record.args, strategyBatchedCollections)
	assert.Contains(t, record.args, logAttrStatementCount)
}

// capturingContextualLogger is a minimal in-package spy; the full-featured
// log assertions live in the testutil spies used by the integration tests.
type capturingContextualLogger struct {
	records []capturedLogRecord
}

type capturedLogRecord struct {
	level   string
	message string
	args    []any
}

func (l *capturingContextualLogger) DebugContext(_ context.Context, msg string, args ...any) {
	l.records = append(l.records, capturedLogRecord{level: "debug", message: msg, args: args})
}

func (l *capturingContextualLogger) InfoContext(_ context.Context, msg string, args ...any) {
	l.records = append(l.records, capturedLogRecord{level: "info", message: msg, args: args})
}

func (l *capturingContextualLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.records = append(l.records, capturedLogRecord{level: "warn", message: msg, args: args})
}

func (l *capturingContextualLogger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.records = append(l.records, capturedLogRecord{level: "error", message: msg, args: args})
}

func (l *capturingContextualLogger) infoRecordWithMessage(message string) (capturedLogRecord, bool) {
	for _, record := range l.records {
		if record.level == "info" && record.message == message {
			return record, true
		}
	}

	return capturedLogRecord{}, false
}
