package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/shopkernel/ordershop-go/ordershop"
	"github.com/shopkernel/ordershop-go/ordershop/postgresengine/internal/adapters"
)

const (
	opQueryOrders     = "query_orders"
	opQueryOrderViews = "query_order_views"
	opQueryOrdersFlat = "query_orders_flat"

	strategyToOneJoin          = "to_one_join"
	strategyCollectionJoin     = "collection_join"
	strategyBatchedCollections = "batched_collections"
	strategyFlatProjection     = "flat"
	strategyViewProjection     = "view_projection"
)

// QueryOrders loads order graphs matching the criteria, populating exactly
// the requested associations, and picks the loading strategy itself:
//
//   - no to-many association requested: a single query with inner joins on
//     the requested to-one associations; pagination applies directly
//   - one to-many association and no pagination: a single query that
//     join-fetches the collection and deduplicates the multiplied root rows
//   - otherwise: the root page is resolved first, then each requested
//     collection is fetched with one keyed IN query and distributed onto its
//     parents
//
// The number of statements depends only on the number of requested
// collections, never on the number of orders returned.
func (s OrderStore) QueryOrders(
	ctx context.Context,
	criteria ordershop.Criteria,
	associations ordershop.AssociationSet,
	page ordershop.PageRequest,
) (ordershop.OrderGraphs, error) {

	switch {
	case associations.CollectionCount() == 0:
		return s.queryOrdersToOne(ctx, criteria, associations, page)
	case !page.Requested() && associations.CollectionCount() == 1:
		return s.queryOrdersCollectionJoin(ctx, criteria, associations)
	default:
		return s.queryOrdersBatched(ctx, criteria, associations, page)
	}
}

// QueryOrdersWithCollectionJoin forces the collection join-fetch strategy:
// a single query that joins the to-many association and deduplicates the
// multiplied root rows. Because offset/limit would count multiplied rows
// instead of distinct orders, any pagination request fails with
// ErrIncompatiblePaginationRequest before a single statement is issued.
func (s OrderStore) QueryOrdersWithCollectionJoin(
	ctx context.Context,
	criteria ordershop.Criteria,
	associations ordershop.AssociationSet,
	page ordershop.PageRequest,
) (ordershop.OrderGraphs, error) {

	if page.Requested() {
		return nil, ordershop.ErrIncompatiblePaginationRequest
	}

	associations = ordershop.WithAssociations(
		append(associations.Associations(), ordershop.AssociationLineItems)...)

	return s.queryOrdersCollectionJoin(ctx, criteria, associations)
}

// QueryOrderRowsFlat loads the flat single-query projection: one row per
// order line with the root and to-one columns duplicated onto each row, and
// exactly one row with zero line columns for an order without lines. The rows
// keep their database order; regrouping them is ShapeOrderViewsFromFlat's job.
// Pagination fails with ErrIncompatiblePaginationRequest since offset/limit
// would count line rows, not orders.
func (s OrderStore) QueryOrderRowsFlat(
	ctx context.Context,
	criteria ordershop.Criteria,
	page ordershop.PageRequest,
) (ordershop.FlatOrderRows, error) {

	if page.Requested() {
		return nil, ordershop.ErrIncompatiblePaginationRequest
	}

	ctx, span := s.startSpan(ctx, spanNameQueryFlat, opQueryOrdersFlat, strategyFlatProjection)

	sqlQuery, buildErr := s.buildFlatQuery(criteria)
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildErr)
		s.recordErrorMetrics(ctx, opQueryOrdersFlat, errorTypeBuildQuery)
		s.finishSpanError(span, errorTypeBuildQuery)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, buildErr)
	}

	rows, duration, queryErr := s.executeQuery(ctx, s.db, opQueryOrdersFlat, sqlQuery)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	flatRows := make(ordershop.FlatOrderRows, 0)

	for rows.Next() {
		row, scanErr := scanFlatRow(rows)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.recordErrorMetrics(ctx, opQueryOrdersFlat, errorTypeScan)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		flatRows = append(flatRows, row)
	}

	s.observeLoaderSuccess(ctx, opQueryOrdersFlat, strategyFlatProjection, len(flatRows), 1, duration, span)

	return flatRows, nil
}

// QueryOrderViews loads response-ready order views: the root page with its
// to-one columns projected directly, then the line views of the whole page
// fetched with one keyed IN query. Never more than two statements.
func (s OrderStore) QueryOrderViews(
	ctx context.Context,
	criteria ordershop.Criteria,
	page ordershop.PageRequest,
) (ordershop.OrderViews, error) {

	ctx, span := s.startSpan(ctx, spanNameQueryViews, opQueryOrderViews, strategyViewProjection)

	sqlQuery, buildErr := s.buildViewRootQuery(criteria, page)
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildErr)
		s.recordErrorMetrics(ctx, opQueryOrderViews, errorTypeBuildQuery)
		s.finishSpanError(span, errorTypeBuildQuery)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, buildErr)
	}

	rows, duration, queryErr := s.executeQuery(ctx, s.db, opQueryOrderViews, sqlQuery)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return nil, queryErr
	}

	views := make(ordershop.OrderViews, 0)
	orderIDs := make([]int64, 0)
	indexByOrderID := make(map[ordershop.OrderIDInt64]int)

	for rows.Next() {
		var (
			view       ordershop.OrderView
			orderNoRaw string
			statusRaw  string
		)

		scanErr := rows.Scan(
			&view.OrderID, &orderNoRaw, &view.MemberName, &statusRaw, &view.OrderedAt,
			&view.Address.City, &view.Address.Street, &view.Address.ZipCode,
		)
		if scanErr != nil {
			s.closeRows(ctx, rows)
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.recordErrorMetrics(ctx, opQueryOrderViews, errorTypeScan)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		orderNo, parseErr := uuid.Parse(orderNoRaw)
		if parseErr != nil {
			s.closeRows(ctx, rows)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, parseErr)
		}

		view.OrderNo = orderNo
		view.Status = ordershop.OrderStatus(statusRaw)
		view.Lines = make([]ordershop.OrderLineView, 0)

		indexByOrderID[view.OrderID] = len(views)
		orderIDs = append(orderIDs, view.OrderID)
		views = append(views, view)
	}

	s.closeRows(ctx, rows)

	if len(views) == 0 {
		s.observeLoaderSuccess(ctx, opQueryOrderViews, strategyViewProjection, 0, 1, duration, span)

		return views, nil
	}

	lineQuery, buildLinesErr := s.buildLinesQuery(orderIDs)
	if buildLinesErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildLinesErr)
		s.recordErrorMetrics(ctx, opQueryOrderViews, errorTypeBuildQuery)
		s.finishSpanError(span, errorTypeBuildQuery)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, buildLinesErr)
	}

	lineRows, lineDuration, lineQueryErr := s.executeQuery(ctx, s.db, opQueryOrderViews, lineQuery)
	if lineQueryErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return nil, lineQueryErr
	}
	defer s.closeRows(ctx, lineRows)

	for lineRows.Next() {
		var (
			orderID  ordershop.OrderIDInt64
			lineID   int64
			itemID   int64
			lineView ordershop.OrderLineView
		)

		scanErr := lineRows.Scan(
			&orderID, &lineID, &itemID, &lineView.ItemName, &lineView.OrderPrice, &lineView.Count)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.recordErrorMetrics(ctx, opQueryOrderViews, errorTypeScan)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		if index, seen := indexByOrderID[orderID]; seen {
			views[index].Lines = append(views[index].Lines, lineView)
		}
	}

	s.observeLoaderSuccess(ctx, opQueryOrderViews, strategyViewProjection,
		len(views), 2, duration+lineDuration, span)

	return views, nil
}

/***** strategy implementations *****/

// queryOrdersToOne is the single-query strategy for graphs without any
// to-many association. To-one joins never multiply root rows, so offset/limit
// operate on distinct orders and pagination is always safe here.
func (s OrderStore) queryOrdersToOne(
	ctx context.Context,
	criteria ordershop.Criteria,
	associations ordershop.AssociationSet,
	page ordershop.PageRequest,
) (ordershop.OrderGraphs, error) {

	ctx, span := s.startSpan(ctx, spanNameQueryOrders, opQueryOrders, strategyToOneJoin)

	sqlQuery, buildErr := s.buildRootQuery(criteria, associations, false, page)
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildErr)
		s.recordErrorMetrics(ctx, opQueryOrders, errorTypeBuildQuery)
		s.finishSpanError(span, errorTypeBuildQuery)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, buildErr)
	}

	rows, duration, queryErr := s.executeQuery(ctx, s.db, opQueryOrders, sqlQuery)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	graphs := make(ordershop.OrderGraphs, 0)

	for rows.Next() {
		graph, _, scanErr := scanGraphRow(rows, associations, false)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.recordErrorMetrics(ctx, opQueryOrders, errorTypeScan)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		graphs = append(graphs, graph)
	}

	s.observeLoaderSuccess(ctx, opQueryOrders, strategyToOneJoin, len(graphs), 1, duration, span)

	return graphs, nil
}

// queryOrdersCollectionJoin is the join-fetch strategy: the collection is
// joined into a single query, multiplying each root row once per line, and
// the multiplied rows are deduplicated by root id while scanning. The first
// occurrence of a root id fixes its position in the result.
func (s OrderStore) queryOrdersCollectionJoin(
	ctx context.Context,
	criteria ordershop.Criteria,
	associations ordershop.AssociationSet,
) (ordershop.OrderGraphs, error) {

	ctx, span := s.startSpan(ctx, spanNameQueryOrders, opQueryOrders, strategyCollectionJoin)

	sqlQuery, buildErr := s.buildRootQuery(criteria, associations, true, ordershop.NoPagination())
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildErr)
		s.recordErrorMetrics(ctx, opQueryOrders, errorTypeBuildQuery)
		s.finishSpanError(span, errorTypeBuildQuery)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, buildErr)
	}

	rows, duration, queryErr := s.executeQuery(ctx, s.db, opQueryOrders, sqlQuery)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	graphs := make(ordershop.OrderGraphs, 0)
	linesByGraph := make(map[ordershop.OrderIDInt64][]ordershop.OrderLine)
	indexByOrderID := make(map[ordershop.OrderIDInt64]int)

	for rows.Next() {
		graph, line, scanErr := scanGraphRow(rows, associations, true)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.recordErrorMetrics(ctx, opQueryOrders, errorTypeScan)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		if _, seen := indexByOrderID[graph.ID]; !seen {
			indexByOrderID[graph.ID] = len(graphs)
			graphs = append(graphs, graph)
		}

		// a NULL left-join row means the order has no lines at all
		if line != nil {
			linesByGraph[graph.ID] = append(linesByGraph[graph.ID], *line)
		}
	}

	for index := range graphs {
		orderLines := linesByGraph[graphs[index].ID]
		if orderLines == nil {
			orderLines = make([]ordershop.OrderLine, 0)
		}

		graphs[index].Lines = ordershop.LoadedValue(orderLines)
	}

	s.observeLoaderSuccess(ctx, opQueryOrders, strategyCollectionJoin, len(graphs), 1, duration, span)

	return graphs, nil
}

// queryOrdersBatched is the two-phase strategy: the root page is resolved
// first with its to-one joins, then the requested collection is fetched for
// the whole page with one keyed IN query and distributed onto its parents.
// This keeps pagination exact and the statement count at 1 + number of
// requested collections, independent of the page size.
func (s OrderStore) queryOrdersBatched(
	ctx context.Context,
	criteria ordershop.Criteria,
	associations ordershop.AssociationSet,
	page ordershop.PageRequest,
) (ordershop.OrderGraphs, error) {

	ctx, span := s.startSpan(ctx, spanNameQueryOrders, opQueryOrders, strategyBatchedCollections)

	sqlQuery, buildErr := s.buildRootQuery(criteria, associations, false, page)
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildErr)
		s.recordErrorMetrics(ctx, opQueryOrders, errorTypeBuildQuery)
		s.finishSpanError(span, errorTypeBuildQuery)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, buildErr)
	}

	rows, duration, queryErr := s.executeQuery(ctx, s.db, opQueryOrders, sqlQuery)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return nil, queryErr
	}

	graphs := make(ordershop.OrderGraphs, 0)
	orderIDs := make([]int64, 0)
	indexByOrderID := make(map[ordershop.OrderIDInt64]int)

	for rows.Next() {
		graph, _, scanErr := scanGraphRow(rows, associations, false)
		if scanErr != nil {
			s.closeRows(ctx, rows)
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.recordErrorMetrics(ctx, opQueryOrders, errorTypeScan)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		indexByOrderID[graph.ID] = len(graphs)
		orderIDs = append(orderIDs, graph.ID)
		graphs = append(graphs, graph)
	}

	s.closeRows(ctx, rows)

	if len(graphs) == 0 {
		s.observeLoaderSuccess(ctx, opQueryOrders, strategyBatchedCollections, 0, 1, duration, span)

		return graphs, nil
	}

	lineQuery, buildLinesErr := s.buildLinesQuery(orderIDs)
	if buildLinesErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildLinesErr)
		s.recordErrorMetrics(ctx, opQueryOrders, errorTypeBuildQuery)
		s.finishSpanError(span, errorTypeBuildQuery)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, buildLinesErr)
	}

	lineRows, lineDuration, lineQueryErr := s.executeQuery(ctx, s.db, opQueryOrders, lineQuery)
	if lineQueryErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return nil, lineQueryErr
	}
	defer s.closeRows(ctx, lineRows)

	linesByGraph := make(map[ordershop.OrderIDInt64][]ordershop.OrderLine)

	for lineRows.Next() {
		var (
			orderID   ordershop.OrderIDInt64
			orderLine ordershop.OrderLine
		)

		scanErr := lineRows.Scan(
			&orderID, &orderLine.ID, &orderLine.ItemID,
			&orderLine.ItemName, &orderLine.OrderPrice, &orderLine.Count)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.recordErrorMetrics(ctx, opQueryOrders, errorTypeScan)
			s.finishSpanError(span, errorTypeScan)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		linesByGraph[orderID] = append(linesByGraph[orderID], orderLine)
	}

	for index := range graphs {
		orderLines := linesByGraph[graphs[index].ID]
		if orderLines == nil {
			orderLines = make([]ordershop.OrderLine, 0)
		}

		graphs[index].Lines = ordershop.LoadedValue(orderLines)
	}

	s.observeLoaderSuccess(ctx, opQueryOrders, strategyBatchedCollections,
		len(graphs), 2, duration+lineDuration, span)

	return graphs, nil
}

/***** query building *****/

// buildRootQuery builds the root select with the joins the requested
// associations need. The member table is also joined when the criteria
// filters on the buyer's name, even if the member association itself was not
// requested. Results are ordered by the root id so that pagination and
// join-row deduplication are deterministic.
func (s OrderStore) buildRootQuery(
	criteria ordershop.Criteria,
	associations ordershop.AssociationSet,
	joinLines bool,
	page ordershop.PageRequest,
) (sqlQueryString, error) {

	selectColumns := []any{
		goqu.I(aliasOrders + "." + colID),
		goqu.L(aliasOrders + "." + colOrderNo + "::text"),
		goqu.I(aliasOrders + "." + colMemberID),
		goqu.I(aliasOrders + "." + colStatus),
		goqu.I(aliasOrders + "." + colOrderedAt),
	}

	if associations.Contains(ordershop.AssociationMember) {
		selectColumns = append(selectColumns,
			goqu.I(aliasMembers+"."+colID),
			goqu.I(aliasMembers+"."+colName),
			goqu.I(aliasMembers+"."+colCity),
			goqu.I(aliasMembers+"."+colStreet),
			goqu.I(aliasMembers+"."+colZipCode),
		)
	}

	if associations.Contains(ordershop.AssociationDelivery) {
		selectColumns = append(selectColumns,
			goqu.I(aliasDeliveries+"."+colID),
			goqu.I(aliasDeliveries+"."+colStatus),
			goqu.I(aliasDeliveries+"."+colCity),
			goqu.I(aliasDeliveries+"."+colStreet),
			goqu.I(aliasDeliveries+"."+colZipCode),
		)
	}

	if joinLines {
		selectColumns = append(selectColumns,
			goqu.I(aliasOrderLines+"."+colID),
			goqu.I(aliasOrderLines+"."+colItemID),
			goqu.I(aliasOrderLines+"."+colItemName),
			goqu.I(aliasOrderLines+"."+colOrderPrice),
			goqu.I(aliasOrderLines+"."+colCount),
		)
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.orders).As(aliasOrders)).
		Select(selectColumns...)

	_, filtersOnMemberName := criteria.MemberNameContains()
	if associations.Contains(ordershop.AssociationMember) || filtersOnMemberName {
		selectStmt = selectStmt.Join(
			goqu.T(s.tables.members).As(aliasMembers),
			goqu.On(goqu.I(aliasOrders+"."+colMemberID).Eq(goqu.I(aliasMembers+"."+colID))),
		)
	}

	if associations.Contains(ordershop.AssociationDelivery) {
		selectStmt = selectStmt.Join(
			goqu.T(s.tables.deliveries).As(aliasDeliveries),
			goqu.On(goqu.I(aliasOrders+"."+colDeliveryID).Eq(goqu.I(aliasDeliveries+"."+colID))),
		)
	}

	if joinLines {
		selectStmt = selectStmt.LeftJoin(
			goqu.T(s.tables.orderLines).As(aliasOrderLines),
			goqu.On(goqu.I(aliasOrderLines+"."+colOrderID).Eq(goqu.I(aliasOrders+"."+colID))),
		)
	}

	selectStmt = addCriteriaClauses(criteria, selectStmt)

	if joinLines {
		selectStmt = selectStmt.Order(
			goqu.I(aliasOrders+"."+colID).Asc(),
			goqu.I(aliasOrderLines+"."+colID).Asc(),
		)
	} else {
		selectStmt = selectStmt.Order(goqu.I(aliasOrders + "." + colID).Asc())
	}

	if page.Requested() {
		selectStmt = selectStmt.Offset(uint(page.Offset())).Limit(uint(page.Limit())) //nolint:gosec
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()

	return sqlQuery, toSQLErr
}

// buildLinesQuery builds the keyed batch query for the line items of a whole
// root page. Ordering by (order_id, id) keeps each parent's lines in
// insertion order.
func (s OrderStore) buildLinesQuery(orderIDs []int64) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.orderLines).As(aliasOrderLines)).
		Select(
			goqu.I(aliasOrderLines+"."+colOrderID),
			goqu.I(aliasOrderLines+"."+colID),
			goqu.I(aliasOrderLines+"."+colItemID),
			goqu.I(aliasOrderLines+"."+colItemName),
			goqu.I(aliasOrderLines+"."+colOrderPrice),
			goqu.I(aliasOrderLines+"."+colCount),
		).
		Where(goqu.I(aliasOrderLines + "." + colOrderID).In(orderIDs)).
		Order(
			goqu.I(aliasOrderLines+"."+colOrderID).Asc(),
			goqu.I(aliasOrderLines+"."+colID).Asc(),
		)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()

	return sqlQuery, toSQLErr
}

// buildViewRootQuery builds the projected root select of the view strategy:
// the to-one columns are projected into the view shape directly instead of
// materializing member and delivery records.
func (s OrderStore) buildViewRootQuery(
	criteria ordershop.Criteria,
	page ordershop.PageRequest,
) (sqlQueryString, error) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.orders).As(aliasOrders)).
		Select(
			goqu.I(aliasOrders+"."+colID),
			goqu.L(aliasOrders+"."+colOrderNo+"::text"),
			goqu.I(aliasMembers+"."+colName),
			goqu.I(aliasOrders+"."+colStatus),
			goqu.I(aliasOrders+"."+colOrderedAt),
			goqu.I(aliasDeliveries+"."+colCity),
			goqu.I(aliasDeliveries+"."+colStreet),
			goqu.I(aliasDeliveries+"."+colZipCode),
		).
		Join(
			goqu.T(s.tables.members).As(aliasMembers),
			goqu.On(goqu.I(aliasOrders+"."+colMemberID).Eq(goqu.I(aliasMembers+"."+colID))),
		).
		Join(
			goqu.T(s.tables.deliveries).As(aliasDeliveries),
			goqu.On(goqu.I(aliasOrders+"."+colDeliveryID).Eq(goqu.I(aliasDeliveries+"."+colID))),
		)

	selectStmt = addCriteriaClauses(criteria, selectStmt).
		Order(goqu.I(aliasOrders + "." + colID).Asc())

	if page.Requested() {
		selectStmt = selectStmt.Offset(uint(page.Offset())).Limit(uint(page.Limit())) //nolint:gosec
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()

	return sqlQuery, toSQLErr
}

// buildFlatQuery builds the flat single-query projection: root and to-one
// columns on every row, one row per line, left-joined so that childless
// orders still emit one row.
func (s OrderStore) buildFlatQuery(criteria ordershop.Criteria) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.orders).As(aliasOrders)).
		Select(
			goqu.I(aliasOrders+"."+colID),
			goqu.L(aliasOrders+"."+colOrderNo+"::text"),
			goqu.I(aliasMembers+"."+colName),
			goqu.I(aliasOrders+"."+colStatus),
			goqu.I(aliasOrders+"."+colOrderedAt),
			goqu.I(aliasDeliveries+"."+colCity),
			goqu.I(aliasDeliveries+"."+colStreet),
			goqu.I(aliasDeliveries+"."+colZipCode),
			goqu.I(aliasOrderLines+"."+colItemName),
			goqu.I(aliasOrderLines+"."+colOrderPrice),
			goqu.I(aliasOrderLines+"."+colCount),
		).
		Join(
			goqu.T(s.tables.members).As(aliasMembers),
			goqu.On(goqu.I(aliasOrders+"."+colMemberID).Eq(goqu.I(aliasMembers+"."+colID))),
		).
		Join(
			goqu.T(s.tables.deliveries).As(aliasDeliveries),
			goqu.On(goqu.I(aliasOrders+"."+colDeliveryID).Eq(goqu.I(aliasDeliveries+"."+colID))),
		).
		LeftJoin(
			goqu.T(s.tables.orderLines).As(aliasOrderLines),
			goqu.On(goqu.I(aliasOrderLines+"."+colOrderID).Eq(goqu.I(aliasOrders+"."+colID))),
		)

	selectStmt = addCriteriaClauses(criteria, selectStmt).
		Order(
			goqu.I(aliasOrders+"."+colID).Asc(),
			goqu.I(aliasOrderLines+"."+colID).Asc(),
		)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()

	return sqlQuery, toSQLErr
}

// addCriteriaClauses translates the generic Criteria into WHERE clauses.
// The member-name filter is a case-sensitive substring match.
func addCriteriaClauses(criteria ordershop.Criteria, selectStmt *goqu.SelectDataset) *goqu.SelectDataset {
	if status, hasStatus := criteria.Status(); hasStatus {
		selectStmt = selectStmt.Where(goqu.I(aliasOrders + "." + colStatus).Eq(string(status)))
	}

	if namePart, hasNamePart := criteria.MemberNameContains(); hasNamePart {
		selectStmt = selectStmt.Where(goqu.I(aliasMembers + "." + colName).Like("%" + namePart + "%"))
	}

	return selectStmt
}

/***** row scanning *****/

// scanGraphRow scans one row of a root query into an OrderGraph. The scan
// destinations must mirror the select column order of buildRootQuery exactly.
// When the row carries left-joined line columns, the scanned line is returned
// separately (nil for the NULL row of a childless order); distributing lines
// onto graphs is the strategy's job.
func scanGraphRow(
	rows adapters.DBRows,
	associations ordershop.AssociationSet,
	withLine bool,
) (ordershop.OrderGraph, *ordershop.OrderLine, error) {

	var (
		graph      ordershop.OrderGraph
		orderNoRaw string
		statusRaw  string
	)

	destinations := []any{&graph.ID, &orderNoRaw, &graph.MemberID, &statusRaw, &graph.OrderedAt}

	var member ordershop.Member
	if associations.Contains(ordershop.AssociationMember) {
		destinations = append(destinations,
			&member.ID, &member.Name,
			&member.Address.City, &member.Address.Street, &member.Address.ZipCode)
	}

	var (
		delivery          ordershop.Delivery
		deliveryStatusRaw string
	)
	if associations.Contains(ordershop.AssociationDelivery) {
		destinations = append(destinations,
			&delivery.ID, &deliveryStatusRaw,
			&delivery.Address.City, &delivery.Address.Street, &delivery.Address.ZipCode)
	}

	var (
		lineID         sql.NullInt64
		lineItemID     sql.NullInt64
		lineItemName   sql.NullString
		lineOrderPrice sql.NullInt64
		lineCount      sql.NullInt64
	)
	if withLine {
		destinations = append(destinations,
			&lineID, &lineItemID, &lineItemName, &lineOrderPrice, &lineCount)
	}

	if scanErr := rows.Scan(destinations...); scanErr != nil {
		return ordershop.OrderGraph{}, nil, scanErr
	}

	orderNo, parseErr := uuid.Parse(orderNoRaw)
	if parseErr != nil {
		return ordershop.OrderGraph{}, nil, parseErr
	}

	graph.OrderNo = orderNo
	graph.Status = ordershop.OrderStatus(statusRaw)

	if associations.Contains(ordershop.AssociationMember) {
		graph.Member = ordershop.LoadedValue(member)
	}

	if associations.Contains(ordershop.AssociationDelivery) {
		delivery.Status = ordershop.DeliveryStatus(deliveryStatusRaw)
		graph.Delivery = ordershop.LoadedValue(delivery)
	}

	var line *ordershop.OrderLine
	if withLine && lineID.Valid {
		line = &ordershop.OrderLine{
			ID:         lineID.Int64,
			ItemID:     lineItemID.Int64,
			ItemName:   lineItemName.String,
			OrderPrice: lineOrderPrice.Int64,
			Count:      int(lineCount.Int64),
		}
	}

	return graph, line, nil
}

// scanFlatRow scans one row of the flat projection. The line columns come
// from a left join and are NULL for a childless order, which maps to the zero
// line values with LineCount 0.
func scanFlatRow(rows adapters.DBRows) (ordershop.FlatOrderRow, error) {
	var (
		row        ordershop.FlatOrderRow
		orderNoRaw string
		statusRaw  string
		itemName   sql.NullString
		orderPrice sql.NullInt64
		lineCount  sql.NullInt64
	)

	scanErr := rows.Scan(
		&row.OrderID, &orderNoRaw, &row.MemberName, &statusRaw, &row.OrderedAt,
		&row.Address.City, &row.Address.Street, &row.Address.ZipCode,
		&itemName, &orderPrice, &lineCount,
	)
	if scanErr != nil {
		return ordershop.FlatOrderRow{}, scanErr
	}

	orderNo, parseErr := uuid.Parse(orderNoRaw)
	if parseErr != nil {
		return ordershop.FlatOrderRow{}, parseErr
	}

	row.OrderNo = orderNo
	row.Status = ordershop.OrderStatus(statusRaw)
	row.ItemName = itemName.String
	row.OrderPrice = orderPrice.Int64
	row.LineCount = int(lineCount.Int64)

	return row, nil
}

// observeLoaderSuccess emits the log line, metrics and span finish shared by
// all loader strategies.
func (s OrderStore) observeLoaderSuccess(
	ctx context.Context,
	operation string,
	strategy string,
	resultCount int,
	statements int,
	duration time.Duration,
	span ordershop.SpanContext,
) {

	s.logOperation(ctx, operation,
		logAttrStrategy, strategy,
		logAttrOrderCount, resultCount,
		logAttrStatementCount, statements,
		logAttrDurationMS, s.toMilliseconds(duration))
	s.recordDurationMetrics(ctx, metricQueryDuration, duration, operation, strategy, statusSuccess)
	s.recordStatementCountMetrics(ctx, operation, strategy, statements)
	s.finishSpanSuccess(span, spanCountAttrs(resultCount, statements, duration))
}
