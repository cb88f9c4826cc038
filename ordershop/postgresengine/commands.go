package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/shopkernel/ordershop-go/ordershop"
	"github.com/shopkernel/ordershop-go/ordershop/postgresengine/internal/adapters"
)

const (
	opCreateOrder    = "create_order"
	opCancelOrder    = "cancel_order"
	opRegisterMember = "register_member"
	opSaveItem       = "save_item"
	opFindItem       = "find_item"
	opFindMember     = "find_member"
	opFindOrder      = "find_order"

	castJSONB = "?::jsonb"
)

var jsonFast = jsoniter.ConfigFastest

// OrderLineSpec is the caller's input for one position of a new order:
// which item and how many. Price and name snapshots are taken from the
// item inside the ordering transaction, never from the caller.
type OrderLineSpec struct {
	ItemID ordershop.ItemIDInt64
	Count  int
}

// CreateOrder places a new order in a single transaction: the items are
// locked and their stock is decremented, the delivery is created in READY,
// and the order with its line snapshots is persisted. Any failure, including
// ErrInsufficientStock on any line, rolls the whole transaction back and
// leaves all stock untouched.
func (s OrderStore) CreateOrder(
	ctx context.Context,
	memberID ordershop.MemberIDInt64,
	deliveryAddress ordershop.Address,
	lineSpecs ...OrderLineSpec,
) (ordershop.Order, error) {

	if len(lineSpecs) == 0 {
		return ordershop.Order{}, ordershop.ErrEmptyOrderLines
	}

	ctx, span := s.startSpan(ctx, spanNameCreateOrder, opCreateOrder, "")
	start := time.Now()

	session, beginErr := s.beginSession(ctx, opCreateOrder)
	if beginErr != nil {
		s.finishSpanError(span, errorTypeTx)

		return ordershop.Order{}, beginErr
	}
	defer s.rollbackSession(ctx, session)

	if _, findMemberErr := s.findMemberRecord(ctx, session, opCreateOrder, memberID); findMemberErr != nil {
		s.finishSpanError(span, errorTypeDomain)

		return ordershop.Order{}, findMemberErr
	}

	lockedItems, lockErr := s.lockItemsForOrdering(ctx, session, lineSpecs)
	if lockErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return ordershop.Order{}, lockErr
	}

	orderLines := make([]ordershop.OrderLine, 0, len(lineSpecs))

	for _, lineSpec := range lineSpecs {
		item, found := lockedItems[lineSpec.ItemID]
		if !found {
			s.finishSpanError(span, errorTypeDomain)

			return ordershop.Order{}, ordershop.ErrItemNotFound
		}

		orderLine, lineErr := ordershop.NewOrderLine(item, lineSpec.Count)
		if lineErr != nil {
			s.recordErrorMetrics(ctx, opCreateOrder, errorTypeDomain)
			s.finishSpanError(span, errorTypeDomain)

			return ordershop.Order{}, lineErr
		}

		orderLines = append(orderLines, orderLine)
	}

	delivery := ordershop.BuildDelivery(deliveryAddress)

	deliveryID, insertDeliveryErr := s.insertDelivery(ctx, session, opCreateOrder, delivery)
	if insertDeliveryErr != nil {
		s.finishSpanError(span, errorTypeExec)

		return ordershop.Order{}, insertDeliveryErr
	}
	delivery.ID = deliveryID

	order := ordershop.CreateOrder(
		memberID, delivery, time.Now(), orderLines[0], orderLines[1:]...)

	orderID, insertOrderErr := s.insertOrder(ctx, session, order, deliveryID)
	if insertOrderErr != nil {
		s.finishSpanError(span, errorTypeExec)

		return ordershop.Order{}, insertOrderErr
	}
	order.ID = orderID

	if insertLinesErr := s.insertOrderLines(ctx, session, &order); insertLinesErr != nil {
		s.finishSpanError(span, errorTypeExec)

		return ordershop.Order{}, insertLinesErr
	}

	for _, item := range lockedItems {
		if updateErr := s.updateItemStock(ctx, session, opCreateOrder, item.ID, item.StockQuantity); updateErr != nil {
			s.finishSpanError(span, errorTypeExec)

			return ordershop.Order{}, updateErr
		}
	}

	if commitErr := s.commitSession(ctx, opCreateOrder, session); commitErr != nil {
		s.finishSpanError(span, errorTypeTx)

		return ordershop.Order{}, commitErr
	}

	s.observeCommandSuccess(ctx, opCreateOrder, time.Since(start), span,
		logAttrOrderID, order.ID, logAttrMemberID, memberID)

	return order, nil
}

// CancelOrder cancels an order in a single transaction: the aggregate is
// loaded and locked, Cancel enforces the lifecycle rules, the returned
// restock set is applied to the items and the status change is persisted.
// The domain errors ErrOrderAlreadyCancelled and ErrDeliveryAlreadyCompleted
// pass through unchanged with nothing written.
func (s OrderStore) CancelOrder(ctx context.Context, orderID ordershop.OrderIDInt64) error {
	ctx, span := s.startSpan(ctx, spanNameCancelOrder, opCancelOrder, "")
	start := time.Now()

	session, beginErr := s.beginSession(ctx, opCancelOrder)
	if beginErr != nil {
		s.finishSpanError(span, errorTypeTx)

		return beginErr
	}
	defer s.rollbackSession(ctx, session)

	order, loadErr := s.loadOrderForUpdate(ctx, session, orderID)
	if loadErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return loadErr
	}

	restocks, cancelErr := order.Cancel()
	if cancelErr != nil {
		s.recordErrorMetrics(ctx, opCancelOrder, errorTypeDomain)
		s.finishSpanError(span, errorTypeDomain)

		return cancelErr
	}

	if updateStatusErr := s.updateOrderStatus(ctx, session, order.ID, order.Status); updateStatusErr != nil {
		s.finishSpanError(span, errorTypeExec)

		return updateStatusErr
	}

	for _, restock := range restocks {
		if restockErr := s.applyRestock(ctx, session, restock); restockErr != nil {
			s.finishSpanError(span, errorTypeExec)

			return restockErr
		}
	}

	if commitErr := s.commitSession(ctx, opCancelOrder, session); commitErr != nil {
		s.finishSpanError(span, errorTypeTx)

		return commitErr
	}

	s.observeCommandSuccess(ctx, opCancelOrder, time.Since(start), span, logAttrOrderID, orderID)

	return nil
}

// RegisterMember persists a new member. The name must be free;
// a taken name fails with ErrDuplicateMember.
func (s OrderStore) RegisterMember(ctx context.Context, member ordershop.Member) (ordershop.MemberIDInt64, error) {
	ctx, span := s.startSpan(ctx, spanNameRegisterMember, opRegisterMember, "")
	start := time.Now()

	session, beginErr := s.beginSession(ctx, opRegisterMember)
	if beginErr != nil {
		s.finishSpanError(span, errorTypeTx)

		return 0, beginErr
	}
	defer s.rollbackSession(ctx, session)

	taken, dupCheckErr := s.memberNameTaken(ctx, session, member.Name)
	if dupCheckErr != nil {
		s.finishSpanError(span, errorTypeQuery)

		return 0, dupCheckErr
	}

	if taken {
		s.recordErrorMetrics(ctx, opRegisterMember, errorTypeDomain)
		s.finishSpanError(span, errorTypeDomain)

		return 0, ordershop.ErrDuplicateMember
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(goqu.T(s.tables.members)).
		Rows(goqu.Record{
			colName:    member.Name,
			colCity:    member.Address.City,
			colStreet:  member.Address.Street,
			colZipCode: member.Address.ZipCode,
		}).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)
		s.finishSpanError(span, errorTypeBuildQuery)

		return 0, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	memberID, insertErr := s.queryReturnedID(ctx, session, opRegisterMember, sqlQuery)
	if insertErr != nil {
		s.finishSpanError(span, errorTypeExec)

		return 0, insertErr
	}

	if commitErr := s.commitSession(ctx, opRegisterMember, session); commitErr != nil {
		s.finishSpanError(span, errorTypeTx)

		return 0, commitErr
	}

	s.observeCommandSuccess(ctx, opRegisterMember, time.Since(start), span, logAttrMemberID, memberID)

	return memberID, nil
}

// SaveItem persists an item: a zero ID inserts, a non-zero ID overwrites the
// stored record with the given values (merge semantics). The kind must be one
// of the closed set.
func (s OrderStore) SaveItem(ctx context.Context, item ordershop.Item) (ordershop.ItemIDInt64, error) {
	if !item.Kind.IsValid() {
		return 0, ordershop.ErrUnknownItemKind
	}

	record, recordErr := itemRecord(item)
	if recordErr != nil {
		return 0, recordErr
	}

	if item.ID == 0 {
		insertStmt := goqu.Dialect(dialectPostgres).
			Insert(goqu.T(s.tables.items)).
			Rows(record).
			Returning(colID)

		sqlQuery, _, toSQLErr := insertStmt.ToSQL()
		if toSQLErr != nil {
			s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

			return 0, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
		}

		itemID, insertErr := s.queryReturnedID(ctx, s.db, opSaveItem, sqlQuery)
		if insertErr != nil {
			return 0, insertErr
		}

		s.logOperation(ctx, opSaveItem, logAttrItemID, itemID)

		return itemID, nil
	}

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(goqu.T(s.tables.items)).
		Set(record).
		Where(goqu.C(colID).Eq(item.ID))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return 0, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, _, execErr := s.executeStatement(ctx, s.db, opSaveItem, sqlQuery)
	if execErr != nil {
		return 0, execErr
	}

	if rowsAffected == 0 {
		return 0, ordershop.ErrItemNotFound
	}

	s.logOperation(ctx, opSaveItem, logAttrItemID, item.ID)

	return item.ID, nil
}

// FindItem loads one item by id, or ErrItemNotFound.
func (s OrderStore) FindItem(ctx context.Context, itemID ordershop.ItemIDInt64) (ordershop.Item, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.items)).
		Select(
			goqu.C(colID), goqu.C(colKind), goqu.C(colName),
			goqu.C(colPrice), goqu.C(colStockQuantity),
			goqu.L(colCategories+"::text"),
			goqu.C(colAuthor), goqu.C(colISBN),
			goqu.C(colArtist), goqu.C(colLabel),
			goqu.C(colDirector), goqu.C(colActor),
		).
		Where(goqu.C(colID).Eq(itemID))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return ordershop.Item{}, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := s.executeQuery(ctx, s.db, opFindItem, sqlQuery)
	if queryErr != nil {
		return ordershop.Item{}, queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return ordershop.Item{}, ordershop.ErrItemNotFound
	}

	return scanItemRow(rows)
}

// FindMember loads one member by id, or ErrMemberNotFound.
func (s OrderStore) FindMember(ctx context.Context, memberID ordershop.MemberIDInt64) (ordershop.Member, error) {
	return s.findMemberRecord(ctx, s.db, opFindMember, memberID)
}

// FindOrder loads one full order aggregate by id, or ErrOrderNotFound.
// Unlike the loader this always materializes the delivery and all lines,
// since an aggregate is only valid as a whole.
func (s OrderStore) FindOrder(ctx context.Context, orderID ordershop.OrderIDInt64) (ordershop.Order, error) {
	order, loadErr := s.loadOrderRoot(ctx, s.db, opFindOrder, orderID, false)
	if loadErr != nil {
		return ordershop.Order{}, loadErr
	}

	lines, loadLinesErr := s.loadOrderLines(ctx, s.db, opFindOrder, orderID)
	if loadLinesErr != nil {
		return ordershop.Order{}, loadLinesErr
	}

	order.Lines = lines

	return order, nil
}

/***** transactional building blocks *****/

func (s OrderStore) beginSession(ctx context.Context, operation string) (adapters.DBSession, error) {
	session, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(ctx, logMsgBeginTxFailed, beginErr)
		s.recordErrorMetrics(ctx, operation, errorTypeTx)

		return nil, errors.Join(ordershop.ErrBeginningTransactionFailed, beginErr)
	}

	return session, nil
}

// rollbackSession is deferred on every transactional path; after a successful
// commit the adapter treats it as a no-op.
func (s OrderStore) rollbackSession(ctx context.Context, session adapters.DBSession) {
	if rollbackErr := session.Rollback(ctx); rollbackErr != nil {
		s.logWarn(ctx, logMsgRollbackTxFailed, logAttrError, rollbackErr.Error())
	}
}

func (s OrderStore) commitSession(ctx context.Context, operation string, session adapters.DBSession) error {
	if commitErr := session.Commit(ctx); commitErr != nil {
		s.logError(ctx, logMsgCommitTxFailed, commitErr)
		s.recordErrorMetrics(ctx, operation, errorTypeTx)

		return errors.Join(ordershop.ErrCommittingTransactionFailed, commitErr)
	}

	return nil
}

// queryReturnedID executes an INSERT ... RETURNING id statement and scans the id.
func (s OrderStore) queryReturnedID(
	ctx context.Context,
	querier dbQuerier,
	operation string,
	sqlQuery sqlQueryString,
) (int64, error) {

	rows, _, queryErr := s.executeQuery(ctx, querier, operation, sqlQuery)
	if queryErr != nil {
		return 0, queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return 0, ordershop.ErrExecutingStatementFailed
	}

	var returnedID int64
	if scanErr := rows.Scan(&returnedID); scanErr != nil {
		s.logError(ctx, logMsgScanRowFailed, scanErr)

		return 0, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
	}

	return returnedID, nil
}

func (s OrderStore) findMemberRecord(
	ctx context.Context,
	querier dbQuerier,
	operation string,
	memberID ordershop.MemberIDInt64,
) (ordershop.Member, error) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.members)).
		Select(goqu.C(colID), goqu.C(colName), goqu.C(colCity), goqu.C(colStreet), goqu.C(colZipCode)).
		Where(goqu.C(colID).Eq(memberID))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return ordershop.Member{}, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := s.executeQuery(ctx, querier, operation, sqlQuery)
	if queryErr != nil {
		return ordershop.Member{}, queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return ordershop.Member{}, ordershop.ErrMemberNotFound
	}

	var member ordershop.Member
	scanErr := rows.Scan(
		&member.ID, &member.Name,
		&member.Address.City, &member.Address.Street, &member.Address.ZipCode)
	if scanErr != nil {
		s.logError(ctx, logMsgScanRowFailed, scanErr)

		return ordershop.Member{}, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
	}

	return member, nil
}

func (s OrderStore) memberNameTaken(ctx context.Context, session adapters.DBSession, name string) (bool, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.members)).
		Select(goqu.C(colID)).
		Where(goqu.C(colName).Eq(name))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return false, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := s.executeQuery(ctx, session, opRegisterMember, sqlQuery)
	if queryErr != nil {
		return false, queryErr
	}
	defer s.closeRows(ctx, rows)

	return rows.Next(), nil
}

// lockItemsForOrdering locks and loads the items of the order with one
// SELECT ... FOR UPDATE, keyed by item id. Missing ids surface later as
// ErrItemNotFound when the specs are resolved against the map.
func (s OrderStore) lockItemsForOrdering(
	ctx context.Context,
	session adapters.DBSession,
	lineSpecs []OrderLineSpec,
) (map[ordershop.ItemIDInt64]*ordershop.Item, error) {

	itemIDs := make([]int64, 0, len(lineSpecs))
	for _, lineSpec := range lineSpecs {
		itemIDs = append(itemIDs, lineSpec.ItemID)
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.items)).
		Select(
			goqu.C(colID), goqu.C(colKind), goqu.C(colName),
			goqu.C(colPrice), goqu.C(colStockQuantity),
			goqu.L(colCategories+"::text"),
			goqu.C(colAuthor), goqu.C(colISBN),
			goqu.C(colArtist), goqu.C(colLabel),
			goqu.C(colDirector), goqu.C(colActor),
		).
		Where(goqu.C(colID).In(itemIDs)).
		ForUpdate(exp.Wait)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := s.executeQuery(ctx, session, opCreateOrder, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	lockedItems := make(map[ordershop.ItemIDInt64]*ordershop.Item, len(itemIDs))

	for rows.Next() {
		item, scanErr := scanItemRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		lockedItems[item.ID] = &item
	}

	return lockedItems, nil
}

func (s OrderStore) insertDelivery(
	ctx context.Context,
	session adapters.DBSession,
	operation string,
	delivery ordershop.Delivery,
) (int64, error) {

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(goqu.T(s.tables.deliveries)).
		Rows(goqu.Record{
			colCity:    delivery.Address.City,
			colStreet:  delivery.Address.Street,
			colZipCode: delivery.Address.ZipCode,
			colStatus:  string(delivery.Status),
		}).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return 0, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	return s.queryReturnedID(ctx, session, operation, sqlQuery)
}

func (s OrderStore) insertOrder(
	ctx context.Context,
	session adapters.DBSession,
	order ordershop.Order,
	deliveryID int64,
) (int64, error) {

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(goqu.T(s.tables.orders)).
		Rows(goqu.Record{
			colOrderNo:    order.OrderNo.String(),
			colMemberID:   order.MemberID,
			colDeliveryID: deliveryID,
			colStatus:     string(order.Status),
			colOrderedAt:  order.OrderedAt,
		}).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return 0, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	return s.queryReturnedID(ctx, session, opCreateOrder, sqlQuery)
}

// insertOrderLines persists the order's lines with a single multi-row insert
// and writes the returned ids back onto the aggregate, in line order.
func (s OrderStore) insertOrderLines(
	ctx context.Context,
	session adapters.DBSession,
	order *ordershop.Order,
) error {

	lineRecords := make([]any, 0, len(order.Lines))
	for _, orderLine := range order.Lines {
		lineRecords = append(lineRecords, goqu.Record{
			colOrderID:    order.ID,
			colItemID:     orderLine.ItemID,
			colItemName:   orderLine.ItemName,
			colOrderPrice: orderLine.OrderPrice,
			colCount:      orderLine.Count,
		})
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(goqu.T(s.tables.orderLines)).
		Rows(lineRecords...).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := s.executeQuery(ctx, session, opCreateOrder, sqlQuery)
	if queryErr != nil {
		return queryErr
	}
	defer s.closeRows(ctx, rows)

	for index := 0; rows.Next(); index++ {
		if scanErr := rows.Scan(&order.Lines[index].ID); scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)

			return errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}
	}

	return nil
}

// updateItemStock writes the absolute stock quantity computed on the locked
// item. The row is already locked by lockItemsForOrdering, so an absolute
// write can not race a concurrent decrement.
func (s OrderStore) updateItemStock(
	ctx context.Context,
	session adapters.DBSession,
	operation string,
	itemID ordershop.ItemIDInt64,
	stockQuantity int,
) error {

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(goqu.T(s.tables.items)).
		Set(goqu.Record{colStockQuantity: stockQuantity}).
		Where(goqu.C(colID).Eq(itemID))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	_, _, execErr := s.executeStatement(ctx, session, operation, sqlQuery)

	return execErr
}

// applyRestock returns a cancelled line's quantity to its item with an
// arithmetic update; the item row is not loaded.
func (s OrderStore) applyRestock(
	ctx context.Context,
	session adapters.DBSession,
	restock ordershop.Restock,
) error {

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(goqu.T(s.tables.items)).
		Set(goqu.Record{
			colStockQuantity: goqu.L(colStockQuantity+" + ?", restock.Quantity),
		}).
		Where(goqu.C(colID).Eq(restock.ItemID))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	_, _, execErr := s.executeStatement(ctx, session, opCancelOrder, sqlQuery)

	return execErr
}

// loadOrderForUpdate loads and locks the full aggregate for cancellation.
func (s OrderStore) loadOrderForUpdate(
	ctx context.Context,
	session adapters.DBSession,
	orderID ordershop.OrderIDInt64,
) (ordershop.Order, error) {

	order, loadErr := s.loadOrderRoot(ctx, session, opCancelOrder, orderID, true)
	if loadErr != nil {
		return ordershop.Order{}, loadErr
	}

	lines, loadLinesErr := s.loadOrderLines(ctx, session, opCancelOrder, orderID)
	if loadLinesErr != nil {
		return ordershop.Order{}, loadLinesErr
	}

	order.Lines = lines

	return order, nil
}

func (s OrderStore) loadOrderRoot(
	ctx context.Context,
	querier dbQuerier,
	operation string,
	orderID ordershop.OrderIDInt64,
	lock bool,
) (ordershop.Order, error) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.orders).As(aliasOrders)).
		Select(
			goqu.I(aliasOrders+"."+colID),
			goqu.L(aliasOrders+"."+colOrderNo+"::text"),
			goqu.I(aliasOrders+"."+colMemberID),
			goqu.I(aliasOrders+"."+colStatus),
			goqu.I(aliasOrders+"."+colOrderedAt),
			goqu.I(aliasDeliveries+"."+colID),
			goqu.I(aliasDeliveries+"."+colStatus),
			goqu.I(aliasDeliveries+"."+colCity),
			goqu.I(aliasDeliveries+"."+colStreet),
			goqu.I(aliasDeliveries+"."+colZipCode),
		).
		Join(
			goqu.T(s.tables.deliveries).As(aliasDeliveries),
			goqu.On(goqu.I(aliasOrders+"."+colDeliveryID).Eq(goqu.I(aliasDeliveries+"."+colID))),
		).
		Where(goqu.I(aliasOrders + "." + colID).Eq(orderID))

	if lock {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return ordershop.Order{}, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := s.executeQuery(ctx, querier, operation, sqlQuery)
	if queryErr != nil {
		return ordershop.Order{}, queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return ordershop.Order{}, ordershop.ErrOrderNotFound
	}

	var (
		order             ordershop.Order
		orderNoRaw        string
		statusRaw         string
		deliveryStatusRaw string
	)

	scanErr := rows.Scan(
		&order.ID, &orderNoRaw, &order.MemberID, &statusRaw, &order.OrderedAt,
		&order.Delivery.ID, &deliveryStatusRaw,
		&order.Delivery.Address.City, &order.Delivery.Address.Street, &order.Delivery.Address.ZipCode,
	)
	if scanErr != nil {
		s.logError(ctx, logMsgScanRowFailed, scanErr)

		return ordershop.Order{}, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
	}

	orderNo, parseErr := uuid.Parse(orderNoRaw)
	if parseErr != nil {
		return ordershop.Order{}, errors.Join(ordershop.ErrScanningDBRowFailed, parseErr)
	}

	order.OrderNo = orderNo
	order.Status = ordershop.OrderStatus(statusRaw)
	order.Delivery.Status = ordershop.DeliveryStatus(deliveryStatusRaw)

	return order, nil
}

func (s OrderStore) loadOrderLines(
	ctx context.Context,
	querier dbQuerier,
	operation string,
	orderID ordershop.OrderIDInt64,
) ([]ordershop.OrderLine, error) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(s.tables.orderLines)).
		Select(
			goqu.C(colID), goqu.C(colItemID), goqu.C(colItemName),
			goqu.C(colOrderPrice), goqu.C(colCount),
		).
		Where(goqu.C(colOrderID).Eq(orderID)).
		Order(goqu.C(colID).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return nil, errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := s.executeQuery(ctx, querier, operation, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	lines := make([]ordershop.OrderLine, 0)

	for rows.Next() {
		var orderLine ordershop.OrderLine

		scanErr := rows.Scan(
			&orderLine.ID, &orderLine.ItemID, &orderLine.ItemName,
			&orderLine.OrderPrice, &orderLine.Count)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)

			return nil, errors.Join(ordershop.ErrScanningDBRowFailed, scanErr)
		}

		lines = append(lines, orderLine)
	}

	return lines, nil
}

func (s OrderStore) updateOrderStatus(
	ctx context.Context,
	session adapters.DBSession,
	orderID ordershop.OrderIDInt64,
	status ordershop.OrderStatus,
) error {

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(goqu.T(s.tables.orders)).
		Set(goqu.Record{colStatus: string(status)}).
		Where(goqu.C(colID).Eq(orderID))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return errors.Join(ordershop.ErrBuildingQueryFailed, toSQLErr)
	}

	_, _, execErr := s.executeStatement(ctx, session, opCancelOrder, sqlQuery)

	return execErr
}

/***** item row mapping *****/

// itemRecord maps an Item onto its column values. The detail columns of the
// two kinds the item is not are written as empty strings, which keeps the
// variant readable without nullable scans on every query.
func itemRecord(item ordershop.Item) (goqu.Record, error) {
	categories := item.Categories
	if categories == nil {
		categories = make([]string, 0)
	}

	categoriesJSON, marshalErr := jsonFast.MarshalToString(categories)
	if marshalErr != nil {
		return nil, marshalErr
	}

	return goqu.Record{
		colKind:          string(item.Kind),
		colName:          item.Name,
		colPrice:         item.Price,
		colStockQuantity: item.StockQuantity,
		colCategories:    goqu.L(castJSONB, categoriesJSON),
		colAuthor:        item.Book.Author,
		colISBN:          item.Book.ISBN,
		colArtist:        item.Album.Artist,
		colLabel:         item.Album.Label,
		colDirector:      item.Movie.Director,
		colActor:         item.Movie.Actor,
	}, nil
}

func scanItemRow(rows adapters.DBRows) (ordershop.Item, error) {
	var (
		item          ordershop.Item
		kindRaw       string
		categoriesRaw string
	)

	scanErr := rows.Scan(
		&item.ID, &kindRaw, &item.Name, &item.Price, &item.StockQuantity,
		&categoriesRaw,
		&item.Book.Author, &item.Book.ISBN,
		&item.Album.Artist, &item.Album.Label,
		&item.Movie.Director, &item.Movie.Actor,
	)
	if scanErr != nil {
		return ordershop.Item{}, scanErr
	}

	item.Kind = ordershop.ItemKind(kindRaw)
	item.Categories = make([]string, 0)

	if unmarshalErr := jsonFast.UnmarshalFromString(categoriesRaw, &item.Categories); unmarshalErr != nil {
		return ordershop.Item{}, unmarshalErr
	}

	return item, nil
}

// observeCommandSuccess emits the log line, metrics and span finish shared by
// all command operations.
func (s OrderStore) observeCommandSuccess(
	ctx context.Context,
	operation string,
	duration time.Duration,
	span ordershop.SpanContext,
	logArgs ...any,
) {

	allArgs := append([]any{logAttrDurationMS, s.toMilliseconds(duration)}, logArgs...)
	s.logOperation(ctx, operation, allArgs...)
	s.recordDurationMetrics(ctx, metricCommandDuration, duration, operation, "", statusSuccess)
	s.finishSpanSuccess(span, map[string]string{
		spanAttrDurationMS: formatDurationMS(duration),
	})
}
