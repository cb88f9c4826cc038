package ordershop

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/google/uuid"
)

// ErrAssociationNotLoaded is returned when shaping a view from a graph whose
// required associations were not requested from the loader.
var ErrAssociationNotLoaded = errors.New("a required association was not loaded")

var jsonFast = jsoniter.ConfigFastest

// FlatOrderRows is an alias type for a slice of FlatOrderRow.
type FlatOrderRows = []FlatOrderRow

// FlatOrderRow is one row of the flat single-query projection: root and to-one
// columns inlined next to one to-many child, duplicated per child. An order
// without any lines emits exactly one row with the zero line columns and
// LineCount 0.
type FlatOrderRow struct {
	OrderID    OrderIDInt64 `json:"orderId"`
	OrderNo    uuid.UUID    `json:"orderNo"`
	MemberName string       `json:"memberName"`
	OrderedAt  time.Time    `json:"orderedAt"`
	Status     OrderStatus  `json:"status"`
	Address    Address      `json:"address"`
	ItemName   string       `json:"itemName"`
	OrderPrice int64        `json:"orderPrice"`
	LineCount  int          `json:"count"`
}

// OrderLineView is the response shape of one order line.
type OrderLineView struct {
	ItemName   string `json:"itemName"`
	OrderPrice int64  `json:"orderPrice"`
	Count      int    `json:"count"`
}

// OrderViews is an alias type for a slice of OrderView.
type OrderViews = []OrderView

// OrderView is the response shape of one order: only concrete values, no
// entity references and no deferred handles.
type OrderView struct {
	OrderID    OrderIDInt64    `json:"orderId"`
	OrderNo    uuid.UUID       `json:"orderNo"`
	MemberName string          `json:"memberName"`
	OrderedAt  time.Time       `json:"orderedAt"`
	Status     OrderStatus     `json:"status"`
	Address    Address         `json:"address"`
	Lines      []OrderLineView `json:"orderLines"`
}

// ShapeOrderView maps one loaded graph into an OrderView. The member, delivery
// and line-item associations must have been requested; otherwise it fails with
// ErrAssociationNotLoaded instead of emitting placeholder values.
func ShapeOrderView(graph OrderGraph) (OrderView, error) {
	member, memberLoaded := graph.Member.Value()
	delivery, deliveryLoaded := graph.Delivery.Value()
	orderLines, linesLoaded := graph.Lines.Value()

	if !memberLoaded || !deliveryLoaded || !linesLoaded {
		return OrderView{}, ErrAssociationNotLoaded
	}

	lineViews := make([]OrderLineView, 0, len(orderLines))
	for _, orderLine := range orderLines {
		lineViews = append(lineViews, OrderLineView{
			ItemName:   orderLine.ItemName,
			OrderPrice: orderLine.OrderPrice,
			Count:      orderLine.Count,
		})
	}

	return OrderView{
		OrderID:    graph.ID,
		OrderNo:    graph.OrderNo,
		MemberName: member.Name,
		OrderedAt:  graph.OrderedAt,
		Status:     graph.Status,
		Address:    delivery.Address,
		Lines:      lineViews,
	}, nil
}

// ShapeOrderViews maps loaded graphs into OrderViews, one per graph.
func ShapeOrderViews(graphs OrderGraphs) (OrderViews, error) {
	views := make(OrderViews, 0, len(graphs))

	for _, graph := range graphs {
		view, shapeErr := ShapeOrderView(graph)
		if shapeErr != nil {
			return nil, shapeErr
		}

		views = append(views, view)
	}

	return views, nil
}

// ShapeOrderViewsFromFlat regroups flat rows into one OrderView per distinct
// order id. The first occurrence of an order id fixes the position of its
// view; line columns of subsequent rows for the same id are merged into that
// view's lines. Rows with LineCount 0 mark childless orders and contribute no
// line.
func ShapeOrderViewsFromFlat(rows FlatOrderRows) OrderViews {
	views := make(OrderViews, 0)
	indexByOrderID := make(map[OrderIDInt64]int)

	for _, row := range rows {
		index, seen := indexByOrderID[row.OrderID]
		if !seen {
			index = len(views)
			indexByOrderID[row.OrderID] = index

			views = append(views, OrderView{
				OrderID:    row.OrderID,
				OrderNo:    row.OrderNo,
				MemberName: row.MemberName,
				OrderedAt:  row.OrderedAt,
				Status:     row.Status,
				Address:    row.Address,
				Lines:      make([]OrderLineView, 0),
			})
		}

		if row.LineCount == 0 {
			continue
		}

		views[index].Lines = append(views[index].Lines, OrderLineView{
			ItemName:   row.ItemName,
			OrderPrice: row.OrderPrice,
			Count:      row.LineCount,
		})
	}

	return views
}

// EncodeOrderViews serializes views into response-ready JSON.
func EncodeOrderViews(views OrderViews) ([]byte, error) {
	return jsonFast.Marshal(views)
}

// EncodeOrderView serializes one view into response-ready JSON.
func EncodeOrderView(view OrderView) ([]byte, error) {
	return jsonFast.Marshal(view)
}
