package ordershop

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDeliveryAlreadyCompleted is returned when cancelling an order whose delivery has completed.
	ErrDeliveryAlreadyCompleted = errors.New("an order with a completed delivery can not be cancelled")

	// ErrOrderAlreadyCancelled is returned when cancelling an order twice; CANCELLED is terminal.
	ErrOrderAlreadyCancelled = errors.New("the order is already cancelled")

	// ErrEmptyOrderLines is returned when creating an order without any order lines.
	ErrEmptyOrderLines = errors.New("an order needs at least one order line")

	// ErrNonPositiveOrderCount is returned when building an order line with a count below one.
	ErrNonPositiveOrderCount = errors.New("an order line needs a positive count")
)

// OrderStatus is the lifecycle state of an Order.
// The only transition is ORDERED -> CANCELLED.
type OrderStatus string

const (
	OrderStatusOrdered   OrderStatus = "ORDERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderLine is one position of an Order. OrderPrice and ItemName are snapshots
// taken at order time so that later item changes do not rewrite history.
// An OrderLine is owned by exactly one Order and never exists on its own.
type OrderLine struct {
	ID         int64
	ItemID     ItemIDInt64
	ItemName   string
	OrderPrice int64
	Count      int
}

// NewOrderLine builds an OrderLine for the given item and removes the ordered
// count from the item's stock. The count must be at least one; a line that
// orders nothing would be indistinguishable from no line in the flat
// projection. It fails with ErrInsufficientStock if the item can not cover
// the count, leaving the item untouched.
func NewOrderLine(item *Item, count int) (OrderLine, error) {
	if count < 1 {
		return OrderLine{}, ErrNonPositiveOrderCount
	}

	if removeErr := item.RemoveStock(count); removeErr != nil {
		return OrderLine{}, removeErr
	}

	return OrderLine{
		ItemID:     item.ID,
		ItemName:   item.Name,
		OrderPrice: item.Price,
		Count:      count,
	}, nil
}

// TotalPrice is the derived total of this line.
func (l OrderLine) TotalPrice() int64 {
	return l.OrderPrice * int64(l.Count)
}

// Restock instructs the caller to return a quantity to an item's stock.
// Cancel emits one Restock per order line; applying them through the
// Stock Ledger is the transactional caller's job.
type Restock struct {
	ItemID   ItemIDInt64
	Quantity int
}

// Order is the aggregate root. It exclusively owns its Delivery and its
// OrderLines by value; the buyer is referenced by id only.
type Order struct {
	ID        OrderIDInt64
	OrderNo   uuid.UUID
	MemberID  MemberIDInt64
	Delivery  Delivery
	Lines     []OrderLine
	OrderedAt time.Time
	Status    OrderStatus
}

// CreateOrder is the single factory for Orders. It binds the delivery and the
// order lines, sets the initial status and stamps the given order time.
// The lines must already be built with NewOrderLine, i.e. stock is accounted for.
func CreateOrder(
	memberID MemberIDInt64,
	delivery Delivery,
	orderedAt time.Time,
	line OrderLine,
	additionalLines ...OrderLine,
) Order {

	allLines := []OrderLine{line}
	allLines = append(allLines, additionalLines...)

	return Order{
		OrderNo:   uuid.Must(uuid.NewV7()),
		MemberID:  memberID,
		Delivery:  delivery,
		Lines:     allLines,
		OrderedAt: orderedAt,
		Status:    OrderStatusOrdered,
	}
}

// Cancel transitions the order to CANCELLED and returns the restock set,
// one entry per owned line. It fails with ErrDeliveryAlreadyCompleted if the
// delivery has completed and with ErrOrderAlreadyCancelled on a repeated cancel;
// in both cases the order is left unchanged.
func (o *Order) Cancel() ([]Restock, error) {
	if o.Status == OrderStatusCancelled {
		return nil, ErrOrderAlreadyCancelled
	}

	if o.Delivery.Status == DeliveryStatusCompleted {
		return nil, ErrDeliveryAlreadyCompleted
	}

	o.Status = OrderStatusCancelled

	restocks := make([]Restock, 0, len(o.Lines))
	for _, orderLine := range o.Lines {
		restocks = append(restocks, Restock{ItemID: orderLine.ItemID, Quantity: orderLine.Count})
	}

	return restocks, nil
}

// TotalPrice sums the totals of all owned lines.
// It is always derived, never stored.
func (o Order) TotalPrice() int64 {
	var total int64
	for _, orderLine := range o.Lines {
		total += orderLine.TotalPrice()
	}

	return total
}
