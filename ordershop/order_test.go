package ordershop_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	. "github.com/shopkernel/ordershop-go/ordershop"
)

func fixtureAddress() Address {
	return Address{City: "Seoul", Street: "Teheran-ro 1", ZipCode: "06234"}
}

func Test_NewOrderLine_SnapshotsNameAndPrice_AndRemovesStock(t *testing.T) {
	// arrange
	item := BuildBookItem("Learning Domain-Driven Design", 4500, 10, "Vlad Khononov", "978-1-098-10013-1")
	item.ID = 42

	// act
	orderLine, err := NewOrderLine(&item, 3)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 7, item.StockQuantity)
	assert.Equal(t, ItemIDInt64(42), orderLine.ItemID)
	assert.Equal(t, "Learning Domain-Driven Design", orderLine.ItemName)
	assert.Equal(t, int64(4500), orderLine.OrderPrice)
	assert.Equal(t, 3, orderLine.Count)
	assert.Equal(t, int64(13500), orderLine.TotalPrice())
}

func Test_NewOrderLine_When_TheStockIsInsufficient(t *testing.T) {
	// arrange
	item := BuildBookItem("Learning Domain-Driven Design", 4500, 2, "Vlad Khononov", "978-1-098-10013-1")

	// act
	_, err := NewOrderLine(&item, 3)

	// assert
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, item.StockQuantity)
}

func Test_NewOrderLine_When_TheCountIsNotPositive(t *testing.T) {
	// arrange
	item := BuildBookItem("Learning Domain-Driven Design", 4500, 10, "Vlad Khononov", "978-1-098-10013-1")

	// act
	_, zeroErr := NewOrderLine(&item, 0)
	_, negativeErr := NewOrderLine(&item, -1)

	// assert
	assert.ErrorIs(t, zeroErr, ErrNonPositiveOrderCount)
	assert.ErrorIs(t, negativeErr, ErrNonPositiveOrderCount)
	assert.Equal(t, 10, item.StockQuantity)
}

func Test_CreateOrder_BindsDeliveryAndLines(t *testing.T) {
	// arrange
	book := BuildBookItem("Learning Domain-Driven Design", 4500, 10, "Vlad Khononov", "978-1-098-10013-1")
	book.ID = 1
	album := BuildAlbumItem("Kind of Blue", 1800, 5, "Miles Davis", "Columbia")
	album.ID = 2

	bookLine, err := NewOrderLine(&book, 2)
	assert.NoError(t, err)
	albumLine, err := NewOrderLine(&album, 1)
	assert.NoError(t, err)

	orderedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// act
	order := CreateOrder(7, BuildDelivery(fixtureAddress()), orderedAt, bookLine, albumLine)

	// assert
	assert.Equal(t, OrderStatusOrdered, order.Status)
	assert.Equal(t, MemberIDInt64(7), order.MemberID)
	assert.Equal(t, DeliveryStatusReady, order.Delivery.Status)
	assert.Equal(t, fixtureAddress(), order.Delivery.Address)
	assert.Equal(t, orderedAt, order.OrderedAt)
	assert.Len(t, order.Lines, 2)
	assert.Equal(t, int64(2*4500+1800), order.TotalPrice())
	assert.NotEqual(t, uuid.Nil, order.OrderNo)
	assert.Equal(t, uuid.Version(7), order.OrderNo.Version())
}

func Test_Cancel_EmitsOneRestockPerLine(t *testing.T) {
	// arrange
	book := BuildBookItem("Learning Domain-Driven Design", 4500, 10, "Vlad Khononov", "978-1-098-10013-1")
	book.ID = 1
	album := BuildAlbumItem("Kind of Blue", 1800, 5, "Miles Davis", "Columbia")
	album.ID = 2

	bookLine, err := NewOrderLine(&book, 3)
	assert.NoError(t, err)
	albumLine, err := NewOrderLine(&album, 1)
	assert.NoError(t, err)

	order := CreateOrder(7, BuildDelivery(fixtureAddress()), time.Now(), bookLine, albumLine)

	// act
	restocks, cancelErr := order.Cancel()

	// assert
	assert.NoError(t, cancelErr)
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, []Restock{{ItemID: 1, Quantity: 3}, {ItemID: 2, Quantity: 1}}, restocks)
}

func Test_Cancel_RestoresTheStock_WhenApplied(t *testing.T) {
	// arrange
	item := BuildBookItem("Learning Domain-Driven Design", 4500, 10, "Vlad Khononov", "978-1-098-10013-1")
	item.ID = 1
	orderLine, err := NewOrderLine(&item, 3)
	assert.NoError(t, err)
	assert.Equal(t, 7, item.StockQuantity)

	order := CreateOrder(7, BuildDelivery(fixtureAddress()), time.Now(), orderLine)

	// act
	restocks, cancelErr := order.Cancel()
	assert.NoError(t, cancelErr)
	for _, restock := range restocks {
		assert.NoError(t, item.AddStock(restock.Quantity))
	}

	// assert
	assert.Equal(t, 10, item.StockQuantity)
}

func Test_Cancel_When_TheDeliveryHasCompleted(t *testing.T) {
	// arrange
	item := BuildBookItem("Learning Domain-Driven Design", 4500, 10, "Vlad Khononov", "978-1-098-10013-1")
	orderLine, err := NewOrderLine(&item, 1)
	assert.NoError(t, err)

	order := CreateOrder(7, BuildDelivery(fixtureAddress()), time.Now(), orderLine)
	order.Delivery.Status = DeliveryStatusCompleted

	// act
	restocks, cancelErr := order.Cancel()

	// assert
	assert.ErrorIs(t, cancelErr, ErrDeliveryAlreadyCompleted)
	assert.Nil(t, restocks)
	assert.Equal(t, OrderStatusOrdered, order.Status, "a rejected cancel must leave the order unchanged")
}

func Test_Cancel_When_TheOrderIsAlreadyCancelled(t *testing.T) {
	// arrange
	item := BuildBookItem("Learning Domain-Driven Design", 4500, 10, "Vlad Khononov", "978-1-098-10013-1")
	orderLine, err := NewOrderLine(&item, 1)
	assert.NoError(t, err)

	order := CreateOrder(7, BuildDelivery(fixtureAddress()), time.Now(), orderLine)
	_, firstErr := order.Cancel()
	assert.NoError(t, firstErr)

	// act
	restocks, secondErr := order.Cancel()

	// assert
	assert.ErrorIs(t, secondErr, ErrOrderAlreadyCancelled)
	assert.Nil(t, restocks)
	assert.Equal(t, OrderStatusCancelled, order.Status)
}
