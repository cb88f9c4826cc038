package helper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopkernel/ordershop-go/ordershop"
	"github.com/shopkernel/ordershop-go/ordershop/postgresengine"
)

// FixtureAddress returns a fixed address for test data.
func FixtureAddress() ordershop.Address {
	return ordershop.Address{City: "Seoul", Street: "Teheran-ro 1", ZipCode: "06234"}
}

// FixtureMember builds an unregistered member with the fixture address.
func FixtureMember(name string) ordershop.Member {
	return ordershop.BuildMember(name, FixtureAddress())
}

// FixtureBookItem builds a book item with plausible detail fields.
func FixtureBookItem(name string, price int64, stockQuantity int) ordershop.Item {
	item := ordershop.BuildBookItem(name, price, stockQuantity, "Vlad Khononov", "978-1-098-10013-1")
	item.Categories = []string{"books", "software"}

	return item
}

// FixtureAlbumItem builds an album item with plausible detail fields.
func FixtureAlbumItem(name string, price int64, stockQuantity int) ordershop.Item {
	item := ordershop.BuildAlbumItem(name, price, stockQuantity, "Miles Davis", "Columbia")
	item.Categories = []string{"music", "jazz"}

	return item
}

// GivenMemberRegistered registers a member and returns the assigned id.
func GivenMemberRegistered(
	t testing.TB,
	ctx context.Context,
	store postgresengine.OrderStore,
	name string,
) ordershop.MemberIDInt64 {

	memberID, err := store.RegisterMember(ctx, FixtureMember(name))
	assert.NoError(t, err, "error in arranging test data")

	return memberID
}

// GivenItemSaved saves an item and returns the assigned id.
func GivenItemSaved(
	t testing.TB,
	ctx context.Context,
	store postgresengine.OrderStore,
	item ordershop.Item,
) ordershop.ItemIDInt64 {

	itemID, err := store.SaveItem(ctx, item)
	assert.NoError(t, err, "error in arranging test data")

	return itemID
}

// GivenBookItemInStock saves a book item and returns the assigned id.
func GivenBookItemInStock(
	t testing.TB,
	ctx context.Context,
	store postgresengine.OrderStore,
	name string,
	price int64,
	stockQuantity int,
) ordershop.ItemIDInt64 {

	return GivenItemSaved(t, ctx, store, FixtureBookItem(name, price, stockQuantity))
}

// GivenOrderPlaced places an order and returns the persisted aggregate.
func GivenOrderPlaced(
	t testing.TB,
	ctx context.Context,
	store postgresengine.OrderStore,
	memberID ordershop.MemberIDInt64,
	lineSpecs ...postgresengine.OrderLineSpec,
) ordershop.Order {

	order, err := store.CreateOrder(ctx, memberID, FixtureAddress(), lineSpecs...)
	assert.NoError(t, err, "error in arranging test data")

	return order
}

// GivenOrderCancelled cancels an order that was placed in the arrange phase.
func GivenOrderCancelled(
	t testing.TB,
	ctx context.Context,
	store postgresengine.OrderStore,
	orderID ordershop.OrderIDInt64,
) {

	err := store.CancelOrder(ctx, orderID)
	assert.NoError(t, err, "error in arranging test data")
}
