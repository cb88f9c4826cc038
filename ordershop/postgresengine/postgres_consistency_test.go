package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/shopkernel/ordershop-go/ordershop"
	. "github.com/shopkernel/ordershop-go/ordershop/postgresengine"
	"github.com/shopkernel/ordershop-go/testutil/postgresengine/config"
	. "github.com/shopkernel/ordershop-go/testutil/postgresengine/helper"
	"github.com/shopkernel/ordershop-go/testutil/postgresengine/helper/postgreswrapper"
)

func Test_ConsistencyRouting_DefaultsToStrongConsistency(t *testing.T) {
	// setup
	ctxWithTimeout, wrapper, cleanup := setupConsistencyTestEnvironment(t)
	defer cleanup()
	store := wrapper.GetOrderStore()

	// arrange
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 2})

	// act - no consistency preference on the context
	graphs, err := store.QueryOrders(
		ctxWithTimeout,
		BuildCriteria().MatchingAnyOrder(),
		NoAssociations(),
		NoPagination(),
	)

	// assert - the read sees the write immediately, i.e. it went to the primary
	assert.NoError(t, err)
	assert.Len(t, graphs, 1)
}

func Test_ConsistencyRouting_RespectsExplicitConsistency(t *testing.T) {
	// setup
	ctxWithTimeout, wrapper, cleanup := setupConsistencyTestEnvironment(t)
	defer cleanup()
	store := wrapper.GetOrderStore()

	// arrange
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 2})

	// act
	strongCtx := WithStrongConsistency(ctxWithTimeout)
	strongGraphs, strongErr := store.QueryOrders(
		strongCtx, BuildCriteria().MatchingAnyOrder(), NoAssociations(), NoPagination())

	eventualCtx := WithEventualConsistency(ctxWithTimeout)
	eventualGraphs, eventualErr := store.QueryOrders(
		eventualCtx, BuildCriteria().MatchingAnyOrder(), NoAssociations(), NoPagination())

	// assert - no replica lag in the test environment, both reads see the order
	assert.NoError(t, strongErr)
	assert.NoError(t, eventualErr)
	assert.Len(t, strongGraphs, 1)
	assert.Len(t, eventualGraphs, 1)
	assert.Equal(t, strongGraphs[0].ID, eventualGraphs[0].ID)
}

func Test_ConsistencyRouting_CommandsIgnoreTheReadPreference(t *testing.T) {
	// setup
	ctxWithTimeout, wrapper, cleanup := setupConsistencyTestEnvironment(t)
	defer cleanup()
	store := wrapper.GetOrderStore()

	// arrange
	memberID := GivenMemberRegistered(t, ctxWithTimeout, store, "kim")
	itemID := GivenBookItemInStock(t, ctxWithTimeout, store, "Learning Domain-Driven Design", 4500, 10)
	order := GivenOrderPlaced(t, ctxWithTimeout, store, memberID, OrderLineSpec{ItemID: itemID, Count: 2})

	// act - write inside an eventually consistent context
	eventualCtx := WithEventualConsistency(ctxWithTimeout)
	cancelErr := store.CancelOrder(eventualCtx, order.ID)

	// assert - the command went to the primary and a strong read sees it
	assert.NoError(t, cancelErr)

	cancelled, findErr := store.FindOrder(WithStrongConsistency(ctxWithTimeout), order.ID)
	require.NoError(t, findErr)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, postgreswrapper.StockQuantityOfItem(t, wrapper, itemID))
}

func Test_NewOrderStoreFromPGXPoolWithReplica_BuildsAStore(t *testing.T) {
	// setup
	primaryPool, primaryErr := pgxpool.NewWithConfig(
		context.Background(), config.PostgresPGXPoolPrimaryConfig())
	require.NoError(t, primaryErr)
	defer primaryPool.Close()

	replicaPool, replicaErr := pgxpool.NewWithConfig(
		context.Background(), config.PostgresPGXPoolReplicaConfig())
	require.NoError(t, replicaErr)
	defer replicaPool.Close()

	// act
	_, storeErr := NewOrderStoreFromPGXPool(primaryPool)
	_, replicaStoreErr := NewOrderStoreFromPGXPoolWithReplica(primaryPool, replicaPool)

	// assert
	assert.NoError(t, storeErr)
	assert.NoError(t, replicaStoreErr)
}

func Test_NewOrderStoreFromPGXPoolWithReplica_RejectsMissingPools(t *testing.T) {
	// setup
	pool, poolErr := pgxpool.NewWithConfig(
		context.Background(), config.PostgresPGXPoolPrimaryConfig())
	require.NoError(t, poolErr)
	defer pool.Close()

	// act
	_, nilReplicaErr := NewOrderStoreFromPGXPoolWithReplica(pool, nil)
	_, nilPrimaryErr := NewOrderStoreFromPGXPoolWithReplica(nil, pool)

	// assert
	assert.ErrorIs(t, nilReplicaErr, ErrNilDatabaseConnection)
	assert.ErrorIs(t, nilPrimaryErr, ErrNilDatabaseConnection)
}

// Test setup helpers.
func setupConsistencyTestEnvironment(t *testing.T) (context.Context, postgreswrapper.Wrapper, func()) {
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	postgreswrapper.CleanUp(t, wrapper)

	cleanup := func() {
		cancel()
		wrapper.Close()
	}

	return ctxWithTimeout, wrapper, cleanup
}
