package inventory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store/mocks"
)

func newTestInventoryService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore, nil)
	return service, eventStore
}

// ============================================
// Stock Arithmetic Tests
// ============================================

func TestRemainingAndShortfall(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		quantity  int
		remaining int
		shortfall int
	}{
		{"plenty", 10, 3, 7, 0},
		{"exact", 3, 3, 0, 0},
		{"short by two", 1, 3, 0, 2},
		{"empty shelf", 0, 4, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.remaining, Remaining(tt.stock, tt.quantity))
			assert.Equal(t, tt.shortfall, Shortfall(tt.stock, tt.quantity))
		})
	}
}

// ============================================
// Add / Set Stock Tests
// ============================================

func TestService_AddStock_ValidQuantity(t *testing.T) {
	service, eventStore := newTestInventoryService()

	inv, err := service.AddStock(context.Background(), "prod-1", 10)

	require.NoError(t, err)
	assert.Equal(t, 10, inv.Stock)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventStockAdded, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, "inventory-prod-1", eventStore.AppendCalls[0].AggregateID)
}

func TestService_AddStock_InvalidQuantity(t *testing.T) {
	service, eventStore := newTestInventoryService()

	for _, q := range []int{0, -5} {
		_, err := service.AddStock(context.Background(), "prod-1", q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_SetStock(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	_, err := service.AddStock(ctx, "prod-1", 10)
	require.NoError(t, err)

	inv, err := service.SetStock(ctx, "prod-1", 4, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 4, inv.Stock)
	data := eventStore.AppendCalls[1].Data.(StockAdjusted)
	assert.Equal(t, 10, data.Previous)
	assert.Equal(t, "admin-1", data.AdjustedBy)
}

func TestService_SetStock_Negative(t *testing.T) {
	service, _ := newTestInventoryService()

	_, err := service.SetStock(context.Background(), "prod-1", -1, "admin-1")

	assert.ErrorIs(t, err, ErrNegativeStock)
}

// ============================================
// Deduction Tests
// ============================================

func TestDeductEvent_ClampsAndReportsShortfall(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	inv, err := service.AddStock(ctx, "prod-1", 2)
	require.NoError(t, err)

	pending, shortfall := DeductEvent(inv, "VSL-1", 5)
	assert.Equal(t, 3, shortfall)
	assert.Equal(t, "inventory-prod-1", pending.AggregateID)

	_, err = eventStore.AppendBatch(ctx, []store.PendingEvent{pending})
	require.NoError(t, err)

	inv, err = service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Stock)
}

func TestDeductEvent_StaleStockConflicts(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	_, err := service.AddStock(ctx, "prod-1", 2)
	require.NoError(t, err)

	// Two orders priced against the same stock of 2.
	first, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	second, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)

	pending, shortfall := DeductEvent(first, "VSL-1", 2)
	assert.Zero(t, shortfall)
	assert.Equal(t, 1, pending.ExpectedVersion)
	_, err = eventStore.AppendBatch(ctx, []store.PendingEvent{pending})
	require.NoError(t, err)

	stale, shortfall := DeductEvent(second, "VSL-2", 2)
	assert.Zero(t, shortfall)
	_, err = eventStore.AppendBatch(ctx, []store.PendingEvent{stale})
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Stock)
	assert.Equal(t, 2, inv.Version)
}

func TestInventoryOperations_Sequence(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	_, err := service.AddStock(ctx, "prod-1", 10)
	require.NoError(t, err)
	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)

	pending, shortfall := DeductEvent(inv, "VSL-1", 3)
	assert.Zero(t, shortfall)
	_, err = eventStore.AppendBatch(ctx, []store.PendingEvent{pending})
	require.NoError(t, err)

	_, err = service.AddStock(ctx, "prod-1", 1)
	require.NoError(t, err)

	inv, err = service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 8, inv.Stock)
	assert.Equal(t, 3, inv.Version)
}

// ============================================
// Snapshot Tests
// ============================================

func TestInventoryService_SnapshotCreatedAtThreshold(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	for i := 0; i < store.SnapshotThreshold; i++ {
		_, err := service.AddStock(ctx, "prod-1", 1)
		require.NoError(t, err)
	}

	snapshot, err := eventStore.GetSnapshot(ctx, InventoryID("prod-1"))
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	var state Inventory
	require.NoError(t, json.Unmarshal(snapshot.State, &state))
	assert.Equal(t, store.SnapshotThreshold, state.Stock)
	assert.Equal(t, store.SnapshotThreshold, state.Version)
}

func TestInventoryService_LoadFromSnapshotWithSubsequentEvents(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	id := InventoryID("prod-1")

	snapshot, err := store.NewSnapshot(id, AggregateType, 10, Inventory{ProductID: "prod-1", Stock: 40})
	require.NoError(t, err)
	require.NoError(t, eventStore.SaveSnapshot(ctx, snapshot))

	for i := 1; i <= 11; i++ {
		require.NoError(t, eventStore.AddEvent(id, AggregateType, EventStockAdded, StockAdded{ProductID: "prod-1", Quantity: 100}))
	}

	inv, err := service.Get(ctx, "prod-1")

	require.NoError(t, err)
	assert.Equal(t, 140, inv.Stock)
	assert.Equal(t, 11, inv.Version)
}
