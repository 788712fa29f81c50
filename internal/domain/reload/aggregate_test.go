package reload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store/mocks"
)

func newTestReloadService() (*Service, *user.Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return NewService(eventStore), user.NewService(eventStore, nil), eventStore
}

func registerCustomer(t *testing.T, users *user.Service) *user.User {
	t.Helper()
	u, err := users.Register(context.Background(), "771234567", "Awa Ndiaye", "4821", "")
	require.NoError(t, err)
	return u
}

// ============================================
// Request Tests
// ============================================

func TestService_Request_Pending(t *testing.T) {
	service, users, eventStore := newTestReloadService()
	customer := registerCustomer(t, users)
	eventStore.ResetCalls()

	r, err := service.Request(context.Background(), customer.ID, customer.Name, 5000)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, "En attente", r.Status.Label())
	assert.Equal(t, int64(5000), r.Amount)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventReloadRequested, eventStore.AppendCalls[0].EventType)

	reloaded, err := users.Get(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.WalletBalance)
}

func TestService_Request_InvalidAmount(t *testing.T) {
	service, _, eventStore := newTestReloadService()

	for _, amount := range []int64{0, -500} {
		_, err := service.Request(context.Background(), "user-1", "Awa", amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Get_NotFound(t *testing.T) {
	service, _, _ := newTestReloadService()

	_, err := service.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReloadNotFound)
}

// ============================================
// Approve Tests
// ============================================

func TestService_Approve_CreditsOnce(t *testing.T) {
	service, users, eventStore := newTestReloadService()
	ctx := context.Background()
	customer := registerCustomer(t, users)

	r, err := service.Request(ctx, customer.ID, customer.Name, 5000)
	require.NoError(t, err)
	eventStore.ResetCalls()

	approved, err := service.Approve(ctx, r.ID, "admin-1", customer)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "admin-1", approved.DecidedBy)
	assert.Equal(t, int64(5000), customer.WalletBalance)

	require.Len(t, eventStore.BatchCalls, 1)
	batch := eventStore.BatchCalls[0]
	require.Len(t, batch, 2)
	assert.Equal(t, EventReloadApproved, batch[0].EventType)
	assert.Equal(t, user.EventWalletCredited, batch[1].EventType)

	fresh, err := users.Get(ctx, customer.ID)
	require.NoError(t, err)
	_, err = service.Approve(ctx, r.ID, "admin-2", fresh)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	final, err := users.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), final.WalletBalance)
	assert.Len(t, eventStore.BatchCalls, 1)
}

func TestService_Approve_StaleCustomerConflicts(t *testing.T) {
	service, users, _ := newTestReloadService()
	ctx := context.Background()
	customer := registerCustomer(t, users)

	first, err := service.Request(ctx, customer.ID, customer.Name, 5000)
	require.NoError(t, err)
	second, err := service.Request(ctx, customer.ID, customer.Name, 2000)
	require.NoError(t, err)

	stale, err := users.Get(ctx, customer.ID)
	require.NoError(t, err)

	_, err = service.Approve(ctx, first.ID, "admin-1", customer)
	require.NoError(t, err)

	_, err = service.Approve(ctx, second.ID, "admin-1", stale)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	r, err := service.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)

	final, err := users.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), final.WalletBalance)
}

func TestService_Approve_WrongCustomer(t *testing.T) {
	service, users, _ := newTestReloadService()
	ctx := context.Background()
	customer := registerCustomer(t, users)
	other, err := users.Register(ctx, "781112233", "Moussa Diop", "1357", "")
	require.NoError(t, err)

	r, err := service.Request(ctx, customer.ID, customer.Name, 5000)
	require.NoError(t, err)

	_, err = service.Approve(ctx, r.ID, "admin-1", other)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.Zero(t, other.WalletBalance)
}

// ============================================
// Reject Tests
// ============================================

func TestService_Reject_NoCredit(t *testing.T) {
	service, users, eventStore := newTestReloadService()
	ctx := context.Background()
	customer := registerCustomer(t, users)

	r, err := service.Request(ctx, customer.ID, customer.Name, 5000)
	require.NoError(t, err)
	eventStore.ResetCalls()

	rejected, err := service.Reject(ctx, r.ID, "admin-1", "virement introuvable")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "Refusé", rejected.Status.Label())
	assert.Equal(t, "virement introuvable", rejected.Reason)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventReloadRejected, eventStore.AppendCalls[0].EventType)

	_, err = service.Approve(ctx, r.ID, "admin-1", customer)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	_, err = service.Reject(ctx, r.ID, "admin-1", "again")
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	final, err := users.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Zero(t, final.WalletBalance)
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from   Status
		to     Status
		expect bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
	}

	for _, tt := range tests {
		r := &Reload{Status: tt.from}
		assert.Equal(t, tt.expect, r.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
