package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/inventory"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/product"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/reload"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store/mocks"
	"github.com/viepratiqueservice-arch/Visela/internal/lock"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	"github.com/viepratiqueservice-arch/Visela/internal/settings"
)

var sunday = time.Date(2023, time.October, 15, 18, 30, 0, 0, time.UTC)

func newTestHandler() (*Handler, *mocks.MockEventStore, *mocks.MockReadStore) {
	eventStore := mocks.NewMockEventStore()
	readStore := mocks.NewMockReadStore()

	handler := NewHandler(
		eventStore,
		readStore,
		NewServices(eventStore, nil),
		checkout.NewMemorySessionStore(),
		lock.NewLocalLocker(lock.DefaultTTL),
		nil,
		nil,
	)
	handler.now = func() time.Time { return sunday }
	return handler, eventStore, readStore
}

func seedCustomer(t *testing.T, es *mocks.MockEventStore, rs *mocks.MockReadStore, userID, clientID string) {
	t.Helper()
	require.NoError(t, es.AddEvent(userID, user.AggregateType, user.EventUserRegistered, user.UserRegistered{
		UserID:   userID,
		ClientID: clientID,
		Name:     "Awa Ndiaye",
		Role:     "customer",
	}))
	rs.SetData(readmodel.Users, userID, &readmodel.UserReadModel{ID: userID, ClientID: clientID, Name: "Awa Ndiaye"})
}

func makeCercle(t *testing.T, es *mocks.MockEventStore, userID string, balance int64) {
	t.Helper()
	require.NoError(t, es.AddEvent(userID, user.AggregateType, user.EventSpendRecorded, user.SpendRecorded{
		UserID:     userID,
		TotalSpent: 400000,
		Tier:       "Cercle",
	}))
	require.NoError(t, es.AddEvent(userID, user.AggregateType, user.EventWalletCredited, user.WalletCredited{
		UserID:  userID,
		Amount:  balance,
		Balance: balance,
	}))
}

func seedProduct(t *testing.T, es *mocks.MockEventStore, rs *mocks.MockReadStore, id, name string, price int64, stock int, cercleOnly bool) {
	t.Helper()
	rs.SetData(readmodel.Products, id, &readmodel.ProductReadModel{
		ID: id, Name: name, Price: price, Unit: "kg", UnitQuantity: 1, CercleOnly: cercleOnly, Stock: stock,
	})
	if stock > 0 {
		require.NoError(t, es.AddEvent(inventory.InventoryID(id), inventory.AggregateType, inventory.EventStockAdded,
			inventory.StockAdded{ProductID: id, Quantity: stock, Stock: stock}))
	}
}

// readyCheckout fills a cart with two mangoes and completes every wizard step.
func readyCheckout(t *testing.T, h *Handler, userID string, method order.PaymentMethod) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := h.AddToCart(ctx, AddToCart{UserID: userID, ProductID: "p-mango"})
		require.NoError(t, err)
	}
	lat, lng := 14.6928, -17.4467
	_, err := h.SetCheckoutAddress(ctx, SetCheckoutAddress{UserID: userID, Kind: checkout.AddressGPS, Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	_, err = h.ChooseSlot(ctx, ChooseSlot{UserID: userID, Date: "2023-10-16", Window: checkout.WindowMorning})
	require.NoError(t, err)
	_, err = h.SelectPayment(ctx, SelectPayment{UserID: userID, Method: string(method)})
	require.NoError(t, err)
}

func allEvents(t *testing.T, es *mocks.MockEventStore) []store.Event {
	t.Helper()
	events, err := es.GetAllEvents(context.Background())
	require.NoError(t, err)
	return events
}

// racingEventStore runs beforeBatch ahead of the next AppendBatch, standing in
// for a writer that commits between a checkout's reads and its write.
type racingEventStore struct {
	*mocks.MockEventStore
	beforeBatch func()
}

func (r *racingEventStore) AppendBatch(ctx context.Context, batch []store.PendingEvent) ([]store.Event, error) {
	if hook := r.beforeBatch; hook != nil {
		r.beforeBatch = nil
		hook()
	}
	return r.MockEventStore.AppendBatch(ctx, batch)
}

func newRacingHandler() (*Handler, *racingEventStore, *mocks.MockReadStore) {
	eventStore := &racingEventStore{MockEventStore: mocks.NewMockEventStore()}
	readStore := mocks.NewMockReadStore()

	handler := NewHandler(
		eventStore,
		readStore,
		NewServices(eventStore.MockEventStore, nil),
		checkout.NewMemorySessionStore(),
		lock.NewLocalLocker(lock.DefaultTTL),
		nil,
		nil,
	)
	handler.now = func() time.Time { return sunday }
	return handler, eventStore, readStore
}

func eventTypes(calls []mocks.AppendCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.EventType
	}
	return out
}

// ============================================
// Register / Login Tests
// ============================================

func TestHandler_Register_Success(t *testing.T) {
	handler, eventStore, _ := newTestHandler()

	u, err := handler.Register(context.Background(), Register{ClientID: " 771234567 ", Name: "Awa", PIN: "4821"})

	require.NoError(t, err)
	assert.Equal(t, "771234567", u.ClientID)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, user.EventUserRegistered, eventStore.AppendCalls[0].EventType)
}

func TestHandler_Register_ClientIDTaken(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")

	_, err := handler.Register(context.Background(), Register{ClientID: "771234567", Name: "Other", PIN: "1111"})

	assert.ErrorIs(t, err, user.ErrClientIDTaken)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestHandler_Register_ReferralBonus(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "referrer", "770000001")

	u, err := handler.Register(context.Background(), Register{
		ClientID: "770000002", Name: "Moussa", PIN: "1234", ReferrerClientID: "770000001",
	})
	require.NoError(t, err)
	assert.Equal(t, "referrer", u.ReferredBy)

	referrer, err := handler.svc.Users.Get(context.Background(), "referrer")
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults().ReferralBonus, referrer.Points)
}

func TestHandler_Register_UnknownReferrer(t *testing.T) {
	handler, eventStore, _ := newTestHandler()

	_, err := handler.Register(context.Background(), Register{
		ClientID: "770000002", Name: "Moussa", PIN: "1234", ReferrerClientID: "779999999",
	})

	assert.ErrorIs(t, err, ErrUnknownReferrer)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestHandler_Login(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	ctx := context.Background()

	u, err := handler.Register(ctx, Register{ClientID: "771234567", Name: "Awa", PIN: "4821"})
	require.NoError(t, err)
	readStore.SetData(readmodel.Users, u.ID, &readmodel.UserReadModel{ID: u.ID, ClientID: u.ClientID})
	eventStore.ResetCalls()

	_, err = handler.Login(ctx, Login{ClientID: "771234567", PIN: "0000"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = handler.Login(ctx, Login{ClientID: "770000000", PIN: "4821"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	got, err := handler.Login(ctx, Login{ClientID: "771234567", PIN: "4821", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, []string{user.EventUserLoggedIn}, eventTypes(eventStore.AppendCalls))
}

// ============================================
// Catalog Tests
// ============================================

func TestHandler_CreateProduct_WithStock(t *testing.T) {
	handler, eventStore, _ := newTestHandler()

	p, err := handler.CreateProduct(context.Background(), CreateProduct{
		Details: product.Details{Name: "Mangue Kent", Price: 1500, Unit: "kg"},
		Stock:   25,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, p.UnitQuantity)
	assert.Equal(t, []string{product.EventProductCreated, inventory.EventStockAdded}, eventTypes(eventStore.AppendCalls))

	inv, err := handler.svc.Inventory.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, inv.Stock)
}

func TestHandler_CreateProduct_Invalid(t *testing.T) {
	handler, eventStore, _ := newTestHandler()

	_, err := handler.CreateProduct(context.Background(), CreateProduct{Details: product.Details{Name: "Mangue", Price: 0}})
	assert.ErrorIs(t, err, product.ErrInvalidPrice)

	_, err = handler.CreateProduct(context.Background(), CreateProduct{Details: product.Details{Name: "Mangue", Price: 10}, Stock: -1})
	assert.ErrorIs(t, err, inventory.ErrNegativeStock)

	assert.Empty(t, eventStore.AppendCalls)
}

func TestHandler_SetStock_UnknownProduct(t *testing.T) {
	handler, _, _ := newTestHandler()

	_, err := handler.SetStock(context.Background(), SetStock{ProductID: "nope", Stock: 4, AdminID: "admin"})

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

// ============================================
// Cart Tests
// ============================================

func TestHandler_AddToCart_SnapshotsProduct(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)

	c, err := handler.AddToCart(context.Background(), AddToCart{UserID: "user-1", ProductID: "p-mango"})

	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "Mangue Kent", c.Lines[0].Product.Name)
	assert.Equal(t, int64(1500), c.Lines[0].Product.Price)
}

func TestHandler_AddToCart_Errors(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-caviar", "Caviar", 90000, 3, true)
	eventStore.ResetCalls()

	_, err := handler.AddToCart(context.Background(), AddToCart{UserID: "user-1", ProductID: "missing"})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = handler.AddToCart(context.Background(), AddToCart{UserID: "user-1", ProductID: "p-caviar"})
	assert.ErrorIs(t, err, cart.ErrCercleOnly)

	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Checkout Wizard Tests
// ============================================

func TestHandler_SetCheckoutAddress_Hierarchy(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	ctx := context.Background()

	dakar, err := handler.AddCommune(ctx, AddCommune{Name: "Dakar"})
	require.NoError(t, err)
	plateau, err := handler.AddZone(ctx, AddZone{CommuneID: dakar.ID, Name: "Plateau"})
	require.NoError(t, err)
	rue10, err := handler.AddSector(ctx, AddSector{ZoneID: plateau.ID, Name: "Rue 10"})
	require.NoError(t, err)

	sess, err := handler.SetCheckoutAddress(ctx, SetCheckoutAddress{
		UserID:    "user-1",
		Kind:      checkout.AddressHierarchy,
		CommuneID: dakar.ID,
		ZoneID:    plateau.ID,
		SectorID:  rue10.ID,
		Details:   "Immeuble bleu",
	})

	require.NoError(t, err)
	assert.Equal(t, "Rue 10, Plateau, Dakar - Immeuble bleu", sess.Address.Line)
	assert.Equal(t, checkout.StepSchedule, sess.Step)

	saved, err := handler.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Address.Line, saved.Address.Line)
}

func TestHandler_SetCheckoutAddress_Errors(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	ctx := context.Background()

	_, err := handler.SetCheckoutAddress(ctx, SetCheckoutAddress{UserID: "user-1", Kind: "teleport"})
	assert.ErrorIs(t, err, ErrUnknownAddressKind)

	_, err = handler.SetCheckoutAddress(ctx, SetCheckoutAddress{UserID: "user-1", Kind: checkout.AddressGPS})
	assert.ErrorIs(t, err, ErrMissingCoordinates)

	_, err = handler.SetCheckoutAddress(ctx, SetCheckoutAddress{UserID: "user-1", Kind: checkout.AddressSaved, AddressID: "a-1"})
	assert.ErrorIs(t, err, user.ErrAddressNotFound)
}

func TestHandler_SelectPayment_WalletNeedsCercle(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")

	_, err := handler.SelectPayment(context.Background(), SelectPayment{UserID: "user-1", Method: "Wallet"})

	assert.ErrorIs(t, err, checkout.ErrWalletNotEligible)
}

func TestHandler_Summary(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)

	empty, err := handler.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.Totals{}, empty.Totals)
	assert.NotNil(t, empty.Lines)
	assert.Contains(t, empty.Readiness.Missing, checkout.RequireItems)
	assert.Len(t, empty.Slots, 6)

	readyCheckout(t, handler, "user-1", order.PaymentCash)

	s, err := handler.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, s.Readiness.Ready)
	assert.Equal(t, checkout.Totals{Subtotal: 3000, DeliveryFee: 800, Total: 3800}, s.Totals)
}

// ============================================
// Checkout Tests
// ============================================

func TestHandler_Checkout_StandardCash(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	eventStore.ResetCalls()

	o, err := handler.Checkout(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(o.ID, order.IDPrefix))
	assert.Equal(t, int64(3000), o.Subtotal)
	assert.Equal(t, int64(800), o.DeliveryFee)
	assert.Equal(t, int64(3800), o.Total)
	assert.Equal(t, "GPS: 14.6928, -17.4467", o.DeliveryAddress)
	assert.Equal(t, "Lundi 16 oct. (Matin: 09h - 12h)", o.DeliverySlot)
	assert.Equal(t, order.StatusPreparing, o.Status)
	assert.False(t, o.NeedsReview)

	require.Len(t, eventStore.BatchCalls, 1)
	assert.Equal(t, []string{
		order.EventOrderPlaced,
		inventory.EventStockDeducted,
		user.EventSpendRecorded,
		cart.EventCartCleared,
	}, eventTypes(eventStore.BatchCalls[0]))

	u, err := handler.svc.Users.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3800), u.TotalSpent)
	assert.Equal(t, int64(3), u.Points)

	c, err := handler.svc.Carts.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, c.Lines.Empty())

	inv, err := handler.svc.Inventory.Get(context.Background(), "p-mango")
	require.NoError(t, err)
	assert.Equal(t, 8, inv.Stock)

	sess, err := handler.sessions.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StepItems, sess.Step)
	assert.Nil(t, sess.Address)
}

func TestHandler_Checkout_CercleWallet(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	makeCercle(t, eventStore, "user-1", 5000)
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentWallet)
	eventStore.ResetCalls()

	o, err := handler.Checkout(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(0), o.DeliveryFee)
	assert.Equal(t, int64(3000), o.Total)
	assert.Equal(t, order.PaymentWallet, o.PaymentMethod)
	require.Len(t, eventStore.BatchCalls, 1)
	assert.Contains(t, eventTypes(eventStore.BatchCalls[0]), user.EventWalletDebited)

	u, err := handler.svc.Users.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), u.WalletBalance)
	assert.Equal(t, int64(403000), u.TotalSpent)
}

func TestHandler_Checkout_StockClampFlagsOrder(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 1, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)

	o, err := handler.Checkout(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, o.NeedsReview)
	assert.Equal(t, "stock insuffisant: Mangue Kent (manque 1)", o.ReviewReason)

	inv, err := handler.svc.Inventory.Get(context.Background(), "p-mango")
	require.NoError(t, err)
	assert.Zero(t, inv.Stock)
}

func TestHandler_Checkout_ConcurrentOrderFlagsOversell(t *testing.T) {
	handler, eventStore, readStore := newRacingHandler()
	ctx := context.Background()
	seedCustomer(t, eventStore.MockEventStore, readStore, "user-1", "771234567")
	seedCustomer(t, eventStore.MockEventStore, readStore, "user-2", "779876543")
	seedProduct(t, eventStore.MockEventStore, readStore, "p-mango", "Mangue Kent", 1500, 2, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	readyCheckout(t, handler, "user-2", order.PaymentCash)

	// user-2 takes both mangoes after user-1 has read the stock.
	var second *order.Order
	eventStore.beforeBatch = func() {
		var err error
		second, err = handler.Checkout(ctx, "user-2")
		require.NoError(t, err)
	}

	first, err := handler.Checkout(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.False(t, second.NeedsReview)
	assert.True(t, first.NeedsReview)
	assert.Equal(t, "stock insuffisant: Mangue Kent (manque 2)", first.ReviewReason)
	assert.Len(t, eventStore.BatchCalls, 2)

	inv, err := handler.svc.Inventory.Get(ctx, "p-mango")
	require.NoError(t, err)
	assert.Zero(t, inv.Stock)
}

func TestHandler_Checkout_GivesUpAfterRepeatedConflicts(t *testing.T) {
	handler, eventStore, readStore := newRacingHandler()
	ctx := context.Background()
	seedCustomer(t, eventStore.MockEventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore.MockEventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)

	// A stock count lands before every attempt.
	counts := 0
	var recount func()
	recount = func() {
		counts++
		require.NoError(t, eventStore.AddEvent(inventory.InventoryID("p-mango"), inventory.AggregateType,
			inventory.EventStockAdjusted, inventory.StockAdjusted{ProductID: "p-mango", Stock: 10}))
		eventStore.beforeBatch = recount
	}
	eventStore.beforeBatch = recount

	_, err := handler.Checkout(ctx, "user-1")

	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.Equal(t, maxCheckoutAttempts, counts)
	assert.Empty(t, eventStore.BatchCalls)
	c, err := handler.svc.Carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Lines.Count())
}

func TestHandler_EventReadFailureIsNotNotFound(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")

	readErr := errors.New("connection reset by peer")
	eventStore.ReadErr = readErr

	_, err := handler.Summary(context.Background(), "user-1")

	assert.ErrorIs(t, err, readErr)
	assert.NotErrorIs(t, err, user.ErrUserNotFound)
}

func TestHandler_Checkout_NotReady(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	_, err := handler.AddToCart(context.Background(), AddToCart{UserID: "user-1", ProductID: "p-mango"})
	require.NoError(t, err)

	_, err = handler.Checkout(context.Background(), "user-1")

	assert.ErrorIs(t, err, checkout.ErrNotReady)
	var notReady *NotReadyError
	require.True(t, errors.As(err, &notReady))
	assert.Equal(t, []checkout.Requirement{checkout.RequireAddress, checkout.RequireSlot, checkout.RequireMethod}, notReady.Missing)
	assert.Empty(t, eventStore.BatchCalls)
}

func TestHandler_Checkout_StoreClosed(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	_, err := handler.UpdateSettings(context.Background(), UpdateSettings{
		Values: map[string]string{settings.KeyStoreOpen: "false"}, AdminID: "admin",
	})
	require.NoError(t, err)
	eventStore.ResetCalls()

	_, err = handler.Checkout(context.Background(), "user-1")

	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestHandler_Checkout_BelowMinimum(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	_, err := handler.UpdateSettings(context.Background(), UpdateSettings{
		Values: map[string]string{settings.KeyMinOrderAmount: "5000"}, AdminID: "admin",
	})
	require.NoError(t, err)

	_, err = handler.Checkout(context.Background(), "user-1")

	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestHandler_Checkout_ExpiredSlot(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	eventStore.ResetCalls()

	handler.now = func() time.Time { return sunday.AddDate(0, 0, 2) }
	_, err := handler.Checkout(context.Background(), "user-1")

	assert.ErrorIs(t, err, checkout.ErrInvalidSlot)
	assert.Empty(t, eventStore.BatchCalls)
}

func TestHandler_Checkout_WalletLockHeld(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	eventStore.ResetCalls()

	release, err := handler.locker.Acquire(context.Background(), lock.WalletKey("user-1"))
	require.NoError(t, err)

	_, err = handler.Checkout(context.Background(), "user-1")
	assert.ErrorIs(t, err, lock.ErrLocked)
	assert.Empty(t, eventStore.BatchCalls)

	release()
	_, err = handler.Checkout(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestHandler_Checkout_FailedAppendWritesNothing(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	before := len(allEvents(t, eventStore))

	eventStore.AppendErr = errors.New("connection reset")
	_, err := handler.Checkout(context.Background(), "user-1")
	require.Error(t, err)
	eventStore.AppendErr = nil

	assert.Len(t, allEvents(t, eventStore), before)
	c, err := handler.svc.Carts.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Lines.Count())

	sess, err := handler.sessions.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, sess.Address)
}

// ============================================
// Order Tests
// ============================================

func TestHandler_AdvanceOrder(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	seedProduct(t, eventStore, readStore, "p-mango", "Mangue Kent", 1500, 10, false)
	readyCheckout(t, handler, "user-1", order.PaymentCash)
	o, err := handler.Checkout(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = handler.AdvanceOrder(context.Background(), AdvanceOrder{OrderID: o.ID, Status: "shipped", AdminID: "admin"})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	_, err = handler.AdvanceOrder(context.Background(), AdvanceOrder{OrderID: o.ID, Status: "delivered", AdminID: "admin"})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	moved, err := handler.AdvanceOrder(context.Background(), AdvanceOrder{OrderID: o.ID, Status: "out_for_delivery", AdminID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, order.StatusOutForDelivery, moved.Status)
}

// ============================================
// Wallet Tests
// ============================================

func TestHandler_ApproveReload_CreditsOnce(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	ctx := context.Background()

	r, err := handler.RequestReload(ctx, RequestReload{UserID: "user-1", Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, "Awa Ndiaye", r.UserName)

	approved, err := handler.ApproveReload(ctx, ApproveReload{ReloadID: r.ID, AdminID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, reload.StatusApproved, approved.Status)

	_, err = handler.ApproveReload(ctx, ApproveReload{ReloadID: r.ID, AdminID: "admin"})
	assert.ErrorIs(t, err, reload.ErrAlreadyDecided)

	u, err := handler.svc.Users.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), u.WalletBalance)
}

func TestHandler_ApproveReload_WalletLockHeld(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	ctx := context.Background()
	r, err := handler.RequestReload(ctx, RequestReload{UserID: "user-1", Amount: 5000})
	require.NoError(t, err)

	release, err := handler.locker.Acquire(ctx, lock.WalletKey("user-1"))
	require.NoError(t, err)
	defer release()

	_, err = handler.ApproveReload(ctx, ApproveReload{ReloadID: r.ID, AdminID: "admin"})
	assert.ErrorIs(t, err, lock.ErrLocked)
}

func TestHandler_RejectReload(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	seedCustomer(t, eventStore, readStore, "user-1", "771234567")
	ctx := context.Background()
	r, err := handler.RequestReload(ctx, RequestReload{UserID: "user-1", Amount: 5000})
	require.NoError(t, err)

	rejected, err := handler.RejectReload(ctx, RejectReload{ReloadID: r.ID, AdminID: "admin", Reason: "virement introuvable"})
	require.NoError(t, err)
	assert.Equal(t, reload.StatusRejected, rejected.Status)

	_, err = handler.ApproveReload(ctx, ApproveReload{ReloadID: r.ID, AdminID: "admin"})
	assert.ErrorIs(t, err, reload.ErrAlreadyDecided)

	u, err := handler.svc.Users.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, u.WalletBalance)
}

func TestHandler_RequestReload_UnknownUser(t *testing.T) {
	handler, _, _ := newTestHandler()

	_, err := handler.RequestReload(context.Background(), RequestReload{UserID: "ghost", Amount: 5000})

	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

// ============================================
// Bootstrap Admin Tests
// ============================================

func TestHandler_EnsureAdmin(t *testing.T) {
	handler, eventStore, readStore := newTestHandler()
	ctx := context.Background()

	u, created, err := handler.EnsureAdmin(ctx, "770000000", "Gérant", "4321")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin", u.Role)
	require.Len(t, eventStore.AppendCalls, 1)

	readStore.SetData(readmodel.Users, u.ID, &readmodel.UserReadModel{ID: u.ID, ClientID: "770000000"})
	_, created, err = handler.EnsureAdmin(ctx, "770000000", "Gérant", "4321")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, eventStore.AppendCalls, 1)
}
