package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/inventory"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/logistics"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/lock"
	"github.com/viepratiqueservice-arch/Visela/internal/settings"
	"go.uber.org/zap"
)

var (
	ErrStoreClosed         = errors.New("the store is not taking orders right now")
	ErrBelowMinimum        = errors.New("order is below the minimum amount")
	ErrUnknownAddressKind  = errors.New("address kind must be saved, hierarchy or gps")
	ErrMissingCoordinates  = errors.New("latitude and longitude are required")
	ErrCercleLineForbidden = errors.New("cart holds a product reserved for Cercle members")
)

// NotReadyError lists what a checkout still needs before confirmation.
type NotReadyError struct {
	Missing []checkout.Requirement
}

func (e *NotReadyError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = string(m)
	}
	return fmt.Sprintf("%v: missing %s", checkout.ErrNotReady, strings.Join(parts, ", "))
}

func (e *NotReadyError) Unwrap() error { return checkout.ErrNotReady }

// Summary is the checkout as the customer sees it: session, priced cart and
// what is still missing.
type Summary struct {
	Session   *checkout.Session  `json:"session"`
	Lines     cart.Lines         `json:"lines"`
	Totals    checkout.Totals    `json:"totals"`
	Tier      loyalty.Tier       `json:"tier"`
	Balance   int64              `json:"wallet_balance"`
	Readiness checkout.Readiness `json:"readiness"`
	Slots     []checkout.Slot    `json:"slots"`
}

// pricing is everything a quote depends on, loaded from the write side.
type pricing struct {
	cfg    settings.Settings
	cart   *cart.Cart
	user   *user.User
	tier   loyalty.Tier
	totals checkout.Totals
}

func (p pricing) wallet() checkout.Wallet {
	return checkout.Wallet{Tier: p.tier, Balance: p.user.WalletBalance}
}

func (h *Handler) price(ctx context.Context, userID string) (*pricing, error) {
	cfg, err := h.svc.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	u, err := h.svc.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	c, err := h.svc.Carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier := u.TierAt(cfg.CercleThreshold)
	return &pricing{
		cfg:    cfg,
		cart:   c,
		user:   u,
		tier:   tier,
		totals: checkout.Quote(c.Lines, tier, cfg),
	}, nil
}

// Summary prices the cart and evaluates the saved session.
func (h *Handler) Summary(ctx context.Context, userID string) (*Summary, error) {
	p, err := h.price(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess, err := h.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := p.cart.Lines
	if lines == nil {
		lines = cart.Lines{}
	}
	return &Summary{
		Session:   sess,
		Lines:     lines,
		Totals:    p.totals,
		Tier:      p.tier,
		Balance:   p.user.WalletBalance,
		Readiness: checkout.Evaluate(sess, p.cart.Lines, p.totals, p.wallet()),
		Slots:     checkout.AvailableSlots(h.now()),
	}, nil
}

// SetCheckoutAddress activates one address form and moves on to scheduling.
func (h *Handler) SetCheckoutAddress(ctx context.Context, cmd SetCheckoutAddress) (*checkout.Session, error) {
	sess, err := h.sessions.Load(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	switch cmd.Kind {
	case checkout.AddressSaved:
		u, err := h.svc.Users.Get(ctx, cmd.UserID)
		if err != nil {
			return nil, err
		}
		if err := sess.UseSavedAddress(u, cmd.AddressID); err != nil {
			return nil, err
		}
	case checkout.AddressHierarchy:
		dir, err := h.svc.Logistics.Load(ctx)
		if err != nil {
			return nil, err
		}
		sel, err := selectHierarchy(dir, cmd)
		if err != nil {
			return nil, err
		}
		if err := sess.UseHierarchy(dir, sel); err != nil {
			return nil, err
		}
	case checkout.AddressGPS:
		if cmd.Lat == nil || cmd.Lng == nil {
			return nil, ErrMissingCoordinates
		}
		if err := sess.UseGPS(*cmd.Lat, *cmd.Lng, cmd.Details); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAddressKind, cmd.Kind)
	}

	return sess, h.sessions.Save(ctx, sess)
}

func selectHierarchy(dir *logistics.Directory, cmd SetCheckoutAddress) (logistics.Selection, error) {
	sel, err := logistics.Selection{}.SelectCommune(dir, cmd.CommuneID)
	if err != nil {
		return sel, err
	}
	if sel, err = sel.SelectZone(dir, cmd.ZoneID); err != nil {
		return sel, err
	}
	if sel, err = sel.SelectSector(dir, cmd.SectorID); err != nil {
		return sel, err
	}
	return sel.WithDetails(cmd.Details), nil
}

func (h *Handler) ChooseSlot(ctx context.Context, cmd ChooseSlot) (*checkout.Session, error) {
	sess, err := h.sessions.Load(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := sess.ChooseSlot(h.now(), cmd.Date, cmd.Window); err != nil {
		return nil, err
	}
	return sess, h.sessions.Save(ctx, sess)
}

// SelectPayment checks Wallet against the current quote and balance.
func (h *Handler) SelectPayment(ctx context.Context, cmd SelectPayment) (*checkout.Session, error) {
	p, err := h.price(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	sess, err := h.sessions.Load(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectPayment(order.PaymentMethod(cmd.Method), p.wallet(), p.totals.Total); err != nil {
		return nil, err
	}
	return sess, h.sessions.Save(ctx, sess)
}

func (h *Handler) GoToStep(ctx context.Context, cmd GoToStep) (*checkout.Session, error) {
	sess, err := h.sessions.Load(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := sess.GoTo(cmd.Step); err != nil {
		return nil, err
	}
	return sess, h.sessions.Save(ctx, sess)
}

// maxCheckoutAttempts bounds how often a confirmation is rebuilt after
// another writer changed one of the aggregates it read.
const maxCheckoutAttempts = 3

// Checkout confirms the session. Under the customer's wallet lock it
// re-checks everything, then writes the order, the stock deductions, the
// spend, the wallet debit and the cart reset in one batch. Nothing is written
// when any step fails.
//
// The batch is version-checked against every aggregate it was priced from.
// When a concurrent order takes the same stock first, the confirmation is
// rebuilt from the new stock, so an order that oversells is flagged for
// review rather than clamped silently.
func (h *Handler) Checkout(ctx context.Context, userID string) (*order.Order, error) {
	release, err := h.acquireWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var o *order.Order
	for attempt := 1; ; attempt++ {
		o, err = h.placeOrder(ctx, userID)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt == maxCheckoutAttempts {
			return nil, err
		}
		h.log.Info("checkout raced a concurrent write, rebuilding",
			zap.String("component", "Checkout"),
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	if err := h.sessions.Delete(ctx, userID); err != nil {
		h.log.Warn("failed to delete checkout session",
			zap.String("component", "Checkout"),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	h.metrics.CheckoutCompleted(string(o.PaymentMethod))
	if o.NeedsReview {
		h.metrics.OrderFlagged()
		h.log.Warn("order placed with insufficient stock",
			zap.String("component", "Checkout"),
			zap.String("order_id", o.ID),
			zap.String("reason", o.ReviewReason),
		)
	}
	h.log.Info("order placed",
		zap.String("component", "Checkout"),
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int64("total", o.Total),
		zap.String("payment_method", string(o.PaymentMethod)),
	)
	return o, nil
}

// placeOrder prices, checks and writes one confirmation attempt.
func (h *Handler) placeOrder(ctx context.Context, userID string) (*order.Order, error) {
	p, err := h.price(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.cfg.StoreOpen {
		return nil, ErrStoreClosed
	}
	sess, err := h.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if r := checkout.Evaluate(sess, p.cart.Lines, p.totals, p.wallet()); !r.Ready {
		return nil, &NotReadyError{Missing: r.Missing}
	}
	if p.totals.Subtotal < p.cfg.MinOrderAmount {
		return nil, fmt.Errorf("%w: %d < %d", ErrBelowMinimum, p.totals.Subtotal, p.cfg.MinOrderAmount)
	}
	slot, ok := checkout.FindSlot(h.now(), sess.Slot.Date, sess.Slot.Window)
	if !ok {
		return nil, fmt.Errorf("%w: %s", checkout.ErrInvalidSlot, sess.Slot)
	}
	for _, l := range p.cart.Lines {
		if !loyalty.CanPurchase(p.tier, l.Product.CercleOnly) {
			return nil, fmt.Errorf("%w: %s", ErrCercleLineForbidden, l.Product.Name)
		}
	}

	orderID := order.NewOrderID()
	items := make([]order.OrderItem, 0, len(p.cart.Lines))
	deductions := make([]store.PendingEvent, 0, len(p.cart.Lines))
	var shortages []string
	for _, l := range p.cart.Lines {
		inv, err := h.svc.Inventory.Get(ctx, l.Product.ID)
		if err != nil {
			return nil, err
		}
		deduct, shortfall := inventory.DeductEvent(inv, orderID, l.Quantity)
		deductions = append(deductions, deduct)
		if shortfall > 0 {
			shortages = append(shortages, fmt.Sprintf("%s (manque %d)", l.Product.Name, shortfall))
		}
		items = append(items, order.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Unit:      l.Product.Unit,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		})
	}

	placed := order.OrderPlaced{
		OrderID:          orderID,
		UserID:           userID,
		CustomerName:     p.user.Name,
		CustomerClientID: p.user.ClientID,
		Items:            items,
		Subtotal:         p.totals.Subtotal,
		DeliveryFee:      p.totals.DeliveryFee,
		Total:            p.totals.Total,
		DeliveryAddress:  sess.Address.Line,
		DeliverySlot:     slot.String(),
		PaymentMethod:    sess.Method,
		PlacedAt:         h.now(),
	}
	if len(shortages) > 0 {
		placed.NeedsReview = true
		placed.ReviewReason = "stock insuffisant: " + strings.Join(shortages, ", ")
	}
	placeEvent, err := order.PlaceEvent(placed)
	if err != nil {
		return nil, err
	}

	batch := make([]store.PendingEvent, 0, len(deductions)+4)
	batch = append(batch, placeEvent)
	batch = append(batch, deductions...)

	// The first event on an aggregate carries its expected version.
	spend := user.SpendEvent(p.user, orderID, p.totals.Total, p.cfg.CercleThreshold, p.cfg.LoyaltyPointRatio)
	spend.ExpectedVersion = p.user.Version
	batch = append(batch, spend)
	if sess.Method == order.PaymentWallet {
		debit, err := user.DebitEvent(p.user, orderID, p.totals.Total)
		if err != nil {
			if errors.Is(err, user.ErrInsufficientBalance) {
				return nil, checkout.ErrInsufficientBalance
			}
			return nil, err
		}
		batch = append(batch, debit)
	}
	reset := cart.ClearEvent(userID)
	reset.ExpectedVersion = p.cart.Version
	batch = append(batch, reset)

	stored, err := h.eventStore.AppendBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	o := &order.Order{ID: orderID}
	if err := aggregate.Apply(o, stored...); err != nil {
		return nil, err
	}
	return o, nil
}

// acquireWallet takes the customer's wallet lock and counts contention.
func (h *Handler) acquireWallet(ctx context.Context, userID string) (func(), error) {
	release, err := h.locker.Acquire(ctx, lock.WalletKey(userID))
	if errors.Is(err, lock.ErrLocked) {
		h.metrics.LockContended("wallet")
	}
	return release, err
}
