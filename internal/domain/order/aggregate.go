package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"go.uber.org/zap"
)

const (
	AggregateType = "Order"
	IDPrefix      = "VSL-"
)

type Status string

const (
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
)

var statusLabels = map[Status]string{
	StatusPreparing:      "En préparation",
	StatusOutForDelivery: "En livraison",
	StatusDelivered:      "Livré",
}

// Label is the status as shown to customers.
func (s Status) Label() string {
	return statusLabels[s]
}

func ParseStatus(s string) (Status, error) {
	if _, ok := statusLabels[Status(s)]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, s)
	}
	return Status(s), nil
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentWallet PaymentMethod = "Wallet"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentWallet
}

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrEmptyOrder      = errors.New("order must have at least one item")
	ErrInvalidStatus   = errors.New("invalid order status transition")
	ErrOrderDelivered  = errors.New("order is already delivered")
	ErrInvalidPayment  = errors.New("unknown payment method")
	ErrTotalMismatch   = errors.New("order total does not match its lines")
	ErrMissingDelivery = errors.New("delivery address and slot are required")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPreparing:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {}, // terminal state
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

func (o *Order) transitionError(target Status) error {
	if o.Status == StatusDelivered {
		return ErrOrderDelivered
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
}

// Order is the immutable record of a checkout. Only Status changes after
// placement.
type Order struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	CustomerName     string        `json:"customer_name"`
	CustomerClientID string        `json:"customer_client_id"`
	Items            []OrderItem   `json:"items"`
	Subtotal         int64         `json:"subtotal"`
	DeliveryFee      int64         `json:"delivery_fee"`
	Total            int64         `json:"total"`
	DeliveryAddress  string        `json:"delivery_address"`
	DeliverySlot     string        `json:"delivery_slot"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	Status           Status        `json:"status"`
	NeedsReview      bool          `json:"needs_review"`
	ReviewReason     string        `json:"review_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	aggregate.Versioned
}

func (o *Order) GetID() string { return o.ID }

func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.UserID = data.UserID
		o.CustomerName = data.CustomerName
		o.CustomerClientID = data.CustomerClientID
		o.Items = data.Items
		o.Subtotal = data.Subtotal
		o.DeliveryFee = data.DeliveryFee
		o.Total = data.Total
		o.DeliveryAddress = data.DeliveryAddress
		o.DeliverySlot = data.DeliverySlot
		o.PaymentMethod = data.PaymentMethod
		o.NeedsReview = data.NeedsReview
		o.ReviewReason = data.ReviewReason
		o.Status = StatusPreparing
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventOrderStatusChanged:
		var data OrderStatusChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = data.To
		o.UpdatedAt = data.ChangedAt
	}
	return nil
}

// NewOrderID returns a unique, human-readable order id.
func NewOrderID() string {
	return IDPrefix + uuid.New().String()
}

// PlaceEvent validates a placement and builds its OrderPlaced event. The
// caller appends it together with the other effects of the checkout.
func PlaceEvent(p OrderPlaced) (store.PendingEvent, error) {
	if len(p.Items) == 0 {
		return store.PendingEvent{}, ErrEmptyOrder
	}
	if !p.PaymentMethod.Valid() {
		return store.PendingEvent{}, ErrInvalidPayment
	}
	if p.DeliveryAddress == "" || p.DeliverySlot == "" {
		return store.PendingEvent{}, ErrMissingDelivery
	}
	var subtotal int64
	for _, item := range p.Items {
		if item.Quantity <= 0 {
			return store.PendingEvent{}, ErrEmptyOrder
		}
		subtotal += item.Price * int64(item.Quantity)
	}
	if subtotal != p.Subtotal || p.Subtotal+p.DeliveryFee != p.Total {
		return store.PendingEvent{}, ErrTotalMismatch
	}
	if p.OrderID == "" {
		p.OrderID = NewOrderID()
	}
	if p.PlacedAt.IsZero() {
		p.PlacedAt = time.Now()
	}

	return store.PendingEvent{
		AggregateID:   p.OrderID,
		AggregateType: AggregateType,
		EventType:     EventOrderPlaced,
		Data:          p,
	}, nil
}

type Service struct {
	eventStore store.EventStoreInterface
	log        *zap.Logger
}

func NewService(es store.EventStoreInterface, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{eventStore: es, log: log}
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{ID: orderID}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Advance moves an order to target on behalf of an administrator.
func (s *Service) Advance(ctx context.Context, orderID string, target Status, adminID string) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanTransitionTo(target) {
		return nil, order.transitionError(target)
	}

	stored, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderStatusChanged, OrderStatusChanged{
		OrderID:   orderID,
		UserID:    order.UserID,
		From:      order.Status,
		To:        target,
		ChangedBy: adminID,
		ChangedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := aggregate.Apply(order, *stored); err != nil {
		return nil, err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		s.log.Warn("failed to create snapshot",
			zap.String("component", "Order"),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	return order, nil
}
