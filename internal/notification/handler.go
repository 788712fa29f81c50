package notification

import (
	"context"
	"encoding/json"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/email"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	"go.uber.org/zap"
)

const (
	KindOrderConfirmation = "order_confirmation"
	KindWalletCredited    = "wallet_credited"
)

// Handler processes events for sending notifications
type Handler struct {
	emailService *email.Service
	readStore    store.ReadStoreInterface
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewHandler(emailSvc *email.Service, readStore store.ReadStoreInterface, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		emailService: emailSvc,
		readStore:    readStore,
		metrics:      m,
		log:          log.With(zap.String("component", "Notifier")),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.log.Error("failed to unmarshal event", zap.Error(err))
		return err
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case user.EventWalletCredited:
		// Credits only come from approved reloads.
		return h.handleWalletCredited(event)
	}
	return nil
}

// recipient looks up the customer. A missing profile is logged and the
// notification dropped so the consumer keeps moving.
func (h *Handler) recipient(userID string) (*readmodel.UserReadModel, bool) {
	data, exists, err := h.readStore.Get(readmodel.Users, userID)
	if err != nil {
		h.log.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	if !exists {
		h.log.Warn("user not found", zap.String("user_id", userID))
		return nil, false
	}
	u, ok := data.(*readmodel.UserReadModel)
	if !ok || u.Email == "" {
		h.log.Warn("user has no contact address", zap.String("user_id", userID))
		return nil, false
	}
	return u, true
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	u, ok := h.recipient(e.UserID)
	if !ok {
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{Name: item.Name, Unit: item.Unit, Quantity: item.Quantity, Price: item.Price}
	}

	err := h.emailService.SendOrderConfirmation(u.Email, email.Order{
		ID:              e.OrderID,
		CustomerName:    e.CustomerName,
		Items:           items,
		Subtotal:        e.Subtotal,
		DeliveryFee:     e.DeliveryFee,
		Total:           e.Total,
		DeliveryAddress: e.DeliveryAddress,
		DeliverySlot:    e.DeliverySlot,
		PaymentMethod:   string(e.PaymentMethod),
		NeedsReview:     e.NeedsReview,
	})
	h.metrics.NotificationSent(KindOrderConfirmation, err)
	if err != nil {
		h.log.Error("failed to send order confirmation", zap.String("order_id", e.OrderID), zap.Error(err))
		return err
	}

	h.log.Info("order confirmation sent", zap.String("order_id", e.OrderID), zap.String("to", u.Email))
	return nil
}

func (h *Handler) handleWalletCredited(event store.Event) error {
	var e user.WalletCredited
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	u, ok := h.recipient(e.UserID)
	if !ok {
		return nil
	}

	err := h.emailService.SendWalletCredited(u.Email, u.Name, e.Amount, e.Balance)
	h.metrics.NotificationSent(KindWalletCredited, err)
	if err != nil {
		h.log.Error("failed to send wallet notice", zap.String("reload_id", e.ReloadID), zap.Error(err))
		return err
	}

	h.log.Info("wallet notice sent", zap.String("reload_id", e.ReloadID), zap.String("to", u.Email))
	return nil
}
