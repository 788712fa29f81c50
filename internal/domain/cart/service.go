package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"go.uber.org/zap"
)

const AggregateType = "Cart"

var (
	ErrInvalidProduct = errors.New("product_id is required")
	ErrCercleOnly     = errors.New("product is reserved for Cercle members")
	ErrItemNotInCart  = errors.New("product is not in the cart")
)

// Cart is a customer's cart rebuilt from its events.
type Cart struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Lines  Lines  `json:"lines"`
	aggregate.Versioned
}

func (c *Cart) GetID() string { return c.ID }

func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.UserID = data.UserID
		// Tier was checked when the event was recorded; a later demotion
		// must not rewrite history.
		c.Lines.add(data.Product)
	case EventQuantityChanged:
		var data CartQuantityChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.Lines.UpdateQuantity(data.ProductID, data.Delta)
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.Lines.Remove(data.ProductID)
	case EventCartCleared:
		c.Lines = nil
	}
	return nil
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

// GetCartID returns the cart ID for a user. Each user has exactly one cart.
func GetCartID(userID string) string {
	return "cart-" + userID
}

func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	cartID := GetCartID(userID)
	c, _, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{ID: cartID, UserID: userID}
	})
	return c, err
}

// AddItem adds one unit of a product. Cercle-only products are refused for
// other tiers and leave the cart untouched.
func (s *Service) AddItem(ctx context.Context, userID string, product ProductSnapshot, tier loyalty.Tier) (*Cart, error) {
	if product.ID == "" {
		return nil, ErrInvalidProduct
	}
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !loyalty.CanPurchase(tier, product.CercleOnly) {
		return c, ErrCercleOnly
	}

	return s.record(ctx, c, EventItemAdded, ItemAddedToCart{
		CartID:  c.ID,
		UserID:  userID,
		Product: product,
		AddedAt: time.Now(),
	})
}

// UpdateQuantity shifts a line by delta; the line is removed when it drops to
// zero or below.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, delta int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Lines.Find(productID); !ok {
		return c, ErrItemNotInCart
	}
	if delta == 0 {
		return c, nil
	}

	return s.record(ctx, c, EventQuantityChanged, CartQuantityChanged{
		CartID:    c.ID,
		UserID:    userID,
		ProductID: productID,
		Delta:     delta,
		ChangedAt: time.Now(),
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Lines.Find(productID); !ok {
		return c, nil
	}

	return s.record(ctx, c, EventItemRemoved, ItemRemovedFromCart{
		CartID:    c.ID,
		UserID:    userID,
		ProductID: productID,
		RemovedAt: time.Now(),
	})
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return err
	}
	if c.Lines.Empty() {
		return nil
	}
	_, err = s.record(ctx, c, EventCartCleared, CartCleared{
		CartID:    c.ID,
		UserID:    userID,
		ClearedAt: time.Now(),
	})
	return err
}

// ClearEvent is the CartCleared event for a batch written by another
// aggregate's command, such as checkout.
func ClearEvent(userID string) store.PendingEvent {
	return store.PendingEvent{
		AggregateID:   GetCartID(userID),
		AggregateType: AggregateType,
		EventType:     EventCartCleared,
		Data: CartCleared{
			CartID:    GetCartID(userID),
			UserID:    userID,
			ClearedAt: time.Now(),
		},
	}
}

func (s *Service) record(ctx context.Context, c *Cart, eventType string, data any) (*Cart, error) {
	stored, err := s.eventStore.Append(ctx, c.ID, AggregateType, eventType, data)
	if err != nil {
		return nil, err
	}
	if err := aggregate.Apply(c, *stored); err != nil {
		return nil, err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, c, AggregateType); err != nil {
		s.log.Warn("failed to create snapshot",
			zap.String("component", "Cart"),
			zap.String("cart_id", c.ID),
			zap.Error(err),
		)
	}
	return c, nil
}
