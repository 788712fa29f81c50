package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"go.uber.org/zap"
)

const AggregateType = "Inventory"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNegativeStock   = errors.New("stock cannot be negative")
)

type Inventory struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	aggregate.Versioned
}

// InventoryID is the aggregate id holding a product's stock.
func InventoryID(productID string) string {
	return "inventory-" + productID
}

func (i *Inventory) GetID() string { return InventoryID(i.ProductID) }

func (i *Inventory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventStockAdded:
		var data StockAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Stock += data.Quantity
	case EventStockAdjusted:
		var data StockAdjusted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Stock = data.Stock
	case EventStockDeducted:
		var data StockDeducted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Stock = Remaining(i.Stock, data.Quantity)
	}
	return nil
}

// Remaining is the stock left after taking quantity, clamped at zero.
func Remaining(stock, quantity int) int {
	if quantity >= stock {
		return 0
	}
	return stock - quantity
}

// Shortfall is how many of quantity units were not on hand.
func Shortfall(stock, quantity int) int {
	if stock < 0 {
		stock = 0
	}
	if quantity <= stock {
		return 0
	}
	return quantity - stock
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

func (s *Service) Get(ctx context.Context, productID string) (*Inventory, error) {
	inv, _, err := aggregate.LoadAggregate(ctx, s.eventStore, InventoryID(productID), func() *Inventory {
		return &Inventory{ProductID: productID}
	})
	return inv, err
}

func (s *Service) AddStock(ctx context.Context, productID string, quantity int) (*Inventory, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	inv, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, inv, EventStockAdded, StockAdded{
		ProductID: productID,
		Quantity:  quantity,
		Stock:     inv.Stock + quantity,
		AddedAt:   time.Now(),
	})
}

// SetStock records a manual stock count.
func (s *Service) SetStock(ctx context.Context, productID string, stock int, adminID string) (*Inventory, error) {
	if stock < 0 {
		return nil, ErrNegativeStock
	}
	inv, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, inv, EventStockAdjusted, StockAdjusted{
		ProductID:  productID,
		Previous:   inv.Stock,
		Stock:      stock,
		AdjustedBy: adminID,
		AdjustedAt: time.Now(),
	})
}

// DeductEvent builds the StockDeducted event for an order line against the
// stock at inv.Version. The event only commits while the inventory is still at
// that version, so the shortfall it reports is the one actually taken. The
// returned shortfall is non-zero when the order takes more than is on hand.
func DeductEvent(inv *Inventory, orderID string, quantity int) (store.PendingEvent, int) {
	shortfall := Shortfall(inv.Stock, quantity)
	return store.PendingEvent{
		AggregateID:     inv.GetID(),
		AggregateType:   AggregateType,
		EventType:       EventStockDeducted,
		ExpectedVersion: inv.Version,
		Data: StockDeducted{
			ProductID:  inv.ProductID,
			OrderID:    orderID,
			Quantity:   quantity,
			Shortfall:  shortfall,
			Remaining:  Remaining(inv.Stock, quantity),
			DeductedAt: time.Now(),
		},
	}, shortfall
}

func (s *Service) record(ctx context.Context, inv *Inventory, eventType string, data any) (*Inventory, error) {
	stored, err := s.eventStore.Append(ctx, inv.GetID(), AggregateType, eventType, data)
	if err != nil {
		return nil, err
	}
	if err := aggregate.Apply(inv, *stored); err != nil {
		return nil, err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, inv, AggregateType); err != nil {
		s.log.Warn("failed to create snapshot",
			zap.String("component", "Inventory"),
			zap.String("product_id", inv.ProductID),
			zap.Error(err),
		)
	}
	return inv, nil
}
