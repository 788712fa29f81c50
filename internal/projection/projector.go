package projection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/category"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/inventory"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/product"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/reload"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	"go.uber.org/zap"
)

// Projector folds committed events into the read store. Carts, checkout
// sessions, logistics and settings are read from their aggregates and have
// no projection.
type Projector struct {
	readStore store.ReadStoreInterface
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewProjector(readStore store.ReadStoreInterface, m *metrics.Metrics, log *zap.Logger) *Projector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Projector{readStore: readStore, metrics: m, log: log.With(zap.String("component", "Projector"))}
}

// HandleEvent decodes a Kafka message and projects it.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	return p.Project(event)
}

// Project applies one event to the read models.
func (p *Projector) Project(event store.Event) error {
	p.log.Debug("projecting event",
		zap.String("event_type", event.EventType),
		zap.String("aggregate_type", event.AggregateType),
		zap.String("aggregate_id", event.AggregateID),
	)

	var err error
	switch event.AggregateType {
	case product.AggregateType:
		err = p.handleProductEvent(event)
	case inventory.AggregateType:
		err = p.handleInventoryEvent(event)
	case category.AggregateType:
		err = p.handleCategoryEvent(event)
	case order.AggregateType:
		err = p.handleOrderEvent(event)
	case user.AggregateType:
		err = p.handleUserEvent(event)
	case reload.AggregateType:
		err = p.handleReloadEvent(event)
	default:
		return nil
	}

	p.metrics.EventProjected(event.EventType, err)
	if err != nil {
		p.log.Error("projection failed",
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
			zap.Error(err),
		)
	}
	return err
}

// update applies fn to a stored read model. A missing model is logged and
// skipped: the event that creates it may not have been projected yet.
func (p *Projector) update(collection, id string, fn func(current any) any) error {
	found, err := p.readStore.Update(collection, id, fn)
	if err != nil {
		return err
	}
	if !found {
		p.log.Warn("read model not found", zap.String("collection", collection), zap.String("id", id))
	}
	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		prod := &readmodel.ProductReadModel{ID: e.ProductID, Stock: e.Stock, CreatedAt: e.CreatedAt}
		applyDetails(prod, e.Details, e.CreatedAt)
		return p.readStore.Set(readmodel.Products, e.ProductID, prod)

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.update(readmodel.Products, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			applyDetails(prod, e.Details, e.UpdatedAt)
			return prod
		})

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Delete(readmodel.Products, e.ProductID)
	}
	return nil
}

func applyDetails(prod *readmodel.ProductReadModel, d product.Details, at time.Time) {
	prod.Name = d.Name
	prod.Description = d.Description
	prod.Price = d.Price
	prod.Unit = d.Unit
	prod.UnitQuantity = d.UnitQuantity
	prod.Image = d.Image
	prod.Rating = d.Rating
	prod.Category = d.Category
	prod.CercleOnly = d.CercleOnly
	prod.UpdatedAt = at
}

// Inventory events carry the stock after the change, so projecting them
// twice or out of order across products is harmless.
func (p *Projector) handleInventoryEvent(event store.Event) error {
	var productID string
	var stock int
	var at time.Time

	switch event.EventType {
	case inventory.EventStockAdded:
		var e inventory.StockAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		productID, stock, at = e.ProductID, e.Stock, e.AddedAt
	case inventory.EventStockAdjusted:
		var e inventory.StockAdjusted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		productID, stock, at = e.ProductID, e.Stock, e.AdjustedAt
	case inventory.EventStockDeducted:
		var e inventory.StockDeducted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		productID, stock, at = e.ProductID, e.Remaining, e.DeductedAt
	default:
		return nil
	}

	return p.update(readmodel.Products, productID, func(current any) any {
		prod := current.(*readmodel.ProductReadModel)
		prod.Stock = stock
		prod.UpdatedAt = at
		return prod
	})
}

func (p *Projector) handleCategoryEvent(event store.Event) error {
	switch event.EventType {
	case category.EventCategoryCreated:
		var e category.CategoryCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.Categories, e.CategoryID, &readmodel.CategoryReadModel{
			ID:        e.CategoryID,
			Name:      e.Name,
			Slug:      e.Slug,
			Icon:      e.Icon,
			Color:     e.Color,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.CreatedAt,
		})

	case category.EventCategoryUpdated:
		var e category.CategoryUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.update(readmodel.Categories, e.CategoryID, func(current any) any {
			c := current.(*readmodel.CategoryReadModel)
			c.Name = e.Name
			c.Slug = e.Slug
			c.Icon = e.Icon
			c.Color = e.Color
			c.UpdatedAt = e.UpdatedAt
			return c
		})

	case category.EventCategoryDeleted:
		var e category.CategoryDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Delete(readmodel.Categories, e.CategoryID)
	}
	return nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		items := make([]readmodel.OrderItemReadModel, len(e.Items))
		for i, item := range e.Items {
			items[i] = readmodel.OrderItemReadModel{
				ProductID: item.ProductID,
				Name:      item.Name,
				Unit:      item.Unit,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
		}
		return p.readStore.Set(readmodel.Orders, e.OrderID, &readmodel.OrderReadModel{
			ID:               e.OrderID,
			UserID:           e.UserID,
			CustomerName:     e.CustomerName,
			CustomerClientID: e.CustomerClientID,
			Items:            items,
			Subtotal:         e.Subtotal,
			DeliveryFee:      e.DeliveryFee,
			Total:            e.Total,
			DeliveryAddress:  e.DeliveryAddress,
			DeliverySlot:     e.DeliverySlot,
			PaymentMethod:    string(e.PaymentMethod),
			Status:           string(order.StatusPreparing),
			NeedsReview:      e.NeedsReview,
			ReviewReason:     e.ReviewReason,
			CreatedAt:        e.PlacedAt,
			UpdatedAt:        e.PlacedAt,
		})

	case order.EventOrderStatusChanged:
		var e order.OrderStatusChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.update(readmodel.Orders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(e.To)
			o.UpdatedAt = e.ChangedAt
			return o
		})
	}
	return nil
}

func (p *Projector) handleUserEvent(event store.Event) error {
	if event.EventType == user.EventUserRegistered {
		var e user.UserRegistered
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.Users, e.UserID, &readmodel.UserReadModel{
			ID:         e.UserID,
			ClientID:   e.ClientID,
			Name:       e.Name,
			Email:      e.Email,
			PINHash:    e.PINHash,
			Role:       e.Role,
			Tier:       string(loyalty.Standard),
			Addresses:  []readmodel.AddressReadModel{},
			ReferredBy: e.ReferredBy,
			CreatedAt:  e.CreatedAt,
			UpdatedAt:  e.CreatedAt,
		})
	}

	var apply func(u *readmodel.UserReadModel)
	switch event.EventType {
	case user.EventUserUpdated:
		var e user.UserUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.Name = e.Name
			u.UpdatedAt = e.UpdatedAt
		}

	case user.EventPINChanged:
		var e user.PINChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.PINHash = e.PINHash
			u.UpdatedAt = e.ChangedAt
		}

	case user.EventUserLoggedIn:
		var e user.UserLoggedIn
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			at := e.LoggedAt
			u.LastLoginAt = &at
		}

	case user.EventSpendRecorded:
		var e user.SpendRecorded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.TotalSpent = e.TotalSpent
			u.Tier = e.Tier
			u.Points += e.PointsEarned
			u.UpdatedAt = e.RecordedAt
		}

	case user.EventWalletCredited:
		var e user.WalletCredited
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.WalletBalance = e.Balance
			u.UpdatedAt = e.CreditedAt
		}

	case user.EventWalletDebited:
		var e user.WalletDebited
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.WalletBalance = e.Balance
			u.UpdatedAt = e.DebitedAt
		}

	case user.EventAddressAdded:
		var e user.AddressAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.Addresses = removeAddress(u.Addresses, e.Address.ID)
			u.Addresses = append(u.Addresses, readmodel.AddressReadModel{
				ID:      e.Address.ID,
				Label:   e.Address.Label,
				Details: e.Address.Details,
				Lat:     e.Address.Lat,
				Lng:     e.Address.Lng,
			})
			u.UpdatedAt = e.AddedAt
		}

	case user.EventAddressRemoved:
		var e user.AddressRemoved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.Addresses = removeAddress(u.Addresses, e.AddressID)
			u.UpdatedAt = e.RemovedAt
		}

	case user.EventReferralBonusAwarded:
		var e user.ReferralBonusAwarded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		apply = func(u *readmodel.UserReadModel) {
			u.Points += e.Points
			u.UpdatedAt = e.AwardedAt
		}

	default:
		return nil
	}

	return p.update(readmodel.Users, event.AggregateID, func(current any) any {
		u := current.(*readmodel.UserReadModel)
		apply(u)
		return u
	})
}

func removeAddress(addresses []readmodel.AddressReadModel, id string) []readmodel.AddressReadModel {
	kept := make([]readmodel.AddressReadModel, 0, len(addresses))
	for _, a := range addresses {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	return kept
}

func (p *Projector) handleReloadEvent(event store.Event) error {
	switch event.EventType {
	case reload.EventReloadRequested:
		var e reload.ReloadRequested
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.Reloads, e.ReloadID, &readmodel.ReloadReadModel{
			ID:        e.ReloadID,
			UserID:    e.UserID,
			UserName:  e.UserName,
			Amount:    e.Amount,
			Status:    string(reload.StatusPending),
			CreatedAt: e.RequestedAt,
		})

	case reload.EventReloadApproved:
		var e reload.ReloadApproved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.update(readmodel.Reloads, e.ReloadID, func(current any) any {
			r := current.(*readmodel.ReloadReadModel)
			at := e.ApprovedAt
			r.Status = string(reload.StatusApproved)
			r.DecidedBy = e.ApprovedBy
			r.DecidedAt = &at
			return r
		})

	case reload.EventReloadRejected:
		var e reload.ReloadRejected
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.update(readmodel.Reloads, e.ReloadID, func(current any) any {
			r := current.(*readmodel.ReloadReadModel)
			at := e.RejectedAt
			r.Status = string(reload.StatusRejected)
			r.Reason = e.Reason
			r.DecidedBy = e.RejectedBy
			r.DecidedAt = &at
			return r
		})
	}
	return nil
}
