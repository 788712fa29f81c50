package query

import (
	"sort"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/reload"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	"go.uber.org/zap"
)

type Handler struct {
	readStore store.ReadStoreInterface
	log       *zap.Logger
}

func NewHandler(readStore store.ReadStoreInterface, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{readStore: readStore, log: log.With(zap.String("component", "Query"))}
}

func (h *Handler) get(collection, id string) (any, bool) {
	data, ok, err := h.readStore.Get(collection, id)
	if err != nil {
		h.log.Error("read model lookup failed",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		return nil, false
	}
	return data, ok
}

func (h *Handler) all(collection string) []any {
	items, err := h.readStore.GetAll(collection)
	if err != nil {
		h.log.Error("read model listing failed", zap.String("collection", collection), zap.Error(err))
		return nil
	}
	return items
}

// Products
func (h *Handler) GetProduct(id string) (*ProductReadModel, bool) {
	data, ok := h.get(readmodel.Products, id)
	if !ok {
		return nil, false
	}
	return data.(*ProductReadModel), true
}

func (h *Handler) ListProducts() []*ProductReadModel {
	return h.Market(loyalty.Cercle, "")
}

// Market lists what a customer of the given tier can see, sorted by name.
// Cercle-only products are hidden from Standard customers. An empty category
// means every category.
func (h *Handler) Market(tier loyalty.Tier, category string) []*ProductReadModel {
	items := h.all(readmodel.Products)
	products := make([]*ProductReadModel, 0, len(items))
	for _, item := range items {
		p := item.(*ProductReadModel)
		if !loyalty.CanPurchase(tier, p.CercleOnly) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products
}

// Categories
func (h *Handler) GetCategory(id string) (*CategoryReadModel, bool) {
	data, ok := h.get(readmodel.Categories, id)
	if !ok {
		return nil, false
	}
	return data.(*CategoryReadModel), true
}

func (h *Handler) ListCategories() []*CategoryReadModel {
	items := h.all(readmodel.Categories)
	categories := make([]*CategoryReadModel, 0, len(items))
	for _, item := range items {
		categories = append(categories, item.(*CategoryReadModel))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories
}

// Orders
func (h *Handler) GetOrder(id string) (*OrderReadModel, bool) {
	data, ok := h.get(readmodel.Orders, id)
	if !ok {
		return nil, false
	}
	return data.(*OrderReadModel), true
}

// ListOrdersByUser returns a customer's orders, newest first.
func (h *Handler) ListOrdersByUser(userID string) []*OrderReadModel {
	return h.orders(func(o *OrderReadModel) bool { return o.UserID == userID })
}

// ListAllOrders returns all orders (for admin use)
func (h *Handler) ListAllOrders() []*OrderReadModel {
	return h.orders(func(*OrderReadModel) bool { return true })
}

// ListOpenOrders returns orders that are not delivered yet.
func (h *Handler) ListOpenOrders() []*OrderReadModel {
	return h.orders(func(o *OrderReadModel) bool { return o.Status != string(order.StatusDelivered) })
}

func (h *Handler) orders(keep func(*OrderReadModel) bool) []*OrderReadModel {
	items := h.all(readmodel.Orders)
	orders := make([]*OrderReadModel, 0, len(items))
	for _, item := range items {
		o := item.(*OrderReadModel)
		if keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

// Profiles
func (h *Handler) GetProfile(userID string) (*UserReadModel, bool) {
	data, ok := h.get(readmodel.Users, userID)
	if !ok {
		return nil, false
	}
	return data.(*UserReadModel), true
}

func (h *Handler) ListProfiles() []*UserReadModel {
	items := h.all(readmodel.Users)
	users := make([]*UserReadModel, 0, len(items))
	for _, item := range items {
		users = append(users, item.(*UserReadModel))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

// TierOf derives a customer's tier against the threshold in force. Unknown
// customers are Standard.
func (h *Handler) TierOf(userID string, threshold int64) loyalty.Tier {
	u, ok := h.GetProfile(userID)
	if !ok {
		return loyalty.Standard
	}
	return loyalty.Classify(u.TotalSpent, threshold)
}

// CercleStatus is what the membership page shows.
type CercleStatus struct {
	Tier       loyalty.Tier `json:"tier"`
	TotalSpent int64        `json:"total_spent"`
	Threshold  int64        `json:"threshold"`
	Progress   int          `json:"progress"`
	Remaining  int64        `json:"remaining"`
	Points     int64        `json:"points"`
}

func (h *Handler) GetCercleStatus(userID string, threshold int64) (*CercleStatus, bool) {
	u, ok := h.GetProfile(userID)
	if !ok {
		return nil, false
	}
	return &CercleStatus{
		Tier:       loyalty.Classify(u.TotalSpent, threshold),
		TotalSpent: u.TotalSpent,
		Threshold:  threshold,
		Progress:   loyalty.Progress(u.TotalSpent, threshold),
		Remaining:  loyalty.Remaining(u.TotalSpent, threshold),
		Points:     u.Points,
	}, true
}

// Reloads
func (h *Handler) GetReload(id string) (*ReloadReadModel, bool) {
	data, ok := h.get(readmodel.Reloads, id)
	if !ok {
		return nil, false
	}
	return data.(*ReloadReadModel), true
}

func (h *Handler) ListReloadsByUser(userID string) []*ReloadReadModel {
	return h.reloads(func(r *ReloadReadModel) bool { return r.UserID == userID })
}

func (h *Handler) ListAllReloads() []*ReloadReadModel {
	return h.reloads(func(*ReloadReadModel) bool { return true })
}

func (h *Handler) reloads(keep func(*ReloadReadModel) bool) []*ReloadReadModel {
	items := h.all(readmodel.Reloads)
	reloads := make([]*ReloadReadModel, 0, len(items))
	for _, item := range items {
		r := item.(*ReloadReadModel)
		if keep(r) {
			reloads = append(reloads, r)
		}
	}
	sort.Slice(reloads, func(i, j int) bool { return reloads[i].CreatedAt.After(reloads[j].CreatedAt) })
	return reloads
}

// Dashboard is the admin overview.
type Dashboard struct {
	OpenOrders     []*OrderReadModel `json:"open_orders"`
	FlaggedOrders  int               `json:"flagged_orders"`
	PendingReloads int               `json:"pending_reloads"`
	Customers      int               `json:"customers"`
}

func (h *Handler) GetDashboard() *Dashboard {
	open := h.ListOpenOrders()
	flagged := 0
	for _, o := range open {
		if o.NeedsReview {
			flagged++
		}
	}
	pending := 0
	for _, r := range h.ListAllReloads() {
		if r.Status == string(reload.StatusPending) {
			pending++
		}
	}
	return &Dashboard{
		OpenOrders:     open,
		FlaggedOrders:  flagged,
		PendingReloads: pending,
		Customers:      len(h.all(readmodel.Users)),
	}
}
