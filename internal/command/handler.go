package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/auth"
	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/category"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/inventory"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/logistics"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/product"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/reload"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/lock"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	"github.com/viepratiqueservice-arch/Visela/internal/settings"
	"go.uber.org/zap"
)

var ErrUnknownReferrer = errors.New("referrer client id is not registered")

// Services are the aggregate services commands are dispatched to.
type Services struct {
	Products   *product.Service
	Inventory  *inventory.Service
	Categories *category.Service
	Carts      *cart.Service
	Orders     *order.Service
	Users      *user.Service
	Reloads    *reload.Service
	Logistics  *logistics.Service
	Settings   *settings.Service
}

// NewServices wires every aggregate service to one event store.
func NewServices(es store.EventStoreInterface, log *zap.Logger) Services {
	return Services{
		Products:   product.NewService(es),
		Inventory:  inventory.NewService(es, log),
		Categories: category.NewService(es),
		Carts:      cart.NewService(es, log),
		Orders:     order.NewService(es, log),
		Users:      user.NewService(es, log),
		Reloads:    reload.NewService(es),
		Logistics:  logistics.NewService(es, log),
		Settings:   settings.NewService(es, log),
	}
}

type Handler struct {
	svc        Services
	eventStore store.EventStoreInterface
	readStore  store.ReadStoreInterface
	sessions   checkout.SessionStore
	locker     lock.Locker
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time
}

func NewHandler(
	eventStore store.EventStoreInterface,
	readStore store.ReadStoreInterface,
	svc Services,
	sessions checkout.SessionStore,
	locker lock.Locker,
	m *metrics.Metrics,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:        svc,
		eventStore: eventStore,
		readStore:  readStore,
		sessions:   sessions,
		locker:     locker,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

// Profile Commands

// Register creates a customer. A known referrer is credited with the
// configured referral bonus; a failed bonus does not undo the registration.
func (h *Handler) Register(ctx context.Context, cmd Register) (*user.User, error) {
	clientID := strings.TrimSpace(cmd.ClientID)
	if _, found, err := h.userByClientID(clientID); err != nil {
		return nil, err
	} else if found {
		return nil, user.ErrClientIDTaken
	}

	var referrer *readmodel.UserReadModel
	if ref := strings.TrimSpace(cmd.ReferrerClientID); ref != "" {
		rm, found, err := h.userByClientID(ref)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrUnknownReferrer
		}
		referrer = rm
	}

	referrerID := ""
	if referrer != nil {
		referrerID = referrer.ID
	}
	u, err := h.svc.Users.Register(ctx, clientID, cmd.Name, cmd.PIN, referrerID)
	if err != nil {
		return nil, err
	}

	if referrer != nil {
		h.awardReferral(ctx, referrer.ID, u.ID)
	}
	return u, nil
}

func (h *Handler) awardReferral(ctx context.Context, referrerID, newUserID string) {
	cfg, err := h.svc.Settings.Get(ctx)
	if err == nil {
		err = h.svc.Users.AwardReferralBonus(ctx, referrerID, newUserID, cfg.ReferralBonus)
	}
	if err != nil {
		h.log.Warn("referral bonus not awarded",
			zap.String("component", "Command"),
			zap.String("referrer_id", referrerID),
			zap.String("user_id", newUserID),
			zap.Error(err),
		)
	}
}

// Login checks a PIN against the event-sourced profile. The login is recorded
// best-effort.
func (h *Handler) Login(ctx context.Context, cmd Login) (*user.User, error) {
	rm, found, err := h.userByClientID(strings.TrimSpace(cmd.ClientID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, user.ErrInvalidCredentials
	}
	u, err := h.svc.Users.Get(ctx, rm.ID)
	if err != nil {
		return nil, err
	}
	if err := user.Authenticate(u, cmd.PIN); err != nil {
		return nil, err
	}

	if err := h.svc.Users.RecordLogin(ctx, u.ID, cmd.IPAddress, cmd.UserAgent); err != nil {
		h.log.Warn("failed to record login",
			zap.String("component", "Command"),
			zap.String("user_id", u.ID),
			zap.Error(err),
		)
	}
	return u, nil
}

func (h *Handler) UpdateProfile(ctx context.Context, cmd UpdateProfile) error {
	return h.svc.Users.UpdateProfile(ctx, cmd.UserID, cmd.Name)
}

func (h *Handler) ChangePIN(ctx context.Context, cmd ChangePIN) error {
	u, err := h.svc.Users.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if err := user.Authenticate(u, cmd.CurrentPIN); err != nil {
		return err
	}
	return h.svc.Users.ChangePIN(ctx, cmd.UserID, cmd.NewPIN)
}

func (h *Handler) AddAddress(ctx context.Context, cmd AddAddress) (*user.Address, error) {
	return h.svc.Users.AddAddress(ctx, cmd.UserID, cmd.Label, cmd.Details, cmd.Lat, cmd.Lng)
}

func (h *Handler) RemoveAddress(ctx context.Context, cmd RemoveAddress) error {
	return h.svc.Users.RemoveAddress(ctx, cmd.UserID, cmd.AddressID)
}

// userByClientID scans the profile read models. Client ids are unique, so
// the first match wins.
func (h *Handler) userByClientID(clientID string) (*readmodel.UserReadModel, bool, error) {
	items, err := h.readStore.GetAll(readmodel.Users)
	if err != nil {
		return nil, false, err
	}
	for _, item := range items {
		if u, ok := item.(*readmodel.UserReadModel); ok && u.ClientID == clientID {
			return u, true, nil
		}
	}
	return nil, false, nil
}

// Catalog Commands

// CreateProduct creates a product and receives its opening stock. The read
// store catches up asynchronously through the projector.
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	if cmd.Stock < 0 {
		return nil, inventory.ErrNegativeStock
	}
	p, err := h.svc.Products.Create(ctx, cmd.Details, cmd.Stock)
	if err != nil {
		return nil, err
	}
	if cmd.Stock > 0 {
		if _, err := h.svc.Inventory.AddStock(ctx, p.ID, cmd.Stock); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	return h.svc.Products.Update(ctx, cmd.ProductID, cmd.Details)
}

func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	return h.svc.Products.Delete(ctx, cmd.ProductID)
}

// SetStock records a manual count for an existing product.
func (h *Handler) SetStock(ctx context.Context, cmd SetStock) (*inventory.Inventory, error) {
	if _, err := h.svc.Products.Get(ctx, cmd.ProductID); err != nil {
		return nil, err
	}
	return h.svc.Inventory.SetStock(ctx, cmd.ProductID, cmd.Stock, cmd.AdminID)
}

func (h *Handler) CreateCategory(ctx context.Context, cmd CreateCategory) (*category.Category, error) {
	return h.svc.Categories.Create(ctx, cmd.Name, cmd.Icon, cmd.Color)
}

func (h *Handler) UpdateCategory(ctx context.Context, cmd UpdateCategory) error {
	return h.svc.Categories.Update(ctx, cmd.CategoryID, cmd.Name, cmd.Icon, cmd.Color)
}

func (h *Handler) DeleteCategory(ctx context.Context, cmd DeleteCategory) error {
	return h.svc.Categories.Delete(ctx, cmd.CategoryID)
}

// Cart Commands

// AddToCart puts one unit of a catalog product in the cart, priced from the
// read store. The tier is derived at the threshold in force now.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*cart.Cart, error) {
	data, found, err := h.readStore.Get(readmodel.Products, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, product.ErrProductNotFound
	}
	p := data.(*readmodel.ProductReadModel)

	tier, err := h.tierOf(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	return h.svc.Carts.AddItem(ctx, cmd.UserID, cart.ProductSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Unit:         p.Unit,
		UnitQuantity: p.UnitQuantity,
		Image:        p.Image,
		Category:     p.Category,
		CercleOnly:   p.CercleOnly,
	}, tier)
}

func (h *Handler) UpdateCartQuantity(ctx context.Context, cmd UpdateCartQuantity) (*cart.Cart, error) {
	return h.svc.Carts.UpdateQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Delta)
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*cart.Cart, error) {
	return h.svc.Carts.RemoveItem(ctx, cmd.UserID, cmd.ProductID)
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.svc.Carts.Clear(ctx, cmd.UserID)
}

func (h *Handler) tierOf(ctx context.Context, userID string) (loyalty.Tier, error) {
	cfg, err := h.svc.Settings.Get(ctx)
	if err != nil {
		return "", err
	}
	u, err := h.svc.Users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.TierAt(cfg.CercleThreshold), nil
}

// Order Commands

// AdvanceOrder moves an order along preparing, out for delivery, delivered.
func (h *Handler) AdvanceOrder(ctx context.Context, cmd AdvanceOrder) (*order.Order, error) {
	target, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.svc.Orders.Advance(ctx, cmd.OrderID, target, cmd.AdminID)
}

// Settings Commands

func (h *Handler) UpdateSettings(ctx context.Context, cmd UpdateSettings) (settings.Settings, error) {
	return h.svc.Settings.SetMany(ctx, cmd.Values, cmd.AdminID)
}

// Logistics Commands

func (h *Handler) AddCommune(ctx context.Context, cmd AddCommune) (*logistics.Commune, error) {
	return h.svc.Logistics.AddCommune(ctx, cmd.Name)
}

func (h *Handler) AddZone(ctx context.Context, cmd AddZone) (*logistics.Zone, error) {
	return h.svc.Logistics.AddZone(ctx, cmd.CommuneID, cmd.Name)
}

func (h *Handler) AddSector(ctx context.Context, cmd AddSector) (*logistics.Sector, error) {
	return h.svc.Logistics.AddSector(ctx, cmd.ZoneID, cmd.Name)
}

func (h *Handler) RemoveCommune(ctx context.Context, communeID string) error {
	return h.svc.Logistics.RemoveCommune(ctx, communeID)
}

func (h *Handler) RemoveZone(ctx context.Context, zoneID string) error {
	return h.svc.Logistics.RemoveZone(ctx, zoneID)
}

func (h *Handler) RemoveSector(ctx context.Context, sectorID string) error {
	return h.svc.Logistics.RemoveSector(ctx, sectorID)
}

// Directory returns the delivery directory as last written.
func (h *Handler) Directory(ctx context.Context) (*logistics.Directory, error) {
	return h.svc.Logistics.Load(ctx)
}

// Settings returns the current store configuration.
func (h *Handler) Settings(ctx context.Context) (settings.Settings, error) {
	return h.svc.Settings.Get(ctx)
}

// EnsureAdmin registers the bootstrap administrator unless the client id is
// already taken.
func (h *Handler) EnsureAdmin(ctx context.Context, clientID, name, pin string) (*user.User, bool, error) {
	clientID = strings.TrimSpace(clientID)
	if _, found, err := h.userByClientID(clientID); err != nil || found {
		return nil, false, err
	}
	u, err := h.svc.Users.RegisterWithRole(ctx, clientID, name, pin, auth.RoleAdmin, "")
	if err != nil {
		return nil, false, err
	}
	h.log.Info("bootstrap admin created",
		zap.String("component", "Command"),
		zap.String("user_id", u.ID),
	)
	return u, true, nil
}
