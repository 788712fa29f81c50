package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/api/middleware"
	"github.com/viepratiqueservice-arch/Visela/internal/assistant"
	"github.com/viepratiqueservice-arch/Visela/internal/auth"
	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/command"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/email"
	"github.com/viepratiqueservice-arch/Visela/internal/query"
	"github.com/viepratiqueservice-arch/Visela/internal/receipt"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	assistant    *assistant.Assistant
	now          func() time.Time
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, a *assistant.Assistant) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		assistant:    a,
		now:          time.Now,
	}
}

// Public

func (h *Handlers) PublicSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.cmdHandler.Settings(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (h *Handlers) ListCommunes(w http.ResponseWriter, r *http.Request) {
	dir, err := h.cmdHandler.Directory(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dir.ListCommunes())
}

func (h *Handlers) ListZones(w http.ResponseWriter, r *http.Request) {
	communeID := r.URL.Query().Get("commune")
	if communeID == "" {
		respondJSONError(w, "commune is required", http.StatusBadRequest)
		return
	}
	dir, err := h.cmdHandler.Directory(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dir.ZonesFor(communeID))
}

func (h *Handlers) ListSectors(w http.ResponseWriter, r *http.Request) {
	zoneID := r.URL.Query().Get("zone")
	if zoneID == "" {
		respondJSONError(w, "zone is required", http.StatusBadRequest)
		return
	}
	dir, err := h.cmdHandler.Directory(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dir.SectorsFor(zoneID))
}

// Profile

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.queryHandler.GetProfile(middleware.GetUserID(r.Context()))
	if !ok {
		respondJSONError(w, "Profile not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toProfile(profile))
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	cmd := command.UpdateProfile{UserID: middleware.GetUserID(r.Context()), Name: req.Name}
	if err := h.cmdHandler.UpdateProfile(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

func (h *Handlers) ChangePIN(w http.ResponseWriter, r *http.Request) {
	var req ChangePINRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	cmd := command.ChangePIN{
		UserID:     middleware.GetUserID(r.Context()),
		CurrentPIN: req.CurrentPIN,
		NewPIN:     req.NewPIN,
	}
	if err := h.cmdHandler.ChangePIN(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "PIN changed"})
}

func (h *Handlers) CercleStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.cmdHandler.Settings(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	status, ok := h.queryHandler.GetCercleStatus(middleware.GetUserID(r.Context()), cfg.CercleThreshold)
	if !ok {
		respondJSONError(w, "Profile not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handlers) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req AddressRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	address, err := h.cmdHandler.AddAddress(r.Context(), command.AddAddress{
		UserID:  middleware.GetUserID(r.Context()),
		Label:   req.Label,
		Details: req.Details,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, address)
}

func (h *Handlers) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveAddress{UserID: middleware.GetUserID(r.Context()), AddressID: r.PathValue("id")}
	if err := h.cmdHandler.RemoveAddress(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Catalog

// viewerTier is the tier the market is shown at. Administrators see every product.
func (h *Handlers) viewerTier(r *http.Request) (loyalty.Tier, error) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	if claims != nil && claims.Role == auth.RoleAdmin {
		return loyalty.Cercle, nil
	}
	cfg, err := h.cmdHandler.Settings(r.Context())
	if err != nil {
		return "", err
	}
	return h.queryHandler.TierOf(middleware.GetUserID(r.Context()), cfg.CercleThreshold), nil
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	tier, err := h.viewerTier(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.Market(tier, r.URL.Query().Get("category")))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	tier, err := h.viewerTier(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, ok := h.queryHandler.GetProduct(r.PathValue("id"))
	if !ok || (p.CercleOnly && tier != loyalty.Cercle) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListCategories())
}

// Cart

type cartResponse struct {
	Lines  cart.Lines      `json:"lines"`
	Totals checkout.Totals `json:"totals"`
	Tier   loyalty.Tier    `json:"tier"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cmdHandler.Summary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Lines: summary.Lines, Totals: summary.Totals, Tier: summary.Tier})
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.cmdHandler.AddToCart(r.Context(), command.AddToCart{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: req.ProductID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req CartQuantityRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.cmdHandler.UpdateCartQuantity(r.Context(), command.UpdateCartQuantity{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: r.PathValue("id"),
		Delta:     req.Delta,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cmdHandler.RemoveFromCart(r.Context(), command.RemoveFromCart{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: r.PathValue("id"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Checkout

func (h *Handlers) GetCheckout(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cmdHandler.Summary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handlers) SetCheckoutAddress(w http.ResponseWriter, r *http.Request) {
	var req CheckoutAddressRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.cmdHandler.SetCheckoutAddress(r.Context(), command.SetCheckoutAddress{
		UserID:    middleware.GetUserID(r.Context()),
		Kind:      checkout.AddressKind(req.Kind),
		AddressID: req.AddressID,
		CommuneID: req.CommuneID,
		ZoneID:    req.ZoneID,
		SectorID:  req.SectorID,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Details:   req.Details,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *Handlers) ChooseSlot(w http.ResponseWriter, r *http.Request) {
	var req SlotRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.cmdHandler.ChooseSlot(r.Context(), command.ChooseSlot{
		UserID: middleware.GetUserID(r.Context()),
		Date:   req.Date,
		Window: req.Window,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *Handlers) SelectPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.cmdHandler.SelectPayment(r.Context(), command.SelectPayment{
		UserID: middleware.GetUserID(r.Context()),
		Method: req.Method,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *Handlers) GoToStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.cmdHandler.GoToStep(r.Context(), command.GoToStep{
		UserID: middleware.GetUserID(r.Context()),
		Step:   checkout.Step(req.Step),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *Handlers) ListSlots(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, checkout.AvailableSlots(h.now()))
}

func (h *Handlers) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	o, err := h.cmdHandler.Checkout(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

// Orders

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrdersByUser(middleware.GetUserID(r.Context())))
}

// ownOrder loads an order the caller may see. Other customers' orders read as
// missing.
func (h *Handlers) ownOrder(r *http.Request) (*query.OrderReadModel, bool) {
	o, ok := h.queryHandler.GetOrder(r.PathValue("id"))
	if !ok {
		return nil, false
	}
	claims, _ := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		return nil, false
	}
	if o.UserID != claims.UserID && claims.Role != auth.RoleAdmin {
		return nil, false
	}
	return o, true
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownOrder(r)
	if !ok {
		respondError(w, r, order.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) GetOrderSlip(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownOrder(r)
	if !ok {
		respondError(w, r, order.ErrOrderNotFound)
		return
	}
	cfg, err := h.cmdHandler.Settings(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	pdf, err := receipt.DeliverySlip(o, cfg.CurrencySymbol)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+email.ShortID(o.ID)+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// Wallet

func (h *Handlers) RequestReload(w http.ResponseWriter, r *http.Request) {
	var req ReloadRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	rl, err := h.cmdHandler.RequestReload(r.Context(), command.RequestReload{
		UserID: middleware.GetUserID(r.Context()),
		Amount: req.Amount,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rl)
}

func (h *Handlers) ListReloads(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListReloadsByUser(middleware.GetUserID(r.Context())))
}

// Assistant

func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"products": h.assistant.Recommend(r.Context(), req.Mood)})
}

func (h *Handlers) Speak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": h.assistant.Speak(r.Context(), strings.TrimSpace(req.Category))})
}
