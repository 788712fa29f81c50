package api

import (
	"net/http"

	"github.com/viepratiqueservice-arch/Visela/internal/api/middleware"
	"github.com/viepratiqueservice-arch/Visela/internal/auth"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handlers       *Handlers
	AuthHandlers   *AuthHandlers
	JWTService     *auth.JWTService
	Metrics        *metrics.Metrics
	Log            *zap.Logger
	AllowedOrigins []string
	// RateLimiter guards sign-in and checkout confirmation. Nil disables it.
	RateLimiter *middleware.RateLimiter
	// AdminGate routes the debug admin gate. It must stay off in production.
	AdminGate bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	h, a := cfg.Handlers, cfg.AuthHandlers

	authed := middleware.AuthMiddleware(cfg.JWTService)
	admin := middleware.RequireRole(auth.RoleAdmin)
	limited := func(next http.Handler) http.Handler {
		if cfg.RateLimiter == nil {
			return next
		}
		return cfg.RateLimiter.Limit(next)
	}

	public := func(pattern string, fn http.HandlerFunc) { mux.Handle(pattern, fn) }
	customer := func(pattern string, fn http.HandlerFunc) { mux.Handle(pattern, authed(fn)) }
	adminOnly := func(pattern string, fn http.HandlerFunc) { mux.Handle(pattern, authed(admin(fn))) }

	// Health and metrics
	public("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", cfg.Metrics.Handler())

	// Auth
	mux.Handle("POST /api/auth/register", limited(http.HandlerFunc(a.Register)))
	mux.Handle("POST /api/auth/login", limited(http.HandlerFunc(a.Login)))
	public("POST /api/auth/refresh", a.Refresh)
	public("POST /api/auth/logout", a.Logout)
	if cfg.AdminGate {
		mux.Handle("POST /api/debug/admin-gate", limited(http.HandlerFunc(a.AdminGate)))
	}

	// Public storefront data
	public("GET /api/settings/public", h.PublicSettings)
	public("GET /api/logistics/communes", h.ListCommunes)
	public("GET /api/logistics/zones", h.ListZones)
	public("GET /api/logistics/sectors", h.ListSectors)

	// Profile
	customer("GET /api/me", h.Me)
	customer("PUT /api/me", h.UpdateMe)
	customer("PUT /api/me/pin", h.ChangePIN)
	customer("GET /api/me/cercle", h.CercleStatus)
	customer("POST /api/me/addresses", h.AddAddress)
	customer("DELETE /api/me/addresses/{id}", h.RemoveAddress)

	// Catalog
	customer("GET /api/products", h.GetProducts)
	customer("GET /api/products/{id}", h.GetProduct)
	customer("GET /api/categories", h.ListCategories)

	// Cart
	customer("GET /api/cart", h.GetCart)
	customer("POST /api/cart/items", h.AddToCart)
	customer("PATCH /api/cart/items/{id}", h.UpdateCartItem)
	customer("DELETE /api/cart/items/{id}", h.RemoveFromCart)

	// Checkout
	customer("GET /api/checkout", h.GetCheckout)
	customer("PUT /api/checkout/address", h.SetCheckoutAddress)
	customer("PUT /api/checkout/slot", h.ChooseSlot)
	customer("PUT /api/checkout/payment", h.SelectPayment)
	customer("PUT /api/checkout/step", h.GoToStep)
	customer("GET /api/checkout/slots", h.ListSlots)
	mux.Handle("POST /api/checkout/confirm", authed(limited(http.HandlerFunc(h.ConfirmCheckout))))

	// Orders
	customer("GET /api/orders", h.GetOrders)
	customer("GET /api/orders/{id}", h.GetOrder)
	customer("GET /api/orders/{id}/slip", h.GetOrderSlip)

	// Wallet
	customer("POST /api/wallet/reloads", h.RequestReload)
	customer("GET /api/wallet/reloads", h.ListReloads)

	// Assistant
	customer("POST /api/assistant/recommend", h.Recommend)
	customer("POST /api/assistant/speak", h.Speak)

	// Admin catalog
	adminOnly("GET /api/admin/products", h.AdminListProducts)
	adminOnly("POST /api/admin/products", h.CreateProduct)
	adminOnly("PUT /api/admin/products/{id}", h.UpdateProduct)
	adminOnly("DELETE /api/admin/products/{id}", h.DeleteProduct)
	adminOnly("PUT /api/admin/products/{id}/stock", h.SetStock)
	adminOnly("GET /api/admin/categories", h.ListCategories)
	adminOnly("POST /api/admin/categories", h.CreateCategory)
	adminOnly("PUT /api/admin/categories/{id}", h.UpdateCategory)
	adminOnly("DELETE /api/admin/categories/{id}", h.DeleteCategory)

	// Admin logistics
	adminOnly("POST /api/admin/logistics/communes", h.AddCommune)
	adminOnly("DELETE /api/admin/logistics/communes/{id}", h.RemoveCommune)
	adminOnly("POST /api/admin/logistics/zones", h.AddZone)
	adminOnly("DELETE /api/admin/logistics/zones/{id}", h.RemoveZone)
	adminOnly("POST /api/admin/logistics/sectors", h.AddSector)
	adminOnly("DELETE /api/admin/logistics/sectors/{id}", h.RemoveSector)

	// Admin operations
	adminOnly("GET /api/admin/orders", h.AdminListOrders)
	adminOnly("POST /api/admin/orders/{id}/status", h.AdvanceOrder)
	adminOnly("GET /api/admin/reloads", h.AdminListReloads)
	adminOnly("POST /api/admin/reloads/{id}/approve", h.ApproveReload)
	adminOnly("POST /api/admin/reloads/{id}/reject", h.RejectReload)
	adminOnly("GET /api/admin/profiles", h.AdminListProfiles)
	adminOnly("GET /api/admin/settings", h.AdminGetSettings)
	adminOnly("PUT /api/admin/settings", h.AdminUpdateSettings)
	adminOnly("GET /api/admin/dashboard", h.AdminDashboard)

	var handler http.Handler = mux
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.CORS(cfg.AllowedOrigins)(handler)
	return middleware.Observe(cfg.Log, cfg.Metrics)(handler)
}
