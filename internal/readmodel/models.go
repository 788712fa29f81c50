package readmodel

import "time"

// Collection names used in the read store.
const (
	Products   = "products"
	Categories = "categories"
	Orders     = "orders"
	Users      = "users"
	Reloads    = "reloads"
	Sessions   = "sessions"
)

// New returns an empty read model for a collection, or nil if the collection
// is unknown. Persistent read stores use it to decode stored documents.
func New(collection string) any {
	switch collection {
	case Products:
		return &ProductReadModel{}
	case Categories:
		return &CategoryReadModel{}
	case Orders:
		return &OrderReadModel{}
	case Users:
		return &UserReadModel{}
	case Reloads:
		return &ReloadReadModel{}
	case Sessions:
		return &SessionReadModel{}
	}
	return nil
}

// ProductReadModel is a catalog entry with its current stock folded in.
type ProductReadModel struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Unit         string    `json:"unit"`
	UnitQuantity int       `json:"unit_quantity"`
	Image        string    `json:"image,omitempty"`
	Rating       float64   `json:"rating"`
	Category     string    `json:"category"`
	CercleOnly   bool      `json:"cercle_only"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CategoryReadModel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItemReadModel struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type OrderReadModel struct {
	ID               string               `json:"id"`
	UserID           string               `json:"user_id"`
	CustomerName     string               `json:"customer_name"`
	CustomerClientID string               `json:"customer_client_id"`
	Items            []OrderItemReadModel `json:"items"`
	Subtotal         int64                `json:"subtotal"`
	DeliveryFee      int64                `json:"delivery_fee"`
	Total            int64                `json:"total"`
	DeliveryAddress  string               `json:"delivery_address"`
	DeliverySlot     string               `json:"delivery_slot"`
	PaymentMethod    string               `json:"payment_method"`
	Status           string               `json:"status"`
	NeedsReview      bool                 `json:"needs_review"`
	ReviewReason     string               `json:"review_reason,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type AddressReadModel struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Details string   `json:"details"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// UserReadModel is a customer or admin profile. PINHash is stored so sign-in
// can be checked against the read side; API responses must not echo it.
type UserReadModel struct {
	ID            string             `json:"id"`
	ClientID      string             `json:"client_id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	PINHash       string             `json:"pin_hash"`
	Role          string             `json:"role"`
	Tier          string             `json:"tier"`
	Points        int64              `json:"points"`
	WalletBalance int64              `json:"wallet_balance"`
	TotalSpent    int64              `json:"total_spent"`
	Addresses     []AddressReadModel `json:"addresses"`
	ReferredBy    string             `json:"referred_by,omitempty"`
	LastLoginAt   *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type ReloadReadModel struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	UserName  string     `json:"user_name"`
	Amount    int64      `json:"amount"`
	Status    string     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	DecidedBy string     `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SessionReadModel is a signed-in device. Only the hash of its refresh token
// is kept.
type SessionReadModel struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
}
