package command

import (
	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/product"
)

// Profile Commands
type Register struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	PIN      string `json:"pin"`
	// ReferrerClientID is the client id of the customer who invited this one.
	ReferrerClientID string `json:"referrer_client_id,omitempty"`
}

type Login struct {
	ClientID  string `json:"client_id"`
	PIN       string `json:"pin"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type UpdateProfile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type ChangePIN struct {
	UserID     string `json:"user_id"`
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

type AddAddress struct {
	UserID  string   `json:"user_id"`
	Label   string   `json:"label"`
	Details string   `json:"details"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

type RemoveAddress struct {
	UserID    string `json:"user_id"`
	AddressID string `json:"address_id"`
}

// Catalog Commands
type CreateProduct struct {
	product.Details
	Stock int `json:"stock"`
}

type UpdateProduct struct {
	ProductID string `json:"product_id"`
	product.Details
}

type DeleteProduct struct {
	ProductID string `json:"product_id"`
}

type SetStock struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	AdminID   string `json:"admin_id"`
}

type CreateCategory struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type UpdateCategory struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
}

type DeleteCategory struct {
	CategoryID string `json:"category_id"`
}

// Cart Commands
type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type UpdateCartQuantity struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

type RemoveFromCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}

// Checkout Commands

// SetCheckoutAddress picks the delivery address. Kind selects which of the
// other fields are read.
type SetCheckoutAddress struct {
	UserID    string               `json:"user_id"`
	Kind      checkout.AddressKind `json:"kind"`
	AddressID string               `json:"address_id,omitempty"`
	CommuneID string               `json:"commune_id,omitempty"`
	ZoneID    string               `json:"zone_id,omitempty"`
	SectorID  string               `json:"sector_id,omitempty"`
	Lat       *float64             `json:"lat,omitempty"`
	Lng       *float64             `json:"lng,omitempty"`
	Details   string               `json:"details,omitempty"`
}

type ChooseSlot struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Window string `json:"window"`
}

type SelectPayment struct {
	UserID string `json:"user_id"`
	Method string `json:"method"`
}

type GoToStep struct {
	UserID string        `json:"user_id"`
	Step   checkout.Step `json:"step"`
}

// Order Commands
type AdvanceOrder struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	AdminID string `json:"admin_id"`
}

// Wallet Commands
type RequestReload struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type ApproveReload struct {
	ReloadID string `json:"reload_id"`
	AdminID  string `json:"admin_id"`
}

type RejectReload struct {
	ReloadID string `json:"reload_id"`
	AdminID  string `json:"admin_id"`
	Reason   string `json:"reason"`
}

// Settings Commands
type UpdateSettings struct {
	Values  map[string]string `json:"values"`
	AdminID string            `json:"admin_id"`
}

// Logistics Commands
type AddCommune struct {
	Name string `json:"name"`
}

type AddZone struct {
	CommuneID string `json:"commune_id"`
	Name      string `json:"name"`
}

type AddSector struct {
	ZoneID string `json:"zone_id"`
	Name   string `json:"name"`
}
