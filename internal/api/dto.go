package api

import (
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/product"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
)

// Auth

type RegisterRequest struct {
	ClientID         string `json:"client_id" validate:"required,min=7,max=16"`
	Name             string `json:"name" validate:"required,max=80"`
	PIN              string `json:"pin" validate:"required,len=4,numeric"`
	ReferrerClientID string `json:"referrer_client_id,omitempty" validate:"omitempty,min=7,max=16"`
}

type LoginRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	PIN      string `json:"pin" validate:"required,len=4,numeric"`
}

type GateRequest struct {
	PIN string `json:"pin" validate:"required,len=4,numeric"`
}

// Profile

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type ChangePINRequest struct {
	CurrentPIN string `json:"current_pin" validate:"required,len=4,numeric"`
	NewPIN     string `json:"new_pin" validate:"required,len=4,numeric"`
}

type AddressRequest struct {
	Label   string   `json:"label" validate:"required,max=40"`
	Details string   `json:"details" validate:"required,max=200"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng     *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
}

// Cart and checkout

type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type CartQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type CheckoutAddressRequest struct {
	Kind      string   `json:"kind" validate:"required,oneof=saved hierarchy gps"`
	AddressID string   `json:"address_id,omitempty" validate:"required_if=Kind saved"`
	CommuneID string   `json:"commune_id,omitempty"`
	ZoneID    string   `json:"zone_id,omitempty"`
	SectorID  string   `json:"sector_id,omitempty"`
	Lat       *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng       *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
	Details   string   `json:"details,omitempty" validate:"max=200"`
}

type SlotRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Window string `json:"window" validate:"required"`
}

type PaymentRequest struct {
	Method string `json:"method" validate:"required"`
}

type StepRequest struct {
	Step string `json:"step" validate:"required"`
}

// Wallet

type ReloadRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type RejectReloadRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

// Assistant

type RecommendRequest struct {
	Mood string `json:"mood" validate:"required,max=100"`
}

type SpeakRequest struct {
	Category string `json:"category" validate:"required,max=60"`
}

// Admin

type ProductRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Description  string  `json:"description" validate:"max=1000"`
	Price        int64   `json:"price" validate:"gt=0"`
	Unit         string  `json:"unit" validate:"required,max=20"`
	UnitQuantity int     `json:"unit_quantity" validate:"gte=0"`
	Image        string  `json:"image,omitempty" validate:"omitempty,url"`
	Rating       float64 `json:"rating" validate:"gte=0,lte=5"`
	Category     string  `json:"category" validate:"required"`
	CercleOnly   bool    `json:"cercle_only"`
	Stock        int     `json:"stock,omitempty" validate:"gte=0"`
}

func (p ProductRequest) details() product.Details {
	return product.Details{
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Unit:         p.Unit,
		UnitQuantity: p.UnitQuantity,
		Image:        p.Image,
		Rating:       p.Rating,
		Category:     p.Category,
		CercleOnly:   p.CercleOnly,
	}
}

type StockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

type CategoryRequest struct {
	Name  string `json:"name" validate:"required,max=60"`
	Icon  string `json:"icon" validate:"max=40"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type CommuneRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type ZoneRequest struct {
	CommuneID string `json:"commune_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=80"`
}

type SectorRequest struct {
	ZoneID string `json:"zone_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=80"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type SettingsRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1"`
}

// Responses

// ProfileResponse is a profile without its PIN hash.
type ProfileResponse struct {
	ID            string                       `json:"id"`
	ClientID      string                       `json:"client_id"`
	Name          string                       `json:"name"`
	Email         string                       `json:"email"`
	Role          string                       `json:"role"`
	Tier          string                       `json:"tier"`
	Points        int64                        `json:"points"`
	WalletBalance int64                        `json:"wallet_balance"`
	TotalSpent    int64                        `json:"total_spent"`
	Addresses     []readmodel.AddressReadModel `json:"addresses"`
	LastLoginAt   *time.Time                   `json:"last_login_at,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
}

func toProfile(u *readmodel.UserReadModel) ProfileResponse {
	addresses := u.Addresses
	if addresses == nil {
		addresses = []readmodel.AddressReadModel{}
	}
	return ProfileResponse{
		ID:            u.ID,
		ClientID:      u.ClientID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Tier:          u.Tier,
		Points:        u.Points,
		WalletBalance: u.WalletBalance,
		TotalSpent:    u.TotalSpent,
		Addresses:     addresses,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

type SessionUser struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type AuthResponse struct {
	User    SessionUser `json:"user"`
	Message string      `json:"message,omitempty"`
}
