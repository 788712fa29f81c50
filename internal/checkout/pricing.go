package checkout

import (
	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/settings"
)

// Totals is the priced cart.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"delivery_fee"`
	Total       int64 `json:"total"`
}

// Quote prices a cart for a customer tier. Delivery is free for Cercle
// members and for an empty cart.
func Quote(lines cart.Lines, tier loyalty.Tier, cfg settings.Settings) Totals {
	subtotal := lines.Subtotal()
	fee := int64(0)
	if !lines.Empty() {
		fee = loyalty.DeliveryFee(tier, cfg.DeliveryFee)
	}
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal + fee,
	}
}
