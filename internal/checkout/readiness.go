package checkout

import (
	"errors"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
)

// Requirement names something confirmation is still waiting for.
type Requirement string

const (
	RequireItems         Requirement = "items"
	RequireAddress       Requirement = "address"
	RequireSlot          Requirement = "slot"
	RequireMethod        Requirement = "payment_method"
	RequireWalletTier    Requirement = "wallet_tier"
	RequireWalletBalance Requirement = "wallet_balance"
)

type Readiness struct {
	Ready   bool          `json:"ready"`
	Missing []Requirement `json:"missing"`
}

// Evaluate lists what stands between the session and confirmation.
func Evaluate(s *Session, lines cart.Lines, totals Totals, w Wallet) Readiness {
	missing := make([]Requirement, 0)
	if lines.Empty() {
		missing = append(missing, RequireItems)
	}
	if s.Address == nil || s.Address.Line == "" {
		missing = append(missing, RequireAddress)
	}
	if s.Slot == nil || s.Slot.Date == "" || s.Slot.Window == "" {
		missing = append(missing, RequireSlot)
	}
	switch {
	case !s.Method.Valid():
		missing = append(missing, RequireMethod)
	case s.Method == order.PaymentWallet:
		switch err := w.covers(totals.Total); {
		case errors.Is(err, ErrWalletNotEligible):
			missing = append(missing, RequireWalletTier)
		case errors.Is(err, ErrInsufficientBalance):
			missing = append(missing, RequireWalletBalance)
		}
	}
	return Readiness{Ready: len(missing) == 0, Missing: missing}
}
