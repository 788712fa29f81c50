// Package loyalty decides the Cercle membership tier from cumulative spend and
// the privileges attached to it.
package loyalty

import "fmt"

type Tier string

const (
	Standard Tier = "Standard"
	Cercle   Tier = "Cercle"
)

// ParseTier accepts the persisted tier names.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case Standard, Cercle:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

func (t Tier) rank() int {
	if t == Cercle {
		return 1
	}
	return 0
}

// Less orders tiers Standard < Cercle.
func (t Tier) Less(other Tier) bool {
	return t.rank() < other.rank()
}

// Classify returns Cercle once totalSpent reaches threshold.
func Classify(totalSpent, threshold int64) Tier {
	if totalSpent >= threshold {
		return Cercle
	}
	return Standard
}

// CanPurchase reports whether a tier may put a product in its cart.
func CanPurchase(tier Tier, cercleOnly bool) bool {
	return !cercleOnly || tier == Cercle
}

// WalletEligible reports whether a tier may pay with the wallet.
func WalletEligible(tier Tier) bool {
	return tier == Cercle
}

// DeliveryFee is free for Cercle members and flatFee otherwise.
func DeliveryFee(tier Tier, flatFee int64) int64 {
	if tier == Cercle {
		return 0
	}
	return flatFee
}

// Progress is the percentage of the way to Cercle, capped at 100.
func Progress(totalSpent, threshold int64) int {
	if threshold <= 0 || totalSpent >= threshold {
		return 100
	}
	if totalSpent <= 0 {
		return 0
	}
	return int(totalSpent * 100 / threshold)
}

// Remaining is how much more must be spent to reach Cercle.
func Remaining(totalSpent, threshold int64) int64 {
	if totalSpent >= threshold {
		return 0
	}
	return threshold - totalSpent
}

// PointsEarned converts an order total into loyalty points, one point per
// ratio units spent.
func PointsEarned(total, ratio int64) int64 {
	if ratio <= 0 || total <= 0 {
		return 0
	}
	return total / ratio
}
