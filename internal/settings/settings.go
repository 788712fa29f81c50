// Package settings holds the store-wide configuration an administrator can
// change at runtime. Each change is stored as a SettingChanged event on one
// aggregate, and unset keys fall back to their defaults.
package settings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	KeyStoreOpen          = "store_open"
	KeyDeliveryFee        = "delivery_fee"
	KeyCercleThreshold    = "cercle_threshold"
	KeyAnnouncement       = "announcement"
	KeyPreparationMinutes = "preparation_minutes"
	KeyCurrencySymbol     = "currency_symbol"
	KeyLoyaltyPointRatio  = "loyalty_point_ratio"
	KeyReferralBonus      = "referral_bonus"
	KeyMinOrderAmount     = "min_order_amount"
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Settings is the typed view of the configuration store.
type Settings struct {
	StoreOpen          bool   `json:"store_open"`
	DeliveryFee        int64  `json:"delivery_fee"`
	CercleThreshold    int64  `json:"cercle_threshold"`
	Announcement       string `json:"announcement"`
	PreparationMinutes int    `json:"preparation_minutes"`
	CurrencySymbol     string `json:"currency_symbol"`
	LoyaltyPointRatio  int64  `json:"loyalty_point_ratio"`
	ReferralBonus      int64  `json:"referral_bonus"`
	MinOrderAmount     int64  `json:"min_order_amount"`
}

func Defaults() Settings {
	return Settings{
		StoreOpen:          true,
		DeliveryFee:        800,
		CercleThreshold:    350000,
		Announcement:       "",
		PreparationMinutes: 30,
		CurrencySymbol:     "F",
		LoyaltyPointRatio:  1000,
		ReferralBonus:      50,
		MinOrderAmount:     0,
	}
}

type field struct {
	parse  func(s *Settings, raw string) error
	format func(s Settings) string
}

var fields = map[string]field{
	KeyStoreOpen: {
		parse: func(s *Settings, raw string) error {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return err
			}
			s.StoreOpen = v
			return nil
		},
		format: func(s Settings) string { return strconv.FormatBool(s.StoreOpen) },
	},
	KeyDeliveryFee: {
		parse:  int64Parser(0, func(s *Settings, v int64) { s.DeliveryFee = v }),
		format: func(s Settings) string { return strconv.FormatInt(s.DeliveryFee, 10) },
	},
	KeyCercleThreshold: {
		parse:  int64Parser(1, func(s *Settings, v int64) { s.CercleThreshold = v }),
		format: func(s Settings) string { return strconv.FormatInt(s.CercleThreshold, 10) },
	},
	KeyAnnouncement: {
		parse: func(s *Settings, raw string) error {
			s.Announcement = raw
			return nil
		},
		format: func(s Settings) string { return s.Announcement },
	},
	KeyPreparationMinutes: {
		parse:  int64Parser(0, func(s *Settings, v int64) { s.PreparationMinutes = int(v) }),
		format: func(s Settings) string { return strconv.Itoa(s.PreparationMinutes) },
	},
	KeyCurrencySymbol: {
		parse: func(s *Settings, raw string) error {
			if raw == "" {
				return errors.New("currency symbol cannot be empty")
			}
			s.CurrencySymbol = raw
			return nil
		},
		format: func(s Settings) string { return s.CurrencySymbol },
	},
	KeyLoyaltyPointRatio: {
		parse:  int64Parser(1, func(s *Settings, v int64) { s.LoyaltyPointRatio = v }),
		format: func(s Settings) string { return strconv.FormatInt(s.LoyaltyPointRatio, 10) },
	},
	KeyReferralBonus: {
		parse:  int64Parser(0, func(s *Settings, v int64) { s.ReferralBonus = v }),
		format: func(s Settings) string { return strconv.FormatInt(s.ReferralBonus, 10) },
	},
	KeyMinOrderAmount: {
		parse:  int64Parser(0, func(s *Settings, v int64) { s.MinOrderAmount = v }),
		format: func(s Settings) string { return strconv.FormatInt(s.MinOrderAmount, 10) },
	},
}

func int64Parser(floor int64, set func(*Settings, int64)) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		if v < floor {
			return fmt.Errorf("must be at least %d", floor)
		}
		set(s, v)
		return nil
	}
}

// Keys returns every known key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of s with key set to the parsed value.
func (s Settings) With(key, value string) (Settings, error) {
	f, ok := fields[key]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	value = strings.TrimSpace(value)
	if err := f.parse(&s, value); err != nil {
		return s, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, value, err)
	}
	return s, nil
}

// Values returns the full key to value snapshot.
func (s Settings) Values() map[string]string {
	out := make(map[string]string, len(fields))
	for k, f := range fields {
		out[k] = f.format(s)
	}
	return out
}
