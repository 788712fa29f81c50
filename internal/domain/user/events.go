package user

import "time"

const (
	EventUserRegistered       = "UserRegistered"
	EventUserUpdated          = "UserUpdated"
	EventPINChanged           = "UserPINChanged"
	EventUserLoggedIn         = "UserLoggedIn"
	EventSpendRecorded        = "SpendRecorded"
	EventWalletCredited       = "WalletCredited"
	EventWalletDebited        = "WalletDebited"
	EventAddressAdded         = "AddressAdded"
	EventAddressRemoved       = "AddressRemoved"
	EventReferralBonusAwarded = "ReferralBonusAwarded"
)

type UserRegistered struct {
	UserID     string    `json:"user_id"`
	ClientID   string    `json:"client_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	PINHash    string    `json:"pin_hash"`
	Role       string    `json:"role"`
	ReferredBy string    `json:"referred_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type UserUpdated struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PINChanged struct {
	UserID    string    `json:"user_id"`
	PINHash   string    `json:"pin_hash"`
	ChangedAt time.Time `json:"changed_at"`
}

type UserLoggedIn struct {
	UserID    string    `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	LoggedAt  time.Time `json:"logged_at"`
}

// SpendRecorded adds an order total to cumulative spend. TotalSpent and Tier
// are the values after the order, with Tier derived against Threshold.
type SpendRecorded struct {
	UserID       string    `json:"user_id"`
	OrderID      string    `json:"order_id"`
	Amount       int64     `json:"amount"`
	TotalSpent   int64     `json:"total_spent"`
	Threshold    int64     `json:"threshold"`
	Tier         string    `json:"tier"`
	PointsEarned int64     `json:"points_earned"`
	RecordedAt   time.Time `json:"recorded_at"`
}

type WalletCredited struct {
	UserID     string    `json:"user_id"`
	ReloadID   string    `json:"reload_id"`
	Amount     int64     `json:"amount"`
	Balance    int64     `json:"balance"`
	CreditedAt time.Time `json:"credited_at"`
}

type WalletDebited struct {
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	DebitedAt time.Time `json:"debited_at"`
}

type AddressAdded struct {
	UserID  string    `json:"user_id"`
	Address Address   `json:"address"`
	AddedAt time.Time `json:"added_at"`
}

type AddressRemoved struct {
	UserID    string    `json:"user_id"`
	AddressID string    `json:"address_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type ReferralBonusAwarded struct {
	UserID         string    `json:"user_id"`
	ReferredUserID string    `json:"referred_user_id"`
	Points         int64     `json:"points"`
	AwardedAt      time.Time `json:"awarded_at"`
}
