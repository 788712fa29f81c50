package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/auth"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"go.uber.org/zap"
)

const (
	AggregateType = "User"

	// EmailDomain builds the contact address from the client id.
	EmailDomain = "visela.com"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidClientID     = errors.New("client id must be a phone number of 7 to 15 digits")
	ErrInvalidName         = errors.New("name is required")
	ErrInvalidCredentials  = errors.New("invalid client id or PIN")
	ErrClientIDTaken       = errors.New("client id is already registered")
	ErrInsufficientBalance = errors.New("wallet balance is insufficient")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAddressNotFound     = errors.New("address not found")
	ErrInvalidAddress      = errors.New("address details are required")
	ErrSelfReferral        = errors.New("a customer cannot refer themselves")
)

var clientIDRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

func isValidClientID(clientID string) bool {
	return clientIDRegex.MatchString(clientID)
}

// Address is a delivery address saved on a profile.
type Address struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Details string   `json:"details"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// User is a customer or admin profile with its wallet and loyalty standing.
type User struct {
	ID            string       `json:"id"`
	ClientID      string       `json:"client_id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	PINHash       string       `json:"pin_hash"`
	Role          string       `json:"role"`
	Tier          loyalty.Tier `json:"tier"`
	Points        int64        `json:"points"`
	WalletBalance int64        `json:"wallet_balance"`
	TotalSpent    int64        `json:"total_spent"`
	Addresses     []Address    `json:"addresses"`
	ReferredBy    string       `json:"referred_by,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	aggregate.Versioned
}

func (u *User) GetID() string { return u.ID }

// TierAt derives the tier against the threshold in force now.
func (u *User) TierAt(threshold int64) loyalty.Tier {
	return loyalty.Classify(u.TotalSpent, threshold)
}

func (u *User) Address(id string) (Address, bool) {
	for _, a := range u.Addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}

func (u *User) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventUserRegistered:
		var data UserRegistered
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.ID = data.UserID
		u.ClientID = data.ClientID
		u.Name = data.Name
		u.Email = data.Email
		u.PINHash = data.PINHash
		u.Role = data.Role
		u.ReferredBy = data.ReferredBy
		u.Tier = loyalty.Standard
		u.CreatedAt = data.CreatedAt
	case EventUserUpdated:
		var data UserUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.Name = data.Name
	case EventPINChanged:
		var data PINChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.PINHash = data.PINHash
	case EventSpendRecorded:
		var data SpendRecorded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.TotalSpent = data.TotalSpent
		u.Tier = loyalty.Tier(data.Tier)
		u.Points += data.PointsEarned
	case EventWalletCredited:
		var data WalletCredited
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.WalletBalance = data.Balance
	case EventWalletDebited:
		var data WalletDebited
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.WalletBalance = data.Balance
	case EventAddressAdded:
		var data AddressAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.Addresses = append(u.Addresses, data.Address)
	case EventAddressRemoved:
		var data AddressRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		kept := u.Addresses[:0]
		for _, a := range u.Addresses {
			if a.ID != data.AddressID {
				kept = append(kept, a)
			}
		}
		u.Addresses = kept
	case EventReferralBonusAwarded:
		var data ReferralBonusAwarded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.Points += data.Points
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
	log        *zap.Logger
}

func NewService(es store.EventStoreInterface, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{eventStore: es, log: log}
}

// Register creates a customer profile. Uniqueness of the client id is checked
// by the caller against the read side.
func (s *Service) Register(ctx context.Context, clientID, name, pin, referredBy string) (*User, error) {
	return s.RegisterWithRole(ctx, clientID, name, pin, auth.RoleCustomer, referredBy)
}

// RegisterWithRole creates a new user with a specific role
func (s *Service) RegisterWithRole(ctx context.Context, clientID, name, pin, role, referredBy string) (*User, error) {
	clientID = strings.TrimSpace(clientID)
	name = strings.TrimSpace(name)
	if !isValidClientID(clientID) {
		return nil, ErrInvalidClientID
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	pinHash, err := auth.HashPIN(pin)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	event := UserRegistered{
		UserID:     userID,
		ClientID:   clientID,
		Name:       name,
		Email:      fmt.Sprintf("%s@%s", strings.TrimPrefix(clientID, "+"), EmailDomain),
		PINHash:    pinHash,
		Role:       role,
		ReferredBy: referredBy,
		CreatedAt:  time.Now(),
	}

	stored, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserRegistered, event)
	if err != nil {
		return nil, err
	}

	u := &User{ID: userID}
	if err := aggregate.Apply(u, *stored); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	u, found, err := aggregate.LoadAggregate(ctx, s.eventStore, userID, func() *User {
		return &User{ID: userID}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Authenticate checks a PIN against a profile loaded by the caller.
func Authenticate(u *User, pin string) error {
	if u == nil || !auth.CheckPIN(pin, u.PINHash) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) RecordLogin(ctx context.Context, userID, ipAddress, userAgent string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.record(ctx, u, EventUserLoggedIn, UserLoggedIn{
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	})
}

func (s *Service) UpdateProfile(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.record(ctx, u, EventUserUpdated, UserUpdated{
		UserID:    userID,
		Name:      name,
		UpdatedAt: time.Now(),
	})
}

func (s *Service) ChangePIN(ctx context.Context, userID, newPIN string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	pinHash, err := auth.HashPIN(newPIN)
	if err != nil {
		return err
	}
	return s.record(ctx, u, EventPINChanged, PINChanged{
		UserID:    userID,
		PINHash:   pinHash,
		ChangedAt: time.Now(),
	})
}

func (s *Service) AddAddress(ctx context.Context, userID, label, details string, lat, lng *float64) (*Address, error) {
	details = strings.TrimSpace(details)
	if details == "" {
		return nil, ErrInvalidAddress
	}
	if (lat == nil) != (lng == nil) {
		return nil, ErrInvalidAddress
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	addr := Address{
		ID:      uuid.New().String(),
		Label:   strings.TrimSpace(label),
		Details: details,
		Lat:     lat,
		Lng:     lng,
	}
	if err := s.record(ctx, u, EventAddressAdded, AddressAdded{
		UserID:  userID,
		Address: addr,
		AddedAt: time.Now(),
	}); err != nil {
		return nil, err
	}
	return &addr, nil
}

func (s *Service) RemoveAddress(ctx context.Context, userID, addressID string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := u.Address(addressID); !ok {
		return ErrAddressNotFound
	}
	return s.record(ctx, u, EventAddressRemoved, AddressRemoved{
		UserID:    userID,
		AddressID: addressID,
		RemovedAt: time.Now(),
	})
}

// AwardReferralBonus credits points to the customer who referred newUserID.
func (s *Service) AwardReferralBonus(ctx context.Context, referrerID, newUserID string, points int64) error {
	if referrerID == newUserID {
		return ErrSelfReferral
	}
	if points <= 0 {
		return nil
	}
	u, err := s.Get(ctx, referrerID)
	if err != nil {
		return err
	}
	return s.record(ctx, u, EventReferralBonusAwarded, ReferralBonusAwarded{
		UserID:         referrerID,
		ReferredUserID: newUserID,
		Points:         points,
		AwardedAt:      time.Now(),
	})
}

// SpendEvent records an order total against u and re-derives the tier with
// the current threshold.
func SpendEvent(u *User, orderID string, amount, threshold, pointRatio int64) store.PendingEvent {
	total := u.TotalSpent + amount
	return store.PendingEvent{
		AggregateID:   u.ID,
		AggregateType: AggregateType,
		EventType:     EventSpendRecorded,
		Data: SpendRecorded{
			UserID:       u.ID,
			OrderID:      orderID,
			Amount:       amount,
			TotalSpent:   total,
			Threshold:    threshold,
			Tier:         string(loyalty.Classify(total, threshold)),
			PointsEarned: loyalty.PointsEarned(amount, pointRatio),
			RecordedAt:   time.Now(),
		},
	}
}

// DebitEvent takes amount from the wallet. It refuses to overdraw.
func DebitEvent(u *User, orderID string, amount int64) (store.PendingEvent, error) {
	if amount <= 0 {
		return store.PendingEvent{}, ErrInvalidAmount
	}
	if u.WalletBalance < amount {
		return store.PendingEvent{}, ErrInsufficientBalance
	}
	return store.PendingEvent{
		AggregateID:   u.ID,
		AggregateType: AggregateType,
		EventType:     EventWalletDebited,
		Data: WalletDebited{
			UserID:    u.ID,
			OrderID:   orderID,
			Amount:    amount,
			Balance:   u.WalletBalance - amount,
			DebitedAt: time.Now(),
		},
	}, nil
}

// CreditEvent adds an approved reload to the wallet.
func CreditEvent(u *User, reloadID string, amount int64) (store.PendingEvent, error) {
	if amount <= 0 {
		return store.PendingEvent{}, ErrInvalidAmount
	}
	return store.PendingEvent{
		AggregateID:   u.ID,
		AggregateType: AggregateType,
		EventType:     EventWalletCredited,
		Data: WalletCredited{
			UserID:     u.ID,
			ReloadID:   reloadID,
			Amount:     amount,
			Balance:    u.WalletBalance + amount,
			CreditedAt: time.Now(),
		},
	}, nil
}

func (s *Service) record(ctx context.Context, u *User, eventType string, data any) error {
	stored, err := s.eventStore.Append(ctx, u.ID, AggregateType, eventType, data)
	if err != nil {
		return err
	}
	if err := aggregate.Apply(u, *stored); err != nil {
		return err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, u, AggregateType); err != nil {
		s.log.Warn("failed to create snapshot",
			zap.String("component", "User"),
			zap.String("user_id", u.ID),
			zap.Error(err),
		)
	}
	return nil
}
