// Package checkout holds the checkout wizard: the per-customer session, the
// delivery slots, pricing and the readiness rules that gate confirmation.
// Everything here is pure; the command layer persists and confirms.
package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/logistics"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
)

type Step string

const (
	StepItems     Step = "items"
	StepAddress   Step = "address"
	StepSchedule  Step = "schedule"
	StepPayment   Step = "payment"
	StepConfirmed Step = "confirmed"
)

var editableSteps = map[Step]bool{
	StepItems:    true,
	StepAddress:  true,
	StepSchedule: true,
	StepPayment:  true,
}

var (
	ErrInvalidStep         = errors.New("invalid checkout step")
	ErrInvalidSlot         = errors.New("delivery slot is not available")
	ErrWalletNotEligible   = errors.New("wallet payment is reserved to Cercle members")
	ErrInsufficientBalance = errors.New("wallet balance is too low for this order")
	ErrNotReady            = errors.New("checkout is not ready for confirmation")
)

type AddressKind string

const (
	AddressSaved     AddressKind = "saved"
	AddressHierarchy AddressKind = "hierarchy"
	AddressGPS       AddressKind = "gps"
)

// DeliveryAddress is the one address form in use. Line is what goes on the order.
type DeliveryAddress struct {
	Kind      AddressKind          `json:"kind"`
	SavedID   string               `json:"saved_id,omitempty"`
	Selection *logistics.Selection `json:"selection,omitempty"`
	Line      string               `json:"line"`
}

// Session is a customer's progress through checkout.
type Session struct {
	UserID    string              `json:"user_id"`
	Step      Step                `json:"step"`
	Address   *DeliveryAddress    `json:"address,omitempty"`
	Slot      *Slot               `json:"slot,omitempty"`
	Method    order.PaymentMethod `json:"method,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func NewSession(userID string) *Session {
	return &Session{UserID: userID, Step: StepItems, UpdatedAt: time.Now()}
}

// GoTo moves to any editable step. Earlier choices are kept.
func (s *Session) GoTo(step Step) error {
	if !editableSteps[step] {
		return fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}
	s.Step = step
	s.touch()
	return nil
}

// UseSavedAddress delivers to one of the customer's saved addresses.
func (s *Session) UseSavedAddress(u *user.User, addressID string) error {
	a, ok := u.Address(addressID)
	if !ok {
		return user.ErrAddressNotFound
	}
	line := strings.TrimSpace(a.Details)
	if line == "" {
		line = a.Label
	}
	s.setAddress(&DeliveryAddress{Kind: AddressSaved, SavedID: a.ID, Line: line})
	return nil
}

// UseHierarchy delivers to a resolved commune, zone and sector.
func (s *Session) UseHierarchy(dir *logistics.Directory, sel logistics.Selection) error {
	if sel.GPS != nil {
		return logistics.ErrIncompleteAddress
	}
	line, err := dir.Resolve(sel)
	if err != nil {
		return err
	}
	s.setAddress(&DeliveryAddress{Kind: AddressHierarchy, Selection: &sel, Line: line})
	return nil
}

// UseGPS delivers to a GPS fix.
func (s *Session) UseGPS(lat, lng float64, details string) error {
	sel, err := logistics.Selection{}.UseGPS(lat, lng)
	if err != nil {
		return err
	}
	sel = sel.WithDetails(details)
	line, err := (&logistics.Directory{}).Resolve(sel)
	if err != nil {
		return err
	}
	s.setAddress(&DeliveryAddress{Kind: AddressGPS, Selection: &sel, Line: line})
	return nil
}

func (s *Session) setAddress(a *DeliveryAddress) {
	s.Address = a
	s.Step = StepSchedule
	s.touch()
}

// ChooseSlot books one of the slots available at now.
func (s *Session) ChooseSlot(now time.Time, date, window string) error {
	slot, ok := FindSlot(now, date, window)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrInvalidSlot, date, window)
	}
	s.Slot = &slot
	s.Step = StepPayment
	s.touch()
	return nil
}

// SelectPayment sets the payment method. Wallet needs a Cercle tier and a
// balance covering total.
func (s *Session) SelectPayment(method order.PaymentMethod, w Wallet, total int64) error {
	if !method.Valid() {
		return order.ErrInvalidPayment
	}
	if method == order.PaymentWallet {
		if err := w.covers(total); err != nil {
			return err
		}
	}
	s.Method = method
	s.touch()
	return nil
}

// MarkConfirmed closes the wizard.
func (s *Session) MarkConfirmed() {
	s.Step = StepConfirmed
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// Wallet is the payer's standing at pricing time.
type Wallet struct {
	Tier    loyalty.Tier
	Balance int64
}

func (w Wallet) covers(total int64) error {
	if !loyalty.WalletEligible(w.Tier) {
		return ErrWalletNotEligible
	}
	if w.Balance < total {
		return ErrInsufficientBalance
	}
	return nil
}
