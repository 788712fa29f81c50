// Package reload models wallet top-up requests: a customer asks, an
// administrator approves or rejects, and only an approval credits the wallet.
package reload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
)

const AggregateType = "Reload"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var statusLabels = map[Status]string{
	StatusPending:  "En attente",
	StatusApproved: "Validé",
	StatusRejected: "Refusé",
}

func (s Status) Label() string {
	return statusLabels[s]
}

var (
	ErrReloadNotFound = errors.New("reload request not found")
	ErrInvalidAmount  = errors.New("reload amount must be positive")
	ErrAlreadyDecided = errors.New("reload request has already been decided")
)

var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

func (r *Reload) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

func (r *Reload) transitionError(target Status) error {
	return fmt.Errorf("%w: request %s is %s, cannot become %s", ErrAlreadyDecided, r.ID, r.Status, target)
}

type Reload struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Amount      int64     `json:"amount"`
	Status      Status    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	DecidedBy   string    `json:"decided_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	aggregate.Versioned
}

func (r *Reload) GetID() string { return r.ID }

func (r *Reload) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventReloadRequested:
		var data ReloadRequested
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.ID = data.ReloadID
		r.UserID = data.UserID
		r.UserName = data.UserName
		r.Amount = data.Amount
		r.Status = StatusPending
		r.RequestedAt = data.RequestedAt
	case EventReloadApproved:
		var data ReloadApproved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusApproved
		r.DecidedBy = data.ApprovedBy
	case EventReloadRejected:
		var data ReloadRejected
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusRejected
		r.Reason = data.Reason
		r.DecidedBy = data.RejectedBy
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Request opens a pending top-up. The wallet is untouched until approval.
func (s *Service) Request(ctx context.Context, userID, userName string, amount int64) (*Reload, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	reloadID := uuid.New().String()
	stored, err := s.eventStore.Append(ctx, reloadID, AggregateType, EventReloadRequested, ReloadRequested{
		ReloadID:    reloadID,
		UserID:      userID,
		UserName:    userName,
		Amount:      amount,
		RequestedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	r := &Reload{ID: reloadID}
	if err := aggregate.Apply(r, *stored); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, reloadID string) (*Reload, error) {
	r, found, err := aggregate.LoadAggregate(ctx, s.eventStore, reloadID, func() *Reload {
		return &Reload{ID: reloadID}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrReloadNotFound
	}
	return r, nil
}

// Approve marks a pending request approved and credits the customer's wallet
// in the same batch. Both aggregates are pinned to the versions that were
// read, so a second approval of the same request fails with
// ErrAlreadyDecided or store.ErrVersionConflict and credits nothing.
func (s *Service) Approve(ctx context.Context, reloadID, adminID string, customer *user.User) (*Reload, error) {
	r, err := s.Get(ctx, reloadID)
	if err != nil {
		return nil, err
	}
	if !r.CanTransitionTo(StatusApproved) {
		return nil, r.transitionError(StatusApproved)
	}
	if customer == nil || customer.ID != r.UserID {
		return nil, user.ErrUserNotFound
	}

	credit, err := user.CreditEvent(customer, r.ID, r.Amount)
	if err != nil {
		return nil, err
	}
	credit.ExpectedVersion = customer.Version

	stored, err := s.eventStore.AppendBatch(ctx, []store.PendingEvent{
		{
			AggregateID:     r.ID,
			AggregateType:   AggregateType,
			EventType:       EventReloadApproved,
			ExpectedVersion: r.Version,
			Data: ReloadApproved{
				ReloadID:   r.ID,
				UserID:     r.UserID,
				Amount:     r.Amount,
				ApprovedBy: adminID,
				ApprovedAt: time.Now(),
			},
		},
		credit,
	})
	if err != nil {
		return nil, err
	}

	if err := aggregate.Apply(r, stored...); err != nil {
		return nil, err
	}
	if err := aggregate.Apply(customer, stored...); err != nil {
		return nil, err
	}
	return r, nil
}

// Reject declines a pending request without touching the wallet.
func (s *Service) Reject(ctx context.Context, reloadID, adminID, reason string) (*Reload, error) {
	r, err := s.Get(ctx, reloadID)
	if err != nil {
		return nil, err
	}
	if !r.CanTransitionTo(StatusRejected) {
		return nil, r.transitionError(StatusRejected)
	}

	stored, err := s.eventStore.AppendBatch(ctx, []store.PendingEvent{{
		AggregateID:     r.ID,
		AggregateType:   AggregateType,
		EventType:       EventReloadRejected,
		ExpectedVersion: r.Version,
		Data: ReloadRejected{
			ReloadID:   r.ID,
			UserID:     r.UserID,
			Reason:     reason,
			RejectedBy: adminID,
			RejectedAt: time.Now(),
		},
	}})
	if err != nil {
		return nil, err
	}
	if err := aggregate.Apply(r, stored...); err != nil {
		return nil, err
	}
	return r, nil
}
