package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/aggregate"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
)

const AggregateType = "Product"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidRating   = errors.New("rating must be between 0 and 5")
	ErrInvalidUnit     = errors.New("unit quantity cannot be negative")
)

// Details are the admin-editable fields of a catalog entry.
type Details struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        int64   `json:"price"`
	Unit         string  `json:"unit"`
	UnitQuantity int     `json:"unit_quantity"`
	Image        string  `json:"image,omitempty"`
	Rating       float64 `json:"rating"`
	Category     string  `json:"category"`
	CercleOnly   bool    `json:"cercle_only"`
}

func (d *Details) validate() error {
	if d.Name == "" {
		return ErrInvalidName
	}
	if d.Price <= 0 {
		return ErrInvalidPrice
	}
	if d.Rating < 0 || d.Rating > 5 {
		return ErrInvalidRating
	}
	if d.UnitQuantity < 0 {
		return ErrInvalidUnit
	}
	if d.UnitQuantity == 0 {
		d.UnitQuantity = 1
	}
	return nil
}

type Product struct {
	ID string `json:"id"`
	Details
	IsDeleted bool      `json:"is_deleted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	aggregate.Versioned
}

func (p *Product) GetID() string { return p.ID }

func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Details = data.Details
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Details = data.Details
		p.UpdatedAt = data.UpdatedAt
	case EventProductDeleted:
		p.IsDeleted = true
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Create adds a product. The initial stock travels on the creation event so
// the catalog and inventory projections agree from the start.
func (s *Service) Create(ctx context.Context, details Details, stock int) (*Product, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}

	productID := uuid.New().String()
	now := time.Now()

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, ProductCreated{
		ProductID: productID,
		Details:   details,
		Stock:     stock,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return &Product{
		ID:        productID,
		Details:   details,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get returns a live product.
func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	p, found, err := aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Product {
		return &Product{ID: productID}
	})
	if err != nil {
		return nil, err
	}
	if !found || p.IsDeleted {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, productID string, details Details) error {
	if err := details.validate(); err != nil {
		return err
	}
	if _, err := s.Get(ctx, productID); err != nil {
		return err
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductUpdated, ProductUpdated{
		ProductID: productID,
		Details:   details,
		UpdatedAt: time.Now(),
	})
	return err
}

func (s *Service) Delete(ctx context.Context, productID string) error {
	if _, err := s.Get(ctx, productID); err != nil {
		return err
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductDeleted, ProductDeleted{
		ProductID: productID,
		DeletedAt: time.Now(),
	})
	return err
}
