package category

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
)

const AggregateType = "Category"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidName      = errors.New("name is required")
	ErrInvalidColor     = errors.New("invalid color format")
)

// colorRegex accepts a hex color or a CSS class token such as "bg-green-100".
var colorRegex = regexp.MustCompile(`^(#[0-9a-fA-F]{6}|[a-z]+(?:-[a-z0-9]+)*)$`)

var (
	accentFolder = strings.NewReplacer(
		"à", "a", "â", "a", "ä", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"î", "i", "ï", "i",
		"ô", "o", "ö", "o",
		"ù", "u", "û", "u", "ü", "u",
		"ç", "c",
	)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// Category groups products in the market, with the icon and color the
// storefront shows for it.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) Create(ctx context.Context, name, icon, color string) (*Category, error) {
	if err := validate(name, color); err != nil {
		return nil, err
	}

	categoryID := uuid.New().String()
	now := time.Now()
	event := CategoryCreated{
		CategoryID: categoryID,
		Name:       name,
		Slug:       Slugify(name),
		Icon:       icon,
		Color:      color,
		CreatedAt:  now,
	}

	if _, err := s.eventStore.Append(ctx, categoryID, AggregateType, EventCategoryCreated, event); err != nil {
		return nil, err
	}

	return &Category{
		ID:        categoryID,
		Name:      name,
		Slug:      event.Slug,
		Icon:      icon,
		Color:     color,
		CreatedAt: now,
	}, nil
}

func (s *Service) Update(ctx context.Context, categoryID, name, icon, color string) error {
	if err := validate(name, color); err != nil {
		return err
	}
	if err := s.mustExist(ctx, categoryID); err != nil {
		return err
	}

	_, err := s.eventStore.Append(ctx, categoryID, AggregateType, EventCategoryUpdated, CategoryUpdated{
		CategoryID: categoryID,
		Name:       name,
		Slug:       Slugify(name),
		Icon:       icon,
		Color:      color,
		UpdatedAt:  time.Now(),
	})
	return err
}

func (s *Service) Delete(ctx context.Context, categoryID string) error {
	if err := s.mustExist(ctx, categoryID); err != nil {
		return err
	}

	_, err := s.eventStore.Append(ctx, categoryID, AggregateType, EventCategoryDeleted, CategoryDeleted{
		CategoryID: categoryID,
		DeletedAt:  time.Now(),
	})
	return err
}

func (s *Service) mustExist(ctx context.Context, categoryID string) error {
	events, err := s.eventStore.GetEvents(ctx, categoryID)
	if err != nil {
		return err
	}
	if len(events) == 0 || events[len(events)-1].EventType == EventCategoryDeleted {
		return ErrCategoryNotFound
	}
	return nil
}

func validate(name, color string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if color != "" && !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}

// Slugify turns a category name into a URL-friendly key: "Fruits & Légumes"
// becomes "fruits-legumes".
func Slugify(name string) string {
	slug := accentFolder.Replace(strings.ToLower(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
