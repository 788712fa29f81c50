package category

import "time"

const (
	EventCategoryCreated = "CategoryCreated"
	EventCategoryUpdated = "CategoryUpdated"
	EventCategoryDeleted = "CategoryDeleted"
)

type CategoryCreated struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Icon       string    `json:"icon"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"created_at"`
}

type CategoryUpdated struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Icon       string    `json:"icon"`
	Color      string    `json:"color"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CategoryDeleted struct {
	CategoryID string    `json:"category_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}
