package product

import "time"

const (
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"
)

type ProductCreated struct {
	ProductID string    `json:"product_id"`
	Details   Details   `json:"details"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductUpdated struct {
	ProductID string    `json:"product_id"`
	Details   Details   `json:"details"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductDeleted struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
