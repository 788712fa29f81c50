package inventory

import "time"

const (
	EventStockAdded    = "StockAdded"
	EventStockAdjusted = "StockAdjusted"
	EventStockDeducted = "StockDeducted"
)

// StockAdded receives Quantity units. Stock is the count after the delivery.
type StockAdded struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Stock     int       `json:"stock"`
	AddedAt   time.Time `json:"added_at"`
}

// StockAdjusted sets the stock to an absolute count after a manual count.
type StockAdjusted struct {
	ProductID  string    `json:"product_id"`
	Previous   int       `json:"previous"`
	Stock      int       `json:"stock"`
	AdjustedBy string    `json:"adjusted_by"`
	AdjustedAt time.Time `json:"adjusted_at"`
}

// StockDeducted removes Quantity units for an order. Shortfall is the part of
// the quantity that was not on hand; stock never drops below zero, and
// Remaining is what is left.
type StockDeducted struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int       `json:"quantity"`
	Shortfall  int       `json:"shortfall,omitempty"`
	Remaining  int       `json:"remaining"`
	DeductedAt time.Time `json:"deducted_at"`
}
