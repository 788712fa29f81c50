package order

import "time"

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type OrderPlaced struct {
	OrderID          string        `json:"order_id"`
	UserID           string        `json:"user_id"`
	CustomerName     string        `json:"customer_name"`
	CustomerClientID string        `json:"customer_client_id"`
	Items            []OrderItem   `json:"items"`
	Subtotal         int64         `json:"subtotal"`
	DeliveryFee      int64         `json:"delivery_fee"`
	Total            int64         `json:"total"`
	DeliveryAddress  string        `json:"delivery_address"`
	DeliverySlot     string        `json:"delivery_slot"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	NeedsReview      bool          `json:"needs_review"`
	ReviewReason     string        `json:"review_reason,omitempty"`
	PlacedAt         time.Time     `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
