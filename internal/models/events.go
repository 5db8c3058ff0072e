package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced         = "ORDER_PLACED"
	EventTypeOrdersStatusUpdated = "ORDERS_STATUS_UPDATED"
	EventTypeOrderCancelled      = "ORDER_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published after a checkout transaction commits. The
// notification worker consumes it to send the confirmation email.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID      string          `json:"order_id"`
	TrackingID   string          `json:"tracking_id"`
	CustomerName string          `json:"customer_name"`
	Email        *string         `json:"email,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingFee  decimal.Decimal `json:"shipping_fee"`
	Items        []OrderItemData `json:"items"`
}

// OrdersStatusUpdatedEvent published after a bulk status transition commits.
type OrdersStatusUpdatedEvent struct {
	BaseEvent
	OrderIDs  []string    `json:"order_ids"`
	NewStatus OrderStatus `json:"new_status"`
}

// OrderCancelledEvent published after a customer-initiated cancellation. The
// notification worker consumes it to send the cancellation email.
type OrderCancelledEvent struct {
	BaseEvent
	OrderID      string  `json:"order_id"`
	TrackingID   string  `json:"tracking_id"`
	CustomerName string  `json:"customer_name"`
	Email        *string `json:"email,omitempty"`
	Reason       string  `json:"reason"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string          `json:"product_id"`
	Size      int             `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
