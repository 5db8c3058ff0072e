package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Rows are soft-deleted via IsDeleted so
// historical order items keep a valid product reference.
type Product struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Category    string    `db:"category" json:"category"`
	Status      string    `db:"status" json:"status"`
	Label       string    `db:"label" json:"label"`
	IsDeleted   bool      `db:"is_deleted" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProductSize is a purchasable SKU variant of a product. Stock is never
// negative: every adjustment is clamped with GREATEST(stock + delta, 0).
type ProductSize struct {
	ID        string           `db:"id" json:"id"`
	ProductID string           `db:"product_id" json:"product_id"`
	Value     int              `db:"value" json:"value"`
	Price     decimal.Decimal  `db:"price" json:"price"`
	SalePrice *decimal.Decimal `db:"sale_price" json:"sale_price,omitempty"`
	Stock     int              `db:"stock" json:"stock"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Order represents a placed purchase. TrackingID is the customer-facing
// identifier, distinct from the primary key. UserID is nil for guest checkout.
type Order struct {
	ID              string      `db:"id" json:"id"`
	TrackingID      string      `db:"tracking_id" json:"tracking_id"`
	UserID          *string     `db:"user_id" json:"user_id,omitempty"`
	Status          OrderStatus `db:"status" json:"status"`
	ShippingType    string      `db:"shipping_type" json:"shipping_type"`
	CustomerName    string      `db:"customer_name" json:"customer_name"`
	Email           *string     `db:"email" json:"email,omitempty"`
	PhoneNumber     string      `db:"phone_number" json:"phone_number"`
	State           string      `db:"state" json:"state"`
	City            string      `db:"city" json:"city"`
	Address         string      `db:"address" json:"address"`
	EstDeliveryDate *time.Time  `db:"est_delivery_date" json:"est_delivery_date,omitempty"`
	Events          OrderEvents `db:"events" json:"events"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderItem is an immutable line item snapshot. Size and Price are copied at
// purchase time rather than referenced live, since sizes may later be edited
// or deleted.
type OrderItem struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Size      int             `db:"size" json:"size"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
}

// Payment is 1:1 with an order. All amounts are captured at checkout time and
// never recomputed later.
type Payment struct {
	ID          string           `db:"id" json:"id"`
	OrderID     string           `db:"order_id" json:"order_id"`
	Status      string           `db:"status" json:"status"`
	Method      string           `db:"method" json:"method"`
	Subtotal    decimal.Decimal  `db:"subtotal" json:"subtotal"`
	ShippingFee decimal.Decimal  `db:"shipping_fee" json:"shipping_fee"`
	Taxes       decimal.Decimal  `db:"taxes" json:"taxes"`
	Discount    *decimal.Decimal `db:"discount" json:"discount,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// OrderStatus is the order lifecycle status.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusOnHold     OrderStatus = "on_hold"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every valid lifecycle status.
var OrderStatuses = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusDispatched,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusOnHold,
	OrderStatusCancelled,
}

// Valid reports whether s is a known lifecycle status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Payment statuses
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Payment methods
const (
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodCreditCard     = "credit_card"
)

// Shipping types
const (
	ShippingTypeStandard = "standard"
	ShippingTypeExpress  = "express"
)

// Product statuses
const (
	ProductStatusDraft    = "draft"
	ProductStatusActive   = "active"
	ProductStatusArchived = "archived"
)

// Product labels
const (
	ProductLabelNone       = "none"
	ProductLabelFeatured   = "featured"
	ProductLabelNewArrival = "new_arrival"
)

// User roles resolved by the auth collaborator
const (
	RoleCustomer  = "customer"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)
