package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertOrder inserts a new order row. Returns ErrDuplicateTrackingID when
// the generated tracking id collides with an existing one so the caller can
// regenerate and retry.
func (s *Store) InsertOrder(ctx context.Context, q Queryer, order *models.Order) error {
	query := `
		INSERT INTO orders (id, tracking_id, user_id, status, shipping_type,
			customer_name, email, phone_number, state, city, address,
			est_delivery_date, events)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := q.GetContext(ctx, order, query,
		order.ID, order.TrackingID, order.UserID, order.Status, order.ShippingType,
		order.CustomerName, order.Email, order.PhoneNumber, order.State, order.City,
		order.Address, order.EstDeliveryDate, order.Events)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateTrackingID
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// InsertOrderItems inserts all line items in one multi-row statement.
func (s *Store) InsertOrderItems(ctx context.Context, q Queryer, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(items)*6)
	sb.WriteString("INSERT INTO order_items (id, order_id, product_id, size, price, quantity) VALUES ")

	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := len(args)
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, item.ID, item.OrderID, item.ProductID, item.Size, item.Price, item.Quantity)
	}

	if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// InsertPayment inserts the payment record paired 1:1 with an order.
func (s *Store) InsertPayment(ctx context.Context, q Queryer, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, status, method, subtotal, shipping_fee, taxes, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := q.GetContext(ctx, payment, query,
		payment.ID, payment.OrderID, payment.Status, payment.Method,
		payment.Subtotal, payment.ShippingFee, payment.Taxes, payment.Discount)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetOrderByID retrieves an order by ID.
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderIDByTrackingID resolves a customer-facing tracking id to the
// internal order id.
func (s *Store) GetOrderIDByTrackingID(ctx context.Context, trackingID string) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id, "SELECT id FROM orders WHERE tracking_id = $1", trackingID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// OrderSummary is the slice of an order the status transition engine needs:
// the previous status decides the stock adjustment direction, city feeds the
// auto-generated description, and events is the timeline to merge into.
type OrderSummary struct {
	ID     string             `db:"id"`
	Status models.OrderStatus `db:"status"`
	City   string             `db:"city"`
	Events models.OrderEvents `db:"events"`
}

// GetOrderSummaries loads summaries for the given ids, locking the rows for
// the remainder of the transaction.
func (s *Store) GetOrderSummaries(ctx context.Context, q Queryer, ids []string) ([]OrderSummary, error) {
	if len(ids) == 0 {
		return []OrderSummary{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, status, city, events FROM orders WHERE id IN (?) FOR UPDATE", ids)
	if err != nil {
		return nil, err
	}
	query = q.Rebind(query)

	var summaries []OrderSummary
	if err := q.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("get order summaries: %w", err)
	}
	return summaries, nil
}

// GetOrderSummaryForUser loads one order summary, scoped to the owning user
// when userID is non-nil.
func (s *Store) GetOrderSummaryForUser(ctx context.Context, id string, userID *string) (*OrderSummary, error) {
	var summary OrderSummary
	var err error
	if userID != nil {
		err = s.db.GetContext(ctx, &summary,
			"SELECT id, status, city, events FROM orders WHERE id = $1 AND user_id = $2", id, *userID)
	} else {
		err = s.db.GetContext(ctx, &summary,
			"SELECT id, status, city, events FROM orders WHERE id = $1", id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// OrderEventsUpdate carries one order's merged timeline for a batched status
// update.
type OrderEventsUpdate struct {
	OrderID string
	Events  []byte
}

// UpdateOrdersStatusBatch sets the new status and the per-order merged events
// for every order in one statement, a CASE expression keyed by order id.
func (s *Store) UpdateOrdersStatusBatch(ctx context.Context, q Queryer, newStatus models.OrderStatus, updates []OrderEventsUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	query, args := buildOrdersStatusBatchQuery(newStatus, updates)

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update orders status batch (%d orders): %w", len(updates), err)
	}
	return nil
}

// buildOrdersStatusBatchQuery renders the batched status + events update.
// Pure for testability.
func buildOrdersStatusBatchQuery(newStatus models.OrderStatus, updates []OrderEventsUpdate) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0, len(updates)*3+1)

	sb.WriteString("UPDATE orders SET status = $1, updated_at = NOW(), events = (CASE")
	args = append(args, string(newStatus))

	for _, u := range updates {
		fmt.Fprintf(&sb, " WHEN id = $%d THEN $%d::jsonb", len(args)+1, len(args)+2)
		args = append(args, u.OrderID, u.Events)
	}
	sb.WriteString(" END) WHERE id IN (")

	for i, u := range updates {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%d", len(args)+1)
		args = append(args, u.OrderID)
	}
	sb.WriteString(")")

	return sb.String(), args
}

// GetOrderItemsByOrderIDs retrieves line items for a set of orders in one
// query.
func (s *Store) GetOrderItemsByOrderIDs(ctx context.Context, q Queryer, orderIDs []string) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []models.OrderItem{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM order_items WHERE order_id IN (?)", orderIDs)
	if err != nil {
		return nil, err
	}
	query = q.Rebind(query)

	var items []models.OrderItem
	if err := q.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return items, nil
}

// GetOrderItemsByOrderID retrieves all items for a single order.
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// GetPaymentByOrderID retrieves the payment paired with an order.
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment not found for order %s", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatusByOrderIDs updates payment status for one or many
// orders. Payment status is orthogonal to the order lifecycle: this never
// touches orders.status, the timeline, or stock.
func (s *Store) UpdatePaymentStatusByOrderIDs(ctx context.Context, orderIDs []string, status string) error {
	if len(orderIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(
		"UPDATE payments SET status = ?, updated_at = NOW() WHERE order_id IN (?)", status, orderIDs)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

// DeleteOrders hard-deletes orders. Distinct from cancellation: no stock
// movement, and items/payments go with the rows via cascade.
func (s *Store) DeleteOrders(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In("DELETE FROM orders WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete orders: %w", err)
	}
	return nil
}
