package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// stockAction is the derived ledger adjustment direction for one order's
// status transition.
type stockAction int

const (
	stockNone    stockAction = 0
	stockRestore stockAction = 1  // X -> cancelled: return qty to stock
	stockReserve stockAction = -1 // cancelled -> Y: take qty back out
)

// stockActionFor implements the transition decision table. Re-applying the
// same status is a timeline refresh, never a stock movement.
func stockActionFor(prev, next models.OrderStatus) stockAction {
	if prev == next {
		return stockNone
	}
	if next == models.OrderStatusCancelled {
		return stockRestore
	}
	if prev == models.OrderStatusCancelled {
		return stockReserve
	}
	return stockNone
}

// eventDescription builds the auto-generated, status and city specific
// timeline description. A caller-supplied description always wins.
func eventDescription(status models.OrderStatus, city string) string {
	switch status {
	case models.OrderStatusProcessing:
		return "Your order is being processed"
	case models.OrderStatusDispatched:
		return "Your order is about to be dispatched"
	case models.OrderStatusShipped:
		return fmt.Sprintf("Your order has been shipped to %s", city)
	case models.OrderStatusDelivered:
		return fmt.Sprintf("Your order has been delivered to %s", city)
	case models.OrderStatusOnHold:
		return "Your order is on hold"
	case models.OrderStatusCancelled:
		return "Your order has been cancelled"
	default:
		return fmt.Sprintf("Your order is %s", status)
	}
}

// StatusService is the status transition engine: it applies a new lifecycle
// status to one or many orders, derives the stock adjustment per order from
// its previous status, and appends the immutable timeline event.
type StatusService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewStatusService creates a new status service
func NewStatusService(
	st *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
) *StatusService {
	return &StatusService{
		store:          st,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SetStatus transitions every order in ids to newStatus. The batched order
// update and the resulting stock ledger batch commit in the same transaction,
// so status and stock can never diverge. description overrides the
// auto-generated timeline text when non-empty.
func (s *StatusService) SetStatus(ctx context.Context, ids []string, newStatus models.OrderStatus, description string) error {
	ctx, span := util.StartSpan(ctx, "StatusService.SetStatus")
	defer span.End()

	if !newStatus.Valid() {
		return fmt.Errorf("invalid order status: %s", newStatus)
	}
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		util.StatusUpdateLatency.Observe(time.Since(start).Seconds())
	}()

	var stockAffected bool

	err := s.store.WithRetry(ctx, 3, func(tx *sqlx.Tx) error {
		stockAffected = false

		summaries, err := s.store.GetOrderSummaries(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			return store.ErrOrderNotFound
		}

		now := time.Now()
		updates := make([]store.OrderEventsUpdate, 0, len(summaries))
		actions := make(map[string]stockAction, len(summaries))

		for _, order := range summaries {
			desc := description
			if desc == "" {
				desc = eventDescription(newStatus, order.City)
			}

			merged, err := json.Marshal(order.Events.Merged(newStatus, now, desc))
			if err != nil {
				return fmt.Errorf("marshal events for order %s: %w", order.ID, err)
			}
			updates = append(updates, store.OrderEventsUpdate{OrderID: order.ID, Events: merged})

			if action := stockActionFor(order.Status, newStatus); action != stockNone {
				actions[order.ID] = action
			}
		}

		if err := s.store.UpdateOrdersStatusBatch(ctx, tx, newStatus, updates); err != nil {
			return err
		}

		if len(actions) == 0 {
			return nil
		}

		adjustments, err := s.stockAdjustmentsFor(ctx, tx, actions)
		if err != nil {
			return err
		}
		if len(adjustments) == 0 {
			return nil
		}

		stockAffected = true
		return s.store.AdjustStockBatch(ctx, tx, adjustments)
	})
	if err != nil {
		return err
	}

	util.StatusTransitionsTotal.WithLabelValues(string(newStatus)).Add(float64(len(ids)))
	s.logger.Info("Orders status updated",
		zap.Int("count", len(ids)),
		zap.String("status", string(newStatus)),
		zap.Bool("stock_affected", stockAffected))

	if stockAffected {
		direction := "decrement"
		if newStatus == models.OrderStatusCancelled {
			direction = "increment"
		}
		util.StockAdjustmentsTotal.WithLabelValues(direction).Inc()

		// One invalidation per batch, not per order.
		if err := s.redis.InvalidateFeaturedProducts(ctx); err != nil {
			s.logger.Error("Failed to invalidate featured products cache", zap.Error(err))
		}
	}

	event := &models.OrdersStatusUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeOrdersStatusUpdated,
			Timestamp: time.Now(),
		},
		OrderIDs:  ids,
		NewStatus: newStatus,
	}
	if err := s.eventPublisher.PublishOrdersStatusUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrdersStatusUpdated event", zap.Error(err))
	}

	return nil
}

// stockAdjustmentsFor turns per-order stock actions into one aggregated
// ledger batch. Line items are matched back to live sizes by (product id,
// size value); items whose size no longer exists are skipped.
func (s *StatusService) stockAdjustmentsFor(ctx context.Context, tx *sqlx.Tx, actions map[string]stockAction) ([]store.StockAdjustment, error) {
	orderIDs := make([]string, 0, len(actions))
	for id := range actions {
		orderIDs = append(orderIDs, id)
	}

	items, err := s.store.GetOrderItemsByOrderIDs(ctx, tx, orderIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	productIDs := make([]string, 0, len(items))
	values := make([]int, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		values = append(values, item.Size)
	}

	sizes, err := s.store.GetSizesByProductAndValue(ctx, tx, productIDs, values)
	if err != nil {
		return nil, err
	}

	sizeIDByKey := make(map[string]string, len(sizes))
	for _, size := range sizes {
		sizeIDByKey[fmt.Sprintf("%s-%d", size.ProductID, size.Value)] = size.ID
	}

	deltas := make(map[string]int)
	for _, item := range items {
		sizeID, ok := sizeIDByKey[fmt.Sprintf("%s-%d", item.ProductID, item.Size)]
		if !ok {
			continue
		}
		deltas[sizeID] += int(actions[item.OrderID]) * item.Quantity
	}

	adjustments := make([]store.StockAdjustment, 0, len(deltas))
	for sizeID, delta := range deltas {
		if delta == 0 {
			continue
		}
		adjustments = append(adjustments, store.StockAdjustment{SizeID: sizeID, Delta: delta})
	}
	return adjustments, nil
}

// SetPaymentStatus updates payment status for the given orders. Orthogonal to
// the lifecycle status: no timeline event, no stock movement.
func (s *StatusService) SetPaymentStatus(ctx context.Context, ids []string, status string) error {
	ctx, span := util.StartSpan(ctx, "StatusService.SetPaymentStatus")
	defer span.End()

	switch status {
	case models.PaymentStatusUnpaid, models.PaymentStatusPaid, models.PaymentStatusRefunded:
	default:
		return fmt.Errorf("invalid payment status: %s", status)
	}

	return s.store.UpdatePaymentStatusByOrderIDs(ctx, ids, status)
}

// CancelOrder is the customer-initiated single-order cancel. Only permitted
// while the order is still processing; admins go through SetStatus, which has
// no such precondition.
func (s *StatusService) CancelOrder(ctx context.Context, id string, userID *string, reason string) error {
	ctx, span := util.StartSpan(ctx, "StatusService.CancelOrder")
	defer span.End()

	summary, err := s.store.GetOrderSummaryForUser(ctx, id, userID)
	if err != nil {
		return err
	}

	if summary.Status != models.OrderStatusProcessing {
		return store.ErrOrderNotCancellable
	}

	if err := s.SetStatus(ctx, []string{id}, models.OrderStatusCancelled, reason); err != nil {
		return err
	}

	util.OrdersCancelledTotal.Inc()

	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load cancelled order for notification",
			zap.String("order_id", id), zap.Error(err))
		return nil
	}

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID:      order.ID,
		TrackingID:   order.TrackingID,
		CustomerName: order.CustomerName,
		Email:        order.Email,
		Reason:       reason,
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return nil
}
