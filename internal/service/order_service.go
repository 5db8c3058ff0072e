package service

import (
	"context"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// OrderService serves order reads and the admin bulk delete.
type OrderService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(st *store.Store) *OrderService {
	return &OrderService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// OrderDetails bundles everything the tracking page needs.
type OrderDetails struct {
	Order   *models.Order      `json:"order"`
	Items   []models.OrderItem `json:"items"`
	Payment *models.Payment    `json:"payment"`
}

// GetOrder retrieves an order with its line items and payment.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*OrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &OrderDetails{Order: order, Items: items, Payment: payment}, nil
}

// TrackOrder resolves a customer-facing tracking id to the internal order id.
func (s *OrderService) TrackOrder(ctx context.Context, trackingID string) (string, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.TrackOrder")
	defer span.End()

	return s.store.GetOrderIDByTrackingID(ctx, trackingID)
}

// DeleteOrders hard-deletes orders from the admin console. Separate from
// cancellation: no stock restoration happens here.
func (s *OrderService) DeleteOrders(ctx context.Context, ids []string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrders")
	defer span.End()

	if err := s.store.DeleteOrders(ctx, ids); err != nil {
		return err
	}

	util.OrdersDeletedTotal.Add(float64(len(ids)))
	s.logger.Info("Orders deleted", zap.Int("count", len(ids)))
	return nil
}
