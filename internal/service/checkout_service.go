package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"storefront-service/config"
	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const trackingIDLength = 12

// maxTrackingIDRetries bounds the regenerate-on-collision loop for tracking
// ids. Collisions are near-impossible at 12 random digits, but the unique
// index makes them impossible instead of improbable.
const maxTrackingIDRetries = 3

// ShippingOption is one row of the fixed shipping price table.
type ShippingOption struct {
	Fee          decimal.Decimal
	DeliveryDays int
}

// ShippingTable maps shipping type to fee and delivery offset.
type ShippingTable map[string]ShippingOption

// NewShippingTable builds the table from config, falling back to the default
// standard rate when a configured fee fails to parse.
func NewShippingTable(cfg config.ShippingConfig) ShippingTable {
	standardFee, err := decimal.NewFromString(cfg.StandardFee)
	if err != nil {
		standardFee = decimal.NewFromInt(200)
	}
	expressFee, err := decimal.NewFromString(cfg.ExpressFee)
	if err != nil {
		expressFee = decimal.NewFromInt(350)
	}

	return ShippingTable{
		models.ShippingTypeStandard: {Fee: standardFee, DeliveryDays: cfg.StandardDays},
		models.ShippingTypeExpress:  {Fee: expressFee, DeliveryDays: cfg.ExpressDays},
	}
}

// CheckoutService converts a validated cart into a durable order: order row,
// line items, payment record, and the batched stock decrement, all inside one
// transaction.
type CheckoutService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	shipping       ShippingTable
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	st *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	shipping ShippingTable,
) *CheckoutService {
	return &CheckoutService{
		store:          st,
		redis:          redis,
		eventPublisher: eventPublisher,
		shipping:       shipping,
		logger:         util.GetLogger(),
	}
}

// CheckoutItem is one requested cart line.
type CheckoutItem struct {
	ProductID string `json:"product_id" binding:"required"`
	SizeID    string `json:"size_id" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
}

// PlaceOrderRequest carries everything the checkout form submits. Prices are
// deliberately absent: they are re-derived server-side.
type PlaceOrderRequest struct {
	CustomerName  string         `json:"customer_name" binding:"required"`
	Email         *string        `json:"email,omitempty" binding:"omitempty,email"`
	PhoneNumber   string         `json:"phone_number" binding:"required"`
	State         string         `json:"state" binding:"required"`
	City          string         `json:"city" binding:"required"`
	Address       string         `json:"address" binding:"required"`
	ShippingType  string         `json:"shipping_type" binding:"required,oneof=standard express"`
	PaymentMethod string         `json:"payment_method" binding:"required,oneof=cash_on_delivery credit_card"`
	CartID        string         `json:"cart_id,omitempty"`
	Items         []CheckoutItem `json:"items" binding:"required,min=1,dive"`

	UserID *string `json:"-"`
}

// PlaceOrderResponse is returned after a successful checkout.
type PlaceOrderResponse struct {
	OrderID    string `json:"order_id"`
	TrackingID string `json:"tracking_id"`
}

// PlaceOrder runs the whole checkout as one unit of work. Any failure aborts
// the transaction: no order, no items, no payment, no stock change persists.
// The resolver conflict (a requested size with no positive-stock row) is the
// only expected business rejection.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	orderID := uuid.NewString()

	var order *models.Order
	var payment *models.Payment
	var eventItems []models.OrderItemData

	var err error
	for attempt := 0; attempt <= maxTrackingIDRetries; attempt++ {
		trackingID := newTrackingID()

		err = s.store.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			order, payment, eventItems = nil, nil, nil
			return s.placeOrderTx(ctx, tx, req, orderID, trackingID, &order, &payment, &eventItems)
		})
		if !errors.Is(err, store.ErrDuplicateTrackingID) {
			break
		}
		s.logger.Warn("Tracking id collision, regenerating",
			zap.String("order_id", orderID),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		if errors.Is(err, store.ErrUnavailableProducts) {
			util.OrdersRejectedTotal.WithLabelValues("unavailable_products").Inc()
		} else {
			util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	util.StockAdjustmentsTotal.WithLabelValues("decrement").Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("tracking_id", order.TrackingID),
		zap.String("subtotal", payment.Subtotal.StringFixed(2)))

	// Side effects outside the consistency boundary: none of these can roll
	// back the committed order.
	if err := s.redis.InvalidateFeaturedProducts(ctx); err != nil {
		s.logger.Error("Failed to invalidate featured products cache", zap.Error(err))
	}

	if req.CartID != "" {
		if err := s.redis.DeleteCart(ctx, req.CartID); err != nil {
			s.logger.Error("Failed to clear cart after checkout",
				zap.String("cart_id", req.CartID), zap.Error(err))
		}
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:      order.ID,
		TrackingID:   order.TrackingID,
		CustomerName: order.CustomerName,
		Email:        order.Email,
		Subtotal:     payment.Subtotal,
		ShippingFee:  payment.ShippingFee,
		Items:        eventItems,
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &PlaceOrderResponse{OrderID: order.ID, TrackingID: order.TrackingID}, nil
}

// placeOrderTx is the transactional body of PlaceOrder.
func (s *CheckoutService) placeOrderTx(
	ctx context.Context,
	tx *sqlx.Tx,
	req *PlaceOrderRequest,
	orderID, trackingID string,
	orderOut **models.Order,
	paymentOut **models.Payment,
	eventItemsOut *[]models.OrderItemData,
) error {
	sizeIDs := make([]string, len(req.Items))
	for i, item := range req.Items {
		sizeIDs[i] = item.SizeID
	}

	resolved, err := s.store.ResolveCheckoutSizes(ctx, tx, sizeIDs)
	if err != nil {
		return err
	}

	resolvedByID := make(map[string]store.ResolvedSize, len(resolved))
	for _, size := range resolved {
		resolvedByID[size.ID] = size
	}

	subtotal, err := subtotalFor(req.Items, resolvedByID)
	if err != nil {
		return err
	}

	orderItems := make([]models.OrderItem, 0, len(req.Items))
	eventItems := make([]models.OrderItemData, 0, len(req.Items))
	deltas := make(map[string]int, len(req.Items))

	for _, item := range req.Items {
		size := resolvedByID[item.SizeID]
		deltas[size.ID] -= item.Qty

		orderItems = append(orderItems, models.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: item.ProductID,
			Size:      size.Value,
			Price:     size.Price,
			Quantity:  item.Qty,
		})
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			Size:      size.Value,
			Quantity:  item.Qty,
			UnitPrice: size.Price,
		})
	}

	option, ok := s.shipping[req.ShippingType]
	if !ok {
		return fmt.Errorf("unknown shipping type: %s", req.ShippingType)
	}

	now := time.Now()
	estDelivery := now.AddDate(0, 0, option.DeliveryDays)

	order := &models.Order{
		ID:              orderID,
		TrackingID:      trackingID,
		UserID:          req.UserID,
		Status:          models.OrderStatusProcessing,
		ShippingType:    req.ShippingType,
		CustomerName:    req.CustomerName,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		State:           req.State,
		City:            req.City,
		Address:         req.Address,
		EstDeliveryDate: &estDelivery,
		Events:          seedEvents(now),
	}

	if err := s.store.InsertOrder(ctx, tx, order); err != nil {
		return err
	}

	if err := s.store.InsertOrderItems(ctx, tx, orderItems); err != nil {
		return err
	}

	payment := &models.Payment{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		Status:      models.PaymentStatusUnpaid,
		Method:      req.PaymentMethod,
		Subtotal:    subtotal,
		ShippingFee: option.Fee,
		Taxes:       decimal.Zero,
		Discount:    nil,
	}
	if err := s.store.InsertPayment(ctx, tx, payment); err != nil {
		return err
	}

	adjustments := make([]store.StockAdjustment, 0, len(deltas))
	for sizeID, delta := range deltas {
		adjustments = append(adjustments, store.StockAdjustment{SizeID: sizeID, Delta: delta})
	}
	if err := s.store.AdjustStockBatch(ctx, tx, adjustments); err != nil {
		return err
	}

	*orderOut = order
	*paymentOut = payment
	*eventItemsOut = eventItems
	return nil
}

// seedEvents is the initial timeline of a freshly placed order: a single
// processing entry. Later transitions merge into this map, never replace it.
func seedEvents(now time.Time) models.OrderEvents {
	return models.OrderEvents{
		models.OrderStatusProcessing: {
			Date:        now,
			Description: "Your order is on its way",
		},
	}
}

// subtotalFor computes the order subtotal from server-resolved prices only;
// client-supplied prices never enter the calculation. Any requested size
// absent from the resolved set makes the whole checkout a conflict.
func subtotalFor(items []CheckoutItem, resolvedByID map[string]store.ResolvedSize) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		size, ok := resolvedByID[item.SizeID]
		if !ok || size.ProductID != item.ProductID {
			return decimal.Zero, store.ErrUnavailableProducts
		}
		subtotal = subtotal.Add(size.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return subtotal, nil
}

// newTrackingID generates the customer-facing order identifier: a random
// digit string, unique-constrained in the database.
func newTrackingID() string {
	const digits = "0123456789"

	b := make([]byte, trackingIDLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for id generation
		panic(fmt.Sprintf("read random bytes: %v", err))
	}

	for i := range b {
		b[i] = digits[int(b[i])%len(digits)]
	}
	return string(b)
}
