package worker

import (
	"context"
	"log"

	"storefront-service/internal/broker"
	"storefront-service/internal/mailer"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order events and sends the corresponding
// customer emails. Delivery failures are logged and the message is still
// committed: notifications are fire-and-forget by contract, an email must
// never be retried into blocking the pipeline or rolled back into the order.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       mailer.Mailer
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, m mailer.Mailer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		mailer:   m,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	if event.Email == nil {
		return nil
	}

	subject, body := mailer.ConfirmationBody(event)
	if err := w.mailer.Send(ctx, *event.Email, subject, body); err != nil {
		util.NotificationsFailedTotal.WithLabelValues("confirmation").Inc()
		w.logger.Error("Failed to send confirmation email",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return nil
	}

	util.NotificationsSentTotal.WithLabelValues("confirmation").Inc()
	w.logger.Info("Confirmation email sent", zap.String("order_id", event.OrderID))
	return nil
}

func (w *NotificationWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	if event.Email == nil {
		return nil
	}

	subject, body := mailer.CancellationBody(event)
	if err := w.mailer.Send(ctx, *event.Email, subject, body); err != nil {
		util.NotificationsFailedTotal.WithLabelValues("cancellation").Inc()
		w.logger.Error("Failed to send cancellation email",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return nil
	}

	util.NotificationsSentTotal.WithLabelValues("cancellation").Inc()
	w.logger.Info("Cancellation email sent", zap.String("order_id", event.OrderID))
	return nil
}
