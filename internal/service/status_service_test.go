package service

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStockActionFor(t *testing.T) {
	tests := []struct {
		name string
		prev models.OrderStatus
		next models.OrderStatus
		want stockAction
	}{
		{"same status is a no-op", models.OrderStatusShipped, models.OrderStatusShipped, stockNone},
		{"cancelled to cancelled is a no-op", models.OrderStatusCancelled, models.OrderStatusCancelled, stockNone},
		{"processing to cancelled restores stock", models.OrderStatusProcessing, models.OrderStatusCancelled, stockRestore},
		{"shipped to cancelled restores stock", models.OrderStatusShipped, models.OrderStatusCancelled, stockRestore},
		{"cancelled to processing reserves stock", models.OrderStatusCancelled, models.OrderStatusProcessing, stockReserve},
		{"cancelled to delivered reserves stock", models.OrderStatusCancelled, models.OrderStatusDelivered, stockReserve},
		{"processing to shipped leaves stock alone", models.OrderStatusProcessing, models.OrderStatusShipped, stockNone},
		{"dispatched to on_hold leaves stock alone", models.OrderStatusDispatched, models.OrderStatusOnHold, stockNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stockActionFor(tc.prev, tc.next))
		})
	}
}

func TestEventDescription(t *testing.T) {
	assert.Equal(t, "Your order is being processed",
		eventDescription(models.OrderStatusProcessing, "Ikeja"))
	assert.Equal(t, "Your order has been shipped to Ikeja",
		eventDescription(models.OrderStatusShipped, "Ikeja"))
	assert.Equal(t, "Your order has been delivered to Abuja",
		eventDescription(models.OrderStatusDelivered, "Abuja"))
	assert.Equal(t, "Your order has been cancelled",
		eventDescription(models.OrderStatusCancelled, "Ikeja"))
}
