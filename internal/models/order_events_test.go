package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEventsMergedPreservesOtherKeys(t *testing.T) {
	placed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	events := OrderEvents{
		OrderStatusProcessing: {Date: placed, Description: "Your order is on its way"},
	}

	shipped := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	merged := events.Merged(OrderStatusShipped, shipped, "Your order has been shipped to Lagos")

	assert.Len(t, merged, 2)
	assert.Equal(t, placed, merged[OrderStatusProcessing].Date)
	assert.Equal(t, shipped, merged[OrderStatusShipped].Date)
	assert.Equal(t, "Your order has been shipped to Lagos", merged[OrderStatusShipped].Description)

	// original map untouched
	assert.Len(t, events, 1)
}

func TestOrderEventsMergedRefreshesSameKey(t *testing.T) {
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	events := OrderEvents{
		OrderStatusCancelled: {Date: first, Description: "Your order has been cancelled"},
	}

	second := first.Add(48 * time.Hour)
	merged := events.Merged(OrderStatusCancelled, second, "Changed my mind again")

	assert.Len(t, merged, 1)
	assert.Equal(t, second, merged[OrderStatusCancelled].Date)
	assert.Equal(t, "Changed my mind again", merged[OrderStatusCancelled].Description)
}

func TestOrderEventsJSONBRoundTrip(t *testing.T) {
	events := OrderEvents{
		OrderStatusProcessing: {
			Date:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Description: "Your order is on its way",
		},
		OrderStatusOnHold: {
			Date:        time.Date(2024, 3, 2, 14, 15, 0, 0, time.UTC),
			Description: "Your order is on hold",
		},
	}

	value, err := events.Value()
	require.NoError(t, err)

	var decoded OrderEvents
	require.NoError(t, decoded.Scan(value))

	assert.Len(t, decoded, 2)
	assert.True(t, events[OrderStatusProcessing].Date.Equal(decoded[OrderStatusProcessing].Date))
	assert.Equal(t, events[OrderStatusOnHold].Description, decoded[OrderStatusOnHold].Description)
}

func TestOrderEventsScanNil(t *testing.T) {
	var events OrderEvents
	require.NoError(t, events.Scan(nil))
	assert.Empty(t, events)
}

func TestOrderEventsScanString(t *testing.T) {
	var events OrderEvents
	require.NoError(t, events.Scan(`{"delivered":{"date":"2024-03-08T12:00:00Z","description":"Your order has been delivered to Abuja"}}`))
	assert.Equal(t, "Your order has been delivered to Abuja", events[OrderStatusDelivered].Description)
}

func TestOrderStatusValid(t *testing.T) {
	for _, status := range OrderStatuses {
		assert.True(t, status.Valid(), "expected %s to be valid", status)
	}
	assert.False(t, OrderStatus("returned").Valid())
}
