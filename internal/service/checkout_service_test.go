package service

import (
	"testing"
	"time"

	"storefront-service/config"
	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtotalFor(t *testing.T) {
	resolved := map[string]store.ResolvedSize{
		"size-1": {ID: "size-1", ProductID: "prod-1", Value: 42, Price: decimal.RequireFromString("10.00"), Stock: 5},
		"size-2": {ID: "size-2", ProductID: "prod-2", Value: 40, Price: decimal.RequireFromString("19.99"), Stock: 2},
	}

	items := []CheckoutItem{
		{ProductID: "prod-1", SizeID: "size-1", Qty: 3},
		{ProductID: "prod-2", SizeID: "size-2", Qty: 1},
	}

	subtotal, err := subtotalFor(items, resolved)
	require.NoError(t, err)
	assert.Equal(t, "49.99", subtotal.StringFixed(2))
}

func TestSubtotalForUnresolvedSize(t *testing.T) {
	resolved := map[string]store.ResolvedSize{
		"size-1": {ID: "size-1", ProductID: "prod-1", Value: 42, Price: decimal.NewFromInt(10), Stock: 5},
	}

	_, err := subtotalFor([]CheckoutItem{
		{ProductID: "prod-1", SizeID: "size-1", Qty: 1},
		{ProductID: "prod-9", SizeID: "size-gone", Qty: 1},
	}, resolved)

	assert.ErrorIs(t, err, store.ErrUnavailableProducts)
}

func TestSubtotalForProductMismatch(t *testing.T) {
	// A size id paired with the wrong product id must not price against the
	// real size's product.
	resolved := map[string]store.ResolvedSize{
		"size-1": {ID: "size-1", ProductID: "prod-1", Value: 42, Price: decimal.NewFromInt(10), Stock: 5},
	}

	_, err := subtotalFor([]CheckoutItem{
		{ProductID: "prod-other", SizeID: "size-1", Qty: 1},
	}, resolved)

	assert.ErrorIs(t, err, store.ErrUnavailableProducts)
}

func TestSeedEvents(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	events := seedEvents(now)

	require.Len(t, events, 1)
	entry := events[models.OrderStatusProcessing]
	assert.Equal(t, now, entry.Date)
	assert.Equal(t, "Your order is on its way", entry.Description)
}

func TestNewTrackingID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newTrackingID()
		require.Len(t, id, trackingIDLength)
		for _, c := range id {
			assert.True(t, c >= '0' && c <= '9', "tracking id must be digits only, got %q", id)
		}
		seen[id] = true
	}
	// 100 draws from a 10^12 space should never collide.
	assert.Len(t, seen, 100)
}

func TestNewShippingTable(t *testing.T) {
	table := NewShippingTable(config.ShippingConfig{
		StandardFee:  "200.00",
		StandardDays: 7,
		ExpressFee:   "350.00",
		ExpressDays:  3,
	})

	standard := table["standard"]
	assert.Equal(t, "200.00", standard.Fee.StringFixed(2))
	assert.Equal(t, 7, standard.DeliveryDays)

	express := table["express"]
	assert.Equal(t, "350.00", express.Fee.StringFixed(2))
	assert.Equal(t, 3, express.DeliveryDays)
}

func TestNewShippingTableFallbackOnBadConfig(t *testing.T) {
	table := NewShippingTable(config.ShippingConfig{
		StandardFee:  "not-a-number",
		StandardDays: 7,
		ExpressFee:   "",
		ExpressDays:  3,
	})

	assert.Equal(t, "200.00", table["standard"].Fee.StringFixed(2))
	assert.Equal(t, "350.00", table["express"].Fee.StringFixed(2))
}
