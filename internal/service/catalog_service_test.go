package service

import (
	"testing"

	"storefront-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealCartLinesUnchanged(t *testing.T) {
	resolved := map[string]store.ResolvedSize{
		"size-1": {ID: "size-1", ProductID: "prod-1", Value: 42, Price: decimal.NewFromInt(10), Stock: 5},
	}

	lines := []CartLine{{ProductID: "prod-1", SizeID: "size-1", Qty: 2}}

	healed, out, changed := healCartLines(lines, resolved)
	assert.False(t, changed)
	require.Len(t, healed, 1)
	assert.Equal(t, 2, healed[0].Qty)
	require.Len(t, out, 1)
	assert.Equal(t, 42, out[0].Size)
	assert.Equal(t, 5, out[0].Stock)
}

func TestHealCartLinesDropsUnresolvable(t *testing.T) {
	resolved := map[string]store.ResolvedSize{
		"size-1": {ID: "size-1", ProductID: "prod-1", Value: 42, Price: decimal.NewFromInt(10), Stock: 5},
	}

	lines := []CartLine{
		{ProductID: "prod-1", SizeID: "size-1", Qty: 1},
		{ProductID: "prod-gone", SizeID: "size-gone", Qty: 1},
		// size exists but belongs to a different product
		{ProductID: "prod-2", SizeID: "size-1", Qty: 1},
	}

	healed, out, changed := healCartLines(lines, resolved)
	assert.True(t, changed)
	require.Len(t, healed, 1)
	assert.Equal(t, "size-1", healed[0].SizeID)
	assert.Len(t, out, 1)
}

func TestHealCartLinesClampsToStock(t *testing.T) {
	resolved := map[string]store.ResolvedSize{
		"size-1": {ID: "size-1", ProductID: "prod-1", Value: 42, Price: decimal.NewFromInt(10), Stock: 3},
	}

	lines := []CartLine{{ProductID: "prod-1", SizeID: "size-1", Qty: 10}}

	healed, out, changed := healCartLines(lines, resolved)
	assert.True(t, changed)
	require.Len(t, healed, 1)
	assert.Equal(t, 3, healed[0].Qty)
	assert.Equal(t, 3, out[0].Qty)
}
