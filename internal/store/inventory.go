package store

import (
	"context"
	"fmt"
	"strings"
)

// StockAdjustment is one entry of a batched conditional stock update. Delta
// is negative for a purchase decrement, positive for a restore on
// cancellation.
type StockAdjustment struct {
	SizeID string
	Delta  int
}

// AdjustStock adjusts a single size's stock with a floor at zero. The clamp
// happens inside the UPDATE itself, so concurrent adjustments never see a
// stale read and stock can never go negative.
func (s *Store) AdjustStock(ctx context.Context, q Queryer, sizeID string, delta int) error {
	_, err := q.ExecContext(ctx,
		"UPDATE product_sizes SET stock = GREATEST(stock + $1, 0), updated_at = NOW() WHERE id = $2",
		delta, sizeID)
	if err != nil {
		return fmt.Errorf("adjust stock for size %s: %w", sizeID, err)
	}
	return nil
}

// AdjustStockBatch applies all entries in one statement: a CASE expression
// per size id, clamped at zero per row. Ids absent from product_sizes are
// simply not matched; no error is raised for them.
func (s *Store) AdjustStockBatch(ctx context.Context, q Queryer, entries []StockAdjustment) error {
	if len(entries) == 0 {
		return nil
	}

	query, args := buildStockBatchQuery(entries)

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("adjust stock batch (%d sizes): %w", len(entries), err)
	}
	return nil
}

// buildStockBatchQuery renders the CASE-per-id conditional update. Kept pure
// so it can be tested without a database.
func buildStockBatchQuery(entries []StockAdjustment) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0, len(entries)*3)

	sb.WriteString("UPDATE product_sizes SET stock = (CASE")
	for _, e := range entries {
		fmt.Fprintf(&sb, " WHEN id = $%d THEN GREATEST(stock + $%d, 0)", len(args)+1, len(args)+2)
		args = append(args, e.SizeID, e.Delta)
	}
	sb.WriteString(" END), updated_at = NOW() WHERE id IN (")

	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%d", len(args)+1)
		args = append(args, e.SizeID)
	}
	sb.WriteString(")")

	return sb.String(), args
}
