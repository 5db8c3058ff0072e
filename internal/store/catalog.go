package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ResolvedSize is a cart line item after the server-side price/stock lookup.
// Resolved rows are authoritative over anything the client sent.
type ResolvedSize struct {
	ID        string          `db:"id"`
	ProductID string          `db:"product_id"`
	Value     int             `db:"value"`
	Price     decimal.Decimal `db:"price"`
	Stock     int             `db:"stock"`
}

// ResolveCheckoutSizes resolves the requested size ids with a stock-positive
// filter. Sizes with zero stock are excluded from the result entirely, not
// zeroed or flagged; the caller decides whether an absent id is a conflict.
func (s *Store) ResolveCheckoutSizes(ctx context.Context, q Queryer, sizeIDs []string) ([]ResolvedSize, error) {
	if len(sizeIDs) == 0 {
		return []ResolvedSize{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT ps.id, ps.product_id, ps.value, ps.price, ps.stock
		 FROM product_sizes ps
		 JOIN products p ON p.id = ps.product_id
		 WHERE ps.id IN (?) AND ps.stock > 0 AND p.is_deleted = false`,
		sizeIDs)
	if err != nil {
		return nil, err
	}
	query = q.Rebind(query)

	var sizes []ResolvedSize
	if err := q.SelectContext(ctx, &sizes, query, args...); err != nil {
		return nil, fmt.Errorf("resolve checkout sizes: %w", err)
	}
	return sizes, nil
}

// GetSizesByProductAndValue looks up live sizes matching historical order
// items by (product id, size value). Items whose size was deleted since the
// purchase simply have no match and are skipped by the caller.
func (s *Store) GetSizesByProductAndValue(ctx context.Context, q Queryer, productIDs []string, values []int) ([]ResolvedSize, error) {
	if len(productIDs) == 0 || len(values) == 0 {
		return []ResolvedSize{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, product_id, value, price, stock
		 FROM product_sizes
		 WHERE product_id IN (?) AND value IN (?)`,
		productIDs, values)
	if err != nil {
		return nil, err
	}
	query = q.Rebind(query)

	var sizes []ResolvedSize
	if err := q.SelectContext(ctx, &sizes, query, args...); err != nil {
		return nil, fmt.Errorf("get sizes by product and value: %w", err)
	}
	return sizes, nil
}

// GetProductByID retrieves a product by ID, excluding soft-deleted rows.
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 AND is_deleted = false", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

// GetFeaturedProducts retrieves active featured products for the storefront.
func (s *Store) GetFeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		`SELECT * FROM products
		 WHERE label = $1 AND status = $2 AND is_deleted = false
		 ORDER BY updated_at DESC`,
		models.ProductLabelFeatured, models.ProductStatusActive)
	if err != nil {
		return nil, fmt.Errorf("get featured products: %w", err)
	}
	return products, nil
}

// GetProductSizes retrieves all size variants of a product.
func (s *Store) GetProductSizes(ctx context.Context, productID string) ([]models.ProductSize, error) {
	var sizes []models.ProductSize
	err := s.db.SelectContext(ctx, &sizes,
		"SELECT * FROM product_sizes WHERE product_id = $1 ORDER BY value", productID)
	if err != nil {
		return nil, fmt.Errorf("get product sizes: %w", err)
	}
	return sizes, nil
}
