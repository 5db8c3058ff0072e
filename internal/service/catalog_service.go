package service

import (
	"context"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService serves the storefront read paths: the cached featured
// products view and the read-only cart resolver.
type CatalogService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(st *store.Store, redis *redisclient.Client) *CatalogService {
	return &CatalogService{
		store:  st,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// GetFeaturedProducts reads the featured products view, cache-aside through
// Redis. The cache is invalidated by every stock-affecting commit.
func (s *CatalogService) GetFeaturedProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetFeaturedProducts")
	defer span.End()

	var cached []models.Product
	hit, err := s.redis.GetFeaturedProducts(ctx, &cached)
	if err != nil {
		s.logger.Warn("Featured products cache read failed", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	products, err := s.store.GetFeaturedProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.redis.SetFeaturedProducts(ctx, products); err != nil {
		s.logger.Warn("Featured products cache write failed", zap.Error(err))
	}

	return products, nil
}

// ProductDetails bundles a product with its purchasable sizes for the
// product page.
type ProductDetails struct {
	Product *models.Product      `json:"product"`
	Sizes   []models.ProductSize `json:"sizes"`
}

// GetProduct retrieves a product with all its size variants.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*ProductDetails, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sizes, err := s.store.GetProductSizes(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProductDetails{Product: product, Sizes: sizes}, nil
}

// AdjustSizeStock applies a manual stock correction to a single size, floor
// at zero. Used by the admin console for restocks and write-offs.
func (s *CatalogService) AdjustSizeStock(ctx context.Context, sizeID string, delta int) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.AdjustSizeStock")
	defer span.End()

	if err := s.store.AdjustStock(ctx, s.store.GetDB(), sizeID, delta); err != nil {
		return err
	}

	direction := "increment"
	if delta < 0 {
		direction = "decrement"
	}
	util.StockAdjustmentsTotal.WithLabelValues(direction).Inc()
	s.logger.Info("Stock adjusted",
		zap.String("size_id", sizeID), zap.Int("delta", delta))

	if err := s.redis.InvalidateFeaturedProducts(ctx); err != nil {
		s.logger.Warn("Failed to invalidate featured products cache", zap.Error(err))
	}
	return nil
}

// CartLine is one line of a persisted cart.
type CartLine struct {
	ProductID string `json:"product_id" binding:"required"`
	SizeID    string `json:"size_id" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
}

// ResolvedCartLine is a cart line with live server-side price and stock.
type ResolvedCartLine struct {
	ProductID string          `json:"product_id"`
	SizeID    string          `json:"size_id"`
	Size      int             `json:"size"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

// ResolveCart is the read-only, pre-checkout resolver. Unlike checkout it
// never fails on unavailable selections: lines whose size no longer resolves
// are dropped, quantities above available stock are clamped down, and the
// healed cart is persisted back so the client converges on reality.
func (s *CatalogService) ResolveCart(ctx context.Context, cartID string, lines []CartLine) ([]ResolvedCartLine, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ResolveCart")
	defer span.End()

	// No lines sent: fall back to the persisted cart.
	if len(lines) == 0 && cartID != "" {
		if _, err := s.redis.GetCart(ctx, cartID, &lines); err != nil {
			s.logger.Warn("Failed to load persisted cart",
				zap.String("cart_id", cartID), zap.Error(err))
		}
	}
	if len(lines) == 0 {
		return []ResolvedCartLine{}, nil
	}

	sizeIDs := make([]string, len(lines))
	for i, line := range lines {
		sizeIDs[i] = line.SizeID
	}

	resolved, err := s.store.ResolveCheckoutSizes(ctx, s.store.GetDB(), sizeIDs)
	if err != nil {
		return nil, err
	}

	resolvedByID := make(map[string]store.ResolvedSize, len(resolved))
	for _, size := range resolved {
		resolvedByID[size.ID] = size
	}

	healed, out, changed := healCartLines(lines, resolvedByID)

	if cartID != "" && changed {
		if err := s.redis.SetCart(ctx, cartID, healed); err != nil {
			s.logger.Warn("Failed to persist healed cart",
				zap.String("cart_id", cartID), zap.Error(err))
		}
	}

	return out, nil
}

// healCartLines reconciles requested lines against the resolved snapshot:
// unresolvable lines are dropped, over-stock quantities are clamped down.
// Returns the healed cart to persist, the priced lines to serve, and whether
// anything changed.
func healCartLines(lines []CartLine, resolvedByID map[string]store.ResolvedSize) ([]CartLine, []ResolvedCartLine, bool) {
	healed := make([]CartLine, 0, len(lines))
	out := make([]ResolvedCartLine, 0, len(lines))
	changed := false

	for _, line := range lines {
		size, ok := resolvedByID[line.SizeID]
		if !ok || size.ProductID != line.ProductID {
			util.CartLinesDroppedTotal.Inc()
			changed = true
			continue
		}

		qty := line.Qty
		if qty > size.Stock {
			qty = size.Stock
			util.CartLinesClampedTotal.Inc()
			changed = true
		}

		healed = append(healed, CartLine{ProductID: line.ProductID, SizeID: line.SizeID, Qty: qty})
		out = append(out, ResolvedCartLine{
			ProductID: line.ProductID,
			SizeID:    line.SizeID,
			Size:      size.Value,
			Qty:       qty,
			Price:     size.Price,
			Stock:     size.Stock,
		})
	}

	return healed, out, changed
}
