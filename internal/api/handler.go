package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	checkoutService *service.CheckoutService
	statusService   *service.StatusService
	orderService    *service.OrderService
	catalogService  *service.CatalogService
	userResolver    UserResolver
}

// NewHandler creates a new HTTP handler
func NewHandler(
	checkoutService *service.CheckoutService,
	statusService *service.StatusService,
	orderService *service.OrderService,
	catalogService *service.CatalogService,
	userResolver UserResolver,
) *Handler {
	return &Handler{
		checkoutService: checkoutService,
		statusService:   statusService,
		orderService:    orderService,
		catalogService:  catalogService,
		userResolver:    userResolver,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/track/:trackingId", h.trackOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)

		v1.GET("/products/featured", h.getFeaturedProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/cart/resolve", h.resolveCart)

		admin := v1.Group("/admin", requireStaff(h.userResolver))
		{
			admin.PATCH("/orders/status", h.updateOrdersStatus)
			admin.DELETE("/orders", h.deleteOrders)
			admin.PATCH("/sizes/:id/stock", h.adjustSizeStock)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// placeOrder handles checkout
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if user := h.userResolver.Resolve(c); user != nil {
		req.UserID = &user.ID
	}

	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	details, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// trackOrder resolves a tracking id to an order id
func (h *Handler) trackOrder(c *gin.Context) {
	orderID, err := h.orderService.TrackOrder(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order_id": orderID})
}

// cancelOrder handles customer-initiated cancellation
func (h *Handler) cancelOrder(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Please provide a cancellation reason",
			"details": err.Error(),
		})
		return
	}

	var userID *string
	if user := h.userResolver.Resolve(c); user != nil {
		userID = &user.ID
	}

	if err := h.statusService.CancelOrder(c.Request.Context(), c.Param("id"), userID, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// updateOrdersStatus handles the admin bulk status mutation. Lifecycle status
// and payment status are independent: either or both may be supplied.
func (h *Handler) updateOrdersStatus(c *gin.Context) {
	var req struct {
		IDs           []string `json:"ids" binding:"required,min=1"`
		Status        *string  `json:"status,omitempty"`
		PaymentStatus *string  `json:"payment_status,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.Status == nil && req.PaymentStatus == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Provide status and/or payment_status",
		})
		return
	}

	ctx := c.Request.Context()

	if req.Status != nil {
		if err := h.statusService.SetStatus(ctx, req.IDs, models.OrderStatus(*req.Status), ""); err != nil {
			respondError(c, err)
			return
		}
	}

	if req.PaymentStatus != nil {
		if err := h.statusService.SetPaymentStatus(ctx, req.IDs, *req.PaymentStatus); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(req.IDs)})
}

// deleteOrders handles the admin bulk hard delete
func (h *Handler) deleteOrders(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.orderService.DeleteOrders(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": len(req.IDs)})
}

// getFeaturedProducts serves the cached featured products view
func (h *Handler) getFeaturedProducts(c *gin.Context) {
	products, err := h.catalogService.GetFeaturedProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct serves the product page data
func (h *Handler) getProduct(c *gin.Context) {
	details, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// adjustSizeStock handles manual admin stock corrections
func (h *Handler) adjustSizeStock(c *gin.Context) {
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Provide a non-zero delta",
			"details": err.Error(),
		})
		return
	}

	if err := h.catalogService.AdjustSizeStock(c.Request.Context(), c.Param("id"), req.Delta); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "adjusted"})
}

// resolveCart serves the read-only cart resolver used by UI polling
func (h *Handler) resolveCart(c *gin.Context) {
	var req struct {
		CartID string             `json:"cart_id,omitempty"`
		Items  []service.CartLine `json:"items" binding:"dive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	items, err := h.catalogService.ResolveCart(c.Request.Context(), req.CartID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// respondError maps business errors to HTTP statuses: conflicts to 409,
// missing references to 404, everything else to a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrUnavailableProducts):
		c.JSON(http.StatusConflict, gin.H{"error": "You've selected some unavailable products"})
	case errors.Is(err, store.ErrOrderNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": "Order can't be cancelled once processed. Please contact support."})
	case errors.Is(err, store.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No order found"})
	case errors.Is(err, store.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No product found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Something went wrong",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
