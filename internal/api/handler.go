package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"shopping-service/internal/models"
	"shopping-service/internal/service"
	"shopping-service/internal/session"
	"shopping-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Catalog is the item catalog used by the lister
type Catalog interface {
	Stores() []string
	ListItems(ctx context.Context) ([]models.Item, error)
	AddItem(ctx context.Context, req *service.AddItemRequest) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	ClearList(ctx context.Context) (int64, error)
}

// Sessions is the shopping session state machine
type Sessions interface {
	Start(ctx context.Context, req *service.StartSessionRequest, idempotencyKey string) (*service.SessionState, error)
	Resume(ctx context.Context) (*service.SessionState, error)
	Get(ctx context.Context, sessionID string) (*service.SessionState, error)
	TogglePurchased(ctx context.Context, sessionID, itemID string, lastKnown *bool) (*service.ToggleResult, error)
	MarkNotFound(ctx context.Context, sessionID, itemID string) (*service.ToggleResult, error)
	FinishStore(ctx context.Context, sessionID, fromStore string) (*service.AdvanceResult, error)
	Summary(ctx context.Context, sessionID string) (*session.Summary, error)
}

// Views builds participant snapshots
type Views interface {
	Lister(ctx context.Context) (*service.ListerView, error)
	Shopper(ctx context.Context) (*service.ShopperView, error)
	Visible(ctx context.Context, sessionID, store string) ([]models.Item, error)
	WatchLister(ctx context.Context, apply func(*service.ListerView) error) error
	WatchShopper(ctx context.Context, apply func(*service.ShopperView) error) error
}

// Push stores device registrations
type Push interface {
	Register(ctx context.Context, req *service.RegisterRequest) (*models.PushSubscription, error)
	List(ctx context.Context, role string) ([]models.PushSubscription, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	catalog  Catalog
	sessions Sessions
	views    Views
	push     Push
	checks   map[string]Pinger
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog Catalog, sessions Sessions, views Views, push Push, checks map[string]Pinger) *Handler {
	return &Handler{
		catalog:  catalog,
		sessions: sessions,
		views:    views,
		push:     push,
		checks:   checks,
		logger:   util.GetLogger(),
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
		v1.GET("/stores", h.listStores)

		v1.GET("/items", h.listItems)
		v1.POST("/items", h.addItem)
		v1.DELETE("/items", h.clearList)
		v1.DELETE("/items/:id", h.deleteItem)

		v1.POST("/sessions", h.startSession)
		v1.GET("/sessions/active", h.resumeSession)
		v1.GET("/sessions/:id", h.getSession)
		v1.POST("/sessions/:id/items/:itemId/toggle", h.togglePurchased)
		v1.POST("/sessions/:id/items/:itemId/not-found", h.markNotFound)
		v1.POST("/sessions/:id/finish-store", h.finishStore)
		v1.GET("/sessions/:id/visible", h.visibleItems)
		v1.GET("/sessions/:id/summary", h.summary)

		v1.GET("/views/lister", h.listerView)
		v1.GET("/views/shopper", h.shopperView)
		v1.GET("/views/lister/stream", h.streamListerView)
		v1.GET("/views/shopper/stream", h.streamShopperView)

		v1.POST("/push/subscriptions", h.registerPush)
		v1.GET("/push/subscriptions", h.listPush)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings the data store and cache
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, dep := range h.checks {
		if err := dep.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// writeError maps service errors onto HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUnknownStore),
		errors.Is(err, service.ErrInvalidStoreOrder):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrActiveSessionExists),
		errors.Is(err, service.ErrSessionCompleted):
		status = http.StatusConflict
	case errors.Is(err, service.ErrSessionNotCompleted):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}

// bindOptionalJSON binds a JSON body when one was sent
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
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
