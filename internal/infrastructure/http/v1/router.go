// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"sorvetao/internal/domain/catalogs/client"
	"sorvetao/internal/domain/checkout"
	"sorvetao/internal/domain/ordering"
	"sorvetao/internal/infrastructure/cache"
	"sorvetao/internal/infrastructure/http/v1/handlers"
	"sorvetao/internal/infrastructure/http/v1/middleware"
	"sorvetao/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	Ordering *ordering.Service
	Checkout *checkout.Service
	Clients  client.Repository

	// Idempotency protects checkout retries; nil disables it
	Idempotency middleware.IdempotencyStore

	// DB and CatalogCache feed the readiness probe; both optional
	DB           handlers.Pinger
	CatalogCache *cache.CatalogCache

	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.CatalogCache, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	base := handlers.NewBaseHandler()

	registerCatalogRoutes(v1, base, cfg)
	registerSessionRoutes(v1, base, cfg)

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalog := handlers.NewCatalogHandler(base, cfg.Ordering)
	rg.GET("/catalog", catalog.Get)

	clients := handlers.NewClientHandler(base, cfg.Clients)
	rg.GET("/clients", clients.List)
	rg.GET("/clients/:clientId", clients.Get)
}

func registerSessionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSessionHandler(base, cfg.Ordering)

	sessions := rg.Group("/order-sessions")
	sessions.POST("", h.Start)

	s := sessions.Group("/:id")
	{
		s.GET("", h.Get)
		s.DELETE("", h.Cancel)
		s.PUT("/client", h.SelectClient)
		s.PUT("/categories/:categoryId/sale-unit", h.SwitchSaleUnit)
		s.POST("/items", h.ChangeQuantity)
		s.DELETE("/items", h.ClearCart)
		s.PUT("/fulfillment", h.SetFulfillment)
		s.PUT("/discount", h.SetDiscount)
		s.DELETE("/discount", h.ClearDiscount)
	}

	co := handlers.NewCheckoutHandler(base, cfg.Checkout)
	if cfg.Idempotency != nil {
		s.POST("/checkout", middleware.Idempotency(cfg.Idempotency), co.Checkout)
		return
	}
	s.POST("/checkout", co.Checkout)
}
