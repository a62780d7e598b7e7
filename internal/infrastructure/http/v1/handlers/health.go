package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sorvetao/internal/infrastructure/cache"
)

// Pinger checks a dependency. *postgres.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      Pinger
	catalog *cache.CatalogCache
	version string
}

// NewHealthHandler creates a new health handler. A nil db or catalog is
// left out of the readiness checks.
func NewHealthHandler(db Pinger, catalog *cache.CatalogCache, version string) *HealthHandler {
	return &HealthHandler{db: db, catalog: catalog, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "healthy"
		}
	}
	if h.catalog != nil {
		if h.catalog.GetStats().LoadedAt.IsZero() {
			checks["catalog"] = "not loaded"
			healthy = false
		} else {
			checks["catalog"] = "loaded"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "sorvetao",
		"version": h.version,
	}
	if h.catalog != nil {
		st := h.catalog.GetStats()
		info["catalog"] = gin.H{
			"categories": st.Categories,
			"products":   st.Products,
			"loaded_at":  st.LoadedAt,
			"reloads":    st.Reloads,
			"failures":   st.Failures,
		}
	}
	c.JSON(http.StatusOK, info)
}
