package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sorvetao/internal/domain/ordering"
	"sorvetao/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves the product catalog of the order-entry screen.
type CatalogHandler struct {
	*BaseHandler
	service *ordering.Service
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(base *BaseHandler, service *ordering.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// Get handles GET /catalog?search=
// Categories left without matching products are dropped from a search.
func (h *CatalogHandler) Get(c *gin.Context) {
	snap, err := h.service.Catalog(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	categories := snap.Categories()
	if term := strings.TrimSpace(c.Query("search")); term != "" {
		categories = snap.Search(term)
	}
	h.OK(c, dto.FromCategories(categories, snap.LoadedAt()))
}
