package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sorvetao/internal/domain/catalogs/client"
	"sorvetao/internal/infrastructure/http/v1/dto"
)

const maxClientSearchLimit = 100

// ClientHandler serves the admin client picker.
type ClientHandler struct {
	*BaseHandler
	repo client.Repository
}

// NewClientHandler creates a client handler.
func NewClientHandler(base *BaseHandler, repo client.Repository) *ClientHandler {
	return &ClientHandler{BaseHandler: base, repo: repo}
}

// List handles GET /clients?search=&limit=
func (h *ClientHandler) List(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 20)
	if limit < 1 || limit > maxClientSearchLimit {
		limit = 20
	}

	list, err := h.repo.Search(c.Request.Context(), strings.TrimSpace(c.Query("search")), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromClients(list))
}

// Get handles GET /clients/:clientId
func (h *ClientHandler) Get(c *gin.Context) {
	cl, err := h.repo.GetByID(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromClient(cl))
}
