package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/domain/ordering"
	"sorvetao/internal/infrastructure/http/v1/dto"
)

// SessionHandler exposes order-entry sessions. Every response carries the
// full re-projected session so the screen never computes totals itself.
type SessionHandler struct {
	*BaseHandler
	service *ordering.Service
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(base *BaseHandler, service *ordering.Service) *SessionHandler {
	return &SessionHandler{BaseHandler: base, service: service}
}

// Start handles POST /order-sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req dto.StartSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	channel, err := ordering.ParseChannel(req.Channel)
	if err != nil {
		h.Error(c, err)
		return
	}

	view, err := h.service.Start(c.Request.Context(), ordering.StartRequest{Channel: channel, ClientID: req.ClientID})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+view.ID.String())
	h.Created(c, dto.FromSessionView(view))
}

// Get handles GET /order-sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.Get(c.Request.Context(), sid))
}

// Cancel handles DELETE /order-sessions/:id
func (h *SessionHandler) Cancel(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), sid); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// SelectClient handles PUT /order-sessions/:id/client
func (h *SessionHandler) SelectClient(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	var req dto.SelectClientRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c)(h.service.SelectClient(c.Request.Context(), sid, req.ClientID))
}

// SwitchSaleUnit handles PUT /order-sessions/:id/categories/:categoryId/sale-unit
func (h *SessionHandler) SwitchSaleUnit(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	var req dto.SwitchSaleUnitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c)(h.service.SwitchSaleUnit(c.Request.Context(), sid, c.Param("categoryId"), req.SaleUnitID))
}

// ChangeQuantity handles POST /order-sessions/:id/items
func (h *SessionHandler) ChangeQuantity(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	var req dto.ChangeQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c)(h.service.ChangeQuantity(c.Request.Context(), sid, req.ProductID, req.Delta))
}

// ClearCart handles DELETE /order-sessions/:id/items
func (h *SessionHandler) ClearCart(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.ClearCart(c.Request.Context(), sid))
}

// SetFulfillment handles PUT /order-sessions/:id/fulfillment
func (h *SessionHandler) SetFulfillment(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	var req dto.FulfillmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	mode, err := ordering.ParseFulfillmentMode(req.Mode)
	if err != nil {
		h.Error(c, err)
		return
	}

	var date *time.Time
	if req.RequestedDate != nil && strings.TrimSpace(*req.RequestedDate) != "" {
		d, err := time.Parse(dto.DateLayout, strings.TrimSpace(*req.RequestedDate))
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid requested date").
				WithDetail("field", "requestedDate").
				WithDetail("format", dto.DateLayout))
			return
		}
		date = &d
	}
	h.respond(c)(h.service.SetFulfillment(c.Request.Context(), sid, mode, date))
}

// SetDiscount handles PUT /order-sessions/:id/discount
func (h *SessionHandler) SetDiscount(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	var req dto.DiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	value, err := dto.ParseMoney("value", req.Value)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c)(h.service.SetDiscount(c.Request.Context(), sid, value, req.Reason))
}

// ClearDiscount handles DELETE /order-sessions/:id/discount
func (h *SessionHandler) ClearDiscount(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.ClearDiscount(c.Request.Context(), sid))
}

func (h *SessionHandler) respond(c *gin.Context) func(*ordering.SessionView, error) {
	return func(view *ordering.SessionView, err error) {
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromSessionView(view))
	}
}
