package handlers

import (
	"github.com/gin-gonic/gin"

	"sorvetao/internal/domain/checkout"
	"sorvetao/internal/infrastructure/http/v1/dto"
)

// CheckoutHandler places orders.
type CheckoutHandler struct {
	*BaseHandler
	service *checkout.Service
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(base *BaseHandler, service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{BaseHandler: base, service: service}
}

// Checkout handles POST /order-sessions/:id/checkout
// An empty body places the order without an initial payment.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	sid, ok := h.SessionID(c)
	if !ok {
		return
	}

	var body dto.CheckoutRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.Checkout(c.Request.Context(), sid, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromOrder(order))
}
