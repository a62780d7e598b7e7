package dto

import (
	"time"

	"sorvetao/internal/domain/checkout"
)

// PaymentRequest is the optional "Registrar Pagamento Inicial" block.
type PaymentRequest struct {
	Amount    string     `json:"amount" binding:"required"`
	Method    string     `json:"method" binding:"required"`
	PaidAt    *time.Time `json:"paidAt"`
	Reference string     `json:"reference"`
}

// CheckoutRequest finishes an order-entry session.
type CheckoutRequest struct {
	InitialPayment *PaymentRequest `json:"initialPayment"`
	Notes          string          `json:"notes"`
}

// ToRequest converts DTO to the checkout request.
func (r *CheckoutRequest) ToRequest() (checkout.Request, error) {
	req := checkout.Request{Notes: r.Notes}
	if r.InitialPayment == nil {
		return req, nil
	}

	amount, err := ParseMoney("initialPayment.amount", r.InitialPayment.Amount)
	if err != nil {
		return req, err
	}
	method, err := checkout.ParsePaymentMethod(r.InitialPayment.Method)
	if err != nil {
		return req, err
	}
	p := &checkout.Payment{Amount: amount, Method: method, Reference: r.InitialPayment.Reference}
	if r.InitialPayment.PaidAt != nil {
		p.PaidAt = *r.InitialPayment.PaidAt
	}
	req.InitialPayment = p
	return req, nil
}

// PaymentResponse is a recorded payment.
type PaymentResponse struct {
	Amount    string                 `json:"amount"`
	Method    checkout.PaymentMethod `json:"method"`
	PaidAt    time.Time              `json:"paidAt"`
	Reference string                 `json:"reference,omitempty"`
}

// OrderLineResponse is a placed line.
type OrderLineResponse struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	SaleUnitLabel string `json:"saleUnitLabel"`
	Quantity      int    `json:"quantity"`
	Multiplier    int    `json:"multiplier"`
	BaseUnits     int    `json:"baseUnits"`
	UnitPrice     string `json:"unitPrice"`
	LineTotal     string `json:"lineTotal"`
}

// OrderGroupResponse is a placed category block.
type OrderGroupResponse struct {
	CategoryID     string              `json:"categoryId"`
	CategoryName   string              `json:"categoryName"`
	TotalBaseUnits int                 `json:"totalBaseUnits"`
	Subtotal       string              `json:"subtotal"`
	Lines          []OrderLineResponse `json:"lines"`
}

// OrderResponse is the placed order.
type OrderResponse struct {
	ID                    string               `json:"id"`
	Number                string               `json:"number"`
	Channel               string               `json:"channel"`
	ClientID              string               `json:"clientId"`
	ClientName            string               `json:"clientName"`
	Mode                  string               `json:"mode"`
	RequestedDeliveryDate *string              `json:"requestedDeliveryDate,omitempty"`
	Groups                []OrderGroupResponse `json:"groups"`
	TotalBaseUnits        int                  `json:"totalBaseUnits"`
	Subtotal              string               `json:"subtotal"`
	Discount              string               `json:"discount"`
	DiscountReason        string               `json:"discountReason,omitempty"`
	DeliveryFee           string               `json:"deliveryFee"`
	GrandTotal            string               `json:"grandTotal"`
	Payment               *PaymentResponse     `json:"payment,omitempty"`
	AmountDue             string               `json:"amountDue"`
	Notes                 string               `json:"notes,omitempty"`
	PlacedAt              time.Time            `json:"placedAt"`
}

// FromOrder maps a placed order.
func FromOrder(o *checkout.Order) OrderResponse {
	resp := OrderResponse{
		ID:             o.ID.String(),
		Number:         o.Number,
		Channel:        string(o.Channel),
		ClientID:       o.ClientID,
		ClientName:     o.ClientName,
		Mode:           string(o.Mode),
		Groups:         make([]OrderGroupResponse, 0, len(o.Groups)),
		TotalBaseUnits: o.TotalBaseUnits,
		Subtotal:       Money(o.Subtotal),
		Discount:       Money(o.Discount),
		DiscountReason: o.DiscountReason,
		DeliveryFee:    Money(o.DeliveryFee),
		GrandTotal:     Money(o.GrandTotal),
		AmountDue:      Money(o.AmountDue()),
		Notes:          o.Notes,
		PlacedAt:       o.PlacedAt,
	}
	if o.RequestedDeliveryDate != nil {
		d := o.RequestedDeliveryDate.Format(DateLayout)
		resp.RequestedDeliveryDate = &d
	}
	if o.Payment != nil {
		resp.Payment = &PaymentResponse{
			Amount:    Money(o.Payment.Amount),
			Method:    o.Payment.Method,
			PaidAt:    o.Payment.PaidAt,
			Reference: o.Payment.Reference,
		}
	}
	for _, g := range o.Groups {
		gr := OrderGroupResponse{
			CategoryID:     g.CategoryID,
			CategoryName:   g.CategoryName,
			TotalBaseUnits: g.TotalBaseUnits,
			Subtotal:       Money(g.Subtotal),
			Lines:          make([]OrderLineResponse, 0, len(g.Lines)),
		}
		for _, l := range g.Lines {
			gr.Lines = append(gr.Lines, OrderLineResponse{
				ProductID:     l.ProductID,
				ProductName:   l.ProductName,
				SaleUnitLabel: l.SaleUnitLabel,
				Quantity:      l.Quantity,
				Multiplier:    l.Multiplier,
				BaseUnits:     l.BaseUnits,
				UnitPrice:     Money(l.UnitPrice),
				LineTotal:     Money(l.LineTotal),
			})
		}
		resp.Groups = append(resp.Groups, gr)
	}
	return resp
}
