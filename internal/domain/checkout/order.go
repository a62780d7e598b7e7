// Package checkout turns a finished order-entry session into a placed order.
package checkout

import (
	"strings"
	"time"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/id"
	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/ordering"
)

// PaymentMethod is how an initial payment was made.
type PaymentMethod string

const (
	PaymentPIX        PaymentMethod = "PIX"
	PaymentCash       PaymentMethod = "Dinheiro"
	PaymentCreditCard PaymentMethod = "Cartão de Crédito"
	PaymentDebitCard  PaymentMethod = "Cartão de Débito"
)

var paymentMethods = []PaymentMethod{PaymentPIX, PaymentCash, PaymentCreditCard, PaymentDebitCard}

// ParsePaymentMethod accepts a method label, case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	for _, m := range paymentMethods {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", apperror.NewValidation("unknown payment method").
		WithDetail("field", "payment.method").
		WithDetail("value", s)
}

// Payment records money received when the order is taken. Nothing is charged.
type Payment struct {
	Amount    types.Money   `json:"amount"`
	Method    PaymentMethod `json:"method"`
	PaidAt    time.Time     `json:"paidAt"`
	Reference string        `json:"reference,omitempty"`
}

// Validate checks the payment against the order's grand total.
func (p *Payment) Validate(grandTotal types.Money) error {
	if _, err := ParsePaymentMethod(string(p.Method)); err != nil {
		return err
	}
	if p.Amount.IsNegative() || !types.HasAtMostPlaces(p.Amount, 2) {
		return apperror.NewValidation("payment amount must be a non-negative value with at most 2 decimal places").
			WithDetail("field", "payment.amount")
	}
	if p.Amount.GreaterThan(grandTotal) {
		return apperror.NewValidation("payment amount exceeds the order total").
			WithDetail("field", "payment.amount").
			WithDetail("amount", types.FixedString(p.Amount)).
			WithDetail("grandTotal", types.FixedString(grandTotal))
	}
	return nil
}

// OrderLine is a cart line as it was placed.
type OrderLine struct {
	ProductID     string      `json:"productId"`
	ProductName   string      `json:"productName"`
	SaleUnitID    string      `json:"saleUnitId"`
	SaleUnitLabel string      `json:"saleUnitLabel"`
	Quantity      int         `json:"quantity"`
	Multiplier    int         `json:"multiplier"`
	BaseUnits     int         `json:"baseUnits"`
	UnitPrice     types.Money `json:"unitPrice"`
	LineTotal     types.Money `json:"lineTotal"`
}

// OrderGroup is the lines of one category.
type OrderGroup struct {
	CategoryID     string      `json:"categoryId"`
	CategoryName   string      `json:"categoryName"`
	TotalBaseUnits int         `json:"totalBaseUnits"`
	Subtotal       types.Money `json:"subtotal"`
	Lines          []OrderLine `json:"lines"`
}

// Order is what the checkout consumer receives.
type Order struct {
	ID                    id.ID                    `json:"id"`
	Number                string                   `json:"number"`
	SessionID             id.ID                    `json:"sessionId"`
	Channel               ordering.Channel         `json:"channel"`
	ClientID              string                   `json:"clientId"`
	ClientName            string                   `json:"clientName"`
	Mode                  ordering.FulfillmentMode `json:"mode"`
	RequestedDeliveryDate *time.Time               `json:"requestedDeliveryDate,omitempty"`
	Groups                []OrderGroup             `json:"groups"`
	TotalBaseUnits        int                      `json:"totalBaseUnits"`
	Subtotal              types.Money              `json:"subtotal"`
	Discount              types.Money              `json:"discount"`
	DiscountReason        string                   `json:"discountReason,omitempty"`
	PromotionID           string                   `json:"promotionId,omitempty"`
	DeliveryFee           types.Money              `json:"deliveryFee"`
	GrandTotal            types.Money              `json:"grandTotal"`
	Payment               *Payment                 `json:"payment,omitempty"`
	Notes                 string                   `json:"notes,omitempty"`
	PlacedAt              time.Time                `json:"placedAt"`
}

// AmountDue is what is left to pay after the initial payment.
func (o *Order) AmountDue() types.Money {
	if o.Payment == nil {
		return o.GrandTotal
	}
	return o.GrandTotal.Sub(o.Payment.Amount)
}

func newOrder(view *ordering.SessionView, now time.Time) *Order {
	sum := view.Summary
	o := &Order{
		ID:                    id.New(),
		SessionID:             view.ID,
		Channel:               view.Channel,
		Mode:                  sum.Mode,
		RequestedDeliveryDate: view.RequestedDeliveryDate,
		Groups:                make([]OrderGroup, 0, len(sum.Groups)),
		TotalBaseUnits:        sum.TotalBaseUnits,
		Subtotal:              sum.OrderSubtotal,
		Discount:              sum.Discount(),
		DiscountReason:        sum.DiscountReason,
		DeliveryFee:           sum.DeliveryFee,
		GrandTotal:            sum.DisplayGrandTotal(),
		PlacedAt:              now,
	}
	if view.Client != nil {
		o.ClientID = view.Client.ID
		o.ClientName = view.Client.Name
	}
	if view.Promotion != nil {
		o.PromotionID = view.Promotion.RuleID
	}

	for _, g := range sum.Groups {
		og := OrderGroup{
			CategoryID:     g.CategoryID,
			CategoryName:   g.CategoryName,
			TotalBaseUnits: g.TotalBaseUnits,
			Subtotal:       g.Subtotal,
			Lines:          make([]OrderLine, 0, len(g.Lines)),
		}
		for _, l := range g.Lines {
			og.Lines = append(og.Lines, OrderLine{
				ProductID:     l.ProductID,
				ProductName:   l.ProductName,
				SaleUnitID:    l.SaleUnitID,
				SaleUnitLabel: l.SaleUnitLabel,
				Quantity:      l.Quantity,
				Multiplier:    l.Multiplier,
				BaseUnits:     l.BaseUnits(),
				UnitPrice:     l.UnitPrice,
				LineTotal:     l.LineTotal(),
			})
		}
		o.Groups = append(o.Groups, og)
	}
	return o
}
