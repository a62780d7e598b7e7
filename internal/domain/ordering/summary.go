package ordering

import (
	"strings"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
)

// FulfillmentMode is how the order reaches the client.
type FulfillmentMode string

const (
	ModePickup   FulfillmentMode = "pickup"
	ModeDelivery FulfillmentMode = "delivery"
)

// ParseFulfillmentMode accepts "pickup" or "delivery" (case-insensitive).
func ParseFulfillmentMode(s string) (FulfillmentMode, error) {
	switch FulfillmentMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePickup:
		return ModePickup, nil
	case ModeDelivery:
		return ModeDelivery, nil
	}
	return "", apperror.NewValidation("invalid fulfillment mode").
		WithDetail("field", "mode").
		WithDetail("value", s)
}

// Adjustments are the order-level inputs of the projection.
type Adjustments struct {
	Mode           FulfillmentMode
	DiscountValue  *types.Money
	DiscountReason string

	// DeliveryFee is ignored unless Mode is delivery
	DeliveryFee types.Money
}

// CategoryGroup is the per-category block of the summary.
type CategoryGroup struct {
	CategoryID     string      `json:"categoryId"`
	CategoryName   string      `json:"categoryName"`
	Lines          []CartLine  `json:"lines"`
	TotalBaseUnits int         `json:"totalBaseUnits"`
	Subtotal       types.Money `json:"subtotal"`
	ItemCount      int         `json:"itemCount"`
}

// OrderSummary is derived from a cart and never stored.
type OrderSummary struct {
	Groups         []CategoryGroup `json:"groups"`
	OrderSubtotal  types.Money     `json:"orderSubtotal"`
	TotalBaseUnits int             `json:"totalBaseUnits"`
	Mode           FulfillmentMode `json:"mode"`
	DiscountValue  *types.Money    `json:"discountValue,omitempty"`
	DiscountReason string          `json:"discountReason,omitempty"`
	DeliveryFee    types.Money     `json:"deliveryFee"`

	// GrandTotal keeps full precision; use DisplayGrandTotal for output
	GrandTotal types.Money `json:"grandTotal"`
}

// Discount returns the discount value or zero.
func (s OrderSummary) Discount() types.Money {
	if s.DiscountValue == nil {
		return types.Zero()
	}
	return *s.DiscountValue
}

// DisplayGrandTotal rounds the grand total half-up to 2 places.
func (s OrderSummary) DisplayGrandTotal() types.Money {
	return types.RoundDisplay(s.GrandTotal)
}

// LineCount returns the number of cart lines across groups.
func (s OrderSummary) LineCount() int {
	n := 0
	for _, g := range s.Groups {
		n += g.ItemCount
	}
	return n
}

// Project groups cart lines by category and computes the order totals.
// Groups follow the order in which their first line entered the cart.
// The discount is applied once at order level and is not clamped, so a
// discount above the subtotal yields a smaller, possibly negative, total.
func Project(cart *Cart, adj Adjustments) OrderSummary {
	summary := OrderSummary{
		Groups:         []CategoryGroup{},
		OrderSubtotal:  types.Zero(),
		Mode:           adj.Mode,
		DiscountReason: adj.DiscountReason,
		DeliveryFee:    types.Zero(),
	}

	index := make(map[string]int)
	for _, line := range cart.Lines() {
		i, ok := index[line.CategoryID]
		if !ok {
			i = len(summary.Groups)
			index[line.CategoryID] = i
			summary.Groups = append(summary.Groups, CategoryGroup{
				CategoryID:   line.CategoryID,
				CategoryName: line.CategoryName,
				Subtotal:     types.Zero(),
			})
		}

		g := &summary.Groups[i]
		g.Lines = append(g.Lines, line)
		g.TotalBaseUnits += line.BaseUnits()
		g.Subtotal = g.Subtotal.Add(line.LineTotal())
		g.ItemCount++
	}

	for _, g := range summary.Groups {
		summary.OrderSubtotal = summary.OrderSubtotal.Add(g.Subtotal)
		summary.TotalBaseUnits += g.TotalBaseUnits
	}

	if adj.DiscountValue != nil {
		d := *adj.DiscountValue
		summary.DiscountValue = &d
	}

	if adj.Mode == ModeDelivery {
		summary.DeliveryFee = adj.DeliveryFee
	}

	summary.GrandTotal = summary.OrderSubtotal.
		Sub(summary.Discount()).
		Add(summary.DeliveryFee)

	return summary
}
