package dto

import (
	"time"

	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/domain/ordering"
)

// DateLayout is the format of requested delivery dates.
const DateLayout = "2006-01-02"

// --- Request DTOs ---

// StartSessionRequest opens an order-entry session.
type StartSessionRequest struct {
	Channel  string `json:"channel" binding:"required"`
	ClientID string `json:"clientId"`
}

// SelectClientRequest picks the client of an admin session.
type SelectClientRequest struct {
	ClientID string `json:"clientId" binding:"required"`
}

// SwitchSaleUnitRequest selects a sale unit tab.
type SwitchSaleUnitRequest struct {
	SaleUnitID string `json:"saleUnitId" binding:"required"`
}

// ChangeQuantityRequest is a "+"/"-" press on a product card.
type ChangeQuantityRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Delta     int    `json:"delta" binding:"required,min=-9999,max=9999"`
}

// FulfillmentRequest chooses pickup or delivery.
type FulfillmentRequest struct {
	Mode          string  `json:"mode" binding:"required"`
	RequestedDate *string `json:"requestedDate"`
}

// DiscountRequest sets a manual discount.
type DiscountRequest struct {
	Value  string `json:"value" binding:"required"`
	Reason string `json:"reason"`
}

// --- Response DTOs ---

// LineResponse is one cart line.
type LineResponse struct {
	Key           string `json:"key"`
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	SaleUnitID    string `json:"saleUnitId"`
	SaleUnitLabel string `json:"saleUnitLabel"`
	Quantity      int    `json:"quantity"`
	Multiplier    int    `json:"multiplier"`
	BaseUnits     int    `json:"baseUnits"`
	UnitPrice     string `json:"unitPrice"`
	LineTotal     string `json:"lineTotal"`
}

// GroupResponse is one category block of the summary.
type GroupResponse struct {
	CategoryID     string         `json:"categoryId"`
	CategoryName   string         `json:"categoryName"`
	ItemCount      int            `json:"itemCount"`
	TotalBaseUnits int            `json:"totalBaseUnits"`
	Subtotal       string         `json:"subtotal"`
	Lines          []LineResponse `json:"lines"`
}

// SummaryResponse is the order summary panel.
type SummaryResponse struct {
	Groups         []GroupResponse `json:"groups"`
	LineCount      int             `json:"lineCount"`
	TotalBaseUnits int             `json:"totalBaseUnits"`
	OrderSubtotal  string          `json:"orderSubtotal"`
	DiscountValue  *string         `json:"discountValue,omitempty"`
	DiscountReason string          `json:"discountReason,omitempty"`
	DeliveryFee    string          `json:"deliveryFee"`
	GrandTotal     string          `json:"grandTotal"`
}

// EligibilityResponse is the delivery minimum indicator.
type EligibilityResponse struct {
	IsEligible bool   `json:"isEligible"`
	Shortfall  string `json:"shortfall"`
}

// DiscountResponse is the manual discount.
type DiscountResponse struct {
	Value  string `json:"value"`
	Reason string `json:"reason,omitempty"`
}

// PromotionResponse is the automatic discount in effect.
type PromotionResponse struct {
	RuleID string `json:"ruleId"`
	Reason string `json:"reason"`
	Value  string `json:"value"`
}

// SessionResponse is the full order-entry state.
type SessionResponse struct {
	ID                    string               `json:"id"`
	Channel               ordering.Channel     `json:"channel"`
	State                 ordering.CartState   `json:"state"`
	Client                *ClientResponse      `json:"client,omitempty"`
	ClientLocked          bool                 `json:"clientLocked"`
	ActiveTabs            map[string]string    `json:"activeTabs"`
	Quantities            map[string]int       `json:"quantities"`
	Mode                  string               `json:"mode"`
	RequestedDeliveryDate *string              `json:"requestedDeliveryDate,omitempty"`
	ManualDiscount        *DiscountResponse    `json:"manualDiscount,omitempty"`
	Promotion             *PromotionResponse   `json:"promotion,omitempty"`
	Eligibility           *EligibilityResponse `json:"eligibility,omitempty"`
	Summary               SummaryResponse      `json:"summary"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

// FromSessionView maps a session view.
func FromSessionView(v *ordering.SessionView) SessionResponse {
	resp := SessionResponse{
		ID:           v.ID.String(),
		Channel:      v.Channel,
		State:        v.State,
		Client:       FromClient(v.Client),
		ClientLocked: v.ClientLocked,
		ActiveTabs:   v.ActiveTabs,
		Quantities:   make(map[string]int),
		Mode:         string(v.Mode),
		Summary:      fromSummary(v.Summary),
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.RequestedDeliveryDate != nil {
		d := v.RequestedDeliveryDate.Format(DateLayout)
		resp.RequestedDeliveryDate = &d
	}
	if v.ManualDiscount != nil {
		resp.ManualDiscount = &DiscountResponse{Value: Money(v.ManualDiscount.Value), Reason: v.ManualDiscount.Reason}
	}
	if v.Promotion != nil {
		resp.Promotion = &PromotionResponse{RuleID: v.Promotion.RuleID, Reason: v.Promotion.Reason, Value: Money(v.Promotion.Value)}
	}
	if v.Eligibility != nil {
		resp.Eligibility = &EligibilityResponse{IsEligible: v.Eligibility.IsEligible, Shortfall: Money(v.Eligibility.Shortfall)}
	}

	// quantities shown on the product cards under the active tabs
	for _, g := range v.Summary.Groups {
		for _, l := range g.Lines {
			tab, ok := v.ActiveTabs[l.CategoryID]
			if !ok {
				tab = assortment.SingleSaleUnitID
			}
			if l.SaleUnitID == tab {
				resp.Quantities[l.ProductID] = l.Quantity
			}
		}
	}
	return resp
}

func fromSummary(s ordering.OrderSummary) SummaryResponse {
	resp := SummaryResponse{
		Groups:         make([]GroupResponse, 0, len(s.Groups)),
		LineCount:      s.LineCount(),
		TotalBaseUnits: s.TotalBaseUnits,
		OrderSubtotal:  Money(s.OrderSubtotal),
		DiscountValue:  OptionalMoney(s.DiscountValue),
		DiscountReason: s.DiscountReason,
		DeliveryFee:    Money(s.DeliveryFee),
		GrandTotal:     Money(s.DisplayGrandTotal()),
	}
	for _, g := range s.Groups {
		gr := GroupResponse{
			CategoryID:     g.CategoryID,
			CategoryName:   g.CategoryName,
			ItemCount:      g.ItemCount,
			TotalBaseUnits: g.TotalBaseUnits,
			Subtotal:       Money(g.Subtotal),
			Lines:          make([]LineResponse, 0, len(g.Lines)),
		}
		for _, l := range g.Lines {
			gr.Lines = append(gr.Lines, LineResponse{
				Key:           l.Key.String(),
				ProductID:     l.ProductID,
				ProductName:   l.ProductName,
				SaleUnitID:    l.SaleUnitID,
				SaleUnitLabel: l.SaleUnitLabel,
				Quantity:      l.Quantity,
				Multiplier:    l.Multiplier,
				BaseUnits:     l.BaseUnits(),
				UnitPrice:     Money(l.UnitPrice),
				LineTotal:     Money(l.LineTotal()),
			})
		}
		resp.Groups = append(resp.Groups, gr)
	}
	return resp
}
