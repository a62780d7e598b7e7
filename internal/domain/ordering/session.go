package ordering

import (
	"errors"
	"strings"
	"time"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/id"
	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/domain/catalogs/client"
)

// Channel is the screen the order is entered from.
type Channel string

const (
	ChannelAdmin  Channel = "admin"  // back office "Criar Novo Pedido"
	ChannelPortal Channel = "portal" // customer portal "Novo Pedido"
)

// ParseChannel validates a channel name.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelAdmin:
		return ChannelAdmin, nil
	case ChannelPortal:
		return ChannelPortal, nil
	}
	return "", apperror.NewValidation("invalid channel").
		WithDetail("field", "channel").
		WithDetail("value", s)
}

// Discount is a manual order-level discount.
type Discount struct {
	Value  types.Money `json:"value"`
	Reason string      `json:"reason,omitempty"`
}

// Session is one order-entry visit: the catalog it started with, the active
// sale unit tab per category, the cart and the order-level choices.
// It is not safe for concurrent use.
type Session struct {
	ID      id.ID
	Channel Channel

	// Catalog is the read-only snapshot taken at start
	Catalog *assortment.Snapshot

	// ActiveTabs maps multi-pack category ID to the selected sale unit ID
	ActiveTabs map[string]string

	Cart   *Cart
	Client *client.Client

	// ClientLocked is set for portal sessions, which order for their own account
	ClientLocked bool

	Mode                  FulfillmentMode
	RequestedDeliveryDate *time.Time
	Discount              *Discount

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession starts an empty pickup order over catalog. Every multi-pack
// category starts on its first sale unit.
func NewSession(channel Channel, catalog *assortment.Snapshot, now time.Time) (*Session, error) {
	if catalog == nil {
		return nil, apperror.NewInternal(errors.New("catalog snapshot is required"))
	}

	tabs := make(map[string]string)
	for _, c := range catalog.Categories() {
		if def, ok := c.DefaultSaleUnit(); ok {
			tabs[c.ID] = def.ID
		}
	}

	return &Session{
		ID:         id.New(),
		Channel:    channel,
		Catalog:    catalog,
		ActiveTabs: tabs,
		Cart:       NewCart(),
		Mode:       ModePickup,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *Session) category(categoryID string) (*assortment.Category, error) {
	c, ok := s.Catalog.Category(categoryID)
	if !ok {
		return nil, apperror.NewNotFound("category", categoryID)
	}
	return c, nil
}

// ActiveSaleUnit returns the selected tab of a category; simple categories
// report the implicit single unit.
func (s *Session) ActiveSaleUnit(categoryID string) (assortment.SaleUnitOption, error) {
	c, err := s.category(categoryID)
	if err != nil {
		return assortment.SaleUnitOption{}, err
	}
	if !c.MultiPack() {
		return assortment.SingleUnit(), nil
	}
	opt, ok := c.SaleUnit(s.ActiveTabs[c.ID])
	if !ok {
		opt, _ = c.DefaultSaleUnit()
	}
	return opt, nil
}

// SwitchSaleUnit changes the active tab. Existing lines are untouched;
// later changes go to the line keyed by the new sale unit.
func (s *Session) SwitchSaleUnit(categoryID, saleUnitID string) error {
	c, err := s.category(categoryID)
	if err != nil {
		return err
	}
	if !c.MultiPack() {
		return apperror.NewValidation("category has a single sale unit").
			WithDetail("categoryId", categoryID)
	}
	if _, ok := c.SaleUnit(saleUnitID); !ok {
		return apperror.NewNotFound("sale unit", saleUnitID).
			WithDetail("categoryId", categoryID)
	}
	s.ActiveTabs[c.ID] = saleUnitID
	return nil
}

// MaxQuantityDelta bounds a single quantity change in either direction.
const MaxQuantityDelta = 9999

// ChangeQuantity applies delta packs to productID under its category's
// active tab and returns the resulting line, if any.
func (s *Session) ChangeQuantity(productID string, delta int) (CartLine, bool, error) {
	if delta > MaxQuantityDelta || delta < -MaxQuantityDelta {
		return CartLine{}, false, apperror.NewValidation("quantity change out of range").
			WithDetail("delta", delta).
			WithDetail("max", MaxQuantityDelta)
	}
	p, ok := s.Catalog.Product(productID)
	if !ok {
		return CartLine{}, false, apperror.NewNotFound("product", productID)
	}
	c, _ := s.Catalog.CategoryOf(p)

	var option *assortment.SaleUnitOption
	if c != nil && c.MultiPack() {
		opt, err := s.ActiveSaleUnit(c.ID)
		if err != nil {
			return CartLine{}, false, err
		}
		option = &opt
	}

	line, present := s.Cart.Increment(p, c, option, delta)
	return line, present, nil
}

// Quantity returns the packs of productID under the active tab.
func (s *Session) Quantity(productID string) int {
	p, ok := s.Catalog.Product(productID)
	if !ok {
		return 0
	}
	unit, err := s.ActiveSaleUnit(p.CategoryID)
	if err != nil {
		return 0
	}
	line, ok := s.Cart.Get(CartKey{ProductID: p.ID, SaleUnitID: unit.ID})
	if !ok {
		return 0
	}
	return line.Quantity
}

// SelectClient sets the client the order is for. Switching to a client
// without delivery falls back to pickup.
func (s *Session) SelectClient(c *client.Client) error {
	if c == nil {
		return apperror.NewValidation("client is required").WithDetail("field", "clientId")
	}
	if s.ClientLocked && s.Client != nil && s.Client.ID != c.ID {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "portal orders are bound to the signed-in client").
			WithDetail("clientId", c.ID)
	}
	if !c.IsActive() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "client is inactive").
			WithDetail("clientId", c.ID)
	}

	s.Client = c
	if s.Mode == ModeDelivery && !c.DeliveryEnabled {
		s.Mode = ModePickup
	}
	return nil
}

// SetFulfillment chooses pickup or delivery and the requested date.
func (s *Session) SetFulfillment(mode FulfillmentMode, date *time.Time) error {
	if mode != ModePickup && mode != ModeDelivery {
		return apperror.NewValidation("invalid fulfillment mode").
			WithDetail("field", "mode").
			WithDetail("value", string(mode))
	}
	if mode == ModeDelivery && s.Client != nil && !s.Client.DeliveryEnabled {
		return apperror.NewBusinessRule(apperror.CodeDeliveryDisabled, "delivery is not enabled for this client").
			WithDetail("clientId", s.Client.ID)
	}

	s.Mode = mode
	s.RequestedDeliveryDate = date
	return nil
}

// SetDiscount sets a manual discount. Whether it fits the subtotal is
// checked at checkout.
func (s *Session) SetDiscount(value types.Money, reason string) error {
	if value.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "value")
	}
	if !types.HasAtMostPlaces(value, types.MoneyPlaces) {
		return apperror.NewValidation("discount must have at most 2 fraction digits").
			WithDetail("field", "value")
	}
	s.Discount = &Discount{Value: value, Reason: strings.TrimSpace(reason)}
	return nil
}

// ClearDiscount removes the manual discount.
func (s *Session) ClearDiscount() {
	s.Discount = nil
}

// Clear empties the cart.
func (s *Session) Clear() {
	s.Cart.Clear()
}

// Adjustments builds projection inputs from the session choices.
func (s *Session) Adjustments() Adjustments {
	adj := Adjustments{
		Mode:        s.Mode,
		DeliveryFee: types.Zero(),
	}
	if s.Client != nil {
		adj.DeliveryFee = s.Client.DeliveryFee
	}
	if s.Discount != nil {
		v := s.Discount.Value
		adj.DiscountValue = &v
		adj.DiscountReason = s.Discount.Reason
	}
	return adj
}

// Summary projects the cart with the session adjustments.
func (s *Session) Summary() OrderSummary {
	return Project(s.Cart, s.Adjustments())
}

// Eligibility is nil until a client is selected.
func (s *Session) Eligibility() *DeliveryEligibility {
	if s.Client == nil {
		return nil
	}
	e := CheckEligibility(s.Summary().OrderSubtotal, s.Client.MinimumOrderForDelivery, s.Mode)
	return &e
}
