package ordering

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sorvetao/internal/core/apperror"
	appctx "sorvetao/internal/core/context"
	"sorvetao/internal/core/id"
	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/domain/catalogs/client"
	"sorvetao/internal/domain/promotion"
	"sorvetao/pkg/logger"
)

// PromotionEvaluator picks an automatic discount for the order, if any.
type PromotionEvaluator interface {
	Best(ctx context.Context, f promotion.Facts) (*promotion.Applied, error)
}

// SessionView is a consistent copy of a session and its derived figures.
type SessionView struct {
	ID                    id.ID                `json:"id"`
	Channel               Channel              `json:"channel"`
	Client                *client.Client       `json:"client,omitempty"`
	ClientLocked          bool                 `json:"clientLocked"`
	ActiveTabs            map[string]string    `json:"activeTabs"`
	Mode                  FulfillmentMode      `json:"mode"`
	RequestedDeliveryDate *time.Time           `json:"requestedDeliveryDate,omitempty"`
	ManualDiscount        *Discount            `json:"manualDiscount,omitempty"`
	Promotion             *promotion.Applied   `json:"promotion,omitempty"`
	Summary               OrderSummary         `json:"summary"`
	Eligibility           *DeliveryEligibility `json:"eligibility,omitempty"`
	State                 CartState            `json:"state"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

// StartRequest opens a session. Portal sessions require ClientID.
type StartRequest struct {
	Channel  Channel
	ClientID string
}

// ServiceConfig configures the ordering service.
type ServiceConfig struct {
	Catalog    assortment.Provider
	Clients    client.Repository
	Store      SessionStore
	Promotions PromotionEvaluator // optional

	// Now defaults to time.Now
	Now func() time.Time
}

// Service runs order-entry sessions for the HTTP layer. Every mutation
// re-projects the summary and eligibility before returning.
type Service struct {
	catalog    assortment.Provider
	clients    client.Repository
	store      SessionStore
	promotions PromotionEvaluator
	now        func() time.Time
}

// NewService creates a new ordering service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog:    cfg.Catalog,
		clients:    cfg.Clients,
		store:      cfg.Store,
		promotions: cfg.Promotions,
		now:        now,
	}
}

// Catalog returns the current catalog snapshot.
func (s *Service) Catalog(ctx context.Context) (*assortment.Snapshot, error) {
	snap, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return snap, nil
}

// Start opens a session over the current catalog snapshot.
func (s *Service) Start(ctx context.Context, req StartRequest) (*SessionView, error) {
	clientID := strings.TrimSpace(req.ClientID)
	switch {
	case req.Channel != ChannelPortal && req.Channel != ChannelAdmin:
		return nil, apperror.NewValidation("invalid channel").
			WithDetail("field", "channel").
			WithDetail("value", string(req.Channel))
	case req.Channel == ChannelPortal && clientID == "":
		return nil, apperror.NewValidation("portal sessions require a client").
			WithDetail("field", "clientId")
	}

	snap, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := NewSession(req.Channel, snap, s.now())
	if err != nil {
		return nil, err
	}

	if clientID != "" {
		c, err := s.clients.GetByID(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if err := sess.SelectClient(c); err != nil {
			return nil, err
		}
		sess.ClientLocked = req.Channel == ChannelPortal
	}

	view, err := s.price(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Info(withSession(ctx, sess), "order session started",
		"categories", len(snap.Categories()),
		"products", snap.ProductCount())

	return view, nil
}

// Get returns the current view of a session.
func (s *Service) Get(ctx context.Context, sessionID id.ID) (*SessionView, error) {
	var view *SessionView
	err := s.store.View(ctx, sessionID, func(sess *Session) error {
		v, err := s.price(ctx, sess)
		view = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SelectClient looks the client up and attaches it to the session.
func (s *Service) SelectClient(ctx context.Context, sessionID id.ID, clientID string) (*SessionView, error) {
	c, err := s.clients.GetByID(ctx, strings.TrimSpace(clientID))
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, "select_client", func(sess *Session) error {
		return sess.SelectClient(c)
	})
}

// SwitchSaleUnit changes the active tab of a multi-pack category.
func (s *Service) SwitchSaleUnit(ctx context.Context, sessionID id.ID, categoryID, saleUnitID string) (*SessionView, error) {
	return s.mutate(ctx, sessionID, "switch_sale_unit", func(sess *Session) error {
		return sess.SwitchSaleUnit(categoryID, saleUnitID)
	})
}

// ChangeQuantity adds delta packs of a product under the active tab.
func (s *Service) ChangeQuantity(ctx context.Context, sessionID id.ID, productID string, delta int) (*SessionView, error) {
	return s.mutate(ctx, sessionID, "change_quantity", func(sess *Session) error {
		_, _, err := sess.ChangeQuantity(productID, delta)
		return err
	})
}

// SetFulfillment chooses pickup or delivery.
func (s *Service) SetFulfillment(ctx context.Context, sessionID id.ID, mode FulfillmentMode, date *time.Time) (*SessionView, error) {
	return s.mutate(ctx, sessionID, "set_fulfillment", func(sess *Session) error {
		return sess.SetFulfillment(mode, date)
	})
}

// SetDiscount applies a manual discount, which overrides promotions.
func (s *Service) SetDiscount(ctx context.Context, sessionID id.ID, value types.Money, reason string) (*SessionView, error) {
	return s.mutate(ctx, sessionID, "set_discount", func(sess *Session) error {
		return sess.SetDiscount(value, reason)
	})
}

// ClearDiscount removes the manual discount.
func (s *Service) ClearDiscount(ctx context.Context, sessionID id.ID) (*SessionView, error) {
	return s.mutate(ctx, sessionID, "clear_discount", func(sess *Session) error {
		sess.ClearDiscount()
		return nil
	})
}

// ClearCart empties the cart and keeps the other choices.
func (s *Service) ClearCart(ctx context.Context, sessionID id.ID) (*SessionView, error) {
	return s.mutate(ctx, sessionID, "clear_cart", func(sess *Session) error {
		sess.Clear()
		return nil
	})
}

// Cancel discards the session.
func (s *Service) Cancel(ctx context.Context, sessionID id.ID) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	logger.Info(ctx, "order session cancelled", "session_id", sessionID.String())
	return nil
}

// Settle runs fn with the locked session and its priced view, then removes
// the session if fn succeeds.
func (s *Service) Settle(ctx context.Context, sessionID id.ID, fn func(ctx context.Context, sess *Session, view *SessionView) error) error {
	return s.store.Finish(ctx, sessionID, func(sess *Session) error {
		ctx := withSession(ctx, sess)
		view, err := s.price(ctx, sess)
		if err != nil {
			return err
		}
		return fn(ctx, sess, view)
	})
}

func (s *Service) mutate(ctx context.Context, sessionID id.ID, op string, fn func(sess *Session) error) (*SessionView, error) {
	var view *SessionView
	err := s.store.Update(ctx, sessionID, func(sess *Session) error {
		ctx := withSession(ctx, sess)
		if err := fn(sess); err != nil {
			return err
		}
		sess.UpdatedAt = s.now()

		v, err := s.price(ctx, sess)
		if err != nil {
			return err
		}
		view = v

		logger.Debug(ctx, "order session updated",
			"op", op,
			"lines", v.Summary.LineCount(),
			"subtotal", v.Summary.OrderSubtotal.String(),
			"grand_total", v.Summary.GrandTotal.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// price projects the session. Without a manual discount the best promotion
// applies, capped at the subtotal.
func (s *Service) price(ctx context.Context, sess *Session) (*SessionView, error) {
	adj := sess.Adjustments()
	summary := Project(sess.Cart, adj)

	var applied *promotion.Applied
	if sess.Discount == nil && s.promotions != nil && !sess.Cart.IsEmpty() {
		facts := promotion.Facts{
			Subtotal:  summary.OrderSubtotal,
			BaseUnits: summary.TotalBaseUnits,
			Mode:      string(sess.Mode),
			Channel:   string(sess.Channel),
		}
		if sess.Client != nil {
			facts.ClientID = sess.Client.ID
		}

		best, err := s.promotions.Best(ctx, facts)
		if err != nil {
			return nil, fmt.Errorf("evaluate promotions: %w", err)
		}
		if best != nil && best.Value.IsPositive() {
			value := types.MinMoney(best.Value, summary.OrderSubtotal)
			applied = &promotion.Applied{RuleID: best.RuleID, Reason: best.Reason, Value: value}
			adj.DiscountValue = &value
			adj.DiscountReason = best.Reason
			summary = Project(sess.Cart, adj)
		}
	}

	view := &SessionView{
		ID:                    sess.ID,
		Channel:               sess.Channel,
		Client:                sess.Client,
		ClientLocked:          sess.ClientLocked,
		ActiveTabs:            make(map[string]string, len(sess.ActiveTabs)),
		Mode:                  sess.Mode,
		RequestedDeliveryDate: sess.RequestedDeliveryDate,
		Promotion:             applied,
		Summary:               summary,
		State:                 sess.Cart.State(),
		CreatedAt:             sess.CreatedAt,
		UpdatedAt:             sess.UpdatedAt,
	}
	for k, v := range sess.ActiveTabs {
		view.ActiveTabs[k] = v
	}
	if sess.Discount != nil {
		d := *sess.Discount
		view.ManualDiscount = &d
	}
	if sess.Client != nil {
		e := CheckEligibility(summary.OrderSubtotal, sess.Client.MinimumOrderForDelivery, sess.Mode)
		view.Eligibility = &e
	}

	return view, nil
}

func withSession(ctx context.Context, sess *Session) context.Context {
	sc := &appctx.SessionContext{
		SessionID: sess.ID.String(),
		Channel:   string(sess.Channel),
	}
	if sess.Client != nil {
		sc.ClientID = sess.Client.ID
	}
	return appctx.WithSession(ctx, sc)
}
