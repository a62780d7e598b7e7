package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/id"
	"sorvetao/internal/core/numerator"
	"sorvetao/internal/core/tx"
	"sorvetao/internal/core/types"
	"sorvetao/internal/domain"
	"sorvetao/internal/domain/ordering"
	"sorvetao/pkg/logger"
)

// Sessions hands out a priced session and drops it once fn succeeds.
// *ordering.Service implements it.
type Sessions interface {
	Settle(ctx context.Context, sessionID id.ID, fn func(ctx context.Context, sess *ordering.Session, view *ordering.SessionView) error) error
}

// Publisher delivers placed orders to the checkout consumer. It is called
// inside a transaction.
type Publisher interface {
	Publish(ctx context.Context, order *Order) error
}

// Request carries the checkout form fields that are not part of the session.
type Request struct {
	InitialPayment *Payment
	Notes          string
}

// ServiceConfig configures the checkout service.
type ServiceConfig struct {
	Sessions  Sessions
	Numerator numerator.Generator
	// NumberOptions defaults to strict numbering.
	NumberOptions *numerator.Options
	TxManager     tx.Manager
	Publisher     Publisher

	// Now defaults to time.Now
	Now func() time.Time
}

// Service places orders.
type Service struct {
	sessions  Sessions
	numerator numerator.Generator
	numOpts   *numerator.Options
	txManager tx.Manager
	publisher Publisher
	hooks     *domain.HookRegistry[*Order]
	now       func() time.Time
}

// NewService creates a checkout service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		sessions:  cfg.Sessions,
		numerator: cfg.Numerator,
		numOpts:   cfg.NumberOptions,
		txManager: cfg.TxManager,
		publisher: cfg.Publisher,
		hooks:     domain.NewHookRegistry[*Order](),
		now:       now,
	}
}

// Hooks returns the hook registry for external registration.
// BeforePlace hooks may reject the order; AfterPlace errors are only logged.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

// Checkout validates the session, numbers the order and publishes it.
// The session is removed only when publishing commits.
func (s *Service) Checkout(ctx context.Context, sessionID id.ID, req Request) (*Order, error) {
	var order *Order

	err := s.sessions.Settle(ctx, sessionID, func(ctx context.Context, _ *ordering.Session, view *ordering.SessionView) error {
		now := s.now()
		if err := validate(view, req, now); err != nil {
			return err
		}

		o := newOrder(view, now)
		o.Notes = strings.TrimSpace(req.Notes)
		if req.InitialPayment != nil {
			p := *req.InitialPayment
			if p.PaidAt.IsZero() {
				p.PaidAt = now
			}
			p.Reference = strings.TrimSpace(p.Reference)
			o.Payment = &p
		}

		if err := s.hooks.Run(ctx, domain.BeforePlace, o); err != nil {
			return err
		}

		// numbered outside the transaction; a failed publish leaves a gap
		number, err := s.numerator.Next(ctx, numerator.OrderConfig(), s.numOpts, now)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("assign order number: %w", err))
		}
		o.Number = number

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.publisher.Publish(ctx, o); err != nil {
				return fmt.Errorf("publish order %s: %w", o.Number, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "checkout rejected", "session_id", sessionID.String(), "error", err)
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterPlace, order); err != nil {
		logger.Warn(ctx, "after-place hook failed", "order", order.Number, "error", err)
	}

	logger.Info(ctx, "order placed",
		"order", order.Number,
		"session_id", sessionID.String(),
		"client_id", order.ClientID,
		"mode", string(order.Mode),
		"grand_total", types.FixedString(order.GrandTotal))

	return order, nil
}

func validate(view *ordering.SessionView, req Request, now time.Time) error {
	sum := view.Summary

	if view.Client == nil {
		return apperror.NewValidation("a client must be selected").
			WithDetail("field", "clientId")
	}
	if view.State == ordering.CartEmpty {
		return apperror.NewBusinessRule(apperror.CodeEmptyCart, "the cart is empty")
	}
	if sum.Discount().GreaterThan(sum.OrderSubtotal) {
		return apperror.NewBusinessRule(apperror.CodeDiscountExceeds, "discount exceeds the order subtotal").
			WithDetail("discount", types.FixedString(sum.Discount())).
			WithDetail("subtotal", types.FixedString(sum.OrderSubtotal))
	}

	if sum.Mode == ordering.ModeDelivery {
		if !view.Client.DeliveryEnabled {
			return apperror.NewBusinessRule(apperror.CodeDeliveryDisabled, "delivery is not enabled for this client").
				WithDetail("clientId", view.Client.ID)
		}
		if e := view.Eligibility; e != nil && !e.IsEligible {
			return apperror.NewBusinessRule(apperror.CodeBelowDeliveryMinimum, "order is below the delivery minimum").
				WithDetail("minimum", types.FixedString(view.Client.MinimumOrderForDelivery)).
				WithDetail("shortfall", types.FixedString(types.RoundDisplay(e.Shortfall)))
		}
		if d := view.RequestedDeliveryDate; d != nil {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			if d.Before(today) {
				return apperror.NewValidation("requested delivery date is in the past").
					WithDetail("field", "requestedDate")
			}
		}
	}

	if req.InitialPayment != nil {
		if err := req.InitialPayment.Validate(sum.DisplayGrandTotal()); err != nil {
			return err
		}
	}
	return nil
}
