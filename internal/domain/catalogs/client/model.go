// Package client provides the wholesale Client catalog.
// Clients carry the delivery terms (fee, minimum order) the order entry uses.
package client

import (
	"context"
	"regexp"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/entity"
	"sorvetao/internal/core/types"
)

// Pre-compiled regex patterns for validation
var (
	nonDigitRE = regexp.MustCompile(`\D`)
	emailRE    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Status is the account status of a client.
type Status string

const (
	StatusActive   Status = "Ativo"
	StatusInactive Status = "Inativo"
)

// Client is a reseller buying from the wholesaler.
type Client struct {
	entity.Catalog

	// ContactPerson is the responsible person ("responsável")
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Document is the CNPJ, stored with or without punctuation
	Document *string `db:"document" json:"document,omitempty"`

	// Address is the delivery address, single line
	Address string `db:"address" json:"address"`

	// DeliveryDays is a free-form note such as "Seg a Sex"
	DeliveryDays string `db:"delivery_days" json:"deliveryDays"`

	Status          Status      `db:"status" json:"status"`
	DeliveryEnabled bool        `db:"delivery_enabled" json:"deliveryEnabled"`
	DeliveryFee     types.Money `db:"delivery_fee" json:"deliveryFee"`

	// MinimumOrderForDelivery is compared against the order subtotal before discount
	MinimumOrderForDelivery types.Money `db:"minimum_order_for_delivery" json:"minimumOrderForDelivery"`
}

// NewClient creates an active client with delivery disabled.
func NewClient(id, name string) *Client {
	return &Client{
		Catalog:                 entity.NewCatalog(id, name),
		Status:                  StatusActive,
		DeliveryFee:             types.Zero(),
		MinimumOrderForDelivery: types.Zero(),
	}
}

// Validate implements entity.Validatable interface.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Status != StatusActive && c.Status != StatusInactive {
		return apperror.NewValidation("invalid client status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}

	if c.DeliveryFee.IsNegative() {
		return apperror.NewValidation("delivery fee cannot be negative").
			WithDetail("field", "deliveryFee")
	}

	if c.MinimumOrderForDelivery.IsNegative() {
		return apperror.NewValidation("minimum order for delivery cannot be negative").
			WithDetail("field", "minimumOrderForDelivery")
	}

	if c.Document != nil && *c.Document != "" {
		if len(nonDigitRE.ReplaceAllString(*c.Document, "")) != 14 {
			return apperror.NewValidation("CNPJ must have 14 digits").
				WithDetail("field", "document")
		}
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// IsActive reports whether new orders can be placed for the client.
func (c *Client) IsActive() bool {
	return c.Status == StatusActive
}
