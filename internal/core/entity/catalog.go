// Package entity holds the base types shared by reference data.
package entity

import (
	"context"
	"strings"

	"sorvetao/internal/core/apperror"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Catalog is the base type for reference data (categories, products, clients).
// IDs are stable business identifiers supplied by the catalog owner.
type Catalog struct {
	// ID is the stable identifier (e.g. "cat3", "prod_picole_morango")
	ID string `db:"id" json:"id"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog base.
func NewCatalog(id, name string) Catalog {
	return Catalog{ID: id, Name: name}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.ID) == "" {
		return apperror.NewValidation("id is required").
			WithDetail("field", "id")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name").
			WithDetail("id", c.ID)
	}
	return nil
}
