// Package assortment provides the sales catalog: categories, products and the
// pack sizes ("sale units") a product can be ordered in.
package assortment

import (
	"context"
	"strings"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/entity"
	"sorvetao/internal/core/types"
)

// Kind distinguishes categories sold per unit from categories sold in packs.
type Kind string

const (
	KindSimple    Kind = "simple"     // one sale unit, multiplier 1
	KindMultiPack Kind = "multi_pack" // unit, half box, full box...
)

// SingleSaleUnitID is the implicit sale unit of simple categories.
const SingleSaleUnitID = "single"

// SaleUnitOption is a purchasable grouping of base units.
type SaleUnitOption struct {
	ID    string `db:"id" json:"id"`
	Label string `db:"label" json:"label"`

	// Multiplier is the number of base units in one pack (>= 1)
	Multiplier int `db:"multiplier" json:"multiplier"`
}

// SingleUnit returns the implicit sale unit used by simple categories.
func SingleUnit() SaleUnitOption {
	return SaleUnitOption{ID: SingleSaleUnitID, Label: "Unidade", Multiplier: 1}
}

// Validate implements entity.Validatable interface.
func (o SaleUnitOption) Validate(ctx context.Context) error {
	if strings.TrimSpace(o.ID) == "" {
		return apperror.NewValidation("sale unit id is required").
			WithDetail("field", "saleUnits.id")
	}
	if o.ID == SingleSaleUnitID {
		return apperror.NewValidation("sale unit id is reserved").
			WithDetail("field", "saleUnits.id").
			WithDetail("value", o.ID)
	}
	if strings.TrimSpace(o.Label) == "" {
		return apperror.NewValidation("sale unit label is required").
			WithDetail("field", "saleUnits.label").
			WithDetail("saleUnitId", o.ID)
	}
	if o.Multiplier < 1 {
		return apperror.NewValidation("sale unit multiplier must be at least 1").
			WithDetail("field", "saleUnits.multiplier").
			WithDetail("saleUnitId", o.ID)
	}
	return nil
}

// Product is a sellable item priced per base unit.
type Product struct {
	entity.Catalog

	// CategoryID is the owning category
	CategoryID string `db:"category_id" json:"categoryId"`

	// BasePrice is the price of one base unit, never pre-multiplied by a pack size
	BasePrice types.Money `db:"base_price" json:"basePrice"`

	// UnitLabel is an optional display label such as "R$1,10/un"
	UnitLabel string `db:"unit_label" json:"unitLabel,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(id, name, categoryID string, basePrice types.Money) *Product {
	return &Product{
		Catalog:    entity.NewCatalog(id, name),
		CategoryID: categoryID,
		BasePrice:  basePrice,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.CategoryID == "" {
		return apperror.NewValidation("product category is required").
			WithDetail("field", "categoryId").
			WithDetail("productId", p.ID)
	}

	if p.BasePrice.IsNegative() {
		return apperror.NewValidation("base price cannot be negative").
			WithDetail("field", "basePrice").
			WithDetail("productId", p.ID)
	}

	if !types.HasAtMostPlaces(p.BasePrice, types.MoneyPlaces) {
		return apperror.NewValidation("base price must have at most 2 fraction digits").
			WithDetail("field", "basePrice").
			WithDetail("productId", p.ID)
	}

	return nil
}

// PriceLabel returns UnitLabel or a formatted per-unit price.
func (p *Product) PriceLabel() string {
	if p.UnitLabel != "" {
		return p.UnitLabel
	}
	return types.FormatBRL(p.BasePrice) + "/un"
}

// Category groups products. Multi-pack categories declare the sale units
// their products can be ordered in; the first one is the default tab.
type Category struct {
	entity.Catalog

	Kind      Kind             `db:"kind" json:"kind"`
	Products  []*Product       `db:"-" json:"products"`
	SaleUnits []SaleUnitOption `db:"-" json:"saleUnits,omitempty"`
}

// NewSimpleCategory creates a category sold per unit.
func NewSimpleCategory(id, name string, products ...*Product) *Category {
	return &Category{
		Catalog:  entity.NewCatalog(id, name),
		Kind:     KindSimple,
		Products: products,
	}
}

// NewMultiPackCategory creates a category sold in several pack sizes.
func NewMultiPackCategory(id, name string, saleUnits []SaleUnitOption, products ...*Product) *Category {
	return &Category{
		Catalog:   entity.NewCatalog(id, name),
		Kind:      KindMultiPack,
		Products:  products,
		SaleUnits: saleUnits,
	}
}

// MultiPack reports whether products are ordered per sale unit tab.
func (c *Category) MultiPack() bool {
	return c.Kind == KindMultiPack
}

// DefaultSaleUnit returns the tab that is active when a session starts.
func (c *Category) DefaultSaleUnit() (SaleUnitOption, bool) {
	if !c.MultiPack() || len(c.SaleUnits) == 0 {
		return SaleUnitOption{}, false
	}
	return c.SaleUnits[0], true
}

// SaleUnit looks up a declared sale unit.
func (c *Category) SaleUnit(saleUnitID string) (SaleUnitOption, bool) {
	for _, o := range c.SaleUnits {
		if o.ID == saleUnitID {
			return o, true
		}
	}
	return SaleUnitOption{}, false
}

// Product looks up a product of this category.
func (c *Category) Product(productID string) (*Product, bool) {
	for _, p := range c.Products {
		if p.ID == productID {
			return p, true
		}
	}
	return nil, false
}

// Validate implements entity.Validatable interface.
func (c *Category) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch c.Kind {
	case KindSimple:
		if len(c.SaleUnits) > 0 {
			return apperror.NewValidation("simple category cannot declare sale units").
				WithDetail("categoryId", c.ID)
		}
	case KindMultiPack:
		if len(c.SaleUnits) == 0 {
			return apperror.NewValidation("multi-pack category requires sale units").
				WithDetail("categoryId", c.ID)
		}
	default:
		return apperror.NewValidation("invalid category kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}

	ids := make(map[string]struct{}, len(c.SaleUnits))
	multipliers := make(map[int]struct{}, len(c.SaleUnits))
	for _, o := range c.SaleUnits {
		if err := o.Validate(ctx); err != nil {
			return err
		}
		if _, dup := ids[o.ID]; dup {
			return apperror.NewValidation("duplicate sale unit").
				WithDetail("categoryId", c.ID).
				WithDetail("saleUnitId", o.ID)
		}
		if _, dup := multipliers[o.Multiplier]; dup {
			return apperror.NewValidation("sale unit multipliers must be distinct").
				WithDetail("categoryId", c.ID).
				WithDetail("multiplier", o.Multiplier)
		}
		ids[o.ID] = struct{}{}
		multipliers[o.Multiplier] = struct{}{}
	}

	for _, p := range c.Products {
		if err := p.Validate(ctx); err != nil {
			return err
		}
		if p.CategoryID != c.ID {
			return apperror.NewValidation("product belongs to another category").
				WithDetail("categoryId", c.ID).
				WithDetail("productId", p.ID).
				WithDetail("productCategoryId", p.CategoryID)
		}
	}

	return nil
}

// clone returns a deep copy so snapshots never alias provider data.
func (c *Category) clone() *Category {
	out := *c
	out.SaleUnits = append([]SaleUnitOption(nil), c.SaleUnits...)
	out.Products = make([]*Product, len(c.Products))
	for i, p := range c.Products {
		cp := *p
		out.Products[i] = &cp
	}
	return &out
}
