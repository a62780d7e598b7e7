package assortment

import (
	"context"
	"strings"
	"time"

	"sorvetao/internal/core/apperror"
)

// Snapshot is an immutable, indexed view of the catalog handed to an
// order-entry session when it starts. Callers must not mutate the
// categories or products it returns.
type Snapshot struct {
	categories []*Category
	byCategory map[string]*Category
	byProduct  map[string]*Product
	loadedAt   time.Time
}

// NewSnapshot validates and indexes categories. Product IDs must be unique
// across the whole catalog because they are part of the cart key.
func NewSnapshot(ctx context.Context, categories []*Category) (*Snapshot, error) {
	s := &Snapshot{
		categories: make([]*Category, 0, len(categories)),
		byCategory: make(map[string]*Category, len(categories)),
		byProduct:  make(map[string]*Product),
		loadedAt:   time.Now().UTC(),
	}

	for _, src := range categories {
		if src == nil {
			continue
		}
		if err := src.Validate(ctx); err != nil {
			return nil, err
		}
		if _, dup := s.byCategory[src.ID]; dup {
			return nil, apperror.NewValidation("duplicate category").
				WithDetail("categoryId", src.ID)
		}

		c := src.clone()
		s.categories = append(s.categories, c)
		s.byCategory[c.ID] = c

		for _, p := range c.Products {
			if _, dup := s.byProduct[p.ID]; dup {
				return nil, apperror.NewValidation("duplicate product").
					WithDetail("productId", p.ID)
			}
			s.byProduct[p.ID] = p
		}
	}

	return s, nil
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Categories returns categories in display order.
func (s *Snapshot) Categories() []*Category {
	return append([]*Category(nil), s.categories...)
}

// Category looks up a category by ID.
func (s *Snapshot) Category(categoryID string) (*Category, bool) {
	c, ok := s.byCategory[categoryID]
	return c, ok
}

// Product looks up a product by ID.
func (s *Snapshot) Product(productID string) (*Product, bool) {
	p, ok := s.byProduct[productID]
	return p, ok
}

// CategoryOf returns the category owning p.
func (s *Snapshot) CategoryOf(p *Product) (*Category, bool) {
	return s.Category(p.CategoryID)
}

// ProductCount returns the number of products across all categories.
func (s *Snapshot) ProductCount() int {
	return len(s.byProduct)
}

// Search filters products by a case-insensitive name match and drops
// categories left without products. An empty term returns every category.
func (s *Snapshot) Search(term string) []*Category {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.Categories()
	}

	out := make([]*Category, 0, len(s.categories))
	for _, c := range s.categories {
		var matched []*Product
		for _, p := range c.Products {
			if strings.Contains(strings.ToLower(p.Name), term) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			continue
		}
		filtered := *c
		filtered.Products = matched
		out = append(out, &filtered)
	}
	return out
}
