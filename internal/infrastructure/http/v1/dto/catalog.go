package dto

import (
	"time"

	"sorvetao/internal/domain/catalogs/assortment"
)

// SaleUnitResponse is one pack size tab.
type SaleUnitResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Multiplier int    `json:"multiplier"`
}

// ProductResponse is a catalog card.
type ProductResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
	BasePrice  string `json:"basePrice"`
	PriceLabel string `json:"priceLabel"`
}

// CategoryResponse is a catalog section.
type CategoryResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Kind      assortment.Kind    `json:"kind"`
	SaleUnits []SaleUnitResponse `json:"saleUnits,omitempty"`
	Products  []ProductResponse  `json:"products"`
}

// CatalogResponse is the catalog as the order-entry screen renders it.
type CatalogResponse struct {
	Categories   []CategoryResponse `json:"categories"`
	ProductCount int                `json:"productCount"`
	LoadedAt     time.Time          `json:"loadedAt"`
}

// FromCategories maps catalog categories.
func FromCategories(categories []*assortment.Category, loadedAt time.Time) CatalogResponse {
	resp := CatalogResponse{
		Categories: make([]CategoryResponse, 0, len(categories)),
		LoadedAt:   loadedAt,
	}
	for _, c := range categories {
		cr := CategoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			Kind:     c.Kind,
			Products: make([]ProductResponse, 0, len(c.Products)),
		}
		for _, u := range c.SaleUnits {
			cr.SaleUnits = append(cr.SaleUnits, SaleUnitResponse{ID: u.ID, Label: u.Label, Multiplier: u.Multiplier})
		}
		for _, p := range c.Products {
			cr.Products = append(cr.Products, ProductResponse{
				ID:         p.ID,
				Name:       p.Name,
				CategoryID: p.CategoryID,
				BasePrice:  Money(p.BasePrice),
				PriceLabel: p.PriceLabel(),
			})
		}
		resp.ProductCount += len(cr.Products)
		resp.Categories = append(resp.Categories, cr)
	}
	return resp
}
