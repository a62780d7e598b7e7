// Package ordering implements order composition: cart keys per sale unit,
// the cart accumulator, the order summary projection and delivery eligibility.
package ordering

import (
	"sorvetao/internal/core/apperror"
	"sorvetao/internal/domain/catalogs/assortment"
)

// CartKey identifies a cart line. The same product ordered under two
// different sale units produces two keys and two independent lines.
type CartKey struct {
	ProductID  string `json:"productId"`
	SaleUnitID string `json:"saleUnitId"`
}

// String renders "product:saleUnit".
func (k CartKey) String() string {
	return k.ProductID + ":" + k.SaleUnitID
}

// ResolveKey returns the cart key of product under option. A nil option on a
// multi-pack category means the category default (first tab).
// Panics with a CATALOG_INTEGRITY AppError when the arguments contradict the catalog.
func ResolveKey(category *assortment.Category, product *assortment.Product, option *assortment.SaleUnitOption) CartKey {
	mustOwn(category, product)
	unit := resolveSaleUnit(category, option)
	return CartKey{ProductID: product.ID, SaleUnitID: unit.ID}
}

// EffectiveMultiplier returns the number of base units in one pack of option.
// Simple categories always yield 1.
func EffectiveMultiplier(category *assortment.Category, option *assortment.SaleUnitOption) int {
	return resolveSaleUnit(category, option).Multiplier
}

func mustOwn(category *assortment.Category, product *assortment.Product) {
	if category == nil || product == nil {
		panic(apperror.NewCatalogIntegrity("category and product are required"))
	}
	if product.CategoryID != category.ID {
		panic(apperror.NewCatalogIntegrity("product does not belong to category").
			WithDetail("productId", product.ID).
			WithDetail("categoryId", category.ID))
	}
	if _, ok := category.Product(product.ID); !ok {
		panic(apperror.NewCatalogIntegrity("product is not listed by its category").
			WithDetail("productId", product.ID).
			WithDetail("categoryId", category.ID))
	}
}

func resolveSaleUnit(category *assortment.Category, option *assortment.SaleUnitOption) assortment.SaleUnitOption {
	if category == nil {
		panic(apperror.NewCatalogIntegrity("category is required"))
	}

	if !category.MultiPack() {
		if option != nil && option.ID != assortment.SingleSaleUnitID {
			panic(apperror.NewCatalogIntegrity("simple category has no sale units").
				WithDetail("categoryId", category.ID).
				WithDetail("saleUnitId", option.ID))
		}
		return assortment.SingleUnit()
	}

	if option == nil {
		def, ok := category.DefaultSaleUnit()
		if !ok {
			panic(apperror.NewCatalogIntegrity("multi-pack category has no sale units").
				WithDetail("categoryId", category.ID))
		}
		return def
	}

	declared, ok := category.SaleUnit(option.ID)
	if !ok || declared.Multiplier != option.Multiplier {
		panic(apperror.NewCatalogIntegrity("sale unit is not declared by category").
			WithDetail("categoryId", category.ID).
			WithDetail("saleUnitId", option.ID))
	}
	return declared
}
