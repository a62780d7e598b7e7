package catalog_repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/infrastructure/storage/postgres"
)

const (
	categoriesTable = "cat_categories"
	saleUnitsTable  = "cat_sale_units"
	productsTable   = "cat_products"
)

type categoryRow struct {
	ID   string          `db:"id"`
	Name string          `db:"name"`
	Kind assortment.Kind `db:"kind"`
}

type saleUnitRow struct {
	CategoryID string `db:"category_id"`
	assortment.SaleUnitOption
}

// CatalogRepo loads the assortment from cat_categories, cat_sale_units and
// cat_products. It implements assortment.Provider.
type CatalogRepo struct {
	txManager  *postgres.TxManager
	categories baseRepo[categoryRow]
	saleUnits  baseRepo[saleUnitRow]
	products   baseRepo[assortment.Product]
}

var _ assortment.Provider = (*CatalogRepo)(nil)

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(txManager *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{
		txManager:  txManager,
		categories: newBaseRepo[categoryRow](txManager, categoriesTable, "category", []string{"id", "name", "kind"}),
		saleUnits:  newBaseRepo[saleUnitRow](txManager, saleUnitsTable, "sale unit", []string{"category_id", "id", "label", "multiplier"}),
		products:   newBaseRepo[assortment.Product](txManager, productsTable, "product", postgres.ExtractDBColumns[assortment.Product]()),
	}
}

// Load reads the whole catalog in one repeatable-read transaction and
// builds a validated snapshot.
func (r *CatalogRepo) Load(ctx context.Context) (*assortment.Snapshot, error) {
	var cats []*assortment.Category

	opts := postgres.DefaultTxOptions()
	opts.IsolationLevel = pgx.RepeatableRead
	opts.AccessMode = pgx.ReadOnly

	err := r.txManager.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		catRows, err := r.categories.selectAll(ctx, r.categories.baseSelect().OrderBy("position", "name"))
		if err != nil {
			return err
		}
		unitRows, err := r.saleUnits.selectAll(ctx, r.saleUnits.baseSelect().OrderBy("category_id", "multiplier"))
		if err != nil {
			return err
		}
		products, err := r.products.selectAll(ctx, r.products.baseSelect().
			Where("active").
			OrderBy("category_id", "position", "name"))
		if err != nil {
			return err
		}

		cats = assemble(catRows, unitRows, products)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	snap, err := assortment.NewSnapshot(ctx, cats)
	if err != nil {
		return nil, fmt.Errorf("catalog data is inconsistent: %w", err)
	}
	return snap, nil
}

// assemble groups sale units and products under their categories, keeping
// row order. Rows pointing at unknown categories are dropped.
func assemble(catRows []*categoryRow, unitRows []*saleUnitRow, products []*assortment.Product) []*assortment.Category {
	cats := make([]*assortment.Category, 0, len(catRows))
	byID := make(map[string]*assortment.Category, len(catRows))

	for _, row := range catRows {
		c := &assortment.Category{Kind: row.Kind}
		c.ID = row.ID
		c.Name = row.Name
		cats = append(cats, c)
		byID[row.ID] = c
	}
	for _, u := range unitRows {
		if c, ok := byID[u.CategoryID]; ok {
			c.SaleUnits = append(c.SaleUnits, u.SaleUnitOption)
		}
	}
	for _, p := range products {
		if c, ok := byID[p.CategoryID]; ok {
			c.Products = append(c.Products, p)
		}
	}
	return cats
}
