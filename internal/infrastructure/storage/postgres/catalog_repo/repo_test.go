package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/infrastructure/storage/postgres"
)

func TestClientRepo_SearchQuery(t *testing.T) {
	repo := NewClientRepo(nil)

	sql, args, err := repo.searchQuery("  ", 0).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM cat_clients ORDER BY name LIMIT 20")
	assert.Empty(t, args)

	sql, args, err = repo.searchQuery("vila_1%", 5).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE (name ILIKE $1 OR contact_person ILIKE $2 OR email ILIKE $3 OR regexp_replace(document, '\\D', '', 'g') LIKE $4)")
	assert.Contains(t, sql, "LIMIT 5")
	assert.Equal(t, []any{`%vila\_1\%%`, `%vila\_1\%%`, `%vila\_1\%%`, "%1%"}, args)
}

func TestUpsertQuery(t *testing.T) {
	p := assortment.NewProduct("prod_balde_flocos", "Balde Flocos", "cat2", types.MustMoney("22.00"))
	data := postgres.StructToMap(p)
	data["position"] = 3

	sql, args, err := upsertQuery("cat_products", []string{"id"}, data).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO cat_products (base_price,category_id,id,name,position,unit_label) VALUES ($1,$2,$3,$4,$5,$6) "+
			"ON CONFLICT (id) DO UPDATE SET base_price = EXCLUDED.base_price, category_id = EXCLUDED.category_id, "+
			"name = EXCLUDED.name, position = EXCLUDED.position, unit_label = EXCLUDED.unit_label",
		sql)
	assert.Len(t, args, 6)
}

func TestAssemble(t *testing.T) {
	cats := []*categoryRow{
		{ID: "cat3", Name: "Picolés de Fruta", Kind: assortment.KindMultiPack},
		{ID: "cat2", Name: "Baldes", Kind: assortment.KindSimple},
	}
	units := []*saleUnitRow{
		{CategoryID: "cat3", SaleUnitOption: assortment.SaleUnitOption{ID: "unidades", Label: "Unidades", Multiplier: 1}},
		{CategoryID: "cat3", SaleUnitOption: assortment.SaleUnitOption{ID: "caixas_completas_24un", Label: "Caixas (24un)", Multiplier: 24}},
		{CategoryID: "cat_gone", SaleUnitOption: assortment.SaleUnitOption{ID: "x", Label: "x", Multiplier: 2}},
	}
	products := []*assortment.Product{
		assortment.NewProduct("prod_picole_morango", "Picolé Morango", "cat3", types.MustMoney("1.10")),
		assortment.NewProduct("prod_balde_flocos", "Balde Flocos", "cat2", types.MustMoney("22.00")),
	}

	got := assemble(cats, units, products)
	require.Len(t, got, 2)
	assert.Equal(t, "cat3", got[0].ID)
	assert.Len(t, got[0].SaleUnits, 2)
	assert.Len(t, got[0].Products, 1)
	assert.Empty(t, got[1].SaleUnits)
	assert.Equal(t, "prod_balde_flocos", got[1].Products[0].ID)
}
