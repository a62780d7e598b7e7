package assortment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
)

func TestNewSnapshot_Sample(t *testing.T) {
	snap, err := NewSnapshot(context.Background(), SampleCategories())
	require.NoError(t, err)

	assert.Len(t, snap.Categories(), 4)
	assert.Equal(t, 5, snap.ProductCount())

	cat, ok := snap.Category(SampleCategoryID)
	require.True(t, ok)
	assert.True(t, cat.MultiPack())

	def, ok := cat.DefaultSaleUnit()
	require.True(t, ok)
	assert.Equal(t, SaleUnitUnits, def.ID)

	p, ok := snap.Product("prod_picole_morango")
	require.True(t, ok)
	owner, ok := snap.CategoryOf(p)
	require.True(t, ok)
	assert.Equal(t, SampleCategoryID, owner.ID)
	assert.True(t, p.BasePrice.Equal(types.MustMoney("1.10")))
}

func TestNewSnapshot_DoesNotAliasInput(t *testing.T) {
	cats := SampleCategories()
	snap, err := NewSnapshot(context.Background(), cats)
	require.NoError(t, err)

	cats[0].Products[0].BasePrice = types.MustMoney("99")
	cats[2].SaleUnits[0].Multiplier = 7

	p, _ := snap.Product("prod_copo_baunilha")
	assert.True(t, p.BasePrice.Equal(types.MustMoney("2.50")))
	c, _ := snap.Category(SampleCategoryID)
	assert.Equal(t, 1, c.SaleUnits[0].Multiplier)
}

func TestNewSnapshot_Invalid(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cats func() []*Category
	}{
		{"multiplier below one", func() []*Category {
			return []*Category{NewMultiPackCategory("c", "C", []SaleUnitOption{{ID: "u", Label: "U", Multiplier: 0}})}
		}},
		{"duplicate multiplier", func() []*Category {
			return []*Category{NewMultiPackCategory("c", "C", []SaleUnitOption{
				{ID: "a", Label: "A", Multiplier: 12},
				{ID: "b", Label: "B", Multiplier: 12},
			})}
		}},
		{"duplicate option id", func() []*Category {
			return []*Category{NewMultiPackCategory("c", "C", []SaleUnitOption{
				{ID: "a", Label: "A", Multiplier: 1},
				{ID: "a", Label: "B", Multiplier: 12},
			})}
		}},
		{"multi-pack without options", func() []*Category {
			return []*Category{NewMultiPackCategory("c", "C", nil)}
		}},
		{"simple with options", func() []*Category {
			c := NewSimpleCategory("c", "C")
			c.SaleUnits = []SaleUnitOption{{ID: "a", Label: "A", Multiplier: 2}}
			return []*Category{c}
		}},
		{"reserved option id", func() []*Category {
			return []*Category{NewMultiPackCategory("c", "C", []SaleUnitOption{{ID: SingleSaleUnitID, Label: "A", Multiplier: 1}})}
		}},
		{"product in wrong category", func() []*Category {
			return []*Category{NewSimpleCategory("c", "C", NewProduct("p", "P", "other", types.MustMoney("1")))}
		}},
		{"negative price", func() []*Category {
			return []*Category{NewSimpleCategory("c", "C", NewProduct("p", "P", "c", types.MustMoney("-1")))}
		}},
		{"sub-cent price", func() []*Category {
			return []*Category{NewSimpleCategory("c", "C", NewProduct("p", "P", "c", types.MustMoney("1.105")))}
		}},
		{"duplicate product across categories", func() []*Category {
			return []*Category{
				NewSimpleCategory("a", "A", NewProduct("p", "P", "a", types.MustMoney("1"))),
				NewSimpleCategory("b", "B", NewProduct("p", "P", "b", types.MustMoney("1"))),
			}
		}},
		{"duplicate category", func() []*Category {
			return []*Category{NewSimpleCategory("a", "A"), NewSimpleCategory("a", "B")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(ctx, tt.cats())
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestSnapshot_Search(t *testing.T) {
	snap, err := NewSnapshot(context.Background(), SampleCategories())
	require.NoError(t, err)

	got := snap.Search("  MORANGO ")
	require.Len(t, got, 1)
	assert.Equal(t, SampleCategoryID, got[0].ID)
	require.Len(t, got[0].Products, 1)
	assert.Equal(t, "prod_picole_morango", got[0].Products[0].ID)

	// filtering must not touch the snapshot
	full, _ := snap.Category(SampleCategoryID)
	assert.Len(t, full.Products, 2)

	assert.Empty(t, snap.Search("pistache"))
	assert.Len(t, snap.Search(""), 4)
}

func TestProduct_PriceLabel(t *testing.T) {
	p := NewProduct("p", "Morango", "c", types.MustMoney("1.1"))
	assert.Equal(t, "R$ 1,10/un", p.PriceLabel())
	p.UnitLabel = "R$1,10/un"
	assert.Equal(t, "R$1,10/un", p.PriceLabel())
}

func TestStaticProvider_Load(t *testing.T) {
	ctx := context.Background()
	p, err := NewStaticProvider(ctx, SampleCategories())
	require.NoError(t, err)

	a, err := p.Load(ctx)
	require.NoError(t, err)
	b, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)
}
