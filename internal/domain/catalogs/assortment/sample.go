package assortment

import "sorvetao/internal/core/types"

// Sale unit IDs of the popsicle category.
const (
	SaleUnitUnits    = "unidades"
	SaleUnitHalfBox  = "meias_caixas_12un"
	SaleUnitFullBox  = "caixas_completas_24un"
	SampleCategoryID = "cat3"
)

// SampleCategories returns the demo catalog loaded by the seed tool.
// Each call builds fresh values.
func SampleCategories() []*Category {
	popsicleUnits := []SaleUnitOption{
		{ID: SaleUnitUnits, Label: "Unidades", Multiplier: 1},
		{ID: SaleUnitHalfBox, Label: "Meias Caixas (12un)", Multiplier: 12},
		{ID: SaleUnitFullBox, Label: "Caixas Completas (24un)", Multiplier: 24},
	}

	return []*Category{
		NewSimpleCategory("cat1", "Potes e Copos",
			NewProduct("prod_copo_baunilha", "Copo Baunilha 120ml", "cat1", types.MustMoney("2.50")),
			NewProduct("prod_copo_chocolate", "Copo Chocolate 120ml", "cat1", types.MustMoney("2.80")),
		),
		NewSimpleCategory("cat2", "Baldes",
			NewProduct("prod_balde_flocos", "Balde Flocos 2L", "cat2", types.MustMoney("22.00")),
		),
		NewMultiPackCategory(SampleCategoryID, "Picolés de Fruta", popsicleUnits,
			NewProduct("prod_picole_morango", "Morango", SampleCategoryID, types.MustMoney("1.10")),
			NewProduct("prod_picole_abacaxi", "Abacaxi", SampleCategoryID, types.MustMoney("1.20")),
		),
		NewSimpleCategory("cat4", "Outros"),
	}
}
