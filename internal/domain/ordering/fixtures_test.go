package ordering

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/domain/catalogs/client"
)

const (
	prodMorango  = "prod_picole_morango"
	prodAbacaxi  = "prod_picole_abacaxi"
	prodBaunilha = "prod_copo_baunilha"
	prodChoco    = "prod_copo_chocolate"
	prodBalde    = "prod_balde_flocos"
	catPicoles   = assortment.SampleCategoryID
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func sampleSnapshot(t *testing.T) *assortment.Snapshot {
	t.Helper()
	snap, err := assortment.NewSnapshot(context.Background(), assortment.SampleCategories())
	require.NoError(t, err)
	return snap
}

func lookup(t *testing.T, snap *assortment.Snapshot, productID string) (*assortment.Product, *assortment.Category) {
	t.Helper()
	p, ok := snap.Product(productID)
	require.True(t, ok, productID)
	c, ok := snap.CategoryOf(p)
	require.True(t, ok, productID)
	return p, c
}

func saleUnit(t *testing.T, c *assortment.Category, saleUnitID string) *assortment.SaleUnitOption {
	t.Helper()
	o, ok := c.SaleUnit(saleUnitID)
	require.True(t, ok, saleUnitID)
	return &o
}

func vilaClient() *client.Client {
	c := client.NewClient("cli_vila", "Gelados da Vila Ltda.")
	c.Address = "Rua das Flores, 1200 - Centro, São Paulo/SP"
	c.DeliveryDays = "Seg a Sex"
	c.DeliveryEnabled = true
	c.DeliveryFee = types.MustMoney("18.00")
	c.MinimumOrderForDelivery = types.MustMoney("100.00")
	return c
}

func newTestSession(t *testing.T, channel Channel) *Session {
	t.Helper()
	s, err := NewSession(channel, sampleSnapshot(t), fixedNow)
	require.NoError(t, err)
	return s
}

func money(s string) types.Money {
	return types.MustMoney(s)
}

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), "want %s, got %s", want, got.String())
}

func requireIntegrityPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value must be an error")
		assert.True(t, apperror.HasCode(err, apperror.CodeCatalogIntegrity), err.Error())
	}()
	fn()
}
