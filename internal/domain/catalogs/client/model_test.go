package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
)

func strPtr(s string) *string { return &s }

func TestClient_Validate(t *testing.T) {
	ctx := context.Background()

	valid := func() *Client {
		c := NewClient("cli_vila", "Gelados da Vila Ltda.")
		c.DeliveryEnabled = true
		c.DeliveryFee = types.MustMoney("18.00")
		c.MinimumOrderForDelivery = types.MustMoney("100.00")
		c.Document = strPtr("12.345.678/0001-90")
		c.Email = strPtr("compras@geladosdavila.com.br")
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Client)
		wantErr bool
	}{
		{"valid", func(c *Client) {}, false},
		{"missing name", func(c *Client) { c.Name = " " }, true},
		{"bad status", func(c *Client) { c.Status = "Suspenso" }, true},
		{"negative fee", func(c *Client) { c.DeliveryFee = types.MustMoney("-1") }, true},
		{"negative minimum", func(c *Client) { c.MinimumOrderForDelivery = types.MustMoney("-0.01") }, true},
		{"short cnpj", func(c *Client) { c.Document = strPtr("123") }, true},
		{"empty cnpj allowed", func(c *Client) { c.Document = strPtr("") }, false},
		{"bad email", func(c *Client) { c.Email = strPtr("compras@") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate(ctx)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestClient_IsActive(t *testing.T) {
	c := NewClient("c1", "Açaí Power")
	assert.True(t, c.IsActive())
	c.Status = StatusInactive
	assert.False(t, c.IsActive())
}
