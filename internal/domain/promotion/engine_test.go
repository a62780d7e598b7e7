package promotion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
)

func sampleRules() []Rule {
	return []Rule{
		{
			ID:        "dia_do_sorvete",
			Reason:    "Promoção Dia do Sorvete",
			Condition: `subtotal >= 50.0`,
			Kind:      KindFixed,
			Value:     types.MustMoney("5.00"),
		},
		{
			ID:        "caixa_fechada",
			Reason:    "Desconto caixa fechada",
			Condition: `base_units >= 48 && channel == "portal"`,
			Kind:      KindPercent,
			Value:     types.MustMoney("10"),
		},
	}
}

func TestEngine_Best(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(sampleRules())
	require.NoError(t, err)
	assert.Equal(t, 2, e.Len())

	t.Run("no match", func(t *testing.T) {
		got, err := e.Best(ctx, Facts{Subtotal: types.MustMoney("13.40"), BaseUnits: 5, Mode: "pickup", Channel: "admin"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("fixed only", func(t *testing.T) {
		got, err := e.Best(ctx, Facts{Subtotal: types.MustMoney("58.30"), BaseUnits: 53, Mode: "pickup", Channel: "admin"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "dia_do_sorvete", got.RuleID)
		assert.Equal(t, "5.00", types.FixedString(got.Value))
	})

	t.Run("percent wins when larger", func(t *testing.T) {
		got, err := e.Best(ctx, Facts{Subtotal: types.MustMoney("58.30"), BaseUnits: 53, Mode: "pickup", Channel: "portal"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "caixa_fechada", got.RuleID)
		assert.Equal(t, "5.83", types.FixedString(got.Value))
	})

	t.Run("percent rounds half up", func(t *testing.T) {
		got, err := e.Best(ctx, Facts{Subtotal: types.MustMoney("40.05"), BaseUnits: 48, Channel: "portal"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "4.01", types.FixedString(got.Value))
	})
}

func TestEngine_NilAndEmpty(t *testing.T) {
	var e *Engine
	got, err := e.Best(context.Background(), Facts{})
	require.NoError(t, err)
	assert.Nil(t, got)

	e, err = NewEngine(nil)
	require.NoError(t, err)
	got, err = e.Best(context.Background(), Facts{Subtotal: types.MustMoney("1000")})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewEngine_Invalid(t *testing.T) {
	base := Rule{ID: "r", Condition: "true", Kind: KindFixed, Value: types.MustMoney("1")}

	tests := []struct {
		name   string
		mutate func(r *Rule)
	}{
		{"syntax error", func(r *Rule) { r.Condition = "subtotal >=" }},
		{"unknown variable", func(r *Rule) { r.Condition = "total > 1.0" }},
		{"non boolean", func(r *Rule) { r.Condition = "subtotal + 1.0" }},
		{"missing id", func(r *Rule) { r.ID = "" }},
		{"negative value", func(r *Rule) { r.Value = types.MustMoney("-1") }},
		{"percent above 100", func(r *Rule) { r.Kind = KindPercent; r.Value = types.MustMoney("150") }},
		{"bad kind", func(r *Rule) { r.Kind = "bogo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			_, err := NewEngine([]Rule{r})
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}

	_, err := NewEngine([]Rule{base, base})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promotions.json")
	body := `[{"id":"dia_do_sorvete","reason":"Promoção Dia do Sorvete","condition":"subtotal >= 50.0","kind":"fixed","value":"5.00"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, KindFixed, rules[0].Kind)
	assert.True(t, rules[0].Value.Equal(types.MustMoney("5")))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
