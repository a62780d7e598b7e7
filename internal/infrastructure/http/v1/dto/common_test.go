package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
)

func TestParseMoney(t *testing.T) {
	for in, want := range map[string]string{
		"12.50":  "12.5",
		"8,30":   "8.3",
		" 0 ":    "0",
		"100,00": "100",
	} {
		m, err := ParseMoney("value", in)
		require.NoError(t, err, in)
		assert.Equal(t, want, m.String(), in)
	}

	for _, in := range []string{"", "abc", "1.234,50", "1,2,3"} {
		_, err := ParseMoney("value", in)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), in)
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "10.13", Money(types.MustMoney("10.125")))
	assert.Equal(t, "-10.13", Money(types.MustMoney("-10.125")))
	assert.Equal(t, "0.00", Money(types.Zero()))
	assert.Nil(t, OptionalMoney(nil))

	m := types.MustMoney("5")
	assert.Equal(t, "5.00", *OptionalMoney(&m))
}
