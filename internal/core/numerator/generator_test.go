package numerator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceKey(t *testing.T) {
	at := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	cfg := OrderConfig()

	assert.Equal(t, "PED_2026", SequenceKey(cfg, at))
	cfg.Reset = ResetMonthly
	assert.Equal(t, "PED_2026_10", SequenceKey(cfg, at))
	cfg.Reset = ResetNever
	assert.Equal(t, "PED", SequenceKey(cfg, at))
}

func TestFormatAndParse(t *testing.T) {
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	cfg := OrderConfig()

	n := Format(cfg, at, 42)
	assert.Equal(t, "PED-2026-00042", n)
	assert.EqualValues(t, 42, Parse(n))

	cfg.IncludeYear = false
	cfg.PadWidth = 3
	assert.Equal(t, "PED-007", Format(cfg, at, 7))
	assert.EqualValues(t, 7, Parse("PED-007"))
	assert.EqualValues(t, -1, Parse("garbage"))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, OrderConfig().Validate())
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Prefix: "PED", Reset: "weekly"}.Validate())
}

func TestMockGenerator(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	m := &MockGenerator{}

	a, err := m.Next(ctx, OrderConfig(), nil, at)
	require.NoError(t, err)
	b, err := m.Next(ctx, OrderConfig(), nil, at)
	require.NoError(t, err)
	assert.Equal(t, "PED-2026-00001", a)
	assert.Equal(t, "PED-2026-00002", b)

	m.Err = errors.New("down")
	_, err = m.Next(ctx, OrderConfig(), nil, at)
	assert.Error(t, err)
}
