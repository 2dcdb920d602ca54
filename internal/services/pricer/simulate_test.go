package pricer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/dcagent/internal/clients"
)

func TestSimulatePricerWalks(t *testing.T) {
	p := NewSimulatePricer(clients.NewSimulateClient(42))
	ctx := context.Background()

	first, err := p.GetPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "simulate", first.Source)
	assert.True(t, first.Price.GreaterThan(decimal.Zero))

	second, err := p.GetPrice(ctx)
	require.NoError(t, err)
	assert.False(t, second.Price.Equal(first.Price), "the walk should move between polls")

	// drift is bounded to a fraction of a percent per step
	step := second.Price.Sub(first.Price).Abs().Div(first.Price)
	assert.True(t, step.LessThan(decimal.NewFromFloat(0.002)), "step %s too large", step)
}

func TestSimulatePricerDeterministicSeed(t *testing.T) {
	a := NewSimulatePricer(clients.NewSimulateClient(7))
	b := NewSimulatePricer(clients.NewSimulateClient(7))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sa, err := a.GetPrice(ctx)
		require.NoError(t, err)
		sb, err := b.GetPrice(ctx)
		require.NoError(t, err)
		assert.True(t, sa.Price.Equal(sb.Price))
	}
}
