package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/dcagent/internal/clients"
)

func TestSimulateExecutorBuyBTC(t *testing.T) {
	sim := clients.NewSimulateClient(1)
	exec := NewSimulateExecutor(sim, nil)
	ctx := context.Background()

	before, err := exec.QuoteBalance(ctx)
	require.NoError(t, err)
	require.True(t, before.Equal(decimal.NewFromInt(10000)))

	price := sim.BTCPrice()
	txHash, executed, err := exec.BuyBTC(ctx, decimal.NewFromInt(100), price, decimal.NewFromFloat(0.5), nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(txHash, "0x"))
	assert.True(t, executed.GreaterThan(decimal.Zero))

	after, err := exec.QuoteBalance(ctx)
	require.NoError(t, err)
	assert.True(t, after.Equal(decimal.NewFromInt(9900)))
}

func TestSimulateExecutorBuyBTCInsufficientFunds(t *testing.T) {
	sim := clients.NewSimulateClient(1)
	exec := NewSimulateExecutor(sim, nil)

	price := sim.BTCPrice()
	_, _, err := exec.BuyBTC(context.Background(), decimal.NewFromInt(20000), price, decimal.Zero, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestSimulateExecutorStakeIdleAfterBuy(t *testing.T) {
	sim := clients.NewSimulateClient(1)
	exec := NewSimulateExecutor(sim, nil)
	ctx := context.Background()

	// nothing to stake on a fresh wallet
	txHash, staked, err := exec.StakeIdle(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, txHash)
	assert.True(t, staked.IsZero())

	price := sim.BTCPrice()
	_, executed, err := exec.BuyBTC(ctx, decimal.NewFromInt(500), price, decimal.Zero, nil)
	require.NoError(t, err)

	txHash, staked, err = exec.StakeIdle(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, txHash)
	assert.True(t, staked.Equal(executed))

	// the idle balance is gone after staking
	txHash, _, err = exec.StakeIdle(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, txHash)
}

func TestSimulateExecutorClaimWithoutRewards(t *testing.T) {
	sim := clients.NewSimulateClient(1)
	exec := NewSimulateExecutor(sim, nil)

	_, _, err := exec.ClaimRewards(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rewards")
}
