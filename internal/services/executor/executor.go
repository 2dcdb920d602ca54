// Package executor submits purchase and yield transactions through the
// execution capability (on-chain Base client or the demo-mode simulator).
package executor

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
)

// Executor performs agent actions against the chain.
type Executor interface {
	// BuyBTC swaps usdAmount of USDC into cbBTC at the given market price,
	// tolerating slippagePercent. Returns the transaction hash and the
	// executed cbBTC amount.
	BuyBTC(ctx context.Context, usdAmount, price, slippagePercent decimal.Decimal, gasPrice *big.Int) (string, decimal.Decimal, error)

	// ClaimRewards claims accrued staking rewards from the gauge.
	ClaimRewards(ctx context.Context, gasPrice *big.Int) (string, decimal.Decimal, error)

	// StakeIdle stakes any unstaked cbBTC into the gauge. Returns an empty
	// hash and zero amount when there is nothing to stake.
	StakeIdle(ctx context.Context, gasPrice *big.Int) (string, decimal.Decimal, error)

	// QuoteBalance returns the available USDC balance.
	QuoteBalance(ctx context.Context) (decimal.Decimal, error)

	// RewardsBalance returns claimable staking rewards.
	RewardsBalance(ctx context.Context) (decimal.Decimal, error)
}
