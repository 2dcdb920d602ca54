package executor

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/clients"
)

// SimulateExecutor settles actions against the in-memory chain. Used in demo
// mode; never touches the network.
type SimulateExecutor struct {
	client *clients.SimulateClient
	logger *zap.Logger
}

// NewSimulateExecutor creates an executor over the simulated chain.
func NewSimulateExecutor(client *clients.SimulateClient, logger *zap.Logger) *SimulateExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulateExecutor{client: client, logger: logger}
}

// BuyBTC swaps simulated USDC for cbBTC.
func (e *SimulateExecutor) BuyBTC(_ context.Context, usdAmount, price, slippagePercent decimal.Decimal, _ *big.Int) (string, decimal.Decimal, error) {
	executed, txHash, err := e.client.Swap(usdAmount, slippagePercent)
	if err != nil {
		return "", decimal.Zero, err
	}

	e.logger.Info("simulated swap",
		zap.String("usd_amount", usdAmount.StringFixed(2)),
		zap.String("btc_amount", executed.StringFixed(8)),
		zap.String("price", price.StringFixed(2)),
		zap.String("tx", txHash))

	return txHash, executed, nil
}

// ClaimRewards claims simulated rewards.
func (e *SimulateExecutor) ClaimRewards(_ context.Context, _ *big.Int) (string, decimal.Decimal, error) {
	claimed, txHash := e.client.Claim()
	if claimed.LessThanOrEqual(decimal.Zero) {
		return "", decimal.Zero, errors.New("no rewards to claim")
	}

	e.logger.Info("simulated claim", zap.String("amount", claimed.StringFixed(6)), zap.String("tx", txHash))
	return txHash, claimed, nil
}

// StakeIdle stakes idle simulated cbBTC.
func (e *SimulateExecutor) StakeIdle(_ context.Context, _ *big.Int) (string, decimal.Decimal, error) {
	idle := e.client.CbBTCBalance()
	if idle.LessThanOrEqual(decimal.Zero) {
		return "", decimal.Zero, nil
	}

	txHash, err := e.client.Stake(idle)
	if err != nil {
		return "", decimal.Zero, err
	}

	e.logger.Info("simulated stake", zap.String("amount", idle.StringFixed(8)), zap.String("tx", txHash))
	return txHash, idle, nil
}

// QuoteBalance returns the simulated USDC balance.
func (e *SimulateExecutor) QuoteBalance(_ context.Context) (decimal.Decimal, error) {
	return e.client.USDCBalance(), nil
}

// RewardsBalance returns simulated claimable rewards.
func (e *SimulateExecutor) RewardsBalance(_ context.Context) (decimal.Decimal, error) {
	return e.client.EarnedRewards(), nil
}
