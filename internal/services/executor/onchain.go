package executor

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/clients"
)

var hundred = decimal.NewFromInt(100)

// OnchainExecutor executes actions against Base through the router and gauge
// contracts.
type OnchainExecutor struct {
	client *clients.BaseClient
	logger *zap.Logger
}

// NewOnchainExecutor creates an executor backed by the Base client.
func NewOnchainExecutor(client *clients.BaseClient, logger *zap.Logger) *OnchainExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnchainExecutor{client: client, logger: logger}
}

// BuyBTC swaps USDC for cbBTC via the Aerodrome router.
func (e *OnchainExecutor) BuyBTC(ctx context.Context, usdAmount, price, slippagePercent decimal.Decimal, gasPrice *big.Int) (string, decimal.Decimal, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return "", decimal.Zero, errors.Errorf("invalid price %s", price)
	}

	balance, err := e.client.USDCBalance(ctx)
	if err != nil {
		return "", decimal.Zero, errors.Wrap(err, "failed to read USDC balance")
	}
	if balance.LessThan(usdAmount) {
		return "", decimal.Zero, errors.Errorf("insufficient USDC balance: have %s, need %s", balance.StringFixed(2), usdAmount.StringFixed(2))
	}

	expectedOut := usdAmount.Div(price)
	minOut := expectedOut.Mul(hundred.Sub(slippagePercent)).Div(hundred)

	e.logger.Info("submitting swap",
		zap.String("usd_amount", usdAmount.StringFixed(2)),
		zap.String("expected_btc", expectedOut.StringFixed(8)),
		zap.String("min_btc", minOut.StringFixed(8)))

	txHash, err := e.client.SwapUSDCForCbBTC(ctx, usdAmount, minOut, gasPrice)
	if err != nil {
		return txHash, decimal.Zero, errors.Wrap(err, "swap failed")
	}

	return txHash, minOut, nil
}

// ClaimRewards claims accrued AERO rewards from the gauge.
func (e *OnchainExecutor) ClaimRewards(ctx context.Context, gasPrice *big.Int) (string, decimal.Decimal, error) {
	earned, err := e.client.EarnedRewards(ctx)
	if err != nil {
		return "", decimal.Zero, errors.Wrap(err, "failed to read earned rewards")
	}
	if earned.LessThanOrEqual(decimal.Zero) {
		return "", decimal.Zero, errors.New("no rewards to claim")
	}

	txHash, err := e.client.ClaimRewards(ctx, gasPrice)
	if err != nil {
		return txHash, decimal.Zero, errors.Wrap(err, "claim failed")
	}

	return txHash, earned, nil
}

// StakeIdle stakes any unstaked cbBTC into the gauge.
func (e *OnchainExecutor) StakeIdle(ctx context.Context, gasPrice *big.Int) (string, decimal.Decimal, error) {
	idle, err := e.client.CbBTCBalance(ctx)
	if err != nil {
		return "", decimal.Zero, errors.Wrap(err, "failed to read cbBTC balance")
	}
	if idle.LessThanOrEqual(decimal.Zero) {
		return "", decimal.Zero, nil
	}

	txHash, err := e.client.StakeInGauge(ctx, idle, gasPrice)
	if err != nil {
		return txHash, decimal.Zero, errors.Wrap(err, "stake failed")
	}

	return txHash, idle, nil
}

// QuoteBalance returns the wallet's USDC balance.
func (e *OnchainExecutor) QuoteBalance(ctx context.Context) (decimal.Decimal, error) {
	return e.client.USDCBalance(ctx)
}

// RewardsBalance returns claimable rewards in the gauge.
func (e *OnchainExecutor) RewardsBalance(ctx context.Context) (decimal.Decimal, error) {
	return e.client.EarnedRewards(ctx)
}
