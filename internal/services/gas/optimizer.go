// Package gas plans transaction gas price and slippage, optionally consulting
// the AI advisor for timing and adjustment recommendations.
package gas

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/advisor"
)

var gweiFactor = decimal.New(1, 9)

// Reader exposes the chain's suggested gas price.
type Reader interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Plan is the resolved transaction parameters for a pending action.
type Plan struct {
	// GasPrice is nil when the execution capability manages gas itself
	// (demo mode).
	GasPrice  *big.Int
	Slippage  decimal.Decimal
	Proceed   bool
	Reasoning string
}

// Optimizer combines the chain gas price with advisor adjustments.
type Optimizer struct {
	chain  Reader
	adv    advisor.Advisor
	logger *zap.Logger
}

// NewOptimizer creates an Optimizer. Both chain and adv may be nil: a nil
// chain skips gas pricing entirely, a nil advisor applies no adjustment.
func NewOptimizer(chain Reader, adv advisor.Advisor, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{chain: chain, adv: adv, logger: logger}
}

// Plan resolves gas price and slippage for the given action. Advisor failures
// degrade to defaults and never block the action.
func (o *Optimizer) Plan(ctx context.Context, kind domain.ActionKind, amountUSD decimal.Decimal) (Plan, error) {
	plan := Plan{
		Slippage: decimal.NewFromFloat(0.5),
		Proceed:  true,
	}

	if o.chain == nil {
		return plan, nil
	}

	raw, err := o.chain.GasPrice(ctx)
	if err != nil {
		return Plan{}, errors.Wrap(err, "failed to read gas price")
	}
	plan.GasPrice = raw

	if o.adv == nil {
		return plan, nil
	}

	gwei := decimal.NewFromBigInt(raw, 0).Div(gweiFactor)
	txAdvice, err := o.adv.OptimizeTransaction(ctx, kind, amountUSD, gwei)
	if err != nil {
		o.logger.Warn("transaction optimization failed, using chain gas price", zap.Error(err))
		txAdvice = advisor.DefaultTxAdvice()
	}

	plan.Proceed = txAdvice.Proceed
	plan.Slippage = decimal.NewFromFloat(txAdvice.Slippage)
	plan.Reasoning = txAdvice.Reasoning

	adjusted := decimal.NewFromBigInt(raw, 0).Mul(decimal.NewFromFloat(txAdvice.GasAdjustment))
	plan.GasPrice = adjusted.Truncate(0).BigInt()

	if !txAdvice.Proceed {
		o.logger.Info("advisor recommends waiting for better gas",
			zap.String("action", string(kind)),
			zap.String("reasoning", txAdvice.Reasoning))
	}

	return plan, nil
}
