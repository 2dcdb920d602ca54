// Package advisor integrates the AI advisory capability. The advisory is
// optional: strategies degrade to conservative defaults when it is disabled
// or unreachable.
package advisor

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/dcagent/internal/domain"
)

// TxAdvice is the advisor's recommendation for a pending transaction.
type TxAdvice struct {
	Proceed       bool    `json:"proceed"`
	GasAdjustment float64 `json:"gas_adjustment"`
	Slippage      float64 `json:"slippage"`
	Reasoning     string  `json:"reasoning"`
}

// DefaultTxAdvice is used when the advisor is unavailable.
func DefaultTxAdvice() TxAdvice {
	return TxAdvice{
		Proceed:       true,
		GasAdjustment: 1.0,
		Slippage:      0.5,
		Reasoning:     "advisor unavailable, using default transaction parameters",
	}
}

// Advisor produces market and transaction recommendations.
type Advisor interface {
	// MarketAnalysis returns a recommendation for the current market state.
	MarketAnalysis(ctx context.Context, sample domain.PriceSample, history []decimal.Decimal) (domain.Advice, error)

	// OptimizeTransaction returns parameters for a pending transaction.
	OptimizeTransaction(ctx context.Context, kind domain.ActionKind, amount, gasPriceGwei decimal.Decimal) (TxAdvice, error)
}
