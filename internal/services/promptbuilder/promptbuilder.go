// Package promptbuilder formats price data and transaction details into
// prompts for the advisory LLM.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/market"
)

const historyPromptLimit = 10

// PromptBuilder assembles advisor prompts.
type PromptBuilder struct{}

// NewPromptBuilder creates a PromptBuilder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildMarketAnalysisPrompt formats the market analysis request.
func (b *PromptBuilder) BuildMarketAnalysisPrompt(sample domain.PriceSample, history []decimal.Decimal, trend *market.TrendSnapshot) string {
	var sb strings.Builder

	sb.WriteString("You are assisting an autonomous DCA (Dollar-Cost Averaging) agent that buys small amounts of Bitcoin on Base L2 as cbBTC.\n\n")
	fmt.Fprintf(&sb, "Current BTC price: $%s\n\n", sample.Price.StringFixed(2))

	recent := history
	if len(recent) > historyPromptLimit {
		recent = recent[len(recent)-historyPromptLimit:]
	}
	if len(recent) > 0 {
		fmt.Fprintf(&sb, "Recent BTC price history (last %d data points, oldest first):\n", len(recent))
		for _, p := range recent {
			fmt.Fprintf(&sb, "- $%s\n", p.StringFixed(2))
		}
		sb.WriteString("\n")
	}

	if trend != nil {
		fmt.Fprintf(&sb, "Trend context: SMA(6)=$%s, RSI(6)=%s, direction=%s\n\n",
			trend.SMA.StringFixed(2), trend.RSI.StringFixed(1), trend.Direction)
	}

	sb.WriteString(`Provide a brief market analysis for the agent:
1. Market sentiment (bullish, bearish, or neutral)
2. Whether the current price represents a good buying opportunity
3. A slippage tolerance suggestion (0.5-2.0 percent)
4. Whether to stick with regular DCA or adjust

Respond with ONLY a valid JSON object with fields:
- sentiment: "bullish" | "bearish" | "neutral"
- buy_opportunity: true | false
- slippage_recommendation: number (0.5-2.0)
- confidence: number (0.0-1.0)
- reasoning: string (brief explanation)
`)

	return sb.String()
}

// BuildTransactionPrompt formats the transaction optimization request.
func (b *PromptBuilder) BuildTransactionPrompt(kind domain.ActionKind, amount decimal.Decimal, gasPriceGwei decimal.Decimal) string {
	var sb strings.Builder

	sb.WriteString("You are optimizing a blockchain transaction for an autonomous Bitcoin DCA agent on Base L2.\n\n")
	sb.WriteString("Transaction details:\n")
	fmt.Fprintf(&sb, "- Action: %s\n", kind)
	fmt.Fprintf(&sb, "- Amount: $%s\n", amount.StringFixed(2))
	fmt.Fprintf(&sb, "- Current Base L2 gas price: %s gwei\n\n", gasPriceGwei.StringFixed(4))

	sb.WriteString(`Recommend whether to proceed now or wait for lower gas, a gas price
adjustment, and a slippage tolerance.

Respond with ONLY a valid JSON object with fields:
- proceed: true | false
- gas_adjustment: number (0.8-1.5 multiplier)
- slippage: number (0.5-2.0)
- reasoning: string (brief explanation)
`)

	return sb.String()
}
