package domain

import (
	"fmt"
	"time"
)

// Sentiment is the advisor's overall read of the market.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Advice is a recommendation returned by the advisory capability.
type Advice struct {
	Timestamp      time.Time `json:"ts"`
	Sentiment      Sentiment `json:"sentiment"`
	BuyOpportunity bool      `json:"buy_opportunity"`
	// Slippage is the recommended slippage tolerance in percent (0.5-2.0).
	Slippage float64 `json:"slippage_recommendation"`
	// GasAdjustment is a multiplier applied to the chain gas price (0.8-1.5).
	GasAdjustment float64 `json:"gas_adjustment"`
	Confidence    float64 `json:"confidence,omitempty"`
	Reasoning     string  `json:"reasoning"`
}

const (
	minSlippagePercent = 0.5
	maxSlippagePercent = 2.0
	minGasAdjustment   = 0.8
	maxGasAdjustment   = 1.5
)

// Validate checks the advice fields against allowed ranges.
func (a *Advice) Validate() error {
	switch a.Sentiment {
	case SentimentBullish, SentimentBearish, SentimentNeutral:
	default:
		return fmt.Errorf("unknown sentiment: %q", a.Sentiment)
	}
	if a.Slippage < minSlippagePercent || a.Slippage > maxSlippagePercent {
		return fmt.Errorf("slippage %.2f out of range [%.1f, %.1f]", a.Slippage, minSlippagePercent, maxSlippagePercent)
	}
	if a.GasAdjustment != 0 && (a.GasAdjustment < minGasAdjustment || a.GasAdjustment > maxGasAdjustment) {
		return fmt.Errorf("gas adjustment %.2f out of range [%.1f, %.1f]", a.GasAdjustment, minGasAdjustment, maxGasAdjustment)
	}
	return nil
}

// Clamp forces out-of-range numeric fields back into their allowed ranges.
func (a *Advice) Clamp() {
	if a.Slippage < minSlippagePercent {
		a.Slippage = minSlippagePercent
	}
	if a.Slippage > maxSlippagePercent {
		a.Slippage = maxSlippagePercent
	}
	if a.GasAdjustment == 0 {
		a.GasAdjustment = 1.0
	}
	if a.GasAdjustment < minGasAdjustment {
		a.GasAdjustment = minGasAdjustment
	}
	if a.GasAdjustment > maxGasAdjustment {
		a.GasAdjustment = maxGasAdjustment
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
}

// ConservativeAdvice is the fallback used when the advisory capability is
// unreachable: keep buying on schedule with minimal slippage and untouched gas.
func ConservativeAdvice(now time.Time) Advice {
	return Advice{
		Timestamp:      now,
		Sentiment:      SentimentNeutral,
		BuyOpportunity: true,
		Slippage:       minSlippagePercent,
		GasAdjustment:  1.0,
		Reasoning:      "advisor unavailable, defaulting to conservative parameters",
	}
}
