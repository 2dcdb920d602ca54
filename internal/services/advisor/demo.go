package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/market"
)

// DemoAdvisor returns canned recommendations derived from the trend snapshot.
// It performs no network calls and is used in demo mode.
type DemoAdvisor struct{}

// NewDemoAdvisor creates a demo-mode advisor.
func NewDemoAdvisor() *DemoAdvisor {
	return &DemoAdvisor{}
}

// MarketAnalysis derives a recommendation purely from local trend data.
func (a *DemoAdvisor) MarketAnalysis(_ context.Context, sample domain.PriceSample, history []decimal.Decimal) (domain.Advice, error) {
	advice := domain.ConservativeAdvice(time.Now())
	advice.Reasoning = "demo mode: simulated analysis, no live API call"

	snapshot, err := market.ComputeTrend(history)
	if err != nil {
		return advice, nil
	}

	switch snapshot.Direction {
	case "up", "overbought":
		advice.Sentiment = domain.SentimentBullish
		advice.BuyOpportunity = snapshot.Direction != "overbought"
	case "down", "oversold":
		advice.Sentiment = domain.SentimentBearish
		advice.BuyOpportunity = true
		advice.Slippage = 1.0
	default:
		advice.Sentiment = domain.SentimentNeutral
		advice.BuyOpportunity = true
	}
	advice.Confidence = 0.5
	advice.Reasoning = fmt.Sprintf("demo mode: trend %s, price $%s vs SMA $%s",
		snapshot.Direction, sample.Price.StringFixed(2), snapshot.SMA.StringFixed(2))

	return advice, nil
}

// OptimizeTransaction always proceeds with neutral parameters in demo mode.
func (a *DemoAdvisor) OptimizeTransaction(_ context.Context, _ domain.ActionKind, _, _ decimal.Decimal) (TxAdvice, error) {
	return TxAdvice{
		Proceed:       true,
		GasAdjustment: 1.0,
		Slippage:      0.5,
		Reasoning:     "demo mode: simulated optimization, no live API call",
	}, nil
}
