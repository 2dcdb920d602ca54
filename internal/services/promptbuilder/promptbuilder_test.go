package promptbuilder

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/market"
)

func TestBuildMarketAnalysisPrompt(t *testing.T) {
	b := NewPromptBuilder()
	sample := domain.PriceSample{Time: time.Now(), Price: decimal.NewFromInt(65000), Source: "pyth"}

	history := make([]decimal.Decimal, 0, 15)
	for i := 0; i < 15; i++ {
		history = append(history, decimal.NewFromInt(int64(64000+i*100)))
	}
	trend := &market.TrendSnapshot{
		SMA:       decimal.NewFromInt(64800),
		RSI:       decimal.NewFromInt(55),
		Direction: "up",
	}

	prompt := b.BuildMarketAnalysisPrompt(sample, history, trend)

	assert.Contains(t, prompt, "$65000.00")
	assert.Contains(t, prompt, "last 10 data points", "history is capped for the prompt")
	assert.Contains(t, prompt, "direction=up")
	assert.Contains(t, prompt, "buy_opportunity")
	assert.NotContains(t, prompt, "$64000.00", "oldest samples fall outside the capped window")
}

func TestBuildMarketAnalysisPromptWithoutContext(t *testing.T) {
	b := NewPromptBuilder()
	sample := domain.PriceSample{Time: time.Now(), Price: decimal.NewFromInt(65000)}

	prompt := b.BuildMarketAnalysisPrompt(sample, nil, nil)

	assert.Contains(t, prompt, "$65000.00")
	assert.NotContains(t, prompt, "price history")
	assert.NotContains(t, prompt, "Trend context")
}

func TestBuildTransactionPrompt(t *testing.T) {
	b := NewPromptBuilder()

	prompt := b.BuildTransactionPrompt(domain.ActionDipBuy, decimal.NewFromInt(50), decimal.NewFromFloat(0.0123))

	assert.Contains(t, prompt, "dip_buy")
	assert.Contains(t, prompt, "$50.00")
	assert.Contains(t, prompt, "0.0123 gwei")
	assert.Contains(t, prompt, "gas_adjustment")
}
