// Package market derives lightweight trend context from recent price samples.
// It uses the cinar/indicator library for the moving average and RSI values
// fed into the advisor prompt.
package market

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

const (
	smaPeriod = 6
	rsiPeriod = 6

	rsiOverbought = 70
	rsiOversold   = 30
)

// TrendSnapshot summarizes the recent price action for the advisor.
type TrendSnapshot struct {
	SMA       decimal.Decimal `json:"sma"`
	RSI       decimal.Decimal `json:"rsi"`
	Direction string          `json:"direction"`
}

// ComputeTrend calculates SMA and RSI over the price history (oldest first).
func ComputeTrend(prices []decimal.Decimal) (TrendSnapshot, error) {
	if len(prices) < rsiPeriod+1 {
		return TrendSnapshot{}, fmt.Errorf("not enough data points: need %d, got %d", rsiPeriod+1, len(prices))
	}

	floats := make([]float64, len(prices))
	for i, p := range prices {
		floats[i], _ = p.Float64()
	}

	sma := trend.NewSmaWithPeriod[float64](smaPeriod)
	smaValues := helper.ChanToSlice(sma.Compute(helper.SliceToChan(floats)))
	if len(smaValues) == 0 {
		return TrendSnapshot{}, fmt.Errorf("SMA produced no values for %d inputs", len(prices))
	}

	rsi := momentum.NewRsiWithPeriod[float64](rsiPeriod)
	rsiValues := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(floats)))
	if len(rsiValues) == 0 {
		return TrendSnapshot{}, fmt.Errorf("RSI produced no values for %d inputs", len(prices))
	}

	lastSMA := smaValues[len(smaValues)-1]
	lastRSI := rsiValues[len(rsiValues)-1]
	last, _ := prices[len(prices)-1].Float64()

	direction := "sideways"
	switch {
	case lastRSI >= rsiOverbought:
		direction = "overbought"
	case lastRSI <= rsiOversold:
		direction = "oversold"
	case last > lastSMA:
		direction = "up"
	case last < lastSMA:
		direction = "down"
	}

	return TrendSnapshot{
		SMA:       decimal.NewFromFloat(lastSMA),
		RSI:       decimal.NewFromFloat(lastRSI),
		Direction: direction,
	}, nil
}
