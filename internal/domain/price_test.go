package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(price int64, at time.Time) PriceSample {
	return PriceSample{Time: at, Price: decimal.NewFromInt(price), Source: "test"}
}

func TestPercentageDiff(t *testing.T) {
	diff := PercentageDiff(decimal.NewFromInt(95), decimal.NewFromInt(100))
	assert.True(t, diff.Equal(decimal.NewFromInt(-5)), "got %s", diff)

	diff = PercentageDiff(decimal.NewFromInt(110), decimal.NewFromInt(100))
	assert.True(t, diff.Equal(decimal.NewFromInt(10)), "got %s", diff)

	assert.True(t, PercentageDiff(decimal.NewFromInt(1), decimal.Zero).IsZero())
}

func TestPriceHistoryEviction(t *testing.T) {
	h := NewPriceHistory(3)
	now := time.Now()

	for i := int64(1); i <= 5; i++ {
		h.Add(sample(i*1000, now.Add(time.Duration(i)*time.Hour)))
	}

	require.Equal(t, 3, h.Len())
	prices := h.Prices()
	assert.True(t, prices[0].Equal(decimal.NewFromInt(3000)))
	assert.True(t, prices[2].Equal(decimal.NewFromInt(5000)))

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.True(t, latest.Price.Equal(decimal.NewFromInt(5000)))
}

func TestPriceHistoryLatestEmpty(t *testing.T) {
	h := NewPriceHistory(3)
	_, ok := h.Latest()
	assert.False(t, ok)
}

func TestMovingAverageExcludesLatest(t *testing.T) {
	h := NewPriceHistory(10)
	now := time.Now()

	// six samples at 70000, then a crash sample
	for i := 0; i < 6; i++ {
		h.Add(sample(70000, now.Add(time.Duration(i)*time.Hour)))
	}
	h.Add(sample(60000, now.Add(6*time.Hour)))

	avg, ok := h.MovingAverage(6)
	require.True(t, ok)
	assert.True(t, avg.Equal(decimal.NewFromInt(70000)), "latest sample must not enter the average, got %s", avg)
}

func TestMovingAverageNeedsWindowPlusOne(t *testing.T) {
	h := NewPriceHistory(10)
	now := time.Now()
	for i := 0; i < 6; i++ {
		h.Add(sample(70000, now.Add(time.Duration(i)*time.Hour)))
	}

	_, ok := h.MovingAverage(6)
	assert.False(t, ok, "six samples cannot fill a six-wide window plus the latest")

	h.Add(sample(70000, now.Add(6*time.Hour)))
	_, ok = h.MovingAverage(6)
	assert.True(t, ok)
}
