package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single BTC/USD observation from the price feed.
// Samples are ephemeral: they feed the action decision and the dip history
// buffer but are not persisted.
type PriceSample struct {
	Time   time.Time       `json:"time"`
	Price  decimal.Decimal `json:"price"`
	Source string          `json:"source"`
}

// PercentageDiff returns (a-b)/b*100.
func PercentageDiff(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Sub(b).Div(b).Mul(decimal.NewFromInt(100))
}

// PriceHistory is a bounded FIFO buffer of price samples used by the dip
// detector, the advisor prompt and the dashboard. Safe for concurrent use.
type PriceHistory struct {
	mu      sync.RWMutex
	samples []PriceSample
	cap     int
}

// NewPriceHistory creates a history buffer holding at most capacity samples.
func NewPriceHistory(capacity int) *PriceHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &PriceHistory{cap: capacity}
}

// Add appends a sample, evicting the oldest one when the buffer is full.
func (h *PriceHistory) Add(s PriceSample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, s)
	if len(h.samples) > h.cap {
		h.samples = h.samples[len(h.samples)-h.cap:]
	}
}

// Len returns the number of stored samples.
func (h *PriceHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.samples)
}

// Latest returns the most recent sample.
func (h *PriceHistory) Latest() (PriceSample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return PriceSample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Prices returns all stored prices, oldest first.
func (h *PriceHistory) Prices() []decimal.Decimal {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]decimal.Decimal, len(h.samples))
	for i, s := range h.samples {
		out[i] = s.Price
	}
	return out
}

// MovingAverage averages the window samples preceding the latest one,
// excluding the latest sample itself.
func (h *PriceHistory) MovingAverage(window int) (decimal.Decimal, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if window < 1 || len(h.samples) < window+1 {
		return decimal.Zero, false
	}

	sum := decimal.Zero
	for _, s := range h.samples[len(h.samples)-window-1 : len(h.samples)-1] {
		sum = sum.Add(s.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(window))), true
}
