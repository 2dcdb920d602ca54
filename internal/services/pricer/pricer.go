// Package pricer provides access to the BTC/USD price feed.
package pricer

import (
	"context"

	"github.com/vadiminshakov/dcagent/internal/domain"
)

// Pricer returns the current BTC/USD price.
type Pricer interface {
	GetPrice(ctx context.Context) (domain.PriceSample, error)
}
