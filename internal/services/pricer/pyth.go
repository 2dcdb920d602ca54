package pricer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/dcagent/internal/clients"
	"github.com/vadiminshakov/dcagent/internal/domain"
)

const pythSource = "pyth"

// PythPricer reads BTC/USD from the on-chain Pyth feed through the Base client.
type PythPricer struct {
	client *clients.BaseClient
}

// NewPythPricer creates a pricer backed by the Pyth price feed contract.
func NewPythPricer(client *clients.BaseClient) *PythPricer {
	return &PythPricer{client: client}
}

// GetPrice fetches the current BTC/USD price.
func (p *PythPricer) GetPrice(ctx context.Context) (domain.PriceSample, error) {
	price, err := p.client.BTCPrice(ctx)
	if err != nil {
		return domain.PriceSample{}, errors.Wrap(err, "failed to fetch BTC price from Pyth")
	}

	return domain.PriceSample{
		Time:   time.Now(),
		Price:  price,
		Source: pythSource,
	}, nil
}
