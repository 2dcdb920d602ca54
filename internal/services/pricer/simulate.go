package pricer

import (
	"context"
	"time"

	"github.com/vadiminshakov/dcagent/internal/clients"
	"github.com/vadiminshakov/dcagent/internal/domain"
)

const simulateSource = "simulate"

// SimulatePricer serves prices from the simulated chain in demo mode.
type SimulatePricer struct {
	client *clients.SimulateClient
}

// NewSimulatePricer creates a pricer backed by the simulated chain.
func NewSimulatePricer(client *clients.SimulateClient) *SimulatePricer {
	return &SimulatePricer{client: client}
}

// GetPrice returns the next step of the simulated price walk.
func (p *SimulatePricer) GetPrice(_ context.Context) (domain.PriceSample, error) {
	return domain.PriceSample{
		Time:   time.Now(),
		Price:  p.client.BTCPrice(),
		Source: simulateSource,
	}, nil
}
