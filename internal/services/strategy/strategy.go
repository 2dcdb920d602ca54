// Package strategy implements the agent's decision rules: scheduled DCA buys,
// opportunistic dip buys and yield maintenance.
package strategy

import (
	"context"
	"time"

	"github.com/vadiminshakov/dcagent/internal/domain"
)

// Strategy decides whether and how to act on a tick.
//
// Execute must return a terminal ActionRecord (success or failure) for every
// attempted capability call. A nil record with nil error means the strategy
// deferred the action to a later tick.
type Strategy interface {
	Name() string
	ShouldExecute(ctx context.Context, now time.Time, sample domain.PriceSample) bool
	Execute(ctx context.Context, now time.Time, sample domain.PriceSample) (*domain.ActionRecord, error)
}
