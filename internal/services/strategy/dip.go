package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/advisor"
	"github.com/vadiminshakov/dcagent/internal/services/executor"
	"github.com/vadiminshakov/dcagent/internal/services/gas"
)

const (
	dipName = "dip"

	// dipWindow is the number of hourly samples the moving average spans.
	dipWindow = 6

	// dipCooldown limits how often dip buys may fire.
	dipCooldown = 24 * time.Hour
)

// DipStrategy buys extra BTC when the price drops sharply below its recent
// moving average. Disabled strategies never produce records.
type DipStrategy struct {
	enabled   bool
	threshold decimal.Decimal
	amount    decimal.Decimal
	lastBuy   time.Time

	exec    executor.Executor
	adv     advisor.Advisor
	gas     *gas.Optimizer
	history *domain.PriceHistory
	logger  *zap.Logger
}

// NewDipStrategy creates the dip-buy strategy. threshold is the percentage
// drop below the moving average that triggers a buy (e.g. 5 means -5%).
func NewDipStrategy(logger *zap.Logger, enabled bool, threshold, amount decimal.Decimal, exec executor.Executor,
	adv advisor.Advisor, gasOpt *gas.Optimizer, history *domain.PriceHistory) *DipStrategy {

	if logger == nil {
		logger = zap.NewNop()
	}
	return &DipStrategy{
		enabled:   enabled,
		threshold: threshold,
		amount:    amount,
		exec:      exec,
		adv:       adv,
		gas:       gasOpt,
		history:   history,
		logger:    logger.With(zap.String("strategy", dipName)),
	}
}

// Name returns the strategy identifier.
func (s *DipStrategy) Name() string { return dipName }

// ShouldExecute reports whether the current price qualifies as a dip: enough
// history, a drop past the threshold and the cooldown elapsed.
func (s *DipStrategy) ShouldExecute(_ context.Context, now time.Time, sample domain.PriceSample) bool {
	if !s.enabled || s.history == nil {
		return false
	}
	if !s.lastBuy.IsZero() && now.Sub(s.lastBuy) < dipCooldown {
		return false
	}

	avg, ok := s.history.MovingAverage(dipWindow)
	if !ok {
		return false
	}

	drop := domain.PercentageDiff(sample.Price, avg)
	if drop.GreaterThan(s.threshold.Neg()) {
		return false
	}

	s.logger.Info("dip detected",
		zap.String("price", sample.Price.StringFixed(2)),
		zap.String("moving_avg", avg.StringFixed(2)),
		zap.String("drop_pct", drop.StringFixed(2)))

	return true
}

// Execute performs the dip buy. The cooldown starts only after a successful
// buy so a failed attempt can retry once conditions still hold.
func (s *DipStrategy) Execute(ctx context.Context, now time.Time, sample domain.PriceSample) (*domain.ActionRecord, error) {
	record, deferred, err := buyBTC(ctx, buyParams{
		kind:    domain.ActionDipBuy,
		amount:  s.amount,
		sample:  sample,
		now:     now,
		exec:    s.exec,
		adv:     s.adv,
		gas:     s.gas,
		history: s.history,
		logger:  s.logger,
	})
	if err != nil || deferred {
		return nil, err
	}

	if record.Succeeded() {
		s.lastBuy = now
	}

	return record, nil
}
