package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/pricer"
	"github.com/vadiminshakov/dcagent/internal/services/strategy"
)

// historyCapacity bounds the hourly price buffer shared with the dip detector
// and the advisor prompt (one day of samples).
const historyCapacity = 24

// historySampleEvery is the minimum gap between samples entering the buffer.
const historySampleEvery = time.Hour

// ActionLog records terminal action outcomes.
type ActionLog interface {
	Save(record domain.ActionRecord) error
}

// Agent is the orchestration loop: poll the price, feed the history buffer,
// let each strategy decide and act, and append every outcome to the log.
type Agent struct {
	pricer     pricer.Pricer
	strategies []strategy.Strategy
	log        ActionLog
	history    *domain.PriceHistory
	tick       time.Duration
	logger     *zap.Logger

	lastSample time.Time
}

// NewAgent creates the orchestration loop. The history buffer is shared: pass
// the same instance to strategies that need price context.
func NewAgent(logger *zap.Logger, p pricer.Pricer, log ActionLog, history *domain.PriceHistory,
	tick time.Duration, strategies ...strategy.Strategy) (*Agent, error) {

	if p == nil {
		return nil, errors.New("pricer is required")
	}
	if log == nil {
		return nil, errors.New("action log is required")
	}
	if len(strategies) == 0 {
		return nil, errors.New("at least one strategy is required")
	}
	if history == nil {
		history = domain.NewPriceHistory(historyCapacity)
	}
	if tick <= 0 {
		tick = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Agent{
		pricer:     p,
		strategies: strategies,
		log:        log,
		history:    history,
		tick:       tick,
		logger:     logger,
	}, nil
}

// Run executes the loop until ctx is cancelled. Strategy and log failures are
// logged and never stop the loop.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting agent loop",
		zap.Duration("tick", a.tick),
		zap.Int("strategies", len(a.strategies)))

	a.Tick(ctx, time.Now())

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("context done, stopping agent loop")
			return ctx.Err()
		case now := <-ticker.C:
			a.Tick(ctx, now)
		}
	}
}

// Tick runs a single iteration of the loop.
func (a *Agent) Tick(ctx context.Context, now time.Time) {
	sample, err := a.pricer.GetPrice(ctx)
	if err != nil {
		a.logger.Error("price poll failed, skipping tick", zap.Error(err))
		return
	}

	if a.lastSample.IsZero() || now.Sub(a.lastSample) >= historySampleEvery {
		a.history.Add(sample)
		a.lastSample = now
	}

	for _, s := range a.strategies {
		if !s.ShouldExecute(ctx, now, sample) {
			continue
		}

		record, err := s.Execute(ctx, now, sample)
		if err != nil {
			a.logger.Error("strategy failed",
				zap.String("strategy", s.Name()),
				zap.Error(err))
			continue
		}
		if record == nil {
			continue
		}

		if err := a.log.Save(*record); err != nil {
			a.logger.Error("failed to persist action record",
				zap.String("strategy", s.Name()),
				zap.String("record_id", record.ID),
				zap.Error(err))
			continue
		}

		a.logger.Info("action recorded",
			zap.String("strategy", s.Name()),
			zap.String("kind", string(record.Kind)),
			zap.Bool("success", record.Succeeded()),
			zap.String("tx", record.TxHash))
	}
}

// History exposes the shared price buffer.
func (a *Agent) History() *domain.PriceHistory {
	return a.history
}
