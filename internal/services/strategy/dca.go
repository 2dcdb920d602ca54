package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/advisor"
	"github.com/vadiminshakov/dcagent/internal/services/executor"
	"github.com/vadiminshakov/dcagent/internal/services/gas"
)

const dcaName = "dca"

// DCAStrategy buys a fixed USD amount of BTC on a fixed cadence.
type DCAStrategy struct {
	amount   decimal.Decimal
	interval domain.Interval
	next     time.Time

	exec    executor.Executor
	adv     advisor.Advisor
	gas     *gas.Optimizer
	history *domain.PriceHistory
	logger  *zap.Logger
}

// NewDCAStrategy creates the scheduled-buy strategy. The first buy fires one
// interval after start. adv may be nil when the advisor is disabled.
func NewDCAStrategy(logger *zap.Logger, amount decimal.Decimal, interval domain.Interval, exec executor.Executor,
	adv advisor.Advisor, gasOpt *gas.Optimizer, history *domain.PriceHistory, start time.Time) (*DCAStrategy, error) {

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Errorf("DCA amount must be positive, got %s", amount)
	}
	if exec == nil {
		return nil, errors.New("executor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DCAStrategy{
		amount:   amount,
		interval: interval,
		next:     interval.Next(start),
		exec:     exec,
		adv:      adv,
		gas:      gasOpt,
		history:  history,
		logger:   logger.With(zap.String("strategy", dcaName)),
	}, nil
}

// Name returns the strategy identifier.
func (s *DCAStrategy) Name() string { return dcaName }

// NextExecution returns the time of the next scheduled buy.
func (s *DCAStrategy) NextExecution() time.Time { return s.next }

// ShouldExecute reports whether the scheduled buy is due.
func (s *DCAStrategy) ShouldExecute(_ context.Context, now time.Time, _ domain.PriceSample) bool {
	return !now.Before(s.next)
}

// Execute performs the scheduled buy and reschedules. A gas deferral returns
// (nil, nil) and retries on the next tick without rescheduling.
func (s *DCAStrategy) Execute(ctx context.Context, now time.Time, sample domain.PriceSample) (*domain.ActionRecord, error) {
	record, deferred, err := buyBTC(ctx, buyParams{
		kind:    domain.ActionScheduledBuy,
		amount:  s.amount,
		sample:  sample,
		now:     now,
		exec:    s.exec,
		adv:     s.adv,
		gas:     s.gas,
		history: s.history,
		logger:  s.logger,
	})
	if err != nil {
		return nil, err
	}
	if deferred {
		return nil, nil
	}

	// reschedule after any terminal outcome so one interval produces at
	// most one scheduled attempt
	s.next = s.interval.Next(now)
	s.logger.Info("next scheduled buy", zap.Time("at", s.next))

	return record, nil
}

// buyParams bundles the shared buy flow inputs.
type buyParams struct {
	kind    domain.ActionKind
	amount  decimal.Decimal
	sample  domain.PriceSample
	now     time.Time
	exec    executor.Executor
	adv     advisor.Advisor
	gas     *gas.Optimizer
	history *domain.PriceHistory
	logger  *zap.Logger
}

// buyBTC runs the shared buy flow for scheduled and dip buys: consult the
// advisor, plan gas, submit the swap and produce a terminal record. The
// returned bool is true when the buy was deferred on advisor recommendation.
func buyBTC(ctx context.Context, p buyParams) (*domain.ActionRecord, bool, error) {
	if balance, err := p.exec.QuoteBalance(ctx); err == nil && balance.LessThan(p.amount) {
		record, rerr := domain.NewFailureRecord(p.kind, p.amount,
			fmt.Sprintf("insufficient USDC balance: have %s, need %s",
				balance.StringFixed(2), p.amount.StringFixed(2)), p.now)
		if rerr != nil {
			return nil, false, rerr
		}
		return &record, false, nil
	}

	var marketAdvice *domain.Advice
	if p.adv != nil {
		var prices []decimal.Decimal
		if p.history != nil {
			prices = p.history.Prices()
		}
		advice, err := p.adv.MarketAnalysis(ctx, p.sample, prices)
		if err != nil {
			p.logger.Warn("market analysis failed, using conservative defaults", zap.Error(err))
			advice = domain.ConservativeAdvice(p.now)
		}
		marketAdvice = &advice
	}

	plan := gas.Plan{Slippage: decimal.NewFromFloat(0.5), Proceed: true}
	if p.gas != nil {
		var err error
		plan, err = p.gas.Plan(ctx, p.kind, p.amount)
		if err != nil {
			record, rerr := domain.NewFailureRecord(p.kind, p.amount, err.Error(), p.now)
			if rerr != nil {
				return nil, false, rerr
			}
			record = record.WithAdvice(marketAdvice)
			return &record, false, nil
		}
	}

	if !plan.Proceed {
		p.logger.Info("buy deferred pending better gas", zap.String("reason", plan.Reasoning))
		return nil, true, nil
	}

	if marketAdvice != nil && marketAdvice.Slippage > 0 {
		plan.Slippage = decimal.NewFromFloat(marketAdvice.Slippage)
	}

	p.logger.Info("executing buy",
		zap.String("kind", string(p.kind)),
		zap.String("usd_amount", p.amount.StringFixed(2)),
		zap.String("price", p.sample.Price.StringFixed(2)))

	txHash, executed, err := p.exec.BuyBTC(ctx, p.amount, p.sample.Price, plan.Slippage, plan.GasPrice)
	if err != nil {
		p.logger.Error("buy failed", zap.Error(err))
		record, rerr := domain.NewFailureRecord(p.kind, p.amount, err.Error(), p.now)
		if rerr != nil {
			return nil, false, rerr
		}
		record = record.WithAdvice(marketAdvice)
		return &record, false, nil
	}

	record, err := domain.NewSuccessRecord(p.kind, p.amount, executed, p.sample.Price, txHash, p.now)
	if err != nil {
		return nil, false, err
	}
	record = record.WithAdvice(marketAdvice)

	p.logger.Info("buy executed",
		zap.String("tx", txHash),
		zap.String("btc_amount", executed.StringFixed(8)))

	return &record, false, nil
}
