package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/executor"
	"github.com/vadiminshakov/dcagent/internal/services/gas"
)

const (
	yieldName = "yield"

	claimPeriod      = 7 * 24 * time.Hour
	stakeCheckPeriod = 24 * time.Hour
)

// YieldStrategy claims staking rewards from the gauge on a weekly cadence and,
// when reinvesting is on, stakes idle cbBTC back into the gauge daily.
type YieldStrategy struct {
	enabled     bool
	reinvest    bool
	minClaimUSD decimal.Decimal

	nextClaim      time.Time
	nextStakeCheck time.Time

	exec   executor.Executor
	gas    *gas.Optimizer
	logger *zap.Logger
}

// NewYieldStrategy creates the yield strategy. The first claim fires one week
// after start, the first stake check one day after.
func NewYieldStrategy(logger *zap.Logger, enabled, reinvest bool, minClaimUSD decimal.Decimal,
	exec executor.Executor, gasOpt *gas.Optimizer, start time.Time) *YieldStrategy {

	if logger == nil {
		logger = zap.NewNop()
	}
	return &YieldStrategy{
		enabled:        enabled,
		reinvest:       reinvest,
		minClaimUSD:    minClaimUSD,
		nextClaim:      start.Add(claimPeriod),
		nextStakeCheck: start.Add(stakeCheckPeriod),
		exec:           exec,
		gas:            gasOpt,
		logger:         logger.With(zap.String("strategy", yieldName)),
	}
}

// Name returns the strategy identifier.
func (s *YieldStrategy) Name() string { return yieldName }

// ShouldExecute reports whether a claim or a stake check is due.
func (s *YieldStrategy) ShouldExecute(_ context.Context, now time.Time, _ domain.PriceSample) bool {
	if !s.enabled {
		return false
	}
	if !now.Before(s.nextClaim) {
		return true
	}
	return s.reinvest && !now.Before(s.nextStakeCheck)
}

// Execute runs the due maintenance step, claims taking priority over stake
// checks. Steps that find nothing to do produce no record.
func (s *YieldStrategy) Execute(ctx context.Context, now time.Time, sample domain.PriceSample) (*domain.ActionRecord, error) {
	if !now.Before(s.nextClaim) {
		return s.claim(ctx, now, sample)
	}
	return s.stakeIdle(ctx, now, sample)
}

func (s *YieldStrategy) claim(ctx context.Context, now time.Time, sample domain.PriceSample) (*domain.ActionRecord, error) {
	rewards, err := s.exec.RewardsBalance(ctx)
	if err != nil {
		s.logger.Warn("rewards lookup failed, retrying next tick", zap.Error(err))
		return nil, nil
	}

	if rewards.LessThan(s.minClaimUSD) {
		s.logger.Info("rewards below claim threshold",
			zap.String("rewards_usd", rewards.StringFixed(2)),
			zap.String("min_usd", s.minClaimUSD.StringFixed(2)))
		s.nextClaim = now.Add(claimPeriod)
		return nil, nil
	}

	plan := gas.Plan{Proceed: true}
	if s.gas != nil {
		plan, err = s.gas.Plan(ctx, domain.ActionYieldClaim, rewards)
		if err != nil {
			record, rerr := domain.NewFailureRecord(domain.ActionYieldClaim, rewards, err.Error(), now)
			if rerr != nil {
				return nil, rerr
			}
			s.nextClaim = now.Add(claimPeriod)
			return &record, nil
		}
	}
	if !plan.Proceed {
		s.logger.Info("claim deferred pending better gas", zap.String("reason", plan.Reasoning))
		return nil, nil
	}

	s.logger.Info("claiming rewards", zap.String("rewards_usd", rewards.StringFixed(2)))

	txHash, claimed, err := s.exec.ClaimRewards(ctx, plan.GasPrice)
	if err != nil {
		s.logger.Error("claim failed", zap.Error(err))
		record, rerr := domain.NewFailureRecord(domain.ActionYieldClaim, rewards, err.Error(), now)
		if rerr != nil {
			return nil, rerr
		}
		s.nextClaim = now.Add(claimPeriod)
		return &record, nil
	}

	record, err := domain.NewSuccessRecord(domain.ActionYieldClaim, rewards, claimed, sample.Price, txHash, now)
	if err != nil {
		return nil, err
	}

	s.nextClaim = now.Add(claimPeriod)
	s.logger.Info("rewards claimed", zap.String("tx", txHash), zap.Time("next_claim", s.nextClaim))

	return &record, nil
}

func (s *YieldStrategy) stakeIdle(ctx context.Context, now time.Time, sample domain.PriceSample) (*domain.ActionRecord, error) {
	plan := gas.Plan{Proceed: true}
	if s.gas != nil {
		var err error
		plan, err = s.gas.Plan(ctx, domain.ActionYieldStake, decimal.Zero)
		if err != nil {
			s.logger.Warn("gas plan failed, retrying stake next tick", zap.Error(err))
			return nil, nil
		}
	}
	if !plan.Proceed {
		s.logger.Info("stake deferred pending better gas", zap.String("reason", plan.Reasoning))
		return nil, nil
	}

	txHash, staked, err := s.exec.StakeIdle(ctx, plan.GasPrice)
	if err != nil {
		s.logger.Error("stake failed", zap.Error(err))
		record, rerr := domain.NewFailureRecord(domain.ActionYieldStake, decimal.Zero, err.Error(), now)
		if rerr != nil {
			return nil, rerr
		}
		s.nextStakeCheck = now.Add(stakeCheckPeriod)
		return &record, nil
	}

	s.nextStakeCheck = now.Add(stakeCheckPeriod)

	// empty hash means nothing was idle
	if txHash == "" {
		return nil, nil
	}

	record, err := domain.NewSuccessRecord(domain.ActionYieldStake, staked, staked, sample.Price, txHash, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info("idle balance staked",
		zap.String("tx", txHash),
		zap.String("btc_amount", staked.StringFixed(8)))

	return &record, nil
}
