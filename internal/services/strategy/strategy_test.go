package strategy

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/advisor"
	"github.com/vadiminshakov/dcagent/internal/services/gas"
)

type fakeExecutor struct {
	buyErr    error
	buyCalls  int
	claimErr  error
	rewards   decimal.Decimal
	stakeHash string
	balance   decimal.Decimal
}

func (f *fakeExecutor) BuyBTC(_ context.Context, usdAmount, price, _ decimal.Decimal, _ *big.Int) (string, decimal.Decimal, error) {
	f.buyCalls++
	if f.buyErr != nil {
		return "", decimal.Zero, f.buyErr
	}
	return "0xabc", usdAmount.Div(price), nil
}

func (f *fakeExecutor) ClaimRewards(_ context.Context, _ *big.Int) (string, decimal.Decimal, error) {
	if f.claimErr != nil {
		return "", decimal.Zero, f.claimErr
	}
	return "0xclaim", f.rewards, nil
}

func (f *fakeExecutor) StakeIdle(_ context.Context, _ *big.Int) (string, decimal.Decimal, error) {
	if f.stakeHash == "" {
		return "", decimal.Zero, nil
	}
	return f.stakeHash, decimal.NewFromFloat(0.001), nil
}

func (f *fakeExecutor) QuoteBalance(_ context.Context) (decimal.Decimal, error) {
	if f.balance.IsZero() {
		return decimal.NewFromInt(10000), nil
	}
	return f.balance, nil
}

func (f *fakeExecutor) RewardsBalance(_ context.Context) (decimal.Decimal, error) {
	return f.rewards, nil
}

type fakeAdvisor struct {
	proceed bool
}

func (f *fakeAdvisor) MarketAnalysis(_ context.Context, _ domain.PriceSample, _ []decimal.Decimal) (domain.Advice, error) {
	return domain.ConservativeAdvice(time.Now()), nil
}

func (f *fakeAdvisor) OptimizeTransaction(_ context.Context, _ domain.ActionKind, _, _ decimal.Decimal) (advisor.TxAdvice, error) {
	return advisor.TxAdvice{Proceed: f.proceed, GasAdjustment: 1.0, Slippage: 0.5, Reasoning: "test"}, nil
}

type fakeGasReader struct{}

func (fakeGasReader) GasPrice(_ context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func sampleAt(price float64, ts time.Time) domain.PriceSample {
	return domain.PriceSample{Time: ts, Price: decimal.NewFromFloat(price), Source: "test"}
}

func TestDCAStrategySchedule(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interval, err := domain.ParseInterval("daily")
	require.NoError(t, err)

	exec := &fakeExecutor{}
	s, err := NewDCAStrategy(nil, decimal.NewFromInt(100), interval, exec, nil, nil, nil, start)
	require.NoError(t, err)

	ctx := context.Background()
	sample := sampleAt(65000, start)

	assert.False(t, s.ShouldExecute(ctx, start, sample))
	assert.False(t, s.ShouldExecute(ctx, start.Add(23*time.Hour), sample))
	assert.True(t, s.ShouldExecute(ctx, start.Add(24*time.Hour), sample))
}

func TestDCAStrategyExecuteSuccess(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interval, err := domain.ParseInterval("daily")
	require.NoError(t, err)

	exec := &fakeExecutor{}
	s, err := NewDCAStrategy(nil, decimal.NewFromInt(100), interval, exec, nil, nil, nil, start)
	require.NoError(t, err)

	now := start.Add(25 * time.Hour)
	record, err := s.Execute(context.Background(), now, sampleAt(65000, now))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, domain.ActionScheduledBuy, record.Kind)
	assert.True(t, record.Succeeded())
	assert.True(t, record.Terminal())
	assert.Equal(t, "0xabc", record.TxHash)
	assert.Equal(t, 1, exec.buyCalls)

	// rescheduled one interval after execution
	assert.Equal(t, now.Add(24*time.Hour), s.NextExecution())
}

func TestDCAStrategyExecuteFailure(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interval, err := domain.ParseInterval("weekly")
	require.NoError(t, err)

	exec := &fakeExecutor{buyErr: errors.New("insufficient USDC balance")}
	s, err := NewDCAStrategy(nil, decimal.NewFromInt(100), interval, exec, nil, nil, nil, start)
	require.NoError(t, err)

	now := start.Add(8 * 24 * time.Hour)
	record, err := s.Execute(context.Background(), now, sampleAt(65000, now))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.True(t, record.Failed())
	assert.True(t, record.Terminal())
	assert.Contains(t, record.FailureReason, "insufficient USDC balance")

	// failures still reschedule so one interval yields one attempt
	assert.Equal(t, now.Add(7*24*time.Hour), s.NextExecution())
}

func TestDCAStrategySkipsSwapWhenBalanceTooLow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interval, err := domain.ParseInterval("daily")
	require.NoError(t, err)

	exec := &fakeExecutor{balance: decimal.NewFromInt(30)}
	s, err := NewDCAStrategy(nil, decimal.NewFromInt(100), interval, exec, nil, nil, nil, start)
	require.NoError(t, err)

	now := start.Add(25 * time.Hour)
	record, err := s.Execute(context.Background(), now, sampleAt(65000, now))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.True(t, record.Failed())
	assert.Contains(t, record.FailureReason, "insufficient USDC balance")
	// the swap is never submitted
	assert.Equal(t, 0, exec.buyCalls)
	assert.Equal(t, now.Add(24*time.Hour), s.NextExecution())
}

func TestDCAStrategyDefersOnGasAdvice(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interval, err := domain.ParseInterval("daily")
	require.NoError(t, err)

	exec := &fakeExecutor{}
	gasOpt := gas.NewOptimizer(fakeGasReader{}, &fakeAdvisor{proceed: false}, nil)
	s, err := NewDCAStrategy(nil, decimal.NewFromInt(100), interval, exec, nil, gasOpt, nil, start)
	require.NoError(t, err)

	before := s.NextExecution()
	now := start.Add(25 * time.Hour)
	record, err := s.Execute(context.Background(), now, sampleAt(65000, now))
	require.NoError(t, err)

	assert.Nil(t, record)
	assert.Equal(t, 0, exec.buyCalls)
	// deferral keeps the schedule so the buy retries next tick
	assert.Equal(t, before, s.NextExecution())
}

func TestDipStrategyDisabledNeverFires(t *testing.T) {
	history := domain.NewPriceHistory(24)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		history.Add(sampleAt(70000, now.Add(time.Duration(i)*time.Hour)))
	}
	// 20% below the average, far past any sane threshold
	crash := sampleAt(56000, now.Add(11*time.Hour))
	history.Add(crash)

	s := NewDipStrategy(nil, false, decimal.NewFromInt(5), decimal.NewFromInt(50), &fakeExecutor{}, nil, nil, history)

	assert.False(t, s.ShouldExecute(context.Background(), crash.Time, crash))
}

func TestDipStrategyDetectsDrop(t *testing.T) {
	history := domain.NewPriceHistory(24)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		history.Add(sampleAt(70000, now.Add(time.Duration(i)*time.Hour)))
	}

	exec := &fakeExecutor{}
	s := NewDipStrategy(nil, true, decimal.NewFromInt(5), decimal.NewFromInt(50), exec, nil, nil, history)
	ctx := context.Background()

	flat := sampleAt(69500, now.Add(10*time.Hour))
	history.Add(flat)
	assert.False(t, s.ShouldExecute(ctx, flat.Time, flat), "sub-threshold move must not trigger")

	crash := sampleAt(63000, now.Add(11*time.Hour))
	history.Add(crash)
	require.True(t, s.ShouldExecute(ctx, crash.Time, crash))

	record, err := s.Execute(ctx, crash.Time, crash)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.ActionDipBuy, record.Kind)
	assert.True(t, record.Succeeded())

	// cooldown blocks a second dip buy inside 24h
	later := sampleAt(62000, crash.Time.Add(2*time.Hour))
	history.Add(later)
	assert.False(t, s.ShouldExecute(ctx, later.Time, later))

	afterCooldown := sampleAt(60000, crash.Time.Add(25*time.Hour))
	history.Add(afterCooldown)
	assert.True(t, s.ShouldExecute(ctx, afterCooldown.Time, afterCooldown))
}

func TestDipStrategyInsufficientHistory(t *testing.T) {
	history := domain.NewPriceHistory(24)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		history.Add(sampleAt(70000, now.Add(time.Duration(i)*time.Hour)))
	}
	crash := sampleAt(56000, now.Add(4*time.Hour))
	history.Add(crash)

	s := NewDipStrategy(nil, true, decimal.NewFromInt(5), decimal.NewFromInt(50), &fakeExecutor{}, nil, nil, history)

	assert.False(t, s.ShouldExecute(context.Background(), crash.Time, crash))
}

func TestDipStrategyFailureKeepsCooldownOpen(t *testing.T) {
	history := domain.NewPriceHistory(24)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		history.Add(sampleAt(70000, now.Add(time.Duration(i)*time.Hour)))
	}
	crash := sampleAt(60000, now.Add(11*time.Hour))
	history.Add(crash)

	exec := &fakeExecutor{buyErr: errors.New("swap reverted")}
	s := NewDipStrategy(nil, true, decimal.NewFromInt(5), decimal.NewFromInt(50), exec, nil, nil, history)
	ctx := context.Background()

	require.True(t, s.ShouldExecute(ctx, crash.Time, crash))
	record, err := s.Execute(ctx, crash.Time, crash)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Failed())

	// failed buy does not start the cooldown
	retry := sampleAt(60000, crash.Time.Add(time.Minute))
	assert.True(t, s.ShouldExecute(ctx, retry.Time, retry))
}

func TestYieldStrategyClaimFlow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exec := &fakeExecutor{rewards: decimal.NewFromInt(25)}
	s := NewYieldStrategy(nil, true, false, decimal.NewFromInt(10), exec, nil, start)
	ctx := context.Background()
	sample := sampleAt(65000, start)

	assert.False(t, s.ShouldExecute(ctx, start.Add(24*time.Hour), sample), "reinvest off: only the weekly claim is due")

	claimAt := start.Add(8 * 24 * time.Hour)
	require.True(t, s.ShouldExecute(ctx, claimAt, sample))

	record, err := s.Execute(ctx, claimAt, sample)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.ActionYieldClaim, record.Kind)
	assert.True(t, record.Succeeded())
	assert.Equal(t, "0xclaim", record.TxHash)

	assert.False(t, s.ShouldExecute(ctx, claimAt.Add(time.Hour), sample))
}

func TestYieldStrategyBelowThresholdProducesNoRecord(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exec := &fakeExecutor{rewards: decimal.NewFromInt(3)}
	s := NewYieldStrategy(nil, true, false, decimal.NewFromInt(10), exec, nil, start)

	claimAt := start.Add(8 * 24 * time.Hour)
	record, err := s.Execute(context.Background(), claimAt, sampleAt(65000, claimAt))
	require.NoError(t, err)
	assert.Nil(t, record)

	// the claim window advances even when nothing was claimable
	assert.False(t, s.ShouldExecute(context.Background(), claimAt.Add(time.Hour), sampleAt(65000, claimAt)))
}

func TestYieldStrategyStakesIdleBalance(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exec := &fakeExecutor{stakeHash: "0xstake"}
	s := NewYieldStrategy(nil, true, true, decimal.NewFromInt(10), exec, nil, start)
	ctx := context.Background()

	checkAt := start.Add(25 * time.Hour)
	sample := sampleAt(65000, checkAt)
	require.True(t, s.ShouldExecute(ctx, checkAt, sample))

	record, err := s.Execute(ctx, checkAt, sample)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.ActionYieldStake, record.Kind)
	assert.True(t, record.Succeeded())

	assert.False(t, s.ShouldExecute(ctx, checkAt.Add(time.Hour), sample))
}

func TestYieldStrategyNothingToStake(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exec := &fakeExecutor{}
	s := NewYieldStrategy(nil, true, true, decimal.NewFromInt(10), exec, nil, start)

	checkAt := start.Add(25 * time.Hour)
	record, err := s.Execute(context.Background(), checkAt, sampleAt(65000, checkAt))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestYieldStrategyDisabled(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewYieldStrategy(nil, false, true, decimal.NewFromInt(10), &fakeExecutor{rewards: decimal.NewFromInt(100)}, nil, start)

	assert.False(t, s.ShouldExecute(context.Background(), start.Add(30*24*time.Hour), sampleAt(65000, start)))
}
