package clients

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	simStartingUSDC     = 10_000
	simStartingBTCPrice = 65_000
	simDriftPercent     = 0.15
	simRewardPerHour    = 0.05
)

// SimulateClient is an in-memory stand-in for the Base chain used in demo
// mode. It never performs network calls: prices follow a random walk, swaps
// settle instantly against the internal wallet and rewards accrue with time.
type SimulateClient struct {
	mu          sync.Mutex
	rng         *mrand.Rand
	price       decimal.Decimal
	usdc        decimal.Decimal
	cbBTC       decimal.Decimal
	rewards     decimal.Decimal
	staked      decimal.Decimal
	lastAccrual time.Time
}

// NewSimulateClient creates a simulated chain seeded for reproducible demos.
func NewSimulateClient(seed int64) *SimulateClient {
	return &SimulateClient{
		rng:         mrand.New(mrand.NewSource(seed)),
		price:       decimal.NewFromInt(simStartingBTCPrice),
		usdc:        decimal.NewFromInt(simStartingUSDC),
		cbBTC:       decimal.Zero,
		rewards:     decimal.Zero,
		staked:      decimal.Zero,
		lastAccrual: time.Now(),
	}
}

// BTCPrice advances the random walk one step and returns the new price.
func (c *SimulateClient) BTCPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	drift := (c.rng.Float64()*2 - 1) * simDriftPercent
	factor := decimal.NewFromFloat(1 + drift/100)
	c.price = c.price.Mul(factor)
	return c.price
}

// USDCBalance returns the simulated USDC balance.
func (c *SimulateClient) USDCBalance() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usdc
}

// CbBTCBalance returns the simulated unstaked cbBTC balance.
func (c *SimulateClient) CbBTCBalance() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cbBTC
}

// EarnedRewards accrues and returns simulated staking rewards.
func (c *SimulateClient) EarnedRewards() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accrueLocked(time.Now())
	return c.rewards
}

// Swap exchanges usdcAmount for cbBTC at the current price.
// Returns the executed cbBTC amount and a fake transaction hash.
func (c *SimulateClient) Swap(usdcAmount, slippagePercent decimal.Decimal) (decimal.Decimal, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.usdc.LessThan(usdcAmount) {
		return decimal.Zero, "", errInsufficientFunds(c.usdc, usdcAmount)
	}

	executed := usdcAmount.Div(c.price)
	// the simulated venue always fills at the worst tolerated price
	if slippagePercent.GreaterThan(decimal.Zero) {
		executed = executed.Mul(decimal.NewFromInt(100).Sub(slippagePercent)).Div(decimal.NewFromInt(100))
	}

	c.usdc = c.usdc.Sub(usdcAmount)
	c.cbBTC = c.cbBTC.Add(executed)

	return executed, fakeTxHash(), nil
}

// Claim zeroes accrued rewards and returns the claimed amount with a fake
// transaction hash.
func (c *SimulateClient) Claim() (decimal.Decimal, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accrueLocked(time.Now())
	claimed := c.rewards
	c.rewards = decimal.Zero
	return claimed, fakeTxHash()
}

// Stake moves unstaked cbBTC into the simulated gauge.
func (c *SimulateClient) Stake(amount decimal.Decimal) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cbBTC.LessThan(amount) {
		return "", errInsufficientFunds(c.cbBTC, amount)
	}

	c.cbBTC = c.cbBTC.Sub(amount)
	c.staked = c.staked.Add(amount)
	return fakeTxHash(), nil
}

// accrueLocked adds rewards proportional to staked balance and elapsed time.
// Caller must hold c.mu.
func (c *SimulateClient) accrueLocked(now time.Time) {
	elapsed := now.Sub(c.lastAccrual)
	if elapsed <= 0 || c.staked.IsZero() {
		c.lastAccrual = now
		return
	}

	hours := decimal.NewFromFloat(math.Max(elapsed.Hours(), 0))
	c.rewards = c.rewards.Add(c.staked.Mul(decimal.NewFromFloat(simRewardPerHour)).Mul(hours))
	c.lastAccrual = now
}

func fakeTxHash() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf)
}

type insufficientFundsError struct {
	have, need decimal.Decimal
}

func errInsufficientFunds(have, need decimal.Decimal) error {
	return &insufficientFundsError{have: have, need: need}
}

func (e *insufficientFundsError) Error() string {
	return "insufficient balance: have " + e.have.StringFixed(2) + ", need " + e.need.StringFixed(2)
}
