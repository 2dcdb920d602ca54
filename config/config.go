// Package config loads agent configuration from environment variables and
// optional YAML files. Configuration is immutable after load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcagent/internal/domain"
	"gopkg.in/yaml.v3"
)

// Base mainnet defaults.
const (
	DefaultRPCURL  = "https://mainnet.base.org"
	DefaultChainID = 8453

	// Token and protocol addresses on Base mainnet.
	DefaultCbBTCAddress    = "0xcbB7C0000aB88B473b1f5aFd9ef808440eed33Bf"
	DefaultUSDCAddress     = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	DefaultRouterAddress   = "0xcF77a3Ba9A5CA399B7c97c74d54e5b1Beb874E43"
	DefaultGaugeAddress    = "0x6399ed6725cC163D019aA64FF55b22149D7179A8"
	DefaultPythAddress     = "0x2880dC247b3c3b05a464fB03Bf2310A39FC1F05A"
	DefaultPythBTCFeedID   = "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43"
	DefaultAnthropicAPIURL = "https://api.anthropic.com/v1/messages"
	DefaultAnthropicModel  = "claude-3-haiku-20240307"
)

const (
	defaultDCAAmount     = "50"
	defaultDipThreshold  = "5"
	defaultMinClaimUSD   = "1"
	defaultTickInterval  = time.Minute
	defaultDashboardAddr = ":8080"
	defaultWALDir        = "./wal/actions"
)

// Config holds all agent settings.
type Config struct {
	// Network.
	RPCURL  string
	ChainID int64

	// Wallet.
	PrivateKey string

	// Contract addresses.
	CbBTCAddress  string
	USDCAddress   string
	RouterAddress string
	GaugeAddress  string
	PythAddress   string
	PythBTCFeedID string

	// Strategy settings.
	DCAAmount       decimal.Decimal
	DCAInterval     domain.Interval
	DipThreshold    decimal.Decimal
	EnableDipBuying bool
	EnableYield     bool
	ReinvestYield   bool
	MinClaimUSD     decimal.Decimal

	// Advisory.
	EnableAIAdvisor bool
	AnthropicAPIKey string
	AnthropicAPIURL string
	AnthropicModel  string

	// Runtime.
	DemoMode      bool
	TickInterval  time.Duration
	DashboardAddr string
	WALDir        string
}

// yamlConfig mirrors Config for YAML parsing with string fields.
type yamlConfig struct {
	RPCURL          string `yaml:"base_rpc_url,omitempty"`
	ChainID         int64  `yaml:"base_chain_id,omitempty"`
	DCAAmount       string `yaml:"dca_amount,omitempty"`
	DCAInterval     string `yaml:"dca_interval,omitempty"`
	DipThreshold    string `yaml:"dip_threshold,omitempty"`
	EnableDipBuying *bool  `yaml:"enable_dip_buying,omitempty"`
	EnableYield     *bool  `yaml:"enable_yield_optimization,omitempty"`
	ReinvestYield   *bool  `yaml:"reinvest_yield,omitempty"`
	MinClaimUSD     string `yaml:"min_claim_usd,omitempty"`
	EnableAIAdvisor *bool  `yaml:"enable_ai_advisor,omitempty"`
	AnthropicModel  string `yaml:"anthropic_model,omitempty"`
	DemoMode        *bool  `yaml:"demo_mode,omitempty"`
	TickInterval    string `yaml:"tick_interval,omitempty"`
	DashboardAddr   string `yaml:"dashboard_addr,omitempty"`
	WALDir          string `yaml:"wal_dir,omitempty"`
}

// Get loads configuration from the environment, applying overrides from the
// YAML file at path when path is non-empty. Secrets (private key, API key)
// come from the environment only.
func Get(path string) (Config, error) {
	cfg := Config{
		RPCURL:          envOr("BASE_RPC_URL", DefaultRPCURL),
		PrivateKey:      os.Getenv("PRIVATE_KEY"),
		CbBTCAddress:    envOr("CBBTC_CONTRACT_ADDRESS", DefaultCbBTCAddress),
		USDCAddress:     envOr("USDC_CONTRACT_ADDRESS", DefaultUSDCAddress),
		RouterAddress:   envOr("AERODROME_ROUTER", DefaultRouterAddress),
		GaugeAddress:    envOr("CBBTC_GAUGE", DefaultGaugeAddress),
		PythAddress:     envOr("PYTH_CONTRACT_ADDRESS", DefaultPythAddress),
		PythBTCFeedID:   envOr("PYTH_BTC_PRICE_FEED", DefaultPythBTCFeedID),
		EnableDipBuying: envBool("ENABLE_DIP_BUYING", true),
		EnableYield:     envBool("ENABLE_YIELD_OPTIMIZATION", true),
		ReinvestYield:   envBool("REINVEST_YIELD", true),
		EnableAIAdvisor: envBool("ENABLE_AI_ADVISOR", false),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicAPIURL: envOr("ANTHROPIC_API_URL", DefaultAnthropicAPIURL),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", DefaultAnthropicModel),
		DemoMode:        envBool("DEMO_MODE", false),
		TickInterval:    defaultTickInterval,
		DashboardAddr:   envOr("DASHBOARD_ADDR", defaultDashboardAddr),
		WALDir:          envOr("WAL_DIR", defaultWALDir),
	}

	var err error
	cfg.ChainID, err = envInt64("BASE_CHAIN_ID", DefaultChainID)
	if err != nil {
		return Config{}, err
	}
	cfg.DCAAmount, err = envDecimal("DCA_AMOUNT", defaultDCAAmount)
	if err != nil {
		return Config{}, err
	}
	cfg.DipThreshold, err = envDecimal("DIP_THRESHOLD", defaultDipThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.MinClaimUSD, err = envDecimal("MIN_CLAIM_USD", defaultMinClaimUSD)
	if err != nil {
		return Config{}, err
	}
	cfg.DCAInterval, err = domain.ParseInterval(os.Getenv("DCA_INTERVAL"))
	if err != nil {
		return Config{}, err
	}
	if tick := os.Getenv("TICK_INTERVAL"); tick != "" {
		cfg.TickInterval, err = time.ParseDuration(tick)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
	}

	if path != "" {
		if err := applyYaml(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyYaml(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if y.RPCURL != "" {
		cfg.RPCURL = y.RPCURL
	}
	if y.ChainID != 0 {
		cfg.ChainID = y.ChainID
	}
	if y.DCAAmount != "" {
		cfg.DCAAmount, err = decimal.NewFromString(y.DCAAmount)
		if err != nil {
			return fmt.Errorf("invalid dca_amount: %w", err)
		}
	}
	if y.DCAInterval != "" {
		cfg.DCAInterval, err = domain.ParseInterval(y.DCAInterval)
		if err != nil {
			return err
		}
	}
	if y.DipThreshold != "" {
		cfg.DipThreshold, err = decimal.NewFromString(y.DipThreshold)
		if err != nil {
			return fmt.Errorf("invalid dip_threshold: %w", err)
		}
	}
	if y.MinClaimUSD != "" {
		cfg.MinClaimUSD, err = decimal.NewFromString(y.MinClaimUSD)
		if err != nil {
			return fmt.Errorf("invalid min_claim_usd: %w", err)
		}
	}
	if y.TickInterval != "" {
		cfg.TickInterval, err = time.ParseDuration(y.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval: %w", err)
		}
	}
	if y.EnableDipBuying != nil {
		cfg.EnableDipBuying = *y.EnableDipBuying
	}
	if y.EnableYield != nil {
		cfg.EnableYield = *y.EnableYield
	}
	if y.ReinvestYield != nil {
		cfg.ReinvestYield = *y.ReinvestYield
	}
	if y.EnableAIAdvisor != nil {
		cfg.EnableAIAdvisor = *y.EnableAIAdvisor
	}
	if y.DemoMode != nil {
		cfg.DemoMode = *y.DemoMode
	}
	if y.AnthropicModel != "" {
		cfg.AnthropicModel = y.AnthropicModel
	}
	if y.DashboardAddr != "" {
		cfg.DashboardAddr = y.DashboardAddr
	}
	if y.WALDir != "" {
		cfg.WALDir = y.WALDir
	}

	return nil
}

// Validate enforces required secrets and sane numeric ranges. It must pass
// before any capability client is constructed.
func (c *Config) Validate() error {
	if c.DemoMode {
		// demo mode needs no credentials and performs no live calls
		return nil
	}

	if c.RPCURL == "" {
		return fmt.Errorf("BASE_RPC_URL is required")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY environment variable is required (set DEMO_MODE=true to run without a wallet)")
	}
	if c.EnableAIAdvisor && c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required when ENABLE_AI_ADVISOR=true")
	}
	if c.DCAAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("DCA_AMOUNT must be positive, got %s", c.DCAAmount)
	}
	if c.DipThreshold.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("DIP_THRESHOLD must be positive, got %s", c.DipThreshold)
	}
	if c.TickInterval < time.Second {
		return fmt.Errorf("tick interval %s is below the 1s minimum", c.TickInterval)
	}

	return nil
}

// WriteYaml saves the non-secret parts of the config to a YAML file.
// Used by the setup wizard.
func (c *Config) WriteYaml(path string) error {
	y := yamlConfig{
		RPCURL:          c.RPCURL,
		ChainID:         c.ChainID,
		DCAAmount:       c.DCAAmount.String(),
		DCAInterval:     c.DCAInterval.String(),
		DipThreshold:    c.DipThreshold.String(),
		EnableDipBuying: &c.EnableDipBuying,
		EnableYield:     &c.EnableYield,
		ReinvestYield:   &c.ReinvestYield,
		MinClaimUSD:     c.MinClaimUSD.String(),
		EnableAIAdvisor: &c.EnableAIAdvisor,
		AnthropicModel:  c.AnthropicModel,
		DemoMode:        &c.DemoMode,
		TickInterval:    c.TickInterval.String(),
		DashboardAddr:   c.DashboardAddr,
		WALDir:          c.WALDir,
	}

	data, err := yaml.Marshal(y)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDecimal(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
