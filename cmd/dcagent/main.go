// Command dcagent runs the BTC accumulation agent on Base L2.
//
// Usage:
//
//	dcagent setup                        interactive configuration wizard
//	dcagent run [--config config.yaml]   run the agent (default command)
//	dcagent dashboard [--config ...]     serve the dashboard over an existing action log
//	dcagent advisor [--config ...]       one-shot market analysis
//
// Required environment variables outside demo mode:
//
//	PRIVATE_KEY        wallet key for Base mainnet
//	ANTHROPIC_API_KEY  only when ENABLE_AI_ADVISOR=true
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/dcagent/config"
	"github.com/vadiminshakov/dcagent/internal"
	"github.com/vadiminshakov/dcagent/internal/clients"
	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/advisor"
	"github.com/vadiminshakov/dcagent/internal/services/executor"
	"github.com/vadiminshakov/dcagent/internal/services/gas"
	"github.com/vadiminshakov/dcagent/internal/services/pricer"
	"github.com/vadiminshakov/dcagent/internal/services/strategy"
	"github.com/vadiminshakov/dcagent/internal/setup"
	"github.com/vadiminshakov/dcagent/internal/storage/actions"
	"github.com/vadiminshakov/dcagent/internal/web"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cmd := "run"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	withDashboard := fs.Bool("with-dashboard", true, "serve the web dashboard alongside the agent")
	if err := fs.Parse(args); err != nil {
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	switch cmd {
	case "setup":
		if err := setup.RunTUI(); err != nil {
			logger.Fatal("setup failed", zap.Error(err))
		}
	case "run":
		runAgent(logger, *configPath, *withDashboard)
	case "dashboard":
		runDashboard(logger, *configPath)
	case "advisor":
		runAdvisor(logger, *configPath)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want run, dashboard, advisor or setup)\n", cmd)
		os.Exit(2)
	}
}

// capabilities bundles the mode-dependent implementations.
type capabilities struct {
	pricer   pricer.Pricer
	executor executor.Executor
	advisor  advisor.Advisor
	gas      *gas.Optimizer
	close    func()
}

func buildCapabilities(ctx context.Context, cfg config.Config, logger *zap.Logger) (capabilities, error) {
	if cfg.DemoMode {
		sim := clients.NewSimulateClient(time.Now().UnixNano())
		caps := capabilities{
			pricer:   pricer.NewSimulatePricer(sim),
			executor: executor.NewSimulateExecutor(sim, logger),
			close:    func() {},
		}
		if cfg.EnableAIAdvisor {
			caps.advisor = advisor.NewDemoAdvisor()
		}
		caps.gas = gas.NewOptimizer(nil, caps.advisor, logger)
		return caps, nil
	}

	base, err := clients.NewBaseClient(ctx, clients.BaseClientConfig{
		RPCURL:        cfg.RPCURL,
		ChainID:       cfg.ChainID,
		PrivateKey:    cfg.PrivateKey,
		CbBTCAddress:  cfg.CbBTCAddress,
		USDCAddress:   cfg.USDCAddress,
		RouterAddress: cfg.RouterAddress,
		GaugeAddress:  cfg.GaugeAddress,
		PythAddress:   cfg.PythAddress,
		PythBTCFeedID: cfg.PythBTCFeedID,
	})
	if err != nil {
		return capabilities{}, err
	}

	caps := capabilities{
		pricer:   pricer.NewPythPricer(base),
		executor: executor.NewOnchainExecutor(base, logger),
		close:    base.Close,
	}
	if cfg.EnableAIAdvisor {
		anthropic := clients.NewAnthropicClient(cfg.AnthropicAPIURL, cfg.AnthropicAPIKey, cfg.AnthropicModel)
		caps.advisor = advisor.NewClaudeAdvisor(anthropic, logger)
	}
	caps.gas = gas.NewOptimizer(base, caps.advisor, logger)
	return caps, nil
}

func runAgent(logger *zap.Logger, configPath string, withDashboard bool) {
	cfg, err := config.Get(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	caps, err := buildCapabilities(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize clients", zap.Error(err))
	}
	defer caps.close()

	store, err := actions.NewWALStore(cfg.WALDir)
	if err != nil {
		logger.Fatal("failed to open action log", zap.Error(err))
	}
	defer store.Close()

	now := time.Now()
	history := domain.NewPriceHistory(24)

	dca, err := strategy.NewDCAStrategy(logger, cfg.DCAAmount, cfg.DCAInterval,
		caps.executor, caps.advisor, caps.gas, history, now)
	if err != nil {
		logger.Fatal("failed to create DCA strategy", zap.Error(err))
	}
	dip := strategy.NewDipStrategy(logger, cfg.EnableDipBuying, cfg.DipThreshold, cfg.DCAAmount,
		caps.executor, caps.advisor, caps.gas, history)
	yield := strategy.NewYieldStrategy(logger, cfg.EnableYield, cfg.ReinvestYield, cfg.MinClaimUSD,
		caps.executor, caps.gas, now)

	agent, err := internal.NewAgent(logger, caps.pricer, store, history, cfg.TickInterval, dca, dip, yield)
	if err != nil {
		logger.Fatal("failed to create agent", zap.Error(err))
	}

	logger.Info("dcagent starting",
		zap.Bool("demo_mode", cfg.DemoMode),
		zap.String("dca_amount", cfg.DCAAmount.String()),
		zap.String("dca_interval", cfg.DCAInterval.String()),
		zap.Bool("dip_buying", cfg.EnableDipBuying),
		zap.Bool("yield", cfg.EnableYield),
		zap.Bool("ai_advisor", cfg.EnableAIAdvisor))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return agent.Run(gctx)
	})

	if withDashboard {
		server := web.NewServer(cfg.DashboardAddr, store, history)
		g.Go(func() error {
			logger.Info("dashboard listening", zap.String("addr", cfg.DashboardAddr))
			return server.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("agent stopped with error", zap.Error(err))
	}
	logger.Info("dcagent stopped")
}

func runDashboard(logger *zap.Logger, configPath string) {
	cfg, err := config.Get(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := actions.NewWALStore(cfg.WALDir)
	if err != nil {
		logger.Fatal("failed to open action log", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(cfg.DashboardAddr, store, nil)
	logger.Info("dashboard listening", zap.String("addr", cfg.DashboardAddr))
	if err := server.Start(ctx); err != nil {
		logger.Fatal("dashboard stopped with error", zap.Error(err))
	}
}

// runAdvisor fetches the current price and prints a one-shot market analysis.
func runAdvisor(logger *zap.Logger, configPath string) {
	cfg, err := config.Get(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if !cfg.EnableAIAdvisor && !cfg.DemoMode {
		logger.Fatal("advisor is disabled, set ENABLE_AI_ADVISOR=true")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	caps, err := buildCapabilities(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize clients", zap.Error(err))
	}
	defer caps.close()

	adv := caps.advisor
	if adv == nil {
		adv = advisor.NewDemoAdvisor()
	}

	sample, err := caps.pricer.GetPrice(ctx)
	if err != nil {
		logger.Fatal("failed to fetch price", zap.Error(err))
	}

	advice, err := adv.MarketAnalysis(ctx, sample, nil)
	if err != nil {
		logger.Fatal("market analysis failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(advice, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode advice", zap.Error(err))
	}
	fmt.Println(string(out))
}
