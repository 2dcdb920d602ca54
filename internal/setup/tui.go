// Package setup provides the interactive terminal configuration wizard.
package setup

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/dcagent/config"
	"github.com/vadiminshakov/dcagent/internal/domain"
)

// GeneratedConfigFile is where the wizard saves its output.
const GeneratedConfigFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

func clearAndHeader(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("DCAGENT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI launches the terminal configuration wizard and writes the result to
// config.gen.yaml. Secrets stay in the environment and are never written.
func RunTUI() error {
	var (
		mode         string
		rpcURL       string
		amountStr    string
		intervalStr  string
		dipBuying    bool
		dipStr       string
		yieldOpt     bool
		reinvest     bool
		minClaimStr  string
		aiAdvisor    bool
		model        string
		dashboardStr string
		confirm      bool
	)

	// defaults
	rpcURL = config.DefaultRPCURL
	amountStr = "50"
	intervalStr = "weekly"
	dipStr = "5"
	minClaimStr = "1"
	model = config.DefaultAnthropicModel
	dashboardStr = ":8080"
	dipBuying = true
	yieldOpt = true
	reinvest = true

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("DCAGENT CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Automated BTC accumulation on Base.\n"))

	fmt.Println(stepStyle.Render("STEP 1: MODE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose execution mode").
				Options(
					huh.NewOption("Live (Base mainnet, requires PRIVATE_KEY)", "live"),
					huh.NewOption("Demo (simulated wallet, no network)", "demo"),
				).
				Value(&mode),
		),
	).Run()
	if err != nil {
		return err
	}

	if mode == "live" {
		clearAndHeader("STEP 2: NETWORK")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Base RPC URL").
					Value(&rpcURL).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("RPC URL cannot be empty")
						}
						return nil
					}),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	clearAndHeader("STEP 3: DCA SETTINGS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Amount per buy (USD)").
				Description("USDC spent on each scheduled purchase").
				Value(&amountStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Buy interval").
				Description("daily, weekly or a duration (e.g. 12h)").
				Value(&intervalStr).
				Validate(func(s string) error {
					_, err := domain.ParseInterval(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	clearAndHeader("STEP 4: DIP BUYING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Buy extra on price dips?").
				Value(&dipBuying),
		),
	).Run()
	if err != nil {
		return err
	}

	if dipBuying {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Dip threshold %").
					Description("Drop below the 6h average that triggers a buy (e.g. 5)").
					Value(&dipStr).
					Validate(validatePositiveDecimal),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	clearAndHeader("STEP 5: YIELD")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Claim Aerodrome gauge rewards?").
				Value(&yieldOpt),
		),
	).Run()
	if err != nil {
		return err
	}

	if yieldOpt {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Stake idle cbBTC back into the gauge?").
					Value(&reinvest),
				huh.NewInput().
					Title("Minimum claim (USD)").
					Description("Skip claims below this value").
					Value(&minClaimStr).
					Validate(validatePositiveDecimal),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	clearAndHeader("STEP 6: AI ADVISOR")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable the AI advisor?").
				Description("Requires ANTHROPIC_API_KEY in the environment").
				Value(&aiAdvisor),
		),
	).Run()
	if err != nil {
		return err
	}

	if aiAdvisor {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Model name").
					Value(&model),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	clearAndHeader("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Mode: %s\nAmount: %s USD\nInterval: %s\nDip buying: %v\nYield: %v\nAI advisor: %v\n",
		mode, amountStr, intervalStr, dipBuying, yieldOpt, aiAdvisor,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	cfg, err := buildConfig(mode, rpcURL, amountStr, intervalStr, dipStr, minClaimStr, model, dashboardStr,
		dipBuying, yieldOpt, reinvest, aiAdvisor)
	if err != nil {
		return err
	}

	if err := cfg.WriteYaml(GeneratedConfigFile); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\n✓ Configuration saved to %s\nRun: dcagent run --config %s", GeneratedConfigFile, GeneratedConfigFile)))
	time.Sleep(1500 * time.Millisecond)
	return nil
}

func buildConfig(mode, rpcURL, amountStr, intervalStr, dipStr, minClaimStr, model, dashboardAddr string,
	dipBuying, yieldOpt, reinvest, aiAdvisor bool) (config.Config, error) {

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid amount: %w", err)
	}
	dip, err := decimal.NewFromString(dipStr)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid dip threshold: %w", err)
	}
	minClaim, err := decimal.NewFromString(minClaimStr)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid minimum claim: %w", err)
	}
	interval, err := domain.ParseInterval(intervalStr)
	if err != nil {
		return config.Config{}, err
	}

	return config.Config{
		RPCURL:          rpcURL,
		ChainID:         config.DefaultChainID,
		DCAAmount:       amount,
		DCAInterval:     interval,
		DipThreshold:    dip,
		EnableDipBuying: dipBuying,
		EnableYield:     yieldOpt,
		ReinvestYield:   reinvest,
		MinClaimUSD:     minClaim,
		EnableAIAdvisor: aiAdvisor,
		AnthropicModel:  model,
		DemoMode:        mode == "demo",
		TickInterval:    time.Minute,
		DashboardAddr:   dashboardAddr,
		WALDir:          "./wal/actions",
	}, nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("must be positive")
	}
	return nil
}
