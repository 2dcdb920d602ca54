package advisor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/dcagent/internal/domain"
	"github.com/vadiminshakov/dcagent/internal/services/market"
	"github.com/vadiminshakov/dcagent/internal/services/promptbuilder"
)

const (
	analysisTemperature = 0.2
	txTemperature       = 0.1
)

// completer is the LLM surface the advisor needs.
type completer interface {
	Complete(ctx context.Context, system, prompt string, temperature float64) (string, error)
}

// ClaudeAdvisor produces recommendations through the Anthropic Messages API.
type ClaudeAdvisor struct {
	client  completer
	prompts *promptbuilder.PromptBuilder
	logger  *zap.Logger
}

// NewClaudeAdvisor creates an advisor over the given LLM client.
func NewClaudeAdvisor(client completer, logger *zap.Logger) *ClaudeAdvisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaudeAdvisor{
		client:  client,
		prompts: promptbuilder.NewPromptBuilder(),
		logger:  logger,
	}
}

// MarketAnalysis asks the model for a market read and parses the JSON reply.
func (a *ClaudeAdvisor) MarketAnalysis(ctx context.Context, sample domain.PriceSample, history []decimal.Decimal) (domain.Advice, error) {
	var trendSnapshot *market.TrendSnapshot
	if snapshot, err := market.ComputeTrend(history); err == nil {
		trendSnapshot = &snapshot
	}

	prompt := a.prompts.BuildMarketAnalysisPrompt(sample, history, trendSnapshot)

	raw, err := a.client.Complete(ctx, promptbuilder.AnalysisSystemPrompt, prompt, analysisTemperature)
	if err != nil {
		return domain.Advice{}, errors.Wrap(err, "market analysis request failed")
	}

	var parsed struct {
		Sentiment      string  `json:"sentiment"`
		BuyOpportunity bool    `json:"buy_opportunity"`
		Slippage       float64 `json:"slippage_recommendation"`
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := unmarshalModelJSON(raw, &parsed); err != nil {
		return domain.Advice{}, errors.Wrap(err, "failed to parse market analysis response")
	}

	advice := domain.Advice{
		Timestamp:      time.Now(),
		Sentiment:      domain.Sentiment(strings.ToLower(parsed.Sentiment)),
		BuyOpportunity: parsed.BuyOpportunity,
		Slippage:       parsed.Slippage,
		GasAdjustment:  1.0,
		Confidence:     parsed.Confidence,
		Reasoning:      parsed.Reasoning,
	}
	advice.Clamp()
	if err := advice.Validate(); err != nil {
		return domain.Advice{}, errors.Wrap(err, "model returned invalid advice")
	}

	a.logger.Info("received market analysis",
		zap.String("sentiment", string(advice.Sentiment)),
		zap.Bool("buy_opportunity", advice.BuyOpportunity),
		zap.Float64("confidence", advice.Confidence))

	return advice, nil
}

// OptimizeTransaction asks the model for gas/slippage parameters.
func (a *ClaudeAdvisor) OptimizeTransaction(ctx context.Context, kind domain.ActionKind, amount, gasPriceGwei decimal.Decimal) (TxAdvice, error) {
	prompt := a.prompts.BuildTransactionPrompt(kind, amount, gasPriceGwei)

	raw, err := a.client.Complete(ctx, promptbuilder.TransactionSystemPrompt, prompt, txTemperature)
	if err != nil {
		return TxAdvice{}, errors.Wrap(err, "transaction optimization request failed")
	}

	var advice TxAdvice
	if err := unmarshalModelJSON(raw, &advice); err != nil {
		return TxAdvice{}, errors.Wrap(err, "failed to parse transaction optimization response")
	}

	if advice.GasAdjustment < 0.8 {
		advice.GasAdjustment = 0.8
	}
	if advice.GasAdjustment > 1.5 {
		advice.GasAdjustment = 1.5
	}
	if advice.Slippage < 0.5 {
		advice.Slippage = 0.5
	}
	if advice.Slippage > 2.0 {
		advice.Slippage = 2.0
	}

	a.logger.Info("received transaction optimization",
		zap.Bool("proceed", advice.Proceed),
		zap.Float64("gas_adjustment", advice.GasAdjustment))

	return advice, nil
}

// unmarshalModelJSON extracts a JSON object from the model reply, tolerating
// markdown code fences and surrounding prose.
func unmarshalModelJSON(raw string, dst interface{}) error {
	s := strings.TrimSpace(raw)

	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	return json.Unmarshal([]byte(s), dst)
}
