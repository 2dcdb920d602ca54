package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdviceValidate(t *testing.T) {
	tests := []struct {
		name    string
		advice  Advice
		wantErr bool
	}{
		{
			name:   "valid bullish",
			advice: Advice{Sentiment: SentimentBullish, Slippage: 0.5, GasAdjustment: 1.0},
		},
		{
			name:    "unknown sentiment",
			advice:  Advice{Sentiment: "euphoric", Slippage: 0.5},
			wantErr: true,
		},
		{
			name:    "slippage too high",
			advice:  Advice{Sentiment: SentimentNeutral, Slippage: 2.5},
			wantErr: true,
		},
		{
			name:    "slippage too low",
			advice:  Advice{Sentiment: SentimentNeutral, Slippage: 0.1},
			wantErr: true,
		},
		{
			name:    "gas adjustment out of range",
			advice:  Advice{Sentiment: SentimentBearish, Slippage: 1.0, GasAdjustment: 2.0},
			wantErr: true,
		},
		{
			name:   "zero gas adjustment allowed",
			advice: Advice{Sentiment: SentimentBearish, Slippage: 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.advice.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAdviceClamp(t *testing.T) {
	a := Advice{Sentiment: SentimentNeutral, Slippage: 10, GasAdjustment: 0, Confidence: 2}
	a.Clamp()

	assert.InDelta(t, 2.0, a.Slippage, 1e-9)
	assert.InDelta(t, 1.0, a.GasAdjustment, 1e-9)
	assert.InDelta(t, 1.0, a.Confidence, 1e-9)
	require.NoError(t, a.Validate())

	b := Advice{Sentiment: SentimentNeutral, Slippage: 0.01, GasAdjustment: 0.1, Confidence: -1}
	b.Clamp()

	assert.InDelta(t, 0.5, b.Slippage, 1e-9)
	assert.InDelta(t, 0.8, b.GasAdjustment, 1e-9)
	assert.InDelta(t, 0.0, b.Confidence, 1e-9)
	require.NoError(t, b.Validate())
}

func TestConservativeAdvice(t *testing.T) {
	now := time.Now()
	a := ConservativeAdvice(now)

	assert.Equal(t, now, a.Timestamp)
	assert.Equal(t, SentimentNeutral, a.Sentiment)
	assert.True(t, a.BuyOpportunity, "conservative defaults never block the schedule")
	require.NoError(t, a.Validate())
}
