package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessRecord(t *testing.T) {
	now := time.Now()
	record, err := NewSuccessRecord(ActionScheduledBuy,
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0015),
		decimal.NewFromInt(65000), "0xabc", now)
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, ActionScheduledBuy, record.Kind)
	assert.True(t, record.Succeeded())
	assert.False(t, record.Failed())
	assert.True(t, record.Terminal())
}

func TestNewSuccessRecordRequiresTxHash(t *testing.T) {
	_, err := NewSuccessRecord(ActionDipBuy,
		decimal.NewFromInt(50), decimal.Zero, decimal.NewFromInt(65000), "", time.Now())
	require.Error(t, err)
}

func TestNewFailureRecord(t *testing.T) {
	record, err := NewFailureRecord(ActionYieldClaim, decimal.NewFromInt(25), "gauge call reverted", time.Now())
	require.NoError(t, err)

	assert.False(t, record.Succeeded())
	assert.True(t, record.Failed())
	assert.True(t, record.Terminal())
	assert.Equal(t, "gauge call reverted", record.FailureReason)
	assert.True(t, record.ExecutedAmount.IsZero())
}

func TestNewFailureRecordRequiresReason(t *testing.T) {
	_, err := NewFailureRecord(ActionYieldClaim, decimal.NewFromInt(25), "", time.Now())
	require.Error(t, err)
}

func TestRecordConstructorsRejectUnknownKind(t *testing.T) {
	_, err := NewSuccessRecord(ActionKind("rebalance"),
		decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(1), "0x1", time.Now())
	require.Error(t, err)

	_, err = NewFailureRecord(ActionKind("rebalance"), decimal.NewFromInt(1), "oops", time.Now())
	require.Error(t, err)
}

func TestTerminalRejectsAmbiguousRecord(t *testing.T) {
	// hand-built record with both outcomes set is not terminal
	both := ActionRecord{TxHash: "0xabc", FailureReason: "but also failed"}
	assert.False(t, both.Terminal())

	neither := ActionRecord{}
	assert.False(t, neither.Terminal())
}

func TestWithAdvice(t *testing.T) {
	record, err := NewSuccessRecord(ActionScheduledBuy,
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0015),
		decimal.NewFromInt(65000), "0xabc", time.Now())
	require.NoError(t, err)

	advice := ConservativeAdvice(time.Now())
	withAdvice := record.WithAdvice(&advice)

	require.NotNil(t, withAdvice.Advice)
	assert.Equal(t, advice.Sentiment, withAdvice.Advice.Sentiment)
	assert.Nil(t, record.Advice, "original record stays unchanged")
}
