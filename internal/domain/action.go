// Package domain defines core data structures used throughout the agent.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActionKind represents the type of action the agent can perform.
type ActionKind string

const (
	ActionScheduledBuy ActionKind = "scheduled_buy"
	ActionDipBuy       ActionKind = "dip_buy"
	ActionYieldClaim   ActionKind = "yield_claim"
	ActionYieldStake   ActionKind = "yield_stake"
)

// IsValid checks if the kind is one of the known action kinds.
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionScheduledBuy, ActionDipBuy, ActionYieldClaim, ActionYieldStake:
		return true
	}
	return false
}

// ActionRecord is the append-only record of a single action attempt.
// Every record carries exactly one terminal outcome: a transaction hash on
// success or a failure reason on failure, never both and never neither.
type ActionRecord struct {
	ID              string          `json:"id"`
	Time            time.Time       `json:"time"`
	Kind            ActionKind      `json:"kind"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	ExecutedAmount  decimal.Decimal `json:"executed_amount"`
	Price           decimal.Decimal `json:"price,omitempty"`
	TxHash          string          `json:"tx_hash,omitempty"`
	FailureReason   string          `json:"failure_reason,omitempty"`
	Advice          *Advice         `json:"advice,omitempty"`
}

// NewSuccessRecord creates a record for a completed action.
func NewSuccessRecord(kind ActionKind, requested, executed, price decimal.Decimal, txHash string, when time.Time) (ActionRecord, error) {
	if !kind.IsValid() {
		return ActionRecord{}, fmt.Errorf("unknown action kind: %s", kind)
	}
	if txHash == "" {
		return ActionRecord{}, fmt.Errorf("success record requires a transaction hash")
	}

	return ActionRecord{
		ID:              uuid.New().String(),
		Time:            when,
		Kind:            kind,
		RequestedAmount: requested,
		ExecutedAmount:  executed,
		Price:           price,
		TxHash:          txHash,
	}, nil
}

// NewFailureRecord creates a record for a failed action attempt.
func NewFailureRecord(kind ActionKind, requested decimal.Decimal, reason string, when time.Time) (ActionRecord, error) {
	if !kind.IsValid() {
		return ActionRecord{}, fmt.Errorf("unknown action kind: %s", kind)
	}
	if reason == "" {
		return ActionRecord{}, fmt.Errorf("failure record requires a reason")
	}

	return ActionRecord{
		ID:              uuid.New().String(),
		Time:            when,
		Kind:            kind,
		RequestedAmount: requested,
		ExecutedAmount:  decimal.Zero,
		FailureReason:   reason,
	}, nil
}

// Succeeded reports whether the action completed with a transaction.
func (r *ActionRecord) Succeeded() bool {
	return r.TxHash != ""
}

// Failed reports whether the action attempt failed.
func (r *ActionRecord) Failed() bool {
	return r.FailureReason != ""
}

// Terminal reports whether the record carries exactly one outcome.
func (r *ActionRecord) Terminal() bool {
	return r.Succeeded() != r.Failed()
}

// WithAdvice attaches the advisory recommendation that accompanied the action.
func (r ActionRecord) WithAdvice(advice *Advice) ActionRecord {
	r.Advice = advice
	return r
}

// ActionRecordEntry pairs a record with its log index for stream consumers.
type ActionRecordEntry struct {
	Index  uint64       `json:"index"`
	Record ActionRecord `json:"record"`
}
