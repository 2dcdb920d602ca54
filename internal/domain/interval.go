package domain

import (
	"fmt"
	"strings"
	"time"
)

// IntervalKind enumerates supported DCA cadences.
type IntervalKind string

const (
	IntervalDaily  IntervalKind = "daily"
	IntervalWeekly IntervalKind = "weekly"
	IntervalCustom IntervalKind = "custom"
)

// Interval describes how often the scheduled buy fires.
type Interval struct {
	Kind IntervalKind
	// Every holds the period for custom intervals.
	Every time.Duration
}

// ParseInterval accepts "daily", "weekly" or a custom period given as a Go
// duration string, with or without a "custom:" prefix (e.g. "12h",
// "custom:12h").
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", string(IntervalWeekly):
		return Interval{Kind: IntervalWeekly}, nil
	case string(IntervalDaily):
		return Interval{Kind: IntervalDaily}, nil
	}

	d, err := time.ParseDuration(strings.TrimPrefix(strings.ToLower(s), "custom:"))
	if err != nil {
		return Interval{}, fmt.Errorf("invalid DCA interval %q: want daily, weekly or a duration", s)
	}
	if d < time.Minute {
		return Interval{}, fmt.Errorf("custom DCA interval %s is below the 1m minimum", d)
	}
	return Interval{Kind: IntervalCustom, Every: d}, nil
}

// Next returns the execution time following now.
func (i Interval) Next(now time.Time) time.Time {
	switch i.Kind {
	case IntervalDaily:
		return now.Add(24 * time.Hour)
	case IntervalCustom:
		return now.Add(i.Every)
	default:
		return now.Add(7 * 24 * time.Hour)
	}
}

// String returns the canonical representation.
func (i Interval) String() string {
	if i.Kind == IntervalCustom {
		return i.Every.String()
	}
	return string(i.Kind)
}
