package model

import "time"

// Frequency is the base stepping unit of a recurrence rule.
type Frequency string

const (
	FreqDaily   Frequency = "DAILY"
	FreqWeekly  Frequency = "WEEKLY"
	FreqMonthly Frequency = "MONTHLY"
	FreqYearly  Frequency = "YEARLY"
)

// RecurrenceRule describes how a booking series repeats.
// Absence of a rule means a single occurrence. Count and
// Until are pointers so that "not set" is distinguishable from zero values;
// a rule with neither is an unbounded (infinite) series.
type RecurrenceRule struct {
	Frequency Frequency  `json:"frequency" bson:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	Interval  int        `json:"interval,omitempty" bson:"interval,omitempty" validate:"omitempty,min=1"`
	Count     *int       `json:"count,omitempty" bson:"count,omitempty" validate:"omitempty,min=0"`
	Until     *time.Time `json:"until,omitempty" bson:"until,omitempty"`
}

// IsUnbounded reports whether the rule describes an infinite series:
// no occurrence count and no end date, regardless of interval.
func (r *RecurrenceRule) IsUnbounded() bool {
	if r == nil {
		return false
	}
	return r.Count == nil && r.Until == nil
}

// EffectiveInterval returns the stepping multiplier, defaulting to 1.
func (r *RecurrenceRule) EffectiveInterval() int {
	if r == nil || r.Interval <= 0 {
		return 1
	}
	return r.Interval
}
