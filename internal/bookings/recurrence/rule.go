// Package recurrence turns booking series into concrete occurrences. Rules
// are plain FREQ/INTERVAL/COUNT/UNTIL recurrences; all calendar arithmetic
// happens on the UTC timeline.
package recurrence

import (
	"fmt"
	"strings"

	bookingerrors "resbook/internal/bookings/errors"
	"resbook/pkg/model"

	"github.com/teambition/rrule-go"
)

const untilLayout = "20060102T150405Z"

// ParseRule reads RFC 5545 rule text like "FREQ=WEEKLY;INTERVAL=2;COUNT=10"
// into a structured rule. An optional "RRULE:" prefix is tolerated. Only the
// four supported properties may appear; BY* refinements are rejected rather
// than silently dropped. Empty text means no recurrence.
func ParseRule(text string) (*model.RecurrenceRule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	text = strings.TrimPrefix(strings.TrimPrefix(text, "RRULE:"), "rrule:")

	opt, err := rrule.StrToROption(strings.ToUpper(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bookingerrors.ErrInvalidRule, err)
	}
	if hasRefinements(opt) {
		return nil, fmt.Errorf("%w: BY* refinements are not supported", bookingerrors.ErrInvalidRule)
	}

	freq, err := frequencyName(opt.Freq)
	if err != nil {
		return nil, err
	}

	rule := &model.RecurrenceRule{
		Frequency: freq,
		Interval:  opt.Interval,
	}

	// ROption cannot tell COUNT=0 apart from an absent COUNT, and a zero
	// count legitimately means "repeat zero times". Scan the raw text for
	// which properties were actually present.
	sawFreq := false
	for _, part := range strings.Split(strings.ToUpper(text), ";") {
		key, _, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "FREQ":
			sawFreq = true
		case "COUNT":
			count := opt.Count
			rule.Count = &count
		case "UNTIL":
			until := opt.Until
			rule.Until = &until
		}
	}
	if !sawFreq {
		return nil, fmt.Errorf("%w: FREQ is required", bookingerrors.ErrInvalidRule)
	}

	if err := ValidateRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// FormatRule is the inverse of ParseRule. A nil rule formats as "".
func FormatRule(r *model.RecurrenceRule) string {
	if r == nil {
		return ""
	}
	parts := []string{"FREQ=" + string(r.Frequency)}
	if r.Interval > 0 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if r.Count != nil {
		parts = append(parts, fmt.Sprintf("COUNT=%d", *r.Count))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format(untilLayout))
	}
	return strings.Join(parts, ";")
}

// ValidateRule rejects structurally invalid rules before any expansion work.
func ValidateRule(r *model.RecurrenceRule) error {
	if r == nil {
		return nil
	}
	switch r.Frequency {
	case model.FreqDaily, model.FreqWeekly, model.FreqMonthly, model.FreqYearly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", bookingerrors.ErrInvalidRule, r.Frequency)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: interval cannot be negative", bookingerrors.ErrInvalidRule)
	}
	if r.Count != nil && *r.Count < 0 {
		return fmt.Errorf("%w: count cannot be negative", bookingerrors.ErrInvalidRule)
	}
	return nil
}

func hasRefinements(opt *rrule.ROption) bool {
	return len(opt.Bysetpos) > 0 ||
		len(opt.Bymonth) > 0 ||
		len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 ||
		len(opt.Byweekday) > 0 ||
		len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 ||
		len(opt.Bysecond) > 0 ||
		len(opt.Byeaster) > 0
}

func frequencyName(f rrule.Frequency) (model.Frequency, error) {
	switch f {
	case rrule.DAILY:
		return model.FreqDaily, nil
	case rrule.WEEKLY:
		return model.FreqWeekly, nil
	case rrule.MONTHLY:
		return model.FreqMonthly, nil
	case rrule.YEARLY:
		return model.FreqYearly, nil
	default:
		return "", fmt.Errorf("%w: sub-daily frequencies are not supported", bookingerrors.ErrInvalidRule)
	}
}

func mapFrequency(f model.Frequency) (rrule.Frequency, error) {
	switch f {
	case model.FreqDaily:
		return rrule.DAILY, nil
	case model.FreqWeekly:
		return rrule.WEEKLY, nil
	case model.FreqMonthly:
		return rrule.MONTHLY, nil
	case model.FreqYearly:
		return rrule.YEARLY, nil
	default:
		return 0, fmt.Errorf("%w: unknown frequency %q", bookingerrors.ErrInvalidRule, f)
	}
}
