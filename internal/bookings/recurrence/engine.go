package recurrence

import (
	"fmt"
	"time"

	bookingerrors "resbook/internal/bookings/errors"
	"resbook/pkg/interval"
	"resbook/pkg/model"

	"github.com/teambition/rrule-go"
)

// Engine expands series into occurrence spans. It is stateless; callers pass
// "now" explicitly so expansions are reproducible in tests.
//
// Monthly and yearly rules follow calendar recurrence semantics: a series
// anchored on Jan 31 yields nothing in February and resumes on Mar 31.
type Engine struct {
	horizon time.Duration
}

// NewEngine returns an engine that stops expanding unbounded series at
// now + horizon.
func NewEngine(horizon time.Duration) *Engine {
	return &Engine{horizon: horizon}
}

// Horizon reports how far past "now" an unbounded series is expanded.
func (e *Engine) Horizon() time.Duration {
	return e.horizon
}

// Expand returns every occurrence of series that overlaps the half-open
// window, in chronological order. Occurrences that begin before the window
// but spill into it are included. Unbounded series stop at now + horizon;
// an occurrence starting exactly on the horizon is already outside it.
func (e *Engine) Expand(series *model.BookingSeries, window interval.Span, now time.Time) ([]interval.Span, error) {
	if window.IsEmpty() {
		return nil, nil
	}
	duration := series.Duration()
	if duration <= 0 {
		return nil, bookingerrors.ErrInvalidTimeRange
	}

	rule := series.Recurrence
	if rule == nil {
		template := interval.New(series.StartTime, series.EndTime)
		if template.Overlaps(window) {
			return []interval.Span{template}, nil
		}
		return nil, nil
	}
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}
	if rule.Count != nil && *rule.Count == 0 {
		return nil, nil
	}

	horizon := now.Add(e.horizon)
	queryEnd := window.End
	if rule.IsUnbounded() && horizon.Before(queryEnd) {
		queryEnd = horizon
	}
	queryStart := window.Start.Add(-duration)
	if !queryStart.Before(queryEnd) {
		return nil, nil
	}

	r, err := buildRule(series)
	if err != nil {
		return nil, err
	}

	starts := r.Between(queryStart.UTC(), queryEnd.UTC(), true)
	spans := make([]interval.Span, 0, len(starts))
	for _, start := range starts {
		if rule.IsUnbounded() && !start.Before(horizon) {
			continue
		}
		span := interval.New(start, start.Add(duration))
		if span.Overlaps(window) {
			spans = append(spans, span)
		}
	}
	return spans, nil
}

// ExpandAll materializes the complete occurrence list of a single booking or
// finite series. Unbounded series cannot be materialized. limit caps the
// expansion; 0 means no cap.
func (e *Engine) ExpandAll(series *model.BookingSeries, limit int) ([]interval.Span, error) {
	duration := series.Duration()
	if duration <= 0 {
		return nil, bookingerrors.ErrInvalidTimeRange
	}

	rule := series.Recurrence
	if rule == nil {
		return []interval.Span{interval.New(series.StartTime, series.EndTime)}, nil
	}
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}
	if rule.IsUnbounded() {
		return nil, bookingerrors.ErrUnboundedExpansion
	}
	if rule.Count != nil && *rule.Count == 0 {
		return nil, nil
	}

	r, err := buildRule(series)
	if err != nil {
		return nil, err
	}

	starts := r.All()
	if limit > 0 && len(starts) > limit {
		return nil, fmt.Errorf("%w: %d occurrences, limit %d", bookingerrors.ErrTooManyOccurrences, len(starts), limit)
	}

	spans := make([]interval.Span, 0, len(starts))
	for _, start := range starts {
		spans = append(spans, interval.New(start, start.Add(duration)))
	}
	return spans, nil
}

// buildRule compiles the structured rule against the series template start.
// Times are normalized to UTC so expansion never depends on the offset a
// client happened to send.
func buildRule(series *model.BookingSeries) (*rrule.RRule, error) {
	rule := series.Recurrence

	freq, err := mapFrequency(rule.Frequency)
	if err != nil {
		return nil, err
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: rule.EffectiveInterval(),
		Dtstart:  series.StartTime.UTC(),
	}
	if rule.Count != nil {
		opt.Count = *rule.Count
	}
	if rule.Until != nil {
		opt.Until = rule.Until.UTC()
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bookingerrors.ErrInvalidRule, err)
	}
	return r, nil
}
