// Package interval implements half-open time interval arithmetic. A span
// [start, end) occupies start up to but not including end, so back-to-back
// bookings like [10:00, 11:00) and [11:00, 12:00) never collide.
package interval

import (
	"sort"
	"time"
)

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

func New(start, end time.Time) Span {
	return Span{Start: start, End: end}
}

// IsEmpty reports whether the span covers no time at all.
func (s Span) IsEmpty() bool {
	return !s.Start.Before(s.End)
}

func (s Span) Duration() time.Duration {
	if s.IsEmpty() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open spans share any instant.
// Spans that merely touch at an endpoint do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

// Contains reports whether t falls inside the span, start inclusive,
// end exclusive.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Shift moves the span by d without changing its length.
func (s Span) Shift(d time.Duration) Span {
	return Span{Start: s.Start.Add(d), End: s.End.Add(d)}
}

// Clamp intersects the span with window. The result is empty when the two
// do not overlap.
func (s Span) Clamp(window Span) Span {
	out := s
	if out.Start.Before(window.Start) {
		out.Start = window.Start
	}
	if out.End.After(window.End) {
		out.End = window.End
	}
	return out
}

// Merge sorts the spans and coalesces every overlapping or touching pair
// into one. Empty spans are dropped. The input slice is not modified.
func Merge(spans []Span) []Span {
	busy := make([]Span, 0, len(spans))
	for _, s := range spans {
		if !s.IsEmpty() {
			busy = append(busy, s)
		}
	}
	if len(busy) == 0 {
		return nil
	}

	sort.Slice(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})

	merged := []Span{busy[0]}
	for _, s := range busy[1:] {
		last := &merged[len(merged)-1]
		if s.Start.After(last.End) {
			merged = append(merged, s)
			continue
		}
		if s.End.After(last.End) {
			last.End = s.End
		}
	}
	return merged
}

// Gaps returns the free spans inside window once the busy spans are taken
// out. Busy time outside the window is ignored; results never extend past
// the window edges.
func Gaps(busy []Span, window Span) []Span {
	if window.IsEmpty() {
		return nil
	}

	var gaps []Span
	cursor := window.Start
	for _, s := range Merge(busy) {
		clamped := s.Clamp(window)
		if clamped.IsEmpty() {
			continue
		}
		if clamped.Start.After(cursor) {
			gaps = append(gaps, Span{Start: cursor, End: clamped.Start})
		}
		if clamped.End.After(cursor) {
			cursor = clamped.End
		}
	}
	if cursor.Before(window.End) {
		gaps = append(gaps, Span{Start: cursor, End: window.End})
	}
	return gaps
}
