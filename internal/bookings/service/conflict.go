package service

import (
	"context"
	"sort"
	"time"

	"resbook/internal/bookings/recurrence"
	"resbook/internal/bookings/repository"
	"resbook/pkg/config"
	"resbook/pkg/interval"
	"resbook/pkg/model"
)

// conflictDetector finds every existing occurrence that collides with a
// candidate series. Detection is two-sided: stored instance rows answer for
// single and finite bookings, and unbounded series are expanded on the fly
// inside a padded envelope around the candidate's occurrences.
type conflictDetector struct {
	series    repository.SeriesRepository
	instances repository.InstanceRepository
	engine    *recurrence.Engine
	padding   time.Duration
	maxExpand int
}

func newConflictDetector(seriesRepo repository.SeriesRepository, instanceRepo repository.InstanceRepository, engine *recurrence.Engine, cfg *config.Config) *conflictDetector {
	return &conflictDetector{
		series:    seriesRepo,
		instances: instanceRepo,
		engine:    engine,
		padding:   cfg.ConflictPadding,
		maxExpand: cfg.MaxSeriesInstances,
	}
}

// findConflicts returns collisions with the candidate series, sorted by
// start time. excludeSeriesID skips rows and projections of the series
// being written so a transaction can re-check after inserting its own
// instances.
func (d *conflictDetector) findConflicts(ctx context.Context, candidate *model.BookingSeries, excludeSeriesID string, now time.Time) ([]model.Occurrence, error) {
	requested, err := d.requestedOccurrences(candidate, now)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return nil, nil
	}

	envelope := interval.New(requested[0].Start, requested[len(requested)-1].End)

	var conflicts []model.Occurrence
	seen := make(map[string]struct{})
	report := func(occ model.Occurrence) {
		if _, dup := seen[occ.Key()]; dup {
			return
		}
		seen[occ.Key()] = struct{}{}
		conflicts = append(conflicts, occ)
	}

	// One envelope query instead of one per occurrence. Rows in the gaps
	// between occurrences are fetched too and filtered in memory.
	rows, err := d.instances.FindOverlapping(ctx, candidate.ResourceID, envelope)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if excludeSeriesID != "" && row.SeriesID == excludeSeriesID {
			continue
		}
		if !overlapsAny(requested, interval.New(row.StartTime, row.EndTime)) {
			continue
		}
		report(model.Occurrence{
			BookingID:  row.ID,
			SeriesID:   row.SeriesID,
			ResourceID: row.ResourceID,
			StartTime:  row.StartTime,
			EndTime:    row.EndTime,
		})
	}

	padded := interval.New(envelope.Start.Add(-d.padding), envelope.End.Add(d.padding))
	unbounded, err := d.series.FindUnboundedByResource(ctx, candidate.ResourceID)
	if err != nil {
		return nil, err
	}
	for _, existing := range unbounded {
		if existing.ID == excludeSeriesID {
			continue
		}
		if candidate.ID != "" && existing.ID == candidate.ID {
			continue
		}

		projected, err := d.projections(ctx, existing, padded, now)
		if err != nil {
			return nil, err
		}
		for _, span := range projected {
			if !overlapsAny(requested, span) {
				continue
			}
			report(model.Occurrence{
				BookingID:  existing.ID,
				SeriesID:   existing.ID,
				ResourceID: existing.ResourceID,
				StartTime:  span.Start,
				EndTime:    span.End,
				Projected:  true,
			})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].StartTime.Equal(conflicts[j].StartTime) {
			return conflicts[i].BookingID < conflicts[j].BookingID
		}
		return conflicts[i].StartTime.Before(conflicts[j].StartTime)
	})
	return conflicts, nil
}

// requestedOccurrences materializes the candidate's own occurrences. A
// bounded series expands fully; an unbounded one expands from its template
// start to the expansion horizon.
func (d *conflictDetector) requestedOccurrences(candidate *model.BookingSeries, now time.Time) ([]interval.Span, error) {
	if candidate.IsUnbounded() {
		window := interval.New(candidate.StartTime, now.Add(d.engine.Horizon()))
		return d.engine.Expand(candidate, window, now)
	}
	return d.engine.ExpandAll(candidate, d.maxExpand)
}

// projections expands an unbounded series over the window and drops the
// occurrences its exceptions have cancelled.
func (d *conflictDetector) projections(ctx context.Context, series *model.BookingSeries, window interval.Span, now time.Time) ([]interval.Span, error) {
	spans, err := d.engine.Expand(series, window, now)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, nil
	}

	excluded, err := d.instances.FindExceptionStarts(ctx, series.ID)
	if err != nil {
		return nil, err
	}
	if len(excluded) == 0 {
		return spans, nil
	}

	kept := spans[:0]
	for _, span := range spans {
		if startExcluded(excluded, span.Start) {
			continue
		}
		kept = append(kept, span)
	}
	return kept, nil
}

// overlapsAny reports whether span collides with any of spans. spans must be
// sorted by start with ends in the same order, which holds for the two shapes
// callers pass: occurrences of one series, which share a duration, and merged
// busy sets, which never overlap. A binary search then suffices.
func overlapsAny(spans []interval.Span, span interval.Span) bool {
	i := sort.Search(len(spans), func(k int) bool {
		return spans[k].End.After(span.Start)
	})
	return i < len(spans) && spans[i].Start.Before(span.End)
}

func startExcluded(excluded []time.Time, start time.Time) bool {
	for _, t := range excluded {
		if t.Equal(start) {
			return true
		}
	}
	return false
}
