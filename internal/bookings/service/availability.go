package service

import (
	"context"
	"sort"
	"time"

	apperrors "resbook/pkg/errors"
	"resbook/pkg/interval"
	"resbook/pkg/model"
	"resbook/pkg/sanitizer"
)

// busyOccurrences collects every active occurrence on a resource within the
// window: stored instance rows plus projections of unbounded series, with
// cancelled occurrences removed, sorted by start time.
func (s *bookingService) busyOccurrences(ctx context.Context, resourceID string, window interval.Span, now time.Time) ([]model.Occurrence, error) {
	rows, err := s.instanceRepo.FindOverlapping(ctx, resourceID, window)
	if err != nil {
		return nil, apperrors.Transient("load booking instances", err)
	}

	occurrences := make([]model.Occurrence, 0, len(rows))
	for _, row := range rows {
		occurrences = append(occurrences, model.Occurrence{
			BookingID:  row.ID,
			SeriesID:   row.SeriesID,
			ResourceID: row.ResourceID,
			StartTime:  row.StartTime,
			EndTime:    row.EndTime,
		})
	}

	unbounded, err := s.seriesRepo.FindUnboundedByResource(ctx, resourceID)
	if err != nil {
		return nil, apperrors.Transient("load unbounded series", err)
	}
	for _, series := range unbounded {
		spans, err := s.detector.projections(ctx, series, window, now)
		if err != nil {
			return nil, err
		}
		for _, span := range spans {
			occurrences = append(occurrences, model.Occurrence{
				BookingID:  series.ID,
				SeriesID:   series.ID,
				ResourceID: series.ResourceID,
				StartTime:  span.Start,
				EndTime:    span.End,
				Projected:  true,
			})
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].StartTime.Equal(occurrences[j].StartTime) {
			return occurrences[i].BookingID < occurrences[j].BookingID
		}
		return occurrences[i].StartTime.Before(occurrences[j].StartTime)
	})
	return occurrences, nil
}

// Availability returns the free spans of a resource within the window.
func (s *bookingService) Availability(ctx context.Context, resourceID string, window interval.Span) ([]interval.Span, error) {
	resourceID, window, err := s.checkWindow(resourceID, window)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.busyOccurrences(ctx, resourceID, window, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	busy := make([]interval.Span, 0, len(occurrences))
	for _, occ := range occurrences {
		busy = append(busy, interval.New(occ.StartTime, occ.EndTime))
	}

	return interval.Gaps(busy, window), nil
}

// ListOccurrences returns the busy view of a resource within the window.
func (s *bookingService) ListOccurrences(ctx context.Context, resourceID string, window interval.Span) ([]model.Occurrence, error) {
	resourceID, window, err := s.checkWindow(resourceID, window)
	if err != nil {
		return nil, err
	}
	return s.busyOccurrences(ctx, resourceID, window, time.Now().UTC())
}

func (s *bookingService) checkWindow(resourceID string, window interval.Span) (string, interval.Span, error) {
	resourceID = sanitizer.NormalizeResourceID(resourceID)
	if resourceID == "" {
		return "", window, apperrors.InvalidInput("resource_id is required")
	}
	window = interval.New(window.Start.UTC(), window.End.UTC())
	if window.IsEmpty() {
		return "", window, apperrors.InvalidInput("window end must be after window start")
	}
	return resourceID, window, nil
}
