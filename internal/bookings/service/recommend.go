package service

import (
	"context"
	"time"

	apperrors "resbook/pkg/errors"
	"resbook/pkg/interval"
	"resbook/pkg/model"
	"resbook/pkg/sanitizer"
)

// Suggest proposes open slots of the given duration on a resource, earliest
// first. The search starts at `from` or now, whichever is later, and gives up
// at the recommendation horizon. With a rule, candidates follow the rule's
// cadence anchored at the search start and up to maxSlots free ones are
// returned; without one, candidate starts advance in fixed steps and the
// first free window is returned alone. maxSlots < 0 means the configured
// default; 0 asks for nothing and gets it.
func (s *bookingService) Suggest(ctx context.Context, resourceID string, duration time.Duration, from time.Time, rule *model.RecurrenceRule, maxSlots int) ([]model.Slot, error) {
	resourceID = sanitizer.NormalizeResourceID(resourceID)
	if resourceID == "" {
		return nil, apperrors.InvalidInput("resource_id is required")
	}
	if duration <= 0 {
		return nil, apperrors.InvalidInput("duration must be positive")
	}
	if maxSlots < 0 {
		maxSlots = s.cfg.MaxSuggestions
	}
	if maxSlots == 0 {
		return []model.Slot{}, nil
	}

	now := time.Now().UTC()
	start := from.UTC()
	if start.IsZero() || start.Before(now) {
		start = now
	}
	horizon := now.Add(s.cfg.RecommendHorizon)
	if !start.Before(horizon) {
		return []model.Slot{}, nil
	}

	// One prefetch covers every window the scan can test: candidate starts
	// stay below the horizon, so candidate ends stay below horizon+duration.
	occurrences, err := s.busyOccurrences(ctx, resourceID, interval.New(start, horizon.Add(duration)), now)
	if err != nil {
		return nil, err
	}
	spans := make([]interval.Span, 0, len(occurrences))
	for _, occ := range occurrences {
		spans = append(spans, interval.New(occ.StartTime, occ.EndTime))
	}
	busy := interval.Merge(spans)

	if rule != nil {
		candidates, err := s.ruleCandidates(resourceID, duration, start, horizon, rule, now)
		if err == nil {
			return s.collectSlots(resourceID, candidates, busy, maxSlots, now)
		}
		// A rule that cannot expand degrades to the plain scan below
		// instead of failing the whole request.
		s.cfg.Log.Warn("Suggestion rule did not expand, falling back to single-slot search",
			"resource_id", resourceID,
			"error", err,
		)
	}

	return s.firstFreeSlot(resourceID, duration, start, horizon, busy, now)
}

// ruleCandidates expands the rule as if its series were anchored at the
// search start, bounded by the recommendation horizon.
func (s *bookingService) ruleCandidates(resourceID string, duration time.Duration, start, horizon time.Time, rule *model.RecurrenceRule, now time.Time) ([]interval.Span, error) {
	template := &model.BookingSeries{
		ResourceID: resourceID,
		StartTime:  start,
		EndTime:    start.Add(duration),
		Recurrence: rule,
	}
	return s.engine.Expand(template, interval.New(start, horizon), now)
}

// collectSlots keeps the candidates that collide with nothing, in order,
// until the cap is reached. busy must be merged.
func (s *bookingService) collectSlots(resourceID string, candidates, busy []interval.Span, maxSlots int, now time.Time) ([]model.Slot, error) {
	slots := make([]model.Slot, 0, maxSlots)
	for _, candidate := range candidates {
		if overlapsAny(busy, candidate) {
			continue
		}
		slot, err := s.sealSlot(resourceID, candidate, now)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
		if len(slots) == maxSlots {
			break
		}
	}
	return slots, nil
}

// firstFreeSlot steps candidate starts through the scan window and answers
// the first window that collides with nothing. A fully booked window answers
// an empty list, not an error.
func (s *bookingService) firstFreeSlot(resourceID string, duration time.Duration, start, horizon time.Time, busy []interval.Span, now time.Time) ([]model.Slot, error) {
	for t := start; t.Before(horizon); t = t.Add(s.cfg.RecommendStep) {
		candidate := interval.New(t, t.Add(duration))
		if overlapsAny(busy, candidate) {
			continue
		}
		slot, err := s.sealSlot(resourceID, candidate, now)
		if err != nil {
			return nil, err
		}
		return []model.Slot{slot}, nil
	}
	return []model.Slot{}, nil
}

func (s *bookingService) sealSlot(resourceID string, span interval.Span, now time.Time) (model.Slot, error) {
	slot := model.Slot{StartTime: span.Start, EndTime: span.End}
	if s.sealer == nil {
		return slot, nil
	}
	token, err := s.sealer.SealSlot(resourceID, span.Start, span.End, now)
	if err != nil {
		return model.Slot{}, apperrors.Internal("failed to seal slot token", err)
	}
	slot.Token = token
	return slot, nil
}
