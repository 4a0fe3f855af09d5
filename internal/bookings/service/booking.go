package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingerrors "resbook/internal/bookings/errors"
	"resbook/internal/bookings/recurrence"
	"resbook/internal/bookings/repository"
	"resbook/internal/bookings/validator"
	"resbook/pkg/config"
	apperrors "resbook/pkg/errors"
	"resbook/pkg/events"
	"resbook/pkg/interval"
	"resbook/pkg/model"
	"resbook/pkg/sanitizer"
	"resbook/pkg/sealer"

	"github.com/google/uuid"
)

// BookingService owns the booking lifecycle: creation with conflict
// detection, cancellation of single occurrences, series deletion, and the
// read-side views (conflicts preview, availability, suggestions).
type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error)
	GetSeries(ctx context.Context, id string) (*model.BookingSeries, []*model.BookingInstance, error)
	DeleteSeries(ctx context.Context, id string) (int64, error)
	CancelOccurrence(ctx context.Context, seriesID string, date time.Time) (*model.BookingInstance, error)
	CheckConflicts(ctx context.Context, req *model.BookingRequest) (*model.ConflictOutcome, error)
	Availability(ctx context.Context, resourceID string, window interval.Span) ([]interval.Span, error)
	ListOccurrences(ctx context.Context, resourceID string, window interval.Span) ([]model.Occurrence, error)
	Suggest(ctx context.Context, resourceID string, duration time.Duration, from time.Time, rule *model.RecurrenceRule, maxSlots int) ([]model.Slot, error)
}

type bookingService struct {
	seriesRepo   repository.SeriesRepository
	instanceRepo repository.InstanceRepository
	lockRepo     repository.LockRepository
	validator    *validator.BookingValidator
	engine       *recurrence.Engine
	detector     *conflictDetector
	sealer       *sealer.Sealer
	publisher    events.Publisher
	cfg          *config.Config
}

// NewBookingService wires the booking domain. sealer may be nil, in which
// case suggestions carry no tokens and echoed tokens are ignored. publisher
// may be nil, in which case events are dropped.
func NewBookingService(
	seriesRepo repository.SeriesRepository,
	instanceRepo repository.InstanceRepository,
	lockRepo repository.LockRepository,
	bookingValidator *validator.BookingValidator,
	engine *recurrence.Engine,
	slotSealer *sealer.Sealer,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &bookingService{
		seriesRepo:   seriesRepo,
		instanceRepo: instanceRepo,
		lockRepo:     lockRepo,
		validator:    bookingValidator,
		engine:       engine,
		detector:     newConflictDetector(seriesRepo, instanceRepo, engine, cfg),
		sealer:       slotSealer,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// Create runs a booking attempt through the creation flow. It returns a
// result carrying either the committed series or a conflict outcome;
// errors are reserved for invalid input and infrastructure failures.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("request body is required")
	}

	fc := &flowContext{now: time.Now().UTC(), request: req}
	flow := newCreateFlow(s.cfg.Log,
		flowStep{state: stateValidating, run: s.validateStep},
		flowStep{state: stateConflictChecking, run: s.guardStep},
	)

	if err := flow.Run(ctx, fc); err != nil {
		return nil, err
	}

	if fc.result.Booked() {
		s.publishCreated(ctx, fc)
	} else {
		s.publishRejected(ctx, fc)
	}
	return fc.result, nil
}

// validateStep normalizes and validates the request, then materializes the
// occurrences the attempt will claim. Recurrence problems the struct
// validator cannot see surface here as input errors.
func (s *bookingService) validateStep(ctx context.Context, fc *flowContext) error {
	req := fc.request
	req.ResourceID = sanitizer.NormalizeResourceID(req.ResourceID)
	req.StartTime = req.StartTime.UTC()
	req.EndTime = req.EndTime.UTC()
	if req.Recurrence != nil && req.Recurrence.Until != nil {
		until := req.Recurrence.Until.UTC()
		req.Recurrence.Until = &until
	}

	if err := s.validator.ValidateRequest(req); err != nil {
		return apperrors.Validation(err.Error(), nil)
	}

	if err := s.checkSlotToken(req, fc.now); err != nil {
		return err
	}

	fc.series = req.Series()

	occurrences, err := s.detector.requestedOccurrences(fc.series, fc.now)
	if err != nil {
		switch {
		case errors.Is(err, bookingerrors.ErrTooManyOccurrences):
			return apperrors.InvalidInput(fmt.Sprintf("series expands to more than %d occurrences", s.cfg.MaxSeriesInstances))
		case errors.Is(err, bookingerrors.ErrInvalidRule), errors.Is(err, bookingerrors.ErrInvalidTimeRange):
			return apperrors.InvalidInput(err.Error())
		default:
			return apperrors.Internal("failed to expand recurrence", err)
		}
	}
	if req.Recurrence != nil && len(occurrences) == 0 {
		// COUNT=0, UNTIL before the first occurrence, or an unbounded series
		// starting past the expansion horizon. Nothing to book.
		return apperrors.Validation("recurrence rule produces no occurrences", nil)
	}
	fc.occurrences = occurrences
	return nil
}

// checkSlotToken verifies an echoed suggestion token when sealing is
// configured. The token must describe exactly the requested slot.
func (s *bookingService) checkSlotToken(req *model.BookingRequest, now time.Time) error {
	if req.SlotToken == "" || s.sealer == nil {
		return nil
	}

	claim, err := s.sealer.OpenSlot(req.SlotToken, now)
	if err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("slot_token: %v", err))
	}
	if claim.ResourceID != req.ResourceID ||
		!claim.StartTime.Equal(req.StartTime) ||
		!claim.EndTime.Equal(req.EndTime) {
		return apperrors.InvalidInput("slot_token does not match the requested slot")
	}
	return nil
}

// guardStep is the contended section. It serializes writers per resource
// with an advisory lock, re-checks conflicts inside the transaction, and
// commits the series with its materialized instances. Losing a race is
// reported as a conflict outcome, not an error.
func (s *bookingService) guardStep(ctx context.Context, fc *flowContext) error {
	fc.lockOwner = uuid.NewString()
	if err := s.acquireResourceLock(ctx, fc.series.ResourceID, fc.lockOwner); err != nil {
		return err
	}
	defer s.releaseResourceLock(ctx, fc.series.ResourceID, fc.lockOwner)

	txErr := s.seriesRepo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		conflicts, err := s.detector.findConflicts(txCtx, fc.series, "", fc.now)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			fc.result = &model.BookingResult{Conflict: &model.ConflictOutcome{Conflicts: conflicts}}
			return nil
		}

		fc.transition(s.cfg.Log, stateCommitting)

		if err := s.seriesRepo.Create(txCtx, fc.series); err != nil {
			return err
		}

		result := &model.BookingResult{Series: fc.series}
		if !fc.series.IsUnbounded() {
			result.Instances = buildInstances(fc.series, fc.occurrences)
			if err := s.instanceRepo.CreateMany(txCtx, result.Instances); err != nil {
				return err
			}
		}
		fc.result = result

		// Final overlap re-check while still inside the transaction. The
		// advisory lock makes this vacuous in the healthy path; it catches
		// writers that proceeded on an expired lock.
		recheck, err := s.detector.findConflicts(txCtx, fc.series, fc.series.ID, fc.now)
		if err != nil {
			return err
		}
		if len(recheck) > 0 {
			return bookingerrors.ErrExclusionViolation
		}
		return nil
	})

	if txErr != nil {
		fc.transition(s.cfg.Log, stateRollingBack)
		fc.result = nil

		if errors.Is(txErr, bookingerrors.ErrExclusionViolation) {
			// Another transaction won the slot. Re-run detection against
			// the committed state and answer with an ordinary conflict.
			fc.series.ID = ""
			conflicts, err := s.detector.findConflicts(ctx, fc.series, "", fc.now)
			if err != nil {
				return apperrors.Transient("re-check booking conflicts", err)
			}
			fc.result = &model.BookingResult{Conflict: &model.ConflictOutcome{Conflicts: conflicts}}
		} else if apperrors.IsAppError(txErr) {
			return txErr
		} else {
			return apperrors.Transient("commit booking", txErr)
		}
	}

	if fc.result != nil && fc.result.Conflict != nil {
		s.attachSuggestions(ctx, fc)
	}
	return nil
}

func (s *bookingService) publishCreated(ctx context.Context, fc *flowContext) {
	if err := s.publisher.BookingCreated(ctx, fc.series, len(fc.result.Instances)); err != nil {
		s.cfg.Log.Warn("Booking created event not published",
			"series_id", fc.series.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Booking created successfully",
		"series_id", fc.series.ID,
		"resource_id", fc.series.ResourceID,
		"instances", len(fc.result.Instances),
		"unbounded", fc.series.IsUnbounded(),
	)
}

func (s *bookingService) publishRejected(ctx context.Context, fc *flowContext) {
	conflicts := 0
	if fc.result != nil && fc.result.Conflict != nil {
		conflicts = len(fc.result.Conflict.Conflicts)
	}
	if err := s.publisher.BookingRejected(ctx, fc.request, conflicts); err != nil {
		s.cfg.Log.Warn("Booking rejected event not published",
			"resource_id", fc.request.ResourceID,
			"error", err,
		)
	}
}

// attachSuggestions adds alternative slots to a conflict outcome, following
// the rejected request's own recurrence cadence when it has one. Failures
// are logged and swallowed, the conflicts alone are a complete answer.
func (s *bookingService) attachSuggestions(ctx context.Context, fc *flowContext) {
	slots, err := s.Suggest(ctx, fc.series.ResourceID, fc.series.Duration(), fc.request.StartTime, fc.series.Recurrence, -1)
	if err != nil {
		s.cfg.Log.Warn("Failed to compute slot suggestions",
			"resource_id", fc.series.ResourceID,
			"error", err,
		)
		return
	}
	fc.result.Conflict.Suggestions = slots
}

// GetSeries loads one series with its materialized instances.
func (s *bookingService) GetSeries(ctx context.Context, id string) (*model.BookingSeries, []*model.BookingInstance, error) {
	series, err := s.seriesRepo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, bookingerrors.ErrSeriesNotFound):
			return nil, nil, apperrors.NotFoundWithID("Booking series", id)
		case errors.Is(err, bookingerrors.ErrInvalidID):
			return nil, nil, apperrors.InvalidInput("invalid booking series ID format")
		default:
			return nil, nil, apperrors.Internal("failed to load booking series", err)
		}
	}

	instances, err := s.instanceRepo.FindBySeries(ctx, id)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to load booking instances", err)
	}
	return series, instances, nil
}

// DeleteSeries removes a series and all of its instances, returning how
// many instance rows went away.
func (s *bookingService) DeleteSeries(ctx context.Context, id string) (int64, error) {
	series, err := s.seriesRepo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, bookingerrors.ErrSeriesNotFound):
			return 0, apperrors.NotFoundWithID("Booking series", id)
		case errors.Is(err, bookingerrors.ErrInvalidID):
			return 0, apperrors.InvalidInput("invalid booking series ID format")
		default:
			return 0, apperrors.Internal("failed to load booking series", err)
		}
	}

	var removed int64
	err = s.seriesRepo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.instanceRepo.DeleteBySeries(txCtx, id)
		if err != nil {
			return err
		}
		removed = n
		return s.seriesRepo.Delete(txCtx, id)
	})
	if err != nil {
		switch {
		case apperrors.IsAppError(err):
			return 0, err
		case errors.Is(err, bookingerrors.ErrSeriesNotFound):
			return 0, apperrors.NotFoundWithID("Booking series", id)
		default:
			return 0, apperrors.Transient("delete booking series", err)
		}
	}

	if err := s.publisher.SeriesDeleted(ctx, id, series.ResourceID, removed); err != nil {
		s.cfg.Log.Warn("Series deleted event not published",
			"series_id", id,
			"error", err,
		)
	}

	s.cfg.Log.Info("Booking series deleted",
		"series_id", id,
		"resource_id", series.ResourceID,
		"removed_instances", removed,
	)
	return removed, nil
}

// CancelOccurrence excludes one occurrence from its series, identified by
// any instant within the occurrence's UTC calendar day. A materialized
// instance on that day is flipped in place; a virtual occurrence of an
// unbounded series gets a synthesized exception row. Cancelling an already
// cancelled occurrence is a no-op that returns the existing exception.
func (s *bookingService) CancelOccurrence(ctx context.Context, seriesID string, date time.Time) (*model.BookingInstance, error) {
	series, err := s.seriesRepo.FindByID(ctx, seriesID)
	if err != nil {
		switch {
		case errors.Is(err, bookingerrors.ErrSeriesNotFound):
			return nil, apperrors.NotFoundWithID("Booking series", seriesID)
		case errors.Is(err, bookingerrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("invalid booking series ID format")
		default:
			return nil, apperrors.Internal("failed to load booking series", err)
		}
	}

	day := calendarDay(date)
	now := time.Now().UTC()
	var cancelled *model.BookingInstance
	var already bool

	err = s.seriesRepo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		rows, err := s.instanceRepo.FindBySeries(txCtx, seriesID)
		if err != nil {
			return err
		}

		// Durations never exceed one recurrence period, so a series starts
		// at most one occurrence per day and the first hit is the only one.
		for _, row := range rows {
			if !day.Contains(row.StartTime) {
				continue
			}
			if row.IsException {
				cancelled, already = row, true
				return nil
			}
			if err := s.instanceRepo.MarkException(txCtx, row.ID); err != nil {
				if errors.Is(err, bookingerrors.ErrNotFound) {
					// Lost a cancel race; the occurrence is gone either way.
					row.IsException = true
					cancelled, already = row, true
					return nil
				}
				return err
			}
			row.IsException = true
			cancelled = row
			return nil
		}

		if !series.IsUnbounded() {
			return bookingerrors.ErrOccurrenceNotFound
		}

		// No materialized row. Verify the unbounded series really starts an
		// occurrence on that day, then synthesize a tombstone for it.
		spans, err := s.engine.Expand(series, day, now)
		if err != nil {
			return err
		}
		var hit *interval.Span
		for i := range spans {
			if day.Contains(spans[i].Start) {
				hit = &spans[i]
				break
			}
		}
		if hit == nil {
			return bookingerrors.ErrOccurrenceNotFound
		}

		tombstone := &model.BookingInstance{
			SeriesID:   seriesID,
			ResourceID: series.ResourceID,
			StartTime:  hit.Start,
			EndTime:    hit.End,
		}
		if err := s.instanceRepo.CreateException(txCtx, tombstone); err != nil {
			return err
		}
		cancelled = tombstone
		return nil
	})
	if err != nil {
		switch {
		case apperrors.IsAppError(err):
			return nil, err
		case errors.Is(err, bookingerrors.ErrOccurrenceNotFound):
			return nil, apperrors.NotFound("Booking occurrence")
		default:
			return nil, apperrors.Transient("cancel booking occurrence", err)
		}
	}

	if !already {
		if err := s.publisher.OccurrenceCancelled(ctx, seriesID, series.ResourceID, cancelled.StartTime); err != nil {
			s.cfg.Log.Warn("Occurrence cancelled event not published",
				"series_id", seriesID,
				"error", err,
			)
		}
		s.cfg.Log.Info("Booking occurrence cancelled",
			"series_id", seriesID,
			"resource_id", series.ResourceID,
			"start_time", cancelled.StartTime,
		)
	}
	return cancelled, nil
}

// calendarDay returns the UTC day containing t as a half-open span.
func calendarDay(t time.Time) interval.Span {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return interval.New(start, start.Add(24*time.Hour))
}

// CheckConflicts previews a booking attempt without writing anything. An
// empty outcome means the slot is free.
func (s *bookingService) CheckConflicts(ctx context.Context, req *model.BookingRequest) (*model.ConflictOutcome, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("request body is required")
	}

	fc := &flowContext{now: time.Now().UTC(), request: req}
	if err := s.validateStep(ctx, fc); err != nil {
		return nil, err
	}

	conflicts, err := s.detector.findConflicts(ctx, fc.series, "", fc.now)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Transient("check booking conflicts", err)
	}

	outcome := &model.ConflictOutcome{Conflicts: conflicts}
	if len(conflicts) > 0 {
		fc.result = &model.BookingResult{Conflict: outcome}
		s.attachSuggestions(ctx, fc)
	}
	return outcome, nil
}

// acquireResourceLock polls for the per-resource advisory lock. The budget
// is one lock TTL: a live holder finishes well inside it and an expired
// holder is reclaimed by the store.
func (s *bookingService) acquireResourceLock(ctx context.Context, resourceID, owner string) error {
	deadline := time.Now().Add(s.cfg.LockTTL)
	for {
		err := s.lockRepo.Acquire(ctx, resourceID, owner, s.cfg.LockTTL)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingerrors.ErrLockUnavailable) {
			return apperrors.Transient("acquire resource lock", err)
		}
		if !time.Now().Add(s.cfg.LockRetryInterval).Before(deadline) {
			s.cfg.Log.Warn("Resource lock acquisition budget exhausted",
				"resource_id", resourceID,
			)
			return apperrors.TooManyRequests("resource is receiving too many concurrent booking attempts")
		}

		select {
		case <-ctx.Done():
			return apperrors.Timeout("booking request cancelled while waiting for the resource lock")
		case <-time.After(s.cfg.LockRetryInterval):
		}
	}
}

// releaseResourceLock lets the next writer in. A failed release is only
// logged: the lock TTL reclaims it.
func (s *bookingService) releaseResourceLock(ctx context.Context, resourceID, owner string) {
	if err := s.lockRepo.Release(ctx, resourceID, owner); err != nil {
		s.cfg.Log.Warn("Failed to release resource lock",
			"resource_id", resourceID,
			"error", err,
		)
	}
}

func buildInstances(series *model.BookingSeries, spans []interval.Span) []*model.BookingInstance {
	instances := make([]*model.BookingInstance, 0, len(spans))
	for _, span := range spans {
		instances = append(instances, &model.BookingInstance{
			SeriesID:   series.ID,
			ResourceID: series.ResourceID,
			StartTime:  span.Start,
			EndTime:    span.End,
		})
	}
	return instances
}
