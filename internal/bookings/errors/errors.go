package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrSeriesNotFound = errors.New("booking series not found")

	ErrOccurrenceNotFound = errors.New("occurrence does not belong to the series")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrInvalidTimeRange = errors.New("end time must be after start time")

	ErrInvalidRule = errors.New("invalid recurrence rule")

	// ErrTooManyOccurrences guards finite series whose full expansion would
	// exceed the configured instance cap.
	ErrTooManyOccurrences = errors.New("recurrence expands to too many occurrences")

	// ErrUnboundedExpansion marks an attempt to fully materialize a series
	// that has no count or end date.
	ErrUnboundedExpansion = errors.New("unbounded series cannot be fully materialized")

	// ErrLockUnavailable is returned when the resource advisory lock stayed
	// held past the acquisition budget.
	ErrLockUnavailable = errors.New("resource lock is held by another transaction")

	// ErrExclusionViolation is raised inside a commit when the final overlap
	// re-check finds a row another transaction inserted first.
	ErrExclusionViolation = errors.New("overlapping booking was committed concurrently")
)
