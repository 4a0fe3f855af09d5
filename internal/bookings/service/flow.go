package service

import (
	"context"
	"time"

	"resbook/pkg/interval"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

// Booking creation runs as a linear state machine: validating,
// conflict_checking, committing, done. A conflict outcome ends the run
// early without error; a failure after the commit started passes through
// rolling_back before it surfaces.
type flowState string

const (
	stateValidating       flowState = "validating"
	stateConflictChecking flowState = "conflict_checking"
	stateCommitting       flowState = "committing"
	stateRollingBack      flowState = "rolling_back"
	stateDone             flowState = "done"
)

// flowContext carries one creation attempt through the states.
type flowContext struct {
	state       flowState
	now         time.Time
	request     *model.BookingRequest
	series      *model.BookingSeries
	occurrences []interval.Span
	lockOwner   string
	result      *model.BookingResult
}

// transition records a state change. Steps call it so the log shows where
// an attempt was when it failed.
func (fc *flowContext) transition(log *logger.Logger, to flowState) {
	log.Debug("Booking flow transition",
		"from", string(fc.state),
		"to", string(to),
	)
	fc.state = to
}

type flowStep struct {
	state flowState
	run   func(ctx context.Context, fc *flowContext) error
}

type createFlow struct {
	steps []flowStep
	log   *logger.Logger
}

func newCreateFlow(log *logger.Logger, steps ...flowStep) *createFlow {
	return &createFlow{steps: steps, log: log}
}

// Run drives the flow to done, stopping early when a step resolved the
// attempt with a conflict outcome.
func (f *createFlow) Run(ctx context.Context, fc *flowContext) error {
	for _, step := range f.steps {
		fc.transition(f.log, step.state)

		if err := step.run(ctx, fc); err != nil {
			return err
		}

		if fc.result != nil && fc.result.Conflict != nil {
			break
		}
	}

	fc.transition(f.log, stateDone)
	return nil
}
