package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"resbook/internal/bookings/recurrence"
	"resbook/pkg/logger"
	"resbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateRequest checks a creation payload. Struct tags cover shape and
// ordering; the manual checks below cover rules the tags cannot express.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if req.StartTime.Before(time.Now()) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: "start_time cannot be in the past",
			},
		}
	}

	if req.Recurrence != nil {
		if err := recurrence.ValidateRule(req.Recurrence); err != nil {
			return ValidationErrors{
				ValidationError{
					Field:   "Recurrence",
					Message: err.Error(),
				},
			}
		}

		duration := req.EndTime.Sub(req.StartTime)
		if period := minimalPeriod(req.Recurrence); period > 0 && duration > period {
			return ValidationErrors{
				ValidationError{
					Field:   "Recurrence",
					Message: fmt.Sprintf("occurrence duration %s exceeds the shortest possible gap %s between occurrences, the series would overlap itself", duration, period),
				},
			}
		}
	}

	return nil
}

// minimalPeriod is the shortest possible time between two consecutive
// occurrence starts. Months use the 28-day floor and years the non-leap
// length, so a duration above the floor is rejected even when some steps
// of the series would not collide.
func minimalPeriod(rule *model.RecurrenceRule) time.Duration {
	interval := time.Duration(rule.EffectiveInterval())
	switch rule.Frequency {
	case model.FreqDaily:
		return interval * 24 * time.Hour
	case model.FreqWeekly:
		return interval * 7 * 24 * time.Hour
	case model.FreqMonthly:
		return interval * 28 * 24 * time.Hour
	case model.FreqYearly:
		return interval * 365 * 24 * time.Hour
	default:
		return 0
	}
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
