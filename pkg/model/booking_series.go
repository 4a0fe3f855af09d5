package model

import "time"

// BookingSeries is the durable record of a reservation request: a single
// booking, a finite recurring series or an unbounded recurring series on
// one resource. StartTime/EndTime describe the template occurrence; the
// recurrence rule, when present, derives the rest of the sequence.
type BookingSeries struct {
	ID         string          `json:"id,omitempty" bson:"_id,omitempty"`
	ResourceID string          `json:"resource_id" bson:"resource_id" validate:"required,min=1,max=120"`
	StartTime  time.Time       `json:"start_time" bson:"start_time" validate:"required"`
	EndTime    time.Time       `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Recurrence *RecurrenceRule `json:"recurrence_rule,omitempty" bson:"recurrence_rule,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Duration returns the length of one occurrence.
func (s *BookingSeries) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// IsRecurring reports whether the series carries a recurrence rule.
func (s *BookingSeries) IsRecurring() bool {
	return s.Recurrence != nil
}

// IsUnbounded reports whether the series repeats without a count or end date.
func (s *BookingSeries) IsUnbounded() bool {
	return s.Recurrence.IsUnbounded()
}
