package model

import "time"

// Slot is a recommended open interval that fits the requested duration.
// Token, when set, is an opaque sealed reference to the slot that a client
// can echo back on the follow-up booking attempt.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Token     string    `json:"token,omitempty"`
}

// ConflictOutcome is the structured result of a booking attempt that found
// the resource occupied. It is an expected, serializable answer rather than
// a failure: callers inspect it to render conflicts and alternatives.
type ConflictOutcome struct {
	Conflicts   []Occurrence `json:"conflicts"`
	Suggestions []Slot       `json:"suggestions,omitempty"`
}

// BookingResult is the outcome of a creation attempt. Exactly one of the
// committed series or the conflict outcome is populated.
type BookingResult struct {
	Series    *BookingSeries     `json:"series,omitempty"`
	Instances []*BookingInstance `json:"instances,omitempty"`
	Conflict  *ConflictOutcome   `json:"conflict,omitempty"`
}

// Booked reports whether the attempt committed.
func (r *BookingResult) Booked() bool {
	return r != nil && r.Conflict == nil
}
