package model

import "time"

// BookingInstance is one materialized occurrence of a series. Finite series
// persist every occurrence up front; unbounded series persist none and are
// expanded on demand. Cancelling one occurrence of an unbounded series
// synthesizes an exception instance so the occurrence stays suppressed.
type BookingInstance struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	SeriesID    string    `json:"series_id" bson:"series_id"`
	ResourceID  string    `json:"resource_id" bson:"resource_id"`
	StartTime   time.Time `json:"start_time" bson:"start_time"`
	EndTime     time.Time `json:"end_time" bson:"end_time"`
	IsException bool      `json:"is_exception" bson:"is_exception"`
	CreatedAt   time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Active reports whether the instance still occupies its resource.
// Exception instances are cancellation tombstones and block nothing.
func (i *BookingInstance) Active() bool {
	return !i.IsException
}
