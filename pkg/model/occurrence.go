package model

import (
	"fmt"
	"time"
)

// Occurrence is one concrete busy span on a resource. It either mirrors a
// stored instance or, when Projected is set, an on-the-fly expansion of an
// unbounded series; projections carry the series ID as BookingID because
// no instance row exists for them.
type Occurrence struct {
	BookingID  string    `json:"booking_id"`
	SeriesID   string    `json:"series_id"`
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Projected  bool      `json:"projected,omitempty"`
}

// Key is the dedup identity of an occurrence. The same stored instance can
// collide with several requested occurrences; it is reported once.
func (o Occurrence) Key() string {
	return fmt.Sprintf("%s/%d/%d", o.BookingID, o.StartTime.UnixNano(), o.EndTime.UnixNano())
}
