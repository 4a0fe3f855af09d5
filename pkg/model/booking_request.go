package model

import "time"

// BookingRequest is the inbound payload for creating a booking. The
// recurrence rule may arrive as a structured object or, on query-string
// surfaces, as rule text parsed upstream of the service layer.
type BookingRequest struct {
	ResourceID string          `json:"resource_id" validate:"required,min=1,max=120"`
	StartTime  time.Time       `json:"start_time" validate:"required"`
	EndTime    time.Time       `json:"end_time" validate:"required,gtfield=StartTime"`
	Recurrence *RecurrenceRule `json:"recurrence_rule,omitempty"`
	SlotToken  string          `json:"slot_token,omitempty"`
}

// Series builds the durable series record for the request.
func (r *BookingRequest) Series() *BookingSeries {
	return &BookingSeries{
		ResourceID: r.ResourceID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Recurrence: r.Recurrence,
	}
}
