package common

import (
	"testing"
	"time"

	"resbook/pkg/client"
)

// FutureHour returns a whole hour at least a day out. Whole hours survive
// RFC 3339 round-trips losslessly and always pass future-start validation.
func FutureHour() time.Time {
	return time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
}

// SingleBookingPayload builds the request body for a one-off booking.
func SingleBookingPayload(resourceID string, start, end time.Time) map[string]any {
	return map[string]any{
		"resource_id": resourceID,
		"start_time":  start.Format(time.RFC3339),
		"end_time":    end.Format(time.RFC3339),
	}
}

// RecurringBookingPayload builds the request body for a finite series of
// count occurrences.
func RecurringBookingPayload(resourceID string, start, end time.Time, frequency string, count int) map[string]any {
	return map[string]any{
		"resource_id": resourceID,
		"start_time":  start.Format(time.RFC3339),
		"end_time":    end.Format(time.RFC3339),
		"recurrence_rule": map[string]any{
			"frequency": frequency,
			"count":     count,
		},
	}
}

// UnboundedBookingPayload builds the request body for a series with
// neither count nor until.
func UnboundedBookingPayload(resourceID string, start, end time.Time, frequency string) map[string]any {
	return map[string]any{
		"resource_id": resourceID,
		"start_time":  start.Format(time.RFC3339),
		"end_time":    end.Format(time.RFC3339),
		"recurrence_rule": map[string]any{
			"frequency": frequency,
		},
	}
}

// AssertStatusCode fails the test when the response status differs.
func AssertStatusCode(t *testing.T, resp *client.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}
