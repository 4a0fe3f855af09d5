package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"resbook/pkg/interval"
	"resbook/pkg/model"
)

// BookingClient is the HTTP SDK for the booking service. Request methods
// return the raw Response so callers can branch on the status code; the
// Decode helpers unwrap the data envelope into typed values.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

// Metadata carries the pagination fields of a paginated listing.
type Metadata struct {
	TotalCount int64
	Limit      int
	Offset     int64
}

// WaitForHealthy blocks until the service answers its health endpoint.
func (c *BookingClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}

// Create submits a booking attempt. A 201 answer carries the committed
// series, a 409 answer carries the conflicts and suggested alternatives;
// both decode with DecodeResult.
func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

// CreateWithIdempotencyKey retries a booking attempt safely: the server
// replays the first answer for a repeated key instead of booking twice.
func (c *BookingClient) CreateWithIdempotencyKey(body any, key string) (*Response, error) {
	headers := map[string]string{"Idempotency-Key": key}
	return c.httpClient.POSTWithHeaders("/api/v1/bookings", body, headers)
}

func (c *BookingClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw("/api/v1/bookings", rawBody)
}

// CheckConflicts previews a booking attempt without persisting anything.
func (c *BookingClient) CheckConflicts(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/check", body)
}

func (c *BookingClient) GetSeries(id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *BookingClient) DeleteSeries(id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id)
	return c.httpClient.DELETE(path)
}

// CancelOccurrence cancels the occurrence of a series on the UTC calendar
// day containing date.
func (c *BookingClient) CancelOccurrence(id string, date time.Time) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/occurrences/cancel"
	body := map[string]string{"date": date.Format(time.RFC3339Nano)}
	return c.httpClient.POST(path, body)
}

// Availability lists the free spans of a resource inside [from, to).
func (c *BookingClient) Availability(resourceID string, from, to time.Time) (*Response, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339Nano))
	q.Set("to", to.Format(time.RFC3339Nano))
	path := "/api/v1/resources/" + url.PathEscape(resourceID) + "/availability?" + q.Encode()
	return c.httpClient.GET(path)
}

// ListOccurrences pages through the busy view of a resource inside [from, to).
func (c *BookingClient) ListOccurrences(resourceID string, from, to time.Time, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339Nano))
	q.Set("to", to.Format(time.RFC3339Nano))
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	path := "/api/v1/resources/" + url.PathEscape(resourceID) + "/occurrences?" + q.Encode()
	return c.httpClient.GET(path)
}

// Suggest asks for the next open slot that fits duration, searching forward
// from the given time. A zero from lets the server start at now.
func (c *BookingClient) Suggest(resourceID string, duration time.Duration, from time.Time) (*Response, error) {
	return c.SuggestRecurring(resourceID, duration, from, "", -1)
}

// SuggestRecurring asks for open slots following a recurrence cadence. rule
// is RFC 5545 text such as "FREQ=WEEKLY"; empty means a plain single-slot
// search. maxSlots < 0 lets the server pick its default.
func (c *BookingClient) SuggestRecurring(resourceID string, duration time.Duration, from time.Time, rule string, maxSlots int) (*Response, error) {
	q := url.Values{}
	q.Set("duration", duration.String())
	if !from.IsZero() {
		q.Set("from", from.Format(time.RFC3339Nano))
	}
	if rule != "" {
		q.Set("rule", rule)
	}
	if maxSlots >= 0 {
		q.Set("max_slots", fmt.Sprintf("%d", maxSlots))
	}
	path := "/api/v1/resources/" + url.PathEscape(resourceID) + "/suggestions?" + q.Encode()
	return c.httpClient.GET(path)
}

// DecodeResult unwraps a booking attempt answer. Both the 201 and the 409
// bodies carry a result; Booked reports which one it was.
func (c *BookingClient) DecodeResult(resp *Response) (*model.BookingResult, error) {
	var result model.BookingResult
	if err := decodeData(resp, &result); err != nil {
		return nil, fmt.Errorf("could not decode booking result:\n%s\n%s", resp.ToString(), err)
	}
	return &result, nil
}

func (c *BookingClient) DecodeSeries(resp *Response) (*model.BookingSeries, []*model.BookingInstance, error) {
	var payload struct {
		Series    *model.BookingSeries     `json:"series"`
		Instances []*model.BookingInstance `json:"instances"`
	}
	if err := decodeData(resp, &payload); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking series:\n%s\n%s", resp.ToString(), err)
	}
	return payload.Series, payload.Instances, nil
}

func (c *BookingClient) DecodeInstance(resp *Response) (*model.BookingInstance, error) {
	var instance model.BookingInstance
	if err := decodeData(resp, &instance); err != nil {
		return nil, fmt.Errorf("could not decode booking instance:\n%s\n%s", resp.ToString(), err)
	}
	return &instance, nil
}

func (c *BookingClient) DecodeOutcome(resp *Response) (*model.ConflictOutcome, error) {
	var outcome model.ConflictOutcome
	if err := decodeData(resp, &outcome); err != nil {
		return nil, fmt.Errorf("could not decode conflict outcome:\n%s\n%s", resp.ToString(), err)
	}
	return &outcome, nil
}

func (c *BookingClient) DecodeSpans(resp *Response) ([]interval.Span, error) {
	var spans []interval.Span
	if err := decodeData(resp, &spans); err != nil {
		return nil, fmt.Errorf("could not decode span list:\n%s\n%s", resp.ToString(), err)
	}
	return spans, nil
}

func (c *BookingClient) DecodeSlots(resp *Response) ([]model.Slot, error) {
	var slots []model.Slot
	if err := decodeData(resp, &slots); err != nil {
		return nil, fmt.Errorf("could not decode slot list:\n%s\n%s", resp.ToString(), err)
	}
	return slots, nil
}

func (c *BookingClient) DecodeOccurrences(resp *Response) ([]model.Occurrence, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%s\n%s", resp.ToString(), err)
	}

	var occurrences []model.Occurrence
	if err := json.Unmarshal(wrapper.Data, &occurrences); err != nil {
		return nil, nil, fmt.Errorf("could not decode occurrence list:\n%s\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return occurrences, metadata, nil
}

func decodeData(resp *Response, out any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return err
	}
	return json.Unmarshal(wrapper.Data, out)
}
