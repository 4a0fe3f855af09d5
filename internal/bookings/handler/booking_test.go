package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	apperrors "resbook/pkg/errors"
	"resbook/pkg/interval"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

type mockBookingService struct {
	createFunc           func(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error)
	getSeriesFunc        func(ctx context.Context, id string) (*model.BookingSeries, []*model.BookingInstance, error)
	deleteSeriesFunc     func(ctx context.Context, id string) (int64, error)
	cancelOccurrenceFunc func(ctx context.Context, seriesID string, date time.Time) (*model.BookingInstance, error)
	checkConflictsFunc   func(ctx context.Context, req *model.BookingRequest) (*model.ConflictOutcome, error)
	availabilityFunc     func(ctx context.Context, resourceID string, window interval.Span) ([]interval.Span, error)
	listOccurrencesFunc  func(ctx context.Context, resourceID string, window interval.Span) ([]model.Occurrence, error)
	suggestFunc          func(ctx context.Context, resourceID string, duration time.Duration, from time.Time, rule *model.RecurrenceRule, maxSlots int) ([]model.Slot, error)
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.BookingResult{Series: &model.BookingSeries{ID: "series-1"}}, nil
}

func (m *mockBookingService) GetSeries(ctx context.Context, id string) (*model.BookingSeries, []*model.BookingInstance, error) {
	if m.getSeriesFunc != nil {
		return m.getSeriesFunc(ctx, id)
	}
	return &model.BookingSeries{ID: id}, nil, nil
}

func (m *mockBookingService) DeleteSeries(ctx context.Context, id string) (int64, error) {
	if m.deleteSeriesFunc != nil {
		return m.deleteSeriesFunc(ctx, id)
	}
	return 0, nil
}

func (m *mockBookingService) CancelOccurrence(ctx context.Context, seriesID string, date time.Time) (*model.BookingInstance, error) {
	if m.cancelOccurrenceFunc != nil {
		return m.cancelOccurrenceFunc(ctx, seriesID, date)
	}
	return &model.BookingInstance{SeriesID: seriesID, StartTime: date, IsException: true}, nil
}

func (m *mockBookingService) CheckConflicts(ctx context.Context, req *model.BookingRequest) (*model.ConflictOutcome, error) {
	if m.checkConflictsFunc != nil {
		return m.checkConflictsFunc(ctx, req)
	}
	return &model.ConflictOutcome{}, nil
}

func (m *mockBookingService) Availability(ctx context.Context, resourceID string, window interval.Span) ([]interval.Span, error) {
	if m.availabilityFunc != nil {
		return m.availabilityFunc(ctx, resourceID, window)
	}
	return nil, nil
}

func (m *mockBookingService) ListOccurrences(ctx context.Context, resourceID string, window interval.Span) ([]model.Occurrence, error) {
	if m.listOccurrencesFunc != nil {
		return m.listOccurrencesFunc(ctx, resourceID, window)
	}
	return nil, nil
}

func (m *mockBookingService) Suggest(ctx context.Context, resourceID string, duration time.Duration, from time.Time, rule *model.RecurrenceRule, maxSlots int) ([]model.Slot, error) {
	if m.suggestFunc != nil {
		return m.suggestFunc(ctx, resourceID, duration, from, rule, maxSlots)
	}
	return nil, nil
}

func newTestHandler(svc *mockBookingService) *BookingHandler {
	return NewBookingHandler(svc, logger.NewNop())
}

func TestCreate_BookedAnswers201(t *testing.T) {
	start := time.Date(2027, 4, 12, 10, 0, 0, 0, time.UTC)
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
			return &model.BookingResult{
				Series: &model.BookingSeries{
					ID:         "series-1",
					ResourceID: req.ResourceID,
					StartTime:  req.StartTime,
					EndTime:    req.EndTime,
				},
				Instances: []*model.BookingInstance{
					{ID: "inst-1", SeriesID: "series-1", StartTime: req.StartTime, EndTime: req.EndTime},
				},
			}, nil
		},
	}
	h := newTestHandler(svc)

	body := `{"resource_id":"room-a","start_time":"` + start.Format(time.RFC3339) + `","end_time":"` + start.Add(time.Hour).Format(time.RFC3339) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Data model.BookingResult `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.Series == nil || response.Data.Series.ID != "series-1" {
		t.Errorf("expected series-1 in response, got %+v", response.Data.Series)
	}
	if len(response.Data.Instances) != 1 {
		t.Errorf("expected 1 instance, got %d", len(response.Data.Instances))
	}
}

func TestCreate_ConflictAnswers409(t *testing.T) {
	start := time.Date(2027, 4, 12, 10, 0, 0, 0, time.UTC)
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
			return &model.BookingResult{
				Conflict: &model.ConflictOutcome{
					Conflicts: []model.Occurrence{
						{BookingID: "other", ResourceID: req.ResourceID, StartTime: start, EndTime: start.Add(time.Hour)},
					},
					Suggestions: []model.Slot{
						{StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour)},
					},
				},
			}, nil
		},
	}
	h := newTestHandler(svc)

	body := `{"resource_id":"room-a","start_time":"` + start.Format(time.RFC3339) + `","end_time":"` + start.Add(time.Hour).Format(time.RFC3339) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Data model.BookingResult `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.Conflict == nil {
		t.Fatal("expected conflict outcome in response")
	}
	if len(response.Data.Conflict.Conflicts) != 1 {
		t.Errorf("expected 1 conflict, got %d", len(response.Data.Conflict.Conflicts))
	}
	if len(response.Data.Conflict.Suggestions) != 1 {
		t.Errorf("expected 1 suggestion, got %d", len(response.Data.Conflict.Suggestions))
	}
}

func TestCreate_InvalidBodyAnswers400(t *testing.T) {
	h := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestCreate_ServiceErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", apperrors.Validation("end_time must be after start_time", nil), http.StatusUnprocessableEntity},
		{"invalid input", apperrors.InvalidInput("resource_id is required"), http.StatusBadRequest},
		{"lock pressure", apperrors.TooManyRequests("resource is receiving too many concurrent booking attempts"), http.StatusTooManyRequests},
		{"transient storage", apperrors.Transient("commit booking", context.DeadlineExceeded), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
					return nil, tt.err
				},
			}
			h := newTestHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"resource_id":"room-a"}`))
			w := httptest.NewRecorder()

			h.Create(w, req, httprouter.Params{})

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetSeries_NotFoundAnswers404(t *testing.T) {
	svc := &mockBookingService{
		getSeriesFunc: func(ctx context.Context, id string) (*model.BookingSeries, []*model.BookingInstance, error) {
			return nil, nil, apperrors.NotFoundWithID("Booking series", id)
		},
	}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/missing", nil)
	w := httptest.NewRecorder()

	h.GetSeries(w, req, httprouter.Params{{Key: "id", Value: "missing"}})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetSeries_WrapsSeriesAndInstances(t *testing.T) {
	svc := &mockBookingService{
		getSeriesFunc: func(ctx context.Context, id string) (*model.BookingSeries, []*model.BookingInstance, error) {
			return &model.BookingSeries{ID: id, ResourceID: "room-a"},
				[]*model.BookingInstance{{ID: "i1", SeriesID: id}, {ID: "i2", SeriesID: id}},
				nil
		},
	}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/series-1", nil)
	w := httptest.NewRecorder()

	h.GetSeries(w, req, httprouter.Params{{Key: "id", Value: "series-1"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data struct {
			Series    *model.BookingSeries     `json:"series"`
			Instances []*model.BookingInstance `json:"instances"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.Series == nil || response.Data.Series.ID != "series-1" {
		t.Errorf("expected series-1, got %+v", response.Data.Series)
	}
	if len(response.Data.Instances) != 2 {
		t.Errorf("expected 2 instances, got %d", len(response.Data.Instances))
	}
}

func TestDeleteSeries_Answers204(t *testing.T) {
	var deletedID string
	svc := &mockBookingService{
		deleteSeriesFunc: func(ctx context.Context, id string) (int64, error) {
			deletedID = id
			return 3, nil
		},
	}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/id/series-9", nil)
	w := httptest.NewRecorder()

	h.DeleteSeries(w, req, httprouter.Params{{Key: "id", Value: "series-9"}})

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if deletedID != "series-9" {
		t.Errorf("expected delete of series-9, got %q", deletedID)
	}
}

func TestCancelOccurrence_RequiresDate(t *testing.T) {
	h := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/series-1/occurrences/cancel", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.CancelOccurrence(w, req, httprouter.Params{{Key: "id", Value: "series-1"}})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestCancelOccurrence_PassesSeriesAndDate(t *testing.T) {
	date := time.Date(2027, 4, 12, 10, 0, 0, 0, time.UTC)
	var gotSeriesID string
	var gotDate time.Time
	svc := &mockBookingService{
		cancelOccurrenceFunc: func(ctx context.Context, seriesID string, d time.Time) (*model.BookingInstance, error) {
			gotSeriesID = seriesID
			gotDate = d
			return &model.BookingInstance{ID: "exc-1", SeriesID: seriesID, StartTime: d, IsException: true}, nil
		},
	}
	h := newTestHandler(svc)

	body := `{"date":"` + date.Format(time.RFC3339) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/series-1/occurrences/cancel", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CancelOccurrence(w, req, httprouter.Params{{Key: "id", Value: "series-1"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotSeriesID != "series-1" {
		t.Errorf("expected series-1, got %q", gotSeriesID)
	}
	if !gotDate.Equal(date) {
		t.Errorf("expected date %v, got %v", date, gotDate)
	}

	var response struct {
		Data model.BookingInstance `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Data.IsException {
		t.Error("expected exception instance in response")
	}
}

func TestCheckConflicts_FreeSlotAnswers200(t *testing.T) {
	svc := &mockBookingService{
		checkConflictsFunc: func(ctx context.Context, req *model.BookingRequest) (*model.ConflictOutcome, error) {
			return &model.ConflictOutcome{}, nil
		},
	}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/check", strings.NewReader(`{"resource_id":"room-a","start_time":"2027-04-12T10:00:00Z","end_time":"2027-04-12T11:00:00Z"}`))
	w := httptest.NewRecorder()

	h.CheckConflicts(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data model.ConflictOutcome `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data.Conflicts) != 0 {
		t.Errorf("expected no conflicts, got %d", len(response.Data.Conflicts))
	}
}

func TestAvailability_ParsesWindow(t *testing.T) {
	from := time.Date(2027, 4, 12, 9, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)

	var gotResource string
	var gotWindow interval.Span
	svc := &mockBookingService{
		availabilityFunc: func(ctx context.Context, resourceID string, window interval.Span) ([]interval.Span, error) {
			gotResource = resourceID
			gotWindow = window
			return []interval.Span{interval.New(from, to)}, nil
		},
	}
	h := newTestHandler(svc)

	url := "/api/v1/resources/room-a/availability?from=" + from.Format(time.RFC3339) + "&to=" + to.Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()

	h.Availability(w, req, httprouter.Params{{Key: "resourceID", Value: "room-a"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotResource != "room-a" {
		t.Errorf("expected room-a, got %q", gotResource)
	}
	if !gotWindow.Start.Equal(from) || !gotWindow.End.Equal(to) {
		t.Errorf("expected window [%v, %v), got %+v", from, to, gotWindow)
	}
}

func TestAvailability_MissingWindowAnswers400(t *testing.T) {
	h := newTestHandler(&mockBookingService{})

	tests := []struct {
		name string
		url  string
	}{
		{"missing both", "/api/v1/resources/room-a/availability"},
		{"missing to", "/api/v1/resources/room-a/availability?from=2027-04-12T09:00:00Z"},
		{"bad from", "/api/v1/resources/room-a/availability?from=yesterday&to=2027-04-12T17:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			h.Availability(w, req, httprouter.Params{{Key: "resourceID", Value: "room-a"}})

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestListOccurrences_Paginates(t *testing.T) {
	from := time.Date(2027, 4, 12, 9, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)

	occurrences := []model.Occurrence{
		{BookingID: "i1", StartTime: from, EndTime: from.Add(time.Hour)},
		{BookingID: "i2", StartTime: from.Add(2 * time.Hour), EndTime: from.Add(3 * time.Hour)},
		{BookingID: "i3", StartTime: from.Add(4 * time.Hour), EndTime: from.Add(5 * time.Hour)},
	}
	svc := &mockBookingService{
		listOccurrencesFunc: func(ctx context.Context, resourceID string, window interval.Span) ([]model.Occurrence, error) {
			return occurrences, nil
		},
	}
	h := newTestHandler(svc)

	url := "/api/v1/resources/room-a/occurrences?from=" + from.Format(time.RFC3339) +
		"&to=" + to.Format(time.RFC3339) + "&limit=2&offset=1"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()

	h.ListOccurrences(w, req, httprouter.Params{{Key: "resourceID", Value: "room-a"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Data       []model.Occurrence `json:"data"`
		TotalCount int64              `json:"total_count"`
		Limit      int                `json:"limit"`
		Offset     int64              `json:"offset"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.TotalCount != 3 {
		t.Errorf("expected total_count 3, got %d", response.TotalCount)
	}
	if len(response.Data) != 2 {
		t.Fatalf("expected 2 occurrences on the page, got %d", len(response.Data))
	}
	if response.Data[0].BookingID != "i2" || response.Data[1].BookingID != "i3" {
		t.Errorf("expected page [i2 i3], got [%s %s]", response.Data[0].BookingID, response.Data[1].BookingID)
	}
	if response.Limit != 2 || response.Offset != 1 {
		t.Errorf("expected limit=2 offset=1, got limit=%d offset=%d", response.Limit, response.Offset)
	}
}

func TestListOccurrences_OffsetPastEndAnswersEmptyPage(t *testing.T) {
	from := time.Date(2027, 4, 12, 9, 0, 0, 0, time.UTC)
	svc := &mockBookingService{
		listOccurrencesFunc: func(ctx context.Context, resourceID string, window interval.Span) ([]model.Occurrence, error) {
			return []model.Occurrence{{BookingID: "i1", StartTime: from, EndTime: from.Add(time.Hour)}}, nil
		},
	}
	h := newTestHandler(svc)

	url := "/api/v1/resources/room-a/occurrences?from=" + from.Format(time.RFC3339) +
		"&to=" + from.Add(8*time.Hour).Format(time.RFC3339) + "&limit=10&offset=5"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()

	h.ListOccurrences(w, req, httprouter.Params{{Key: "resourceID", Value: "room-a"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data       []model.Occurrence `json:"data"`
		TotalCount int64              `json:"total_count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data) != 0 {
		t.Errorf("expected empty page, got %d occurrences", len(response.Data))
	}
	if response.TotalCount != 1 {
		t.Errorf("expected total_count 1, got %d", response.TotalCount)
	}
}

func TestSuggest_ParsesDurationAndFrom(t *testing.T) {
	from := time.Date(2027, 4, 12, 9, 0, 0, 0, time.UTC)

	var gotDuration time.Duration
	var gotFrom time.Time
	var gotRule *model.RecurrenceRule
	var gotMaxSlots int
	svc := &mockBookingService{
		suggestFunc: func(ctx context.Context, resourceID string, duration time.Duration, f time.Time, rule *model.RecurrenceRule, maxSlots int) ([]model.Slot, error) {
			gotDuration = duration
			gotFrom = f
			gotRule = rule
			gotMaxSlots = maxSlots
			return []model.Slot{{StartTime: from, EndTime: from.Add(duration)}}, nil
		},
	}
	h := newTestHandler(svc)

	url := "/api/v1/resources/room-a/suggestions?duration=90m&from=" + from.Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()

	h.Suggest(w, req, httprouter.Params{{Key: "resourceID", Value: "room-a"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotDuration != 90*time.Minute {
		t.Errorf("expected 90m duration, got %v", gotDuration)
	}
	if !gotFrom.Equal(from) {
		t.Errorf("expected from %v, got %v", from, gotFrom)
	}
	if gotRule != nil {
		t.Errorf("expected no rule, got %+v", gotRule)
	}
	if gotMaxSlots != -1 {
		t.Errorf("expected default max slots marker -1, got %d", gotMaxSlots)
	}

	var response struct {
		Data []model.Slot `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data) != 1 {
		t.Errorf("expected 1 slot, got %d", len(response.Data))
	}
}

func TestSuggest_ParsesRuleAndMaxSlots(t *testing.T) {
	var gotRule *model.RecurrenceRule
	var gotMaxSlots int
	svc := &mockBookingService{
		suggestFunc: func(ctx context.Context, resourceID string, duration time.Duration, f time.Time, rule *model.RecurrenceRule, maxSlots int) ([]model.Slot, error) {
			gotRule = rule
			gotMaxSlots = maxSlots
			return nil, nil
		},
	}
	h := newTestHandler(svc)

	url := "/api/v1/resources/room-a/suggestions?duration=1h&rule=" + neturl.QueryEscape("FREQ=WEEKLY;INTERVAL=2") + "&max_slots=3"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()

	h.Suggest(w, req, httprouter.Params{{Key: "resourceID", Value: "room-a"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotRule == nil {
		t.Fatal("expected the rule to reach the service")
	}
	if gotRule.Frequency != model.FreqWeekly || gotRule.Interval != 2 {
		t.Errorf("expected biweekly rule, got %+v", gotRule)
	}
	if gotMaxSlots != 3 {
		t.Errorf("expected max slots 3, got %d", gotMaxSlots)
	}
}

func TestSuggest_BadParamsAnswer400(t *testing.T) {
	h := newTestHandler(&mockBookingService{})

	tests := []struct {
		name string
		url  string
	}{
		{"missing duration", "/api/v1/resources/room-a/suggestions"},
		{"bad rule", "/api/v1/resources/room-a/suggestions?duration=1h&rule=" + neturl.QueryEscape("FREQ=HOURLY")},
		{"negative max slots", "/api/v1/resources/room-a/suggestions?duration=1h&max_slots=-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			h.Suggest(w, req, httprouter.Params{{Key: "resourceID", Value: "room-a"}})

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

// Registering every route on one router panics if any pattern conflicts,
// so routing stays covered without a running server.
func TestRegisterRoutes_Resolves(t *testing.T) {
	h := newTestHandler(&mockBookingService{})
	router := httprouter.New()
	h.RegisterRoutes(router)

	tests := []struct {
		method string
		url    string
		body   string
	}{
		{http.MethodPost, "/api/v1/bookings", `{"resource_id":"r","start_time":"2027-04-12T10:00:00Z","end_time":"2027-04-12T11:00:00Z"}`},
		{http.MethodPost, "/api/v1/bookings/check", `{"resource_id":"r","start_time":"2027-04-12T10:00:00Z","end_time":"2027-04-12T11:00:00Z"}`},
		{http.MethodGet, "/api/v1/bookings/id/series-1", ""},
		{http.MethodDelete, "/api/v1/bookings/id/series-1", ""},
		{http.MethodPost, "/api/v1/bookings/id/series-1/occurrences/cancel", `{"date":"2027-04-12T10:00:00Z"}`},
		{http.MethodGet, "/api/v1/resources/room-a/availability?from=2027-04-12T09:00:00Z&to=2027-04-12T17:00:00Z", ""},
		{http.MethodGet, "/api/v1/resources/room-a/occurrences?from=2027-04-12T09:00:00Z&to=2027-04-12T17:00:00Z", ""},
		{http.MethodGet, "/api/v1/resources/room-a/suggestions?duration=1h", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.url, body)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code == http.StatusNotFound || w.Code == http.StatusMethodNotAllowed {
				t.Errorf("route not registered: got status %d", w.Code)
			}
		})
	}
}
