package integrationtests

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"resbook/pkg/client"
	"resbook/pkg/interval"
	"resbook/pkg/model"
	"resbook/test/common"
)

// --- Decode helpers ---

func decodeResult(t *testing.T, s *common.Suite, resp *client.Response) *model.BookingResult {
	t.Helper()
	result, err := s.Client.DecodeResult(resp)
	if err != nil {
		t.Fatalf("failed to decode booking result: %v", err)
	}
	return result
}

func decodeSeries(t *testing.T, s *common.Suite, resp *client.Response) (*model.BookingSeries, []*model.BookingInstance) {
	t.Helper()
	series, instances, err := s.Client.DecodeSeries(resp)
	if err != nil {
		t.Fatalf("failed to decode booking series: %v", err)
	}
	return series, instances
}

func decodeInstance(t *testing.T, s *common.Suite, resp *client.Response) *model.BookingInstance {
	t.Helper()
	instance, err := s.Client.DecodeInstance(resp)
	if err != nil {
		t.Fatalf("failed to decode booking instance: %v", err)
	}
	return instance
}

func decodeOutcome(t *testing.T, s *common.Suite, resp *client.Response) *model.ConflictOutcome {
	t.Helper()
	outcome, err := s.Client.DecodeOutcome(resp)
	if err != nil {
		t.Fatalf("failed to decode conflict outcome: %v", err)
	}
	return outcome
}

func decodeSpans(t *testing.T, s *common.Suite, resp *client.Response) []interval.Span {
	t.Helper()
	spans, err := s.Client.DecodeSpans(resp)
	if err != nil {
		t.Fatalf("failed to decode availability spans: %v", err)
	}
	return spans
}

func decodeSlots(t *testing.T, s *common.Suite, resp *client.Response) []model.Slot {
	t.Helper()
	slots, err := s.Client.DecodeSlots(resp)
	if err != nil {
		t.Fatalf("failed to decode slot suggestions: %v", err)
	}
	return slots
}

func decodeOccurrences(t *testing.T, s *common.Suite, resp *client.Response) ([]model.Occurrence, *client.Metadata) {
	t.Helper()
	occurrences, meta, err := s.Client.DecodeOccurrences(resp)
	if err != nil {
		t.Fatalf("failed to decode occurrences: %v", err)
	}
	return occurrences, meta
}

// --- Create ---

func TestCreateSingleBooking(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()
	end := start.Add(time.Hour)

	resp, err := s.Client.Create(common.SingleBookingPayload("room-a", start, end))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	common.AssertStatusCode(t, resp, 201)

	result := decodeResult(t, s, resp)
	if !result.Booked() {
		t.Fatal("expected a committed booking, got a conflict outcome")
	}
	if result.Series == nil || result.Series.ID == "" {
		t.Fatal("expected series ID to be set")
	}
	if result.Series.ResourceID != "room-a" {
		t.Errorf("expected resource_id 'room-a', got %q", result.Series.ResourceID)
	}
	if len(result.Instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(result.Instances))
	}
	inst := result.Instances[0]
	if !inst.StartTime.Equal(start) || !inst.EndTime.Equal(end) {
		t.Errorf("expected instance span [%v, %v), got [%v, %v)", start, end, inst.StartTime, inst.EndTime)
	}
	if inst.SeriesID != result.Series.ID {
		t.Errorf("expected instance series_id %s, got %s", result.Series.ID, inst.SeriesID)
	}
}

func TestCreateBackToBackBookings(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	first, err := s.Client.Create(common.SingleBookingPayload("room-a", start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create first booking: %v", err)
	}
	common.AssertStatusCode(t, first, 201)

	// A booking starting exactly where the previous one ends is not a
	// conflict.
	second, err := s.Client.Create(common.SingleBookingPayload("room-a", start.Add(time.Hour), start.Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("create second booking: %v", err)
	}
	common.AssertStatusCode(t, second, 201)
}

func TestCreateConflictAnswersOutcomeWithSuggestions(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	first, err := s.Client.Create(common.SingleBookingPayload("room-a", start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create first booking: %v", err)
	}
	common.AssertStatusCode(t, first, 201)
	winner := decodeResult(t, s, first)

	resp, err := s.Client.Create(common.SingleBookingPayload("room-a", start.Add(30*time.Minute), start.Add(90*time.Minute)))
	if err != nil {
		t.Fatalf("create overlapping booking: %v", err)
	}
	common.AssertStatusCode(t, resp, 409)

	result := decodeResult(t, s, resp)
	if result.Booked() {
		t.Fatal("expected a conflict outcome")
	}
	if result.Series != nil {
		t.Error("a conflict answer must not carry a committed series")
	}
	if len(result.Conflict.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflict.Conflicts))
	}
	if got := result.Conflict.Conflicts[0].SeriesID; got != winner.Series.ID {
		t.Errorf("expected conflict with series %s, got %s", winner.Series.ID, got)
	}
	if len(result.Conflict.Suggestions) == 0 {
		t.Fatal("expected alternative slot suggestions")
	}
	for i, slot := range result.Conflict.Suggestions {
		if got := slot.EndTime.Sub(slot.StartTime); got != time.Hour {
			t.Errorf("suggestion %d: expected a 1h slot, got %s", i, got)
		}
		if slot.Token == "" {
			t.Errorf("suggestion %d: expected a sealed token", i)
		}
	}
}

func TestCreateWithSuggestedSlotToken(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	first, err := s.Client.Create(common.SingleBookingPayload("room-a", start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create first booking: %v", err)
	}
	common.AssertStatusCode(t, first, 201)

	blocked, err := s.Client.Create(common.SingleBookingPayload("room-a", start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create blocked booking: %v", err)
	}
	common.AssertStatusCode(t, blocked, 409)
	outcome := decodeResult(t, s, blocked)
	if len(outcome.Conflict.Suggestions) == 0 {
		t.Fatal("expected suggestions on the conflict outcome")
	}
	pick := outcome.Conflict.Suggestions[0]

	payload := common.SingleBookingPayload("room-a", pick.StartTime, pick.EndTime)
	payload["slot_token"] = pick.Token
	retry, err := s.Client.Create(payload)
	if err != nil {
		t.Fatalf("create with slot token: %v", err)
	}
	common.AssertStatusCode(t, retry, 201)
	result := decodeResult(t, s, retry)
	if len(result.Instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(result.Instances))
	}
	if !result.Instances[0].StartTime.Equal(pick.StartTime) {
		t.Errorf("expected booking at %v, got %v", pick.StartTime, result.Instances[0].StartTime)
	}

	tampered := common.SingleBookingPayload("room-a", pick.StartTime, pick.EndTime)
	tampered["slot_token"] = pick.Token + "tampered"
	bad, err := s.Client.Create(tampered)
	if err != nil {
		t.Fatalf("create with tampered token: %v", err)
	}
	common.AssertStatusCode(t, bad, 400)
}

func TestCreateFiniteRecurringMaterializesInstances(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	resp, err := s.Client.Create(common.RecurringBookingPayload("room-b", start, start.Add(time.Hour), "DAILY", 3))
	if err != nil {
		t.Fatalf("create recurring booking: %v", err)
	}
	common.AssertStatusCode(t, resp, 201)

	result := decodeResult(t, s, resp)
	if result.Series.Recurrence == nil {
		t.Fatal("expected the series to keep its recurrence rule")
	}
	if len(result.Instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(result.Instances))
	}
	for i, inst := range result.Instances {
		want := start.Add(time.Duration(i) * 24 * time.Hour)
		if !inst.StartTime.Equal(want) {
			t.Errorf("instance %d: expected start %v, got %v", i, want, inst.StartTime)
		}
		if got := inst.EndTime.Sub(inst.StartTime); got != time.Hour {
			t.Errorf("instance %d: expected 1h duration, got %s", i, got)
		}
	}
}

func TestCreateUnboundedSeriesPersistsNoInstances(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	resp, err := s.Client.Create(common.UnboundedBookingPayload("room-b", start, start.Add(time.Hour), "WEEKLY"))
	if err != nil {
		t.Fatalf("create unbounded booking: %v", err)
	}
	common.AssertStatusCode(t, resp, 201)
	result := decodeResult(t, s, resp)
	if len(result.Instances) != 0 {
		t.Errorf("expected no materialized instances, got %d", len(result.Instances))
	}

	fetched, err := s.Client.GetSeries(result.Series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	common.AssertStatusCode(t, fetched, 200)
	series, instances := decodeSeries(t, s, fetched)
	if series.Recurrence == nil || !series.Recurrence.IsUnbounded() {
		t.Error("expected an unbounded recurrence rule on the stored series")
	}
	if len(instances) != 0 {
		t.Errorf("expected no instance rows, got %d", len(instances))
	}
}

func TestCreateValidationErrors(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{
			name: "missing resource id",
			payload: map[string]any{
				"start_time": start.Format(time.RFC3339),
				"end_time":   start.Add(time.Hour).Format(time.RFC3339),
			},
		},
		{
			name:    "end before start",
			payload: common.SingleBookingPayload("room-a", start, start.Add(-time.Hour)),
		},
		{
			name:    "end equals start",
			payload: common.SingleBookingPayload("room-a", start, start),
		},
		{
			name:    "start in the past",
			payload: common.SingleBookingPayload("room-a", time.Now().UTC().Add(-2*time.Hour), time.Now().UTC().Add(-time.Hour)),
		},
		{
			name:    "unknown frequency",
			payload: common.RecurringBookingPayload("room-a", start, start.Add(time.Hour), "HOURLY", 3),
		},
		{
			name:    "daily occurrences longer than a day",
			payload: common.RecurringBookingPayload("room-a", start, start.Add(25*time.Hour), "DAILY", 3),
		},
		{
			name:    "recurrence that never occurs",
			payload: common.RecurringBookingPayload("room-a", start, start.Add(time.Hour), "DAILY", 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Client.Create(tt.payload)
			if err != nil {
				t.Fatalf("create booking: %v", err)
			}
			common.AssertStatusCode(t, resp, 422)
		})
	}
}

func TestCreateMalformedJSON(t *testing.T) {
	s := common.NewSuite(t)

	resp, err := s.Client.CreateRaw([]byte(`{"resource_id": "room-a", "start_time": `))
	if err != nil {
		t.Fatalf("create with malformed body: %v", err)
	}
	common.AssertStatusCode(t, resp, 400)
}

func TestCreateMonthEndSkipsShortMonths(t *testing.T) {
	s := common.NewSuite(t)

	// A monthly series anchored on the 31st has no occurrence in months
	// without a 31st day.
	start := time.Date(time.Now().Year()+1, time.January, 31, 10, 0, 0, 0, time.UTC)
	resp, err := s.Client.Create(common.RecurringBookingPayload("room-b", start, start.Add(time.Hour), "MONTHLY", 4))
	if err != nil {
		t.Fatalf("create monthly booking: %v", err)
	}
	common.AssertStatusCode(t, resp, 201)

	result := decodeResult(t, s, resp)
	if len(result.Instances) != 4 {
		t.Fatalf("expected 4 instances, got %d", len(result.Instances))
	}
	wantMonths := []time.Month{time.January, time.March, time.May, time.July}
	for i, inst := range result.Instances {
		st := inst.StartTime.UTC()
		if st.Month() != wantMonths[i] || st.Day() != 31 {
			t.Errorf("instance %d: expected %s 31, got %s %d", i, wantMonths[i], st.Month(), st.Day())
		}
	}
}

func TestCreateIdempotentReplay(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()
	payload := common.SingleBookingPayload("room-a", start, start.Add(time.Hour))

	first, err := s.Client.CreateWithIdempotencyKey(payload, "booking-replay-key")
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	common.AssertStatusCode(t, first, 201)

	second, err := s.Client.CreateWithIdempotencyKey(payload, "booking-replay-key")
	if err != nil {
		t.Fatalf("replay booking: %v", err)
	}
	common.AssertStatusCode(t, second, 201)

	a := decodeResult(t, s, first)
	b := decodeResult(t, s, second)
	if a.Series.ID != b.Series.ID {
		t.Errorf("expected the replay to answer series %s, got %s", a.Series.ID, b.Series.ID)
	}

	// The replay must not have written a second series into the slot.
	fresh, err := s.Client.Create(payload)
	if err != nil {
		t.Fatalf("create without key: %v", err)
	}
	common.AssertStatusCode(t, fresh, 409)
	result := decodeResult(t, s, fresh)
	if len(result.Conflict.Conflicts) != 1 {
		t.Errorf("expected 1 stored booking after the replay, got %d conflicts", len(result.Conflict.Conflicts))
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()
	payload := common.SingleBookingPayload("room-a", start, start.Add(time.Hour))

	const attempts = 6
	statuses := make([]int, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			resp, err := s.Client.Create(payload)
			if err != nil {
				errs[index] = err
				return
			}
			statuses[index] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	winners, losers := 0, 0
	for i, status := range statuses {
		switch status {
		case 201:
			winners++
		case 409:
			losers++
		default:
			t.Errorf("attempt %d: unexpected status %d", i, status)
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
	if losers != attempts-1 {
		t.Errorf("expected %d conflict answers, got %d", attempts-1, losers)
	}
}

// --- Conflict preview ---

func TestCheckConflictsDoesNotPersist(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()
	payload := common.SingleBookingPayload("room-a", start, start.Add(time.Hour))

	check, err := s.Client.CheckConflicts(payload)
	if err != nil {
		t.Fatalf("check conflicts: %v", err)
	}
	common.AssertStatusCode(t, check, 200)
	outcome := decodeOutcome(t, s, check)
	if len(outcome.Conflicts) != 0 {
		t.Fatalf("expected a free slot, got %d conflicts", len(outcome.Conflicts))
	}

	// The preview wrote nothing, so the same request still books.
	created, err := s.Client.Create(payload)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)

	recheck, err := s.Client.CheckConflicts(payload)
	if err != nil {
		t.Fatalf("recheck conflicts: %v", err)
	}
	common.AssertStatusCode(t, recheck, 200)
	outcome = decodeOutcome(t, s, recheck)
	if len(outcome.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(outcome.Conflicts))
	}
	if len(outcome.Suggestions) == 0 {
		t.Error("expected suggestions alongside the conflicts")
	}
}

// --- Get and delete ---

func TestGetSeriesNotFound(t *testing.T) {
	s := common.NewSuite(t)

	resp, err := s.Client.GetSeries("no-such-series")
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	common.AssertStatusCode(t, resp, 404)

	del, err := s.Client.DeleteSeries("no-such-series")
	if err != nil {
		t.Fatalf("delete series: %v", err)
	}
	common.AssertStatusCode(t, del, 404)
}

func TestGetSeriesReturnsInstances(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	created, err := s.Client.Create(common.RecurringBookingPayload("room-b", start, start.Add(time.Hour), "DAILY", 2))
	if err != nil {
		t.Fatalf("create recurring booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)
	result := decodeResult(t, s, created)

	resp, err := s.Client.GetSeries(result.Series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	common.AssertStatusCode(t, resp, 200)
	series, instances := decodeSeries(t, s, resp)
	if series.ID != result.Series.ID {
		t.Errorf("expected series %s, got %s", result.Series.ID, series.ID)
	}
	if len(instances) != 2 {
		t.Errorf("expected 2 instance rows, got %d", len(instances))
	}
}

func TestDeleteSeriesFreesItsSlots(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()
	payload := common.SingleBookingPayload("room-a", start, start.Add(time.Hour))

	created, err := s.Client.Create(payload)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)
	result := decodeResult(t, s, created)

	del, err := s.Client.DeleteSeries(result.Series.ID)
	if err != nil {
		t.Fatalf("delete series: %v", err)
	}
	common.AssertStatusCode(t, del, 204)

	gone, err := s.Client.GetSeries(result.Series.ID)
	if err != nil {
		t.Fatalf("get deleted series: %v", err)
	}
	common.AssertStatusCode(t, gone, 404)

	again, err := s.Client.DeleteSeries(result.Series.ID)
	if err != nil {
		t.Fatalf("delete series twice: %v", err)
	}
	common.AssertStatusCode(t, again, 404)

	rebook, err := s.Client.Create(payload)
	if err != nil {
		t.Fatalf("rebook freed slot: %v", err)
	}
	common.AssertStatusCode(t, rebook, 201)
}

// --- Occurrence cancellation ---

func TestCancelOccurrenceFreesItsSlot(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	created, err := s.Client.Create(common.RecurringBookingPayload("room-c", start, start.Add(time.Hour), "DAILY", 2))
	if err != nil {
		t.Fatalf("create recurring booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)
	result := decodeResult(t, s, created)

	cancel, err := s.Client.CancelOccurrence(result.Series.ID, start)
	if err != nil {
		t.Fatalf("cancel occurrence: %v", err)
	}
	common.AssertStatusCode(t, cancel, 200)
	instance := decodeInstance(t, s, cancel)
	if !instance.IsException {
		t.Fatal("expected the cancelled instance to be flagged as an exception")
	}
	if !instance.StartTime.Equal(start) {
		t.Errorf("expected cancelled start %v, got %v", start, instance.StartTime)
	}

	// Cancelling the same occurrence again answers the existing record.
	repeat, err := s.Client.CancelOccurrence(result.Series.ID, start)
	if err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	common.AssertStatusCode(t, repeat, 200)
	replayed := decodeInstance(t, s, repeat)
	if replayed.ID != instance.ID {
		t.Errorf("expected the same exception record, got %s and %s", instance.ID, replayed.ID)
	}

	// Two daily occurrences exist; the third day holds none.
	missing, err := s.Client.CancelOccurrence(result.Series.ID, start.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("cancel non-occurrence: %v", err)
	}
	common.AssertStatusCode(t, missing, 404)

	// The freed slot books again; the surviving occurrence still blocks.
	rebook, err := s.Client.Create(common.SingleBookingPayload("room-c", start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("rebook cancelled slot: %v", err)
	}
	common.AssertStatusCode(t, rebook, 201)

	blocked, err := s.Client.Create(common.SingleBookingPayload("room-c", start.Add(24*time.Hour), start.Add(25*time.Hour)))
	if err != nil {
		t.Fatalf("book surviving occurrence slot: %v", err)
	}
	common.AssertStatusCode(t, blocked, 409)
}

func TestCancelUnboundedOccurrenceSynthesizesException(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	created, err := s.Client.Create(common.UnboundedBookingPayload("room-d", start, start.Add(time.Hour), "WEEKLY"))
	if err != nil {
		t.Fatalf("create unbounded booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)
	result := decodeResult(t, s, created)

	second := start.Add(7 * 24 * time.Hour)
	cancel, err := s.Client.CancelOccurrence(result.Series.ID, second)
	if err != nil {
		t.Fatalf("cancel projected occurrence: %v", err)
	}
	common.AssertStatusCode(t, cancel, 200)
	tomb := decodeInstance(t, s, cancel)
	if !tomb.IsException {
		t.Fatal("expected a synthesized exception instance")
	}
	if tomb.SeriesID != result.Series.ID {
		t.Errorf("expected exception on series %s, got %s", result.Series.ID, tomb.SeriesID)
	}

	list, err := s.Client.ListOccurrences("room-d", start, start.Add(28*24*time.Hour), 10, 0)
	if err != nil {
		t.Fatalf("list occurrences: %v", err)
	}
	common.AssertStatusCode(t, list, 200)
	occurrences, meta := decodeOccurrences(t, s, list)
	if meta.TotalCount != 3 {
		t.Errorf("expected 3 occurrences in the window, got %d", meta.TotalCount)
	}
	wantStarts := []time.Time{start, start.Add(14 * 24 * time.Hour), start.Add(21 * 24 * time.Hour)}
	if len(occurrences) != len(wantStarts) {
		t.Fatalf("expected %d occurrences, got %d", len(wantStarts), len(occurrences))
	}
	for i, occ := range occurrences {
		if !occ.StartTime.Equal(wantStarts[i]) {
			t.Errorf("occurrence %d: expected start %v, got %v", i, wantStarts[i], occ.StartTime)
		}
		if !occ.Projected {
			t.Errorf("occurrence %d: expected a projected occurrence", i)
		}
	}

	// A weekly series holds nothing three days in.
	notOccurrence, err := s.Client.CancelOccurrence(result.Series.ID, start.Add(3*24*time.Hour))
	if err != nil {
		t.Fatalf("cancel non-occurrence: %v", err)
	}
	common.AssertStatusCode(t, notOccurrence, 404)
}

// --- Availability, suggestions and occurrence listing ---

func TestAvailabilityReturnsGaps(t *testing.T) {
	s := common.NewSuite(t)
	base := common.FutureHour()

	busy := [][2]time.Time{
		{base.Add(time.Hour), base.Add(2 * time.Hour)},
		{base.Add(4 * time.Hour), base.Add(5 * time.Hour)},
	}
	for _, span := range busy {
		resp, err := s.Client.Create(common.SingleBookingPayload("room-e", span[0], span[1]))
		if err != nil {
			t.Fatalf("create booking: %v", err)
		}
		common.AssertStatusCode(t, resp, 201)
	}

	resp, err := s.Client.Availability("room-e", base, base.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	common.AssertStatusCode(t, resp, 200)
	spans := decodeSpans(t, s, resp)

	want := []interval.Span{
		interval.New(base, base.Add(time.Hour)),
		interval.New(base.Add(2*time.Hour), base.Add(4*time.Hour)),
		interval.New(base.Add(5*time.Hour), base.Add(8*time.Hour)),
	}
	if len(spans) != len(want) {
		t.Fatalf("expected %d free spans, got %d", len(want), len(spans))
	}
	for i := range want {
		if !spans[i].Start.Equal(want[i].Start) || !spans[i].End.Equal(want[i].End) {
			t.Errorf("span %d: expected [%v, %v), got [%v, %v)",
				i, want[i].Start, want[i].End, spans[i].Start, spans[i].End)
		}
	}
}

func TestSuggestStepsOverBusySlot(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	created, err := s.Client.Create(common.SingleBookingPayload("room-f", start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)

	resp, err := s.Client.Suggest("room-f", time.Hour, start)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	common.AssertStatusCode(t, resp, 200)
	slots := decodeSlots(t, s, resp)
	if len(slots) != 1 {
		t.Fatalf("expected the first free slot alone, got %d", len(slots))
	}
	slot := slots[0]
	if !slot.StartTime.Equal(start.Add(time.Hour)) {
		t.Errorf("expected start %v, got %v", start.Add(time.Hour), slot.StartTime)
	}
	if got := slot.EndTime.Sub(slot.StartTime); got != time.Hour {
		t.Errorf("expected a 1h slot, got %s", got)
	}
	if slot.Token == "" {
		t.Error("expected a sealed token")
	}
}

func TestSuggestFollowsRecurringCadence(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	// Day two is taken, so the daily cadence skips it.
	created, err := s.Client.Create(common.SingleBookingPayload("room-f2", start.Add(24*time.Hour), start.Add(25*time.Hour)))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)

	resp, err := s.Client.SuggestRecurring("room-f2", time.Hour, start, "FREQ=DAILY", 3)
	if err != nil {
		t.Fatalf("suggest recurring: %v", err)
	}
	common.AssertStatusCode(t, resp, 200)
	slots := decodeSlots(t, s, resp)
	if len(slots) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(slots))
	}
	wantStarts := []time.Time{start, start.Add(2 * 24 * time.Hour), start.Add(3 * 24 * time.Hour)}
	for i, slot := range slots {
		if !slot.StartTime.Equal(wantStarts[i]) {
			t.Errorf("slot %d: expected start %v, got %v", i, wantStarts[i], slot.StartTime)
		}
		if slot.Token == "" {
			t.Errorf("slot %d: expected a sealed token", i)
		}
	}
}

func TestListOccurrencesPaginatesWindow(t *testing.T) {
	s := common.NewSuite(t)
	start := common.FutureHour()

	created, err := s.Client.Create(common.RecurringBookingPayload("room-g", start, start.Add(time.Hour), "DAILY", 5))
	if err != nil {
		t.Fatalf("create recurring booking: %v", err)
	}
	common.AssertStatusCode(t, created, 201)

	from, to := start, start.Add(5*24*time.Hour)

	first, err := s.Client.ListOccurrences("room-g", from, to, 2, 0)
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	common.AssertStatusCode(t, first, 200)
	page, meta := decodeOccurrences(t, s, first)
	if meta.TotalCount != 5 {
		t.Errorf("expected total_count 5, got %d", meta.TotalCount)
	}
	if meta.Limit != 2 || meta.Offset != 0 {
		t.Errorf("expected limit 2 offset 0, got limit %d offset %d", meta.Limit, meta.Offset)
	}
	if len(page) != 2 {
		t.Fatalf("expected a page of 2, got %d", len(page))
	}
	if !page[0].StartTime.Equal(start) || !page[1].StartTime.Equal(start.Add(24*time.Hour)) {
		t.Errorf("expected the first two occurrences, got %v and %v", page[0].StartTime, page[1].StartTime)
	}

	last, err := s.Client.ListOccurrences("room-g", from, to, 2, 4)
	if err != nil {
		t.Fatalf("list last page: %v", err)
	}
	common.AssertStatusCode(t, last, 200)
	page, meta = decodeOccurrences(t, s, last)
	if meta.TotalCount != 5 {
		t.Errorf("expected total_count 5, got %d", meta.TotalCount)
	}
	if len(page) != 1 {
		t.Fatalf("expected a final page of 1, got %d", len(page))
	}
	if !page[0].StartTime.Equal(start.Add(4 * 24 * time.Hour)) {
		t.Errorf("expected the last occurrence, got %v", page[0].StartTime)
	}
}

// --- Health ---

func TestHealthEndpoints(t *testing.T) {
	s := common.NewSuite(t)

	if err := s.Client.WaitForHealthy(2 * time.Second); err != nil {
		t.Fatalf("service never became healthy: %v", err)
	}

	resp, err := http.Get(s.Server.URL + "/ready")
	if err != nil {
		t.Fatalf("ready check: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode ready response: %v", err)
	}
	if body.Status != "ready" {
		t.Errorf("expected status 'ready', got %q", body.Status)
	}
}
