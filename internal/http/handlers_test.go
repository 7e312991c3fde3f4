package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/application"
)

type stubSlotService struct {
	slots []application.AvailableSlot
	err   error
	got   application.GetAvailableSlotsParams
}

func (s *stubSlotService) GetAvailableSlots(_ context.Context, params application.GetAvailableSlotsParams) ([]application.AvailableSlot, error) {
	s.got = params
	return s.slots, s.err
}

type stubBookingService struct {
	booking   application.Booking
	commitErr error
	cancelErr error
	getErr    error
	cancelled []string
}

func (s *stubBookingService) CommitBooking(_ context.Context, params application.CommitBookingParams) (application.Booking, error) {
	if s.commitErr != nil {
		return application.Booking{}, s.commitErr
	}
	booking := s.booking
	booking.EventID = params.EventID
	return booking, nil
}

func (s *stubBookingService) CancelBooking(_ context.Context, bookingID string) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.cancelled = append(s.cancelled, bookingID)
	return nil
}

func (s *stubBookingService) GetBooking(_ context.Context, _ string) (application.Booking, error) {
	return s.booking, s.getErr
}

type stubSyncService struct {
	report application.SyncReport
	err    error
}

func (s *stubSyncService) RefreshBusyIntervals(_ context.Context, _ time.Duration) (application.SyncReport, error) {
	return s.report, s.err
}

func newTestRouter(slots *stubSlotService, bookings *stubBookingService, syncs *stubSyncService) http.Handler {
	cfg := RouterConfig{}
	if slots != nil {
		cfg.Slots = NewSlotHandler(slots, nil)
	}
	if bookings != nil {
		cfg.Bookings = NewBookingHandler(bookings, nil)
	}
	if syncs != nil {
		cfg.Sync = NewSyncHandler(syncs, time.Hour, nil)
	}
	return NewRouter(cfg)
}

func TestListSlots(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	service := &stubSlotService{slots: []application.AvailableSlot{{Start: start, End: start.Add(30 * time.Minute)}}}
	router := newTestRouter(service, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/events/event-1/slots?from=2026-03-02T00:00:00Z&to=2026-03-03T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.got.EventID != "event-1" {
		t.Errorf("expected event-1 forwarded, got %q", service.got.EventID)
	}
	if service.got.From.IsZero() || service.got.To.IsZero() {
		t.Error("expected range bounds forwarded")
	}

	var payload slotListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Slots) != 1 || !payload.Slots[0].Start.Equal(start) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestListSlots_InvalidRange(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubSlotService{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/events/event-1/slots?from=tomorrow", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListSlots_UnknownEvent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubSlotService{err: application.ErrNotFound}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/events/missing/slots", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateBooking(t *testing.T) {
	t.Parallel()

	service := &stubBookingService{booking: application.Booking{ID: "booking-1", HostID: "host-a"}}
	router := newTestRouter(nil, service, nil)

	body := `{"start":"2026-03-02T14:00:00Z","attendee_name":"Guest","attendee_email":"guest@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/events/event-1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload bookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.ID != "booking-1" || payload.EventID != "event-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestCreateBooking_ConflictCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"slot filled", application.ErrSlotFilled, "SLOT_FILLED"},
		{"duplicate", application.ErrDuplicateBooking, "DUPLICATE_BOOKING"},
		{"no host", application.ErrNoHostAvailable, "NO_HOST_AVAILABLE"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(nil, &stubBookingService{commitErr: tc.err}, nil)
			body := `{"start":"2026-03-02T14:00:00Z","attendee_name":"Guest","attendee_email":"guest@example.com"}`
			req := httptest.NewRequest(http.MethodPost, "/events/event-1/bookings", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusConflict {
				t.Fatalf("expected 409, got %d", rec.Code)
			}
			var payload errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if payload.ErrorCode != tc.wantCode {
				t.Fatalf("expected error code %s, got %s", tc.wantCode, payload.ErrorCode)
			}
		})
	}
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	t.Parallel()

	vErr := &application.ValidationError{FieldErrors: map[string]string{"attendee_email": "email is required"}}
	router := newTestRouter(nil, &stubBookingService{commitErr: vErr}, nil)

	req := httptest.NewRequest(http.MethodPost, "/events/event-1/bookings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var payload errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Errors["attendee_email"] == "" {
		t.Fatalf("expected field errors, got %+v", payload)
	}
}

func TestCreateBooking_MalformedBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil, &stubBookingService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/events/event-1/bookings", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancelBooking(t *testing.T) {
	t.Parallel()

	service := &stubBookingService{}
	router := newTestRouter(nil, service, nil)

	req := httptest.NewRequest(http.MethodDelete, "/bookings/booking-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(service.cancelled) != 1 || service.cancelled[0] != "booking-1" {
		t.Fatalf("expected booking-1 cancelled, got %v", service.cancelled)
	}
}

func TestCancelBooking_NotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil, &stubBookingService{cancelErr: application.ErrNotFound}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/bookings/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSyncEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil, nil, &stubSyncService{report: application.SyncReport{Synced: 3, Skipped: 1}})
	req := httptest.NewRequest(http.MethodPost, "/sync/busy-intervals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload syncResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Synced != 3 || payload.Skipped != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubSlotService{}, &stubBookingService{}, nil)
	req := httptest.NewRequest(http.MethodPut, "/events/event-1/bookings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("expected Allow header listing POST, got %q", allow)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
