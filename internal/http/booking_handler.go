package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/application"
)

type bookingService interface {
	CommitBooking(ctx context.Context, params application.CommitBookingParams) (application.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
	GetBooking(ctx context.Context, bookingID string) (application.Booking, error)
}

// BookingHandler serves booking creation and cancellation.
type BookingHandler struct {
	service   bookingService
	responder responder
}

// NewBookingHandler wires the booking endpoints.
func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger)}
}

type bookingRequest struct {
	Start         time.Time `json:"start"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	HostID        string    `json:"host_id,omitempty"`
}

type bookingResponse struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	SlotID        string    `json:"slot_id"`
	HostID        string    `json:"host_id"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

// Create books a slot for the attendee.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	booking, err := h.service.CommitBooking(r.Context(), application.CommitBookingParams{
		EventID:       eventID,
		Start:         req.Start,
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: req.AttendeeEmail,
		HostID:        req.HostID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, renderBooking(booking))
}

// Get returns a booking by ID.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request, bookingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, renderBooking(booking))
}

// Cancel releases a booking's seat.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, bookingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.CancelBooking(r.Context(), bookingID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func renderBooking(booking application.Booking) bookingResponse {
	return bookingResponse{
		ID:            booking.ID,
		EventID:       booking.EventID,
		SlotID:        booking.SlotID,
		HostID:        booking.HostID,
		AttendeeName:  booking.AttendeeName,
		AttendeeEmail: booking.AttendeeEmail,
		Start:         booking.Start,
		End:           booking.End,
	}
}
