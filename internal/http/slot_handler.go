package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/application"
)

type slotService interface {
	GetAvailableSlots(ctx context.Context, params application.GetAvailableSlotsParams) ([]application.AvailableSlot, error)
}

// SlotHandler serves the attendee-facing slot listing.
type SlotHandler struct {
	service   slotService
	responder responder
}

// NewSlotHandler wires the slot listing endpoint.
func NewSlotHandler(service slotService, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{service: service, responder: newResponder(logger)}
}

type slotPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type slotListResponse struct {
	Slots []slotPayload `json:"slots"`
}

// List returns the event's open slots. from and to are optional RFC 3339
// bounds.
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := application.GetAvailableSlotsParams{EventID: eventID}

	query := r.URL.Query()
	for _, bound := range []struct {
		name   string
		target *time.Time
	}{
		{"from", &params.From},
		{"to", &params.To},
	} {
		raw := query.Get(bound.name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
			return
		}
		*bound.target = parsed
	}

	slots, err := h.service.GetAvailableSlots(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := slotListResponse{Slots: make([]slotPayload, 0, len(slots))}
	for _, slot := range slots {
		payload.Slots = append(payload.Slots, slotPayload{Start: slot.Start, End: slot.End})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}
