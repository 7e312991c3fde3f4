package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/application"
)

type syncService interface {
	RefreshBusyIntervals(ctx context.Context, horizon time.Duration) (application.SyncReport, error)
}

// SyncHandler exposes an on-demand busy-interval refresh.
type SyncHandler struct {
	service   syncService
	horizon   time.Duration
	responder responder
}

// NewSyncHandler wires the sync endpoint. horizon bounds how far ahead busy
// time is pulled.
func NewSyncHandler(service syncService, horizon time.Duration, logger *slog.Logger) *SyncHandler {
	if horizon <= 0 {
		horizon = 60 * 24 * time.Hour
	}
	return &SyncHandler{service: service, horizon: horizon, responder: newResponder(logger)}
}

type syncResponse struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Refresh triggers a sync pass across all connected hosts.
func (h *SyncHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	report, err := h.service.RefreshBusyIntervals(r.Context(), h.horizon)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, syncResponse{
		Synced:  report.Synced,
		Skipped: report.Skipped,
		Failed:  report.Failed,
	})
}
