package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/application"
	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

type provisioningService interface {
	CreateHost(ctx context.Context, input application.CreateHostInput) (persistence.Host, error)
	ReplacePatterns(ctx context.Context, hostID string, inputs []application.PatternInput) error
	CreateEvent(ctx context.Context, input application.CreateEventInput) (persistence.Event, error)
	CreateHoliday(ctx context.Context, date, name string) error
	CreateWebinarSlot(ctx context.Context, eventID, hostID string, start, end time.Time, externalRef *string) (persistence.Slot, error)
	CancelWebinarSlot(ctx context.Context, slotID string) error
}

// AdminHandler serves the administrative setup endpoints.
type AdminHandler struct {
	service   provisioningService
	responder responder
}

// NewAdminHandler wires the administrative endpoints.
func NewAdminHandler(service provisioningService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: service, responder: newResponder(logger)}
}

type hostRequest struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Timezone          string  `json:"timezone"`
	CalendarRef       *string `json:"calendar_ref,omitempty"`
	MaxDailyMeetings  int     `json:"max_daily_meetings"`
	MaxWeeklyMeetings int     `json:"max_weekly_meetings"`
}

type hostResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

// CreateHost registers a new bookable host.
func (h *AdminHandler) CreateHost(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	host, err := h.service.CreateHost(r.Context(), application.CreateHostInput{
		Name:              req.Name,
		Email:             req.Email,
		Timezone:          req.Timezone,
		CalendarRef:       req.CalendarRef,
		MaxDailyMeetings:  req.MaxDailyMeetings,
		MaxWeeklyMeetings: req.MaxWeeklyMeetings,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, hostResponse{
		ID:       host.ID,
		Name:     host.Name,
		Email:    host.Email,
		Timezone: host.Timezone,
	})
}

type patternPayload struct {
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Timezone  string `json:"timezone"`
	Active    bool   `json:"active"`
}

type patternsRequest struct {
	Patterns []patternPayload `json:"patterns"`
}

// ReplacePatterns swaps a host's weekly availability.
func (h *AdminHandler) ReplacePatterns(w http.ResponseWriter, r *http.Request, hostID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req patternsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	inputs := make([]application.PatternInput, 0, len(req.Patterns))
	for _, p := range req.Patterns {
		inputs = append(inputs, application.PatternInput{
			Weekday:   p.Weekday,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
			Timezone:  p.Timezone,
			Active:    p.Active,
		})
	}

	if err := h.service.ReplacePatterns(r.Context(), hostID, inputs); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type eventRequest struct {
	Title               string             `json:"title"`
	Slug                string             `json:"slug"`
	MeetingType         string             `json:"meeting_type"`
	DurationMinutes     int                `json:"duration_minutes"`
	MaxAttendees        int                `json:"max_attendees"`
	BufferBeforeMinutes int                `json:"buffer_before_minutes"`
	BufferAfterMinutes  int                `json:"buffer_after_minutes"`
	IncrementMinutes    int                `json:"increment_minutes"`
	MinNoticeHours      int                `json:"min_notice_hours"`
	BookingWindowDays   int                `json:"booking_window_days"`
	MaxDailyBookings    int                `json:"max_daily_bookings"`
	MaxWeeklyBookings   int                `json:"max_weekly_bookings"`
	RoundRobinStrategy  string             `json:"round_robin_strategy"`
	CountingPeriod      string             `json:"counting_period"`
	Timezone            string             `json:"timezone"`
	Hosts               []eventHostPayload `json:"hosts"`
}

type eventHostPayload struct {
	HostID string `json:"host_id"`
	Role   string `json:"role"`
	Weight int    `json:"weight"`
}

type eventResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	MeetingType string `json:"meeting_type"`
}

// CreateEvent registers a new bookable event with its roster.
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	hosts := make([]application.EventHostInput, 0, len(req.Hosts))
	for _, member := range req.Hosts {
		weight := member.Weight
		if weight == 0 {
			weight = 1
		}
		hosts = append(hosts, application.EventHostInput{HostID: member.HostID, Role: member.Role, Weight: weight})
	}

	event, err := h.service.CreateEvent(r.Context(), application.CreateEventInput{
		Title:               req.Title,
		Slug:                req.Slug,
		MeetingType:         req.MeetingType,
		DurationMinutes:     req.DurationMinutes,
		MaxAttendees:        req.MaxAttendees,
		BufferBeforeMinutes: req.BufferBeforeMinutes,
		BufferAfterMinutes:  req.BufferAfterMinutes,
		IncrementMinutes:    req.IncrementMinutes,
		MinNoticeHours:      req.MinNoticeHours,
		BookingWindowDays:   req.BookingWindowDays,
		MaxDailyBookings:    req.MaxDailyBookings,
		MaxWeeklyBookings:   req.MaxWeeklyBookings,
		RoundRobinStrategy:  req.RoundRobinStrategy,
		CountingPeriod:      req.CountingPeriod,
		Timezone:            req.Timezone,
		Hosts:               hosts,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventResponse{
		ID:          event.ID,
		Slug:        event.Slug,
		MeetingType: event.MeetingType,
	})
}

type holidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// CreateHoliday registers a company-wide excluded date.
func (h *AdminHandler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.CreateHoliday(r.Context(), req.Date, req.Name); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, nil)
}

type webinarSlotRequest struct {
	HostID      string    `json:"host_id,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ExternalRef *string   `json:"external_ref,omitempty"`
}

type webinarSlotResponse struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CreateWebinarSlot materializes a bookable webinar slot.
func (h *AdminHandler) CreateWebinarSlot(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req webinarSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	slot, err := h.service.CreateWebinarSlot(r.Context(), eventID, req.HostID, req.Start, req.End, req.ExternalRef)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, webinarSlotResponse{
		ID:    slot.ID,
		Start: slot.Start,
		End:   slot.End,
	})
}

// CancelWebinarSlot removes a webinar slot from sale.
func (h *AdminHandler) CancelWebinarSlot(w http.ResponseWriter, r *http.Request, slotID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.CancelWebinarSlot(r.Context(), slotID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
