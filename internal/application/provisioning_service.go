package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// HostStore exposes host writes.
type HostStore interface {
	CreateHost(ctx context.Context, host persistence.Host) error
	UpdateHost(ctx context.Context, host persistence.Host) error
	GetHost(ctx context.Context, id string) (persistence.Host, error)
}

// PatternStore exposes availability pattern writes.
type PatternStore interface {
	ReplacePatternsForHost(ctx context.Context, hostID string, patterns []persistence.AvailabilityPattern) error
}

// EventStore exposes event writes.
type EventStore interface {
	CreateEvent(ctx context.Context, event persistence.Event, hosts []persistence.EventHost) error
}

// HolidayStore exposes holiday writes.
type HolidayStore interface {
	CreateHoliday(ctx context.Context, holiday persistence.Holiday) error
}

// WebinarSlotStore exposes materialized slot administration.
type WebinarSlotStore interface {
	CreateSlot(ctx context.Context, slot persistence.Slot) error
	CancelSlot(ctx context.Context, id string, at time.Time) error
}

// ProvisioningService covers the administrative setup surface: hosts, their
// weekly patterns, event definitions, holidays, and webinar slots.
type ProvisioningService struct {
	hosts       HostStore
	patterns    PatternStore
	events      EventStore
	holidays    HolidayStore
	slots       WebinarSlotStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewProvisioningService wires dependencies for administrative operations.
func NewProvisioningService(hosts HostStore, patterns PatternStore, events EventStore, holidays HolidayStore, slots WebinarSlotStore, idGenerator func() string, now func() time.Time) *ProvisioningService {
	return NewProvisioningServiceWithLogger(hosts, patterns, events, holidays, slots, idGenerator, now, nil)
}

// NewProvisioningServiceWithLogger wires dependencies along with a base logger.
func NewProvisioningServiceWithLogger(hosts HostStore, patterns PatternStore, events EventStore, holidays HolidayStore, slots WebinarSlotStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProvisioningService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ProvisioningService{
		hosts:       hosts,
		patterns:    patterns,
		events:      events,
		holidays:    holidays,
		slots:       slots,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateHostInput carries a new host's attributes.
type CreateHostInput struct {
	Name              string
	Email             string
	Timezone          string
	CalendarRef       *string
	MaxDailyMeetings  int
	MaxWeeklyMeetings int
}

// CreateHost validates and stores a new host, returning its record.
func (s *ProvisioningService) CreateHost(ctx context.Context, input CreateHostInput) (persistence.Host, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email is required")
	}
	if err := validateTimezone(input.Timezone); err != nil {
		vErr.add("timezone", "timezone is invalid")
	}
	if input.MaxDailyMeetings < 0 || input.MaxWeeklyMeetings < 0 {
		vErr.add("meeting_caps", "caps must not be negative")
	}
	if vErr.HasErrors() {
		return persistence.Host{}, vErr
	}

	now := s.now()
	host := persistence.Host{
		ID:                s.idGenerator(),
		Name:              strings.TrimSpace(input.Name),
		Email:             email,
		Timezone:          input.Timezone,
		CalendarRef:       input.CalendarRef,
		MaxDailyMeetings:  input.MaxDailyMeetings,
		MaxWeeklyMeetings: input.MaxWeeklyMeetings,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.hosts.CreateHost(ctx, host); err != nil {
		return persistence.Host{}, err
	}

	serviceLogger(ctx, s.logger, "provisioning", "create_host").InfoContext(ctx, "host created", "host_id", host.ID)
	return host, nil
}

// PatternInput is one weekly window in a host's availability.
type PatternInput struct {
	Weekday   int
	StartTime string
	EndTime   string
	Timezone  string
	Active    bool
}

// ReplacePatterns swaps the host's full weekly availability in one shot.
func (s *ProvisioningService) ReplacePatterns(ctx context.Context, hostID string, inputs []PatternInput) error {
	if _, err := s.hosts.GetHost(ctx, hostID); err != nil {
		return mapNotFound(err)
	}

	vErr := &ValidationError{}
	now := s.now()
	patterns := make([]persistence.AvailabilityPattern, 0, len(inputs))
	for i, input := range inputs {
		if input.Weekday < 0 || input.Weekday > 6 {
			vErr.add("weekday", "weekday must be between 0 and 6")
		}
		startMin, startErr := clockMinutes(input.StartTime)
		endMin, endErr := clockMinutes(input.EndTime)
		if startErr != nil || endErr != nil {
			vErr.add("time", "times must use the HH:MM form")
		} else if endMin <= startMin {
			vErr.add("time", "end time must be after start time")
		}
		if err := validateTimezone(input.Timezone); err != nil {
			vErr.add("timezone", "timezone is invalid")
		}
		if vErr.HasErrors() {
			return vErr
		}

		patterns = append(patterns, persistence.AvailabilityPattern{
			ID:        s.idGenerator(),
			HostID:    hostID,
			Weekday:   input.Weekday,
			StartTime: input.StartTime,
			EndTime:   input.EndTime,
			Timezone:  input.Timezone,
			Active:    input.Active,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now,
		})
	}

	if err := s.patterns.ReplacePatternsForHost(ctx, hostID, patterns); err != nil {
		return err
	}
	serviceLogger(ctx, s.logger, "provisioning", "replace_patterns").InfoContext(ctx, "patterns replaced", "host_id", hostID, "count", len(patterns))
	return nil
}

// CreateEventInput carries a new event's definition.
type CreateEventInput struct {
	Title               string
	Slug                string
	MeetingType         string
	DurationMinutes     int
	MaxAttendees        int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	IncrementMinutes    int
	MinNoticeHours      int
	BookingWindowDays   int
	MaxDailyBookings    int
	MaxWeeklyBookings   int
	RoundRobinStrategy  string
	CountingPeriod      string
	Timezone            string
	Hosts               []EventHostInput
}

// EventHostInput is one roster entry on a new event.
type EventHostInput struct {
	HostID string
	Role   string
	Weight int
}

// CreateEvent validates and stores a new event with its roster.
func (s *ProvisioningService) CreateEvent(ctx context.Context, input CreateEventInput) (persistence.Event, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(input.Slug) == "" {
		vErr.add("slug", "slug is required")
	}
	if !validMeetingType(input.MeetingType) {
		vErr.add("meeting_type", "meeting type is not supported")
	}
	if input.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if input.MaxAttendees <= 0 {
		vErr.add("max_attendees", "capacity must be positive")
	}
	if input.MeetingType == MeetingTypeOneOnOne && input.MaxAttendees != 1 {
		vErr.add("max_attendees", "one-on-one events hold exactly one attendee")
	}
	if err := validateTimezone(input.Timezone); err != nil {
		vErr.add("timezone", "timezone is invalid")
	}
	if len(input.Hosts) == 0 && input.MeetingType != MeetingTypeWebinar {
		vErr.add("hosts", "at least one host is required")
	}
	for _, h := range input.Hosts {
		if h.Weight < 1 || h.Weight > 10 {
			vErr.add("hosts", "host weight must be between 1 and 10")
		}
	}
	if vErr.HasErrors() {
		return persistence.Event{}, vErr
	}

	now := s.now()
	event := persistence.Event{
		ID:                  s.idGenerator(),
		Title:               strings.TrimSpace(input.Title),
		Slug:                strings.TrimSpace(input.Slug),
		MeetingType:         input.MeetingType,
		DurationMinutes:     input.DurationMinutes,
		MaxAttendees:        input.MaxAttendees,
		BufferBeforeMinutes: input.BufferBeforeMinutes,
		BufferAfterMinutes:  input.BufferAfterMinutes,
		IncrementMinutes:    input.IncrementMinutes,
		MinNoticeHours:      input.MinNoticeHours,
		BookingWindowDays:   input.BookingWindowDays,
		MaxDailyBookings:    input.MaxDailyBookings,
		MaxWeeklyBookings:   input.MaxWeeklyBookings,
		RoundRobinStrategy:  defaultString(input.RoundRobinStrategy, "cycle"),
		CountingPeriod:      defaultString(input.CountingPeriod, CountingPeriodMonth),
		Timezone:            input.Timezone,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	roster := make([]persistence.EventHost, 0, len(input.Hosts))
	for i, h := range input.Hosts {
		roster = append(roster, persistence.EventHost{
			EventID:   event.ID,
			HostID:    h.HostID,
			Role:      defaultString(h.Role, RoleHost),
			Weight:    h.Weight,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	if err := s.events.CreateEvent(ctx, event, roster); err != nil {
		return persistence.Event{}, err
	}
	serviceLogger(ctx, s.logger, "provisioning", "create_event").InfoContext(ctx, "event created", "event_id", event.ID, "meeting_type", event.MeetingType)
	return event, nil
}

// CreateHoliday stores a company holiday, date in "2006-01-02" form.
func (s *ProvisioningService) CreateHoliday(ctx context.Context, date, name string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must use the YYYY-MM-DD form")
		return vErr
	}
	return s.holidays.CreateHoliday(ctx, persistence.Holiday{Date: date, Name: strings.TrimSpace(name)})
}

// CreateWebinarSlot materializes a bookable slot for a webinar event.
func (s *ProvisioningService) CreateWebinarSlot(ctx context.Context, eventID, hostID string, start, end time.Time, externalRef *string) (persistence.Slot, error) {
	vErr := &ValidationError{}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		vErr.add("time", "end time must be after start time")
	}
	if vErr.HasErrors() {
		return persistence.Slot{}, vErr
	}

	slot := persistence.Slot{
		ID:          s.idGenerator(),
		EventID:     eventID,
		Start:       start,
		End:         end,
		ExternalRef: externalRef,
		CreatedAt:   s.now(),
	}
	if hostID != "" {
		slot.HostID = &hostID
	}
	if err := s.slots.CreateSlot(ctx, slot); err != nil {
		return persistence.Slot{}, err
	}
	return slot, nil
}

// CancelWebinarSlot removes a webinar slot from sale.
func (s *ProvisioningService) CancelWebinarSlot(ctx context.Context, slotID string) error {
	return mapNotFound(s.slots.CancelSlot(ctx, slotID, s.now()))
}

func validateTimezone(tz string) error {
	_, err := time.LoadLocation(tz)
	return err
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
