package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

var (
	hostCounter  uint64
	eventCounter uint64
)

var referenceTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday so weekday based expectations read naturally.
func ReferenceTime() time.Time {
	return referenceTime
}

// HostOption configures a generated host fixture.
type HostOption func(*persistence.Host)

// NewHostFixture returns a deterministic host record with optional overrides.
func NewHostFixture(opts ...HostOption) persistence.Host {
	idx := atomic.AddUint64(&hostCounter, 1)
	id := fmt.Sprintf("host-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	host := persistence.Host{
		ID:        id,
		Name:      fmt.Sprintf("Host %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Timezone:  "UTC",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&host)
	}
	return host
}

// WithHostID overrides the generated host ID.
func WithHostID(id string) HostOption {
	return func(h *persistence.Host) {
		h.ID = id
	}
}

// WithHostTimezone sets the host's timezone.
func WithHostTimezone(tz string) HostOption {
	return func(h *persistence.Host) {
		h.Timezone = tz
	}
}

// WithHostCalendarRef connects the host to an external calendar.
func WithHostCalendarRef(ref string) HostOption {
	return func(h *persistence.Host) {
		h.CalendarRef = &ref
	}
}

// WithHostMeetingCaps sets the host's hard daily and weekly caps.
func WithHostMeetingCaps(daily, weekly int) HostOption {
	return func(h *persistence.Host) {
		h.MaxDailyMeetings = daily
		h.MaxWeeklyMeetings = weekly
	}
}

// EventOption configures a generated event fixture.
type EventOption func(*persistence.Event)

// NewEventFixture returns a deterministic event record with optional overrides.
func NewEventFixture(opts ...EventOption) persistence.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	id := fmt.Sprintf("event-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	event := persistence.Event{
		ID:                 id,
		Title:              fmt.Sprintf("Event %03d", idx),
		Slug:               id,
		MeetingType:        "one_on_one",
		DurationMinutes:    30,
		MaxAttendees:       1,
		IncrementMinutes:   30,
		RoundRobinStrategy: "cycle",
		CountingPeriod:     "month",
		Timezone:           "UTC",
		CreatedAt:          created,
		UpdatedAt:          created,
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(e *persistence.Event) {
		e.ID = id
	}
}

// WithMeetingType sets the event's meeting type.
func WithMeetingType(meetingType string) EventOption {
	return func(e *persistence.Event) {
		e.MeetingType = meetingType
	}
}

// WithDuration sets the event's duration in minutes.
func WithDuration(minutes int) EventOption {
	return func(e *persistence.Event) {
		e.DurationMinutes = minutes
	}
}

// WithMaxAttendees sets the per-slot attendee capacity.
func WithMaxAttendees(n int) EventOption {
	return func(e *persistence.Event) {
		e.MaxAttendees = n
	}
}

// WithBuffers sets the before and after buffers in minutes.
func WithBuffers(before, after int) EventOption {
	return func(e *persistence.Event) {
		e.BufferBeforeMinutes = before
		e.BufferAfterMinutes = after
	}
}

// WithStrategy sets the round-robin assignment strategy.
func WithStrategy(strategy string) EventOption {
	return func(e *persistence.Event) {
		e.RoundRobinStrategy = strategy
	}
}

// WithBookingLimits sets the event's daily and weekly booking caps.
func WithBookingLimits(daily, weekly int) EventOption {
	return func(e *persistence.Event) {
		e.MaxDailyBookings = daily
		e.MaxWeeklyBookings = weekly
	}
}

// WithNotice sets the minimum notice in hours and booking window in days.
func WithNotice(minNoticeHours, bookingWindowDays int) EventOption {
	return func(e *persistence.Event) {
		e.MinNoticeHours = minNoticeHours
		e.BookingWindowDays = bookingWindowDays
	}
}

// WithEventTimezone sets the event's display timezone.
func WithEventTimezone(tz string) EventOption {
	return func(e *persistence.Event) {
		e.Timezone = tz
	}
}

// NewEventHostFixture links a host to an event. The creation instant is
// offset by position so roster order is deterministic.
func NewEventHostFixture(eventID, hostID string, position int) persistence.EventHost {
	return persistence.EventHost{
		EventID:   eventID,
		HostID:    hostID,
		Role:      "host",
		Weight:    1,
		CreatedAt: referenceTime.Add(time.Duration(position) * time.Second),
	}
}

// WeeklyPattern returns an active pattern for the given weekday and wall-clock
// window.
func WeeklyPattern(hostID string, weekday int, start, end, tz string) persistence.AvailabilityPattern {
	return persistence.AvailabilityPattern{
		ID:        fmt.Sprintf("%s-pattern-%d-%s", hostID, weekday, start),
		HostID:    hostID,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
		Timezone:  tz,
		Active:    true,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}
