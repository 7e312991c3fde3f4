package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/availability"
	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// EventCatalog exposes event lookup operations.
type EventCatalog interface {
	GetEvent(ctx context.Context, id string) (persistence.Event, error)
	ListEventHosts(ctx context.Context, eventID string) ([]persistence.EventHost, error)
}

// HostDirectory exposes host lookup operations.
type HostDirectory interface {
	GetHost(ctx context.Context, id string) (persistence.Host, error)
	ListHosts(ctx context.Context) ([]persistence.Host, error)
}

// PatternSource exposes recurring availability windows.
type PatternSource interface {
	ListActivePatterns(ctx context.Context, hostID string) ([]persistence.AvailabilityPattern, error)
}

// BusySource exposes the synced busy-interval cache.
type BusySource interface {
	ListIntervals(ctx context.Context, hostID string, from, to time.Time) ([]persistence.BusyInterval, error)
}

// SlotCatalog exposes materialized slot lookups.
type SlotCatalog interface {
	ListSlots(ctx context.Context, eventID string, from, to time.Time) ([]persistence.Slot, error)
	ListBookedRanges(ctx context.Context, hostID string, from, to time.Time, excludeEventID string) ([]persistence.BusyInterval, error)
}

// BookingTally exposes confirmed booking counts.
type BookingTally interface {
	ListConfirmedStarts(ctx context.Context, eventID string, from, to time.Time) ([]time.Time, error)
	ListConfirmedStartsForHost(ctx context.Context, hostID string, from, to time.Time) ([]time.Time, error)
}

// HolidayCalendar exposes company holiday dates.
type HolidayCalendar interface {
	ListHolidays(ctx context.Context, from, to string) ([]persistence.Holiday, error)
}

// AvailabilityService computes bookable slots for an event by combining each
// roster host's recurring patterns with their busy intervals and existing
// bookings, then applying the event's booking constraints.
type AvailabilityService struct {
	events   EventCatalog
	hosts    HostDirectory
	patterns PatternSource
	busy     BusySource
	slots    SlotCatalog
	bookings BookingTally
	holidays HolidayCalendar
	now      func() time.Time
	logger   *slog.Logger
}

// NewAvailabilityService wires dependencies for slot lookups.
func NewAvailabilityService(events EventCatalog, hosts HostDirectory, patterns PatternSource, busy BusySource, slots SlotCatalog, bookings BookingTally, holidays HolidayCalendar, now func() time.Time) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(events, hosts, patterns, busy, slots, bookings, holidays, now, nil)
}

// NewAvailabilityServiceWithLogger wires dependencies along with a base logger.
func NewAvailabilityServiceWithLogger(events EventCatalog, hosts HostDirectory, patterns PatternSource, busy BusySource, slots SlotCatalog, bookings BookingTally, holidays HolidayCalendar, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		events:   events,
		hosts:    hosts,
		patterns: patterns,
		busy:     busy,
		slots:    slots,
		bookings: bookings,
		holidays: holidays,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

// defaultLookupWindow bounds lookups that arrive without an explicit range.
const defaultLookupWindow = 60 * 24 * time.Hour

// GetAvailableSlots returns the event's bookable times inside the requested
// range, ordered by start.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, params GetAvailableSlotsParams) ([]AvailableSlot, error) {
	logger := serviceLogger(ctx, s.logger, "availability", "get_available_slots", "event_id", params.EventID)

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	from := params.From
	if from.IsZero() {
		from = s.now()
	}
	to := params.To
	if to.IsZero() {
		to = from.Add(defaultLookupWindow)
	}
	if !to.After(from) {
		vErr := &ValidationError{}
		vErr.add("to", "must be after from")
		return nil, vErr
	}

	candidates, err := s.candidateSlots(ctx, event, from, to)
	if err != nil {
		logger.ErrorContext(ctx, "slot generation failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	candidates, err = s.dropFilledSlots(ctx, event, candidates, from, to)
	if err != nil {
		return nil, err
	}

	filtered, err := s.applyEventConstraints(ctx, event, candidates, from, to)
	if err != nil {
		return nil, err
	}

	result := make([]AvailableSlot, 0, len(filtered))
	for _, slot := range filtered {
		result = append(result, AvailableSlot{Start: slot.Start, End: slot.End})
	}
	logger.InfoContext(ctx, "slots computed", "count", len(result))
	return result, nil
}

// candidateSlots dispatches on the meeting type. Collective events intersect
// the roster's availability, round-robin and panel events union it, and
// webinars read the admin-created slot list instead of computing anything.
func (s *AvailabilityService) candidateSlots(ctx context.Context, event persistence.Event, from, to time.Time) ([]availability.Slot, error) {
	if event.MeetingType == MeetingTypeWebinar {
		return s.webinarSlots(ctx, event, from, to)
	}

	roster, err := s.events.ListEventHosts(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, nil
	}

	switch event.MeetingType {
	case MeetingTypeCollective:
		sequences := make([][]availability.Slot, 0, len(roster))
		for _, member := range roster {
			slots, err := s.hostSlots(ctx, event, member.HostID, from, to)
			if err != nil {
				return nil, err
			}
			sequences = append(sequences, slots)
		}
		return availability.Collective(sequences...), nil

	case MeetingTypeRoundRobin, MeetingTypePanel:
		sequences := make([][]availability.Slot, 0, len(roster))
		for _, member := range roster {
			slots, err := s.hostSlots(ctx, event, member.HostID, from, to)
			if err != nil {
				return nil, err
			}
			sequences = append(sequences, slots)
		}
		return availability.AnyAvailable(sequences...), nil

	default:
		// one_on_one and group follow the primary host's calendar.
		return s.hostSlots(ctx, event, primaryHostID(roster), from, to)
	}
}

func (s *AvailabilityService) webinarSlots(ctx context.Context, event persistence.Event, from, to time.Time) ([]availability.Slot, error) {
	stored, err := s.slots.ListSlots(ctx, event.ID, from, to)
	if err != nil {
		return nil, err
	}
	slots := make([]availability.Slot, 0, len(stored))
	for _, slot := range stored {
		slots = append(slots, availability.Slot{Start: slot.Start, End: slot.End})
	}
	return slots, nil
}

func (s *AvailabilityService) hostSlots(ctx context.Context, event persistence.Event, hostID string, from, to time.Time) ([]availability.Slot, error) {
	host, err := s.hosts.GetHost(ctx, hostID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return s.HostFreeSlots(ctx, event, host, from, to)
}

// HostFreeSlots computes the host's open slots for the event inside
// [from, to). Busy time combines the synced calendar cache with slots the
// host already has booked on other events; the event's own booked slots are
// excluded so a group slot with seats left stays visible.
func (s *AvailabilityService) HostFreeSlots(ctx context.Context, event persistence.Event, host persistence.Host, from, to time.Time) ([]availability.Slot, error) {
	stored, err := s.patterns.ListActivePatterns(ctx, host.ID)
	if err != nil {
		return nil, err
	}
	patterns, err := enginePatterns(stored)
	if err != nil {
		return nil, err
	}

	// Widen the busy fetch so buffers around intervals just outside the
	// range still take effect.
	busyFrom := from.Add(-24 * time.Hour)
	busyTo := to.Add(24 * time.Hour)

	synced, err := s.busy.ListIntervals(ctx, host.ID, busyFrom, busyTo)
	if err != nil {
		return nil, err
	}
	booked, err := s.slots.ListBookedRanges(ctx, host.ID, busyFrom, busyTo, event.ID)
	if err != nil {
		return nil, err
	}

	busy := make([]availability.Interval, 0, len(synced)+len(booked))
	for _, iv := range synced {
		busy = append(busy, availability.Interval{Start: iv.Start, End: iv.End})
	}
	for _, iv := range booked {
		busy = append(busy, availability.Interval{Start: iv.Start, End: iv.End})
	}

	return availability.Generate(availability.Request{
		Patterns:     patterns,
		Busy:         busy,
		Duration:     time.Duration(event.DurationMinutes) * time.Minute,
		BufferBefore: time.Duration(event.BufferBeforeMinutes) * time.Minute,
		BufferAfter:  time.Duration(event.BufferAfterMinutes) * time.Minute,
		Increment:    time.Duration(event.IncrementMinutes) * time.Minute,
		From:         from,
		To:           to,
	})
}

// HostHasSlot reports whether the host is free to take the event at start.
func (s *AvailabilityService) HostHasSlot(ctx context.Context, event persistence.Event, host persistence.Host, start time.Time) (bool, error) {
	slots, err := s.HostFreeSlots(ctx, event, host, start, start)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

// HostFreeMinutes estimates the host's open time for the event inside
// [from, to), used by the availability_weighted strategy.
func (s *AvailabilityService) HostFreeMinutes(ctx context.Context, event persistence.Event, host persistence.Host, from, to time.Time) (int, error) {
	slots, err := s.HostFreeSlots(ctx, event, host, from, to)
	if err != nil {
		return 0, err
	}
	increment := event.IncrementMinutes
	if increment <= 0 {
		increment = int(availability.DefaultIncrement / time.Minute)
	}
	return len(slots) * increment, nil
}

// dropFilledSlots removes candidate starts whose slot already holds
// MaxAttendees confirmed bookings.
func (s *AvailabilityService) dropFilledSlots(ctx context.Context, event persistence.Event, candidates []availability.Slot, from, to time.Time) ([]availability.Slot, error) {
	if len(candidates) == 0 || event.MaxAttendees <= 0 {
		return candidates, nil
	}

	starts, err := s.bookings.ListConfirmedStarts(ctx, event.ID, from, to)
	if err != nil {
		return nil, err
	}
	if len(starts) == 0 {
		return candidates, nil
	}

	counts := make(map[int64]int, len(starts))
	for _, start := range starts {
		counts[start.Unix()]++
	}

	kept := candidates[:0]
	for _, slot := range candidates {
		if counts[slot.Start.Unix()] < event.MaxAttendees {
			kept = append(kept, slot)
		}
	}
	return kept, nil
}

func (s *AvailabilityService) applyEventConstraints(ctx context.Context, event persistence.Event, candidates []availability.Slot, from, to time.Time) ([]availability.Slot, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	loc, err := time.LoadLocation(event.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid event timezone %q: %w", event.Timezone, err)
	}

	holidaySet, err := s.holidaySet(ctx, loc, from, to)
	if err != nil {
		return nil, err
	}

	constraints := availability.Constraints{
		Now:           s.now(),
		MinNotice:     time.Duration(event.MinNoticeHours) * time.Hour,
		BookingWindow: time.Duration(event.BookingWindowDays) * 24 * time.Hour,
		Location:      loc,
		Holidays:      holidaySet,
		MaxDaily:      event.MaxDailyBookings,
		MaxWeekly:     event.MaxWeeklyBookings,
	}

	if event.MaxDailyBookings > 0 || event.MaxWeeklyBookings > 0 {
		// Cover the full weeks around the range so weekly tallies are
		// not truncated at the boundaries.
		starts, err := s.bookings.ListConfirmedStarts(ctx, event.ID, from.AddDate(0, 0, -7), to.AddDate(0, 0, 7))
		if err != nil {
			return nil, err
		}
		byDay := make(map[string]int)
		byWeek := make(map[string]int)
		for _, start := range starts {
			byDay[availability.DayKey(start, loc)]++
			byWeek[availability.WeekKey(start, loc)]++
		}
		constraints.DailyBooked = func(day string) int { return byDay[day] }
		constraints.WeeklyBooked = func(week string) int { return byWeek[week] }
	}

	return availability.ApplyConstraints(candidates, constraints), nil
}

func (s *AvailabilityService) holidaySet(ctx context.Context, loc *time.Location, from, to time.Time) (map[string]struct{}, error) {
	if s.holidays == nil {
		return nil, nil
	}
	listed, err := s.holidays.ListHolidays(ctx, availability.DayKey(from, loc), availability.DayKey(to, loc))
	if err != nil {
		return nil, err
	}
	if len(listed) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(listed))
	for _, h := range listed {
		set[h.Date] = struct{}{}
	}
	return set, nil
}

// primaryHostID prefers the roster's owner, falling back to the first member.
func primaryHostID(roster []persistence.EventHost) string {
	for _, member := range roster {
		if member.Role == RoleOwner {
			return member.HostID
		}
	}
	return roster[0].HostID
}

// enginePatterns converts stored patterns, resolving each pattern's timezone
// and parsing its wall-clock window.
func enginePatterns(stored []persistence.AvailabilityPattern) ([]availability.Pattern, error) {
	patterns := make([]availability.Pattern, 0, len(stored))
	for _, p := range stored {
		loc, err := time.LoadLocation(p.Timezone)
		if err != nil {
			return nil, fmt.Errorf("pattern %s has invalid timezone %q: %w", p.ID, p.Timezone, err)
		}
		start, err := clockMinutes(p.StartTime)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", p.ID, err)
		}
		end, err := clockMinutes(p.EndTime)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", p.ID, err)
		}
		patterns = append(patterns, availability.Pattern{
			Weekday:     time.Weekday(p.Weekday),
			StartMinute: start,
			EndMinute:   end,
			Location:    loc,
			Active:      p.Active,
		})
	}
	return patterns, nil
}

func clockMinutes(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid wall-clock time %q: %w", value, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
