package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/assignment"
	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// BookingStore exposes booking writes and the commit guard.
type BookingStore interface {
	CommitBooking(ctx context.Context, params persistence.CommitBookingParams) (persistence.Booking, error)
	GetBooking(ctx context.Context, id string) (persistence.Booking, error)
	CancelBooking(ctx context.Context, id string, at time.Time) error
	ListConfirmedStartsForHost(ctx context.Context, hostID string, from, to time.Time) ([]time.Time, error)
}

// RotationStore exposes round-robin assignment state.
type RotationStore interface {
	ListStates(ctx context.Context, eventID string) ([]persistence.RotationState, error)
	GetCursor(ctx context.Context, eventID string) (int, error)
	// AdvanceCursor moves the cursor to next only if it still reads
	// expected, reporting whether the move happened.
	AdvanceCursor(ctx context.Context, eventID string, expected, next int) (bool, error)
}

// AvailabilityProber answers per-host availability questions during host
// selection.
type AvailabilityProber interface {
	HostHasSlot(ctx context.Context, event persistence.Event, host persistence.Host, start time.Time) (bool, error)
	HostFreeMinutes(ctx context.Context, event persistence.Event, host persistence.Host, from, to time.Time) (int, error)
}

// BookingService turns an attendee's slot pick into a host assignment and a
// committed booking.
type BookingService struct {
	events      EventCatalog
	hosts       HostDirectory
	bookings    BookingStore
	rotation    RotationStore
	prober      AvailabilityProber
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(events EventCatalog, hosts HostDirectory, bookings BookingStore, rotation RotationStore, prober AvailabilityProber, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(events, hosts, bookings, rotation, prober, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies along with a base logger.
func NewBookingServiceWithLogger(events EventCatalog, hosts HostDirectory, bookings BookingStore, rotation RotationStore, prober AvailabilityProber, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		events:      events,
		hosts:       hosts,
		bookings:    bookings,
		rotation:    rotation,
		prober:      prober,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// freeTimeHorizon bounds the availability estimate consulted by the
// availability_weighted strategy.
const freeTimeHorizon = 7 * 24 * time.Hour

// cycleAdvanceRetries bounds cursor re-reads when concurrent assignments race
// on the same cycle event. A loser past the cap keeps its pick without
// advancing; capacity stays safe because the commit guard is authoritative.
const cycleAdvanceRetries = 3

// AssignHost chooses which roster host takes the booking at params.Start.
// For non-rotating meeting types the primary host is returned; round_robin
// events run the event's configured strategy over the eligible roster.
func (s *BookingService) AssignHost(ctx context.Context, params AssignHostParams) (HostAssignment, error) {
	logger := serviceLogger(ctx, s.logger, "booking", "assign_host", "event_id", params.EventID)

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return HostAssignment{}, mapNotFound(err)
	}
	roster, err := s.events.ListEventHosts(ctx, event.ID)
	if err != nil {
		return HostAssignment{}, err
	}
	if len(roster) == 0 {
		return HostAssignment{}, ErrNoHostAvailable
	}

	if event.MeetingType != MeetingTypeRoundRobin {
		return HostAssignment{HostID: primaryHostID(roster)}, nil
	}

	candidates, err := s.buildCandidates(ctx, event, roster, params.Start)
	if err != nil {
		return HostAssignment{}, err
	}

	strategy := assignment.Strategy(event.RoundRobinStrategy)
	seed := assignment.Seed(event.ID, params.Start, params.AttendeeEmail)

	for attempt := 0; ; attempt++ {
		cursor := 0
		if strategy == assignment.StrategyCycle {
			if cursor, err = s.rotation.GetCursor(ctx, event.ID); err != nil {
				return HostAssignment{}, err
			}
		}

		selection, err := assignment.Select(strategy, candidates, cursor, seed)
		if err != nil {
			if errors.Is(err, assignment.ErrNoEligibleHost) {
				logger.InfoContext(ctx, "no eligible host", "start", params.Start)
				return HostAssignment{}, ErrNoHostAvailable
			}
			return HostAssignment{}, err
		}

		if strategy == assignment.StrategyCycle {
			advanced, err := s.rotation.AdvanceCursor(ctx, event.ID, cursor, selection.NextCursor)
			if err != nil {
				return HostAssignment{}, err
			}
			if !advanced && attempt < cycleAdvanceRetries {
				// Another assignment took this turn; re-read and select
				// against the fresh cursor.
				continue
			}
			if !advanced {
				logger.WarnContext(ctx, "cycle cursor contention, keeping pick", "host_id", selection.HostID)
			}
		}

		logger.InfoContext(ctx, "host assigned", "host_id", selection.HostID, "strategy", string(strategy))
		return HostAssignment{HostID: selection.HostID, Strategy: string(strategy)}, nil
	}
}

// buildCandidates keeps the full roster in co-host creation order and marks
// each member eligible or not, so the cycle strategy can advance its cursor
// past busy hosts without dropping them from the rotation.
func (s *BookingService) buildCandidates(ctx context.Context, event persistence.Event, roster []persistence.EventHost, start time.Time) ([]assignment.Candidate, error) {
	states, err := s.rotation.ListStates(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	periodStart := s.periodStart(event, start)
	counts := make(map[string]int, len(states))
	for _, state := range states {
		// Counters from a previous period read as zero.
		if state.PeriodStart == periodStart {
			counts[state.HostID] = state.BookingCount
		}
	}

	candidates := make([]assignment.Candidate, 0, len(roster))
	strategy := assignment.Strategy(event.RoundRobinStrategy)
	for _, member := range roster {
		host, err := s.hosts.GetHost(ctx, member.HostID)
		if err != nil {
			return nil, mapNotFound(err)
		}

		eligible, err := s.hostEligible(ctx, event, host, start)
		if err != nil {
			return nil, err
		}

		candidate := assignment.Candidate{
			HostID:         member.HostID,
			CreatedAt:      member.CreatedAt,
			Weight:         member.Weight,
			PeriodBookings: counts[member.HostID],
			Eligible:       eligible,
		}
		if eligible && strategy == assignment.StrategyAvailabilityWeighted {
			free, err := s.prober.HostFreeMinutes(ctx, event, host, s.now(), s.now().Add(freeTimeHorizon))
			if err != nil {
				return nil, err
			}
			candidate.FreeMinutes = free
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// hostEligible checks the host is free at start and under their hard caps.
func (s *BookingService) hostEligible(ctx context.Context, event persistence.Event, host persistence.Host, start time.Time) (bool, error) {
	free, err := s.prober.HostHasSlot(ctx, event, host, start)
	if err != nil {
		return false, err
	}
	if !free {
		return false, nil
	}
	return s.underHostCaps(ctx, host, start)
}

func (s *BookingService) underHostCaps(ctx context.Context, host persistence.Host, start time.Time) (bool, error) {
	if host.MaxDailyMeetings <= 0 && host.MaxWeeklyMeetings <= 0 {
		return true, nil
	}

	loc, err := time.LoadLocation(host.Timezone)
	if err != nil {
		return false, fmt.Errorf("invalid host timezone %q: %w", host.Timezone, err)
	}
	local := start.In(loc)

	if host.MaxDailyMeetings > 0 {
		dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		starts, err := s.bookings.ListConfirmedStartsForHost(ctx, host.ID, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return false, err
		}
		if len(starts) >= host.MaxDailyMeetings {
			return false, nil
		}
	}

	if host.MaxWeeklyMeetings > 0 {
		// ISO weeks start on Monday.
		offset := (int(local.Weekday()) + 6) % 7
		weekStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -offset)
		starts, err := s.bookings.ListConfirmedStartsForHost(ctx, host.ID, weekStart, weekStart.AddDate(0, 0, 7))
		if err != nil {
			return false, err
		}
		if len(starts) >= host.MaxWeeklyMeetings {
			return false, nil
		}
	}

	return true, nil
}

// CommitBooking validates the request, assigns a host when the event rotates,
// and hands the decision to the storage commit guard. Concurrent attempts on
// the last seat are serialized there; losers surface as ErrSlotFilled.
func (s *BookingService) CommitBooking(ctx context.Context, params CommitBookingParams) (Booking, error) {
	logger := serviceLogger(ctx, s.logger, "booking", "commit_booking", "event_id", params.EventID)

	if vErr := validateCommit(params); vErr.HasErrors() {
		return Booking{}, vErr
	}

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return Booking{}, mapNotFound(err)
	}

	hostID := params.HostID
	if hostID == "" {
		assigned, err := s.AssignHost(ctx, AssignHostParams{
			EventID:       params.EventID,
			Start:         params.Start,
			AttendeeEmail: params.AttendeeEmail,
		})
		if err != nil {
			return Booking{}, err
		}
		hostID = assigned.HostID
	}

	now := s.now()
	end := params.Start.Add(time.Duration(event.DurationMinutes) * time.Minute)
	stored, err := s.bookings.CommitBooking(ctx, persistence.CommitBookingParams{
		BookingID:         s.idGenerator(),
		SlotID:            s.idGenerator(),
		EventID:           event.ID,
		HostID:            hostID,
		Start:             params.Start,
		End:               end,
		MaxAttendees:      event.MaxAttendees,
		AttendeeName:      strings.TrimSpace(params.AttendeeName),
		AttendeeEmail:     normalizeEmail(params.AttendeeEmail),
		IncrementRotation: event.MeetingType == MeetingTypeRoundRobin,
		PeriodStart:       s.periodStart(event, params.Start),
		Now:               now,
	})
	if err != nil {
		mapped := mapCommitError(err)
		logger.InfoContext(ctx, "commit rejected", "error_kind", ErrorKind(mapped), "start", params.Start)
		return Booking{}, mapped
	}

	logger.InfoContext(ctx, "booking committed", "booking_id", stored.ID, "host_id", stored.HostID)
	return Booking{
		ID:            stored.ID,
		EventID:       stored.EventID,
		SlotID:        stored.SlotID,
		HostID:        stored.HostID,
		AttendeeName:  stored.AttendeeName,
		AttendeeEmail: stored.AttendeeEmail,
		Start:         stored.Start,
		End:           stored.End,
	}, nil
}

// CancelBooking marks the booking cancelled, releasing its seat.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) error {
	logger := serviceLogger(ctx, s.logger, "booking", "cancel_booking", "booking_id", bookingID)

	if err := s.bookings.CancelBooking(ctx, bookingID, s.now()); err != nil {
		return mapNotFound(err)
	}
	logger.InfoContext(ctx, "booking cancelled")
	return nil
}

// GetBooking returns a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (Booking, error) {
	stored, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapNotFound(err)
	}
	return Booking{
		ID:            stored.ID,
		EventID:       stored.EventID,
		SlotID:        stored.SlotID,
		HostID:        stored.HostID,
		AttendeeName:  stored.AttendeeName,
		AttendeeEmail: stored.AttendeeEmail,
		Start:         stored.Start,
		End:           stored.End,
	}, nil
}

// periodStart computes the rotation counting bucket the booking falls in,
// in the event's timezone.
func (s *BookingService) periodStart(event persistence.Event, start time.Time) string {
	loc, err := time.LoadLocation(event.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := start.In(loc)

	if event.CountingPeriod == CountingPeriodWeek {
		offset := (int(local.Weekday()) + 6) % 7
		return local.AddDate(0, 0, -offset).Format("2006-01-02")
	}
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc).Format("2006-01-02")
}

func validateCommit(params CommitBookingParams) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.EventID) == "" {
		vErr.add("event_id", "event is required")
	}
	if params.Start.IsZero() {
		vErr.add("start", "start time is required")
	}
	if strings.TrimSpace(params.AttendeeName) == "" {
		vErr.add("attendee_name", "name is required")
	}
	email := normalizeEmail(params.AttendeeEmail)
	if email == "" {
		vErr.add("attendee_email", "email is required")
	} else if !strings.Contains(email, "@") {
		vErr.add("attendee_email", "email is invalid")
	}
	return vErr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapCommitError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrCapacityExceeded):
		return ErrSlotFilled
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrDuplicateBooking
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	}
	return err
}
