package persistence

import (
	"context"
	"time"
)

// HostRepository stores host records.
type HostRepository interface {
	CreateHost(ctx context.Context, host Host) error
	UpdateHost(ctx context.Context, host Host) error
	GetHost(ctx context.Context, id string) (Host, error)
	ListHosts(ctx context.Context) ([]Host, error)
}

// PatternRepository stores recurring availability windows. Bulk updates
// replace a host's patterns wholesale.
type PatternRepository interface {
	ReplacePatternsForHost(ctx context.Context, hostID string, patterns []AvailabilityPattern) error
	ListActivePatterns(ctx context.Context, hostID string) ([]AvailabilityPattern, error)
}

// IntervalRepository is the busy-interval cache fed by calendar sync.
// ReplaceRange is idempotent replace-by-range: intervals previously cached
// for the host inside [from, to) are dropped and the new set inserted in one
// transaction. Stale intervals outside the refreshed window persist until
// their own sync.
type IntervalRepository interface {
	ReplaceRange(ctx context.Context, hostID string, from, to time.Time, intervals []BusyInterval) error
	ListIntervals(ctx context.Context, hostID string, from, to time.Time) ([]BusyInterval, error)
}

// EventRepository stores event definitions and their host rosters.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event, hosts []EventHost) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEventHosts(ctx context.Context, eventID string) ([]EventHost, error)
}

// HolidayRepository stores company holiday dates.
type HolidayRepository interface {
	CreateHoliday(ctx context.Context, holiday Holiday) error
	ListHolidays(ctx context.Context, from, to string) ([]Holiday, error)
}

// SlotRepository stores materialized slots.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot Slot) error
	CancelSlot(ctx context.Context, id string, at time.Time) error
	ListSlots(ctx context.Context, eventID string, from, to time.Time) ([]Slot, error)
	// ListBookedRanges returns the time ranges of the host's slots holding
	// at least one non-cancelled booking, excluding slots belonging to
	// excludeEventID when non-empty.
	ListBookedRanges(ctx context.Context, hostID string, from, to time.Time, excludeEventID string) ([]BusyInterval, error)
}

// CommitBookingParams carries everything the commit guard needs to convert a
// (slot, host) decision into a durable booking in one transaction.
type CommitBookingParams struct {
	BookingID     string
	SlotID        string
	EventID       string
	HostID        string
	Start         time.Time
	End           time.Time
	MaxAttendees  int
	AttendeeName  string
	AttendeeEmail string
	ExternalRef   *string
	// IncrementRotation asks the guard to bump the host's rotation counter
	// for PeriodStart as part of the same transaction, so failed or raced
	// commits never increment.
	IncrementRotation bool
	PeriodStart       string
	Now               time.Time
}

// BookingRepository stores bookings and enforces the commit guard.
type BookingRepository interface {
	// CommitBooking materializes the slot if needed and inserts the
	// booking behind storage-level capacity and uniqueness constraints.
	// It returns ErrCapacityExceeded when the slot is full and
	// ErrDuplicate when the attendee already holds the slot.
	CommitBooking(ctx context.Context, params CommitBookingParams) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	CancelBooking(ctx context.Context, id string, at time.Time) error
	// ListConfirmedStarts returns the start times of confirmed,
	// non-cancelled bookings for the event inside [from, to).
	ListConfirmedStarts(ctx context.Context, eventID string, from, to time.Time) ([]time.Time, error)
	// ListConfirmedStartsForHost is the per-host equivalent, across all
	// events, used for the host's hard daily/weekly caps.
	ListConfirmedStartsForHost(ctx context.Context, hostID string, from, to time.Time) ([]time.Time, error)
}

// RotationRepository stores round-robin assignment state. IncrementCounter
// must be a single atomic read-modify-write so two concurrent bookings can
// never both observe a stale count.
type RotationRepository interface {
	ListStates(ctx context.Context, eventID string) ([]RotationState, error)
	IncrementCounter(ctx context.Context, eventID, hostID, periodStart string, at time.Time) error
	GetCursor(ctx context.Context, eventID string) (int, error)
	// AdvanceCursor is a compare-and-set: it moves the cursor to next only
	// if it still reads expected, reporting whether the move happened.
	AdvanceCursor(ctx context.Context, eventID string, expected, next int) (bool, error)
}
