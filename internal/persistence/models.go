package persistence

import "time"

// Host represents a bookable team member.
type Host struct {
	ID       string
	Name     string
	Email    string
	Timezone string
	// CalendarRef is an opaque reference to the host's external calendar
	// credentials. Nil means no calendar is connected; revoked credentials
	// keep the reference but fail at sync time.
	CalendarRef        *string
	CredentialsRevoked bool
	// MaxDailyMeetings and MaxWeeklyMeetings are hard per-host caps across
	// all events. Zero disables the cap.
	MaxDailyMeetings  int
	MaxWeeklyMeetings int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AvailabilityPattern is a recurring weekly window for a host. Times are
// stored as "HH:MM" wall-clock strings in the pattern's timezone.
type AvailabilityPattern struct {
	ID        string
	HostID    string
	Weekday   int // 0 = Sunday .. 6 = Saturday
	StartTime string
	EndTime   string
	Timezone  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BusyInterval is an externally synced blocked span for a host. Intervals are
// opaque: they are never attributed to a specific meeting.
type BusyInterval struct {
	HostID string
	Start  time.Time
	End    time.Time
}

// Event defines a bookable offering.
type Event struct {
	ID                  string
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
	// CountingPeriod is "week" or "month"; it scopes the rotation counters
	// used by the least_bookings strategy.
	CountingPeriod string
	Timezone       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EventHost links a host to an event with its role and priority weight.
type EventHost struct {
	EventID   string
	HostID    string
	Role      string // owner, host or backup
	Weight    int    // 1..10, used by the priority strategy
	CreatedAt time.Time
}

// Slot is a materialized bookable time for an event. Webinar slots are
// created by an admin ahead of time; dynamic slots materialize on first
// booking.
type Slot struct {
	ID          string
	EventID     string
	HostID      *string
	Start       time.Time
	End         time.Time
	ExternalRef *string
	CancelledAt *time.Time
	CreatedAt   time.Time
}

// Booking is an attendee registration on a slot.
type Booking struct {
	ID            string
	SlotID        string
	EventID       string
	HostID        string
	AttendeeName  string
	AttendeeEmail string
	Start         time.Time
	End           time.Time
	CreatedAt     time.Time
	CancelledAt   *time.Time
	AttendedAt    *time.Time
}

// RotationState is the per-(event, host) assignment counter consulted by the
// least_bookings strategy. PeriodStart scopes the count: a row carrying a
// prior period reads as zero.
type RotationState struct {
	EventID        string
	HostID         string
	PeriodStart    string
	BookingCount   int
	LastAssignedAt *time.Time
}

// Holiday is a company-wide excluded date, stored as "2006-01-02".
type Holiday struct {
	Date string
	Name string
}
