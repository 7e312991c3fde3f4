package application

import "time"

// Meeting types supported by the platform.
const (
	MeetingTypeOneOnOne   = "one_on_one"
	MeetingTypeGroup      = "group"
	MeetingTypeCollective = "collective"
	MeetingTypeRoundRobin = "round_robin"
	MeetingTypePanel      = "panel"
	MeetingTypeWebinar    = "webinar"
)

// Roster roles.
const (
	RoleOwner  = "owner"
	RoleHost   = "host"
	RoleBackup = "backup"
)

// Counting periods scoping rotation counters.
const (
	CountingPeriodWeek  = "week"
	CountingPeriodMonth = "month"
)

// AvailableSlot is a bookable time presented to an attendee.
type AvailableSlot struct {
	Start time.Time
	End   time.Time
}

// GetAvailableSlotsParams selects the slot lookup range.
type GetAvailableSlotsParams struct {
	EventID string
	From    time.Time
	To      time.Time
}

// AssignHostParams identifies the booking attempt a host is chosen for.
type AssignHostParams struct {
	EventID       string
	Start         time.Time
	AttendeeEmail string
}

// HostAssignment is the outcome of a host selection.
type HostAssignment struct {
	HostID   string
	Strategy string
}

// CommitBookingParams carries an attendee's confirmed pick.
type CommitBookingParams struct {
	EventID       string
	Start         time.Time
	AttendeeName  string
	AttendeeEmail string
	// HostID pins the booking to a specific host. Empty means the service
	// assigns one according to the event's strategy.
	HostID string
}

// Booking is the confirmed registration returned to callers.
type Booking struct {
	ID            string
	EventID       string
	SlotID        string
	HostID        string
	AttendeeName  string
	AttendeeEmail string
	Start         time.Time
	End           time.Time
}

// SyncReport summarizes one busy-interval refresh pass.
type SyncReport struct {
	Synced  int
	Skipped int
	Failed  int
}

func validMeetingType(t string) bool {
	switch t {
	case MeetingTypeOneOnOne, MeetingTypeGroup, MeetingTypeCollective,
		MeetingTypeRoundRobin, MeetingTypePanel, MeetingTypeWebinar:
		return true
	}
	return false
}
