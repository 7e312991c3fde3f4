package availability

import (
	"errors"
	"time"
)

// DefaultIncrement is the spacing between candidate starts when a request
// does not specify one.
const DefaultIncrement = 30 * time.Minute

// ErrInvalidDuration indicates the requested slot duration is not positive.
var ErrInvalidDuration = errors.New("availability: slot duration must be positive")

// ErrInvalidWindow indicates the requested generation window is empty or inverted.
var ErrInvalidWindow = errors.New("availability: window end must be after window start")

// Pattern is a recurring weekly window during which a host takes meetings,
// resolved to a concrete location.
type Pattern struct {
	Weekday     time.Weekday
	StartMinute int // minutes after local midnight
	EndMinute   int
	Location    *time.Location
	Active      bool
}

// Interval is a half-open [Start, End) span of wall-clock time during which a
// host is unavailable.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Slot is a concrete bookable time range produced by the generator.
type Slot struct {
	Start time.Time
	End   time.Time
}

// window is a free span with the location used for increment alignment.
type window struct {
	start time.Time
	end   time.Time
	loc   *time.Location
}
