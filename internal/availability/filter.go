package availability

import (
	"fmt"
	"time"
)

// Constraints holds the event-level booking rules applied to a generated slot
// sequence before it is shown to a caller. The checks are independent
// predicates; their order does not change the final set.
type Constraints struct {
	Now time.Time

	// MinNotice drops slots starting before Now+MinNotice. Zero notice
	// still excludes slots already in the past.
	MinNotice time.Duration

	// BookingWindow drops slots starting after Now+BookingWindow.
	// Zero means no upper bound.
	BookingWindow time.Duration

	// Location buckets slots into calendar days for the holiday and cap
	// checks. Nil means UTC.
	Location *time.Location

	// Holidays is the set of excluded dates, keyed by DayKey.
	Holidays map[string]struct{}

	// MaxDaily and MaxWeekly cap confirmed bookings per calendar day and
	// ISO week. Zero disables the respective cap.
	MaxDaily  int
	MaxWeekly int

	// DailyBooked and WeeklyBooked report how many confirmed, non-cancelled
	// bookings already exist for the bucket. They reflect committed state
	// only; the candidate slot under evaluation is never counted. Nil
	// lookups read as zero.
	DailyBooked  func(day string) int
	WeeklyBooked func(week string) int
}

// ApplyConstraints returns the slots that satisfy every constraint,
// preserving input order.
func ApplyConstraints(slots []Slot, c Constraints) []Slot {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	kept := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Start.Before(c.Now.Add(c.MinNotice)) {
			continue
		}
		if c.BookingWindow > 0 && slot.Start.After(c.Now.Add(c.BookingWindow)) {
			continue
		}

		day := DayKey(slot.Start, loc)
		if _, holiday := c.Holidays[day]; holiday {
			continue
		}
		if c.MaxDaily > 0 && c.DailyBooked != nil && c.DailyBooked(day) >= c.MaxDaily {
			continue
		}
		if c.MaxWeekly > 0 && c.WeeklyBooked != nil && c.WeeklyBooked(WeekKey(slot.Start, loc)) >= c.MaxWeekly {
			continue
		}
		kept = append(kept, slot)
	}
	return kept
}

// DayKey formats the calendar date of t in loc, e.g. "2026-03-02".
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// WeekKey formats the ISO week of t in loc, e.g. "2026-W10".
func WeekKey(t time.Time, loc *time.Location) string {
	year, week := t.In(loc).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
