package availability

import (
	"testing"
	"time"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load location %s: %v", name, err)
	}
	return loc
}

// mondayPattern covers Monday 09:00-12:00 in the provided location.
func mondayPattern(loc *time.Location) Pattern {
	return Pattern{
		Weekday:     time.Monday,
		StartMinute: 9 * 60,
		EndMinute:   12 * 60,
		Location:    loc,
		Active:      true,
	}
}

func TestGenerate_BusyIntervalSplitsWindow(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	// Monday 2026-03-02 in New York.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, ny)

	slots, err := Generate(Request{
		Patterns: []Pattern{mondayPattern(ny)},
		Busy: []Interval{
			{Start: monday.Add(10 * time.Hour), End: monday.Add(10*time.Hour + 30*time.Minute)},
		},
		Duration:  30 * time.Minute,
		Increment: 30 * time.Minute,
		From:      monday,
		To:        monday.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	want := []time.Time{
		monday.Add(9 * time.Hour),
		monday.Add(9*time.Hour + 30*time.Minute),
		monday.Add(10*time.Hour + 30*time.Minute),
		monday.Add(11 * time.Hour),
		monday.Add(11*time.Hour + 30*time.Minute),
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i, slot := range slots {
		if !slot.Start.Equal(want[i]) {
			t.Errorf("slot %d: expected start %v, got %v", i, want[i], slot.Start)
		}
		if got := slot.End.Sub(slot.Start); got != 30*time.Minute {
			t.Errorf("slot %d: expected 30m duration, got %v", i, got)
		}
	}
}

func TestGenerate_StrictlyIncreasingNoDuplicates(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, ny)

	// Two non-overlapping Monday patterns plus a duplicate of the first.
	afternoon := Pattern{Weekday: time.Monday, StartMinute: 13 * 60, EndMinute: 15 * 60, Location: ny, Active: true}
	slots, err := Generate(Request{
		Patterns:  []Pattern{mondayPattern(ny), afternoon, mondayPattern(ny)},
		Duration:  30 * time.Minute,
		Increment: 30 * time.Minute,
		From:      monday,
		To:        monday.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots, got none")
	}

	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.After(slots[i-1].Start) {
			t.Fatalf("starts not strictly increasing at %d: %v then %v", i, slots[i-1].Start, slots[i].Start)
		}
	}
}

func TestGenerate_NoPatternsTreatsDayOpen(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slots, err := Generate(Request{
		Duration:  time.Hour,
		Increment: time.Hour,
		From:      from,
		To:        from.Add(23 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Whole-day open: one start per hour from 00:00 through 23:00.
	if len(slots) != 24 {
		t.Fatalf("expected 24 hourly slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(from) {
		t.Errorf("expected first slot at %v, got %v", from, slots[0].Start)
	}
}

func TestGenerate_InactivePatternsDoNotCount(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, ny)
	inactive := mondayPattern(ny)
	inactive.Active = false

	// An inactive pattern must not flip the host into the permissive
	// "no patterns" default either: the slice is non-empty but no active
	// window exists, so the host is treated as fully open.
	slots, err := Generate(Request{
		Patterns:  []Pattern{inactive},
		Duration:  30 * time.Minute,
		Increment: 30 * time.Minute,
		From:      monday,
		To:        monday.Add(4 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected permissive default to produce slots")
	}
}

func TestGenerate_PatternedHostClosedOnOtherDays(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, ny)

	slots, err := Generate(Request{
		Patterns:  []Pattern{mondayPattern(ny)},
		Duration:  30 * time.Minute,
		Increment: 30 * time.Minute,
		From:      tuesday,
		To:        tuesday.Add(23 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no Tuesday slots for a Monday-only host, got %d", len(slots))
	}
}

func TestGenerate_BuffersExpandBusyIntervals(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, ny)

	slots, err := Generate(Request{
		Patterns: []Pattern{mondayPattern(ny)},
		Busy: []Interval{
			{Start: monday.Add(10 * time.Hour), End: monday.Add(10*time.Hour + 30*time.Minute)},
		},
		Duration:     30 * time.Minute,
		BufferBefore: 15 * time.Minute,
		BufferAfter:  15 * time.Minute,
		Increment:    30 * time.Minute,
		From:         monday,
		To:           monday.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Busy expands to 09:45-10:45, so 09:30 no longer fits and the first
	// slot after the block is 11:00.
	want := []time.Time{
		monday.Add(9 * time.Hour),
		monday.Add(11 * time.Hour),
		monday.Add(11*time.Hour + 30*time.Minute),
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i, slot := range slots {
		if !slot.Start.Equal(want[i]) {
			t.Errorf("slot %d: expected start %v, got %v", i, want[i], slot.Start)
		}
	}
}

func TestGenerate_RespectsRangeBounds(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, ny)

	slots, err := Generate(Request{
		Patterns:  []Pattern{mondayPattern(ny)},
		Duration:  30 * time.Minute,
		Increment: 30 * time.Minute,
		From:      monday.Add(10 * time.Hour),
		To:        monday.Add(11 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	for _, slot := range slots {
		if slot.Start.Before(monday.Add(10 * time.Hour)) {
			t.Errorf("slot %v starts before the earliest bookable instant", slot.Start)
		}
		if slot.Start.After(monday.Add(11 * time.Hour)) {
			t.Errorf("slot %v starts after the latest bookable instant", slot.Start)
		}
	}
	if len(slots) != 3 {
		t.Fatalf("expected starts 10:00, 10:30, 11:00, got %d slots", len(slots))
	}
}

func TestGenerate_InputValidation(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if _, err := Generate(Request{Duration: 0, From: from, To: from.Add(time.Hour)}); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := Generate(Request{Duration: time.Hour, From: from, To: from.Add(-time.Hour)}); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := Generate(Request{Duration: time.Hour, To: from}); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow for zero From, got %v", err)
	}
}

func TestGenerate_Restartable(t *testing.T) {
	t.Parallel()

	ny := mustLocation(t, "America/New_York")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, ny)
	req := Request{
		Patterns:  []Pattern{mondayPattern(ny)},
		Busy:      []Interval{{Start: monday.Add(9 * time.Hour), End: monday.Add(10 * time.Hour)}},
		Duration:  30 * time.Minute,
		Increment: 30 * time.Minute,
		From:      monday,
		To:        monday.AddDate(0, 0, 1),
	}

	first, err := Generate(req)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	second, err := Generate(req)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical sequences, got %d vs %d slots", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Fatalf("sequence diverged at %d: %v vs %v", i, first[i], second[i])
		}
	}
}
