package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

func setupStorageTest(t *testing.T) *Storage {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	storage, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func createTestHost(t *testing.T, storage *Storage, id, email string) {
	t.Helper()

	now := time.Now().UTC()
	err := storage.Hosts.CreateHost(context.Background(), persistence.Host{
		ID:        id,
		Name:      "Host " + id,
		Email:     email,
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateHost failed: %v", err)
	}
}

func createTestEvent(t *testing.T, storage *Storage, id string, maxAttendees int, hostIDs ...string) {
	t.Helper()

	now := time.Now().UTC()
	event := persistence.Event{
		ID:                 id,
		Title:              "Event " + id,
		Slug:               id,
		MeetingType:        "round_robin",
		DurationMinutes:    30,
		MaxAttendees:       maxAttendees,
		IncrementMinutes:   30,
		RoundRobinStrategy: "cycle",
		CountingPeriod:     "month",
		Timezone:           "UTC",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	hosts := make([]persistence.EventHost, 0, len(hostIDs))
	for i, hostID := range hostIDs {
		hosts = append(hosts, persistence.EventHost{
			EventID:   id,
			HostID:    hostID,
			Role:      "host",
			Weight:    1,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
	}
	if err := storage.Events.CreateEvent(context.Background(), event, hosts); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
}

func TestStorage_MigrateIsIdempotent(t *testing.T) {
	storage := setupStorageTest(t)

	if err := Migrate(context.Background(), storage.pool); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if err := storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestHostRepository_CreateAndGet(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	ref := "cal-token-1"
	now := time.Now().UTC().Truncate(time.Second)
	err := storage.Hosts.CreateHost(ctx, persistence.Host{
		ID:               "host1",
		Name:             "Alice",
		Email:            "alice@example.com",
		Timezone:         "America/New_York",
		CalendarRef:      &ref,
		MaxDailyMeetings: 4,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateHost failed: %v", err)
	}

	host, err := storage.Hosts.GetHost(ctx, "host1")
	if err != nil {
		t.Fatalf("GetHost failed: %v", err)
	}
	if host.Name != "Alice" || host.Timezone != "America/New_York" {
		t.Errorf("unexpected host: %+v", host)
	}
	if host.CalendarRef == nil || *host.CalendarRef != "cal-token-1" {
		t.Errorf("expected calendar ref round trip, got %v", host.CalendarRef)
	}
	if host.MaxDailyMeetings != 4 {
		t.Errorf("expected daily cap 4, got %d", host.MaxDailyMeetings)
	}
}

func TestHostRepository_DuplicateEmail(t *testing.T) {
	storage := setupStorageTest(t)

	createTestHost(t, storage, "host1", "same@example.com")
	now := time.Now().UTC()
	err := storage.Hosts.CreateHost(context.Background(), persistence.Host{
		ID:        "host2",
		Name:      "Other",
		Email:     "same@example.com",
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != persistence.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestHostRepository_GetMissing(t *testing.T) {
	storage := setupStorageTest(t)

	if _, err := storage.Hosts.GetHost(context.Background(), "nope"); err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPatternRepository_ReplaceIsWholesale(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host1", "h1@example.com")

	now := time.Now().UTC()
	first := []persistence.AvailabilityPattern{
		{ID: "p1", HostID: "host1", Weekday: 1, StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: "p2", HostID: "host1", Weekday: 2, StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true, CreatedAt: now, UpdatedAt: now},
	}
	if err := storage.Patterns.ReplacePatternsForHost(ctx, "host1", first); err != nil {
		t.Fatalf("ReplacePatternsForHost failed: %v", err)
	}

	second := []persistence.AvailabilityPattern{
		{ID: "p3", HostID: "host1", Weekday: 3, StartTime: "13:00", EndTime: "17:00", Timezone: "UTC", Active: true, CreatedAt: now, UpdatedAt: now},
	}
	if err := storage.Patterns.ReplacePatternsForHost(ctx, "host1", second); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	patterns, err := storage.Patterns.ListActivePatterns(ctx, "host1")
	if err != nil {
		t.Fatalf("ListActivePatterns failed: %v", err)
	}
	if len(patterns) != 1 || patterns[0].ID != "p3" {
		t.Fatalf("expected only the replacement pattern, got %+v", patterns)
	}
}

func TestPatternRepository_InactiveExcluded(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host1", "h1@example.com")

	now := time.Now().UTC()
	patterns := []persistence.AvailabilityPattern{
		{ID: "p1", HostID: "host1", Weekday: 1, StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: "p2", HostID: "host1", Weekday: 2, StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: false, CreatedAt: now, UpdatedAt: now},
	}
	if err := storage.Patterns.ReplacePatternsForHost(ctx, "host1", patterns); err != nil {
		t.Fatalf("ReplacePatternsForHost failed: %v", err)
	}

	active, err := storage.Patterns.ListActivePatterns(ctx, "host1")
	if err != nil {
		t.Fatalf("ListActivePatterns failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "p1" {
		t.Fatalf("expected only the active pattern, got %+v", active)
	}
}

func TestPatternRepository_InvalidWeekdayRejected(t *testing.T) {
	storage := setupStorageTest(t)
	createTestHost(t, storage, "host1", "h1@example.com")

	now := time.Now().UTC()
	patterns := []persistence.AvailabilityPattern{
		{ID: "p1", HostID: "host1", Weekday: 7, StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true, CreatedAt: now, UpdatedAt: now},
	}
	err := storage.Patterns.ReplacePatternsForHost(context.Background(), "host1", patterns)
	if err != persistence.ErrConstraintViolation {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestIntervalRepository_ReplaceRangeIsIdempotent(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host1", "h1@example.com")

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	intervals := []persistence.BusyInterval{
		{HostID: "host1", Start: from.Add(10 * time.Hour), End: from.Add(11 * time.Hour)},
		{HostID: "host1", Start: from.Add(34 * time.Hour), End: from.Add(35 * time.Hour)},
	}

	for i := 0; i < 3; i++ {
		if err := storage.Intervals.ReplaceRange(ctx, "host1", from, to, intervals); err != nil {
			t.Fatalf("ReplaceRange run %d failed: %v", i, err)
		}
	}

	got, err := storage.Intervals.ListIntervals(ctx, "host1", from, to)
	if err != nil {
		t.Fatalf("ListIntervals failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 intervals after repeated syncs, got %d", len(got))
	}
}

func TestIntervalRepository_ReplaceRangeKeepsOtherWindows(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host1", "h1@example.com")

	weekOne := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekTwo := weekOne.AddDate(0, 0, 7)
	if err := storage.Intervals.ReplaceRange(ctx, "host1", weekOne, weekTwo, []persistence.BusyInterval{
		{HostID: "host1", Start: weekOne.Add(9 * time.Hour), End: weekOne.Add(10 * time.Hour)},
	}); err != nil {
		t.Fatalf("ReplaceRange week one failed: %v", err)
	}

	// Refreshing week two with an empty set must not touch week one.
	if err := storage.Intervals.ReplaceRange(ctx, "host1", weekTwo, weekTwo.AddDate(0, 0, 7), nil); err != nil {
		t.Fatalf("ReplaceRange week two failed: %v", err)
	}

	got, err := storage.Intervals.ListIntervals(ctx, "host1", weekOne, weekTwo)
	if err != nil {
		t.Fatalf("ListIntervals failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected week one interval to survive, got %d intervals", len(got))
	}
}

func TestEventRepository_RosterOrderedByCreation(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host-b", "b@example.com")
	createTestHost(t, storage, "host-a", "a@example.com")
	createTestEvent(t, storage, "event1", 1, "host-b", "host-a")

	hosts, err := storage.Events.ListEventHosts(ctx, "event1")
	if err != nil {
		t.Fatalf("ListEventHosts failed: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(hosts))
	}
	if hosts[0].HostID != "host-b" || hosts[1].HostID != "host-a" {
		t.Errorf("expected co-host creation order, got %s then %s", hosts[0].HostID, hosts[1].HostID)
	}
}

func TestEventRepository_WeightOutOfRangeRejected(t *testing.T) {
	storage := setupStorageTest(t)
	createTestHost(t, storage, "host1", "h1@example.com")

	now := time.Now().UTC()
	event := persistence.Event{
		ID: "event1", Title: "E", Slug: "e", MeetingType: "round_robin",
		DurationMinutes: 30, MaxAttendees: 1, IncrementMinutes: 30,
		RoundRobinStrategy: "priority", CountingPeriod: "month", Timezone: "UTC",
		CreatedAt: now, UpdatedAt: now,
	}
	hosts := []persistence.EventHost{{EventID: "event1", HostID: "host1", Role: "host", Weight: 11, CreatedAt: now}}
	if err := storage.Events.CreateEvent(context.Background(), event, hosts); err != persistence.ErrConstraintViolation {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestHolidayRepository_ListRange(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()

	for _, h := range []persistence.Holiday{
		{Date: "2026-01-01", Name: "New Year's Day"},
		{Date: "2026-07-03", Name: "Independence Day (observed)"},
		{Date: "2026-12-25", Name: "Christmas Day"},
	} {
		if err := storage.Holidays.CreateHoliday(ctx, h); err != nil {
			t.Fatalf("CreateHoliday failed: %v", err)
		}
	}

	got, err := storage.Holidays.ListHolidays(ctx, "2026-06-01", "2026-08-31")
	if err != nil {
		t.Fatalf("ListHolidays failed: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2026-07-03" {
		t.Fatalf("expected only the July holiday, got %+v", got)
	}
}

func TestRotationRepository_IncrementResetsOnNewPeriod(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host1", "h1@example.com")
	createTestEvent(t, storage, "event1", 1, "host1")

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if err := storage.Rotation.IncrementCounter(ctx, "event1", "host1", "2026-03-01", now); err != nil {
			t.Fatalf("IncrementCounter failed: %v", err)
		}
	}

	states, err := storage.Rotation.ListStates(ctx, "event1")
	if err != nil {
		t.Fatalf("ListStates failed: %v", err)
	}
	if len(states) != 1 || states[0].BookingCount != 3 {
		t.Fatalf("expected count 3, got %+v", states)
	}

	// First increment of the next period starts over at 1.
	if err := storage.Rotation.IncrementCounter(ctx, "event1", "host1", "2026-04-01", now); err != nil {
		t.Fatalf("IncrementCounter failed: %v", err)
	}
	states, err = storage.Rotation.ListStates(ctx, "event1")
	if err != nil {
		t.Fatalf("ListStates failed: %v", err)
	}
	if states[0].BookingCount != 1 || states[0].PeriodStart != "2026-04-01" {
		t.Fatalf("expected reset to 1 in new period, got %+v", states[0])
	}
}

func TestRotationRepository_CursorDefaultsToZero(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host1", "h1@example.com")
	createTestEvent(t, storage, "event1", 1, "host1")

	cursor, err := storage.Rotation.GetCursor(ctx, "event1")
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if cursor != 0 {
		t.Fatalf("expected cursor 0 for fresh event, got %d", cursor)
	}

	advanced, err := storage.Rotation.AdvanceCursor(ctx, "event1", 0, 2)
	if err != nil {
		t.Fatalf("AdvanceCursor failed: %v", err)
	}
	if !advanced {
		t.Fatal("expected first advance on a fresh event to succeed")
	}
	cursor, err = storage.Rotation.GetCursor(ctx, "event1")
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if cursor != 2 {
		t.Fatalf("expected cursor 2, got %d", cursor)
	}
}

func TestRotationRepository_AdvanceCursorRejectsStaleExpected(t *testing.T) {
	storage := setupStorageTest(t)
	ctx := context.Background()
	createTestHost(t, storage, "host1", "h1@example.com")
	createTestEvent(t, storage, "event1", 1, "host1")

	if _, err := storage.Rotation.AdvanceCursor(ctx, "event1", 0, 1); err != nil {
		t.Fatalf("AdvanceCursor failed: %v", err)
	}

	// A writer that read the cursor before the advance above must lose.
	advanced, err := storage.Rotation.AdvanceCursor(ctx, "event1", 0, 1)
	if err != nil {
		t.Fatalf("AdvanceCursor failed: %v", err)
	}
	if advanced {
		t.Fatal("expected stale expected value to be rejected")
	}

	cursor, err := storage.Rotation.GetCursor(ctx, "event1")
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if cursor != 1 {
		t.Fatalf("expected cursor left at 1, got %d", cursor)
	}
}
