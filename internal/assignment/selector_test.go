package assignment

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func roster(t *testing.T, ids ...string) []Candidate {
	t.Helper()
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	candidates := make([]Candidate, 0, len(ids))
	for i, id := range ids {
		candidates = append(candidates, Candidate{
			HostID:    id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Weight:    1,
			Eligible:  true,
		})
	}
	return candidates
}

func TestSelect_CycleRotatesInCreationOrder(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b", "host-c")
	cursor := 0

	var got []string
	for i := 0; i < 10; i++ {
		sel, err := Select(StrategyCycle, hosts, cursor, 0)
		if err != nil {
			t.Fatalf("assignment %d failed: %v", i, err)
		}
		got = append(got, sel.HostID)
		cursor = sel.NextCursor
	}

	want := []string{"host-a", "host-b", "host-c", "host-a", "host-b", "host-c", "host-a", "host-b", "host-c", "host-a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assignment %d: expected %s, got %s (sequence %v)", i, want[i], got[i], got)
		}
	}
}

func TestSelect_CycleDoesNotSkipBusyHostPermanently(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b", "host-c")

	// host-a is busy for this booking: the turn passes to host-b but the
	// cursor advances past host-b, so host-a is first in line again once
	// the rotation wraps.
	hosts[0].Eligible = false
	sel, err := Select(StrategyCycle, hosts, 0, 0)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel.HostID != "host-b" {
		t.Fatalf("expected host-b to cover, got %s", sel.HostID)
	}
	if sel.NextCursor != 2 {
		t.Fatalf("expected cursor 2, got %d", sel.NextCursor)
	}

	hosts[0].Eligible = true
	sel, err = Select(StrategyCycle, hosts, sel.NextCursor, 0)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel.HostID != "host-c" {
		t.Fatalf("expected host-c, got %s", sel.HostID)
	}

	sel, err = Select(StrategyCycle, hosts, sel.NextCursor, 0)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel.HostID != "host-a" {
		t.Fatalf("expected host-a to regain its turn, got %s", sel.HostID)
	}
}

func TestSelect_LeastBookingsPicksLowestCount(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b")
	hosts[0].PeriodBookings = 3
	hosts[1].PeriodBookings = 1

	sel, err := Select(StrategyLeastBookings, hosts, 0, 0)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel.HostID != "host-b" {
		t.Fatalf("expected host-b with fewer bookings, got %s", sel.HostID)
	}
}

func TestSelect_LeastBookingsTieBreaksByCreationOrder(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-b", "host-a")
	// Both at the same count; host-b has the earlier co-host record.
	sel, err := Select(StrategyLeastBookings, hosts, 0, 0)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel.HostID != "host-b" {
		t.Fatalf("expected creation-order tie-break to pick host-b, got %s", sel.HostID)
	}
}

func TestSelect_PriorityConvergesToWeightRatio(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b")
	hosts[0].Weight = 6
	hosts[1].Weight = 4

	const trials = 10000
	counts := make(map[string]int)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < trials; i++ {
		seed := Seed("event-1", start, fmt.Sprintf("guest-%d@example.com", i))
		sel, err := Select(StrategyPriority, hosts, 0, seed)
		if err != nil {
			t.Fatalf("trial %d failed: %v", i, err)
		}
		counts[sel.HostID]++
	}

	ratio := float64(counts["host-a"]) / float64(trials)
	if math.Abs(ratio-0.6) > 0.05 {
		t.Fatalf("expected host-a share near 0.60, got %.3f (counts %v)", ratio, counts)
	}
}

func TestSelect_PriorityDeterministicPerRequest(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b")
	hosts[0].Weight = 6
	hosts[1].Weight = 4

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	seed := Seed("event-1", start, "guest@example.com")

	first, err := Select(StrategyPriority, hosts, 0, seed)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Select(StrategyPriority, hosts, 0, seed)
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if again.HostID != first.HostID {
			t.Fatalf("same request produced different hosts: %s then %s", first.HostID, again.HostID)
		}
	}
}

func TestSelect_AvailabilityWeightedFavorsFreeHost(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b")
	hosts[0].FreeMinutes = 900
	hosts[1].FreeMinutes = 100

	const trials = 5000
	counts := make(map[string]int)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < trials; i++ {
		seed := Seed("event-2", start, fmt.Sprintf("guest-%d@example.com", i))
		sel, err := Select(StrategyAvailabilityWeighted, hosts, 0, seed)
		if err != nil {
			t.Fatalf("trial %d failed: %v", i, err)
		}
		counts[sel.HostID]++
	}

	ratio := float64(counts["host-a"]) / float64(trials)
	if math.Abs(ratio-0.9) > 0.05 {
		t.Fatalf("expected host-a share near 0.90, got %.3f (counts %v)", ratio, counts)
	}
}

func TestSelect_AvailabilityWeightedZeroFreeFallsBackToUniform(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b")
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	counts := make(map[string]int)
	for i := 0; i < 200; i++ {
		seed := Seed("event-3", start, fmt.Sprintf("guest-%d@example.com", i))
		sel, err := Select(StrategyAvailabilityWeighted, hosts, 0, seed)
		if err != nil {
			t.Fatalf("trial %d failed: %v", i, err)
		}
		counts[sel.HostID]++
	}
	if counts["host-a"] == 0 || counts["host-b"] == 0 {
		t.Fatalf("expected both hosts selected under uniform fallback, got %v", counts)
	}
}

func TestSelect_IneligibleHostsExcluded(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a", "host-b", "host-c")
	hosts[1].Eligible = false

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		seed := Seed("event-4", start, fmt.Sprintf("guest-%d@example.com", i))
		sel, err := Select(StrategyPriority, hosts, 0, seed)
		if err != nil {
			t.Fatalf("trial %d failed: %v", i, err)
		}
		if sel.HostID == "host-b" {
			t.Fatal("ineligible host was selected")
		}
	}
}

func TestSelect_NoEligibleHost(t *testing.T) {
	t.Parallel()

	hosts := roster(t, "host-a")
	hosts[0].Eligible = false

	for _, strategy := range []Strategy{StrategyCycle, StrategyLeastBookings, StrategyPriority, StrategyAvailabilityWeighted} {
		if _, err := Select(strategy, hosts, 0, 0); !errors.Is(err, ErrNoEligibleHost) {
			t.Fatalf("strategy %s: expected ErrNoEligibleHost, got %v", strategy, err)
		}
	}
}

func TestSelect_UnknownStrategy(t *testing.T) {
	t.Parallel()

	if _, err := Select(Strategy("fifo"), roster(t, "host-a"), 0, 0); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestSeed_StableAcrossCalls(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a := Seed("event-1", start, "Guest@Example.com ")
	b := Seed("event-1", start, "guest@example.com")
	if a != b {
		t.Fatal("seed should normalize attendee email case and whitespace")
	}
	if Seed("event-2", start, "guest@example.com") == a {
		t.Fatal("different events should hash to different seeds")
	}
}
