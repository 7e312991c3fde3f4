// Package assignment picks exactly one host for a round-robin booking. It is
// a pure decision kernel: callers resolve availability, caps and counters
// first, then ask for a selection.
package assignment

import (
	"errors"
	"sort"
	"time"
)

// Strategy identifies the fairness algorithm used to pick a host.
type Strategy string

const (
	// StrategyCycle rotates through hosts in co-host creation order.
	StrategyCycle Strategy = "cycle"
	// StrategyLeastBookings picks the host with the fewest confirmed
	// bookings in the current counting period.
	StrategyLeastBookings Strategy = "least_bookings"
	// StrategyPriority draws proportionally to per-host integer weights.
	StrategyPriority Strategy = "priority"
	// StrategyAvailabilityWeighted draws proportionally to each host's
	// free time across the event's lookahead window.
	StrategyAvailabilityWeighted Strategy = "availability_weighted"
)

// ErrNoEligibleHost indicates no host is available and under cap at the
// requested time. This is an expected outcome, not a fault.
var ErrNoEligibleHost = errors.New("assignment: no eligible host")

// ErrUnknownStrategy indicates the strategy name is not one of the four
// supported values.
var ErrUnknownStrategy = errors.New("assignment: unknown strategy")

// Candidate describes one co-host at selection time. The full roster is
// passed, including hosts that are not currently eligible: the cycle cursor
// indexes the stable ordering, so unavailable hosts keep their position
// rather than being skipped permanently.
type Candidate struct {
	HostID string

	// CreatedAt is the co-host record creation instant; it defines the
	// stable ordering and breaks every tie.
	CreatedAt time.Time

	// Weight is the priority-strategy weight, clamped to [1, 10].
	Weight int

	// FreeMinutes is the host's total free time across the event's
	// lookahead window, used by availability_weighted.
	FreeMinutes int

	// PeriodBookings is the host's confirmed booking count within the
	// current counting period.
	PeriodBookings int

	// Eligible reports whether the host is individually available at the
	// requested time and under its hard daily/weekly caps.
	Eligible bool
}

// Selection is the outcome of a successful pick.
type Selection struct {
	HostID string

	// NextCursor is the advanced cycle position; meaningful only for
	// StrategyCycle, where the caller persists it for the next booking.
	NextCursor int
}

// Select picks one eligible host from the roster. cursor is the event's
// stored cycle position; seed drives the deterministic weighted draws.
func Select(strategy Strategy, roster []Candidate, cursor int, seed uint64) (Selection, error) {
	ordered := orderRoster(roster)
	if countEligible(ordered) == 0 {
		return Selection{}, ErrNoEligibleHost
	}

	switch strategy {
	case StrategyCycle:
		return selectCycle(ordered, cursor)
	case StrategyLeastBookings:
		return selectLeastBookings(ordered)
	case StrategyPriority:
		return selectWeighted(ordered, seed, priorityWeight)
	case StrategyAvailabilityWeighted:
		return selectWeighted(ordered, seed, availabilityWeight)
	default:
		return Selection{}, ErrUnknownStrategy
	}
}

func orderRoster(roster []Candidate) []Candidate {
	ordered := make([]Candidate, len(roster))
	copy(ordered, roster)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].HostID < ordered[j].HostID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}

func countEligible(roster []Candidate) int {
	eligible := 0
	for _, c := range roster {
		if c.Eligible {
			eligible++
		}
	}
	return eligible
}

// selectCycle assigns the host at the stored cursor when eligible, otherwise
// scans forward (wrapping) to the next eligible host. The cursor always
// advances to just past the chosen host, so a host that was merely busy this
// time keeps its turn in the rotation.
func selectCycle(ordered []Candidate, cursor int) (Selection, error) {
	n := len(ordered)
	if cursor < 0 {
		cursor = 0
	}
	for offset := 0; offset < n; offset++ {
		idx := (cursor + offset) % n
		if ordered[idx].Eligible {
			return Selection{HostID: ordered[idx].HostID, NextCursor: (idx + 1) % n}, nil
		}
	}
	return Selection{}, ErrNoEligibleHost
}

func selectLeastBookings(ordered []Candidate) (Selection, error) {
	best := -1
	for i, c := range ordered {
		if !c.Eligible {
			continue
		}
		if best == -1 || c.PeriodBookings < ordered[best].PeriodBookings {
			best = i
		}
	}
	if best == -1 {
		return Selection{}, ErrNoEligibleHost
	}
	return Selection{HostID: ordered[best].HostID}, nil
}

func priorityWeight(c Candidate) int {
	weight := c.Weight
	if weight < 1 {
		weight = 1
	}
	if weight > 10 {
		weight = 10
	}
	return weight
}

func availabilityWeight(c Candidate) int {
	if c.FreeMinutes < 0 {
		return 0
	}
	return c.FreeMinutes
}

// selectWeighted performs a deterministic proportional draw over the eligible
// hosts: the seed fixes the outcome for a given booking request while the
// distribution over many requests converges to the weight ratios. When every
// weight is zero the draw degrades to uniform.
func selectWeighted(ordered []Candidate, seed uint64, weightOf func(Candidate) int) (Selection, error) {
	total := 0
	for _, c := range ordered {
		if c.Eligible {
			total += weightOf(c)
		}
	}

	uniform := total == 0
	if uniform {
		total = countEligible(ordered)
	}
	if total == 0 {
		return Selection{}, ErrNoEligibleHost
	}

	target := int(seed % uint64(total))
	for _, c := range ordered {
		if !c.Eligible {
			continue
		}
		weight := 1
		if !uniform {
			weight = weightOf(c)
		}
		if target < weight {
			return Selection{HostID: c.HostID}, nil
		}
		target -= weight
	}
	return Selection{}, ErrNoEligibleHost
}
