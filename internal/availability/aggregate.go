package availability

import "sort"

// Collective intersects per-host slot sequences by start instant: a slot
// survives only when every host is free at that start. An empty input or any
// empty host sequence yields an empty result.
func Collective(sequences ...[]Slot) []Slot {
	if len(sequences) == 0 {
		return nil
	}

	counts := make(map[int64]int)
	slots := make(map[int64]Slot)
	for _, seq := range sequences {
		if len(seq) == 0 {
			return nil
		}
		seen := make(map[int64]struct{}, len(seq))
		for _, slot := range seq {
			key := slot.Start.Unix()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			counts[key]++
			slots[key] = slot
		}
	}

	result := make([]Slot, 0, len(slots))
	for key, count := range counts {
		if count == len(sequences) {
			result = append(result, slots[key])
		}
	}
	return sortSlots(result)
}

// AnyAvailable unions per-host slot sequences by start instant, deduplicating:
// a slot survives when at least one host is free at that start. Which host
// serves the booking is decided later by the assignment selector.
func AnyAvailable(sequences ...[]Slot) []Slot {
	slots := make(map[int64]Slot)
	for _, seq := range sequences {
		for _, slot := range seq {
			key := slot.Start.Unix()
			if _, ok := slots[key]; !ok {
				slots[key] = slot
			}
		}
	}

	result := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		result = append(result, slot)
	}
	return sortSlots(result)
}

func sortSlots(slots []Slot) []Slot {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}
