package availability

import (
	"sort"
	"time"
)

// Request describes a single-host slot generation run. The generator is a pure
// function of the request: the same inputs always yield the same sequence.
type Request struct {
	// Patterns holds the host's recurring weekly windows. When the host has
	// no active pattern at all, every day in the range is treated as fully
	// open (permissive default); a host with active patterns is only open
	// inside them.
	Patterns []Pattern

	// Busy holds the host's blocked spans: externally synced calendar
	// intervals plus any platform bookings the caller wants counted.
	Busy []Interval

	Duration     time.Duration
	BufferBefore time.Duration
	BufferAfter  time.Duration

	// Increment is the spacing between candidate starts, aligned to the
	// local wall clock. Zero means DefaultIncrement.
	Increment time.Duration

	// From and To bound the candidate starts: From <= start <= To.
	From time.Time
	To   time.Time
}

// Generate walks the requested range day by day and emits the host's bookable
// slots in ascending start order with no duplicates.
func Generate(req Request) ([]Slot, error) {
	if req.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return nil, ErrInvalidWindow
	}

	increment := req.Increment
	if increment <= 0 {
		increment = DefaultIncrement
	}

	windows := openWindows(req)
	busy := expandBusy(req.Busy, req.BufferBefore, req.BufferAfter)

	slots := make([]Slot, 0)
	seen := make(map[int64]struct{})
	for _, w := range windows {
		for _, free := range subtract(w, busy) {
			for _, slot := range emit(free, req, increment) {
				key := slot.Start.Unix()
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				slots = append(slots, slot)
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots, nil
}

// openWindows expands the host's patterns into concrete free windows covering
// the request range. Windows from distinct patterns may abut or overlap (for
// example across timezones), so the result is merged per location.
func openWindows(req Request) []window {
	active := make([]Pattern, 0, len(req.Patterns))
	for _, p := range req.Patterns {
		if p.Active {
			active = append(active, p)
		}
	}

	// End of the generation range: the latest start plus the meeting length.
	rangeEnd := req.To.Add(req.Duration)

	if len(active) == 0 {
		return []window{{start: req.From, end: rangeEnd, loc: time.UTC}}
	}

	windows := make([]window, 0)
	for _, p := range active {
		loc := p.Location
		if loc == nil {
			loc = time.UTC
		}

		// Walk one day beyond each side of the range so windows that
		// straddle the bounds in local time are not missed.
		day := req.From.In(loc).AddDate(0, 0, -1)
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		last := rangeEnd.In(loc).AddDate(0, 0, 1)

		for !day.After(last) {
			if day.Weekday() == p.Weekday {
				start := day.Add(time.Duration(p.StartMinute) * time.Minute)
				end := day.Add(time.Duration(p.EndMinute) * time.Minute)
				if end.After(req.From) && start.Before(rangeEnd) {
					windows = append(windows, window{start: start, end: end, loc: loc})
				}
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	return mergeWindows(windows)
}

func mergeWindows(windows []window) []window {
	if len(windows) <= 1 {
		return windows
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].start.Before(windows[j].start)
	})

	merged := windows[:1]
	for _, w := range windows[1:] {
		tail := &merged[len(merged)-1]
		if !w.start.After(tail.end) {
			if w.end.After(tail.end) {
				tail.end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// expandBusy widens each blocked span by the event buffers and merges the
// result so subtraction sees a sorted, non-overlapping list.
func expandBusy(busy []Interval, before, after time.Duration) []Interval {
	if len(busy) == 0 {
		return nil
	}

	expanded := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if !b.End.After(b.Start) {
			continue
		}
		expanded = append(expanded, Interval{
			Start: b.Start.Add(-before),
			End:   b.End.Add(after),
		})
	}

	sort.Slice(expanded, func(i, j int) bool {
		return expanded[i].Start.Before(expanded[j].Start)
	})

	merged := expanded[:0]
	for _, b := range expanded {
		if len(merged) == 0 || b.Start.After(merged[len(merged)-1].End) {
			merged = append(merged, b)
			continue
		}
		if b.End.After(merged[len(merged)-1].End) {
			merged[len(merged)-1].End = b.End
		}
	}
	return merged
}

// subtract removes the blocked spans from a free window, returning the
// remaining sub-windows in order.
func subtract(w window, busy []Interval) []window {
	free := []window{w}
	for _, b := range busy {
		next := free[:0:0]
		for _, f := range free {
			if !b.Start.Before(f.end) || !f.start.Before(b.End) {
				next = append(next, f)
				continue
			}
			if b.Start.After(f.start) {
				next = append(next, window{start: f.start, end: b.Start, loc: f.loc})
			}
			if b.End.Before(f.end) {
				next = append(next, window{start: b.End, end: f.end, loc: f.loc})
			}
		}
		free = next
	}
	return free
}

// emit produces the candidate slots inside one free window, starting at the
// first wall-clock instant aligned to the increment.
func emit(w window, req Request, increment time.Duration) []Slot {
	earliest := w.start
	if req.From.After(earliest) {
		earliest = req.From
	}

	start := alignUp(earliest, increment, w.loc)
	slots := make([]Slot, 0)
	for {
		end := start.Add(req.Duration)
		if end.After(w.end) || start.After(req.To) {
			break
		}
		slots = append(slots, Slot{Start: start, End: end})
		start = start.Add(increment)
	}
	return slots
}

// alignUp rounds t up to the next instant whose minutes-since-local-midnight
// is a multiple of the increment.
func alignUp(t time.Time, increment time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := local.Sub(midnight)
	if rem := offset % increment; rem != 0 {
		offset += increment - rem
	}
	return midnight.Add(offset)
}
