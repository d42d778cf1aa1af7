// README: Availability calculator; subtracts booked windows from working hours.
package availability

import (
	"sort"
	"time"

	"tradedispatch/internal/modules/assignment"
	"tradedispatch/internal/types"
)

// TimeSlot is an open interval on a contractor's calendar.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Covers reports whether a job starting at start and running for duration fits
// entirely inside the slot.
func (s TimeSlot) Covers(start time.Time, duration time.Duration) bool {
	return !start.Before(s.Start) && !start.Add(duration).After(s.End)
}

// ComputeAvailableSlots returns the open intervals on the given day after
// subtracting every busy window from the [workStart, workEnd] working-hours
// window. Busy windows may arrive unsorted and overlapping; windows entirely
// outside the day's working hours contribute nothing. Intervals shorter than
// minSlot are discarded. The result is in chronological order; an empty result
// means no availability that day.
func ComputeAvailableSlots(workStart, workEnd types.TimeOfDay, busy []assignment.Window, day time.Time, minSlot time.Duration) []TimeSlot {
	if !workStart.Valid() || !workEnd.Valid() || !workStart.Before(workEnd) {
		return nil
	}

	windowStart := workStart.On(day)
	windowEnd := workEnd.On(day)

	merged := mergeWindows(busy, windowStart, windowEnd)

	slots := make([]TimeSlot, 0, len(merged)+1)
	cursor := windowStart
	for _, w := range merged {
		if w.start.After(cursor) {
			slots = appendIfUsable(slots, TimeSlot{Start: cursor, End: w.start}, minSlot)
		}
		if w.end.After(cursor) {
			cursor = w.end
		}
	}
	if windowEnd.After(cursor) {
		slots = appendIfUsable(slots, TimeSlot{Start: cursor, End: windowEnd}, minSlot)
	}
	return slots
}

// HasAnyAvailability reports whether at least one open interval of minLen or
// longer exists on the day. It short-circuits on the first such interval, so it
// is cheap enough to use as an eligibility pre-filter.
func HasAnyAvailability(workStart, workEnd types.TimeOfDay, busy []assignment.Window, day time.Time, minLen time.Duration) bool {
	if !workStart.Valid() || !workEnd.Valid() || !workStart.Before(workEnd) {
		return false
	}

	windowStart := workStart.On(day)
	windowEnd := workEnd.On(day)

	merged := mergeWindows(busy, windowStart, windowEnd)

	cursor := windowStart
	for _, w := range merged {
		if w.start.Sub(cursor) >= minLen && w.start.Sub(cursor) > 0 {
			return true
		}
		if w.end.After(cursor) {
			cursor = w.end
		}
	}
	gap := windowEnd.Sub(cursor)
	return gap > 0 && gap >= minLen
}

type interval struct {
	start time.Time
	end   time.Time
}

// mergeWindows clips the busy windows to the working-hours window, sorts them,
// and coalesces overlapping or touching intervals.
func mergeWindows(busy []assignment.Window, windowStart, windowEnd time.Time) []interval {
	clipped := make([]interval, 0, len(busy))
	for _, w := range busy {
		start, end := w.Start, w.End()
		if !end.After(windowStart) || !start.Before(windowEnd) {
			continue
		}
		if start.Before(windowStart) {
			start = windowStart
		}
		if end.After(windowEnd) {
			end = windowEnd
		}
		clipped = append(clipped, interval{start: start, end: end})
	}

	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].start.Before(clipped[j].start)
	})

	merged := clipped[:0]
	for _, iv := range clipped {
		if n := len(merged); n > 0 && !iv.start.After(merged[n-1].end) {
			if iv.end.After(merged[n-1].end) {
				merged[n-1].end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

func appendIfUsable(slots []TimeSlot, slot TimeSlot, minSlot time.Duration) []TimeSlot {
	if slot.Duration() <= 0 {
		return slots
	}
	if minSlot > 0 && slot.Duration() < minSlot {
		return slots
	}
	return append(slots, slot)
}
