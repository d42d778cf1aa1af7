// README: Assignment statuses and calendar windows consumed by availability.
package assignment

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusDeclined   Status = "declined"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Active reports whether an assignment in this status occupies calendar time.
// Declined and completed assignments do not block new slots.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress:
		return true
	}
	return false
}

// Window is the time a single assignment occupies on a contractor's calendar.
type Window struct {
	Start    time.Time
	Duration time.Duration
}

func (w Window) End() time.Time {
	return w.Start.Add(w.Duration)
}
