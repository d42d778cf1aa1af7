// README: Job read model consumed by the recommendation core.
package job

import (
	"time"

	"tradedispatch/internal/modules/contractor"
	"tradedispatch/internal/types"
)

type Job struct {
	ID       types.ID
	Trade    contractor.Trade
	Location types.Point
	// DesiredAt is when the customer wants the work to start.
	DesiredAt time.Time
	// DurationHours is the estimated duration; always positive.
	DurationHours float64
}

func (j Job) Duration() time.Duration {
	return time.Duration(j.DurationHours * float64(time.Hour))
}
