// README: Recommendation result envelope.
package recommend

import (
	"time"

	"tradedispatch/internal/modules/scoring"
)

// Result is the ranked recommendation list plus request metadata.
type Result struct {
	Candidates []scoring.ScoredCandidate `json:"candidates"`
	// TotalEligible is the size of the scored pool before truncation to the
	// top N, so callers can tell "few matches" apart from "many, trimmed".
	TotalEligible int       `json:"totalEligible"`
	RequestedAt   time.Time `json:"requestedAt"`
}
