// README: Scoring inputs and the ranked candidate result.
package scoring

import (
	"tradedispatch/internal/modules/availability"
	"tradedispatch/internal/modules/contractor"
	"tradedispatch/internal/types"
)

// Candidate is one eligible contractor with the per-request signals the
// engine scores on.
type Candidate struct {
	Contractor    contractor.Contractor
	DistanceMiles float64
	TravelTimeMin int
	Slots         []availability.TimeSlot
}

// SubScores are the normalized components of the composite score, each in [0,1].
type SubScores struct {
	Rating       float64 `json:"rating"`
	Distance     float64 `json:"distance"`
	Availability float64 `json:"availability"`
}

// ScoredCandidate is produced and consumed within a single request.
type ScoredCandidate struct {
	ContractorID  types.ID                `json:"contractorId"`
	Rank          int                     `json:"rank"`
	Score         float64                 `json:"score"`
	SubScores     SubScores               `json:"subScores"`
	DistanceMiles float64                 `json:"distanceMiles"`
	TravelTimeMin int                     `json:"travelTimeMinutes"`
	Slots         []availability.TimeSlot `json:"availableSlots"`
}
