// README: Composite scoring and deterministic ranking of eligible contractors.
package scoring

import (
	"sort"
	"time"

	"tradedispatch/internal/config"
	"tradedispatch/internal/modules/contractor"
	"tradedispatch/internal/modules/job"
	"tradedispatch/internal/types"
)

const maxRating = 5.0

type Engine struct {
	cfg config.ScoringConfig
}

func NewEngine(cfg config.ScoringConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Eligible reports whether a contractor may be scored for the job at all.
// Failing contractors are excluded entirely, never scored at zero.
func Eligible(c contractor.Contractor, trade contractor.Trade, curated map[types.ID]bool, curatedOnly bool) bool {
	if !c.Active {
		return false
	}
	if c.Trade != trade {
		return false
	}
	if curatedOnly && !curated[c.ID] {
		return false
	}
	return true
}

// Rank scores every candidate, sorts them with a deterministic total order,
// truncates to topN, and assigns 1-based ranks.
func (e *Engine) Rank(j job.Job, candidates []Candidate, topN int) []ScoredCandidate {
	if len(candidates) == 0 || topN <= 0 {
		return []ScoredCandidate{}
	}

	// Distance is normalized against the farthest candidate in this pool, so
	// the component is relative to what is actually on offer for this job.
	maxDistance := 0.0
	for _, c := range candidates {
		if c.DistanceMiles > maxDistance {
			maxDistance = c.DistanceMiles
		}
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		sub := SubScores{
			Rating:       e.ratingComponent(c.Contractor.Rating),
			Distance:     distanceComponent(c.DistanceMiles, maxDistance),
			Availability: e.availabilityComponent(c, j.DesiredAt, j.Duration()),
		}
		score := e.cfg.RatingWeight*sub.Rating +
			e.cfg.DistanceWeight*sub.Distance +
			e.cfg.AvailabilityWeight*sub.Availability

		scored = append(scored, ScoredCandidate{
			ContractorID:  c.Contractor.ID,
			Score:         score,
			SubScores:     sub,
			DistanceMiles: c.DistanceMiles,
			TravelTimeMin: c.TravelTimeMin,
			Slots:         c.Slots,
		})
	}

	ratingOf := make(map[types.ID]float64, len(candidates))
	for _, c := range candidates {
		// Unreviewed contractors sort below any real rating on ties.
		r := -1.0
		if c.Contractor.Rating != nil {
			r = *c.Contractor.Rating
		}
		ratingOf[c.Contractor.ID] = r
	}

	sort.SliceStable(scored, func(a, b int) bool {
		x, y := scored[a], scored[b]
		if x.Score != y.Score {
			return x.Score > y.Score
		}
		if ratingOf[x.ContractorID] != ratingOf[y.ContractorID] {
			return ratingOf[x.ContractorID] > ratingOf[y.ContractorID]
		}
		if x.DistanceMiles != y.DistanceMiles {
			return x.DistanceMiles < y.DistanceMiles
		}
		return x.ContractorID < y.ContractorID
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

// ratingComponent maps the aggregate rating to [0,1]; contractors with no
// reviews get the neutral default rather than zero.
func (e *Engine) ratingComponent(rating *float64) float64 {
	if rating == nil {
		return e.cfg.NeutralRating
	}
	return clamp01(*rating / maxRating)
}

// distanceComponent is inverse-normalized against the farthest candidate in
// the pool; a distance of zero yields 1.0.
func distanceComponent(miles, maxMiles float64) float64 {
	if maxMiles <= 0 {
		return 1.0
	}
	return clamp01(1.0 - miles/maxMiles)
}

// availabilityComponent grants full credit for a slot covering the requested
// window, partial credit for having any slot that day, and zero otherwise.
func (e *Engine) availabilityComponent(c Candidate, desiredAt time.Time, duration time.Duration) float64 {
	for _, slot := range c.Slots {
		if slot.Covers(desiredAt, duration) {
			return 1.0
		}
	}
	if len(c.Slots) > 0 {
		return e.cfg.PartialAvailabilityCredit
	}
	return 0.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
