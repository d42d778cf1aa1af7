// README: Recommendation orchestrator; wires job, pool, distance, availability and scoring.
package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradedispatch/internal/config"
	"tradedispatch/internal/maps"
	"tradedispatch/internal/modules/assignment"
	"tradedispatch/internal/modules/availability"
	"tradedispatch/internal/modules/contractor"
	"tradedispatch/internal/modules/job"
	"tradedispatch/internal/modules/scoring"
	"tradedispatch/internal/types"
)

type JobStore interface {
	GetByID(ctx context.Context, id types.ID) (*job.Job, error)
}

type ContractorStore interface {
	ActiveByTrade(ctx context.Context, trade contractor.Trade) ([]contractor.Contractor, error)
	DispatcherCuratedList(ctx context.Context, dispatcherID types.ID) ([]types.ID, error)
}

type AssignmentStore interface {
	ActiveForContractorOnDate(ctx context.Context, contractorID types.ID, day time.Time) ([]assignment.Window, error)
}

// DistanceBatcher is satisfied by the caching distance service.
type DistanceBatcher interface {
	GetDistanceBatch(ctx context.Context, origins, destinations []types.Point) ([][]maps.DistanceResult, error)
}

type Service struct {
	jobs        JobStore
	contractors ContractorStore
	assignments AssignmentStore
	distances   DistanceBatcher
	engine      *scoring.Engine
	cfg         config.ScoringConfig
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	jobs JobStore,
	contractors ContractorStore,
	assignments AssignmentStore,
	distances DistanceBatcher,
	engine *scoring.Engine,
	cfg config.ScoringConfig,
	log *zap.Logger,
) *Service {
	return &Service{
		jobs:        jobs,
		contractors: contractors,
		assignments: assignments,
		distances:   distances,
		engine:      engine,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// GetRecommendations ranks the eligible contractor pool for the job. With
// curatedOnly set, the pool is restricted to the dispatcher's curated list.
// An unknown job is an error; an empty pool is an empty result.
func (s *Service) GetRecommendations(ctx context.Context, jobID, dispatcherID types.ID, curatedOnly bool) (*Result, error) {
	requestedAt := s.now().UTC()

	j, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	pool, err := s.eligiblePool(ctx, j, dispatcherID, curatedOnly)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return &Result{Candidates: []scoring.ScoredCandidate{}, RequestedAt: requestedAt}, nil
	}

	// One batched provider call for the whole pool: 1 origin x N destinations.
	locations := make([]types.Point, len(pool))
	for i, c := range pool {
		locations[i] = c.Location
	}
	matrix, err := s.distances.GetDistanceBatch(ctx, []types.Point{j.Location}, locations)
	if err != nil {
		return nil, fmt.Errorf("distance batch for job %s: %w", j.ID, err)
	}
	row := matrix[0]

	slots, err := s.availabilityFanOut(ctx, pool, j.DesiredAt)
	if err != nil {
		return nil, err
	}

	candidates := make([]scoring.Candidate, 0, len(pool))
	for i, c := range pool {
		if row[i].Status != maps.StatusOK {
			s.log.Warn("skipping contractor with unresolvable distance",
				zap.String("contractorId", string(c.ID)),
				zap.String("jobId", string(j.ID)),
				zap.String("reason", row[i].ErrorMessage),
			)
			continue
		}
		candidates = append(candidates, scoring.Candidate{
			Contractor:    c,
			DistanceMiles: row[i].Miles,
			TravelTimeMin: row[i].TravelTimeMin,
			Slots:         slots[i],
		})
	}

	return &Result{
		Candidates:    s.engine.Rank(*j, candidates, s.cfg.TopN),
		TotalEligible: len(candidates),
		RequestedAt:   requestedAt,
	}, nil
}

// eligiblePool loads active same-trade contractors, intersected with the
// dispatcher's curated list when requested.
func (s *Service) eligiblePool(ctx context.Context, j *job.Job, dispatcherID types.ID, curatedOnly bool) ([]contractor.Contractor, error) {
	active, err := s.contractors.ActiveByTrade(ctx, j.Trade)
	if err != nil {
		return nil, fmt.Errorf("loading contractor pool: %w", err)
	}

	var curated map[types.ID]bool
	if curatedOnly {
		ids, err := s.contractors.DispatcherCuratedList(ctx, dispatcherID)
		if err != nil {
			return nil, fmt.Errorf("loading curated list: %w", err)
		}
		curated = make(map[types.ID]bool, len(ids))
		for _, id := range ids {
			curated[id] = true
		}
	}

	pool := make([]contractor.Contractor, 0, len(active))
	for _, c := range active {
		if scoring.Eligible(c, j.Trade, curated, curatedOnly) {
			pool = append(pool, c)
		}
	}
	return pool, nil
}

// availabilityFanOut computes each contractor's open slots on the job's day
// concurrently; results land at the contractor's pool index.
func (s *Service) availabilityFanOut(ctx context.Context, pool []contractor.Contractor, day time.Time) ([][]availability.TimeSlot, error) {
	slots := make([][]availability.TimeSlot, len(pool))
	errs := make([]error, len(pool))

	var wg sync.WaitGroup
	for i, c := range pool {
		wg.Add(1)
		go func(i int, c contractor.Contractor) {
			defer wg.Done()
			windows, err := s.assignments.ActiveForContractorOnDate(ctx, c.ID, day)
			if err != nil {
				errs[i] = fmt.Errorf("assignments for contractor %s: %w", c.ID, err)
				return
			}
			slots[i] = availability.ComputeAvailableSlots(c.WorkStart, c.WorkEnd, windows, day, s.cfg.SlotGranularity)
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return slots, nil
}
