// README: Caching decorator in front of the distance provider adapter.
package distance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tradedispatch/internal/config"
	"tradedispatch/internal/maps"
	"tradedispatch/internal/types"
)

// Provider is the adapter interface the cache decorates. It is satisfied by
// *maps.DistanceService.
type Provider interface {
	GetDistanceBatch(ctx context.Context, origins, destinations []types.Point) ([][]maps.DistanceResult, error)
}

// Service serves distance lookups from the cache and batches only the missing
// origin/destination pairs to the provider. Cache backend failures are
// absorbed: a failed read is a miss, a failed write is skipped, and the
// request still completes from the provider.
type Service struct {
	provider Provider
	store    *Store
	cfg      config.CacheConfig
	log      *zap.Logger
}

func NewService(provider Provider, store *Store, cfg config.CacheConfig, log *zap.Logger) *Service {
	return &Service{provider: provider, store: store, cfg: cfg, log: log}
}

// GetDistanceBatch returns one row per origin and one column per destination,
// serving cached pairs without touching the provider.
func (s *Service) GetDistanceBatch(ctx context.Context, origins, destinations []types.Point) ([][]maps.DistanceResult, error) {
	out := make([][]maps.DistanceResult, len(origins))
	for i := range out {
		out[i] = make([]maps.DistanceResult, len(destinations))
	}

	var misses []missPair

	for i, o := range origins {
		for j, d := range destinations {
			key := cacheKey(o, d, s.cfg.KeyPrecision)
			raw, ok, err := s.store.Get(ctx, key)
			if err != nil {
				s.log.Warn("distance cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
				misses = append(misses, missPair{i, j})
				continue
			}
			if !ok {
				misses = append(misses, missPair{i, j})
				continue
			}
			res, err := decodeEntry(raw, o, d)
			if err != nil {
				s.log.Warn("corrupt distance cache entry, refetching", zap.String("key", key), zap.Error(err))
				misses = append(misses, missPair{i, j})
				continue
			}
			out[i][j] = res
		}
	}

	if len(misses) == 0 {
		return out, nil
	}

	// Refetch the sub-matrix spanned by the distinct origins and destinations
	// involved in misses, then merge cells back by coordinate pair.
	missOrigins, originIdx := distinctPoints(origins, misses, func(p missPair) int { return p.i }, s.cfg.KeyPrecision)
	missDests, destIdx := distinctPoints(destinations, misses, func(p missPair) int { return p.j }, s.cfg.KeyPrecision)

	fresh, err := s.provider.GetDistanceBatch(ctx, missOrigins, missDests)
	if err != nil {
		return nil, err
	}

	for _, m := range misses {
		o, d := origins[m.i], destinations[m.j]
		cell := fresh[originIdx[pointKey(o, s.cfg.KeyPrecision)]][destIdx[pointKey(d, s.cfg.KeyPrecision)]]
		out[m.i][m.j] = cell
		if cell.Status != maps.StatusOK || cell.Estimated {
			continue
		}
		encoded, err := encodeEntry(cell)
		if err != nil {
			continue
		}
		key := cacheKey(o, d, s.cfg.KeyPrecision)
		if err := s.store.Set(ctx, key, encoded, s.cfg.TTL); err != nil {
			s.log.Warn("distance cache write failed, skipping", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// GetDistance returns the driving distance in miles for one pair. It goes
// through the same 1x1 batch path as GetDistanceBatch, so caching semantics
// are identical.
func (s *Service) GetDistance(ctx context.Context, origin, destination types.Point) (float64, error) {
	cell, err := s.getSingle(ctx, origin, destination)
	if err != nil {
		return 0, err
	}
	return cell.Miles, nil
}

// GetTravelTime returns the driving time in whole minutes for one pair.
func (s *Service) GetTravelTime(ctx context.Context, origin, destination types.Point) (int, error) {
	cell, err := s.getSingle(ctx, origin, destination)
	if err != nil {
		return 0, err
	}
	return cell.TravelTimeMin, nil
}

func (s *Service) getSingle(ctx context.Context, origin, destination types.Point) (maps.DistanceResult, error) {
	matrix, err := s.GetDistanceBatch(ctx, []types.Point{origin}, []types.Point{destination})
	if err != nil {
		return maps.DistanceResult{}, err
	}
	cell := matrix[0][0]
	if cell.Status != maps.StatusOK {
		return maps.DistanceResult{}, fmt.Errorf("distance lookup failed: %s", cell.ErrorMessage)
	}
	return cell, nil
}

// missPair addresses one uncached cell of the requested matrix.
type missPair struct{ i, j int }

// distinctPoints collects the unique points referenced by the misses,
// preserving first-seen order, and returns an index by rounded-coordinate key.
func distinctPoints(points []types.Point, misses []missPair, pick func(missPair) int, precision int) ([]types.Point, map[string]int) {
	var out []types.Point
	idx := make(map[string]int)
	for _, m := range misses {
		p := points[pick(m)]
		key := pointKey(p, precision)
		if _, ok := idx[key]; ok {
			continue
		}
		idx[key] = len(out)
		out = append(out, p)
	}
	return out, idx
}
