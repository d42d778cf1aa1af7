package distance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tradedispatch/internal/config"
	"tradedispatch/internal/maps"
	"tradedispatch/internal/types"
)

// countingProvider returns deterministic results and records every call.
type countingProvider struct {
	calls        int
	lastOrigins  []types.Point
	lastDests    []types.Point
	elementError map[string]string // pointKey of destination -> provider status
}

func (p *countingProvider) GetDistanceBatch(_ context.Context, origins, destinations []types.Point) ([][]maps.DistanceResult, error) {
	p.calls++
	p.lastOrigins = origins
	p.lastDests = destinations

	out := make([][]maps.DistanceResult, len(origins))
	for i, o := range origins {
		out[i] = make([]maps.DistanceResult, len(destinations))
		for j, d := range destinations {
			if status, ok := p.elementError[pointKey(d, 5)]; ok {
				out[i][j] = maps.DistanceResult{
					Origin: o, Destination: d,
					Status: maps.StatusElementError, ErrorMessage: status,
				}
				continue
			}
			out[i][j] = maps.DistanceResult{
				Origin: o, Destination: d,
				// Deterministic synthetic values so cached reads are checkable.
				Miles:         d.Lat + d.Lng/1000,
				TravelTimeMin: int(d.Lat),
				Status:        maps.StatusOK,
			}
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *countingProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	provider := &countingProvider{}
	svc := NewService(provider, NewStore(client), config.CacheConfig{
		TTL:          24 * time.Hour,
		KeyPrecision: 5,
	}, zap.NewNop())
	return svc, provider, mr
}

func point(n int) types.Point {
	return types.Point{Lat: 40 + float64(n)*0.01, Lng: -74 - float64(n)*0.01}
}

func TestGetDistance_IdempotentWithinTTL(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	d1, err := svc.GetDistance(ctx, point(0), point(1))
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	d2, err := svc.GetDistance(ctx, point(0), point(1))
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if d1 != d2 {
		t.Errorf("repeated lookup returned %f then %f", d1, d2)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second lookup must be served from cache)", provider.calls)
	}
}

func TestGetTravelTime_SharesCacheWithGetDistance(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetDistance(ctx, point(0), point(1)); err != nil {
		t.Fatalf("distance: %v", err)
	}
	minutes, err := svc.GetTravelTime(ctx, point(0), point(1))
	if err != nil {
		t.Fatalf("travel time: %v", err)
	}
	if minutes <= 0 {
		t.Errorf("travel time = %d, want positive", minutes)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 — both metrics come from one cached entry", provider.calls)
	}
}

func TestGetDistanceBatch_PartialMissFetchesOnlyMissing(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()
	origin := point(0)
	dests := []types.Point{point(1), point(2), point(3)}

	// Warm the cache for the middle destination only.
	if _, err := svc.GetDistanceBatch(ctx, []types.Point{origin}, dests[1:2]); err != nil {
		t.Fatalf("warm-up: %v", err)
	}
	provider.calls = 0

	out, err := svc.GetDistanceBatch(ctx, []types.Point{origin}, dests)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.calls)
	}
	if len(provider.lastDests) != 2 {
		t.Errorf("provider asked for %d destinations, want only the 2 missing", len(provider.lastDests))
	}
	for j, d := range dests {
		cell := out[0][j]
		if cell.Status != maps.StatusOK {
			t.Errorf("cell %d status = %s", j, cell.Status)
		}
		if cell.Destination != d {
			t.Errorf("cell %d destination = %+v, want %+v — merge must be keyed by pair", j, cell.Destination, d)
		}
	}
}

func TestGetDistanceBatch_CacheBackendDownStillCompletes(t *testing.T) {
	svc, provider, mr := newTestService(t)
	ctx := context.Background()
	mr.Close()

	out, err := svc.GetDistanceBatch(ctx, []types.Point{point(0)}, []types.Point{point(1)})
	if err != nil {
		t.Fatalf("cache outage must be absorbed, got error: %v", err)
	}
	if out[0][0].Status != maps.StatusOK {
		t.Errorf("expected OK result straight from provider, got %+v", out[0][0])
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}

	// Second call cannot be served from the dead cache; it must still work.
	if _, err := svc.GetDistanceBatch(ctx, []types.Point{point(0)}, []types.Point{point(1)}); err != nil {
		t.Fatalf("second call with dead cache: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}

func TestGetDistanceBatch_ElementErrorsNotCached(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()
	bad := point(7)
	provider.elementError = map[string]string{pointKey(bad, 5): "NOT_FOUND"}

	out, err := svc.GetDistanceBatch(ctx, []types.Point{point(0)}, []types.Point{bad})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if out[0][0].Status != maps.StatusElementError {
		t.Fatalf("expected element error surfaced, got %+v", out[0][0])
	}

	// The failed cell must not be cached; once the provider resolves the
	// destination, the fresh result comes through.
	provider.elementError = nil
	out, err = svc.GetDistanceBatch(ctx, []types.Point{point(0)}, []types.Point{bad})
	if err != nil {
		t.Fatalf("batch after recovery: %v", err)
	}
	if out[0][0].Status != maps.StatusOK {
		t.Errorf("expected recovery after provider fix, got %+v", out[0][0])
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}

func TestGetDistanceBatch_TTLExpiryRefetches(t *testing.T) {
	svc, provider, mr := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetDistance(ctx, point(0), point(1)); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	mr.FastForward(25 * time.Hour)

	if _, err := svc.GetDistance(ctx, point(0), point(1)); err != nil {
		t.Fatalf("post-expiry lookup: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 after TTL expiry", provider.calls)
	}
}

func TestGetDistanceBatch_TwentyDestinationsUnder100ms(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	dests := make([]types.Point, 20)
	for i := range dests {
		dests[i] = point(i + 1)
	}

	start := time.Now()
	out, err := svc.GetDistanceBatch(ctx, []types.Point{point(0)}, dests)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if elapsed > 100*time.Millisecond {
		t.Errorf("1x20 batch took %v, want < 100ms", elapsed)
	}
	if len(out) != 1 || len(out[0]) != 20 {
		t.Fatalf("matrix shape = %dx%d, want 1x20", len(out), len(out[0]))
	}
	for j, cell := range out[0] {
		if cell.Status != maps.StatusOK || cell.Miles <= 0 {
			t.Errorf("cell %d invalid: %+v", j, cell)
		}
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 batched call", provider.calls)
	}

	// Identical second call: full cache hit, zero provider calls.
	provider.calls = 0
	if _, err := svc.GetDistanceBatch(ctx, []types.Point{point(0)}, dests); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d on warm cache, want 0", provider.calls)
	}
}

func TestCacheKey_RoundsCoordinates(t *testing.T) {
	dest := types.Point{Lat: 41, Lng: -73}

	a := types.Point{Lat: 40.71234, Lng: -74.00599}
	b := types.Point{Lat: 40.71236, Lng: -74.00599}
	if cacheKey(a, dest, 5) == cacheKey(b, dest, 5) {
		t.Error("coordinates differing at the 5th decimal must not collide")
	}

	c := types.Point{Lat: 40.712340001, Lng: -74.00599}
	d := types.Point{Lat: 40.712339999, Lng: -74.00599}
	if cacheKey(c, dest, 5) != cacheKey(d, dest, 5) {
		t.Error("coordinates equal at 5 decimals must share a key")
	}
}
