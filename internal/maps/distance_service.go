// README: Distance-matrix provider adapter with retries and Haversine fallback.
package maps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"tradedispatch/internal/config"
	"tradedispatch/internal/types"
)

const milesPerMeter = 0.000621371

// ErrInvalidCoordinate is returned before any network call when an input
// coordinate is outside the valid latitude/longitude ranges.
var ErrInvalidCoordinate = errors.New("coordinate out of valid range")

// DistanceStatus tags a single matrix cell.
type DistanceStatus string

const (
	StatusOK DistanceStatus = "OK"
	// StatusElementError carries the provider's per-element failure (for
	// example an unresolvable location). Element failures are never retried.
	StatusElementError DistanceStatus = "ELEMENT_ERROR"
)

// DistanceResult is one cell of a distance matrix. When Status is StatusOK,
// Miles and TravelTimeMin are present and non-negative. Estimated marks values
// computed by the great-circle fallback rather than the provider.
type DistanceResult struct {
	Origin        types.Point    `json:"origin"`
	Destination   types.Point    `json:"destination"`
	Miles         float64        `json:"miles"`
	TravelTimeMin int            `json:"travelTimeMin"`
	Status        DistanceStatus `json:"status"`
	ErrorMessage  string         `json:"errorMessage,omitempty"`
	Estimated     bool           `json:"estimated,omitempty"`
}

// matrixAPI is the slice of the Google Maps client the adapter needs.
// *maps.Client satisfies it.
type matrixAPI interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// DistanceService batches origin/destination pairs into single provider calls,
// retries transport failures with exponential backoff, and degrades to a
// road-factored Haversine estimate when the provider stays unreachable.
type DistanceService struct {
	api matrixAPI
	cfg config.ProviderConfig
	log *zap.Logger
}

func NewDistanceService(api matrixAPI, cfg config.ProviderConfig, log *zap.Logger) *DistanceService {
	return &DistanceService{api: api, cfg: cfg, log: log}
}

// GetDistanceBatch returns one row per origin and one column per destination.
// The only error it returns is ErrInvalidCoordinate (or context cancellation);
// provider outages degrade to estimated cells instead of failing.
func (s *DistanceService) GetDistanceBatch(ctx context.Context, origins, destinations []types.Point) ([][]DistanceResult, error) {
	for _, p := range append(append([]types.Point{}, origins...), destinations...) {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinate, p.Lat, p.Lng)
		}
	}
	if len(origins) == 0 || len(destinations) == 0 {
		return [][]DistanceResult{}, nil
	}

	req := &maps.DistanceMatrixRequest{
		Origins:      formatPoints(origins),
		Destinations: formatPoints(destinations),
		Mode:         maps.TravelModeDriving,
	}

	resp, err := s.callWithRetry(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("distance provider unreachable, using great-circle fallback",
			zap.Int("origins", len(origins)),
			zap.Int("destinations", len(destinations)),
			zap.Error(err))
		return s.fallbackMatrix(origins, destinations), nil
	}

	out := make([][]DistanceResult, len(origins))
	for i := range origins {
		out[i] = make([]DistanceResult, len(destinations))
		for j := range destinations {
			out[i][j] = s.convertCell(resp, origins[i], destinations[j], i, j)
		}
	}
	return out, nil
}

func (s *DistanceService) callWithRetry(ctx context.Context, req *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	attempts := s.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := s.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		}
		resp, err := s.api.DistanceMatrix(callCtx, req)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		s.log.Debug("distance matrix attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (s *DistanceService) convertCell(resp *maps.DistanceMatrixResponse, origin, dest types.Point, i, j int) DistanceResult {
	// Malformed rows from the provider get the fallback estimate per cell.
	if i >= len(resp.Rows) || j >= len(resp.Rows[i].Elements) {
		return s.fallbackCell(origin, dest)
	}
	el := resp.Rows[i].Elements[j]
	if el.Status != "OK" {
		return DistanceResult{
			Origin:       origin,
			Destination:  dest,
			Status:       StatusElementError,
			ErrorMessage: el.Status,
		}
	}
	return DistanceResult{
		Origin:        origin,
		Destination:   dest,
		Miles:         float64(el.Distance.Meters) * milesPerMeter,
		TravelTimeMin: int(math.Ceil(el.Duration.Seconds() / 60.0)),
		Status:        StatusOK,
	}
}

func (s *DistanceService) fallbackMatrix(origins, destinations []types.Point) [][]DistanceResult {
	out := make([][]DistanceResult, len(origins))
	for i, o := range origins {
		out[i] = make([]DistanceResult, len(destinations))
		for j, d := range destinations {
			out[i][j] = s.fallbackCell(o, d)
		}
	}
	return out
}

func (s *DistanceService) fallbackCell(origin, dest types.Point) DistanceResult {
	miles := haversineMiles(origin.Lat, origin.Lng, dest.Lat, dest.Lng) * s.cfg.RoadFactor
	speed := s.cfg.FallbackSpeedMph
	if speed <= 0 {
		speed = 30
	}
	minutes := int(math.Ceil(miles / speed * 60))
	if minutes < 1 {
		minutes = 1
	}
	return DistanceResult{
		Origin:        origin,
		Destination:   dest,
		Miles:         miles,
		TravelTimeMin: minutes,
		Status:        StatusOK,
		Estimated:     true,
	}
}

func formatPoints(points []types.Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
	}
	return out
}
