package maps

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"tradedispatch/internal/config"
	"tradedispatch/internal/types"
)

// fakeMatrixAPI scripts provider behavior per attempt and counts calls.
type fakeMatrixAPI struct {
	calls    int
	failures int // number of leading calls that return an error
	resp     *maps.DistanceMatrixResponse
	lastReq  *maps.DistanceMatrixRequest
}

func (f *fakeMatrixAPI) DistanceMatrix(_ context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	f.calls++
	f.lastReq = r
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.resp, nil
}

func testProviderCfg() config.ProviderConfig {
	cfg := config.DefaultProvider("test-key")
	cfg.InitialBackoff = time.Millisecond
	return cfg
}

func okElement(meters int, duration time.Duration) *maps.DistanceMatrixElement {
	return &maps.DistanceMatrixElement{
		Status:   "OK",
		Duration: duration,
		Distance: maps.Distance{Meters: meters},
	}
}

func matrixResponse(rows ...[]*maps.DistanceMatrixElement) *maps.DistanceMatrixResponse {
	resp := &maps.DistanceMatrixResponse{}
	for _, els := range rows {
		resp.Rows = append(resp.Rows, maps.DistanceMatrixElementsRow{Elements: els})
	}
	return resp
}

var (
	pointA = types.Point{Lat: 40.7128, Lng: -74.0060}
	pointB = types.Point{Lat: 40.7580, Lng: -73.9855}
	pointC = types.Point{Lat: 40.6413, Lng: -73.7781}
)

func TestGetDistanceBatch_ConvertsUnits(t *testing.T) {
	api := &fakeMatrixAPI{
		resp: matrixResponse([]*maps.DistanceMatrixElement{
			okElement(8047, 610*time.Second), // ~5.0 miles, 10m10s -> ceil 11 min
		}),
	}
	svc := NewDistanceService(api, testProviderCfg(), zap.NewNop())

	out, err := svc.GetDistanceBatch(context.Background(), []types.Point{pointA}, []types.Point{pointB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cell := out[0][0]
	if cell.Status != StatusOK {
		t.Fatalf("status = %s, want OK", cell.Status)
	}
	wantMiles := 8047 * milesPerMeter
	if math.Abs(cell.Miles-wantMiles) > 1e-9 {
		t.Errorf("miles = %f, want %f", cell.Miles, wantMiles)
	}
	if cell.TravelTimeMin != 11 {
		t.Errorf("travel time = %d min, want 11 (ceiling of 610s)", cell.TravelTimeMin)
	}
	if cell.Estimated {
		t.Error("provider-sourced cell must not be marked estimated")
	}
	if api.calls != 1 {
		t.Errorf("provider calls = %d, want 1", api.calls)
	}
}

func TestGetDistanceBatch_RetriesTransportFailures(t *testing.T) {
	api := &fakeMatrixAPI{
		failures: 2,
		resp: matrixResponse([]*maps.DistanceMatrixElement{
			okElement(1609, 60*time.Second),
		}),
	}
	svc := NewDistanceService(api, testProviderCfg(), zap.NewNop())

	out, err := svc.GetDistanceBatch(context.Background(), []types.Point{pointA}, []types.Point{pointB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.calls != 3 {
		t.Errorf("provider calls = %d, want 3 (two failures then success)", api.calls)
	}
	if out[0][0].Status != StatusOK || out[0][0].Estimated {
		t.Errorf("expected real provider result after retries, got %+v", out[0][0])
	}
}

func TestGetDistanceBatch_FallsBackWhenProviderDown(t *testing.T) {
	api := &fakeMatrixAPI{failures: 100}
	svc := NewDistanceService(api, testProviderCfg(), zap.NewNop())

	out, err := svc.GetDistanceBatch(context.Background(), []types.Point{pointA}, []types.Point{pointB, pointC})
	if err != nil {
		t.Fatalf("fallback must not return an error, got %v", err)
	}
	if api.calls != 3 {
		t.Errorf("provider calls = %d, want exactly MaxAttempts (3)", api.calls)
	}
	for j, cell := range out[0] {
		if cell.Status != StatusOK || !cell.Estimated {
			t.Errorf("cell %d: expected estimated OK cell, got %+v", j, cell)
		}
		if cell.Miles <= 0 || math.IsInf(cell.Miles, 0) || math.IsNaN(cell.Miles) {
			t.Errorf("cell %d: fallback distance must be positive and finite, got %f", j, cell.Miles)
		}
		if cell.TravelTimeMin <= 0 {
			t.Errorf("cell %d: fallback travel time must be positive, got %d", j, cell.TravelTimeMin)
		}
	}
}

func TestGetDistanceBatch_ElementErrorsNotRetried(t *testing.T) {
	api := &fakeMatrixAPI{
		resp: matrixResponse([]*maps.DistanceMatrixElement{
			okElement(1609, 60*time.Second),
			{Status: "ZERO_RESULTS"},
		}),
	}
	svc := NewDistanceService(api, testProviderCfg(), zap.NewNop())

	out, err := svc.GetDistanceBatch(context.Background(), []types.Point{pointA}, []types.Point{pointB, pointC})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.calls != 1 {
		t.Errorf("provider calls = %d, want 1 — element failures must not trigger retries", api.calls)
	}
	if out[0][0].Status != StatusOK {
		t.Errorf("healthy cell should stay OK, got %s", out[0][0].Status)
	}
	bad := out[0][1]
	if bad.Status != StatusElementError || bad.ErrorMessage != "ZERO_RESULTS" {
		t.Errorf("expected surfaced element error, got %+v", bad)
	}
}

func TestGetDistanceBatch_ValidatesCoordinatesBeforeCalling(t *testing.T) {
	tests := []struct {
		name    string
		origins []types.Point
		dests   []types.Point
	}{
		{"latitude below range", []types.Point{{Lat: -91, Lng: 0}}, []types.Point{pointB}},
		{"latitude above range", []types.Point{{Lat: 91, Lng: 0}}, []types.Point{pointB}},
		{"longitude below range", []types.Point{pointA}, []types.Point{{Lat: 0, Lng: -181}}},
		{"longitude above range", []types.Point{pointA}, []types.Point{{Lat: 0, Lng: 181}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeMatrixAPI{}
			svc := NewDistanceService(api, testProviderCfg(), zap.NewNop())
			_, err := svc.GetDistanceBatch(context.Background(), tt.origins, tt.dests)
			if !errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("error = %v, want ErrInvalidCoordinate", err)
			}
			if api.calls != 0 {
				t.Errorf("provider calls = %d, invalid input must never reach the network", api.calls)
			}
		})
	}
}

func TestGetDistanceBatch_HonorsCancellation(t *testing.T) {
	api := &fakeMatrixAPI{failures: 100}
	cfg := testProviderCfg()
	cfg.InitialBackoff = time.Second
	svc := NewDistanceService(api, cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GetDistanceBatch(ctx, []types.Point{pointA}, []types.Point{pointB})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
