// README: Address geocoding with an in-process TTL cache; best-effort sibling of the distance service.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"tradedispatch/internal/cache"
	"tradedispatch/internal/config"
	"tradedispatch/internal/types"
)

var ErrAddressNotFound = errors.New("address could not be geocoded")

// geocodeAPI is the slice of the Google Maps client the geocoder needs.
// *maps.Client satisfies it.
type geocodeAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GeocodeService resolves free-form addresses to coordinates. Results are kept
// in a process-local cache keyed by the normalized address string, so repeated
// lookups of the same address within the TTL window cost nothing.
type GeocodeService struct {
	api   geocodeAPI
	cache *cache.TTL[string, types.Point]
	log   *zap.Logger
}

func NewGeocodeService(api geocodeAPI, cfg config.CacheConfig, log *zap.Logger) *GeocodeService {
	return &GeocodeService{
		api:   api,
		cache: cache.New[string, types.Point](cfg.TTL),
		log:   log,
	}
}

func (s *GeocodeService) Lookup(ctx context.Context, address string) (types.Point, error) {
	key := normalizeAddress(address)
	if key == "" {
		return types.Point{}, fmt.Errorf("%w: empty address", ErrAddressNotFound)
	}
	if p, ok := s.cache.Get(key); ok {
		return p, nil
	}

	results, err := s.api.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return types.Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
	}

	loc := results[0].Geometry.Location
	p := types.Point{Lat: loc.Lat, Lng: loc.Lng}
	s.cache.Set(key, p)
	return p, nil
}

func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
