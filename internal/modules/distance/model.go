// README: Cache key construction and the serialized cache entry format.
package distance

import (
	"encoding/json"
	"fmt"

	"tradedispatch/internal/maps"
	"tradedispatch/internal/types"
)

// metricDriving discriminates driving-distance entries from any future metric
// kinds sharing the same key space.
const metricDriving = "driving"

// cacheKey builds the redis key for one origin/destination pair. Coordinates
// are rounded to precision decimal places so that keys stay bounded while
// practically identical coordinates collide on the same entry.
func cacheKey(origin, destination types.Point, precision int) string {
	return fmt.Sprintf("geo:dist:%s:%.*f,%.*f:%.*f,%.*f",
		metricDriving,
		precision, origin.Lat, precision, origin.Lng,
		precision, destination.Lat, precision, destination.Lng,
	)
}

// pointKey identifies a coordinate at cache-key precision; the miss set is
// keyed by pointKey pairs rather than positional indices.
func pointKey(p types.Point, precision int) string {
	return fmt.Sprintf("%.*f,%.*f", precision, p.Lat, precision, p.Lng)
}

// cachedEntry is the value serialized into the cache. Only provider-sourced
// results are written; fallback estimates are recomputed on demand.
type cachedEntry struct {
	Miles        float64 `json:"miles"`
	Minutes      int     `json:"minutes"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

func encodeEntry(r maps.DistanceResult) (string, error) {
	b, err := json.Marshal(cachedEntry{
		Miles:        r.Miles,
		Minutes:      r.TravelTimeMin,
		Status:       string(r.Status),
		ErrorMessage: r.ErrorMessage,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeEntry(raw string, origin, destination types.Point) (maps.DistanceResult, error) {
	var e cachedEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return maps.DistanceResult{}, err
	}
	return maps.DistanceResult{
		Origin:        origin,
		Destination:   destination,
		Miles:         e.Miles,
		TravelTimeMin: e.Minutes,
		Status:        maps.DistanceStatus(e.Status),
		ErrorMessage:  e.ErrorMessage,
	}, nil
}
