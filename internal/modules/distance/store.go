// README: Distance cache entries in Redis with a fixed TTL.
package distance

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Get returns the raw entry and whether it exists. A backend error is
// returned separately so the caller can degrade it to a miss.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.redis.Set(ctx, key, value, ttl).Err()
}
