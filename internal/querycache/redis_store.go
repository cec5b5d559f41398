package querycache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisNamespace = "cinescope:"

// RedisStore shares the query cache between service instances. Expiry is
// left to Redis.
type RedisStore struct {
	client redis.UniversalClient
	ns     string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, ns: redisNamespace}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.ns+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.ns+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var doomed []string
	iter := s.client.Scan(ctx, 0, scanPattern(s.ns, prefix), 200).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		if Matches(strings.TrimPrefix(full, s.ns), prefix) {
			doomed = append(doomed, full)
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if len(doomed) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, doomed...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del %s: %w", prefix, err)
	}
	return int(n), nil
}

// Sweep is a no-op; Redis expires keys itself.
func (s *RedisStore) Sweep(context.Context) (int, error) { return 0, nil }

// scanPattern over-matches (e.g. "watchlist:u1*" also hits "watchlist:u10");
// callers filter with Matches. Rendered keys are query-escaped, so no glob
// metacharacters can appear in the prefix.
func scanPattern(ns, prefix string) string {
	return ns + prefix + "*"
}
