package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const scanBatchSize = 100

func NewRedisCache(client *redis.Client) *RedisCache {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "redis-cache",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A miss is a normal outcome, not a sign of an unhealthy Redis.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
	})

	return &RedisCache{
		client: client,
		cb:     cb,
	}
}

// RedisCache is a byte-oriented response cache. All operations run through a
// circuit breaker: when Redis is down the breaker opens after a few failures
// and subsequent calls fail fast instead of holding requests on a dead
// connection. Callers treat any error as a miss.
type RedisCache struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker[any]
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.cb.Execute(func() (any, error) {
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		if err != nil {
			return nil, fmt.Errorf("redis get failed: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// Jitter spreads expiry so a burst of entries cached together doesn't
	// expire together.
	ttl += time.Duration(rand.Intn(10)) * time.Second

	_, err := r.cb.Execute(func() (any, error) {
		if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
			return nil, fmt.Errorf("redis set failed: %w", err)
		}
		return nil, nil
	})
	return err
}

// DeleteByPrefix removes every key under the given prefix via SCAN so the
// whole read namespace of a domain can be invalidated at once. Returns the
// number of keys removed.
func (r *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	v, err := r.cb.Execute(func() (any, error) {
		var (
			cursor  uint64
			deleted int
		)
		for {
			keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis scan failed: %w", err)
			}
			if len(keys) > 0 {
				n, err := r.client.Del(ctx, keys...).Result()
				if err != nil {
					return deleted, fmt.Errorf("redis del failed: %w", err)
				}
				deleted += int(n)
			}
			cursor = next
			if cursor == 0 {
				return deleted, nil
			}
		}
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
