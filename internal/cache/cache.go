package cache

import (
	"context"
	"errors"
	"time"
)

// Cache stores serialized response bodies. It is never authoritative: a miss
// or an error must only ever cost a fresh read from the database.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

var ErrCacheMiss = errors.New("cache miss")
