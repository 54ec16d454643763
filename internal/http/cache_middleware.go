package http

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fjod/go_food/internal/cache"
	"golang.org/x/sync/singleflight"
)

// cacheOpTimeout bounds every cache round-trip. A slow or dead cache must
// never hold a request hostage: on timeout the request degrades to a miss.
const cacheOpTimeout = 500 * time.Millisecond

// ResponseCache is a read-through cache over idempotent GET endpoints. Keys
// are derived from the full request URI, so list and by-id reads each get
// distinct entries under one invalidatable namespace. Only 200 responses are
// stored: caching a not-found body would mask an item created later under
// the same signature. Concurrent misses for one key are collapsed with
// singleflight so the underlying handler runs once.
func ResponseCache(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	var sfg singleflight.Group

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := "cache:" + r.URL.RequestURI()

			ctx, cancel := context.WithTimeout(r.Context(), cacheOpTimeout)
			data, err := c.Get(ctx, key)
			cancel()
			if err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				if _, e2 := w.Write(data); e2 != nil {
					log.Printf("failed to write cached response: %v", e2)
				}
				return
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				log.Printf("cache get error: %v", err)
			}

			v, _, shared := sfg.Do(key, func() (interface{}, error) {
				rec := newResponseRecorder()
				next.ServeHTTP(rec, r)

				if rec.status == http.StatusOK {
					setCtx, setCancel := context.WithTimeout(context.Background(), cacheOpTimeout)
					defer setCancel()
					if e2 := c.Set(setCtx, key, rec.body.Bytes(), ttl); e2 != nil {
						log.Printf("cache set error: %v", e2)
					}
				}
				return rec, nil
			})

			rec := v.(*responseRecorder)
			for k, vals := range rec.header {
				for _, val := range vals {
					w.Header().Add(k, val)
				}
			}
			if shared {
				w.Header().Set("X-Cache", "HIT")
			}
			w.WriteHeader(rec.status)
			if _, e2 := w.Write(rec.body.Bytes()); e2 != nil {
				log.Printf("failed to write response: %v", e2)
			}
		})
	}
}

type responseRecorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header)}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}
