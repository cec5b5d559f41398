package querycache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"
)

// Cache coalesces identical concurrent reads and keeps their results in a
// Store until they expire or are invalidated.
type Cache struct {
	store  Store
	group  singleflight.Group
	logger hclog.Logger

	// mu orders result writes against invalidation.
	mu      sync.Mutex
	flights map[string]*flight
}

// flight is one upstream call for a key. A stale flight still answers its own
// callers but never writes to the store.
type flight struct {
	stale bool
}

func New(store Store, logger hclog.Logger) *Cache {
	return &Cache{
		store:   store,
		logger:  logger.Named("querycache"),
		flights: make(map[string]*flight),
	}
}

func (c *Cache) Store() Store { return c.store }

// Fetch returns the cached value for key, or calls fetch once for all
// concurrent callers of the same key. fetch runs detached from the caller's
// cancellation. Errors are returned but never cached.
func Fetch[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	k := key.String()

	if v, ok := lookup[T](ctx, c, k); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(k, func() (interface{}, error) {
		f := c.begin(k)
		defer c.end(k, f)

		// Shared by every waiter; the leader's cancellation does not reach it.
		shared := context.WithoutCancel(ctx)
		v, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		c.commit(shared, k, f, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func lookup[T any](ctx context.Context, c *Cache, k string) (T, bool) {
	var v T
	data, ok, err := c.store.Get(ctx, k)
	if err != nil {
		c.logger.Warn("cache read failed", "key", k, "error", err)
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache entry undecodable", "key", k, "error", err)
		return v, false
	}
	return v, true
}

func (c *Cache) begin(k string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &flight{}
	c.flights[k] = f
	return f
}

func (c *Cache) end(k string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flights[k] == f {
		delete(c.flights, k)
	}
}

// commit stores v unless the flight was invalidated or superseded while it
// was running.
func (c *Cache) commit(ctx context.Context, k string, f *flight, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache entry unencodable", "key", k, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if f.stale || c.flights[k] != f {
		c.logger.Debug("discarding stale result", "key", k)
		return
	}
	if err := c.store.Set(ctx, k, data, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", k, "error", err)
	}
}

// InvalidatePrefix drops every cached entry under the given prefixes and
// marks matching in-flight reads stale, so later readers start a fresh call.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefixes ...Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, p := range prefixes {
		prefix := p.String()
		for k, f := range c.flights {
			if Matches(k, prefix) {
				f.stale = true
				c.group.Forget(k)
			}
		}
		n, err := c.store.DeletePrefix(ctx, prefix)
		if err != nil {
			c.logger.Error("cache invalidation failed", "prefix", prefix, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.logger.Debug("invalidated", "prefix", prefix, "entries", n)
	}
	return firstErr
}
