package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/NobleMathews/dev-versioner/pkg/cache"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/observability"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

// DefaultTTL is the freshness window when none is configured.
const DefaultTTL = 24 * time.Hour

// CacheOptions configures [NewCache].
type CacheOptions struct {
	Keyer  cache.Keyer // nil means cache.DefaultKeyer
	TTL    time.Duration
	Now    func() time.Time // nil means time.Now
	Logger *log.Logger
}

// Cache is the cache-aside layer between callers and the adapters.
//
// A fresh entry (now - timestamp < TTL) is returned as stored. Anything
// else, including read errors and entries that no longer decode, is a miss:
// the resolve function runs, its record is validated, stamped and written
// back. Write failures are logged and never fail the call. Concurrent misses
// for one key share a single resolve.
type Cache struct {
	store  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
	group  singleflight.Group
}

// NewCache wraps store.
func NewCache(store cache.Cache, opts CacheOptions) *Cache {
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Cache{store: store, keyer: opts.Keyer, ttl: opts.TTL, now: opts.Now, logger: opts.Logger}
}

// Key returns the store key for pkg in eco.
func (c *Cache) Key(eco, pkg string) string { return c.keyer.RecordKey(eco, pkg) }

// Prefix is shared by every key this cache writes.
func (c *Cache) Prefix() string { return c.keyer.Prefix() }

// Store returns the underlying store.
func (c *Cache) Store() cache.Cache { return c.store }

// GetOrResolve returns the fresh cached record for (eco, pkg) or runs fn.
// hit reports whether the record came from the store.
func (c *Cache) GetOrResolve(ctx context.Context, eco, pkg string, fn func(context.Context) (*record.Record, error)) (rec *record.Record, hit bool, err error) {
	key := c.Key(eco, pkg)
	if rec, ok := c.lookup(ctx, key); ok {
		return rec, true, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		rec, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := rec.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "%s %s: incomplete record", eco, pkg)
		}
		stamped := rec.Stamp(c.now())
		c.write(ctx, key, stamped)
		return stamped, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := v.(*record.Record)
	if shared {
		out = out.Stamp(out.Timestamp)
	}
	return out, false, nil
}

// Get returns the stored record for (eco, pkg) regardless of freshness.
func (c *Cache) Get(ctx context.Context, eco, pkg string) (*record.Record, bool, error) {
	data, ok, err := c.store.Get(ctx, c.Key(eco, pkg))
	if err != nil || !ok {
		return nil, false, err
	}
	rec, err := decode(data)
	if err != nil {
		return nil, false, nil
	}
	return rec, true, nil
}

// Delete drops the entry for (eco, pkg).
func (c *Cache) Delete(ctx context.Context, eco, pkg string) error {
	return c.store.Delete(ctx, c.Key(eco, pkg))
}

func (c *Cache) lookup(ctx context.Context, key string) (*record.Record, bool) {
	hooks := observability.Cache()

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "err", err)
		hooks.OnCacheError(ctx, key, "get", err)
		return nil, false
	}
	if !ok {
		hooks.OnCacheMiss(ctx, key, false)
		return nil, false
	}

	rec, err := decode(data)
	if err != nil {
		c.logger.Warn("discarding corrupt cache entry", "key", key, "err", err)
		hooks.OnCacheMiss(ctx, key, false)
		return nil, false
	}
	if !rec.Fresh(c.now(), c.ttl) {
		hooks.OnCacheMiss(ctx, key, true)
		return nil, false
	}
	hooks.OnCacheHit(ctx, key)
	return rec, true
}

func (c *Cache) write(ctx context.Context, key string, rec *record.Record) {
	data, err := json.Marshal(rec)
	if err == nil {
		err = c.store.Set(ctx, key, data, c.ttl)
	}
	if err != nil {
		c.logger.Warn("cache write failed", "key", key, "err", err)
		observability.Cache().OnCacheError(ctx, key, "set", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

func decode(data []byte) (*record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}
