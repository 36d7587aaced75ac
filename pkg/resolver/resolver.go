// Package resolver turns (ecosystem, package) requests into records.
//
// A [Resolver] looks the ecosystem up in its [Registry], consults the
// [Cache], and on a miss asks the registry adapter. When the registry
// reports NOT_FOUND and the ecosystem enables it, the VCS [Fallback] gets a
// turn with the package string as repository reference. Successful results
// are validated, timestamped and written back; failures never touch the
// store.
//
// [Resolver.ResolveBatch] fans a list of packages out over a bounded pool.
package resolver

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/NobleMathews/dev-versioner/pkg/cache"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/observability"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

// DefaultConcurrency bounds batch fan-out when none is configured.
const DefaultConcurrency = 8

// Options configures a [Resolver].
type Options struct {
	// Cache fronts every resolution. Nil means no caching.
	Cache *Cache

	// Fallback handles registry misses for ecosystems with vcs_fallback.
	// Nil disables the fallback.
	Fallback Fallback

	Concurrency int
	Logger      *log.Logger
}

// Resolver resolves packages through the registry, cache and fallback.
// It is safe for concurrent use.
type Resolver struct {
	registry    *Registry
	cache       *Cache
	fallback    Fallback
	concurrency int
	logger      *log.Logger
}

// New creates a resolver.
func New(registry *Registry, opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Cache == nil {
		opts.Cache = NewCache(cache.NewNullCache(), CacheOptions{Logger: opts.Logger})
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Resolver{
		registry:    registry,
		cache:       opts.Cache,
		fallback:    opts.Fallback,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// Registry returns the adapter lookup table.
func (r *Resolver) Registry() *Registry { return r.registry }

// Cache returns the cache layer.
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve returns the record for pkg in eco. An empty version asks for the
// latest release; a pinned version is cached under its own key.
//
// Errors carry codes: UNSUPPORTED_ECOSYSTEM, INVALID_PACKAGE, NOT_FOUND,
// UNSUPPORTED_VCS_HOST, PARSE_ERROR, NETWORK_ERROR and TIMEOUT.
func (r *Resolver) Resolve(ctx context.Context, eco, pkg, version string) (*record.Record, error) {
	desc, adapter, err := r.registry.Lookup(eco)
	if err != nil {
		return nil, err
	}
	if err := errors.ValidatePackageName(pkg); err != nil {
		return nil, err
	}
	if !desc.VCSFallback {
		if err := desc.ValidatePackage(pkg); err != nil {
			return nil, err
		}
	}

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, desc.ID, pkg)
	start := time.Now()

	source := observability.SourceRegistry
	key := pkg
	if version != "" {
		key = pkg + "@" + version
	}
	rec, hit, err := r.cache.GetOrResolve(ctx, desc.ID, key, func(ctx context.Context) (*record.Record, error) {
		rec, err := adapter.Resolve(ctx, pkg, version)
		if err == nil || !errors.Is(err, errors.ErrCodeNotFound) || !desc.VCSFallback || r.fallback == nil {
			return rec, err
		}
		r.logger.Debug("registry miss, trying repository", "ecosystem", desc.ID, "package", pkg)
		hooks.OnFallback(ctx, desc.ID, pkg)
		source = observability.SourceVCS
		return r.fallback.Resolve(ctx, pkg)
	})
	if hit {
		source = observability.SourceCache
	}
	hooks.OnResolveComplete(ctx, desc.ID, pkg, source, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
