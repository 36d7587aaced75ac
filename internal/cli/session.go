package cli

import (
	"context"

	"github.com/NobleMathews/dev-versioner/pkg/cache"
	"github.com/NobleMathews/dev-versioner/pkg/config"
	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/httputil"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
	"github.com/NobleMathews/dev-versioner/pkg/integrations/github"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
	"github.com/NobleMathews/dev-versioner/pkg/vcs"
)

// session is everything a command needs to resolve packages. Close releases
// the store.
type session struct {
	cfg      *config.Config
	store    cache.Cache
	resolver *resolver.Resolver
}

// openSession wires the resolver from the loaded configuration: one shared
// HTTP fetcher, the registry adapters, the GitHub fallback and the cache
// store. noCache swaps the store for a null one.
func (c *CLI) openSession(ctx context.Context, noCache bool) (*session, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	set, err := ecosystem.NewSet(cfg.Descriptors())
	if err != nil {
		return nil, err
	}

	var opts []httputil.FetcherOption
	if cfg.UserAgent != "" {
		opts = append(opts, httputil.WithDefaultHeader("User-Agent", cfg.UserAgent))
	}
	client := integrations.NewClient(httputil.NewFetcher(cfg.HTTPTimeout.Std(), opts...))

	registry, err := resolver.NewDefaultRegistry(set, client, c.Logger)
	if err != nil {
		return nil, err
	}

	fallback := vcs.NewResolver(map[string]vcs.Host{
		vcs.GitHub: github.NewClient(client, cfg.GitHub.BaseURL, cfg.GitHub.Token),
	}, vcs.Options{
		Rules:        cfg.LicenseRules(),
		ManifestPath: cfg.GitHub.ManifestPath,
		Logger:       c.Logger,
	})

	storeCfg := cfg.Store
	if noCache {
		storeCfg.Backend = config.BackendNone
	}
	store, err := cache.Open(ctx, storeCfg, c.Logger)
	if err != nil {
		return nil, err
	}

	layer := resolver.NewCache(store, resolver.CacheOptions{
		Keyer:  cache.NewScopedKeyer(nil, cfg.Store.Namespace),
		TTL:    cfg.CacheTTL.Std(),
		Logger: c.Logger,
	})

	return &session{
		cfg:   cfg,
		store: store,
		resolver: resolver.New(registry, resolver.Options{
			Cache:       layer,
			Fallback:    fallback,
			Concurrency: cfg.Concurrency,
			Logger:      c.Logger,
		}),
	}, nil
}

// Close closes the cache store.
func (s *session) Close() error {
	return s.store.Close()
}
