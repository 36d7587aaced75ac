package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/NobleMathews/dev-versioner/pkg/config"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/httputil"
)

const (
	connectAttempts = 3
	connectDelay    = 500 * time.Millisecond
)

// Open builds the store named by cfg.Backend. Networked backends are
// retried a few times while connecting; once open, store calls are never
// retried.
func Open(ctx context.Context, cfg config.Store, logger *log.Logger) (Cache, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Debug("opening cache", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendNone:
		return NewNullCache(), nil
	case config.BackendMemory:
		return NewMemoryCache(), nil
	case config.BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			dir = config.DefaultCacheDir()
		}
		return NewFileCache(dir)
	case config.BackendRedis:
		return connect(ctx, logger, cfg.Backend, func(ctx context.Context) (Cache, error) {
			return NewRedisCache(ctx, RedisOptions{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
		})
	case config.BackendMongo:
		return connect(ctx, logger, cfg.Backend, func(ctx context.Context) (Cache, error) {
			return NewMongoCache(ctx, MongoOptions{URI: cfg.URI, Database: cfg.Database, Collection: cfg.Collection})
		})
	case config.BackendSQLite:
		return NewSQLCache(ctx, DriverSQLite, cfg.DSN, cfg.Collection)
	case config.BackendPostgres:
		return connect(ctx, logger, cfg.Backend, func(ctx context.Context) (Cache, error) {
			return NewSQLCache(ctx, DriverPostgres, cfg.DSN, cfg.Collection)
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
}

func connect(ctx context.Context, logger *log.Logger, backend string, open func(context.Context) (Cache, error)) (Cache, error) {
	var c Cache
	attempt := 0
	err := httputil.Retry(ctx, connectAttempts, connectDelay, func(ctx context.Context) error {
		attempt++
		var err error
		c, err = open(ctx)
		if errors.Is(err, errors.ErrCodeInvalidConfig) {
			return err
		}
		if err != nil {
			logger.Warn("cache connect failed", "backend", backend, "attempt", attempt, "err", err)
			return httputil.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
