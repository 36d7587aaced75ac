package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log
// lines. The CLI registers it when running verbosely.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger, or to log.Default() when nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger}
}

// Register installs h as the resolve, cache and HTTP hooks.
func (h *LogHooks) Register() {
	SetResolveHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnResolveStart(_ context.Context, ecosystem, pkg string) {
	h.Logger.Debug("resolve", "ecosystem", ecosystem, "package", pkg)
}

func (h *LogHooks) OnResolveComplete(_ context.Context, ecosystem, pkg string, source Source, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("resolve failed", "ecosystem", ecosystem, "package", pkg, "took", d.Round(time.Millisecond), "err", err)
		return
	}
	h.Logger.Debug("resolved", "ecosystem", ecosystem, "package", pkg, "source", source, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnFallback(_ context.Context, ecosystem, pkg string) {
	h.Logger.Debug("registry miss, trying vcs", "ecosystem", ecosystem, "package", pkg)
}

func (h *LogHooks) OnBatchComplete(_ context.Context, ecosystem string, total, failed int, d time.Duration) {
	h.Logger.Debug("batch done", "ecosystem", ecosystem, "total", total, "failed", failed, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCacheHit(_ context.Context, key string) {
	h.Logger.Debug("cache hit", "key", key)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, key string, stale bool) {
	h.Logger.Debug("cache miss", "key", key, "stale", stale)
}

func (h *LogHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.Logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *LogHooks) OnCacheError(_ context.Context, key, op string, err error) {
	h.Logger.Warn("cache "+op+" failed", "key", key, "err", err)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ ResolveHooks = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
	_ HTTPHooks    = (*LogHooks)(nil)
)
