package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NobleMathews/dev-versioner/pkg/cache"
	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

type fakeAdapter struct {
	id    string
	calls atomic.Int32
	fn    func(pkg, version string) (*record.Record, error)
}

func (a *fakeAdapter) Ecosystem() string { return a.id }

func (a *fakeAdapter) Resolve(_ context.Context, pkg, version string) (*record.Record, error) {
	a.calls.Add(1)
	if a.fn != nil {
		return a.fn(pkg, version)
	}
	return &record.Record{
		Name:         pkg,
		Version:      "17.0.2",
		License:      "MIT",
		Dependencies: record.Constraints(map[string]string{"loose-envify": "^1.1.0", "object-assign": "^4.1.1"}),
	}, nil
}

type fakeFallback struct {
	calls atomic.Int32
}

func (f *fakeFallback) Resolve(_ context.Context, ref string) (*record.Record, error) {
	f.calls.Add(1)
	return &record.Record{Name: ref, Version: "v1.0.0", License: "MIT", Dependencies: record.Constraints(nil)}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func testRegistry(t *testing.T, adapters ...Adapter) *Registry {
	t.Helper()
	set, err := ecosystem.NewSet(ecosystem.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	reg, err := NewRegistry(set, adapters...)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestResolve_Freshness(t *testing.T) {
	const ttl = time.Hour
	t0 := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	clk := &clock{now: t0}

	npm := &fakeAdapter{id: ecosystem.JavaScript}
	r := New(testRegistry(t, npm), Options{
		Cache: NewCache(cache.NewMemoryCache(), CacheOptions{TTL: ttl, Now: clk.Now}),
	})
	ctx := context.Background()

	tests := []struct {
		at        time.Time
		wantCalls int32
	}{
		{t0, 1},
		{t0.Add(ttl - time.Second), 1},
		{t0.Add(ttl + time.Second), 2},
	}
	for _, tt := range tests {
		clk.Set(tt.at)
		if _, err := r.Resolve(ctx, "javascript", "react", ""); err != nil {
			t.Fatal(err)
		}
		if got := npm.calls.Load(); got != tt.wantCalls {
			t.Errorf("at t0+%v: adapter calls = %d, want %d", tt.at.Sub(t0), got, tt.wantCalls)
		}
	}
}

func TestResolve_PinnedVersionHasOwnEntry(t *testing.T) {
	npm := &fakeAdapter{id: ecosystem.JavaScript, fn: func(pkg, version string) (*record.Record, error) {
		if version == "" {
			version = "17.0.2"
		}
		return &record.Record{Name: pkg, Version: version, License: "MIT", Dependencies: record.Constraints(nil)}, nil
	}}
	c := NewCache(cache.NewMemoryCache(), CacheOptions{TTL: time.Hour})
	r := New(testRegistry(t, npm), Options{Cache: c})
	ctx := context.Background()

	for _, version := range []string{"", "16.14.0", "", "16.14.0"} {
		if _, err := r.Resolve(ctx, "javascript", "react", version); err != nil {
			t.Fatal(err)
		}
	}
	if npm.calls.Load() != 2 {
		t.Errorf("adapter calls = %d, want one per version", npm.calls.Load())
	}

	pinned, ok, err := c.Get(ctx, "javascript", "react@16.14.0")
	if err != nil || !ok || pinned.Version != "16.14.0" {
		t.Errorf("pinned entry = %+v, ok=%v, err=%v", pinned, ok, err)
	}
	latest, ok, err := c.Get(ctx, "javascript", "react")
	if err != nil || !ok || latest.Version != "17.0.2" {
		t.Errorf("latest entry = %+v, ok=%v, err=%v", latest, ok, err)
	}
}

func TestResolve_CachedRecordIsByteIdentical(t *testing.T) {
	npm := &fakeAdapter{id: ecosystem.JavaScript}
	r := New(testRegistry(t, npm), Options{
		Cache: NewCache(cache.NewMemoryCache(), CacheOptions{TTL: time.Hour}),
	})
	ctx := context.Background()

	first, err := r.Resolve(ctx, "npm", "react", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(ctx, "javascript", "react", "")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Errorf("second resolve differs:\n%s\n%s", a, b)
	}
	if npm.calls.Load() != 1 {
		t.Errorf("adapter calls = %d, want 1", npm.calls.Load())
	}
	if first.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not UTC: %v", first.Timestamp)
	}
}

func TestResolve_Fallback(t *testing.T) {
	notFound := func(pkg, _ string) (*record.Record, error) {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: status 404", pkg)
	}
	goAdapter := &fakeAdapter{id: ecosystem.Go, fn: notFound}
	pyAdapter := &fakeAdapter{id: ecosystem.Python, fn: notFound}
	fb := &fakeFallback{}
	store := cache.NewMemoryCache()
	r := New(testRegistry(t, goAdapter, pyAdapter), Options{
		Cache:    NewCache(store, CacheOptions{TTL: time.Hour}),
		Fallback: fb,
	})
	ctx := context.Background()

	rec, err := r.Resolve(ctx, "go", "https://github.com/acme/tool", "")
	if err != nil {
		t.Fatalf("go fallback: %v", err)
	}
	if rec.Name != "https://github.com/acme/tool" || fb.calls.Load() != 1 {
		t.Errorf("record %+v, fallback calls %d", rec, fb.calls.Load())
	}
	if store.Len() != 1 {
		t.Errorf("fallback result should be cached, store has %d entries", store.Len())
	}

	if _, err := r.Resolve(ctx, "python", "no-such-pkg", ""); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("python miss should surface NOT_FOUND, got %v", err)
	}
	if fb.calls.Load() != 1 {
		t.Error("fallback must not run for python")
	}
}

func TestResolve_FailuresAreNotCached(t *testing.T) {
	calls := 0
	npm := &fakeAdapter{id: ecosystem.JavaScript, fn: func(pkg, _ string) (*record.Record, error) {
		calls++
		if calls == 1 {
			return nil, errors.New(errors.ErrCodeNetwork, "connection reset")
		}
		return &record.Record{Name: pkg, Version: "1", License: "MIT", Dependencies: record.Constraints(nil)}, nil
	}}
	store := cache.NewMemoryCache()
	r := New(testRegistry(t, npm), Options{Cache: NewCache(store, CacheOptions{TTL: time.Hour})})
	ctx := context.Background()

	if _, err := r.Resolve(ctx, "javascript", "left-pad", ""); !errors.Is(err, errors.ErrCodeNetwork) {
		t.Fatalf("err = %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("error path wrote to the store")
	}
	if _, err := r.Resolve(ctx, "javascript", "left-pad", ""); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestResolve_IncompleteRecordIsParseError(t *testing.T) {
	npm := &fakeAdapter{id: ecosystem.JavaScript, fn: func(pkg, _ string) (*record.Record, error) {
		return &record.Record{Name: pkg, Version: "1"}, nil
	}}
	store := cache.NewMemoryCache()
	r := New(testRegistry(t, npm), Options{Cache: NewCache(store, CacheOptions{})})
	if _, err := r.Resolve(context.Background(), "javascript", "x", ""); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("err = %v", err)
	}
	if store.Len() != 0 {
		t.Error("incomplete record persisted")
	}
}

func TestResolve_InputErrors(t *testing.T) {
	r := New(testRegistry(t, &fakeAdapter{id: ecosystem.JavaScript}), Options{})
	ctx := context.Background()

	tests := []struct {
		eco, pkg string
		want     errors.Code
	}{
		{"cobol", "x", errors.ErrCodeUnsupportedEcosystem},
		{"python", "requests", errors.ErrCodeUnsupportedEcosystem}, // declared, no adapter
		{"javascript", "../etc/passwd", errors.ErrCodeInvalidPackage},
		{"javascript", "", errors.ErrCodeInvalidPackage},
		{"javascript", "Not Valid", errors.ErrCodeInvalidPackage},
	}
	for _, tt := range tests {
		if _, err := r.Resolve(ctx, tt.eco, tt.pkg, ""); errors.GetCode(err) != tt.want {
			t.Errorf("Resolve(%q, %q) = %v, want %s", tt.eco, tt.pkg, err, tt.want)
		}
	}
}

type brokenStore struct{ *cache.NullCache }

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New(errors.ErrCodeInternal, "store down")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New(errors.ErrCodeInternal, "store down")
}

func TestCache_StoreFailuresDoNotFailResolution(t *testing.T) {
	npm := &fakeAdapter{id: ecosystem.JavaScript}
	r := New(testRegistry(t, npm), Options{Cache: NewCache(brokenStore{&cache.NullCache{}}, CacheOptions{TTL: time.Hour})})
	rec, err := r.Resolve(context.Background(), "javascript", "react", "")
	if err != nil || rec.License != "MIT" {
		t.Fatalf("Resolve = %+v, %v", rec, err)
	}
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	store := cache.NewMemoryCache()
	c := NewCache(store, CacheOptions{TTL: time.Hour})
	ctx := context.Background()
	store.Set(ctx, c.Key("javascript", "react"), []byte(`{"name":`), 0)

	npm := &fakeAdapter{id: ecosystem.JavaScript}
	r := New(testRegistry(t, npm), Options{Cache: c})
	if _, err := r.Resolve(ctx, "javascript", "react", ""); err != nil {
		t.Fatal(err)
	}
	if npm.calls.Load() != 1 {
		t.Error("corrupt entry should trigger a resolve")
	}
	if rec, ok, _ := c.Get(ctx, "javascript", "react"); !ok || rec.Version != "17.0.2" {
		t.Errorf("entry not replaced: %+v %v", rec, ok)
	}
}

func TestCache_ConcurrentMissesShareOneResolve(t *testing.T) {
	release := make(chan struct{})
	npm := &fakeAdapter{id: ecosystem.JavaScript, fn: func(pkg, _ string) (*record.Record, error) {
		<-release
		return &record.Record{Name: pkg, Version: "1", License: "MIT", Dependencies: record.Names([]string{"a"})}, nil
	}}
	r := New(testRegistry(t, npm), Options{Cache: NewCache(cache.NewMemoryCache(), CacheOptions{TTL: time.Hour})})

	var wg sync.WaitGroup
	recs := make([]*record.Record, 8)
	for i := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs[i], _ = r.Resolve(context.Background(), "javascript", "react", "")
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := npm.calls.Load(); n != 1 {
		t.Errorf("adapter calls = %d, want 1", n)
	}
	for i, rec := range recs {
		if rec == nil {
			t.Fatalf("result %d missing", i)
		}
		if i > 0 && rec == recs[0] {
			t.Error("callers must not share one record value")
		}
	}
}

func TestNewRegistry(t *testing.T) {
	set, _ := ecosystem.NewSet(ecosystem.Defaults())

	if _, err := NewRegistry(set, &fakeAdapter{id: "rust"}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("undeclared ecosystem: %v", err)
	}
	if _, err := NewRegistry(set, &fakeAdapter{id: "go"}, &fakeAdapter{id: "go"}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("duplicate adapter: %v", err)
	}

	reg, err := NewDefaultRegistry(set, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := reg.IDs(); len(got) != 3 || got[0] != "go" || got[1] != "javascript" || got[2] != "python" {
		t.Errorf("IDs = %v", got)
	}
	if d, _, err := reg.Lookup("PyPI"); err != nil || d.ID != ecosystem.Python {
		t.Errorf("alias lookup = %v, %v", d.ID, err)
	}
}
