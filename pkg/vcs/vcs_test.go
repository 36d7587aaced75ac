package vcs

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/license"
)

type fakeHost struct {
	license  License
	licErr   error
	releases []string
	tags     []string
	files    map[string]string
	relErr   error
	tagErr   error
	calls    atomic.Int32
}

func (h *fakeHost) License(context.Context, string, string) (License, error) {
	h.calls.Add(1)
	return h.license, h.licErr
}

func (h *fakeHost) Releases(context.Context, string, string) ([]string, error) {
	h.calls.Add(1)
	return h.releases, h.relErr
}

func (h *fakeHost) Tags(context.Context, string, string) ([]string, error) {
	h.calls.Add(1)
	return h.tags, h.tagErr
}

func (h *fakeHost) FileContent(_ context.Context, _, _, path string) (string, bool, error) {
	h.calls.Add(1)
	c, ok := h.files[path]
	return c, ok, nil
}

const requireBlock = `module github.com/acme/tool

go 1.21

require (
	example.com/foo v1.2.0
	example.com/bar v0.3.1 // indirect
)
`

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		host        *fakeHost
		wantVersion string
		wantLicense string
		wantDeps    map[string]string
	}{
		{
			name: "tags when no releases",
			host: &fakeHost{
				license: License{Name: "MIT License"},
				tags:    []string{"v1.0.0", "v0.9.0"},
				files:   map[string]string{"go.mod": requireBlock},
			},
			wantVersion: "v1.0.0",
			wantLicense: "MIT License",
			wantDeps:    map[string]string{"example.com/foo": "1.2.0", "example.com/bar": "0.3.1"},
		},
		{
			name: "first release wins",
			host: &fakeHost{
				license:  License{Name: "Apache License 2.0"},
				releases: []string{"v2.1.0", "v2.0.0"},
				tags:     []string{"v9.9.9"},
			},
			wantVersion: "v2.1.0",
			wantLicense: "Apache License 2.0",
			wantDeps:    map[string]string{},
		},
		{
			name: "other license is classified",
			host: &fakeHost{
				license: License{Name: license.Other, Body: "Redistribution and use in source and binary forms"},
			},
			wantVersion: "",
			wantLicense: "BSD 2",
			wantDeps:    map[string]string{},
		},
		{
			name: "unparseable manifest",
			host: &fakeHost{
				license: License{Name: "ISC License"},
				files:   map[string]string{"go.mod": "not a manifest"},
			},
			wantLicense: "ISC License",
			wantDeps:    map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(map[string]Host{GitHub: tt.host}, Options{})
			rec, err := r.Resolve(context.Background(), "https://github.com/acme/tool")
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if rec.Name != "https://github.com/acme/tool" {
				t.Errorf("Name = %q, want the reference as given", rec.Name)
			}
			if rec.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", rec.Version, tt.wantVersion)
			}
			if rec.License != tt.wantLicense {
				t.Errorf("License = %q, want %q", rec.License, tt.wantLicense)
			}
			if rec.Dependencies.IsList() || !reflect.DeepEqual(rec.Dependencies.Map(), tt.wantDeps) {
				t.Errorf("Dependencies = %v, want %v", rec.Dependencies.Map(), tt.wantDeps)
			}
		})
	}
}

func TestResolve_UnsupportedHostMakesNoCalls(t *testing.T) {
	host := &fakeHost{}
	r := NewResolver(map[string]Host{GitHub: host}, Options{})

	for _, ref := range []string{"https://gitlab.com/acme/tool", "gopkg.in/yaml.v3", "cobra"} {
		_, err := r.Resolve(context.Background(), ref)
		if !errors.Is(err, errors.ErrCodeUnsupportedVCSHost) {
			t.Errorf("Resolve(%q) = %v, want UNSUPPORTED_VCS_HOST", ref, err)
		}
	}
	if n := host.calls.Load(); n != 0 {
		t.Errorf("host called %d times", n)
	}
}

func TestResolve_HostErrorsPropagate(t *testing.T) {
	notFound := errors.New(errors.ErrCodeNotFound, "no license")
	r := NewResolver(map[string]Host{GitHub: &fakeHost{licErr: notFound}}, Options{})
	if _, err := r.Resolve(context.Background(), "github.com/acme/tool"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}

	netErr := errors.New(errors.ErrCodeNetwork, "reset")
	r = NewResolver(map[string]Host{GitHub: &fakeHost{tagErr: netErr}}, Options{})
	if _, err := r.Resolve(context.Background(), "github.com/acme/tool"); !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("err = %v, want NETWORK_ERROR", err)
	}
}

func TestResolve_LicenseFailureStopsResolution(t *testing.T) {
	host := &fakeHost{
		licErr: errors.New(errors.ErrCodeNotFound, "no license"),
		relErr: errors.New(errors.ErrCodeNetwork, "releases 502"),
	}
	r := NewResolver(map[string]Host{GitHub: host}, Options{})

	for range 20 {
		host.calls.Store(0)
		_, err := r.Resolve(context.Background(), "github.com/acme/gone")
		if got := errors.GetCode(err); got != errors.ErrCodeNotFound {
			t.Fatalf("code = %q, want NOT_FOUND (err: %v)", got, err)
		}
		if n := host.calls.Load(); n != 1 {
			t.Fatalf("host called %d times after the license failed", n)
		}
	}
}

func TestResolve_ReleasesFailureSkipsManifest(t *testing.T) {
	host := &fakeHost{
		license: License{Name: "MIT"},
		relErr:  errors.New(errors.ErrCodeNetwork, "releases 502"),
		files:   map[string]string{"go.mod": requireBlock},
	}
	r := NewResolver(map[string]Host{GitHub: host}, Options{})

	_, err := r.Resolve(context.Background(), "github.com/acme/tool")
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Fatalf("err = %v, want NETWORK_ERROR", err)
	}
	if n := host.calls.Load(); n != 2 {
		t.Errorf("host called %d times, want license and releases only", n)
	}
}

func TestResolve_ManifestPath(t *testing.T) {
	host := &fakeHost{
		license: License{Name: "MIT"},
		files:   map[string]string{"tools/go.mod": "require example.com/x v0.1.0\n"},
	}
	r := NewResolver(map[string]Host{GitHub: host}, Options{ManifestPath: "tools/go.mod"})
	rec, err := r.Resolve(context.Background(), "github.com/acme/tool")
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Dependencies.Map(); got["example.com/x"] != "0.1.0" {
		t.Errorf("Dependencies = %v", got)
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		repo  string
		path  string
		code  errors.Code
	}{
		{in: "https://github.com/spf13/cobra", owner: "spf13", repo: "cobra"},
		{in: "github.com/spf13/cobra/doc", owner: "spf13", repo: "cobra", path: "doc"},
		{in: "git@github.com:spf13/cobra.git", owner: "spf13", repo: "cobra"},
		{in: "https://www.GitHub.com/spf13/cobra?tab=readme", owner: "spf13", repo: "cobra"},
		{in: "github.com/spf13", code: errors.ErrCodeInvalidPackage},
		{in: "bitbucket.org/a/b", code: errors.ErrCodeUnsupportedVCSHost},
		{in: "", code: errors.ErrCodeUnsupportedVCSHost},
	}
	for _, tt := range tests {
		ref, err := ParseReference(tt.in)
		if got := errors.GetCode(err); got != tt.code {
			t.Errorf("ParseReference(%q) code = %q, want %q", tt.in, got, tt.code)
			continue
		}
		if err == nil && (ref.Owner != tt.owner || ref.Repo != tt.repo || ref.Path != tt.path || ref.Host != GitHub) {
			t.Errorf("ParseReference(%q) = %+v", tt.in, ref)
		}
	}
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{"require block", requireBlock, map[string]string{"example.com/foo": "1.2.0", "example.com/bar": "0.3.1"}},
		{"single require", "module m\nrequire example.com/a v1.0.0\n", map[string]string{"example.com/a": "1.0.0"}},
		{"empty", "", map[string]string{}},
		{"garbage", "}}}", map[string]string{}},
		{
			"regex fallback",
			"require (\n\texample.com/a v1.0.0\n\tbroken line here extra\n)\n",
			map[string]string{"example.com/a": "1.0.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseManifest(tt.content); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseManifest = %v, want %v", got, tt.want)
			}
		})
	}
}
