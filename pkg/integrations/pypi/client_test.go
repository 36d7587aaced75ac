package pypi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/httputil"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

var aiohttpRequires = []string{
	"attrs>=17.3.0",
	"chardet<4.0,>=2.0",
	"multidict<7.0,>=4.5",
	"async-timeout<4.0,>=3.0",
	"yarl<2.0,>=1.0",
	"typing-extensions>=3.6.5",
	`idna-ssl>=1.0; python_version < "3.7"`,
	`aiodns; extra == "speedups"`,
	`brotlipy; extra == "speedups"`,
	`cchardet; extra == "speedups"`,
}

func TestAdapter_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/aiohttp/3.7.2/json" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"info": map[string]any{
				"name":          "aiohttp",
				"version":       "3.7.2",
				"license":       "Apache 2",
				"requires_dist": aiohttpRequires,
			},
		})
	}))
	defer server.Close()

	rec, err := testAdapter(server.URL).Resolve(context.Background(), "aiohttp", "3.7.2")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if rec.Name != "aiohttp" || rec.Version != "3.7.2" || rec.License != "Apache 2" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Dependencies.IsList() || rec.Dependencies.Len() != 10 {
		t.Fatalf("expected 10 mapped dependencies, got %v", rec.Dependencies.Map())
	}
	deps := rec.Dependencies.Map()
	if deps["chardet"] != "<4.0,>=2.0" {
		t.Errorf("chardet constraint = %q", deps["chardet"])
	}
	if deps["idna-ssl"] != `>=1.0; python_version < "3.7"` {
		t.Errorf("marker not kept: %q", deps["idna-ssl"])
	}
	if deps["cchardet"] != `; extra == "speedups"` {
		t.Errorf("extra marker = %q", deps["cchardet"])
	}
}

func TestAdapter_Resolve_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := testAdapter(server.URL).Resolve(context.Background(), "missing-pkg", "")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestAdapter_Resolve_ParseFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no info", `{"releases":{}}`},
		{"info not object", `{"info":[1,2]}`},
		{"no version", `{"info":{"license":"MIT"}}`},
		{"null version", `{"info":{"version":null}}`},
		{"deps not list", `{"info":{"version":"1","license":"MIT","requires_dist":"x"}}`},
		{"no license or deps", `{"info":{"version":"1.0"}}`},
		{"no license", `{"info":{"version":"1.0","requires_dist":[]}}`},
		{"no deps", `{"info":{"version":"1.0","license":"MIT"}}`},
		{"not json", `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testAdapter(server.URL).Resolve(context.Background(), "pkg", "")
			if !errors.Is(err, errors.ErrCodeParse) {
				t.Errorf("expected PARSE_ERROR, got %v", err)
			}
		})
	}
}

func TestAdapter_Resolve_NullDependencies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info":{"version":"1.0","license":null,"requires_dist":null,
			"classifiers":["License :: OSI Approved :: MIT License"]}}`))
	}))
	defer server.Close()

	rec, err := testAdapter(server.URL).Resolve(context.Background(), "six", "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.License != "MIT License" {
		t.Errorf("classifier fallback = %q", rec.License)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("record should be complete: %v", err)
	}
	if rec.Dependencies.Len() != 0 {
		t.Errorf("expected no dependencies, got %v", rec.Dependencies.Map())
	}
}

func TestExtractDeps(t *testing.T) {
	tests := []struct {
		input []string
		want  map[string]string
	}{
		{[]string{"requests", "numpy; extra == 'dev'"}, map[string]string{"requests": "", "numpy": "; extra == 'dev'"}},
		{[]string{"Django>=3.0", "django<5"}, map[string]string{"django": ">=3.0"}},
		{[]string{"requests[socks] (>=2.0)"}, map[string]string{"requests": ">=2.0"}},
		{[]string{"Typing_Extensions>=4"}, map[string]string{"typing-extensions": ">=4"}},
		{[]string{"", "  "}, map[string]string{}},
	}

	for _, tt := range tests {
		got := extractDeps(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("extractDeps(%v) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("extractDeps(%v)[%q] = %q, want %q", tt.input, k, got[k], v)
			}
		}
	}
}

func TestExtractLicense(t *testing.T) {
	tests := []struct {
		name        string
		license     string
		expression  string
		classifiers []string
		want        string
	}{
		{"short field", "BSD-3-Clause", "", nil, "BSD-3-Clause"},
		{"expression", "", "MIT OR Apache-2.0", nil, "MIT OR Apache-2.0"},
		{"classifier", "", "", []string{"Programming Language :: Python", "License :: OSI Approved :: MIT License"}, "MIT License"},
		{"long text first line", "Apache License\nVersion 2.0, January 2004\n...", "", nil, "Apache License"},
		{"nothing", "", "", nil, record.LicenseUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractLicense(tt.license, tt.expression, tt.classifiers); got != tt.want {
				t.Errorf("extractLicense() = %q, want %q", got, tt.want)
			}
		})
	}
}

func testAdapter(serverURL string) *Adapter {
	desc := ecosystem.Defaults()[0]
	desc.BaseURL = serverURL
	return NewAdapter(desc, integrations.NewClient(httputil.NewFetcher(time.Second)))
}
