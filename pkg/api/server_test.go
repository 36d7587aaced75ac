package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/record"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

type stubAdapter struct{ id string }

func (a stubAdapter) Ecosystem() string { return a.id }

func (a stubAdapter) Resolve(_ context.Context, pkg, version string) (*record.Record, error) {
	switch pkg {
	case "missing", "github.com/acme/gone":
		return nil, errors.New(errors.ErrCodeNotFound, "%s: status 404", pkg)
	case "slow":
		return nil, errors.New(errors.ErrCodeTimeout, "deadline exceeded")
	case "panic":
		panic("adapter bug")
	}
	if version == "" {
		version = "1.0.0"
	}
	return &record.Record{Name: pkg, Version: version, License: "MIT", Dependencies: record.Constraints(nil)}, nil
}

type stubFallback struct{}

func (stubFallback) Resolve(_ context.Context, ref string) (*record.Record, error) {
	return nil, errors.New(errors.ErrCodeUnsupportedVCSHost, "VCS used by %s is not supported", ref)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	set, err := ecosystem.NewSet(ecosystem.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	reg, err := resolver.NewRegistry(set, stubAdapter{ecosystem.JavaScript}, stubAdapter{ecosystem.Go})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewServer(resolver.New(reg, resolver.Options{Fallback: stubFallback{}}), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_ResolveOne(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		status   int
		wantBody string
	}{
		{"scoped npm package", "/v1/npm/packages/@babel/core?version=7.0.0", http.StatusOK, `"version":"7.0.0"`},
		{"escaped name", "/v1/javascript/packages/%40babel%2Fcore", http.StatusOK, `"name":"@babel/core"`},
		{"not found", "/v1/javascript/packages/missing", http.StatusNotFound, `"NOT_FOUND"`},
		{"unknown ecosystem", "/v1/cobol/packages/x", http.StatusBadRequest, `"UNSUPPORTED_ECOSYSTEM"`},
		{"declared without adapter", "/v1/python/packages/requests", http.StatusBadRequest, `"UNSUPPORTED_ECOSYSTEM"`},
		{"unsupported vcs host", "/v1/go/packages/github.com/acme/gone", http.StatusUnprocessableEntity, `"UNSUPPORTED_VCS_HOST"`},
		{"timeout", "/v1/javascript/packages/slow", http.StatusGatewayTimeout, `"TIMEOUT"`},
		{"panic recovered", "/v1/javascript/packages/panic", http.StatusInternalServerError, ``},
		{"purl", "/v1/purl?purl=pkg:npm/react@17.0.2", http.StatusOK, `"version":"17.0.2"`},
		{"bad purl", "/v1/purl?purl=react", http.StatusBadRequest, `"INVALID_PACKAGE"`},
		{"health", "/healthz", http.StatusOK, `"status":"ok"`},
		{"ecosystems", "/v1/ecosystems", http.StatusOK, `["go","javascript"]`},
		{"unknown route", "/v2/x", http.StatusNotFound, `"NOT_FOUND"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			var body strings.Builder
			_, _ = io.Copy(&body, resp.Body)

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.status, body.String())
			}
			if !strings.Contains(body.String(), tt.wantBody) {
				t.Errorf("body %s does not contain %s", body.String(), tt.wantBody)
			}
			if resp.Header.Get(HeaderRequestID) == "" {
				t.Error("missing request id")
			}
		})
	}
}

func TestServer_RequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestServer_ResolveBatch(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/javascript/resolve", "application/json",
		strings.NewReader(`{"packages":["react","missing"]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got map[string]struct {
		Record *record.Record `json:"record"`
		Error  *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["react"].Record == nil || got["react"].Record.License != "MIT" {
		t.Errorf("react = %+v", got["react"])
	}
	if got["missing"].Error == nil || got["missing"].Error.Code != "NOT_FOUND" {
		t.Errorf("missing = %+v", got["missing"])
	}
}

func TestServer_ResolveBatchRejects(t *testing.T) {
	srv := newTestServer(t)
	many := `{"packages":[` + strings.Repeat(`"a",`, MaxBatch) + `"a"]}`

	for name, body := range map[string]string{
		"malformed":     `{"packages":`,
		"empty":         `{"packages":[]}`,
		"unknown field": `{"pkgs":["a"]}`,
		"too many":      many,
	} {
		resp, err := http.Post(srv.URL+"/v1/javascript/resolve", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d", name, resp.StatusCode)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidPackage:       400,
		errors.ErrCodeUnsupportedEcosystem: 400,
		errors.ErrCodeNotFound:             404,
		errors.ErrCodeUnsupportedVCSHost:   422,
		errors.ErrCodeParse:                502,
		errors.ErrCodeNetwork:              502,
		errors.ErrCodeTimeout:              504,
		errors.ErrCodeInternal:             500,
		"":                                 500,
	}
	for code, want := range tests {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%q) = %d, want %d", code, got, want)
		}
	}
}
