// Package api serves the resolver over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/ecosystems
//	GET  /v1/purl?purl=pkg:npm/react@17.0.2
//	GET  /v1/{ecosystem}/packages/{package...}?version=
//	POST /v1/{ecosystem}/resolve   {"packages": ["a", "b"]}
//
// Every response carries X-Request-ID, taken from the request when present
// and generated otherwise. Errors are {"error": {"code", "message"}} with a
// status derived from the error code.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NobleMathews/dev-versioner/pkg/buildinfo"
	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/report"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

const (
	// MaxBatch caps the packages accepted by one resolve request.
	MaxBatch = 100

	maxBodyBytes = 1 << 20
)

// Server routes HTTP requests to a resolver.
type Server struct {
	resolver *resolver.Resolver
	logger   *log.Logger
	router   chi.Router
}

// NewServer builds the router. A nil logger uses log.Default().
func NewServer(r *resolver.Resolver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{resolver: r, logger: logger}

	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(middleware.RealIP)
	router.Use(s.logRequests)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.health)
	router.Route("/v1", func(r chi.Router) {
		r.Get("/ecosystems", s.ecosystems)
		r.Get("/purl", s.purl)
		r.Get("/{ecosystem}/packages/*", s.resolveOne)
		r.Post("/{ecosystem}/resolve", s.resolveBatch)
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	s.router = router
	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) ecosystems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"ecosystems": s.resolver.Registry().IDs()})
}

func (s *Server) resolveOne(w http.ResponseWriter, r *http.Request) {
	pkg, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || pkg == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidPackage, "missing or malformed package name"))
		return
	}
	eco := chi.URLParam(r, "ecosystem")
	rec, err := s.resolver.Resolve(r.Context(), eco, pkg, r.URL.Query().Get("version"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) purl(w http.ResponseWriter, r *http.Request) {
	p, err := ecosystem.ParsePURL(r.URL.Query().Get("purl"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.resolver.Resolve(r.Context(), p.Ecosystem, p.Name, p.Version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type batchRequest struct {
	Packages []string `json:"packages"`
}

func (s *Server) resolveBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body"))
		return
	}
	switch {
	case len(req.Packages) == 0:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "packages must not be empty"))
		return
	case len(req.Packages) > MaxBatch:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "at most %d packages per request", MaxBatch))
		return
	}

	results, err := s.resolver.ResolveBatch(r.Context(), chi.URLParam(r, "ecosystem"), req.Packages, resolver.BatchOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Entries(results))
}
