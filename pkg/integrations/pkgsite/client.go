package pkgsite

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/htmlx"
	"github.com/NobleMathews/dev-versioner/pkg/httputil"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

// Sub-page tabs fetched alongside the main page.
const (
	tabVersions = "versions"
	tabImports  = "imports"
)

// Adapter resolves Go packages by scraping pkg.go.dev.
//
// All methods are safe for concurrent use by multiple goroutines.
type Adapter struct {
	client *integrations.Client
	desc   ecosystem.Descriptor
	logger *log.Logger
}

// NewAdapter creates an adapter for the given descriptor. A nil logger
// uses log.Default().
func NewAdapter(desc ecosystem.Descriptor, client *integrations.Client, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{client: client, desc: desc, logger: logger}
}

// Ecosystem returns the descriptor id.
func (a *Adapter) Ecosystem() string { return a.desc.ID }

// Resolve scrapes the package page plus its versions and imports tabs.
//
// Returns:
//   - NOT_FOUND for the descriptor's not-found statuses (400 and 404 by default)
//   - NETWORK_ERROR or TIMEOUT when the main page cannot be fetched
//   - PARSE_ERROR when no version or no license can be found
//
// Sub-page failures are not errors; they yield an empty list.
func (a *Adapter) Resolve(ctx context.Context, pkg, version string) (*record.Record, error) {
	url := a.desc.BuildURL(pkg, version)
	resp, err := a.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := integrations.CheckStatus(url, resp.StatusCode, a.desc.IsNotFound); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "go package %s", pkg)
		}
		return nil, err
	}

	doc, err := htmlx.Parse(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "go %s: parse page", pkg)
	}

	sel := a.desc.Selectors
	name := doc.HeaderName(sel.Header, pkg)
	details := doc.KeyValues(sel.Details)

	var versions, imports []string
	var g errgroup.Group
	g.Go(func() error {
		versions = a.tab(ctx, url, tabVersions, sel.Versions)
		return nil
	})
	g.Go(func() error {
		imports = a.tab(ctx, url, tabImports, sel.Imports)
		return nil
	})
	_ = g.Wait()

	f := a.desc.Fields
	resolved := htmlx.FirstToken(details[f.Version])
	if resolved == "" && len(versions) > 0 {
		resolved = htmlx.FirstToken(versions[0])
	}
	if resolved == "" {
		return nil, errors.New(errors.ErrCodeParse, "go %s: no version on page or versions tab", pkg)
	}

	lic := details[f.License]
	if lic == "" {
		return nil, errors.New(errors.ErrCodeParse, "go %s: no %q in details", pkg, f.License)
	}

	return &record.Record{
		Name:         name,
		Version:      resolved,
		License:      lic,
		Dependencies: record.Names(imports),
	}, nil
}

// tab fetches "<url>?tab=<name>" without following redirects and lists the
// elements matching sel. Anything but a 200 gives an empty list.
func (a *Adapter) tab(ctx context.Context, url, name string, sel ecosystem.Selector) []string {
	tabURL := url + "?tab=" + name
	resp, err := a.client.Fetch(ctx, tabURL, httputil.WithoutRedirects())
	if err != nil {
		a.logger.Debug("sub-page fetch failed", "url", tabURL, "err", err)
		return []string{}
	}
	if !resp.OK() {
		a.logger.Debug("sub-page unavailable", "url", tabURL, "status", resp.StatusCode)
		return []string{}
	}
	doc, err := htmlx.Parse(resp.Body)
	if err != nil {
		return []string{}
	}
	return doc.List(sel)
}
