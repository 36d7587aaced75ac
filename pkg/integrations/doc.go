// Package integrations provides HTTP clients for package registries and the
// VCS host used by the fallback path.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [pypi]: Python Package Index (JSON, path-versioned)
//   - [npm]: npm registry (JSON, dist-tag indirected)
//   - [pkgsite]: pkg.go.dev documentation pages (HTML, scraped)
//   - [github]: GitHub REST API for the VCS fallback
//
// # Client Pattern
//
// Registry adapters share one shape: they are built from an
// [ecosystem.Descriptor] and a shared [Client], and normalize whatever the
// registry returns into a [record.Record]:
//
//	adapter := pypi.NewAdapter(desc, integrations.NewClient(fetcher))
//	rec, err := adapter.Resolve(ctx, "aiohttp", "")
//
// Adapters never cache and never retry. Caching is layered on top by the
// resolver; a transport failure surfaces as NETWORK_ERROR or TIMEOUT.
//
// # Error Mapping
//
// [CheckStatus] turns registry statuses into error codes. Which statuses mean
// "not found" is per-ecosystem: pkg.go.dev answers 400 for malformed module
// paths, so the go descriptor lists both 400 and 404.
//
// [pypi]: github.com/NobleMathews/dev-versioner/pkg/integrations/pypi
// [npm]: github.com/NobleMathews/dev-versioner/pkg/integrations/npm
// [pkgsite]: github.com/NobleMathews/dev-versioner/pkg/integrations/pkgsite
// [github]: github.com/NobleMathews/dev-versioner/pkg/integrations/github
// [ecosystem.Descriptor]: github.com/NobleMathews/dev-versioner/pkg/ecosystem.Descriptor
// [record.Record]: github.com/NobleMathews/dev-versioner/pkg/record.Record
package integrations
