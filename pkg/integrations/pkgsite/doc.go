// Package pkgsite resolves Go packages by scraping pkg.go.dev.
//
// # Overview
//
// pkg.go.dev has no JSON API, so the adapter reads three HTML pages:
//
//   - the package page, for the header name and the "Version: ..." and
//     "License: ..." details
//   - ?tab=versions, for the version list
//   - ?tab=imports, for the imported package paths
//
// The two tabs are fetched concurrently and without following redirects;
// pkg.go.dev redirects tabs it cannot render back to the main page, which
// would otherwise be scraped as if it were the tab.
//
// Every element is located by a (tag, class) selector from the ecosystem
// descriptor, so markup changes are a configuration fix.
//
// # Not found
//
// pkg.go.dev answers 400 for paths it refuses to look up (full repository
// URLs, for example) and 404 for unknown modules. Both are NOT_FOUND, which
// lets the resolver fall back to the source repository.
package pkgsite
