// Package npm resolves JavaScript packages against the npm registry.
//
// # Overview
//
// Without a version the adapter fetches the full packument from
// https://registry.npmjs.org/<package> and follows dist-tags.latest into the
// versions map. With a version it fetches the single version document
// /<package>/<version>, which carries the same fields at the top level.
//
//	adapter := npm.NewAdapter(desc, integrations.NewClient(fetcher))
//	rec, err := adapter.Resolve(ctx, "react", "")
//	// rec.Version == "17.0.2", rec.License == "MIT"
//
// # License
//
// The license field is a string in modern packages, an object with a type
// in older ones, and a "licenses" array in very old ones. All three forms are
// accepted; a package declaring none is "unclassified".
//
// # Dependencies
//
// The runtime "dependencies" object is copied verbatim as name → range.
// Dev and peer dependencies are ignored.
package npm
