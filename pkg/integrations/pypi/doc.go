// Package pypi resolves Python packages against the PyPI JSON API.
//
// # Overview
//
// The adapter fetches https://pypi.org/pypi/<package>[/<version>]/json and
// reads the configured info object:
//
//	adapter := pypi.NewAdapter(desc, integrations.NewClient(fetcher))
//	rec, err := adapter.Resolve(ctx, "aiohttp", "3.7.2")
//
// # License
//
// PyPI's license field is free text and frequently null. A short value is
// used verbatim; otherwise the license expression, then the first
// "License :: ..." trove classifier, and finally "unclassified".
//
// # Dependencies
//
// requires_dist entries become a name → constraint mapping. Names are
// normalized following PEP 503. The constraint keeps any environment marker,
// so optional extras stay visible:
//
//	"idna-ssl>=1.0; python_version<\"3.7\""  ->  "idna-ssl": ">=1.0; python_version<\"3.7\""
//	"cchardet; extra == \"speedups\""        ->  "cchardet": "; extra == \"speedups\""
package pypi
