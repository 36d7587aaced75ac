package pypi

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

var (
	depRE    = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	parensRE = regexp.MustCompile(`^\((.*)\)$`)
)

// Adapter resolves Python packages against the PyPI JSON API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Adapter struct {
	client *integrations.Client
	desc   ecosystem.Descriptor
}

// NewAdapter creates an adapter for the given descriptor.
func NewAdapter(desc ecosystem.Descriptor, client *integrations.Client) *Adapter {
	return &Adapter{client: client, desc: desc}
}

// Ecosystem returns the descriptor id.
func (a *Adapter) Ecosystem() string { return a.desc.ID }

// Resolve fetches pkg (optionally a specific version) and normalizes it.
//
// Returns:
//   - NOT_FOUND if the registry answers with one of the descriptor's not-found statuses
//   - NETWORK_ERROR or TIMEOUT for transport failures
//   - PARSE_ERROR when the info object or version is missing
//
// The record name is pkg as requested.
func (a *Adapter) Resolve(ctx context.Context, pkg, version string) (*record.Record, error) {
	url := a.desc.BuildURL(pkg, version)
	resp, err := a.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := integrations.CheckStatus(url, resp.StatusCode, a.desc.IsNotFound); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "pypi package %s", pkg)
		}
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := integrations.DecodeJSON(url, resp.Body, &top); err != nil {
		return nil, err
	}
	return a.normalize(pkg, top)
}

func (a *Adapter) normalize(pkg string, top map[string]json.RawMessage) (*record.Record, error) {
	f := a.desc.Fields
	info := top
	if f.Info != "" {
		raw, ok := top[f.Info]
		if !ok {
			return nil, errors.New(errors.ErrCodeParse, "pypi %s: response has no %q object", pkg, f.Info)
		}
		if err := json.Unmarshal(raw, &info); err != nil || info == nil {
			return nil, errors.New(errors.ErrCodeParse, "pypi %s: %q is not an object", pkg, f.Info)
		}
	}

	version := stringField(info, f.Version)
	if version == "" {
		return nil, errors.New(errors.ErrCodeParse, "pypi %s: missing %q", pkg, f.Version)
	}

	for _, key := range []string{f.License, f.Dependencies} {
		if _, ok := info[key]; key != "" && !ok {
			return nil, errors.New(errors.ErrCodeParse, "pypi %s: missing %q", pkg, key)
		}
	}

	var classifiers []string
	_ = json.Unmarshal(info["classifiers"], &classifiers)

	var requires []string
	if raw, ok := info[f.Dependencies]; ok {
		if err := json.Unmarshal(raw, &requires); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "pypi %s: %q is not a list", pkg, f.Dependencies)
		}
	}

	return &record.Record{
		Name:         pkg,
		Version:      version,
		License:      extractLicense(stringField(info, f.License), stringField(info, "license_expression"), classifiers),
		Dependencies: record.Constraints(extractDeps(requires)),
	}, nil
}

// stringField reads key as a string; null, absent and non-string values are "".
func stringField(m map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := m[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return strings.TrimSpace(s)
}

// extractDeps turns requires_dist entries into name → constraint. The
// constraint is everything after the name and extras, environment marker
// included. The first entry for a name wins.
func extractDeps(requires []string) map[string]string {
	deps := make(map[string]string, len(requires))
	for _, req := range requires {
		m := depRE.FindStringSubmatch(req)
		if m == nil {
			continue
		}
		name := integrations.NormalizePkgName(m[1])
		if _, seen := deps[name]; seen {
			continue
		}
		deps[name] = constraint(m[3])
	}
	return deps
}

func constraint(rest string) string {
	specifier, marker, hasMarker := strings.Cut(rest, ";")
	specifier = strings.TrimSpace(specifier)
	if m := parensRE.FindStringSubmatch(specifier); m != nil {
		specifier = strings.TrimSpace(m[1])
	}
	if !hasMarker {
		return specifier
	}
	marker = strings.TrimSpace(marker)
	if specifier == "" {
		return "; " + marker
	}
	return specifier + "; " + marker
}

// extractLicense picks a short license name. A short license field is used
// as-is, then the license expression, then the first trove classifier, then
// the first line of a long license text.
func extractLicense(license, expression string, classifiers []string) string {
	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return license
	}
	if expression != "" {
		return expression
	}

	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				// "License :: OSI Approved :: MIT License" -> "MIT License"
				return parts[len(parts)-1]
			}
		}
	}

	if license != "" {
		if first := strings.TrimSpace(strings.Split(license, "\n")[0]); first != "" && len(first) < 50 {
			return first
		}
	}
	return record.LicenseUnclassified
}
