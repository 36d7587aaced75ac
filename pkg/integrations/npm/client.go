package npm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

// Adapter resolves JavaScript packages against the npm registry.
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

// Resolve fetches the packument (or a single version document when version
// is set) and normalizes it. The record name is pkg as requested.
func (a *Adapter) Resolve(ctx context.Context, pkg, version string) (*record.Record, error) {
	url := a.desc.BuildURL(pkg, version)
	resp, err := a.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := integrations.CheckStatus(url, resp.StatusCode, a.desc.IsNotFound); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "npm package %s", pkg)
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
	doc := top
	version := ""

	// A full packument lists every version; pick the one the latest tag points at.
	if raw, ok := top[f.Versions]; ok && f.Versions != "" {
		var tags map[string]string
		if err := json.Unmarshal(top[f.DistTags], &tags); err != nil || tags[f.Latest] == "" {
			return nil, errors.New(errors.ErrCodeParse, "npm %s: no %s.%s tag", pkg, f.DistTags, f.Latest)
		}
		version = tags[f.Latest]

		var versions map[string]map[string]json.RawMessage
		if err := json.Unmarshal(raw, &versions); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "npm %s: %q is not an object", pkg, f.Versions)
		}
		if doc, ok = versions[version]; !ok || doc == nil {
			return nil, errors.New(errors.ErrCodeParse, "npm %s: version %s not listed", pkg, version)
		}
	} else {
		if err := json.Unmarshal(top[f.Version], &version); err != nil || version == "" {
			return nil, errors.New(errors.ErrCodeParse, "npm %s: missing %q", pkg, f.Version)
		}
	}

	deps := map[string]string{}
	if raw, ok := doc[f.Dependencies]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &deps); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "npm %s: %q is not an object", pkg, f.Dependencies)
		}
	}

	return &record.Record{
		Name:         pkg,
		Version:      version,
		License:      extractLicense(doc[f.License], doc["licenses"]),
		Dependencies: record.Constraints(deps),
	}, nil
}

// extractLicense accepts "MIT", {"type": "MIT"} or the legacy
// [{"type": "MIT"}, ...] form, joining several entries with " OR ".
func extractLicense(license, legacy json.RawMessage) string {
	var v any
	if json.Unmarshal(license, &v) == nil {
		if s := extractField(v, "type"); s != "" {
			return s
		}
	}

	var list []any
	if json.Unmarshal(legacy, &list) == nil {
		var names []string
		for _, item := range list {
			if s := extractField(item, "type"); s != "" {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			return strings.Join(names, " OR ")
		}
	}
	return record.LicenseUnclassified
}

func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
