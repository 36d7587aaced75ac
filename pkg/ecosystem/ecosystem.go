// Package ecosystem describes the package registries dev-versioner can query.
//
// A [Descriptor] carries everything needed to build a registry URL and to
// pick fields out of the registry response: base URL, version placement,
// the status codes that mean "not found", JSON field names and, for HTML
// registries, the (tag, class) selectors to scrape.
//
// Descriptors are plain data. They are loaded from configuration once and
// never mutated afterwards; adapters receive them by value.
//
// # Identifiers
//
// Three ecosystems are built in:
//
//	python      (aliases: pypi, registryA)
//	javascript  (aliases: npm, registryB)
//	go          (aliases: golang, registryC)
//
// [Set.Lookup] resolves aliases case-insensitively and reports
// UNSUPPORTED_ECOSYSTEM for anything else.
package ecosystem

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

// Built-in ecosystem identifiers.
const (
	Python     = "python"
	JavaScript = "javascript"
	Go         = "go"
)

// VersionStyle controls where an explicit version goes in a registry URL.
type VersionStyle string

const (
	// VersionNone ignores any requested version.
	VersionNone VersionStyle = "none"
	// VersionPath appends the version as its own path segment.
	VersionPath VersionStyle = "path"
	// VersionAt appends "@version" to the package segment.
	VersionAt VersionStyle = "at"
)

// Fields names the keys read from JSON registry responses.
type Fields struct {
	Info         string `toml:"info,omitempty" yaml:"info,omitempty" json:"info,omitempty"`
	Name         string `toml:"name" yaml:"name" json:"name"`
	Version      string `toml:"version" yaml:"version" json:"version"`
	License      string `toml:"license" yaml:"license" json:"license"`
	Dependencies string `toml:"dependencies" yaml:"dependencies" json:"dependencies"`
	Versions     string `toml:"versions,omitempty" yaml:"versions,omitempty" json:"versions,omitempty"`
	DistTags     string `toml:"dist_tags,omitempty" yaml:"dist_tags,omitempty" json:"dist_tags,omitempty"`
	Latest       string `toml:"latest,omitempty" yaml:"latest,omitempty" json:"latest,omitempty"`
}

// Selectors locate the scraped parts of an HTML registry page.
type Selectors struct {
	Header   Selector `toml:"header" yaml:"header" json:"header"`
	Details  Selector `toml:"details" yaml:"details" json:"details"`
	Versions Selector `toml:"versions" yaml:"versions" json:"versions"`
	Imports  Selector `toml:"imports" yaml:"imports" json:"imports"`
}

// Descriptor is the static description of one ecosystem.
type Descriptor struct {
	ID           string       `toml:"id" yaml:"id" json:"id"`
	Aliases      []string     `toml:"aliases,omitempty" yaml:"aliases,omitempty" json:"aliases,omitempty"`
	BaseURL      string       `toml:"base_url" yaml:"base_url" json:"base_url"`
	Suffix       string       `toml:"suffix,omitempty" yaml:"suffix,omitempty" json:"suffix,omitempty"`
	VersionStyle VersionStyle `toml:"version_style" yaml:"version_style" json:"version_style"`
	NotFound     []int        `toml:"not_found" yaml:"not_found" json:"not_found"`
	Fields       Fields       `toml:"fields" yaml:"fields" json:"fields"`
	Selectors    Selectors    `toml:"selectors,omitempty" yaml:"selectors,omitempty" json:"selectors,omitempty"`
	VCSFallback  bool         `toml:"vcs_fallback" yaml:"vcs_fallback" json:"vcs_fallback"`
}

// BuildURL joins the base URL, package, optional version and suffix with
// "/" and strips any trailing slash. It is deterministic and performs no
// escaping beyond what the caller supplied.
//
//	python.BuildURL("pkg", "1.2.3") // https://pypi.org/pypi/pkg/1.2.3/json
//	python.BuildURL("pkg", "")      // https://pypi.org/pypi/pkg/json
func (d Descriptor) BuildURL(pkg, version string) string {
	parts := []string{strings.TrimRight(d.BaseURL, "/"), strings.Trim(pkg, "/")}
	if version != "" {
		switch d.VersionStyle {
		case VersionPath:
			parts = append(parts, version)
		case VersionAt:
			parts[1] += "@" + version
		}
	}
	if d.Suffix != "" {
		parts = append(parts, strings.Trim(d.Suffix, "/"))
	}
	return strings.TrimRight(strings.Join(parts, "/"), "/")
}

// IsNotFound reports whether status is one of the ecosystem's not-found codes.
func (d Descriptor) IsNotFound(status int) bool {
	if len(d.NotFound) == 0 {
		return status == http.StatusNotFound
	}
	return slices.Contains(d.NotFound, status)
}

// Names returns the id followed by every alias.
func (d Descriptor) Names() []string {
	return append([]string{d.ID}, d.Aliases...)
}

// ValidatePackage applies the naming rules of the ecosystem to pkg.
func (d Descriptor) ValidatePackage(pkg string) error {
	switch d.ID {
	case Python:
		return errors.ValidatePythonPackageName(pkg)
	case JavaScript:
		return errors.ValidateNpmPackageName(pkg)
	case Go:
		return errors.ValidateGoModulePath(pkg)
	default:
		return errors.ValidatePackageName(pkg)
	}
}

// Validate checks that the descriptor is usable.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "ecosystem without id")
	}
	if err := errors.ValidateURL(d.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "ecosystem %s: base_url", d.ID)
	}
	switch d.VersionStyle {
	case VersionNone, VersionPath, VersionAt:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "ecosystem %s: unknown version_style %q", d.ID, d.VersionStyle)
	}
	if d.ID == Go {
		s := d.Selectors
		for name, sel := range map[string]Selector{"header": s.Header, "details": s.Details, "versions": s.Versions, "imports": s.Imports} {
			if sel.IsZero() {
				return errors.New(errors.ErrCodeInvalidConfig, "ecosystem %s: missing %s selector", d.ID, name)
			}
		}
	} else if d.Fields.Version == "" || d.Fields.License == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "ecosystem %s: version and license fields are required", d.ID)
	}
	return nil
}

// Defaults returns the built-in descriptors for python, javascript and go.
func Defaults() []Descriptor {
	return []Descriptor{
		{
			ID:           Python,
			Aliases:      []string{"pypi", "registryA"},
			BaseURL:      "https://pypi.org/pypi",
			Suffix:       "json",
			VersionStyle: VersionPath,
			NotFound:     []int{http.StatusNotFound},
			Fields: Fields{
				Info:         "info",
				Name:         "name",
				Version:      "version",
				License:      "license",
				Dependencies: "requires_dist",
			},
		},
		{
			ID:           JavaScript,
			Aliases:      []string{"npm", "registryB"},
			BaseURL:      "https://registry.npmjs.org",
			VersionStyle: VersionPath,
			NotFound:     []int{http.StatusNotFound},
			Fields: Fields{
				Name:         "name",
				Version:      "version",
				License:      "license",
				Dependencies: "dependencies",
				Versions:     "versions",
				DistTags:     "dist-tags",
				Latest:       "latest",
			},
		},
		{
			ID:           Go,
			Aliases:      []string{"golang", "registryC"},
			BaseURL:      "https://pkg.go.dev",
			VersionStyle: VersionAt,
			NotFound:     []int{http.StatusBadRequest, http.StatusNotFound},
			Fields: Fields{
				Name:         "Module",
				Version:      "Version",
				License:      "License",
				Dependencies: "Imports",
			},
			Selectors: Selectors{
				Header:   Selector{Tag: "h1", Class: "UnitHeader-titleHeading"},
				Details:  Selector{Tag: "div", Class: "UnitHeader-details"},
				Versions: Selector{Tag: "a", Class: "js-versionLink"},
				Imports:  Selector{Tag: "li", Class: "Imports-listItem"},
			},
			VCSFallback: true,
		},
	}
}

// Set is an immutable lookup table of descriptors keyed by id and alias.
type Set struct {
	ordered []Descriptor
	byName  map[string]int
}

// NewSet indexes descriptors. Duplicate ids or aliases are an INVALID_CONFIG error.
func NewSet(descs []Descriptor) (*Set, error) {
	s := &Set{ordered: slices.Clone(descs), byName: make(map[string]int)}
	for i, d := range s.ordered {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		for _, n := range d.Names() {
			key := strings.ToLower(n)
			if _, dup := s.byName[key]; dup {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "ecosystem name %q declared twice", n)
			}
			s.byName[key] = i
		}
	}
	return s, nil
}

// Lookup resolves an id or alias to its descriptor.
func (s *Set) Lookup(name string) (Descriptor, error) {
	if i, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s.ordered[i], nil
	}
	return Descriptor{}, errors.New(errors.ErrCodeUnsupportedEcosystem, "unsupported ecosystem %q (supported: %s)", name, strings.Join(s.IDs(), ", "))
}

// IDs lists canonical ids in declaration order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.ordered))
	for i, d := range s.ordered {
		ids[i] = d.ID
	}
	return ids
}

// All returns a copy of every descriptor.
func (s *Set) All() []Descriptor { return slices.Clone(s.ordered) }

// Selector is a (tag, class) pair written as "tag.class" in configuration.
type Selector struct {
	Tag   string
	Class string
}

// ParseSelector parses "tag.class" or a bare "tag".
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	tag, class, _ := strings.Cut(s, ".")
	if tag == "" || strings.ContainsAny(s, " >+~#[") {
		return Selector{}, fmt.Errorf("invalid selector %q: want tag or tag.class", s)
	}
	return Selector{Tag: tag, Class: class}, nil
}

// CSS renders the selector for a CSS selector engine.
func (s Selector) CSS() string {
	if s.Class == "" {
		return s.Tag
	}
	return s.Tag + "." + s.Class
}

// IsZero reports whether the selector is unset.
func (s Selector) IsZero() bool { return s.Tag == "" }

func (s Selector) String() string { return s.CSS() }

// MarshalText implements encoding.TextMarshaler.
func (s Selector) MarshalText() ([]byte, error) { return []byte(s.CSS()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Selector) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = Selector{}
		return nil
	}
	sel, err := ParseSelector(string(text))
	if err != nil {
		return err
	}
	*s = sel
	return nil
}
