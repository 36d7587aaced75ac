// Package config loads the dev-versioner configuration.
//
// Configuration is built once at startup, from [Default] overlaid with an
// optional TOML or YAML file, and is treated as read-only afterwards. It is
// passed explicitly to every constructor that needs it; nothing reads it
// from a global.
//
// A minimal TOML file:
//
//	cache_ttl = "12h"
//	concurrency = 4
//
//	[store]
//	backend = "redis"
//	addr = "localhost:6379"
//
//	[[ecosystems]]
//	id = "go"
//	vcs_fallback = false
//
//	[[licenses]]
//	pattern = "MIT License"
//	name = "MIT"
//
// Ecosystem entries are merged field by field onto the built-in descriptor
// with the same id. A [[licenses]] list replaces the built-in rules
// entirely because rule order is significant.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/NobleMathews/dev-versioner/pkg/buildinfo"
	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/license"
)

// Environment variables consulted by [Load].
const (
	EnvConfig      = "DEVVERSIONER_CONFIG"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Backends lists every accepted store backend.
var Backends = []string{BackendMemory, BackendFile, BackendRedis, BackendMongo, BackendSQLite, BackendPostgres, BackendNone}

// Config is the complete runtime configuration.
type Config struct {
	CacheTTL    Duration       `toml:"cache_ttl" yaml:"cache_ttl"`
	HTTPTimeout Duration       `toml:"http_timeout" yaml:"http_timeout"`
	Concurrency int            `toml:"concurrency" yaml:"concurrency"`
	UserAgent   string         `toml:"user_agent" yaml:"user_agent"`
	Store       Store          `toml:"store" yaml:"store"`
	GitHub      GitHub         `toml:"github" yaml:"github"`
	Ecosystems  []Ecosystem    `toml:"ecosystems" yaml:"ecosystems"`
	Licenses    []license.Rule `toml:"licenses" yaml:"licenses"`
}

// Store selects and configures the metadata cache backend.
type Store struct {
	Backend    string `toml:"backend" yaml:"backend"`
	Dir        string `toml:"dir,omitempty" yaml:"dir,omitempty"`
	Addr       string `toml:"addr,omitempty" yaml:"addr,omitempty"`
	Password   string `toml:"password,omitempty" yaml:"password,omitempty"`
	DB         int    `toml:"db,omitempty" yaml:"db,omitempty"`
	URI        string `toml:"uri,omitempty" yaml:"uri,omitempty"`
	Database   string `toml:"database,omitempty" yaml:"database,omitempty"`
	Collection string `toml:"collection,omitempty" yaml:"collection,omitempty"`
	DSN        string `toml:"dsn,omitempty" yaml:"dsn,omitempty"`
	Namespace  string `toml:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// GitHub configures the VCS fallback host.
type GitHub struct {
	BaseURL      string `toml:"base_url" yaml:"base_url"`
	Token        string `toml:"token,omitempty" yaml:"token,omitempty"`
	ManifestPath string `toml:"manifest_path" yaml:"manifest_path"`
}

// Ecosystem is the file form of an [ecosystem.Descriptor]. Unset fields
// inherit from the built-in descriptor with the same id.
type Ecosystem struct {
	ID           string                 `toml:"id" yaml:"id"`
	Aliases      []string               `toml:"aliases,omitempty" yaml:"aliases,omitempty"`
	BaseURL      string                 `toml:"base_url,omitempty" yaml:"base_url,omitempty"`
	Suffix       string                 `toml:"suffix,omitempty" yaml:"suffix,omitempty"`
	VersionStyle ecosystem.VersionStyle `toml:"version_style,omitempty" yaml:"version_style,omitempty"`
	NotFound     []int                  `toml:"not_found,omitempty" yaml:"not_found,omitempty"`
	Fields       ecosystem.Fields       `toml:"fields,omitempty" yaml:"fields,omitempty"`
	Selectors    ecosystem.Selectors    `toml:"selectors,omitempty" yaml:"selectors,omitempty"`
	VCSFallback  *bool                  `toml:"vcs_fallback,omitempty" yaml:"vcs_fallback,omitempty"`
}

// Duration is a time.Duration written as "24h" or "10s" in config files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	descs := ecosystem.Defaults()
	ecos := make([]Ecosystem, len(descs))
	for i, d := range descs {
		ecos[i] = fromDescriptor(d)
	}
	return &Config{
		CacheTTL:    Duration(24 * time.Hour),
		HTTPTimeout: Duration(10 * time.Second),
		Concurrency: 8,
		UserAgent:   buildinfo.UserAgent(),
		Store: Store{
			Backend:    BackendFile,
			Dir:        DefaultCacheDir(),
			Addr:       "localhost:6379",
			URI:        "mongodb://localhost:27017",
			Database:   "devversioner",
			Collection: "records",
			DSN:        "file:devversioner.db",
		},
		GitHub: GitHub{
			BaseURL:      "https://api.github.com",
			ManifestPath: "go.mod",
		},
		Ecosystems: ecos,
		Licenses:   license.DefaultRules(),
	}
}

// DefaultCacheDir returns ~/.cache/devversioner, or a temp-dir fallback
// when the home directory is unknown.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "devversioner")
	}
	return filepath.Join(os.TempDir(), "devversioner")
}

// DefaultPath returns the config file looked up when no path is given.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "devversioner", "config.toml")
	}
	return ""
}

// Load builds the configuration. The file is taken from path, then from
// $DEVVERSIONER_CONFIG, then from [DefaultPath] if it exists. An explicit
// path that does not exist is an error; a missing default file is not.
// $GITHUB_TOKEN fills in the token when the file sets none.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if cfg, err = Parse(data, formatOf(path)); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv(EnvGitHubToken)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format is a config file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Parse decodes a config document on top of [Default]. It does not validate.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	defaults := cfg.Ecosystems
	defaultRules := cfg.Licenses
	cfg.Ecosystems = nil
	cfg.Licenses = nil

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg.Ecosystems = mergeEcosystems(defaults, cfg.Ecosystems)
	if len(cfg.Licenses) == 0 {
		cfg.Licenses = defaultRules
	}
	return cfg, nil
}

// Encode writes cfg in the given format.
func (c *Config) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return toml.NewEncoder(w).Encode(c)
	}
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.GitHub.Token != "" {
		cp.GitHub.Token = "****"
	}
	if cp.Store.Password != "" {
		cp.Store.Password = "****"
	}
	return &cp
}

// String renders the redacted config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	_ = c.Redacted().Encode(&buf, FormatTOML)
	return buf.String()
}

// Validate reports the first configuration problem as INVALID_CONFIG.
func (c *Config) Validate() error {
	if c.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache_ttl must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "http_timeout must be positive")
	}
	if c.Concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency must be at least 1")
	}
	if !slices.Contains(Backends, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (want one of %s)", c.Store.Backend, strings.Join(Backends, ", "))
	}
	if err := errors.ValidateURL(c.GitHub.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "github.base_url")
	}
	if err := errors.ValidatePath(c.GitHub.ManifestPath); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "github.manifest_path")
	}
	for _, r := range c.Licenses {
		if r.Pattern == "" || r.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "license rule needs both pattern and name")
		}
	}
	_, err := ecosystem.NewSet(c.Descriptors())
	return err
}

// Descriptors converts the configured ecosystems into descriptors.
func (c *Config) Descriptors() []ecosystem.Descriptor {
	out := make([]ecosystem.Descriptor, len(c.Ecosystems))
	for i, e := range c.Ecosystems {
		out[i] = e.descriptor()
	}
	return out
}

// LicenseRules returns the configured classifier rules.
func (c *Config) LicenseRules() license.RuleSet {
	return slices.Clone(license.RuleSet(c.Licenses))
}

func fromDescriptor(d ecosystem.Descriptor) Ecosystem {
	fallback := d.VCSFallback
	return Ecosystem{
		ID:           d.ID,
		Aliases:      slices.Clone(d.Aliases),
		BaseURL:      d.BaseURL,
		Suffix:       d.Suffix,
		VersionStyle: d.VersionStyle,
		NotFound:     slices.Clone(d.NotFound),
		Fields:       d.Fields,
		Selectors:    d.Selectors,
		VCSFallback:  &fallback,
	}
}

func (e Ecosystem) descriptor() ecosystem.Descriptor {
	d := ecosystem.Descriptor{
		ID:           e.ID,
		Aliases:      slices.Clone(e.Aliases),
		BaseURL:      e.BaseURL,
		Suffix:       e.Suffix,
		VersionStyle: e.VersionStyle,
		NotFound:     slices.Clone(e.NotFound),
		Fields:       e.Fields,
		Selectors:    e.Selectors,
	}
	if e.VCSFallback != nil {
		d.VCSFallback = *e.VCSFallback
	}
	if d.VersionStyle == "" {
		d.VersionStyle = ecosystem.VersionNone
	}
	return d
}

// mergeEcosystems overlays file entries onto the defaults by id. Defaults
// keep their order; entries with new ids are appended.
func mergeEcosystems(defaults, overrides []Ecosystem) []Ecosystem {
	out := slices.Clone(defaults)
	for _, o := range overrides {
		i := slices.IndexFunc(out, func(e Ecosystem) bool { return e.ID == o.ID })
		if i < 0 {
			out = append(out, o)
			continue
		}
		out[i] = overlay(out[i], o)
	}
	return out
}

func overlay(base, o Ecosystem) Ecosystem {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.BaseURL, o.BaseURL)
	pick(&base.Suffix, o.Suffix)
	if o.VersionStyle != "" {
		base.VersionStyle = o.VersionStyle
	}
	if o.Aliases != nil {
		base.Aliases = o.Aliases
	}
	if o.NotFound != nil {
		base.NotFound = o.NotFound
	}
	if o.VCSFallback != nil {
		base.VCSFallback = o.VCSFallback
	}

	f := &base.Fields
	pick(&f.Info, o.Fields.Info)
	pick(&f.Name, o.Fields.Name)
	pick(&f.Version, o.Fields.Version)
	pick(&f.License, o.Fields.License)
	pick(&f.Dependencies, o.Fields.Dependencies)
	pick(&f.Versions, o.Fields.Versions)
	pick(&f.DistTags, o.Fields.DistTags)
	pick(&f.Latest, o.Fields.Latest)

	s := &base.Selectors
	for _, p := range []struct {
		dst *ecosystem.Selector
		v   ecosystem.Selector
	}{{&s.Header, o.Selectors.Header}, {&s.Details, o.Selectors.Details}, {&s.Versions, o.Selectors.Versions}, {&s.Imports, o.Selectors.Imports}} {
		if !p.v.IsZero() {
			*p.dst = p.v
		}
	}
	return base
}
