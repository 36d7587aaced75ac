// Package vcs resolves package metadata straight from a source repository.
//
// It is the fallback used when a registry does not know a package: the
// license comes from the host's license detection (classified locally when
// the host cannot name it), the version from the newest release or tag, and
// the dependencies from a go.mod manifest at the repository root.
package vcs

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/license"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

// DefaultManifestPath is read when no manifest path is configured.
const DefaultManifestPath = "go.mod"

// License is what a host reports about a repository's license file.
type License struct {
	Name string // host classification; license.Other when it could not tell
	Body string // decoded license file
}

// Host is the repository API the resolver needs.
//
// License returns NOT_FOUND when the repository has no detectable license.
// Releases and Tags return names newest first. FileContent reports
// found=false rather than an error for a missing file.
type Host interface {
	License(ctx context.Context, owner, repo string) (License, error)
	Releases(ctx context.Context, owner, repo string) ([]string, error)
	Tags(ctx context.Context, owner, repo string) ([]string, error)
	FileContent(ctx context.Context, owner, repo, path string) (string, bool, error)
}

// Options configures a [Resolver].
type Options struct {
	Rules        license.RuleSet // zero means license.DefaultRules
	ManifestPath string          // zero means DefaultManifestPath
	Logger       *log.Logger
}

// Resolver builds records from repositories on the registered hosts.
type Resolver struct {
	hosts    map[string]Host
	rules    license.RuleSet
	manifest string
	logger   *log.Logger
}

// NewResolver creates a resolver. hosts maps a host name such as
// [GitHub] to its API client.
func NewResolver(hosts map[string]Host, opts Options) *Resolver {
	if opts.Rules == nil {
		opts.Rules = license.DefaultRules()
	}
	if opts.ManifestPath == "" {
		opts.ManifestPath = DefaultManifestPath
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Resolver{hosts: hosts, rules: opts.Rules, manifest: opts.ManifestPath, logger: opts.Logger}
}

// Resolve builds a record for the repository named by reference. The record
// name is reference exactly as given.
//
// The reference is checked before any request is made: unknown hosts fail
// with UNSUPPORTED_VCS_HOST. License, version and manifest are then fetched
// in that order, stopping at the first failure.
func (r *Resolver) Resolve(ctx context.Context, reference string) (*record.Record, error) {
	ref, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}
	host, ok := r.hosts[ref.Host]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedVCSHost, "no client configured for %s", ref.Host)
	}

	lic, err := host.License(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, err
	}
	version, err := latestVersion(ctx, host, ref)
	if err != nil {
		return nil, err
	}
	content, found, err := host.FileContent(ctx, ref.Owner, ref.Repo, r.manifest)
	if err != nil {
		return nil, err
	}
	if !found {
		r.logger.Debug("no manifest", "repo", ref.Slug(), "path", r.manifest)
	}

	return &record.Record{
		Name:         reference,
		Version:      version,
		License:      r.classify(lic),
		Dependencies: record.Constraints(ParseManifest(content)),
	}, nil
}

func (r *Resolver) classify(lic License) string {
	if lic.Name == "" || lic.Name == license.Other {
		return r.rules.Classify(lic.Body)
	}
	return lic.Name
}

// latestVersion is the newest release name, else the newest tag, else "".
func latestVersion(ctx context.Context, host Host, ref Reference) (string, error) {
	releases, err := host.Releases(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return "", err
	}
	if len(releases) > 0 {
		return releases[0], nil
	}
	tags, err := host.Tags(ctx, ref.Owner, ref.Repo)
	if err != nil || len(tags) == 0 {
		return "", err
	}
	return tags[0], nil
}
