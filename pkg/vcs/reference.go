package vcs

import (
	"slices"
	"strings"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
)

// GitHub is the only VCS host the fallback can inspect.
const GitHub = "github.com"

// SupportedHosts lists the hosts [ParseReference] accepts.
var SupportedHosts = []string{GitHub}

// Reference identifies a repository on a VCS host.
type Reference struct {
	Raw   string // as given by the caller
	Host  string // lowercase, e.g. "github.com"
	Owner string
	Repo  string
	Path  string // sub-directory inside the repository, if any
}

// Slug returns "owner/repo".
func (r Reference) Slug() string { return r.Owner + "/" + r.Repo }

// ParseReference parses repository references in the forms
//
//	https://github.com/owner/repo
//	github.com/owner/repo/sub/dir
//	git@github.com:owner/repo.git
//
// A host outside [SupportedHosts] is UNSUPPORTED_VCS_HOST; a supported host
// without owner and repository is INVALID_PACKAGE. No network access happens.
func ParseReference(raw string) (Reference, error) {
	s := integrations.NormalizeRepoURL(raw)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	s, _, _ = strings.Cut(s, "?")
	s, _, _ = strings.Cut(s, "#")

	parts := strings.Split(strings.Trim(s, "/"), "/")
	host := strings.ToLower(parts[0])
	if !slices.Contains(SupportedHosts, host) {
		return Reference{}, errors.New(errors.ErrCodeUnsupportedVCSHost, "VCS used by %s is not supported", raw)
	}
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return Reference{}, errors.New(errors.ErrCodeInvalidPackage, "%s: expected %s/<owner>/<repo>", raw, host)
	}

	return Reference{
		Raw:   raw,
		Host:  host,
		Owner: parts[1],
		Repo:  strings.TrimSuffix(parts[2], ".git"),
		Path:  strings.Join(parts[3:], "/"),
	}, nil
}
