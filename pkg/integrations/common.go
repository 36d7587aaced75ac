package integrations

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

// DecodeJSON unmarshals body into v, reporting failures as PARSE_ERROR.
func DecodeJSON(url string, body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New(errors.ErrCodeParse, "%s: empty response body", url)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "%s: decode response", url)
	}
	return nil
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
	"ssh://git@github.com/", "https://github.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, ssh:// and git+ prefixes, and removes .git suffixes.
// Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	return strings.TrimSuffix(s, ".git")
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}
