package github

import (
	"regexp"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

var (
	// 1-39 alphanumerics or hyphens, not starting with a hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// 1-100 alphanumerics, hyphens, underscores or dots
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
)

// ValidateRepoRef checks owner and repo before they are put into an API URL.
// Failures are INVALID_PACKAGE.
func ValidateRepoRef(owner, repo string) error {
	if !validOwner.MatchString(owner) {
		return errors.New(errors.ErrCodeInvalidPackage, "invalid github owner %q", owner)
	}
	if !validRepo.MatchString(repo) || repo == "." || repo == ".." {
		return errors.New(errors.ErrCodeInvalidPackage, "invalid github repository %q", repo)
	}
	return nil
}
