// Package github implements the GitHub side of the VCS fallback.
//
// [Client] talks to the REST API (https://api.github.com by default) and
// exposes the four reads the fallback needs: the detected license with its
// text, release tag names, tag names, and a single file's content.
//
// # Authentication
//
// A token is optional. Unauthenticated clients are limited to 60 requests
// per hour; with a token the limit is 5000.
//
//	c := github.NewClient(integrations.NewClient(fetcher), "", os.Getenv("GITHUB_TOKEN"))
//	lic, err := c.License(ctx, "spf13", "cobra")
//
// Owner and repository names are validated before any request is built.
package github
