package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/httputil"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
	"github.com/NobleMathews/dev-versioner/pkg/vcs"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

const pageSize = 100

var _ vcs.Host = (*Client)(nil)

// Client reads license, release, tag and file data from the GitHub REST API.
// It implements [vcs.Host].
type Client struct {
	client  *integrations.Client
	baseURL string
	token   string
}

// NewClient creates a GitHub client. An empty baseURL means
// [DefaultBaseURL]; an empty token sends unauthenticated requests.
func NewClient(client *integrations.Client, baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{client: client, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// License returns the repository's detected license and its decoded text.
// A repository without a license file is NOT_FOUND.
func (c *Client) License(ctx context.Context, owner, repo string) (vcs.License, error) {
	var data licenseResponse
	if err := c.get(ctx, owner, repo, "/license", &data); err != nil {
		return vcs.License{}, err
	}
	body, err := data.decode()
	if err != nil {
		return vcs.License{}, errors.Wrap(errors.ErrCodeParse, err, "github %s/%s: license content", owner, repo)
	}
	return vcs.License{Name: data.License.Name, Body: body}, nil
}

// Releases returns release tag names, newest first.
func (c *Client) Releases(ctx context.Context, owner, repo string) ([]string, error) {
	var data []struct {
		TagName string `json:"tag_name"`
	}
	if err := c.get(ctx, owner, repo, fmt.Sprintf("/releases?per_page=%d", pageSize), &data); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(data))
	for _, r := range data {
		names = append(names, r.TagName)
	}
	return names, nil
}

// Tags returns tag names in the order GitHub lists them.
func (c *Client) Tags(ctx context.Context, owner, repo string) ([]string, error) {
	var data []struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, owner, repo, fmt.Sprintf("/tags?per_page=%d", pageSize), &data); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(data))
	for _, t := range data {
		names = append(names, t.Name)
	}
	return names, nil
}

// FileContent returns the decoded content of path on the default branch.
// A missing file is reported as found=false with no error.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) (string, bool, error) {
	var data licenseResponse
	err := c.get(ctx, owner, repo, "/contents/"+escapePath(path), &data)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	body, err := data.decode()
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeParse, err, "github %s/%s: %s content", owner, repo, path)
	}
	return body, true, nil
}

func (c *Client) get(ctx context.Context, owner, repo, suffix string, v any) error {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return err
	}
	u := fmt.Sprintf("%s/repos/%s/%s%s", c.baseURL, owner, repo, suffix)
	err := c.client.Get(ctx, u, v, c.headers()...)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "github %s/%s", owner, repo)
	}
	return err
}

func (c *Client) headers() []httputil.RequestOption {
	opts := []httputil.RequestOption{
		httputil.WithHeader("Accept", "application/vnd.github+json"),
		httputil.WithHeader("X-GitHub-Api-Version", "2022-11-28"),
	}
	if c.token != "" {
		opts = append(opts, httputil.WithHeader("Authorization", "Bearer "+c.token))
	}
	return opts
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// licenseResponse covers both /license and /contents/{path}.
type licenseResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	License  struct {
		Name   string `json:"name"`
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

func (r licenseResponse) decode() (string, error) {
	if r.Encoding != "" && r.Encoding != "base64" {
		return r.Content, nil
	}
	b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(r.Content, "\n", ""))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

