package integrations

import (
	"context"
	"net/http"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/httputil"
)

// Client provides shared HTTP functionality for registry and VCS clients.
// It wraps a [httputil.Fetcher] and maps statuses onto error codes.
type Client struct {
	fetcher *httputil.Fetcher
}

// NewClient creates a Client on top of fetcher.
func NewClient(fetcher *httputil.Fetcher) *Client {
	return &Client{fetcher: fetcher}
}

// Fetch performs a raw GET. Statuses are not interpreted.
func (c *Client) Fetch(ctx context.Context, url string, opts ...httputil.RequestOption) (*httputil.Response, error) {
	return c.fetcher.Get(ctx, url, opts...)
}

// Get performs a GET and JSON-decodes a 200 response into v.
// 404 maps to NOT_FOUND, other statuses to NETWORK_ERROR, and an
// undecodable body to PARSE_ERROR.
func (c *Client) Get(ctx context.Context, url string, v any, opts ...httputil.RequestOption) error {
	resp, err := c.fetcher.Get(ctx, url, opts...)
	if err != nil {
		return err
	}
	if err := CheckStatus(url, resp.StatusCode, isNotFound); err != nil {
		return err
	}
	return DecodeJSON(url, resp.Body, v)
}

// GetText performs a GET and returns a 200 body as a string.
func (c *Client) GetText(ctx context.Context, url string, opts ...httputil.RequestOption) (string, error) {
	resp, err := c.fetcher.Get(ctx, url, opts...)
	if err != nil {
		return "", err
	}
	if err := CheckStatus(url, resp.StatusCode, isNotFound); err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

func isNotFound(code int) bool { return code == http.StatusNotFound }

// CheckStatus maps a response status to an error. notFound decides which
// codes mean the resource does not exist; everything else that is not 200
// is a NETWORK_ERROR.
func CheckStatus(url string, code int, notFound func(int) bool) error {
	switch {
	case code == http.StatusOK:
		return nil
	case notFound(code):
		return errors.New(errors.ErrCodeNotFound, "%s: status %d", url, code)
	default:
		return httputil.StatusError(url, code)
	}
}
