package httputil

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/observability"
)

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 32 << 20

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// OK reports whether the status is 200.
func (r *Response) OK() bool { return r.StatusCode == http.StatusOK }

// Fetcher performs GET requests with a fixed timeout and default headers.
// Non-2xx statuses are returned as responses, not errors; interpreting them
// is the caller's job. Transport failures come back as NETWORK_ERROR or
// TIMEOUT and are never retried.
//
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	client     *http.Client
	noRedirect *http.Client
	headers    http.Header
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithDefaultHeader adds a header sent on every request.
func WithDefaultHeader(key, value string) FetcherOption {
	return func(f *Fetcher) { f.headers.Set(key, value) }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(f *Fetcher) {
		f.client.Transport = rt
		f.noRedirect.Transport = rt
	}
}

// NewFetcher creates a Fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: timeout},
		noRedirect: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	noRedirects bool
	headers     http.Header
}

// WithoutRedirects returns 3xx responses as-is instead of following them.
func WithoutRedirects() RequestOption {
	return func(o *requestOptions) { o.noRedirects = true }
}

// WithHeader sets a header for this request, overriding defaults.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Set(key, value)
	}
}

// Get fetches rawURL and reads the whole body.
func (f *Fetcher) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	for k, vs := range f.headers {
		req.Header[k] = vs
	}
	for k, vs := range o.headers {
		req.Header[k] = vs
	}

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	client := f.client
	if o.noRedirects {
		client = f.noRedirect
	}
	resp, err := client.Do(req)
	if err != nil {
		err = classify(ctx, err, rawURL)
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		err = classify(ctx, err, rawURL)
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	return &Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil
}

// classify maps a transport failure onto TIMEOUT or NETWORK_ERROR.
func classify(ctx context.Context, err error, rawURL string) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(ctx.Err(), context.DeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout():
		return errors.Wrap(errors.ErrCodeTimeout, err, "GET %s timed out", rawURL)
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL)
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}

// StatusError builds the NETWORK_ERROR reported for an unexpected status.
func StatusError(rawURL string, status int) error {
	return errors.New(errors.ErrCodeNetwork, "GET %s: unexpected status %s", rawURL, statusText(status))
}

func statusText(code int) string {
	if t := http.StatusText(code); t != "" {
		return fmt.Sprintf("%d %s", code, t)
	}
	return fmt.Sprint(code)
}
