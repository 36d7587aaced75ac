// Package httputil provides the outbound HTTP plumbing shared by registry
// adapters and the VCS host client.
//
// # Fetching
//
// [Fetcher] issues GET requests with the configured timeout and default
// headers such as User-Agent. Responses are
// read fully and returned with their status; only transport failures are
// errors:
//
//	f := httputil.NewFetcher(10*time.Second, httputil.WithDefaultHeader("User-Agent", ua))
//	resp, err := f.Get(ctx, url)
//	if err != nil {
//	    // NETWORK_ERROR or TIMEOUT
//	}
//	if resp.StatusCode == http.StatusNotFound {
//	    // registry-specific handling
//	}
//
// Some registry pages redirect unknown tabs back to the main page; pass
// [WithoutRedirects] to observe the 3xx instead.
//
// # Retry
//
// [Retry] runs a function with exponential backoff, retrying only errors
// marked with [Retryable]. Package lookups are not retried;
// Retry is used when connecting to cache stores.
package httputil
