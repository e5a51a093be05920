// Package httputil provides the HTTP client plumbing used by loaders.
//
// # Overview
//
//   - [Get]: one instrumented GET that returns the body or a classified error
//   - [Retry]: retry with exponential backoff for transient failures
//
// # Errors
//
// [Get] returns a [*StatusError] for non-2xx responses. Server errors (5xx)
// and 429 responses are additionally wrapped in [RetryableError], as are
// network failures, so a caller can pass them straight to [Retry]:
//
//	var body []byte
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    var err error
//	    body, err = httputil.Get(ctx, client, url)
//	    return err
//	})
//
// Client errors (4xx other than 429) and cancellation are never retried.
//
// # Instrumentation
//
// Every request is reported to the observability HTTP hooks with method,
// host, path, status, and duration.
package httputil
