package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/layerstack/pkg/observability"
)

// MaxBodySize caps response bodies read by [Get].
const MaxBodySize = 32 << 20

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Get performs a GET request and returns the response body.
//
// Network failures, 5xx, and 429 responses are returned wrapped in
// [RetryableError]. Other non-2xx responses return a bare [*StatusError].
// Cancellation of ctx is returned unwrapped so callers can detect it with
// errors.Is. A nil client means [http.DefaultClient].
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		serr := &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, Retryable(serr)
		}
		return nil, serr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(fmt.Errorf("read body: %w", err))
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", url, MaxBodySize)
	}
	return body, nil
}
