package crawl

import (
	"context"
	"time"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (string, error)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// fetchWithRetry attempts a fetch with backoff, one attempt per delay plus
// the initial try. Context cancellation aborts between attempts.
func fetchWithRetry(ctx context.Context, url string, fetch FetchFunc, delays []time.Duration) (string, error) {
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	var lastErr error
	for attempt := 0; attempt <= len(delays); attempt++ {
		html, err := fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if attempt == len(delays) {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return "", lastErr
}
