package distance

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

const (
	maxAttempts   = 3
	baseBackoff   = 500 * time.Millisecond
	maxBodyErrLen = 512
)

func (o *ORSProvider) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doWithRetry executes the request, retrying rate limits and server
// errors with exponential backoff. The request is rebuilt per attempt
// because bodies are single-use.
func (o *ORSProvider) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := o.session.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode == http.StatusOK {
			return resp, nil
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyErrLen))
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, body)

			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				if wait := retryAfter(resp); wait > 0 {
					log.Printf("ORS rate limited, waiting %s", wait)
					if err := sleepCtx(ctx, wait); err != nil {
						return nil, err
					}
					continue
				}
			}
		}

		if attempt < maxAttempts {
			backoff := baseBackoff * time.Duration(1<<(attempt-1))
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
