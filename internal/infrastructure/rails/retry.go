package rails

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"agent-gate.backend/pkg/logger"
	"go.uber.org/zap"
)

const (
	retryBaseDelay   = 500 * time.Millisecond
	retryMaxDelay    = 5 * time.Second
	retryMaxAttempts = 3
)

// retryable reports whether a provider response warrants another attempt.
// Only 5xx and 429 are retried; 4xx is terminal.
func retryable(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// doWithRetry sends the request up to retryMaxAttempts times with exponential
// backoff. The body is replayed from buf on each attempt. Connection errors
// count as retryable.
func doWithRetry(ctx context.Context, client *http.Client, method, url string, buf []byte, setHeaders func(*http.Request)) (*http.Response, error) {
	var lastErr error
	delay := retryBaseDelay

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if setHeaders != nil {
			setHeaders(req)
		}

		resp, err := client.Do(req)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = &providerStatusError{StatusCode: resp.StatusCode}
			resp.Body.Close()
		}

		if attempt == retryMaxAttempts {
			break
		}

		logger.Warn(ctx, "rail call retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}

	return nil, lastErr
}

type providerStatusError struct {
	StatusCode int
}

func (e *providerStatusError) Error() string {
	return fmt.Sprintf("provider returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func drainBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}
	return b
}
