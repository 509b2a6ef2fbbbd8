package aiclient

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/vmonin/semknow/internal/engerr"
)

// retryableMarkers are the textual substrings that mark an error as
// transient. Anything else propagates unchanged.
var retryableMarkers = []string{"429", "503", "500", "timeout", "connection"}

// IsRetryableError reports whether err's textual form contains one of the
// transient-failure markers.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range retryableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// RetryWithBackoff wraps fn (an analyzer or embedder call) with up to
// maxRetries retries. Between attempts it sleeps
// base_delay * 2^attempt + uniform(0,1) seconds. A non-retryable
// error propagates immediately; after the retry budget is exhausted the
// last cause is wrapped in a MediaProcessingError.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		delay := time.Duration(float64(baseDelay)*pow2(attempt)) + jitter()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return engerr.MediaProcessingErr(lastErr)
}

func pow2(attempt int) float64 {
	result := 1.0
	for i := 0; i < attempt; i++ {
		result *= 2
	}
	return result
}

// jitter returns a uniform delay in [0,1) seconds.
func jitter() time.Duration {
	return time.Duration(rand.Float64() * float64(time.Second))
}
