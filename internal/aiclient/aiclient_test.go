package aiclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterFirstRequestDoesNotBlock(t *testing.T) {
	rl := NewRateLimiter(60)
	start := time.Now()
	rl.Wait()
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiterEnforcesMinDelay(t *testing.T) {
	rl := NewRateLimiter(600) // min_delay = 100ms
	var slept time.Duration
	rl.sleep = func(d time.Duration) { slept = d }
	rl.Wait()
	rl.last = time.Now().Add(-10 * time.Millisecond)
	rl.Wait()
	assert.Greater(t, slept, time.Duration(0))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(errors.New("upstream returned 503")))
	assert.True(t, IsRetryableError(errors.New("dial tcp: connection refused")))
	assert.False(t, IsRetryableError(errors.New("invalid api key")))
	assert.False(t, IsRetryableError(nil))
}

func TestRetryWithBackoffSucceedsEventually(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffPropagatesNonRetryableImmediately(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		attempts++
		return errors.New("invalid request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffWrapsAfterExhaustion(t *testing.T) {
	err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
		return errors.New("timeout")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEDIA_PROCESSING_ERROR")
}

type fakeEmbedder struct {
	calls int
	dim   int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}
func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return make([]float32, f.dim), nil
}
func (f *fakeEmbedder) SubmitBatch(ctx context.Context, items []BatchEmbedItem) (string, error) {
	return "", nil
}
func (f *fakeEmbedder) PollBatch(ctx context.Context, remoteJobID string) (BatchPollResult, error) {
	return BatchPollResult{}, nil
}
func (f *fakeEmbedder) Dimension() int { return f.dim }

func TestCachedQueryEmbedderCachesRepeatedQueries(t *testing.T) {
	inner := &fakeEmbedder{dim: 4}
	c := NewCachedQueryEmbedder(inner, 10)

	_, err := c.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	_, err = c.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}
