// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/dockerhub-mcp/auth"
	"github.com/stacklok/dockerhub-mcp/cache"
	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/ratelimit"
)

// retryClient builds a client whose sleeps are recorded instead of slept.
func retryClient(t *testing.T, opts ...Option) (*Client, *[]time.Duration) {
	t.Helper()
	c := New(cache.New(), ratelimit.New(100, time.Minute), auth.NewManager(auth.Credentials{}), opts...)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	c, slept := retryClient(t)
	calls := 0
	err := c.retry(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetry_NonRetryableSurfacesImmediately(t *testing.T) {
	t.Parallel()

	c, slept := retryClient(t)
	calls := 0
	err := c.retry(context.Background(), "op", func(context.Context) error {
		calls++
		return httperr.New(httperr.KindAuthentication, "bad token")
	})
	require.Error(t, err)
	assert.True(t, httperr.IsKind(err, httperr.KindAuthentication))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetry_ServerErrorBacksOffExponentially(t *testing.T) {
	t.Parallel()

	c, slept := retryClient(t, WithBackoff(time.Second, 30*time.Second))
	calls := 0
	err := c.retry(context.Background(), "op", func(context.Context) error {
		calls++
		return httperr.New(httperr.KindServer, "upstream down")
	})
	require.Error(t, err)
	assert.True(t, httperr.IsKind(err, httperr.KindServer))
	assert.Equal(t, 3, calls)
	require.Len(t, *slept, 2)
	assert.Equal(t, time.Second, (*slept)[0])
	assert.Equal(t, 2*time.Second, (*slept)[1])
}

func TestRetry_BackoffRespectsCap(t *testing.T) {
	t.Parallel()

	c, slept := retryClient(t, WithMaxAttempts(5), WithBackoff(10*time.Second, 15*time.Second))
	err := c.retry(context.Background(), "op", func(context.Context) error {
		return httperr.New(httperr.KindServer, "upstream down")
	})
	require.Error(t, err)
	require.Len(t, *slept, 4)
	assert.Equal(t, 10*time.Second, (*slept)[0])
	for _, d := range (*slept)[1:] {
		assert.Equal(t, 15*time.Second, d)
	}
}

func TestRetry_RateLimitWaitsUntilReset(t *testing.T) {
	t.Parallel()

	c, slept := retryClient(t)
	reset := time.Now().Add(5 * time.Second)
	calls := 0
	err := c.retry(context.Background(), "op", func(context.Context) error {
		calls++
		if calls == 1 {
			return httperr.RateLimited(reset)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, *slept, 1)
	// The wait targets the server's reset, not the backoff schedule.
	assert.Greater(t, (*slept)[0], 3*time.Second)
	assert.LessOrEqual(t, (*slept)[0], 5*time.Second)
}

func TestRetry_RateLimitWithPastResetUsesBackoff(t *testing.T) {
	t.Parallel()

	c, slept := retryClient(t, WithBackoff(time.Second, 30*time.Second))
	calls := 0
	err := c.retry(context.Background(), "op", func(context.Context) error {
		calls++
		if calls == 1 {
			return httperr.RateLimited(time.Now().Add(-time.Minute))
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, *slept, 1)
	assert.Equal(t, time.Second, (*slept)[0])
}

func TestRetry_CanceledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	c, _ := retryClient(t)
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}
	calls := 0
	err := c.retry(context.Background(), "op", func(context.Context) error {
		calls++
		return httperr.New(httperr.KindServer, "upstream down")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
