// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/logger"
)

// retry runs fn under the uniform retry policy: rate-limit errors wait until
// the server-reported reset (or back off exponentially when it is unknown),
// server errors back off exponentially from the base up to the cap, and
// everything else, authentication errors in particular, surfaces immediately.
// The last normalized error is returned once the attempt budget is spent.
func (c *Client) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var norm *httperr.Error
		if !errors.As(err, &norm) || !norm.Retryable() || attempt == c.maxAttempts {
			return err
		}

		delay := c.backoffDelay(attempt)
		if norm.Kind() == httperr.KindRateLimit {
			if until := time.Until(norm.Reset()); until > 0 {
				delay = until
			}
		}

		logger.Debugw("retrying operation", "op", op, "attempt", attempt,
			"kind", string(norm.Kind()), "delay", delay.String())
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// backoffDelay is the exponential delay for the given 1-based attempt.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.backoffBase << (attempt - 1)
	if delay > c.backoffCap {
		delay = c.backoffCap
	}
	return delay
}
