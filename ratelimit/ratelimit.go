// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/stacklok/dockerhub-mcp/httperr"
)

const (
	// DefaultKey is the shared rate-limit domain used when callers do not
	// partition by key.
	DefaultKey = "global"

	// DefaultMaxRequests is the per-window request budget before server
	// headers teach us the real limit.
	DefaultMaxRequests = 100

	// DefaultWindow is the local counting window.
	DefaultWindow = time.Minute
)

// Info is a non-mutating snapshot of a key's rate-limit state.
type Info struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// state tracks one logical rate-limit domain.
type state struct {
	count   int
	resetAt time.Time
}

// Limiter enforces a maximum-requests-per-window policy per logical key and
// adjusts itself from server-reported rate-limit headers. It is safe for
// concurrent use; a wait on one key never blocks another key's progress.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	entries     map[string]*state
	now         func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Intended for window tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter allowing maxRequests per window for each key.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		entries:     make(map[string]*state),
		now:         time.Now,
	}
	if l.maxRequests <= 0 {
		l.maxRequests = DefaultMaxRequests
	}
	if l.window <= 0 {
		l.window = DefaultWindow
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request against key and reports whether it fits the window.
// A fresh or elapsed window restarts at count 1. A denied call does not
// increment the counter.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.allow(key)
	return ok
}

// allow is Allow plus the window reset time, for callers that need to report
// when a denied request may proceed.
func (l *Limiter) allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &state{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		return true, e.resetAt
	}
	if e.count >= l.maxRequests {
		return false, e.resetAt
	}
	e.count++
	return true, e.resetAt
}

// Info returns the current limit, remaining budget, and window reset for key
// without mutating any state.
func (l *Limiter) Info(key string) Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		// The window would restart on the next request, consuming one slot.
		return Info{
			Limit:     l.maxRequests,
			Remaining: l.maxRequests - 1,
			Reset:     now.Add(l.window),
		}
	}

	remaining := l.maxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Info{Limit: l.maxRequests, Remaining: remaining, Reset: e.resetAt}
}

// WaitForReset returns immediately when key has remaining budget; otherwise it
// sleeps until the window resets or the context is canceled. Other keys are
// unaffected while a caller waits.
func (l *Limiter) WaitForReset(ctx context.Context, key string) error {
	info := l.Info(key)
	if info.Remaining > 0 {
		return nil
	}

	wait := info.Reset.Sub(l.clockNow())
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do gates fn behind the limiter. When the budget is exhausted it either
// fails fast with a rate-limit error carrying the reset time, or waits for
// the window to reset and then proceeds. fn runs at most once and is never
// retried here.
func (l *Limiter) Do(ctx context.Context, key string, failFast bool, fn func(ctx context.Context) error) error {
	allowed, reset := l.allow(key)
	if !allowed {
		if failFast {
			return httperr.RateLimited(reset)
		}
		if err := l.WaitForReset(ctx, key); err != nil {
			return err
		}
		// The window has reset; register this request in the fresh window.
		l.allow(key)
	}
	return fn(ctx)
}

// Clear forgets the tracked state for key. The next Allow treats it as fresh.
func (l *Limiter) Clear(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// ClearAll forgets all tracked state.
func (l *Limiter) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*state)
}

func (l *Limiter) clockNow() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now()
}
