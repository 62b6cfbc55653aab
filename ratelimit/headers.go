// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Header names checked for server-reported rate-limit state. Docker Hub sends
// the x-prefixed form; the bare form is the IETF draft spelling.
var (
	limitHeaders     = []string{"x-ratelimit-limit", "ratelimit-limit"}
	remainingHeaders = []string{"x-ratelimit-remaining", "ratelimit-remaining"}
	resetHeaders     = []string{"x-ratelimit-reset", "ratelimit-reset"}
)

// UpdateFromHeaders syncs the limiter with the server's authoritative state
// for key. A valid limit overwrites the local budget; a valid reset (Unix
// seconds) overwrites the key's window end, and the local count is recomputed
// as limit - remaining, floored at zero. Headers that are absent or
// unparseable leave the corresponding state untouched.
func (l *Limiter) UpdateFromHeaders(h http.Header, key string) {
	limit, haveLimit := intHeader(h, limitHeaders)
	remaining, haveRemaining := intHeader(h, remainingHeaders)
	resetSecs, haveReset := intHeader(h, resetHeaders)

	if !haveLimit && !haveRemaining && !haveReset {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if haveLimit && limit > 0 {
		l.maxRequests = limit
	}

	e, ok := l.entries[key]
	if !ok {
		e = &state{resetAt: l.now().Add(l.window)}
		l.entries[key] = e
	}
	if haveReset && resetSecs > 0 {
		e.resetAt = time.Unix(int64(resetSecs), 0)
	}
	if haveRemaining {
		count := l.maxRequests - remaining
		if count < 0 {
			count = 0
		}
		e.count = count
	}
}

// intHeader returns the first parseable integer among the named headers.
func intHeader(h http.Header, names []string) (int, bool) {
	for _, name := range names {
		if v := h.Get(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
