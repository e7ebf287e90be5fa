// Package ratelimit tracks call attempts per endpoint over a sliding window
// so the client can warn or back off before the backend starts answering 429.
// The tracker is advisory only: it never blocks a call by itself and knows
// nothing about server-side limits, which arrive as classified errors.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultLimit is the advisory threshold per endpoint within the window.
const DefaultLimit = 10

// DefaultWindow is the trailing window attempts are counted against.
const DefaultWindow = 15 * time.Minute

// Tracker records call attempts and answers whether an endpoint is
// currently rate-limited locally.
type Tracker interface {
	// RecordAttempt appends the current time to the endpoint's window.
	RecordAttempt(ctx context.Context, endpointKey string) error
	// IsLimited reports whether the endpoint has reached limit attempts
	// within the trailing window.
	IsLimited(ctx context.Context, endpointKey string, limit int) (bool, error)
}

// InMemoryTracker implements Tracker with a per-key timestamp slice.
// Suitable for a single process; the Redis tracker covers shared use.
type InMemoryTracker struct {
	mu      sync.Mutex
	window  time.Duration
	windows map[string][]time.Time

	// now is swapped out by tests to simulate window expiry.
	now func() time.Time
}

// NewInMemoryTracker creates a tracker with the given trailing window.
// A zero window falls back to DefaultWindow.
func NewInMemoryTracker(window time.Duration) *InMemoryTracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &InMemoryTracker{
		window:  window,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// RecordAttempt appends the current timestamp and prunes expired entries.
func (t *InMemoryTracker) RecordAttempt(_ context.Context, endpointKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.windows[endpointKey] = append(t.prune(endpointKey, now), now)
	return nil
}

// IsLimited prunes expired entries, then compares the remaining count
// against the limit. A non-positive limit falls back to DefaultLimit.
func (t *InMemoryTracker) IsLimited(_ context.Context, endpointKey string, limit int) (bool, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.prune(endpointKey, t.now())
	if len(kept) == 0 {
		delete(t.windows, endpointKey)
	} else {
		t.windows[endpointKey] = kept
	}
	return len(kept) >= limit, nil
}

// prune drops timestamps older than the window. Caller holds the lock.
func (t *InMemoryTracker) prune(endpointKey string, now time.Time) []time.Time {
	cutoff := now.Add(-t.window)
	stamps := t.windows[endpointKey]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

var _ Tracker = (*InMemoryTracker)(nil)
