// Package backoff provides a small context-aware retry delay helper
// shared by the storefront and webhook clients.
package backoff

import (
	"context"
	"time"
)

type Backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func New(base, maxDelay time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if maxDelay < base {
		maxDelay = base
	}
	return &Backoff{base: base, max: maxDelay, current: base}
}

func (b *Backoff) Reset() {
	b.current = b.base
}

// Sleep blocks for the current delay, doubling it for the next call up
// to the configured maximum. It returns early when the context is
// cancelled.
func (b *Backoff) Sleep(ctx context.Context) {
	timer := time.NewTimer(b.current)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	next := b.current * 2
	if next > b.max {
		next = b.max
	}
	b.current = next
}
