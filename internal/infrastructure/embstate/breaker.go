package embstate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WindowBreaker disables embedding generation after repeated provider
// failures inside a trailing window. It has no explicit reset: the breaker
// closes by itself once old failures age out on read.
type WindowBreaker struct {
	mu        sync.Mutex
	failures  []time.Time
	threshold int
	window    time.Duration
	now       func() time.Time

	opens  prometheus.Counter // optional
	logger *slog.Logger
}

func NewWindowBreaker(threshold int, window time.Duration, opens prometheus.Counter, logger *slog.Logger) *WindowBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowBreaker{
		threshold: threshold,
		window:    window,
		now:       time.Now,
		opens:     opens,
		logger:    logger,
	}
}

func (b *WindowBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune()
	return len(b.failures) >= b.threshold
}

func (b *WindowBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.prune()
	wasOpen := len(b.failures) >= b.threshold
	b.failures = append(b.failures, b.now())

	if !wasOpen && len(b.failures) >= b.threshold {
		b.logger.Warn("embedding_breaker_open",
			"failures", len(b.failures),
			"window_s", b.window.Seconds(),
		)
		if b.opens != nil {
			b.opens.Inc()
		}
	}
}

// prune drops failures that left the trailing window. Caller holds the lock.
func (b *WindowBreaker) prune() {
	cutoff := b.now().Add(-b.window)
	keep := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	b.failures = keep
}
