package embstate

import (
	"testing"
	"time"
)

func TestWindowBreakerOpensAtThreshold(t *testing.T) {
	breaker := NewWindowBreaker(3, 5*time.Minute, nil, nil)

	breaker.RecordFailure()
	breaker.RecordFailure()
	if breaker.IsOpen() {
		t.Fatalf("expected breaker closed below threshold")
	}

	breaker.RecordFailure()
	if !breaker.IsOpen() {
		t.Fatalf("expected breaker open at threshold")
	}
}

func TestWindowBreakerClosesWhenFailuresAgeOut(t *testing.T) {
	breaker := NewWindowBreaker(3, 5*time.Minute, nil, nil)
	current := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	breaker.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		breaker.RecordFailure()
	}
	if !breaker.IsOpen() {
		t.Fatalf("expected breaker open")
	}

	current = current.Add(5*time.Minute + time.Second)
	if breaker.IsOpen() {
		t.Fatalf("expected breaker closed after window passed")
	}
}

func TestWindowBreakerSlidingWindowKeepsRecentFailures(t *testing.T) {
	breaker := NewWindowBreaker(3, 5*time.Minute, nil, nil)
	current := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	breaker.now = func() time.Time { return current }

	breaker.RecordFailure()
	current = current.Add(4 * time.Minute)
	breaker.RecordFailure()
	current = current.Add(2 * time.Minute)
	// First failure is now outside the window; only one remains.
	if breaker.IsOpen() {
		t.Fatalf("expected breaker closed")
	}

	breaker.RecordFailure()
	breaker.RecordFailure()
	if !breaker.IsOpen() {
		t.Fatalf("expected breaker open with three failures in window")
	}
}
