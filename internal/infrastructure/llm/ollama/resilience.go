package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/officebrain/concierge/internal/infrastructure/resilience"
)

// HTTPStatusError carries the provider's status code so the retry and
// breaker policy can distinguish client mistakes from provider trouble.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("ollama %s: %s: %s", e.Operation, e.Status, e.Body)
	}
	return fmt.Sprintf("ollama %s: %s", e.Operation, e.Status)
}

func classifyProviderError(err error) resilience.Classification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Classification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return resilience.Classification{Retryable: true, RecordFailure: true}
		case statusErr.StatusCode >= 500:
			return resilience.Classification{Retryable: true, RecordFailure: true}
		default:
			// 4xx means the request itself is wrong; retrying will not help
			// and the provider is healthy.
			return resilience.Classification{Retryable: false, RecordFailure: false}
		}
	}

	// Transport-level failures (connection refused, reset, DNS).
	return resilience.Classification{Retryable: true, RecordFailure: true}
}
