package ports

import (
	"context"

	"github.com/officebrain/concierge/internal/core/domain"
)

// AssistantService is the inbound contract: one free-text question against a
// caller-supplied ordered list of tenant scopes, one composed answer.
// Authorization, rate limiting, and transport are the caller's concern.
type AssistantService interface {
	PlanAndAnswer(ctx context.Context, queryText string, scopeIDs []string) (*domain.ComposedResponse, error)
}

// AnnouncementIngestor consumes raw announcement payloads from the queue.
type AnnouncementIngestor interface {
	Ingest(ctx context.Context, payload []byte) error
}
