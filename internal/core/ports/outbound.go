package ports

import (
	"context"

	"github.com/officebrain/concierge/internal/core/domain"
)

// KeywordSearcher is the full-text backend. Errors and cancellations are
// interpreted by the executor as "no results".
type KeywordSearcher interface {
	Search(ctx context.Context, query, scopeID string, limit, offset int) ([]domain.KeywordHit, error)
}

// VectorSearcher is the similarity backend. userID may be empty.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, scopeID string, limit, offset int, userID string) ([]domain.VectorHit, error)
}

// EmbeddingProvider turns query text into a vector. Implementations handle
// their own retry/backoff on transient failures.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache maps normalized query text to a previously computed vector.
// Shared across concurrent requests; implementations must be safe for
// concurrent use. Expired entries read as absent.
type EmbeddingCache interface {
	Get(text string) ([]float32, bool)
	Put(text string, vector []float32)
}

// FailureBreaker guards the embedding provider: open means generation is
// disabled until old failures age out of the trailing window.
type FailureBreaker interface {
	IsOpen() bool
	RecordFailure()
}

// KnowledgeGraph resolves structured lookups by name. A miss is
// domain.ErrNotFound, not an empty struct.
type KnowledgeGraph interface {
	FindEvent(ctx context.Context, name string) (*domain.Event, error)
	FindPolicy(ctx context.Context, name string) (*domain.Policy, error)
	FindPerson(ctx context.Context, name string) (*domain.Person, error)
}

// AnnouncementSearcher runs keyword search over broadcast announcements.
type AnnouncementSearcher interface {
	SearchAnnouncements(ctx context.Context, query, scopeID string, limit int) ([]domain.Announcement, error)
}

// AnnouncementStore persists announcements delivered by the queue.
type AnnouncementStore interface {
	UpsertAnnouncement(ctx context.Context, a domain.Announcement) error
}

// IntentClassifier is the optional pluggable layer over the rule-based
// planner. Its failure or low confidence must never block a response.
type IntentClassifier interface {
	Classify(ctx context.Context, queryText string) (domain.IntentGuess, error)
}
