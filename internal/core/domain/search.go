package domain

import "time"

type SourceKind string

const (
	SourceKeyword      SourceKind = "keyword"
	SourceVector       SourceKind = "vector"
	SourceKnowledge    SourceKind = "knowledge"
	SourceAnnouncement SourceKind = "announcement"
)

// SearchBudget is the wall-clock allowance for one end-to-end search request.
// It is created once per request and only ever read afterwards; Remaining is
// monotonically non-increasing because it is derived from the monotonic clock.
type SearchBudget struct {
	total   time.Duration
	started time.Time
}

func NewSearchBudget(total time.Duration) *SearchBudget {
	return &SearchBudget{total: total, started: time.Now()}
}

// Remaining reports how much of the budget is left, never negative.
func (b *SearchBudget) Remaining() time.Duration {
	left := b.total - time.Since(b.started)
	if left < 0 {
		return 0
	}
	return left
}

func (b *SearchBudget) Total() time.Duration {
	return b.total
}

// NormalizedResult is the canonical result shape every backend is mapped
// into at its boundary. ID is stable for the same underlying record and
// unique within a scope+source pairing, which is what deduplication keys on.
type NormalizedResult struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	BodySnippet     string            `json:"body_snippet"`
	SourceKind      SourceKind        `json:"source_kind"`
	RawScore        float64           `json:"raw_score"`
	NormalizedScore float64           `json:"normalized_score"`
	ScopeID         string            `json:"scope_id"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at,omitzero"`
}

// ScopeOutcome is the per-scope aggregation the sequential controller
// consumes. TopScore drives the early-exit decision.
type ScopeOutcome struct {
	ScopeID        string
	Results        []NormalizedResult
	KeywordElapsed time.Duration
	VectorElapsed  time.Duration
	TopScore       float64
}

// KeywordHit is the keyword backend's native result shape.
type KeywordHit struct {
	ID        string
	Title     string
	Body      string
	Rank      float64
	CreatedAt time.Time
}

// VectorHit is the vector backend's native result shape.
type VectorHit struct {
	ID         string
	Title      string
	Body       string
	Similarity float64
	CreatedAt  time.Time
}
