package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
	"github.com/officebrain/concierge/internal/core/ports"
)

// Backend executors wrap one backend call each with a hard per-call timeout
// and map native result shapes into NormalizedResult. They never return an
// error: every failure degrades to an empty slice plus a log line.

type keywordExecutor struct {
	backend ports.KeywordSearcher
	tuning  domain.SearchTuning
	logger  *slog.Logger
}

func (e *keywordExecutor) search(ctx context.Context, query, scopeID string, budget *domain.SearchBudget, limit int) []domain.NormalizedResult {
	timeout := minDuration(e.tuning.KeywordSoftTimeout, budget.Remaining())
	if timeout < e.tuning.MinUsefulTimeout {
		return nil
	}

	// The hard timeout is tighter than the budget-derived soft one, so a
	// slow scope cannot silently consume another scope's share.
	callCtx, cancel := context.WithTimeout(ctx, minDuration(timeout, e.tuning.KeywordHardTimeout))
	defer cancel()

	hits, err := e.backend.Search(callCtx, query, scopeID, limit, 0)
	if err != nil {
		e.logger.Warn("keyword_search_degraded", "scope_id", scopeID, "error", err)
		return nil
	}

	out := make([]domain.NormalizedResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.NormalizedResult{
			ID:              h.ID,
			Title:           h.Title,
			BodySnippet:     snippet(h.Body),
			SourceKind:      domain.SourceKeyword,
			RawScore:        h.Rank,
			NormalizedScore: normalizeKeywordRank(h.Rank, e.tuning),
			ScopeID:         scopeID,
			CreatedAt:       h.CreatedAt,
		})
	}
	return out
}

type vectorExecutor struct {
	backend ports.VectorSearcher
	tuning  domain.SearchTuning
	logger  *slog.Logger
}

func (e *vectorExecutor) search(ctx context.Context, vector []float32, scopeID string, budget *domain.SearchBudget, limit int) []domain.NormalizedResult {
	if e.backend == nil || len(vector) == 0 {
		return nil
	}
	timeout := minDuration(e.tuning.VectorSoftTimeout, budget.Remaining())
	if timeout < e.tuning.MinUsefulTimeout {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, minDuration(timeout, e.tuning.VectorHardTimeout))
	defer cancel()

	hits, err := e.backend.Search(callCtx, vector, scopeID, limit, 0, "")
	if err != nil {
		e.logger.Warn("vector_search_degraded", "scope_id", scopeID, "error", err)
		return nil
	}

	out := make([]domain.NormalizedResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.NormalizedResult{
			ID:              h.ID,
			Title:           h.Title,
			BodySnippet:     snippet(h.Body),
			SourceKind:      domain.SourceVector,
			RawScore:        h.Similarity,
			NormalizedScore: clamp01(h.Similarity),
			ScopeID:         scopeID,
			CreatedAt:       h.CreatedAt,
		})
	}
	return out
}

// normalizeKeywordRank rescales a full-text rank onto the same range as
// vector similarity. Scale and offset are tuning, not correctness.
func normalizeKeywordRank(rank float64, tuning domain.SearchTuning) float64 {
	return clamp01(rank*tuning.KeywordScoreScale + tuning.KeywordScoreOffset)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

const snippetMaxRunes = 280

func snippet(body string) string {
	runes := []rune(body)
	if len(runes) <= snippetMaxRunes {
		return body
	}
	return string(runes[:snippetMaxRunes])
}
