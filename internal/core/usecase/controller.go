package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
	"github.com/officebrain/concierge/internal/core/ports"
)

// SearchController runs the budget-aware hybrid search across tenant scopes:
// one shared budget per call, a background embedding task racing the scope
// loop, sequential scope iteration with early exit, and global top-K
// aggregation.
type SearchController struct {
	keyword  *keywordExecutor
	vector   *vectorExecutor
	embedder *EmbeddingService
	tuning   domain.SearchTuning
	logger   *slog.Logger
}

func NewSearchController(
	keyword ports.KeywordSearcher,
	vector ports.VectorSearcher,
	embedder *EmbeddingService,
	tuning domain.SearchTuning,
	logger *slog.Logger,
) *SearchController {
	tuning = tuning.Normalized()
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchController{
		keyword:  &keywordExecutor{backend: keyword, tuning: tuning, logger: logger},
		vector:   &vectorExecutor{backend: vector, tuning: tuning, logger: logger},
		embedder: embedder,
		tuning:   tuning,
		logger:   logger,
	}
}

// Search iterates scopes in caller-supplied order under one shared budget.
// The first scope is always attempted; later scopes are skipped once the
// remaining budget drops below the floor or a scope reports a
// high-confidence top score.
func (c *SearchController) Search(ctx context.Context, query string, scopeIDs []string) []domain.NormalizedResult {
	budget := domain.NewSearchBudget(c.tuning.TotalBudget)
	embedding := c.embedder.StartBackground(ctx, query, budget)

	outcomes := make([]domain.ScopeOutcome, 0, len(scopeIDs))
	for i, scopeID := range scopeIDs {
		if i > 0 && budget.Remaining() < c.tuning.BudgetFloor {
			c.logger.Info("scope_loop_budget_exhausted",
				"remaining_ms", budget.Remaining().Milliseconds(),
				"scopes_searched", i,
				"scopes_total", len(scopeIDs),
			)
			break
		}

		outcome := c.searchScope(ctx, query, scopeID, embedding, budget)
		outcomes = append(outcomes, outcome)

		if outcome.TopScore >= c.tuning.HighConfidence {
			c.logger.Info("scope_loop_early_exit", "scope_id", scopeID, "top_score", outcome.TopScore)
			break
		}
	}

	merged := make([]domain.NormalizedResult, 0, len(outcomes)*c.tuning.PerCallLimit)
	for _, o := range outcomes {
		merged = append(merged, o.Results...)
	}
	merged = dedupeByID(merged)
	sortByScoreDesc(merged)
	if len(merged) > c.tuning.MergedTopK {
		merged = merged[:c.tuning.MergedTopK]
	}
	return merged
}

// searchScope runs keyword first (cheaper, independent of the embedding),
// then vector only if an embedding arrived in time and the budget still
// covers the call. Partial results are acceptable.
func (c *SearchController) searchScope(ctx context.Context, query, scopeID string, embedding *EmbeddingState, budget *domain.SearchBudget) domain.ScopeOutcome {
	outcome := domain.ScopeOutcome{ScopeID: scopeID}

	started := time.Now()
	keywordResults := c.keyword.search(ctx, query, scopeID, budget, c.tuning.PerCallLimit)
	outcome.KeywordElapsed = time.Since(started)

	vectorBudgetNeeded := c.tuning.VectorHardTimeout + c.tuning.VectorMargin

	vec, ok := embedding.Ready()
	if !ok {
		// Never wait longer than leaves room to still run the vector call.
		wait := minDuration(c.tuning.EmbedWaitCap, budget.Remaining()-vectorBudgetNeeded)
		if wait > 0 {
			vec, ok = embedding.Wait(wait)
		}
	}

	var vectorResults []domain.NormalizedResult
	if ok && budget.Remaining() > vectorBudgetNeeded {
		vStart := time.Now()
		vectorResults = c.vector.search(ctx, vec, scopeID, budget, c.tuning.PerCallLimit)
		outcome.VectorElapsed = time.Since(vStart)
	}

	if c.tuning.RerankEnabled {
		outcome.Results = fuseWeighted(query, keywordResults, vectorResults, c.tuning, time.Now())
	} else {
		// First occurrence wins on duplicate ids, which is always the
		// keyword result because keyword runs first.
		outcome.Results = dedupeByID(append(keywordResults, vectorResults...))
		sortByScoreDesc(outcome.Results)
	}
	if len(outcome.Results) > 0 {
		outcome.TopScore = outcome.Results[0].NormalizedScore
	}

	c.logger.Debug("scope_searched",
		"scope_id", scopeID,
		"keyword_ms", outcome.KeywordElapsed.Milliseconds(),
		"vector_ms", outcome.VectorElapsed.Milliseconds(),
		"results", len(outcome.Results),
		"top_score", outcome.TopScore,
	)
	return outcome
}

// dedupeByID keeps the first occurrence per id. Idempotent.
func dedupeByID(results []domain.NormalizedResult) []domain.NormalizedResult {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func sortByScoreDesc(results []domain.NormalizedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].NormalizedScore != results[j].NormalizedScore {
			return results[i].NormalizedScore > results[j].NormalizedScore
		}
		return results[i].ID < results[j].ID
	})
}
