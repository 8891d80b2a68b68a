package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
)

func newControllerFixture(keyword *fakeKeyword, vector *fakeVector, tuning domain.SearchTuning) (*SearchController, *fakeProvider) {
	provider := &fakeProvider{vec: []float32{0.1, 0.2}}
	cache := newFakeCache()
	embedder := NewEmbeddingService(provider, cache, &fakeBreaker{}, 200*time.Millisecond, discardLogger())
	// Pre-warm the cache so the embedding resolves instantly in tests that
	// exercise the vector path.
	cache.Put("test query", []float32{0.1, 0.2})
	return NewSearchController(keyword, vector, embedder, tuning, discardLogger()), provider
}

func TestSearchMergesKeywordAndVectorResults(t *testing.T) {
	keyword := &fakeKeyword{hits: map[string][]domain.KeywordHit{
		"hq": {
			{ID: "doc-1", Title: "Parking policy", Body: "Guests park in lot B.", Rank: 0.05},
		},
	}}
	vector := &fakeVector{hits: map[string][]domain.VectorHit{
		"hq": {
			{ID: "doc-1", Title: "Parking policy", Body: "Guests park in lot B.", Similarity: 0.9},
			{ID: "doc-2", Title: "Office map", Body: "Lot B is behind the lobby.", Similarity: 0.6},
		},
	}}
	controller, _ := newControllerFixture(keyword, vector, domain.SearchTuning{HighConfidence: 0.99})

	results := controller.Search(context.Background(), "test query", []string{"hq"})
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	// doc-1 appears in both backends; the keyword mapping wins the dedupe.
	var doc1 *domain.NormalizedResult
	for i := range results {
		if results[i].ID == "doc-1" {
			doc1 = &results[i]
		}
	}
	if doc1 == nil {
		t.Fatalf("doc-1 missing from merged results")
	}
	if doc1.SourceKind != domain.SourceKeyword {
		t.Fatalf("doc-1 source = %s, want keyword", doc1.SourceKind)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].NormalizedScore < results[i].NormalizedScore {
			t.Fatalf("results not sorted desc: %+v", results)
		}
	}
}

func TestSearchEarlyExitsOnHighConfidenceScope(t *testing.T) {
	keyword := &fakeKeyword{hits: map[string][]domain.KeywordHit{
		"a": {{ID: "doc-1", Title: "Exact match", Body: "body", Rank: 0.09}},
		"b": {{ID: "doc-2", Title: "Never reached", Body: "body", Rank: 0.09}},
	}}
	vector := &fakeVector{}
	controller, _ := newControllerFixture(keyword, vector, domain.SearchTuning{})

	results := controller.Search(context.Background(), "test query", []string{"a", "b"})
	if keyword.callCount() != 1 {
		t.Fatalf("keyword backend called %d times, want 1 (early exit)", keyword.callCount())
	}
	if len(results) != 1 || results[0].ID != "doc-1" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchStopsScopeLoopWhenBudgetExhausted(t *testing.T) {
	keyword := &fakeKeyword{
		delay: 200 * time.Millisecond,
		hits: map[string][]domain.KeywordHit{
			"a": {{ID: "doc-1", Title: "First scope", Body: "body", Rank: 0.01}},
		},
	}
	vector := &fakeVector{}
	controller, _ := newControllerFixture(keyword, vector, domain.SearchTuning{
		TotalBudget:    600 * time.Millisecond,
		BudgetFloor:    500 * time.Millisecond,
		HighConfidence: 0.99,
	})

	results := controller.Search(context.Background(), "test query", []string{"a", "b", "c"})
	if keyword.callCount() != 1 {
		t.Fatalf("keyword backend called %d times, want 1 (budget floor)", keyword.callCount())
	}
	if len(results) != 1 || results[0].ID != "doc-1" {
		t.Fatalf("expected partial results from the first scope, got %+v", results)
	}
}

func TestSearchFirstScopeAlwaysAttempted(t *testing.T) {
	keyword := &fakeKeyword{}
	vector := &fakeVector{}
	controller, _ := newControllerFixture(keyword, vector, domain.SearchTuning{
		TotalBudget:      100 * time.Millisecond,
		BudgetFloor:      500 * time.Millisecond,
		MinUsefulTimeout: time.Millisecond,
	})

	_ = controller.Search(context.Background(), "test query", []string{"a", "b"})
	// The floor is above the whole budget, yet scope "a" still gets its try.
	if keyword.callCount() != 1 {
		t.Fatalf("keyword backend called %d times, want 1", keyword.callCount())
	}
}

func TestSearchTruncatesToMergedTopK(t *testing.T) {
	hits := make([]domain.KeywordHit, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		hits = append(hits, domain.KeywordHit{ID: "doc-" + id, Title: id, Body: "body", Rank: 0.01})
	}
	keyword := &fakeKeyword{hits: map[string][]domain.KeywordHit{"hq": hits}}
	controller, _ := newControllerFixture(keyword, &fakeVector{}, domain.SearchTuning{
		MergedTopK:     3,
		HighConfidence: 0.99,
	})

	results := controller.Search(context.Background(), "test query", []string{"hq"})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
}

func TestSearchSkipsVectorWhenEmbeddingUnavailable(t *testing.T) {
	keyword := &fakeKeyword{hits: map[string][]domain.KeywordHit{
		"hq": {{ID: "doc-1", Title: "Keyword only", Body: "body", Rank: 0.02}},
	}}
	vector := &fakeVector{hits: map[string][]domain.VectorHit{
		"hq": {{ID: "doc-9", Title: "Should not appear", Similarity: 0.9}},
	}}

	provider := &fakeProvider{err: errors.New("embedder down")}
	embedder := NewEmbeddingService(provider, newFakeCache(), &fakeBreaker{}, 200*time.Millisecond, discardLogger())
	controller := NewSearchController(keyword, vector, embedder, domain.SearchTuning{HighConfidence: 0.99}, discardLogger())

	results := controller.Search(context.Background(), "test query", []string{"hq"})
	if vector.callCount() != 0 {
		t.Fatalf("vector backend called %d times, want 0", vector.callCount())
	}
	if len(results) != 1 || results[0].ID != "doc-1" {
		t.Fatalf("expected keyword-only results, got %+v", results)
	}
}

func TestDedupeByIDKeepsFirstOccurrence(t *testing.T) {
	in := []domain.NormalizedResult{
		{ID: "a", SourceKind: domain.SourceKeyword},
		{ID: "b", SourceKind: domain.SourceVector},
		{ID: "a", SourceKind: domain.SourceVector},
	}
	out := dedupeByID(in)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].ID != "a" || out[0].SourceKind != domain.SourceKeyword {
		t.Fatalf("first occurrence not kept: %+v", out[0])
	}

	// Deduplicating an already deduplicated list changes nothing.
	again := dedupeByID(out)
	if len(again) != 2 {
		t.Fatalf("dedupe not idempotent: %+v", again)
	}
}
