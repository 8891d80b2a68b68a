package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/officebrain/concierge/internal/core/domain"
	"github.com/officebrain/concierge/internal/core/ports"
)

// EmbeddingService mediates every embedding request through the shared
// process-wide cache and the provider failure breaker. Concurrent requests
// for the same normalized text collapse into a single provider call.
type EmbeddingService struct {
	provider ports.EmbeddingProvider
	cache    ports.EmbeddingCache
	breaker  ports.FailureBreaker
	group    singleflight.Group

	callTimeout time.Duration
	minRequired time.Duration
	logger      *slog.Logger
}

func NewEmbeddingService(
	provider ports.EmbeddingProvider,
	cache ports.EmbeddingCache,
	breaker ports.FailureBreaker,
	callTimeout time.Duration,
	logger *slog.Logger,
) *EmbeddingService {
	if callTimeout <= 0 {
		callTimeout = 800 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingService{
		provider: provider,
		cache:    cache,
		breaker:  breaker,

		callTimeout: callTimeout,
		// Floor slightly above the call's own timeout: a call that cannot
		// finish inside the budget is not started at all.
		minRequired: callTimeout + 100*time.Millisecond,
		logger:      logger,
	}
}

func normalizeQueryText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// GetOrCreate returns a vector for the query text, or reports absence.
// A cache hit costs nothing and skips the budget check. Otherwise the
// provider is called only when the breaker is closed and the remaining
// budget still fits the call; failures open the breaker window and degrade
// to absent, never to an error.
func (s *EmbeddingService) GetOrCreate(ctx context.Context, queryText string, budget *domain.SearchBudget) ([]float32, bool) {
	key := normalizeQueryText(queryText)
	if key == "" {
		return nil, false
	}
	if vec, ok := s.cache.Get(key); ok {
		return vec, true
	}
	if budget != nil && budget.Remaining() < s.minRequired {
		s.logger.Debug("embedding_skipped_budget", "remaining_ms", budget.Remaining().Milliseconds())
		return nil, false
	}
	if s.breaker.IsOpen() {
		s.logger.Debug("embedding_skipped_breaker_open")
		return nil, false
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()

		vec, err := s.provider.Embed(callCtx, key)
		if err != nil {
			s.breaker.RecordFailure()
			return nil, err
		}
		s.cache.Put(key, vec)
		return vec, nil
	})
	if err != nil {
		s.logger.Warn("embedding_failed", "error", err)
		return nil, false
	}

	vec, _ := v.([]float32)
	if len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

// EmbeddingState is the handle for a background embedding task. Scopes poll
// it with a bounded wait; nothing joins it unboundedly.
type EmbeddingState struct {
	done chan struct{}
	vec  []float32
	ok   bool
}

// Ready reports the vector without blocking.
func (st *EmbeddingState) Ready() ([]float32, bool) {
	select {
	case <-st.done:
		return st.vec, st.ok
	default:
		return nil, false
	}
}

// Wait blocks up to max for the task to finish.
func (st *EmbeddingState) Wait(max time.Duration) ([]float32, bool) {
	if max <= 0 {
		return st.Ready()
	}
	timer := time.NewTimer(max)
	defer timer.Stop()
	select {
	case <-st.done:
		return st.vec, st.ok
	case <-timer.C:
		return nil, false
	}
}

func resolvedEmbeddingState(vec []float32, ok bool) *EmbeddingState {
	st := &EmbeddingState{done: make(chan struct{}), vec: vec, ok: ok}
	close(st.done)
	return st
}

// StartBackground kicks off embedding generation without blocking the
// caller. A cache hit resolves the handle immediately with no goroutine.
func (s *EmbeddingService) StartBackground(ctx context.Context, queryText string, budget *domain.SearchBudget) *EmbeddingState {
	if vec, ok := s.cache.Get(normalizeQueryText(queryText)); ok {
		return resolvedEmbeddingState(vec, true)
	}

	st := &EmbeddingState{done: make(chan struct{})}
	go func() {
		st.vec, st.ok = s.GetOrCreate(ctx, queryText, budget)
		close(st.done)
	}()
	return st
}
