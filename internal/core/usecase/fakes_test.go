package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeKeyword struct {
	mu    sync.Mutex
	hits  map[string][]domain.KeywordHit
	err   error
	delay time.Duration
	calls []string
}

func (f *fakeKeyword) Search(ctx context.Context, query, scopeID string, limit, offset int) ([]domain.KeywordHit, error) {
	f.mu.Lock()
	f.calls = append(f.calls, scopeID)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[scopeID], nil
}

func (f *fakeKeyword) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeVector struct {
	mu    sync.Mutex
	hits  map[string][]domain.VectorHit
	err   error
	calls []string
}

func (f *fakeVector) Search(ctx context.Context, vector []float32, scopeID string, limit, offset int, userID string) ([]domain.VectorHit, error) {
	f.mu.Lock()
	f.calls = append(f.calls, scopeID)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.hits[scopeID], nil
}

func (f *fakeVector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeProvider struct {
	mu    sync.Mutex
	vec   []float32
	err   error
	delay time.Duration
	calls int
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]float32
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]float32)}
}

func (f *fakeCache) Get(text string) ([]float32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vec, ok := f.entries[text]
	return vec, ok
}

func (f *fakeCache) Put(text string, vector []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[text] = vector
}

type fakeBreaker struct {
	mu       sync.Mutex
	open     bool
	failures int
}

func (f *fakeBreaker) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeBreaker) RecordFailure() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
}

func (f *fakeBreaker) failureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures
}

type fakeGraph struct {
	event  *domain.Event
	policy *domain.Policy
	person *domain.Person
	err    error
}

var errNoRecord = errors.New("no matching record")

func (f *fakeGraph) FindEvent(ctx context.Context, name string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.event == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "find event", errNoRecord)
	}
	return f.event, nil
}

func (f *fakeGraph) FindPolicy(ctx context.Context, name string) (*domain.Policy, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.policy == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "find policy", errNoRecord)
	}
	return f.policy, nil
}

func (f *fakeGraph) FindPerson(ctx context.Context, name string) (*domain.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.person == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "find person", errNoRecord)
	}
	return f.person, nil
}

type fakeAnnouncements struct {
	hits map[string][]domain.Announcement
	err  error
}

func (f *fakeAnnouncements) SearchAnnouncements(ctx context.Context, query, scopeID string, limit int) ([]domain.Announcement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[scopeID], nil
}

type fakeStore struct {
	mu     sync.Mutex
	stored []domain.Announcement
	err    error
}

func (f *fakeStore) UpsertAnnouncement(ctx context.Context, a domain.Announcement) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, a)
	return nil
}

type fakeClassifier struct {
	guess domain.IntentGuess
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, queryText string) (domain.IntentGuess, error) {
	f.calls++
	if f.err != nil {
		return domain.IntentGuess{}, f.err
	}
	return f.guess, nil
}
