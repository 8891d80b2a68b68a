package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/officebrain/concierge/internal/core/domain"
)

func TestEmbedReturnsVector(t *testing.T) {
	var captured embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	client := New(srv.URL, "llama3", "nomic-embed-text", Options{})
	vec, err := client.Embed(context.Background(), "where is the gym")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if captured.Model != "nomic-embed-text" || captured.Input != "where is the gym" {
		t.Fatalf("unexpected request: %+v", captured)
	}
}

func TestEmbedRejectsEmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer srv.Close()

	client := New(srv.URL, "llama3", "nomic-embed-text", Options{})
	if _, err := client.Embed(context.Background(), "anything"); err == nil {
		t.Fatalf("expected error for empty embedding")
	}
}

func TestEmbedSurfacesHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, "llama3", "nomic-embed-text", Options{})
	_, err := client.Embed(context.Background(), "anything")

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want HTTPStatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "model not loaded") {
		t.Fatalf("body = %q", statusErr.Body)
	}
}

func TestClassifyParsesModelOutput(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{
			Response: `{"intent": " Event_Lookup ", "confidence": 0.92, "entities": [" ", "town hall", "friday"]}`,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "llama3", "nomic-embed-text", Options{})
	guess, err := client.Classify(context.Background(), "when is the town hall?")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if guess.Intent != domain.IntentEventLookup {
		t.Fatalf("intent = %q, want event_lookup", guess.Intent)
	}
	if guess.Confidence != 0.92 {
		t.Fatalf("confidence = %v", guess.Confidence)
	}
	if guess.Entities["subject"] != "town hall" {
		t.Fatalf("entities = %v, want subject from the first non-empty entity", guess.Entities)
	}
	if captured.Model != "llama3" || captured.Format != "json" || captured.Stream {
		t.Fatalf("unexpected request: %+v", captured)
	}
}

func TestClassifyToleratesSurroundingText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{
			Response: "Sure! Here is the classification:\n```json\n{\"intent\":\"chat\",\"confidence\":0.8}\n```",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "llama3", "nomic-embed-text", Options{})
	guess, err := client.Classify(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if guess.Intent != domain.IntentChat || guess.Confidence != 0.8 {
		t.Fatalf("unexpected guess: %+v", guess)
	}
	if guess.Entities != nil {
		t.Fatalf("entities = %v, want none", guess.Entities)
	}
}

func TestClassifyFailsOnGarbageOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "I cannot answer that."})
	}))
	defer srv.Close()

	client := New(srv.URL, "llama3", "nomic-embed-text", Options{})
	if _, err := client.Classify(context.Background(), "hello"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"prefix {\"a\":1} suffix", `{"a":1}`},
		{"no braces at all", "no braces at all"},
		{"} reversed {", "} reversed {"},
	}
	for _, tc := range cases {
		if got := extractJSONObject(tc.raw); got != tc.want {
			t.Fatalf("extractJSONObject(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestClassifyProviderError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"context canceled", context.Canceled, false, false},
		{"deadline exceeded", context.DeadlineExceeded, false, false},
		{"rate limited", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, true, true},
		{"server error", &HTTPStatusError{StatusCode: http.StatusBadGateway}, true, true},
		{"bad request", &HTTPStatusError{StatusCode: http.StatusBadRequest}, false, false},
		{"transport failure", errors.New("connection refused"), true, true},
	}
	for _, tc := range cases {
		got := classifyProviderError(tc.err)
		if got.Retryable != tc.retryable || got.RecordFailure != tc.recordFailure {
			t.Fatalf("%s: classification = %+v", tc.name, got)
		}
	}
}
