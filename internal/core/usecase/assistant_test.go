package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
)

func newAssistantFixture(keyword *fakeKeyword, graph *fakeGraph) *Assistant {
	exec := newToolsFixture(keyword, graph, nil)
	planner := NewPlanner(nil, discardLogger())
	return NewAssistant(planner, exec, NewComposer(), discardLogger())
}

func TestPlanAndAnswerEventEndToEnd(t *testing.T) {
	graph := &fakeGraph{event: &domain.Event{
		ID:       "ev-1",
		Name:     "Town hall",
		Location: "Main auditorium",
		StartsAt: time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
	}}
	assistant := newAssistantFixture(&fakeKeyword{}, graph)

	resp, err := assistant.PlanAndAnswer(context.Background(), "when is the town hall?", []string{"hq"})
	if err != nil {
		t.Fatalf("PlanAndAnswer: %v", err)
	}
	if resp.Intent != domain.IntentEventLookup {
		t.Fatalf("intent = %q, want event lookup", resp.Intent)
	}
	if !strings.Contains(resp.Text, "scheduled for") {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "Town hall" {
		t.Fatalf("unexpected sources: %v", resp.Sources)
	}
	if resp.Confidence != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", resp.Confidence)
	}
}

func TestPlanAndAnswerFallsBackToDocumentsOnGraphMiss(t *testing.T) {
	keyword := &fakeKeyword{hits: map[string][]domain.KeywordHit{
		"hq": {{ID: "doc-1", Title: "Town hall recap", Body: "Next town hall is pending.", Rank: 0.05}},
	}}
	assistant := newAssistantFixture(keyword, &fakeGraph{})

	resp, err := assistant.PlanAndAnswer(context.Background(), "when is the town hall?", []string{"hq"})
	if err != nil {
		t.Fatalf("PlanAndAnswer: %v", err)
	}
	if resp.NeedsClarification {
		t.Fatalf("expected an answer, got clarification: %+v", resp)
	}
	if !strings.Contains(resp.Text, "Town hall recap") {
		t.Fatalf("doc fallback missing from text: %q", resp.Text)
	}
}

func TestPlanAndAnswerChatSkipsTools(t *testing.T) {
	keyword := &fakeKeyword{}
	assistant := newAssistantFixture(keyword, &fakeGraph{})

	resp, err := assistant.PlanAndAnswer(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("PlanAndAnswer: %v", err)
	}
	if resp.Intent != domain.IntentChat || resp.Text != chatReply {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if keyword.callCount() != 0 {
		t.Fatalf("chat must not touch the keyword backend")
	}
}

func TestPlanAndAnswerEmptyQueryAsksForClarification(t *testing.T) {
	assistant := newAssistantFixture(&fakeKeyword{}, &fakeGraph{})

	resp, err := assistant.PlanAndAnswer(context.Background(), "   ", nil)
	if err != nil {
		t.Fatalf("PlanAndAnswer: %v", err)
	}
	if !resp.NeedsClarification {
		t.Fatalf("expected clarification: %+v", resp)
	}
	if resp.Intent != domain.IntentClarify {
		t.Fatalf("intent = %q, want clarify", resp.Intent)
	}
}
