package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
)

const (
	composerMaxDocs = 5

	chatReply = "Hi! Ask me about workspace events, policies, people, or documents and I'll look it up."

	nothingFoundReply = "I couldn't find anything matching that in the workspaces I can search. Try rephrasing or adding a detail like a document or event name."
)

// Composer turns tool results into the final answer: the best successful
// result drives confidence, the intent drives the formatting, and an empty
// outcome degrades to clarification or a "couldn't find" reply.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

func (c *Composer) Compose(queryText string, plan domain.QueryPlan, toolResults []domain.ToolResult) *domain.ComposedResponse {
	switch plan.Intent {
	case domain.IntentChat:
		return &domain.ComposedResponse{
			Text:       chatReply,
			Sources:    []string{},
			Confidence: plan.Confidence,
		}
	case domain.IntentClarify:
		return clarificationResponse(queryText)
	}

	best := bestSuccessful(toolResults)
	if best == nil {
		if plan.Confidence < 0.5 {
			return clarificationResponse(queryText)
		}
		return &domain.ComposedResponse{
			Text:    nothingFoundReply,
			Sources: []string{},
		}
	}

	switch plan.Intent {
	case domain.IntentEventLookup:
		return structuredResponse(best, formatEvent)
	case domain.IntentPolicyLookup:
		return structuredResponse(best, formatPolicy)
	case domain.IntentPersonLookup:
		return structuredResponse(best, formatPerson)
	default:
		return documentResponse(best, toolResults)
	}
}

func clarificationResponse(queryText string) *domain.ComposedResponse {
	question := "Could you tell me a bit more about what you're looking for?"
	if strings.TrimSpace(queryText) != "" {
		question = fmt.Sprintf("I'm not sure what %q refers to. Could you rephrase, or name the event, policy, or document you mean?", strings.TrimSpace(queryText))
	}
	return &domain.ComposedResponse{
		Text:                  question,
		Sources:               []string{},
		NeedsClarification:    true,
		ClarificationQuestion: question,
	}
}

func bestSuccessful(toolResults []domain.ToolResult) *domain.ToolResult {
	var best *domain.ToolResult
	for i := range toolResults {
		r := &toolResults[i]
		if !r.Success || len(r.Results) == 0 {
			continue
		}
		if best == nil || r.Confidence > best.Confidence {
			best = r
		}
	}
	return best
}

// structuredResponse formats the top result of the best tool. Knowledge
// results carry structured metadata; keyword fallbacks get a generic frame.
func structuredResponse(best *domain.ToolResult, format func(domain.NormalizedResult) string) *domain.ComposedResponse {
	top := best.Results[0]
	return &domain.ComposedResponse{
		Text:       format(top),
		Sources:    []string{top.Title},
		Confidence: best.Confidence,
	}
}

func formatEvent(r domain.NormalizedResult) string {
	if r.SourceKind != domain.SourceKnowledge {
		return genericAnswer(r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s", r.Title)
	if raw, ok := r.Metadata["starts_at"]; ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			fmt.Fprintf(&b, " is scheduled for %s", t.Format("Monday, Jan 2 at 15:04"))
		}
	}
	if loc, ok := r.Metadata["location"]; ok {
		fmt.Fprintf(&b, " in %s", loc)
	}
	b.WriteString(".")
	if r.BodySnippet != "" {
		fmt.Fprintf(&b, " %s", r.BodySnippet)
	}
	fmt.Fprintf(&b, " (source: %s)", r.Title)
	return b.String()
}

func formatPolicy(r domain.NormalizedResult) string {
	if r.SourceKind != domain.SourceKnowledge {
		return genericAnswer(r)
	}
	return fmt.Sprintf("%s: %s (source: %s)", r.Title, r.BodySnippet, r.Title)
}

func formatPerson(r domain.NormalizedResult) string {
	if r.SourceKind != domain.SourceKnowledge {
		return genericAnswer(r)
	}

	var b strings.Builder
	b.WriteString(r.Title)
	if role, ok := r.Metadata["role"]; ok {
		fmt.Fprintf(&b, " is %s", role)
	}
	if email, ok := r.Metadata["email"]; ok {
		fmt.Fprintf(&b, " (%s)", email)
	}
	b.WriteString(".")
	return b.String()
}

func genericAnswer(r domain.NormalizedResult) string {
	if r.BodySnippet == "" {
		return fmt.Sprintf("Here's what I found: %s (source: %s)", r.Title, r.Title)
	}
	return fmt.Sprintf("Here's what I found about %s: %s (source: %s)", r.Title, r.BodySnippet, r.Title)
}

// documentResponse concatenates top documents from every successful tool,
// not just the best one, so multi-source answers stay comprehensive.
func documentResponse(best *domain.ToolResult, toolResults []domain.ToolResult) *domain.ComposedResponse {
	docs := make([]domain.NormalizedResult, 0, composerMaxDocs*2)
	for _, r := range toolResults {
		if r.Success {
			docs = append(docs, r.Results...)
		}
	}
	docs = dedupeByID(docs)
	sortByScoreDesc(docs)
	if len(docs) > composerMaxDocs {
		docs = docs[:composerMaxDocs]
	}

	var b strings.Builder
	b.WriteString("Here's what I found:")
	sources := make([]string, 0, len(docs))
	seenTitles := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		b.WriteString("\n\n")
		if d.Title != "" {
			fmt.Fprintf(&b, "%s: ", d.Title)
		}
		b.WriteString(d.BodySnippet)
		if _, dup := seenTitles[d.Title]; !dup && d.Title != "" {
			seenTitles[d.Title] = struct{}{}
			sources = append(sources, d.Title)
		}
	}

	return &domain.ComposedResponse{
		Text:       b.String(),
		Sources:    sources,
		Confidence: best.Confidence,
	}
}
