package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/officebrain/concierge/internal/core/domain"
	"github.com/officebrain/concierge/internal/core/ports"
)

// Tool names the executor dispatches on.
const (
	ToolDocSearch          = "doc_search"
	ToolEventLookup        = "event_lookup"
	ToolPolicyLookup       = "policy_lookup"
	ToolPersonLookup       = "person_lookup"
	ToolAnnouncementSearch = "announcement_search"
)

// classifierAcceptThreshold gates the optional classifier: anything at or
// below it falls through to the deterministic rules.
const classifierAcceptThreshold = 0.7

var (
	eventWhenPattern = regexp.MustCompile(`(?i)^(?:when|where)\s+(?:is|are|was|were)\s+(?:the\s+|my\s+)?(.{2,60}?)\s*\??$`)
	eventTimePattern = regexp.MustCompile(`(?i)^what\s+time\s+(?:is|are|does)\s+(?:the\s+)?(.{2,60}?)\s*\??$`)
	personPattern    = regexp.MustCompile(`(?i)^who\s+(?:is|are)\s+(.{2,60}?)\s*\??$`)
	policyPattern    = regexp.MustCompile(`(?i)^(?:what\s+is|what's|how\s+does|how\s+do\s+i)\s+(?:the\s+|our\s+)?(.{2,80}?)\s*\??$`)
	summaryPattern   = regexp.MustCompile(`(?i)^summar(?:ize|ise|y)\s+(?:of\s+|the\s+)?(.+?)\s*\.?$`)
	greetingPattern  = regexp.MustCompile(`(?i)^(?:hi|hello|hey|yo|thanks|thank\s+you|good\s+(?:morning|afternoon|evening))[\s!.,]*$`)
)

// Planner classifies a query into an intent and produces an ordered tool
// list. The rule engine is the normative baseline; an optional classifier is
// tried first and accepted only on high confidence with a known intent.
type Planner struct {
	classifier ports.IntentClassifier
	logger     *slog.Logger
}

func NewPlanner(classifier ports.IntentClassifier, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{classifier: classifier, logger: logger}
}

// Plan always returns a valid plan; classifier failures are logged and
// swallowed.
func (p *Planner) Plan(ctx context.Context, queryText string) domain.QueryPlan {
	trimmed := strings.TrimSpace(queryText)

	if p.classifier != nil {
		guess, err := p.classifier.Classify(ctx, trimmed)
		switch {
		case err != nil:
			p.logger.Warn("classifier_failed", "error", err)
		case guess.Confidence > classifierAcceptThreshold && domain.KnownIntent(guess.Intent):
			return buildPlan(guess.Intent, guess.Confidence, guess.Entities, trimmed, guess.Reasoning)
		default:
			p.logger.Debug("classifier_rejected", "intent", string(guess.Intent), "confidence", guess.Confidence)
		}
	}

	return planByRules(trimmed)
}

func planByRules(query string) domain.QueryPlan {
	if query == "" {
		return buildPlan(domain.IntentClarify, 0.2, nil, query, "empty query")
	}
	if greetingPattern.MatchString(query) {
		return buildPlan(domain.IntentChat, 0.9, nil, query, "greeting with no informational content")
	}
	if m := firstSubmatch(eventWhenPattern, query); m != "" {
		return buildPlan(domain.IntentEventLookup, 0.8, map[string]string{"subject": m}, query, "temporal interrogative prefix")
	}
	if m := firstSubmatch(eventTimePattern, query); m != "" {
		return buildPlan(domain.IntentEventLookup, 0.8, map[string]string{"subject": m}, query, "what-time prefix")
	}
	if m := firstSubmatch(personPattern, query); m != "" {
		return buildPlan(domain.IntentPersonLookup, 0.75, map[string]string{"subject": m}, query, "who-is prefix")
	}
	if m := firstSubmatch(summaryPattern, query); m != "" {
		return buildPlan(domain.IntentContentSummary, 0.7, map[string]string{"subject": m}, query, "summary request")
	}
	if mentionsPolicy(query) {
		subject := query
		if m := firstSubmatch(policyPattern, query); m != "" {
			subject = m
		}
		return buildPlan(domain.IntentPolicyLookup, 0.75, map[string]string{"subject": subject}, query, "policy vocabulary")
	}
	if m := firstSubmatch(policyPattern, query); m != "" {
		return buildPlan(domain.IntentPolicyLookup, 0.7, map[string]string{"subject": m}, query, "definitional interrogative prefix")
	}
	return buildPlan(domain.IntentDocSearch, 0.65, nil, query, "default document search")
}

func mentionsPolicy(query string) bool {
	for _, token := range tokenizeLower(query) {
		switch token {
		case "policy", "policies", "rule", "rules", "allowed", "guideline", "guidelines":
			return true
		}
	}
	return false
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func buildPlan(intent domain.Intent, confidence float64, entities map[string]string, query, reasoning string) domain.QueryPlan {
	return domain.QueryPlan{
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
		Tools:      toolsForIntent(intent, entities, query),
		Reasoning:  reasoning,
	}
}

// toolsForIntent orders tool calls by priority: the structured lookup first
// where one exists, document search as the fallback.
func toolsForIntent(intent domain.Intent, entities map[string]string, query string) []domain.ToolCall {
	subject := entities["subject"]
	if subject == "" {
		subject = query
	}

	switch intent {
	case domain.IntentEventLookup:
		return []domain.ToolCall{
			{Tool: ToolEventLookup, Params: map[string]string{"name": subject}, Priority: 1},
			{Tool: ToolDocSearch, Params: map[string]string{"query": query}, Priority: 2},
		}
	case domain.IntentPolicyLookup:
		return []domain.ToolCall{
			{Tool: ToolPolicyLookup, Params: map[string]string{"name": subject}, Priority: 1},
			{Tool: ToolDocSearch, Params: map[string]string{"query": query}, Priority: 2},
		}
	case domain.IntentPersonLookup:
		return []domain.ToolCall{
			{Tool: ToolPersonLookup, Params: map[string]string{"name": subject}, Priority: 1},
			{Tool: ToolDocSearch, Params: map[string]string{"query": query}, Priority: 2},
		}
	case domain.IntentContentSummary:
		return []domain.ToolCall{
			{Tool: ToolDocSearch, Params: map[string]string{"query": subject}, Priority: 1},
		}
	case domain.IntentDocSearch:
		tools := []domain.ToolCall{
			{Tool: ToolDocSearch, Params: map[string]string{"query": query}, Priority: 2},
		}
		if mentionsAnnouncements(query) {
			tools = append(tools, domain.ToolCall{
				Tool: ToolAnnouncementSearch, Params: map[string]string{"query": query}, Priority: 1,
			})
		}
		return tools
	default:
		// chat and clarify short-circuit the executor.
		return nil
	}
}

func mentionsAnnouncements(query string) bool {
	for _, token := range tokenizeLower(query) {
		switch token {
		case "announcement", "announcements", "announced", "news":
			return true
		}
	}
	return false
}
