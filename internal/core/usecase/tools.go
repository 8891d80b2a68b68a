package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
	"github.com/officebrain/concierge/internal/core/ports"
)

// toolEarlyExitConfidence stops the executor at the first sufficiently
// confident success; remaining tools never run.
const toolEarlyExitConfidence = 0.7

// ToolExecutor runs a plan's tool calls in priority order, deduplicating
// identical (tool, params) signatures. Tool-internal errors never escape:
// they become {success:false, confidence:0}.
type ToolExecutor struct {
	search        *SearchController
	graph         ports.KnowledgeGraph
	announcements ports.AnnouncementSearcher
	logger        *slog.Logger
}

func NewToolExecutor(
	search *SearchController,
	graph ports.KnowledgeGraph,
	announcements ports.AnnouncementSearcher,
	logger *slog.Logger,
) *ToolExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolExecutor{
		search:        search,
		graph:         graph,
		announcements: announcements,
		logger:        logger,
	}
}

func (e *ToolExecutor) Execute(ctx context.Context, plan domain.QueryPlan, scopeIDs []string) []domain.ToolResult {
	tools := append([]domain.ToolCall(nil), plan.Tools...)
	sort.SliceStable(tools, func(i, j int) bool { return tools[i].Priority < tools[j].Priority })

	seen := make(map[string]struct{}, len(tools))
	results := make([]domain.ToolResult, 0, len(tools))
	for _, call := range tools {
		sig := callSignature(call)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}

		result := e.run(ctx, call, scopeIDs)
		results = append(results, result)
		if result.Success && result.Confidence > toolEarlyExitConfidence {
			break
		}
	}
	return results
}

func callSignature(call domain.ToolCall) string {
	keys := make([]string, 0, len(call.Params))
	for k := range call.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(call.Tool)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(call.Params[k])
	}
	return b.String()
}

func (e *ToolExecutor) run(ctx context.Context, call domain.ToolCall, scopeIDs []string) domain.ToolResult {
	switch call.Tool {
	case ToolDocSearch:
		return e.runDocSearch(ctx, call, scopeIDs)
	case ToolEventLookup:
		return e.runEventLookup(ctx, call)
	case ToolPolicyLookup:
		return e.runPolicyLookup(ctx, call)
	case ToolPersonLookup:
		return e.runPersonLookup(ctx, call)
	case ToolAnnouncementSearch:
		return e.runAnnouncementSearch(ctx, call, scopeIDs)
	default:
		e.logger.Warn("unknown_tool_skipped", "tool", call.Tool)
		return domain.ToolResult{Tool: call.Tool}
	}
}

func (e *ToolExecutor) runDocSearch(ctx context.Context, call domain.ToolCall, scopeIDs []string) domain.ToolResult {
	query := call.Params["query"]
	results := e.search.Search(ctx, query, scopeIDs)
	if len(results) == 0 {
		return domain.ToolResult{Tool: call.Tool}
	}
	return domain.ToolResult{
		Tool:       call.Tool,
		Success:    true,
		Results:    results,
		Confidence: results[0].NormalizedScore,
	}
}

func (e *ToolExecutor) runEventLookup(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	if e.graph == nil {
		return domain.ToolResult{Tool: call.Tool}
	}
	event, err := e.graph.FindEvent(ctx, call.Params["name"])
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			e.logger.Warn("event_lookup_degraded", "error", err)
		}
		return domain.ToolResult{Tool: call.Tool}
	}

	meta := map[string]string{"kind": "event"}
	if event.Location != "" {
		meta["location"] = event.Location
	}
	if !event.StartsAt.IsZero() {
		meta["starts_at"] = event.StartsAt.Format(time.RFC3339)
	}
	return domain.ToolResult{
		Tool:    call.Tool,
		Success: true,
		Results: []domain.NormalizedResult{{
			ID:              "event:" + event.ID,
			Title:           event.Name,
			BodySnippet:     snippet(event.Description),
			SourceKind:      domain.SourceKnowledge,
			RawScore:        1,
			NormalizedScore: 0.95,
			Metadata:        meta,
			CreatedAt:       event.StartsAt,
		}},
		Confidence: 0.95,
	}
}

func (e *ToolExecutor) runPolicyLookup(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	if e.graph == nil {
		return domain.ToolResult{Tool: call.Tool}
	}
	policy, err := e.graph.FindPolicy(ctx, call.Params["name"])
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			e.logger.Warn("policy_lookup_degraded", "error", err)
		}
		return domain.ToolResult{Tool: call.Tool}
	}
	return domain.ToolResult{
		Tool:    call.Tool,
		Success: true,
		Results: []domain.NormalizedResult{{
			ID:              "policy:" + policy.ID,
			Title:           policy.Name,
			BodySnippet:     snippet(policy.Summary),
			SourceKind:      domain.SourceKnowledge,
			RawScore:        1,
			NormalizedScore: 0.9,
			Metadata:        map[string]string{"kind": "policy"},
			CreatedAt:       policy.UpdatedAt,
		}},
		Confidence: 0.9,
	}
}

func (e *ToolExecutor) runPersonLookup(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	if e.graph == nil {
		return domain.ToolResult{Tool: call.Tool}
	}
	person, err := e.graph.FindPerson(ctx, call.Params["name"])
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			e.logger.Warn("person_lookup_degraded", "error", err)
		}
		return domain.ToolResult{Tool: call.Tool}
	}

	meta := map[string]string{"kind": "person"}
	if person.Role != "" {
		meta["role"] = person.Role
	}
	if person.Email != "" {
		meta["email"] = person.Email
	}
	return domain.ToolResult{
		Tool:    call.Tool,
		Success: true,
		Results: []domain.NormalizedResult{{
			ID:              "person:" + person.ID,
			Title:           person.Name,
			BodySnippet:     person.Role,
			SourceKind:      domain.SourceKnowledge,
			RawScore:        1,
			NormalizedScore: 0.9,
			Metadata:        meta,
		}},
		Confidence: 0.9,
	}
}

func (e *ToolExecutor) runAnnouncementSearch(ctx context.Context, call domain.ToolCall, scopeIDs []string) domain.ToolResult {
	if e.announcements == nil {
		return domain.ToolResult{Tool: call.Tool}
	}

	query := call.Params["query"]
	out := make([]domain.NormalizedResult, 0, 8)
	for _, scopeID := range scopeIDs {
		hits, err := e.announcements.SearchAnnouncements(ctx, query, scopeID, 5)
		if err != nil {
			e.logger.Warn("announcement_search_degraded", "scope_id", scopeID, "error", err)
			continue
		}
		for i, a := range hits {
			score := 0.8 - 0.1*float64(i)
			if score < 0.3 {
				score = 0.3
			}
			out = append(out, domain.NormalizedResult{
				ID:              a.ID,
				Title:           a.Title,
				BodySnippet:     snippet(a.Body),
				SourceKind:      domain.SourceAnnouncement,
				RawScore:        float64(len(hits) - i),
				NormalizedScore: score,
				ScopeID:         scopeID,
				Metadata:        map[string]string{"kind": "announcement"},
				CreatedAt:       a.PostedAt,
			})
		}
	}
	if len(out) == 0 {
		return domain.ToolResult{Tool: call.Tool}
	}

	out = dedupeByID(out)
	sortByScoreDesc(out)
	return domain.ToolResult{
		Tool:       call.Tool,
		Success:    true,
		Results:    out,
		Confidence: out[0].NormalizedScore,
	}
}
