package domain

type Intent string

const (
	IntentEventLookup    Intent = "event_lookup"
	IntentPolicyLookup   Intent = "policy_lookup"
	IntentPersonLookup   Intent = "person_lookup"
	IntentDocSearch      Intent = "doc_search"
	IntentContentSummary Intent = "content_summary"
	IntentChat           Intent = "chat"
	IntentClarify        Intent = "clarify"
)

// KnownIntent reports whether the intent belongs to the closed set the
// planner may emit. Pluggable classifiers returning anything else are
// rejected in favor of the rule engine.
func KnownIntent(i Intent) bool {
	switch i {
	case IntentEventLookup, IntentPolicyLookup, IntentPersonLookup,
		IntentDocSearch, IntentContentSummary, IntentChat, IntentClarify:
		return true
	default:
		return false
	}
}

// ToolCall names one retrieval capability the executor should invoke.
// Lower priority runs first.
type ToolCall struct {
	Tool     string            `json:"tool"`
	Params   map[string]string `json:"params,omitempty"`
	Priority int               `json:"priority"`
}

// QueryPlan is the planner's output. Immutable once produced. An empty tool
// list is valid and short-circuits the executor (pure chat, clarify).
type QueryPlan struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
	Tools      []ToolCall        `json:"tools"`
	Reasoning  string            `json:"reasoning,omitempty"`
}

// IntentGuess is what an optional classifier returns; the planner turns an
// accepted guess into a full QueryPlan.
type IntentGuess struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
	Reasoning  string            `json:"reasoning,omitempty"`
}

// ToolResult is the outcome of one executed tool call. Tool failures are
// carried as Success=false with zero confidence, never as errors.
type ToolResult struct {
	Tool       string             `json:"tool"`
	Success    bool               `json:"success"`
	Results    []NormalizedResult `json:"results,omitempty"`
	Confidence float64            `json:"confidence"`
}

// ComposedResponse is the final output of the pipeline.
type ComposedResponse struct {
	Intent                Intent   `json:"intent"`
	Text                  string   `json:"text"`
	Sources               []string `json:"sources"`
	Confidence            float64  `json:"confidence"`
	NeedsClarification    bool     `json:"needs_clarification"`
	ClarificationQuestion string   `json:"clarification_question,omitempty"`
}
