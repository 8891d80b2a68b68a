package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
)

// Assistant is the end-to-end pipeline: plan, execute tools, compose. It is
// the one implementation of ports.AssistantService. No backend, provider, or
// classifier error ever escapes it; the only user-visible failure shapes are
// the clarification prompt and the "couldn't find" reply.
type Assistant struct {
	planner  *Planner
	tools    *ToolExecutor
	composer *Composer
	logger   *slog.Logger
}

func NewAssistant(planner *Planner, tools *ToolExecutor, composer *Composer, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		planner:  planner,
		tools:    tools,
		composer: composer,
		logger:   logger,
	}
}

func (a *Assistant) PlanAndAnswer(ctx context.Context, queryText string, scopeIDs []string) (*domain.ComposedResponse, error) {
	started := time.Now()

	plan := a.planner.Plan(ctx, queryText)

	var toolResults []domain.ToolResult
	if len(plan.Tools) > 0 {
		toolResults = a.tools.Execute(ctx, plan, scopeIDs)
	}

	response := a.composer.Compose(queryText, plan, toolResults)
	response.Intent = plan.Intent

	a.logger.Info("query_answered",
		"intent", string(plan.Intent),
		"plan_confidence", plan.Confidence,
		"tools_executed", len(toolResults),
		"answer_confidence", response.Confidence,
		"needs_clarification", response.NeedsClarification,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return response, nil
}
