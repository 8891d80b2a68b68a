// Package httpadapter exposes the assistant over a small JSON API.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/officebrain/concierge/internal/core/ports"
	"github.com/officebrain/concierge/internal/observability/metrics"
)

const serviceName = "concierge-api"

type Router struct {
	assistant     ports.AssistantService
	metrics       *metrics.SearchMetrics
	defaultScopes []string
}

func NewRouter(assistant ports.AssistantService, m *metrics.SearchMetrics, defaultScopes []string) *Router {
	return &Router{
		assistant:     assistant,
		metrics:       m,
		defaultScopes: defaultScopes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.ask)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Query    string   `json:"query"`
	ScopeIDs []string `json:"scope_ids"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	scopes := req.ScopeIDs
	if len(scopes) == 0 {
		scopes = rt.defaultScopes
	}

	started := time.Now()
	response, err := rt.assistant.PlanAndAnswer(r.Context(), req.Query, scopes)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		outcome := "answered"
		if response.NeedsClarification {
			outcome = "clarify"
		}
		rt.metrics.RecordAsk(serviceName, string(response.Intent), outcome, len(response.Sources), time.Since(started))
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
