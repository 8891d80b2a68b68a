// Package qdrant implements semantic retrieval against a Qdrant
// collection over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/officebrain/concierge/internal/core/domain"
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search returns the nearest documents to queryVector within one scope.
// An empty userID skips the per-user visibility filter.
func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	scopeID string,
	limit, offset int,
	userID string,
) ([]domain.VectorHit, error) {
	must := []map[string]any{
		{
			"key": "scope_id",
			"match": map[string]any{
				"value": scopeID,
			},
		},
	}
	if userID != "" {
		must = append(must, map[string]any{
			"key": "visible_to",
			"match": map[string]any{
				"any": []string{userID, "*"},
			},
		})
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"offset":       offset,
		"with_payload": true,
		"filter": map[string]any{
			"must": must,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		hit := domain.VectorHit{
			ID:         getStringPayload(r.Payload, "doc_id"),
			Title:      getStringPayload(r.Payload, "title"),
			Body:       getStringPayload(r.Payload, "text"),
			Similarity: r.Score,
		}
		if raw := getStringPayload(r.Payload, "created_at"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				hit.CreatedAt = ts
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
