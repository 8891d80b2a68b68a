// Package neo4j backs the structured knowledge graph with office events,
// policies and people.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/officebrain/concierge/internal/core/domain"
)

type Graph struct {
	driver neo4j.DriverWithContext
}

func New(uri, username, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Graph{driver: driver}, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func (g *Graph) VerifyConnectivity(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

// FindEvent matches by case-insensitive substring so "active meeting"
// finds the node named "Active Directory migration meeting".
func (g *Graph) FindEvent(ctx context.Context, name string) (*domain.Event, error) {
	record, err := g.findOne(ctx, `
MATCH (e:Event)
WHERE toLower(e.name) CONTAINS toLower($name)
RETURN e.id AS id, e.name AS name, e.location AS location, e.starts_at AS starts_at, e.description AS description
ORDER BY e.starts_at
LIMIT 1
`, map[string]any{"name": name}, "find event")
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		ID:          stringValue(record, "id"),
		Name:        stringValue(record, "name"),
		Location:    stringValue(record, "location"),
		Description: stringValue(record, "description"),
	}
	event.StartsAt = timeValue(record, "starts_at")
	return event, nil
}

func (g *Graph) FindPolicy(ctx context.Context, name string) (*domain.Policy, error) {
	record, err := g.findOne(ctx, `
MATCH (p:Policy)
WHERE toLower(p.name) CONTAINS toLower($name)
RETURN p.id AS id, p.name AS name, p.summary AS summary, p.updated_at AS updated_at
ORDER BY p.updated_at DESC
LIMIT 1
`, map[string]any{"name": name}, "find policy")
	if err != nil {
		return nil, err
	}

	policy := &domain.Policy{
		ID:      stringValue(record, "id"),
		Name:    stringValue(record, "name"),
		Summary: stringValue(record, "summary"),
	}
	policy.UpdatedAt = timeValue(record, "updated_at")
	return policy, nil
}

func (g *Graph) FindPerson(ctx context.Context, name string) (*domain.Person, error) {
	record, err := g.findOne(ctx, `
MATCH (p:Person)
WHERE toLower(p.name) CONTAINS toLower($name)
RETURN p.id AS id, p.name AS name, p.role AS role, p.email AS email
LIMIT 1
`, map[string]any{"name": name}, "find person")
	if err != nil {
		return nil, err
	}

	return &domain.Person{
		ID:    stringValue(record, "id"),
		Name:  stringValue(record, "name"),
		Role:  stringValue(record, "role"),
		Email: stringValue(record, "email"),
	}, nil
}

func (g *Graph) findOne(ctx context.Context, cypher string, params map[string]any, operation string) (*neo4j.Record, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() {
		_ = session.Close(ctx)
	}()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", operation, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		// Single fails both on zero rows and on stream errors; a miss is
		// the expected outcome here.
		return nil, domain.WrapError(domain.ErrNotFound, operation, err)
	}
	return record, nil
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func timeValue(record *neo4j.Record, key string) time.Time {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
