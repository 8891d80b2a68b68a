package domain

import "time"

// Event is a knowledge-graph event record (meetings, deadlines, socials).
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at,omitzero"`
	Description string    `json:"description,omitempty"`
}

// Policy is a knowledge-graph policy/rule record.
type Policy struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Person is a knowledge-graph directory record.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

// Announcement is a broadcast message searchable by the announcement tool.
type Announcement struct {
	ID       string    `json:"id"`
	ScopeID  string    `json:"scope_id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	PostedAt time.Time `json:"posted_at"`
}
