// Package projects owns the project entity every document kind hangs off,
// plus the cached per-project document overview.
package projects

import "time"

// ProjectStatus enumerates project states.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "ACTIVE"
	ProjectOnHold   ProjectStatus = "ON_HOLD"
	ProjectArchived ProjectStatus = "ARCHIVED"
)

// Project is one studio engagement.
type Project struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	ClientName string        `json:"client_name"`
	Status     ProjectStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateProjectRequest carries the fields for creating a project.
type CreateProjectRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	ClientName string `json:"client_name" validate:"required,max=200"`
}

// Overview summarises a project's documents by kind and status.
type Overview struct {
	ProjectID  int64            `json:"project_id"`
	Invoices   map[string]int64 `json:"invoices"`
	Variations map[string]int64 `json:"variations"`
	Tickets    map[string]int64 `json:"tickets"`
	Approvals  map[string]int64 `json:"approvals"`
}
