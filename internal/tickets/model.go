package tickets

import "time"

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusResolved   TicketStatus = "RESOLVED"
	StatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is a member of the status enum.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// legalTransitions maps each status to the targets it may move to.
// Resolved tickets can be reopened into IN_PROGRESS, closed ones into OPEN.
var legalTransitions = map[TicketStatus][]TicketStatus{
	StatusOpen:       {StatusInProgress},
	StatusInProgress: {StatusOpen, StatusResolved},
	StatusResolved:   {StatusInProgress, StatusClosed},
	StatusClosed:     {StatusOpen},
}

func transitionAllowed(from, to TicketStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Ticket is a support request raised against a project. The requester is
// set at creation and never changes; the assignee is optional and may be
// swapped at any time without touching the status.
type Ticket struct {
	ID          int64        `json:"id"`
	ProjectID   int64        `json:"project_id"`
	Number      string       `json:"number"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Priority    string       `json:"priority"`
	Status      TicketStatus `json:"status"`
	RequesterID int64        `json:"requester_id"`
	AssigneeID  *int64       `json:"assignee_id,omitempty"`
	Attachments []int64      `json:"attachments,omitempty"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
