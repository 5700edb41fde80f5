package tickets

// CreateTicketRequest opens a new ticket.
type CreateTicketRequest struct {
	ProjectID   int64   `json:"project_id" validate:"required,gt=0"`
	Subject     string  `json:"subject" validate:"required,max=300"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category" validate:"required,max=100"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	RequesterID int64   `json:"requester_id" validate:"required,gt=0"`
	AssigneeID  *int64  `json:"assignee_id,omitempty" validate:"omitempty,gt=0"`
	Attachments []int64 `json:"attachments,omitempty" validate:"dive,gt=0"`
}

// UpdateTicketRequest patches ticket details. Requester and status are
// deliberately absent; they move through their own endpoints.
type UpdateTicketRequest struct {
	Subject     *string  `json:"subject,omitempty" validate:"omitempty,max=300"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Priority    *string  `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Attachments *[]int64 `json:"attachments,omitempty" validate:"omitempty,dive,gt=0"`
}

// SetStatusRequest moves a ticket along the lifecycle.
type SetStatusRequest struct {
	Status TicketStatus `json:"status" validate:"required"`
}

// AssignRequest reassigns the ticket. A nil assignee unassigns it.
type AssignRequest struct {
	AssigneeID *int64 `json:"assignee_id" validate:"omitempty,gt=0"`
}

// ListTicketsRequest filters the listing.
type ListTicketsRequest struct {
	ProjectID  *int64        `json:"project_id,omitempty"`
	Status     *TicketStatus `json:"status,omitempty"`
	AssigneeID *int64        `json:"assignee_id,omitempty"`
	Limit      int           `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int           `json:"offset" validate:"gte=0"`
}
