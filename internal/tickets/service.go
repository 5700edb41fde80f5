package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/atelier-erp/atelier/internal/numbering"
	"github.com/atelier-erp/atelier/internal/shared"
)

// ProjectChecker verifies the owning project exists.
type ProjectChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// FileChecker verifies attachment references point at stored file assets.
type FileChecker interface {
	CountExisting(ctx context.Context, ids []int64) (int64, error)
}

// Service handles ticket business logic.
type Service struct {
	repo     Repository
	registry numbering.Registry
	projects ProjectChecker
	files    FileChecker
}

// NewService builds a Service instance.
func NewService(repo Repository, registry numbering.Registry, projects ProjectChecker, files FileChecker) *Service {
	return &Service{repo: repo, registry: registry, projects: projects, files: files}
}

// Create opens a ticket in OPEN, numbers it and links any attachments.
func (s *Service) Create(ctx context.Context, req CreateTicketRequest) (*Ticket, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	ok, err := s.projects.Exists(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("verify project: %w", err)
	}
	if !ok {
		return nil, shared.NotFoundf("project %d", req.ProjectID)
	}
	if err := s.verifyAttachments(ctx, req.Attachments); err != nil {
		return nil, err
	}

	year := time.Now().Year()
	seq, err := s.registry.Next(ctx, numbering.KindTicket, year)
	if err != nil {
		return nil, err
	}
	number, err := numbering.Format(numbering.KindTicket, year, seq)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = "MEDIUM"
	}

	t := Ticket{
		ProjectID:   req.ProjectID,
		Number:      number,
		Subject:     req.Subject,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      StatusOpen,
		RequesterID: req.RequesterID,
		AssigneeID:  req.AssigneeID,
	}

	var ticketID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, t)
		if err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}
		ticketID = id
		if len(req.Attachments) == 0 {
			return nil
		}
		return repo.ReplaceAttachments(ctx, id, req.Attachments)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, ticketID)
}

// Update patches details. The requester cannot be changed, and status
// moves only through SetStatus.
func (s *Service) Update(ctx context.Context, id int64, req UpdateTicketRequest) (*Ticket, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Subject != nil {
		existing.Subject = *req.Subject
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Category != nil {
		existing.Category = *req.Category
	}
	if req.Priority != nil {
		existing.Priority = *req.Priority
	}
	if req.Attachments != nil {
		if err := s.verifyAttachments(ctx, *req.Attachments); err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateDetails(ctx, *existing); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		if req.Attachments == nil {
			return nil
		}
		return repo.ReplaceAttachments(ctx, id, *req.Attachments)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// SetStatus validates the target against the transition table and stamps
// resolvedAt/closedAt on the way through.
func (s *Service) SetStatus(ctx context.Context, id int64, req SetStatusRequest) (*Ticket, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, shared.Validationf("unknown ticket status %q", req.Status)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == req.Status {
		return existing, nil
	}
	if !transitionAllowed(existing.Status, req.Status) {
		return nil, fmt.Errorf("%w: cannot move ticket from %s to %s", shared.ErrInvalidStatus, existing.Status, req.Status)
	}

	now := time.Now()
	resolvedAt := existing.ResolvedAt
	closedAt := existing.ClosedAt
	switch req.Status {
	case StatusResolved:
		resolvedAt = &now
	case StatusClosed:
		closedAt = &now
	case StatusOpen, StatusInProgress:
		// reopening clears the terminal stamps
		resolvedAt = nil
		closedAt = nil
	}

	if err := s.repo.SetStatus(ctx, id, req.Status, resolvedAt, closedAt); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Assign swaps the assignee. Assignment never touches the status.
func (s *Service) Assign(ctx context.Context, id int64, req AssignRequest) (*Ticket, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Assign(ctx, id, req.AssigneeID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns one ticket with its attachment ids.
func (s *Service) Get(ctx context.Context, id int64) (*Ticket, error) {
	return s.repo.Get(ctx, id)
}

// List returns tickets matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, req ListTicketsRequest) ([]Ticket, int, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

func (s *Service) verifyAttachments(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := s.files.CountExisting(ctx, ids)
	if err != nil {
		return fmt.Errorf("verify attachments: %w", err)
	}
	if count != int64(len(ids)) {
		return shared.Validationf("one or more attachments reference missing file assets")
	}
	return nil
}
