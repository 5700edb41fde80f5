package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/atelier-erp/atelier/internal/money"
	"github.com/atelier-erp/atelier/internal/numbering"
	"github.com/atelier-erp/atelier/internal/shared"
)

// ProjectChecker verifies the owning project exists.
type ProjectChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service handles invoice business logic.
type Service struct {
	repo     Repository
	registry numbering.Registry
	projects ProjectChecker
}

// NewService builds a Service instance.
func NewService(repo Repository, registry numbering.Registry, projects ProjectChecker) *Service {
	return &Service{repo: repo, registry: registry, projects: projects}
}

// Create validates the payload, recomputes all monetary totals from the
// line items, takes the next sequence number for the issue year, and
// persists invoice plus lines in one transaction. The sequence integer is
// consumed before the insert: if the insert then fails, the number becomes
// a gap, never a duplicate.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !money.ValidCurrency(req.Currency) {
		return nil, shared.Validationf("unknown currency %q", req.Currency)
	}
	if err := s.verifyProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	sanitized, totals := money.Recalculate(toMoneyItems(req.LineItems))

	year := req.IssueDate.Year()
	seq, err := s.registry.Next(ctx, numbering.KindInvoice, year)
	if err != nil {
		return nil, err
	}
	number, err := numbering.Format(numbering.KindInvoice, year, seq)
	if err != nil {
		return nil, err
	}

	inv := Invoice{
		ProjectID: req.ProjectID,
		Number:    number,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		Currency:  req.Currency,
		Status:    InvoiceStatusDraft,
		Subtotal:  totals.SubtotalString(),
		TaxTotal:  totals.TaxTotalString(),
		Total:     totals.TotalString(),
		Notes:     req.Notes,
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		invoiceID = id
		return insertLines(ctx, repo, id, sanitized)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, invoiceID)
}

// Update patches a draft invoice. Carrying line items replaces all lines
// and recomputes every total; client-supplied aggregates are ignored by
// construction.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT invoices can be updated", shared.ErrInvalidStatus)
	}

	if req.IssueDate != nil {
		existing.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		existing.DueDate = *req.DueDate
	}
	if req.Currency != nil {
		if !money.ValidCurrency(*req.Currency) {
			return nil, shared.Validationf("unknown currency %q", *req.Currency)
		}
		existing.Currency = *req.Currency
	}
	if req.Notes != nil {
		existing.Notes = req.Notes
	}

	var sanitized []money.LineItem
	if req.LineItems != nil {
		var totals money.Totals
		sanitized, totals = money.Recalculate(toMoneyItems(*req.LineItems))
		existing.Subtotal = totals.SubtotalString()
		existing.TaxTotal = totals.TaxTotalString()
		existing.Total = totals.TotalString()
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateDraft(ctx, *existing); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if req.LineItems == nil {
			return nil
		}
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		return insertLines(ctx, repo, id, sanitized)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// Send transitions DRAFT → SENT and stamps sentAt.
func (s *Service) Send(ctx context.Context, id int64) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT invoices can be sent", shared.ErrInvalidStatus)
	}
	if err := s.repo.MarkSent(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// RecordPayment transitions SENT → PAID and stamps paidAt. Payment on a
// draft is rejected: an invoice must be sent before it can be paid.
func (s *Service) RecordPayment(ctx context.Context, id int64, req RecordPaymentRequest) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != InvoiceStatusSent {
		return nil, fmt.Errorf("%w: payment is only allowed on SENT invoices", shared.ErrInvalidStatus)
	}
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	if err := s.repo.MarkPaid(ctx, id, paidAt); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns one invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

// ListOverdue returns sent invoices past their due date.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	return s.repo.ListOverdue(ctx, asOf)
}

func (s *Service) verifyProject(ctx context.Context, projectID int64) error {
	ok, err := s.projects.Exists(ctx, projectID)
	if err != nil {
		return fmt.Errorf("verify project: %w", err)
	}
	if !ok {
		return shared.NotFoundf("project %d", projectID)
	}
	return nil
}

func insertLines(ctx context.Context, repo Repository, invoiceID int64, items []money.LineItem) error {
	for i, item := range items {
		line := InvoiceLine{
			InvoiceID:   invoiceID,
			Description: item.Description,
			Quantity:    item.Quantity.StringFixed(2),
			Rate:        item.Rate.StringFixed(2),
			TaxPercent:  item.TaxPercent.StringFixed(2),
			Amount:      item.Amount.StringFixed(2),
			LineOrder:   i + 1,
		}
		if _, err := repo.InsertLine(ctx, line); err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
	}
	return nil
}
