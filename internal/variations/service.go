package variations

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelier-erp/atelier/internal/invoices"
	"github.com/atelier-erp/atelier/internal/money"
	"github.com/atelier-erp/atelier/internal/numbering"
	"github.com/atelier-erp/atelier/internal/shared"
)

// ErrAlreadyDecided rejects a second decision once a client decision is
// recorded. The client's sign-off is final on both tracks.
var ErrAlreadyDecided = fmt.Errorf("%w: a client decision is already recorded", shared.ErrInvalidStatus)

// ProjectChecker verifies the owning project exists.
type ProjectChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Biller creates the invoice when an approved variation is billed.
type Biller interface {
	Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error)
}

// Service handles variation-request business logic.
type Service struct {
	repo     Repository
	registry numbering.Registry
	projects ProjectChecker
	biller   Biller
}

// NewService builds a Service instance.
func NewService(repo Repository, registry numbering.Registry, projects ProjectChecker, biller Biller) *Service {
	return &Service{repo: repo, registry: registry, projects: projects, biller: biller}
}

// Create accepts either payload shape, derives the price impact from the
// cost breakdown when one is present, numbers the request and persists it
// with its cost lines in one transaction.
func (s *Service) Create(ctx context.Context, req CreateVariationRequest) (*VariationRequest, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if !money.ValidCurrency(req.Currency) {
		return nil, shared.Validationf("unknown currency %q", req.Currency)
	}
	ok, err := s.projects.Exists(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("verify project: %w", err)
	}
	if !ok {
		return nil, shared.NotFoundf("project %d", req.ProjectID)
	}

	costLines, breakdownTotal, hasBreakdown := buildCostLines(req.CostBreakdown)
	priceImpact := req.PriceImpact.Decimal().Round(2)
	if hasBreakdown {
		priceImpact = breakdownTotal
	}

	year := req.Date.Year()
	seq, err := s.registry.Next(ctx, numbering.KindVariation, year)
	if err != nil {
		return nil, err
	}
	number, err := numbering.Format(numbering.KindVariation, year, seq)
	if err != nil {
		return nil, err
	}

	v := VariationRequest{
		ProjectID:            req.ProjectID,
		Number:               number,
		Date:                 req.Date,
		Requestor:            req.Requestor,
		Reference:            req.Reference,
		Area:                 req.Area,
		WorkTypes:            req.WorkTypes,
		Categories:           req.Categories,
		ChangeDescription:    req.ChangeDescription,
		ReasonDescription:    req.ReasonDescription,
		TechnicalDescription: req.TechnicalDescription,
		CostDescription:      req.CostDescription,
		Currency:             req.Currency,
		PriceImpact:          priceImpact.StringFixed(2),
		TimeImpactDays:       req.TimeImpactDays,
		Status:               deriveStatus(false, DispositionNone, ClientUndecided),
	}

	var variationID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, v)
		if err != nil {
			return fmt.Errorf("create variation: %w", err)
		}
		variationID = id
		return insertCostLines(ctx, repo, id, costLines)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, variationID)
}

// Update patches an undecided variation and re-derives the price impact
// when the cost breakdown changes.
func (s *Service) Update(ctx context.Context, id int64, req UpdateVariationRequest) (*VariationRequest, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusApproved || existing.Status == StatusDeclined {
		return nil, fmt.Errorf("%w: decided variations cannot be updated", shared.ErrInvalidStatus)
	}

	if req.Requestor != nil {
		existing.Requestor = *req.Requestor
	}
	if req.Reference != nil {
		existing.Reference = *req.Reference
	}
	if req.Area != nil {
		existing.Area = *req.Area
	}
	if req.WorkTypes != nil {
		existing.WorkTypes = *req.WorkTypes
	}
	if req.Categories != nil {
		existing.Categories = *req.Categories
	}
	if req.ChangeDescription != nil {
		existing.ChangeDescription = *req.ChangeDescription
	}
	if req.ReasonDescription != nil {
		existing.ReasonDescription = *req.ReasonDescription
	}
	if req.TechnicalDescription != nil {
		existing.TechnicalDescription = *req.TechnicalDescription
	}
	if req.CostDescription != nil {
		existing.CostDescription = *req.CostDescription
	}
	if req.TimeImpactDays != nil {
		existing.TimeImpactDays = *req.TimeImpactDays
	}
	if req.PriceImpact != nil {
		existing.PriceImpact = req.PriceImpact.Decimal().Round(2).StringFixed(2)
	}

	var costLines []CostLine
	if req.CostBreakdown != nil {
		var total decimal.Decimal
		var has bool
		costLines, total, has = buildCostLines(req.CostBreakdown)
		if has {
			existing.PriceImpact = total.StringFixed(2)
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateDetails(ctx, *existing); err != nil {
			return fmt.Errorf("update variation: %w", err)
		}
		if req.CostBreakdown == nil {
			return nil
		}
		if err := repo.DeleteCostLines(ctx, id); err != nil {
			return err
		}
		return insertCostLines(ctx, repo, id, costLines)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// Submit transitions PENDING → SUBMITTED and stamps submittedAt.
func (s *Service) Submit(ctx context.Context, id int64) (*VariationRequest, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusPending {
		return nil, fmt.Errorf("%w: only PENDING variations can be submitted", shared.ErrInvalidStatus)
	}
	status := deriveStatus(true, existing.InternalDisposition, existing.ClientDecision)
	if err := s.repo.MarkSubmitted(ctx, id, time.Now(), status); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// SetDisposition records the internal staff decision and re-derives the
// status. It is rejected once the client has decided: the client decision
// outranks staff on the shared status field.
func (s *Service) SetDisposition(ctx context.Context, id int64, req SetDispositionRequest) (*VariationRequest, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ClientDecision != ClientUndecided {
		return nil, ErrAlreadyDecided
	}
	status := deriveStatus(existing.SubmittedAt != nil, req.Disposition, existing.ClientDecision)
	if err := s.repo.RecordDisposition(ctx, id, req.Disposition, req.Reason, status, time.Now(), req.ActorID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ClientApprove records the client's approval. decidedBy stays null to mark
// the decision as the client's, not staff's.
func (s *Service) ClientApprove(ctx context.Context, id int64, req ClientDecisionRequest) (*VariationRequest, error) {
	return s.clientDecide(ctx, id, ClientApproved, req.Comment)
}

// ClientDecline records the client's decline; a comment is required so the
// studio knows what to change.
func (s *Service) ClientDecline(ctx context.Context, id int64, req ClientDecisionRequest) (*VariationRequest, error) {
	if req.Comment == "" {
		return nil, shared.Validationf("a comment is required when declining")
	}
	return s.clientDecide(ctx, id, ClientDeclined, req.Comment)
}

func (s *Service) clientDecide(ctx context.Context, id int64, decision ClientDecision, comment string) (*VariationRequest, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ClientDecision != ClientUndecided {
		return nil, ErrAlreadyDecided
	}
	if existing.SubmittedAt == nil {
		return nil, fmt.Errorf("%w: the variation has not been submitted", shared.ErrInvalidStatus)
	}
	status := deriveStatus(true, existing.InternalDisposition, decision)
	if err := s.repo.RecordClientDecision(ctx, id, decision, status, time.Now(), comment); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// GenerateInvoice bills an approved variation: the cost breakdown becomes
// the invoice's line items and the new invoice id is stored on the
// variation. The link is one-directional and optional; an approved
// variation with no invoice stays valid.
func (s *Service) GenerateInvoice(ctx context.Context, id int64, req GenerateInvoiceRequest) (*VariationRequest, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusApproved {
		return nil, fmt.Errorf("%w: only APPROVED variations can be billed", shared.ErrInvalidStatus)
	}
	if existing.InvoiceID != nil {
		return nil, fmt.Errorf("%w: variation %s is already billed", shared.ErrConflict, existing.Number)
	}

	var items []invoices.LineItemRequest
	for _, group := range [][]CostLine{existing.MaterialCosts, existing.LaborCosts, existing.AdditionalCosts} {
		for _, line := range group {
			items = append(items, invoices.LineItemRequest{
				Description: fmt.Sprintf("%s / %s (%s)", existing.Number, line.Description, line.Category),
				Quantity:    money.FromString(line.Quantity),
				Rate:        money.FromString(line.Rate),
			})
		}
	}
	if len(items) == 0 {
		items = append(items, invoices.LineItemRequest{
			Description: fmt.Sprintf("Variation %s: %s", existing.Number, existing.ChangeDescription),
			Quantity:    money.FromFloat(1),
			Rate:        money.FromString(existing.PriceImpact),
		})
	}

	notes := fmt.Sprintf("Generated from variation request %s", existing.Number)
	inv, err := s.biller.Create(ctx, invoices.CreateInvoiceRequest{
		ProjectID: existing.ProjectID,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		Currency:  existing.Currency,
		LineItems: items,
		Notes:     &notes,
	})
	if err != nil {
		return nil, fmt.Errorf("generate invoice: %w", err)
	}

	if err := s.repo.SetInvoiceID(ctx, id, inv.ID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns one variation with its cost breakdown.
func (s *Service) Get(ctx context.Context, id int64) (*VariationRequest, error) {
	return s.repo.Get(ctx, id)
}

// List returns variations matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, req ListVariationsRequest) ([]VariationRequest, int, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

// buildCostLines sanitizes the three categories and returns the flattened
// lines, the summed total and whether any line was present.
func buildCostLines(req *CostBreakdownRequest) ([]CostLine, decimal.Decimal, bool) {
	if req == nil {
		return nil, decimal.Zero, false
	}
	var out []CostLine
	total := decimal.Zero
	for _, category := range []struct {
		name  string
		lines []CostLineRequest
	}{
		{CostCategoryMaterial, req.Material},
		{CostCategoryLabor, req.Labor},
		{CostCategoryAdditional, req.Additional},
	} {
		sanitized, categoryTotal := money.SumCostLines(toCostItems(category.lines))
		total = total.Add(categoryTotal)
		for i, line := range sanitized {
			out = append(out, CostLine{
				Category:    category.name,
				Description: line.Description,
				Quantity:    line.Quantity.StringFixed(2),
				Rate:        line.Rate.StringFixed(2),
				Amount:      line.Amount.StringFixed(2),
				LineOrder:   i + 1,
			})
		}
	}
	return out, total.Round(2), len(out) > 0
}

func insertCostLines(ctx context.Context, repo Repository, variationID int64, lines []CostLine) error {
	for _, line := range lines {
		line.VariationID = variationID
		if _, err := repo.InsertCostLine(ctx, line); err != nil {
			return fmt.Errorf("insert cost line: %w", err)
		}
	}
	return nil
}
