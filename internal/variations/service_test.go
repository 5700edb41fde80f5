package variations

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier/internal/invoices"
	"github.com/atelier-erp/atelier/internal/money"
	"github.com/atelier-erp/atelier/internal/numbering"
	"github.com/atelier-erp/atelier/internal/shared"
)

type memoryRegistry struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{counters: make(map[string]int64)}
}

func (r *memoryRegistry) Next(ctx context.Context, kind numbering.Kind, year int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s/%d", kind, year)
	r.counters[key]++
	return r.counters[key], nil
}

type memoryVariationRepo struct {
	mu         sync.Mutex
	variations map[int64]*VariationRequest
	costLines  map[int64][]CostLine
	nextID     int64
	nextLine   int64
}

func newMemoryVariationRepo() *memoryVariationRepo {
	return &memoryVariationRepo{
		variations: make(map[int64]*VariationRequest),
		costLines:  make(map[int64][]CostLine),
	}
}

func (r *memoryVariationRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryVariationRepo) Create(ctx context.Context, v VariationRequest) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.variations {
		if existing.Number == v.Number {
			return 0, fmt.Errorf("%w: variation number %s already exists", shared.ErrConflict, v.Number)
		}
	}
	r.nextID++
	v.ID = r.nextID
	v.CreatedAt = time.Now()
	v.UpdatedAt = time.Now()
	r.variations[v.ID] = &v
	return v.ID, nil
}

func (r *memoryVariationRepo) InsertCostLine(ctx context.Context, line CostLine) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextLine++
	line.ID = r.nextLine
	r.costLines[line.VariationID] = append(r.costLines[line.VariationID], line)
	return line.ID, nil
}

func (r *memoryVariationRepo) DeleteCostLines(ctx context.Context, variationID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.costLines, variationID)
	return nil
}

func (r *memoryVariationRepo) Get(ctx context.Context, id int64) (*VariationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variations[id]
	if !ok {
		return nil, shared.NotFoundf("variation %d", id)
	}
	out := *v
	out.MaterialCosts = nil
	out.LaborCosts = nil
	out.AdditionalCosts = nil
	for _, line := range r.costLines[id] {
		switch line.Category {
		case CostCategoryMaterial:
			out.MaterialCosts = append(out.MaterialCosts, line)
		case CostCategoryLabor:
			out.LaborCosts = append(out.LaborCosts, line)
		case CostCategoryAdditional:
			out.AdditionalCosts = append(out.AdditionalCosts, line)
		}
	}
	return &out, nil
}

func (r *memoryVariationRepo) List(ctx context.Context, req ListVariationsRequest) ([]VariationRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []VariationRequest
	for _, v := range r.variations {
		if req.Status != nil && v.Status != *req.Status {
			continue
		}
		if req.ProjectID != nil && v.ProjectID != *req.ProjectID {
			continue
		}
		out = append(out, *v)
	}
	return out, len(out), nil
}

func (r *memoryVariationRepo) UpdateDetails(ctx context.Context, v VariationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.variations[v.ID]
	if !ok {
		return shared.NotFoundf("variation %d", v.ID)
	}
	v.CreatedAt = stored.CreatedAt
	v.UpdatedAt = time.Now()
	r.variations[v.ID] = &v
	return nil
}

func (r *memoryVariationRepo) MarkSubmitted(ctx context.Context, id int64, at time.Time, status VariationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variations[id]
	if !ok {
		return shared.NotFoundf("variation %d", id)
	}
	v.SubmittedAt = &at
	v.Status = status
	return nil
}

func (r *memoryVariationRepo) RecordDisposition(ctx context.Context, id int64, disp Disposition, reason string, status VariationStatus, decidedAt time.Time, decidedBy int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variations[id]
	if !ok {
		return shared.NotFoundf("variation %d", id)
	}
	v.InternalDisposition = disp
	v.DispositionReason = reason
	v.Status = status
	v.DecidedAt = &decidedAt
	v.DecidedBy = &decidedBy
	return nil
}

func (r *memoryVariationRepo) RecordClientDecision(ctx context.Context, id int64, decision ClientDecision, status VariationStatus, decidedAt time.Time, comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variations[id]
	if !ok {
		return shared.NotFoundf("variation %d", id)
	}
	v.ClientDecision = decision
	v.Status = status
	v.DecidedAt = &decidedAt
	v.DecidedBy = nil
	v.ClientComment = comment
	return nil
}

func (r *memoryVariationRepo) SetInvoiceID(ctx context.Context, id, invoiceID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variations[id]
	if !ok {
		return shared.NotFoundf("variation %d", id)
	}
	v.InvoiceID = &invoiceID
	return nil
}

type allProjects struct{}

func (allProjects) Exists(ctx context.Context, id int64) (bool, error) { return true, nil }

type fakeBiller struct {
	created []invoices.CreateInvoiceRequest
	nextID  int64
}

func (b *fakeBiller) Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error) {
	b.nextID++
	b.created = append(b.created, req)
	return &invoices.Invoice{
		ID:        b.nextID,
		ProjectID: req.ProjectID,
		Number:    fmt.Sprintf("INV-2026-%04d", b.nextID),
		Status:    invoices.InvoiceStatusDraft,
	}, nil
}

func newTestService() (*Service, *fakeBiller) {
	biller := &fakeBiller{}
	svc := NewService(newMemoryVariationRepo(), newMemoryRegistry(), allProjects{}, biller)
	return svc, biller
}

func createRequest() CreateVariationRequest {
	return CreateVariationRequest{
		ProjectID:         1,
		Date:              time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		Requestor:         "site lead",
		ChangeDescription: "Swap oak shelving for walnut",
		ReasonDescription: "Client material preference",
		Currency:          "USD",
		TimeImpactDays:    3,
		CostBreakdown: &CostBreakdownRequest{
			Material: []CostLineRequest{
				{Description: "Walnut boards", Quantity: money.FromFloat(10), Rate: money.FromFloat(85)},
			},
			Labor: []CostLineRequest{
				{Description: "Refit", Quantity: money.FromFloat(6), Rate: money.FromFloat(60)},
			},
		},
	}
}

func TestCreateVariationDerivesPriceImpact(t *testing.T) {
	svc, _ := newTestService()

	v, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	require.Equal(t, "VR-2026-0001", v.Number)
	require.Equal(t, StatusPending, v.Status)
	// 10×85 + 6×60 = 1210; client-supplied price impact is ignored when a
	// breakdown is present.
	require.Equal(t, "1210.00", v.PriceImpact)
	require.Len(t, v.MaterialCosts, 1)
	require.Len(t, v.LaborCosts, 1)
	require.Equal(t, "850.00", v.MaterialCosts[0].Amount)
	require.Equal(t, "360.00", v.LaborCosts[0].Amount)
}

func TestCreateVariationLegacyPayload(t *testing.T) {
	svc, _ := newTestService()

	v, err := svc.Create(context.Background(), CreateVariationRequest{
		ProjectID:   1,
		Description: "Move pendant lights",
		Reason:      "Revised ceiling plan",
		PriceImpact: money.FromFloat(480.5),
	})
	require.NoError(t, err)

	require.Equal(t, "Move pendant lights", v.ChangeDescription)
	require.Equal(t, "Revised ceiling plan", v.ReasonDescription)
	require.Equal(t, "480.50", v.PriceImpact)
	require.Equal(t, "USD", v.Currency)
	require.False(t, v.Date.IsZero())
}

func TestCreateVariationRequiresDescription(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateVariationRequest{ProjectID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSubmitThenDisposition(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	decided, err := svc.SetDisposition(ctx, v.ID, SetDispositionRequest{
		Disposition: DispositionApprove,
		ActorID:     7,
	})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.Equal(t, DispositionApprove, decided.InternalDisposition)
	require.NotNil(t, decided.DecidedBy)
	require.Equal(t, int64(7), *decided.DecidedBy)
}

func TestDeferKeepsRequestInPlay(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, v.ID)
	require.NoError(t, err)

	deferred, err := svc.SetDisposition(ctx, v.ID, SetDispositionRequest{
		Disposition: DispositionDefer,
		Reason:      "waiting on supplier quote",
		ActorID:     7,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, deferred.Status)
}

func TestDeferBeforeSubmitKeepsPending(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	deferred, err := svc.SetDisposition(ctx, v.ID, SetDispositionRequest{
		Disposition: DispositionDefer,
		Reason:      "needs a site visit first",
		ActorID:     7,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, deferred.Status)
	require.Nil(t, deferred.SubmittedAt)

	submitted, err := svc.Submit(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	approved, err := svc.ClientApprove(ctx, v.ID, ClientDecisionRequest{Comment: "go ahead"})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Nil(t, approved.DecidedBy)
}

func TestClientDecisionOverridesDisposition(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, v.ID)
	require.NoError(t, err)
	_, err = svc.SetDisposition(ctx, v.ID, SetDispositionRequest{Disposition: DispositionApprove, ActorID: 7})
	require.NoError(t, err)

	declined, err := svc.ClientDecline(ctx, v.ID, ClientDecisionRequest{Comment: "over budget"})
	require.NoError(t, err)
	require.Equal(t, StatusDeclined, declined.Status)
	require.Equal(t, ClientDeclined, declined.ClientDecision)
	require.Nil(t, declined.DecidedBy)
	require.Equal(t, "over budget", declined.ClientComment)
}

func TestClientDecisionIsFinal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, v.ID)
	require.NoError(t, err)
	_, err = svc.ClientApprove(ctx, v.ID, ClientDecisionRequest{})
	require.NoError(t, err)

	_, err = svc.SetDisposition(ctx, v.ID, SetDispositionRequest{Disposition: DispositionReject, ActorID: 7})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)

	_, err = svc.ClientDecline(ctx, v.ID, ClientDecisionRequest{Comment: "changed mind"})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestClientDeclineRequiresComment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, v.ID)
	require.NoError(t, err)

	_, err = svc.ClientDecline(ctx, v.ID, ClientDecisionRequest{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestClientDecisionRequiresSubmission(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.ClientApprove(ctx, v.ID, ClientDecisionRequest{})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestGenerateInvoiceFromBreakdown(t *testing.T) {
	svc, biller := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, v.ID)
	require.NoError(t, err)
	_, err = svc.ClientApprove(ctx, v.ID, ClientDecisionRequest{})
	require.NoError(t, err)

	billed, err := svc.GenerateInvoice(ctx, v.ID, GenerateInvoiceRequest{
		IssueDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, billed.InvoiceID)

	require.Len(t, biller.created, 1)
	created := biller.created[0]
	require.Equal(t, v.ProjectID, created.ProjectID)
	require.Len(t, created.LineItems, 2)
	require.Equal(t, "85", created.LineItems[0].Rate.Decimal().String())

	// Already billed: a second call conflicts.
	_, err = svc.GenerateInvoice(ctx, v.ID, GenerateInvoiceRequest{
		IssueDate: time.Now(), DueDate: time.Now(),
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestGenerateInvoiceRequiresApproval(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.GenerateInvoice(ctx, v.ID, GenerateInvoiceRequest{
		IssueDate: time.Now(), DueDate: time.Now(),
	})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestUpdateDecidedVariationRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, v.ID)
	require.NoError(t, err)
	_, err = svc.ClientApprove(ctx, v.ID, ClientDecisionRequest{})
	require.NoError(t, err)

	area := "kitchen"
	_, err = svc.Update(ctx, v.ID, UpdateVariationRequest{Area: &area})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestUpdateBreakdownRecomputesImpact(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, v.ID, UpdateVariationRequest{
		CostBreakdown: &CostBreakdownRequest{
			Additional: []CostLineRequest{
				{Description: "Disposal", Quantity: money.FromFloat(1), Rate: money.FromFloat(200)},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "200.00", updated.PriceImpact)
	require.Empty(t, updated.MaterialCosts)
	require.Len(t, updated.AdditionalCosts, 1)
}
