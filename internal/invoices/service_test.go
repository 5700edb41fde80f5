package invoices

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

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

type memoryInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[int64]*Invoice
	lines    map[int64][]InvoiceLine
	nextID   int64
	nextLine int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{
		invoices: make(map[int64]*Invoice),
		lines:    make(map[int64][]InvoiceLine),
	}
}

func (r *memoryInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryInvoiceRepo) Create(ctx context.Context, inv Invoice) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.Number == inv.Number {
			return 0, fmt.Errorf("%w: invoice number %s already exists", shared.ErrConflict, inv.Number)
		}
	}
	r.nextID++
	inv.ID = r.nextID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = time.Now()
	r.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (r *memoryInvoiceRepo) InsertLine(ctx context.Context, line InvoiceLine) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextLine++
	line.ID = r.nextLine
	r.lines[line.InvoiceID] = append(r.lines[line.InvoiceID], line)
	return line.ID, nil
}

func (r *memoryInvoiceRepo) DeleteLines(ctx context.Context, invoiceID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, invoiceID)
	return nil
}

func (r *memoryInvoiceRepo) Get(ctx context.Context, id int64) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, shared.NotFoundf("invoice %d", id)
	}
	out := *inv
	out.Lines = append([]InvoiceLine(nil), r.lines[id]...)
	return &out, nil
}

func (r *memoryInvoiceRepo) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invoice
	for _, inv := range r.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		if req.ProjectID != nil && inv.ProjectID != *req.ProjectID {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *memoryInvoiceRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.Status == InvoiceStatusSent && inv.DueDate.Before(asOf) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) UpdateDraft(ctx context.Context, inv Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return shared.NotFoundf("invoice %d", inv.ID)
	}
	inv.CreatedAt = stored.CreatedAt
	inv.UpdatedAt = time.Now()
	r.invoices[inv.ID] = &inv
	return nil
}

func (r *memoryInvoiceRepo) MarkSent(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return shared.NotFoundf("invoice %d", id)
	}
	inv.Status = InvoiceStatusSent
	inv.SentAt = &at
	return nil
}

func (r *memoryInvoiceRepo) MarkPaid(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return shared.NotFoundf("invoice %d", id)
	}
	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &at
	return nil
}

type allProjects struct{}

func (allProjects) Exists(ctx context.Context, id int64) (bool, error) { return true, nil }

type noProjects struct{}

func (noProjects) Exists(ctx context.Context, id int64) (bool, error) { return false, nil }

func newTestService() (*Service, *memoryInvoiceRepo) {
	repo := newMemoryInvoiceRepo()
	return NewService(repo, newMemoryRegistry(), allProjects{}), repo
}

func createRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		ProjectID: 1,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Currency:  "USD",
		LineItems: []LineItemRequest{
			{Description: "Design fee", Quantity: money.FromFloat(1), Rate: money.FromFloat(2500), TaxPercent: money.FromFloat(8.25)},
			{Description: "Site visits", Quantity: money.FromFloat(8), Rate: money.FromFloat(150), TaxPercent: money.FromFloat(8.25)},
		},
	}
}

func TestCreateInvoiceHappyPath(t *testing.T) {
	svc, _ := newTestService()

	inv, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	require.Equal(t, "INV-2026-0001", inv.Number)
	require.Equal(t, InvoiceStatusDraft, inv.Status)
	require.Equal(t, "3700.00", inv.Subtotal)
	require.Equal(t, "305.25", inv.TaxTotal)
	require.Equal(t, "4005.25", inv.Total)
	require.Len(t, inv.Lines, 2)
	require.Equal(t, "2500.00", inv.Lines[0].Amount)
	require.Equal(t, 1, inv.Lines[0].LineOrder)
	require.Equal(t, 2, inv.Lines[1].LineOrder)
}

func TestCreateInvoiceSequential(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	second, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	require.Equal(t, "INV-2026-0001", first.Number)
	require.Equal(t, "INV-2026-0002", second.Number)
}

func TestCreateInvoiceConcurrentNumbersDistinct(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := svc.Create(ctx, createRequest())
			if err == nil {
				numbers <- inv.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]struct{})
	for number := range numbers {
		_, dup := seen[number]
		require.False(t, dup, "duplicate number %s", number)
		seen[number] = struct{}{}
	}
	require.Len(t, seen, n)
}

func TestCreateInvoiceYearsIndependent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := createRequest()
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	req.IssueDate = time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Create(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "INV-2027-0001", inv.Number)
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := createRequest()
	req.ProjectID = 0
	_, err := svc.Create(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = createRequest()
	req.Currency = "ZZZ"
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateInvoiceUnknownProject(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := NewService(repo, newMemoryRegistry(), noProjects{})

	_, err := svc.Create(context.Background(), createRequest())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateInvoiceIgnoresMalformedNumbers(t *testing.T) {
	svc, _ := newTestService()
	req := createRequest()
	req.LineItems = append(req.LineItems, LineItemRequest{
		Description: "broken line",
		Quantity:    money.FromString("not-a-number"),
		Rate:        money.FromString("also bad"),
	})

	inv, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "4005.25", inv.Total)
	require.Equal(t, "0.00", inv.Lines[2].Amount)
}

func TestSendAndRecordPayment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	sent, err := svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	paid, err := svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{})
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
}

func TestRecordPaymentOnDraftRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, inv.ID, RecordPaymentRequest{})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestSendTwiceRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	_, err = svc.Send(ctx, inv.ID)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	lines := []LineItemRequest{
		{Description: "Flat fee", Quantity: money.FromFloat(1), Rate: money.FromFloat(1000), TaxPercent: money.FromFloat(10)},
	}
	updated, err := svc.Update(ctx, inv.ID, UpdateInvoiceRequest{LineItems: &lines})
	require.NoError(t, err)
	require.Equal(t, "1000.00", updated.Subtotal)
	require.Equal(t, "100.00", updated.TaxTotal)
	require.Equal(t, "1100.00", updated.Total)
	require.Len(t, updated.Lines, 1)
	require.Equal(t, inv.Number, updated.Number)
}

func TestUpdateNonDraftRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)

	due := time.Now().Add(48 * time.Hour)
	_, err = svc.Update(ctx, inv.ID, UpdateInvoiceRequest{DueDate: &due})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestGetUnknownInvoice(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListOverdue(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := createRequest()
	req.DueDate = time.Now().Add(-24 * time.Hour)
	inv, err := svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)

	// A draft past due is not overdue; only sent invoices count.
	late := createRequest()
	late.DueDate = time.Now().Add(-24 * time.Hour)
	_, err = svc.Create(ctx, late)
	require.NoError(t, err)

	overdue, err := svc.ListOverdue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, inv.Number, overdue[0].Number)
}
