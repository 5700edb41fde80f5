package approvals

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

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

type memoryApprovalRepo struct {
	mu       sync.Mutex
	packets  map[int64]*ApprovalPacket
	items    map[int64][]ApprovalItem
	nextID   int64
	nextItem int64
}

func newMemoryApprovalRepo() *memoryApprovalRepo {
	return &memoryApprovalRepo{
		packets: make(map[int64]*ApprovalPacket),
		items:   make(map[int64][]ApprovalItem),
	}
}

func (r *memoryApprovalRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryApprovalRepo) Create(ctx context.Context, p ApprovalPacket) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	r.packets[p.ID] = &p
	return p.ID, nil
}

func (r *memoryApprovalRepo) InsertItem(ctx context.Context, item ApprovalItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextItem++
	item.ID = r.nextItem
	r.items[item.PacketID] = append(r.items[item.PacketID], item)
	return item.ID, nil
}

func (r *memoryApprovalRepo) Get(ctx context.Context, id int64) (*ApprovalPacket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packets[id]
	if !ok {
		return nil, shared.NotFoundf("approval packet %d", id)
	}
	out := *p
	out.Items = append([]ApprovalItem(nil), r.items[id]...)
	return &out, nil
}

func (r *memoryApprovalRepo) GetByToken(ctx context.Context, token string) (*ApprovalPacket, error) {
	r.mu.Lock()
	var found int64
	for id, p := range r.packets {
		if p.ShareToken == token {
			found = id
			break
		}
	}
	r.mu.Unlock()
	if found == 0 {
		return nil, shared.NotFoundf("approval packet for token")
	}
	return r.Get(ctx, found)
}

func (r *memoryApprovalRepo) GetItem(ctx context.Context, packetID, itemID int64) (*ApprovalItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items[packetID] {
		if item.ID == itemID {
			out := item
			return &out, nil
		}
	}
	return nil, shared.NotFoundf("approval item %d in packet %d", itemID, packetID)
}

func (r *memoryApprovalRepo) List(ctx context.Context, req ListPacketsRequest) ([]ApprovalPacket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ApprovalPacket
	for _, p := range r.packets {
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryApprovalRepo) MarkSent(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packets[id]
	if !ok {
		return shared.NotFoundf("approval packet %d", id)
	}
	p.Status = StatusSent
	p.SentAt = &at
	return nil
}

func (r *memoryApprovalRepo) RecordDecision(ctx context.Context, id int64, status PacketStatus, at time.Time, signatureName, comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packets[id]
	if !ok {
		return shared.NotFoundf("approval packet %d", id)
	}
	p.Status = status
	p.DecidedAt = &at
	p.SignatureName = signatureName
	p.ClientComment = comment
	return nil
}

func (r *memoryApprovalRepo) DecideItem(ctx context.Context, itemID int64, decision ItemDecision, comment string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for packetID, items := range r.items {
		for i := range items {
			if items[i].ID == itemID {
				r.items[packetID][i].Decision = decision
				r.items[packetID][i].Comment = comment
				r.items[packetID][i].DecidedAt = &at
				return nil
			}
		}
	}
	return shared.NotFoundf("approval item %d", itemID)
}

type allProjects struct{}

func (allProjects) Exists(ctx context.Context, id int64) (bool, error) { return true, nil }

type someFiles struct {
	existing map[int64]bool
}

func (f someFiles) CountExisting(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if f.existing[id] {
			n++
		}
	}
	return n, nil
}

func newTestService() *Service {
	files := someFiles{existing: map[int64]bool{20: true, 21: true, 22: true}}
	return NewService(newMemoryApprovalRepo(), newMemoryRegistry(), allProjects{}, files)
}

func createRequest() CreatePacketRequest {
	return CreatePacketRequest{
		ProjectID: 1,
		Title:     "Living room finishes",
		Items:     []int64{20, 21},
	}
}

func sentPacket(t *testing.T, svc *Service) *ApprovalPacket {
	t.Helper()
	ctx := context.Background()
	p, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	p, err = svc.Send(ctx, p.ID)
	require.NoError(t, err)
	return p
}

func TestCreatePacket(t *testing.T) {
	svc := newTestService()

	p, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	require.Equal(t, StatusPending, p.Status)
	require.Contains(t, p.Number, "AP-")
	require.Len(t, p.Items, 2)
	for _, item := range p.Items {
		require.Equal(t, ItemPending, item.Decision)
	}
	_, err = uuid.Parse(p.ShareToken)
	require.NoError(t, err)
}

func TestCreatePacketMissingFileRejected(t *testing.T) {
	svc := newTestService()

	req := createRequest()
	req.Items = []int64{20, 999}
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreatePacketDuplicateFileRejected(t *testing.T) {
	svc := newTestService()

	req := createRequest()
	req.Items = []int64{20, 20}
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSendPacket(t *testing.T) {
	svc := newTestService()
	p := sentPacket(t, svc)
	require.Equal(t, StatusSent, p.Status)
	require.NotNil(t, p.SentAt)

	_, err := svc.Send(context.Background(), p.ID)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestItemDecisionsAreIndependent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p := sentPacket(t, svc)

	_, err := svc.DecideItem(ctx, p.ID, p.Items[0].ID, DecideItemRequest{Decision: ItemAccepted})
	require.NoError(t, err)
	_, err = svc.DecideItem(ctx, p.ID, p.Items[1].ID, DecideItemRequest{Decision: ItemDeclined, Comment: "wrong fabric"})
	require.NoError(t, err)

	// A split verdict leaves the packet status untouched.
	after, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, after.Status)
	require.Equal(t, ItemAccepted, after.Items[0].Decision)
	require.Equal(t, ItemDeclined, after.Items[1].Decision)
	require.NotNil(t, after.Items[0].DecidedAt)
}

func TestDecideItemRequiresSentPacket(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.DecideItem(ctx, p.ID, p.Items[0].ID, DecideItemRequest{Decision: ItemAccepted})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestDecidePacket(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p := sentPacket(t, svc)

	decided, err := svc.Decide(ctx, p.ID, DecidePacketRequest{
		Decision:      StatusApproved,
		SignatureName: "R. Cole",
		Comment:       "Approved as presented",
	})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.Equal(t, "R. Cole", decided.SignatureName)
	require.NotNil(t, decided.DecidedAt)

	_, err = svc.Decide(ctx, p.ID, DecidePacketRequest{Decision: StatusDeclined, SignatureName: "R. Cole"})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestFinalizeRequiresAllItemsDecided(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p := sentPacket(t, svc)

	_, err := svc.FinalizeFromItems(ctx, p.ID)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestFinalizeApprovedWhenAllAccepted(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p := sentPacket(t, svc)

	for _, item := range p.Items {
		_, err := svc.DecideItem(ctx, p.ID, item.ID, DecideItemRequest{Decision: ItemAccepted})
		require.NoError(t, err)
	}

	final, err := svc.FinalizeFromItems(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, final.Status)
}

func TestFinalizeDeclinedOnAnyDecline(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p := sentPacket(t, svc)

	_, err := svc.DecideItem(ctx, p.ID, p.Items[0].ID, DecideItemRequest{Decision: ItemAccepted})
	require.NoError(t, err)
	_, err = svc.DecideItem(ctx, p.ID, p.Items[1].ID, DecideItemRequest{Decision: ItemDeclined})
	require.NoError(t, err)

	final, err := svc.FinalizeFromItems(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDeclined, final.Status)
}

func TestGetByToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	found, err := svc.GetByToken(ctx, p.ShareToken)
	require.NoError(t, err)
	require.Equal(t, p.ID, found.ID)

	_, err = svc.GetByToken(ctx, "not-a-token")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.GetByToken(ctx, uuid.NewString())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
