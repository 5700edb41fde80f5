package approvals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-erp/atelier/internal/numbering"
	"github.com/atelier-erp/atelier/internal/shared"
)

// ProjectChecker verifies the owning project exists.
type ProjectChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// FileChecker verifies item references point at stored file assets.
type FileChecker interface {
	CountExisting(ctx context.Context, ids []int64) (int64, error)
}

// Service handles approval-packet business logic.
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

// Create numbers the packet, mints a share token and inserts one PENDING
// item per referenced file asset in a single transaction.
func (s *Service) Create(ctx context.Context, req CreatePacketRequest) (*ApprovalPacket, error) {
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
	count, err := s.files.CountExisting(ctx, req.Items)
	if err != nil {
		return nil, fmt.Errorf("verify file assets: %w", err)
	}
	if count != int64(len(req.Items)) {
		return nil, shared.Validationf("one or more items reference missing file assets")
	}
	if hasDuplicates(req.Items) {
		return nil, shared.Validationf("duplicate file assets in items")
	}

	year := time.Now().Year()
	seq, err := s.registry.Next(ctx, numbering.KindApproval, year)
	if err != nil {
		return nil, err
	}
	number, err := numbering.Format(numbering.KindApproval, year, seq)
	if err != nil {
		return nil, err
	}

	p := ApprovalPacket{
		ProjectID:   req.ProjectID,
		Number:      number,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      StatusPending,
		ShareToken:  uuid.NewString(),
	}

	var packetID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("create packet: %w", err)
		}
		packetID = id
		for _, fileID := range req.Items {
			item := ApprovalItem{PacketID: id, FileID: fileID, Decision: ItemPending}
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, packetID)
}

// Send transitions PENDING → SENT and stamps sentAt.
func (s *Service) Send(ctx context.Context, id int64) (*ApprovalPacket, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusPending {
		return nil, fmt.Errorf("%w: only PENDING packets can be sent", shared.ErrInvalidStatus)
	}
	if err := s.repo.MarkSent(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// DecideItem records one item's verdict. It touches only the item; the
// packet status stays whatever the packet-level actions last set.
func (s *Service) DecideItem(ctx context.Context, packetID, itemID int64, req DecideItemRequest) (*ApprovalItem, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.Decision.Valid() {
		return nil, shared.Validationf("unknown item decision %q", req.Decision)
	}
	packet, err := s.repo.Get(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.Status != StatusSent {
		return nil, fmt.Errorf("%w: items can only be decided on SENT packets", shared.ErrInvalidStatus)
	}
	if _, err := s.repo.GetItem(ctx, packetID, itemID); err != nil {
		return nil, err
	}
	if err := s.repo.DecideItem(ctx, itemID, req.Decision, req.Comment, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, packetID, itemID)
}

// Decide is the packet-level client sign-off, SENT → APPROVED/DECLINED.
// It is independent of the item verdicts; a split item vote does not block
// the client from approving or declining the packet as a whole.
func (s *Service) Decide(ctx context.Context, id int64, req DecidePacketRequest) (*ApprovalPacket, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusSent {
		return nil, fmt.Errorf("%w: only SENT packets can be decided", shared.ErrInvalidStatus)
	}
	if err := s.repo.RecordDecision(ctx, id, req.Decision, time.Now(), req.SignatureName, req.Comment); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// FinalizeFromItems is the explicit roll-up: every item must be decided,
// and the packet becomes APPROVED only when every item was accepted.
func (s *Service) FinalizeFromItems(ctx context.Context, id int64) (*ApprovalPacket, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusSent {
		return nil, fmt.Errorf("%w: only SENT packets can be finalized", shared.ErrInvalidStatus)
	}
	status := StatusApproved
	for _, item := range existing.Items {
		if item.Decision == ItemPending {
			return nil, fmt.Errorf("%w: item %d is still undecided", shared.ErrInvalidStatus, item.ID)
		}
		if item.Decision == ItemDeclined {
			status = StatusDeclined
		}
	}
	if err := s.repo.RecordDecision(ctx, id, status, time.Now(), existing.SignatureName, existing.ClientComment); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns one packet with its items.
func (s *Service) Get(ctx context.Context, id int64) (*ApprovalPacket, error) {
	return s.repo.Get(ctx, id)
}

// GetByToken resolves the client-facing share link.
func (s *Service) GetByToken(ctx context.Context, token string) (*ApprovalPacket, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, shared.Validationf("invalid share token")
	}
	return s.repo.GetByToken(ctx, token)
}

// List returns packets matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, req ListPacketsRequest) ([]ApprovalPacket, int, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

func hasDuplicates(ids []int64) bool {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
