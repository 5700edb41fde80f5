package approvals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier/internal/platform/db"
	"github.com/atelier-erp/atelier/internal/shared"
)

// Repository defines data access for approval packets and their items.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, p ApprovalPacket) (int64, error)
	InsertItem(ctx context.Context, item ApprovalItem) (int64, error)
	Get(ctx context.Context, id int64) (*ApprovalPacket, error)
	GetByToken(ctx context.Context, token string) (*ApprovalPacket, error)
	GetItem(ctx context.Context, packetID, itemID int64) (*ApprovalItem, error)
	List(ctx context.Context, req ListPacketsRequest) ([]ApprovalPacket, int, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	RecordDecision(ctx context.Context, id int64, status PacketStatus, at time.Time, signatureName, comment string) error
	DecideItem(ctx context.Context, itemID int64, decision ItemDecision, comment string, at time.Time) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Create(ctx context.Context, p ApprovalPacket) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO approval_packets
(project_id, number, title, description, due_date, status, share_token, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING id`,
		p.ProjectID, p.Number, p.Title, p.Description, p.DueDate, p.Status, p.ShareToken).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: approval packet number %s already exists", shared.ErrConflict, p.Number)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertItem(ctx context.Context, item ApprovalItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO approval_items
(packet_id, file_id, decision, comment)
VALUES ($1, $2, $3, $4) RETURNING id`,
		item.PacketID, item.FileID, item.Decision, item.Comment).Scan(&id)
	return id, err
}

const packetColumns = `id, project_id, number, title, description, due_date, status, share_token,
sent_at, decided_at, client_comment, signature_name, created_at, updated_at`

func scanPacket(row pgx.Row) (*ApprovalPacket, error) {
	var p ApprovalPacket
	err := row.Scan(&p.ID, &p.ProjectID, &p.Number, &p.Title, &p.Description, &p.DueDate,
		&p.Status, &p.ShareToken, &p.SentAt, &p.DecidedAt, &p.ClientComment, &p.SignatureName,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*ApprovalPacket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+packetColumns+` FROM approval_packets WHERE id = $1`, id)
	p, err := scanPacket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("approval packet %d", id)
		}
		return nil, err
	}
	return r.attachItems(ctx, p)
}

func (r *repository) GetByToken(ctx context.Context, token string) (*ApprovalPacket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+packetColumns+` FROM approval_packets WHERE share_token = $1`, token)
	p, err := scanPacket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("approval packet for token")
		}
		return nil, err
	}
	return r.attachItems(ctx, p)
}

func (r *repository) attachItems(ctx context.Context, p *ApprovalPacket) (*ApprovalPacket, error) {
	rows, err := r.db.Query(ctx, `SELECT id, packet_id, file_id, decision, comment, decided_at
FROM approval_items WHERE packet_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item ApprovalItem
		if err := rows.Scan(&item.ID, &item.PacketID, &item.FileID, &item.Decision, &item.Comment, &item.DecidedAt); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, item)
	}
	return p, rows.Err()
}

func (r *repository) GetItem(ctx context.Context, packetID, itemID int64) (*ApprovalItem, error) {
	var item ApprovalItem
	err := r.db.QueryRow(ctx, `SELECT id, packet_id, file_id, decision, comment, decided_at
FROM approval_items WHERE id = $1 AND packet_id = $2`, itemID, packetID).
		Scan(&item.ID, &item.PacketID, &item.FileID, &item.Decision, &item.Comment, &item.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("approval item %d in packet %d", itemID, packetID)
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, req ListPacketsRequest) ([]ApprovalPacket, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	n := 0
	if req.ProjectID != nil {
		n++
		where += fmt.Sprintf(" AND project_id = $%d", n)
		args = append(args, *req.ProjectID)
	}
	if req.Status != nil {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, *req.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM approval_packets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + packetColumns + ` FROM approval_packets` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ApprovalPacket
	for rows.Next() {
		p, err := scanPacket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *repository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE approval_packets SET status = $1, sent_at = $2, updated_at = NOW()
WHERE id = $3`, StatusSent, at, id)
	return err
}

func (r *repository) RecordDecision(ctx context.Context, id int64, status PacketStatus, at time.Time, signatureName, comment string) error {
	_, err := r.db.Exec(ctx, `UPDATE approval_packets SET
status = $1, decided_at = $2, signature_name = $3, client_comment = $4, updated_at = NOW()
WHERE id = $5`, status, at, signatureName, comment, id)
	return err
}

func (r *repository) DecideItem(ctx context.Context, itemID int64, decision ItemDecision, comment string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE approval_items SET decision = $1, comment = $2, decided_at = $3
WHERE id = $4`, decision, comment, at, itemID)
	return err
}
