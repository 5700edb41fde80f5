package tickets

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

// Repository defines data access for tickets.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, t Ticket) (int64, error)
	Get(ctx context.Context, id int64) (*Ticket, error)
	List(ctx context.Context, req ListTicketsRequest) ([]Ticket, int, error)
	UpdateDetails(ctx context.Context, t Ticket) error
	SetStatus(ctx context.Context, id int64, status TicketStatus, resolvedAt, closedAt *time.Time) error
	Assign(ctx context.Context, id int64, assigneeID *int64) error
	ReplaceAttachments(ctx context.Context, ticketID int64, fileIDs []int64) error
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

func (r *repository) Create(ctx context.Context, t Ticket) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO tickets
(project_id, number, subject, description, category, priority, status, requester_id, assignee_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING id`,
		t.ProjectID, t.Number, t.Subject, t.Description, t.Category, t.Priority, t.Status,
		t.RequesterID, t.AssigneeID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: ticket number %s already exists", shared.ErrConflict, t.Number)
		}
		return 0, err
	}
	return id, nil
}

const ticketColumns = `id, project_id, number, subject, description, category, priority, status,
requester_id, assignee_id, resolved_at, closed_at, created_at, updated_at`

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.ProjectID, &t.Number, &t.Subject, &t.Description, &t.Category,
		&t.Priority, &t.Status, &t.RequesterID, &t.AssigneeID, &t.ResolvedAt, &t.ClosedAt,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("ticket %d", id)
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT file_id FROM ticket_attachments WHERE ticket_id = $1 ORDER BY file_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var fileID int64
		if err := rows.Scan(&fileID); err != nil {
			return nil, err
		}
		t.Attachments = append(t.Attachments, fileID)
	}
	return t, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListTicketsRequest) ([]Ticket, int, error) {
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
	if req.AssigneeID != nil {
		n++
		where += fmt.Sprintf(" AND assignee_id = $%d", n)
		args = append(args, *req.AssigneeID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateDetails(ctx context.Context, t Ticket) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET
subject = $1, description = $2, category = $3, priority = $4, updated_at = NOW()
WHERE id = $5`, t.Subject, t.Description, t.Category, t.Priority, t.ID)
	return err
}

func (r *repository) SetStatus(ctx context.Context, id int64, status TicketStatus, resolvedAt, closedAt *time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET
status = $1, resolved_at = $2, closed_at = $3, updated_at = NOW()
WHERE id = $4`, status, resolvedAt, closedAt, id)
	return err
}

func (r *repository) Assign(ctx context.Context, id int64, assigneeID *int64) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET assignee_id = $1, updated_at = NOW() WHERE id = $2`, assigneeID, id)
	return err
}

func (r *repository) ReplaceAttachments(ctx context.Context, ticketID int64, fileIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM ticket_attachments WHERE ticket_id = $1`, ticketID); err != nil {
		return err
	}
	for _, fileID := range fileIDs {
		if _, err := r.db.Exec(ctx, `INSERT INTO ticket_attachments (ticket_id, file_id) VALUES ($1, $2)`, ticketID, fileID); err != nil {
			return err
		}
	}
	return nil
}
