package invoices

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

// Repository defines data access for invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, inv Invoice) (int64, error)
	InsertLine(ctx context.Context, line InvoiceLine) (int64, error)
	DeleteLines(ctx context.Context, invoiceID int64) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error)
	UpdateDraft(ctx context.Context, inv Invoice) error
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkPaid(ctx context.Context, id int64, at time.Time) error
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

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO invoices
(project_id, number, issue_date, due_date, currency, status, subtotal, tax_total, total, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING id`,
		inv.ProjectID, inv.Number, inv.IssueDate, inv.DueDate, inv.Currency, inv.Status,
		inv.Subtotal, inv.TaxTotal, inv.Total, inv.Notes).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: invoice number %s already exists", shared.ErrConflict, inv.Number)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertLine(ctx context.Context, line InvoiceLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO invoice_lines
(invoice_id, description, quantity, rate, tax_percent, amount, line_order)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		line.InvoiceID, line.Description, line.Quantity, line.Rate, line.TaxPercent, line.Amount, line.LineOrder).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, invoiceID)
	return err
}

const invoiceColumns = `id, project_id, number, issue_date, due_date, currency, status, subtotal, tax_total, total, notes, sent_at, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Number, &inv.IssueDate, &inv.DueDate, &inv.Currency,
		&inv.Status, &inv.Subtotal, &inv.TaxTotal, &inv.Total, &inv.Notes, &inv.SentAt, &inv.PaidAt,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("invoice %d", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, invoice_id, description, quantity, rate, tax_percent, amount, line_order
FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_order, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Description, &line.Quantity, &line.Rate,
			&line.TaxPercent, &line.Amount, &line.LineOrder); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	where := "WHERE 1=1"
	var args []any
	argPos := 1
	if req.ProjectID != nil {
		where += fmt.Sprintf(" AND project_id = $%d", argPos)
		args = append(args, *req.ProjectID)
		argPos++
	}
	if req.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *req.Status)
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM invoices "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM invoices %s ORDER BY issue_date DESC, id DESC LIMIT $%d OFFSET $%d",
		invoiceColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, rows.Err()
}

// ListOverdue returns sent invoices whose due date has passed.
func (r *repository) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE status = $1 AND due_date < $2 ORDER BY due_date`, InvoiceStatusSent, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *repository) UpdateDraft(ctx context.Context, inv Invoice) error {
	_, err := r.db.Exec(ctx, `UPDATE invoices SET issue_date=$1, due_date=$2, currency=$3,
subtotal=$4, tax_total=$5, total=$6, notes=$7, updated_at=NOW() WHERE id=$8`,
		inv.IssueDate, inv.DueDate, inv.Currency, inv.Subtotal, inv.TaxTotal, inv.Total, inv.Notes, inv.ID)
	return err
}

func (r *repository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE invoices SET status=$1, sent_at=$2, updated_at=NOW() WHERE id=$3`,
		InvoiceStatusSent, at, id)
	return err
}

func (r *repository) MarkPaid(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE invoices SET status=$1, paid_at=$2, updated_at=NOW() WHERE id=$3`,
		InvoiceStatusPaid, at, id)
	return err
}
