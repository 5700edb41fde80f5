package variations

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

// Repository defines data access for variation requests.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, v VariationRequest) (int64, error)
	InsertCostLine(ctx context.Context, line CostLine) (int64, error)
	DeleteCostLines(ctx context.Context, variationID int64) error
	Get(ctx context.Context, id int64) (*VariationRequest, error)
	List(ctx context.Context, req ListVariationsRequest) ([]VariationRequest, int, error)
	UpdateDetails(ctx context.Context, v VariationRequest) error
	MarkSubmitted(ctx context.Context, id int64, at time.Time, status VariationStatus) error
	RecordDisposition(ctx context.Context, id int64, disp Disposition, reason string, status VariationStatus, decidedAt time.Time, decidedBy int64) error
	RecordClientDecision(ctx context.Context, id int64, decision ClientDecision, status VariationStatus, decidedAt time.Time, comment string) error
	SetInvoiceID(ctx context.Context, id, invoiceID int64) error
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

func (r *repository) Create(ctx context.Context, v VariationRequest) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO variation_requests
(project_id, number, date, requestor, reference, area, work_types, categories,
 change_description, reason_description, technical_description, cost_description,
 currency, price_impact, time_impact_days, internal_disposition, client_decision, status,
 client_comment, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,NOW(),NOW())
RETURNING id`,
		v.ProjectID, v.Number, v.Date, v.Requestor, v.Reference, v.Area, v.WorkTypes, v.Categories,
		v.ChangeDescription, v.ReasonDescription, v.TechnicalDescription, v.CostDescription,
		v.Currency, v.PriceImpact, v.TimeImpactDays, v.InternalDisposition, v.ClientDecision, v.Status,
		v.ClientComment).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: variation number %s already exists", shared.ErrConflict, v.Number)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertCostLine(ctx context.Context, line CostLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO variation_cost_lines
(variation_id, category, description, quantity, rate, amount, line_order)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		line.VariationID, line.Category, line.Description, line.Quantity, line.Rate, line.Amount, line.LineOrder).Scan(&id)
	return id, err
}

func (r *repository) DeleteCostLines(ctx context.Context, variationID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM variation_cost_lines WHERE variation_id = $1`, variationID)
	return err
}

const variationColumns = `id, project_id, number, date, requestor, reference, area, work_types, categories,
change_description, reason_description, technical_description, cost_description,
currency, price_impact, time_impact_days, internal_disposition, disposition_reason, client_decision, status,
invoice_id, submitted_at, decided_at, decided_by, client_comment, created_at, updated_at`

func scanVariation(row pgx.Row) (*VariationRequest, error) {
	var v VariationRequest
	err := row.Scan(&v.ID, &v.ProjectID, &v.Number, &v.Date, &v.Requestor, &v.Reference, &v.Area,
		&v.WorkTypes, &v.Categories,
		&v.ChangeDescription, &v.ReasonDescription, &v.TechnicalDescription, &v.CostDescription,
		&v.Currency, &v.PriceImpact, &v.TimeImpactDays, &v.InternalDisposition, &v.DispositionReason,
		&v.ClientDecision, &v.Status,
		&v.InvoiceID, &v.SubmittedAt, &v.DecidedAt, &v.DecidedBy, &v.ClientComment,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*VariationRequest, error) {
	v, err := scanVariation(r.db.QueryRow(ctx, `SELECT `+variationColumns+` FROM variation_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("variation request %d", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, variation_id, category, description, quantity, rate, amount, line_order
FROM variation_cost_lines WHERE variation_id = $1 ORDER BY category, line_order, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line CostLine
		if err := rows.Scan(&line.ID, &line.VariationID, &line.Category, &line.Description,
			&line.Quantity, &line.Rate, &line.Amount, &line.LineOrder); err != nil {
			return nil, err
		}
		switch line.Category {
		case CostCategoryMaterial:
			v.MaterialCosts = append(v.MaterialCosts, line)
		case CostCategoryLabor:
			v.LaborCosts = append(v.LaborCosts, line)
		case CostCategoryAdditional:
			v.AdditionalCosts = append(v.AdditionalCosts, line)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, req ListVariationsRequest) ([]VariationRequest, int, error) {
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
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM variation_requests "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM variation_requests %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d",
		variationColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []VariationRequest
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateDetails(ctx context.Context, v VariationRequest) error {
	_, err := r.db.Exec(ctx, `UPDATE variation_requests SET
requestor=$1, reference=$2, area=$3, work_types=$4, categories=$5,
change_description=$6, reason_description=$7, technical_description=$8, cost_description=$9,
price_impact=$10, time_impact_days=$11, updated_at=NOW() WHERE id=$12`,
		v.Requestor, v.Reference, v.Area, v.WorkTypes, v.Categories,
		v.ChangeDescription, v.ReasonDescription, v.TechnicalDescription, v.CostDescription,
		v.PriceImpact, v.TimeImpactDays, v.ID)
	return err
}

func (r *repository) MarkSubmitted(ctx context.Context, id int64, at time.Time, status VariationStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE variation_requests SET status=$1, submitted_at=$2, updated_at=NOW() WHERE id=$3`,
		status, at, id)
	return err
}

func (r *repository) RecordDisposition(ctx context.Context, id int64, disp Disposition, reason string, status VariationStatus, decidedAt time.Time, decidedBy int64) error {
	_, err := r.db.Exec(ctx, `UPDATE variation_requests SET
internal_disposition=$1, disposition_reason=$2, status=$3, decided_at=$4, decided_by=$5, updated_at=NOW()
WHERE id=$6`, disp, reason, status, decidedAt, decidedBy, id)
	return err
}

func (r *repository) RecordClientDecision(ctx context.Context, id int64, decision ClientDecision, status VariationStatus, decidedAt time.Time, comment string) error {
	// decided_by stays NULL: a null decider marks a client decision.
	_, err := r.db.Exec(ctx, `UPDATE variation_requests SET
client_decision=$1, status=$2, decided_at=$3, decided_by=NULL, client_comment=$4, updated_at=NOW()
WHERE id=$5`, decision, status, decidedAt, comment, id)
	return err
}

func (r *repository) SetInvoiceID(ctx context.Context, id, invoiceID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE variation_requests SET invoice_id=$1, updated_at=NOW() WHERE id=$2`, invoiceID, id)
	return err
}
