package projects

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier/internal/shared"
)

// Repository provides PostgreSQL backed persistence for projects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a project.
func (r *Repository) Create(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	p := &Project{
		Name:       req.Name,
		ClientName: req.ClientName,
		Status:     ProjectActive,
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO projects (name, client_name, status, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		p.Name, p.ClientName, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns one project by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `SELECT id, name, client_name, status, created_at, updated_at
FROM projects WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.ClientName, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, shared.NotFoundf("project %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all projects, newest first.
func (r *Repository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, client_name, status, created_at, updated_at
FROM projects ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientName, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Exists reports whether a project row is present.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		return false, err
	}
	return found, nil
}

// countByStatus tallies rows per status for one document table of a project.
func (r *Repository) countByStatus(ctx context.Context, table string, projectID int64) (map[string]int64, error) {
	// table names come from the fixed caller list below, never from input.
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT status, count(*) FROM %s WHERE project_id = $1 GROUP BY status`, table), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountInvoices tallies a project's invoices by status.
func (r *Repository) CountInvoices(ctx context.Context, projectID int64) (map[string]int64, error) {
	return r.countByStatus(ctx, "invoices", projectID)
}

// CountVariations tallies a project's variation requests by status.
func (r *Repository) CountVariations(ctx context.Context, projectID int64) (map[string]int64, error) {
	return r.countByStatus(ctx, "variation_requests", projectID)
}

// CountTickets tallies a project's tickets by status.
func (r *Repository) CountTickets(ctx context.Context, projectID int64) (map[string]int64, error) {
	return r.countByStatus(ctx, "tickets", projectID)
}

// CountApprovals tallies a project's approval packets by status.
func (r *Repository) CountApprovals(ctx context.Context, projectID int64) (map[string]int64, error) {
	return r.countByStatus(ctx, "approval_packets", projectID)
}
