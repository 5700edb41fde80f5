package files

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier/internal/shared"
)

// Repository provides PostgreSQL backed persistence for file assets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create registers a file asset's metadata.
func (r *Repository) Create(ctx context.Context, input FileAssetInput) (*FileAsset, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return nil, err
	}
	asset := &FileAsset{
		ProjectID:   input.ProjectID,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO file_assets (project_id, file_name, content_type, size_bytes, created_at)
VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`,
		input.ProjectID, input.FileName, input.ContentType, input.SizeBytes).Scan(&asset.ID, &asset.CreatedAt)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Get returns one asset by id.
func (r *Repository) Get(ctx context.Context, id int64) (*FileAsset, error) {
	var a FileAsset
	err := r.pool.QueryRow(ctx, `SELECT id, project_id, file_name, content_type, size_bytes, created_at
FROM file_assets WHERE id = $1`, id).Scan(&a.ID, &a.ProjectID, &a.FileName, &a.ContentType, &a.SizeBytes, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("file asset %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByProject returns all assets owned by a project.
func (r *Repository) ListByProject(ctx context.Context, projectID int64) ([]FileAsset, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, project_id, file_name, content_type, size_bytes, created_at
FROM file_assets WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assets []FileAsset
	for rows.Next() {
		var a FileAsset
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.FileName, &a.ContentType, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountExisting reports how many of the given ids are present. Callers use
// it to validate attachment and approval-item references in one round trip.
func (r *Repository) CountExisting(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM file_assets WHERE id = ANY($1)`, ids).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
