// Package files tracks file-asset metadata. Binary storage and thumbnail
// generation live outside this service; documents reference assets by row
// id only.
package files

import "time"

// FileAsset is one stored file's metadata row.
type FileAsset struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileAssetInput carries the fields for registering an asset.
type FileAssetInput struct {
	ProjectID   int64  `json:"project_id" validate:"required,gt=0"`
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"max=100"`
	SizeBytes   int64  `json:"size_bytes" validate:"gte=0"`
}
