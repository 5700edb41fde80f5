package approvals

import "time"

// CreatePacketRequest assembles a packet from file-asset references.
// One item is created per asset.
type CreatePacketRequest struct {
	ProjectID   int64      `json:"project_id" validate:"required,gt=0"`
	Title       string     `json:"title" validate:"required,max=300"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Items       []int64    `json:"items" validate:"required,min=1,dive,gt=0"`
}

// DecideItemRequest records one item's accept/decline.
type DecideItemRequest struct {
	Decision ItemDecision `json:"decision" validate:"required,oneof=ACCEPTED DECLINED"`
	Comment  string       `json:"comment" validate:"max=2000"`
}

// DecidePacketRequest is the packet-level client sign-off.
type DecidePacketRequest struct {
	Decision      PacketStatus `json:"decision" validate:"required,oneof=APPROVED DECLINED"`
	SignatureName string       `json:"signature_name" validate:"required,max=200"`
	Comment       string       `json:"comment" validate:"max=2000"`
}

// ListPacketsRequest filters the listing.
type ListPacketsRequest struct {
	ProjectID *int64        `json:"project_id,omitempty"`
	Status    *PacketStatus `json:"status,omitempty"`
	Limit     int           `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int           `json:"offset" validate:"gte=0"`
}
