package approvals

import "time"

// PacketStatus is the lifecycle state of an approval packet.
type PacketStatus string

const (
	StatusPending  PacketStatus = "PENDING"
	StatusSent     PacketStatus = "SENT"
	StatusApproved PacketStatus = "APPROVED"
	StatusDeclined PacketStatus = "DECLINED"
)

// ItemDecision is one file's individual decision inside a packet.
type ItemDecision string

const (
	ItemPending  ItemDecision = "PENDING"
	ItemAccepted ItemDecision = "ACCEPTED"
	ItemDeclined ItemDecision = "DECLINED"
)

// Valid reports whether d is a decidable value. PENDING is not a decision.
func (d ItemDecision) Valid() bool {
	return d == ItemAccepted || d == ItemDeclined
}

// ApprovalItem binds one file asset to the packet with its own decision.
// Item decisions are authoritative and independent; a split verdict is
// perfectly legal and leaves the packet status alone.
type ApprovalItem struct {
	ID        int64        `json:"id"`
	PacketID  int64        `json:"packet_id"`
	FileID    int64        `json:"file_id"`
	Decision  ItemDecision `json:"decision"`
	Comment   string       `json:"comment,omitempty"`
	DecidedAt *time.Time   `json:"decided_at,omitempty"`
}

// ApprovalPacket is a set of files sent to the client for sign-off. The
// packet status records what the packet-level actions set, not an
// aggregate of the items; FinalizeFromItems is the explicit roll-up.
type ApprovalPacket struct {
	ID            int64          `json:"id"`
	ProjectID     int64          `json:"project_id"`
	Number        string         `json:"number"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	Status        PacketStatus   `json:"status"`
	ShareToken    string         `json:"share_token"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
	DecidedAt     *time.Time     `json:"decided_at,omitempty"`
	ClientComment string         `json:"client_comment,omitempty"`
	SignatureName string         `json:"signature_name,omitempty"`
	Items         []ApprovalItem `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
