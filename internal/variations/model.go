// Package variations implements change-order requests: numbered creation,
// derived cost impact, and the dual decision tracks (internal staff
// disposition vs client sign-off) composed into one status.
package variations

import "time"

// VariationStatus is the derived lifecycle status.
type VariationStatus string

const (
	StatusPending   VariationStatus = "PENDING"
	StatusSubmitted VariationStatus = "SUBMITTED"
	StatusApproved  VariationStatus = "APPROVED"
	StatusDeclined  VariationStatus = "DECLINED"
)

// Disposition is the internal staff decision, independent of the client's.
type Disposition string

const (
	DispositionNone    Disposition = ""
	DispositionApprove Disposition = "APPROVE"
	DispositionReject  Disposition = "REJECT"
	DispositionDefer   Disposition = "DEFER"
)

// ClientDecision is the client's own sign-off, independent of staff.
type ClientDecision string

const (
	ClientUndecided ClientDecision = ""
	ClientApproved  ClientDecision = "APPROVED"
	ClientDeclined  ClientDecision = "DECLINED"
)

// Cost breakdown categories.
const (
	CostCategoryMaterial   = "MATERIAL"
	CostCategoryLabor      = "LABOR"
	CostCategoryAdditional = "ADDITIONAL"
)

// CostLine is one entry of the structured cost breakdown. Amount is derived
// from Quantity and Rate.
type CostLine struct {
	ID          int64  `json:"id"`
	VariationID int64  `json:"variation_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
	LineOrder   int    `json:"line_order"`
}

// VariationRequest model. Status is derived from the two decision tracks by
// the precedence function in status.go and persisted alongside them.
// PriceImpact equals the sum of the three cost-category totals whenever a
// breakdown is present.
type VariationRequest struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Number    string    `json:"number"`
	Date      time.Time `json:"date"`

	Requestor  string   `json:"requestor"`
	Reference  string   `json:"reference,omitempty"`
	Area       string   `json:"area,omitempty"`
	WorkTypes  []string `json:"work_types,omitempty"`
	Categories []string `json:"categories,omitempty"`

	ChangeDescription    string `json:"change_description"`
	ReasonDescription    string `json:"reason_description,omitempty"`
	TechnicalDescription string `json:"technical_description,omitempty"`
	CostDescription      string `json:"cost_description,omitempty"`

	MaterialCosts   []CostLine `json:"material_costs,omitempty"`
	LaborCosts      []CostLine `json:"labor_costs,omitempty"`
	AdditionalCosts []CostLine `json:"additional_costs,omitempty"`

	Currency       string `json:"currency"`
	PriceImpact    string `json:"price_impact"`
	TimeImpactDays int    `json:"time_impact_days"`

	InternalDisposition Disposition    `json:"internal_disposition,omitempty"`
	DispositionReason   string         `json:"disposition_reason,omitempty"`
	ClientDecision      ClientDecision `json:"client_decision,omitempty"`
	Status              VariationStatus `json:"status"`

	InvoiceID     *int64     `json:"invoice_id,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	DecidedBy     *int64     `json:"decided_by,omitempty"`
	ClientComment string     `json:"client_comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
