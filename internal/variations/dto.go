package variations

import (
	"time"

	"github.com/atelier-erp/atelier/internal/money"
	"github.com/atelier-erp/atelier/internal/shared"
)

// CostLineRequest is one client-supplied cost breakdown entry.
type CostLineRequest struct {
	Description string       `json:"description" validate:"max=500"`
	Quantity    money.Number `json:"quantity"`
	Rate        money.Number `json:"rate"`
}

// CostBreakdownRequest groups the three cost categories.
type CostBreakdownRequest struct {
	Material   []CostLineRequest `json:"material_costs,omitempty" validate:"dive"`
	Labor      []CostLineRequest `json:"labor_costs,omitempty" validate:"dive"`
	Additional []CostLineRequest `json:"additional_costs,omitempty" validate:"dive"`
}

// CreateVariationRequest accepts both historical payload shapes: the
// structured fields, or the legacy description/reason pair which is
// normalised into them. A request is valid when either shape's required
// fields are present.
type CreateVariationRequest struct {
	ProjectID int64     `json:"project_id" validate:"required,gt=0"`
	Date      time.Time `json:"date"`

	Requestor  string   `json:"requestor" validate:"max=200"`
	Reference  string   `json:"reference" validate:"max=200"`
	Area       string   `json:"area" validate:"max=200"`
	WorkTypes  []string `json:"work_types,omitempty"`
	Categories []string `json:"categories,omitempty"`

	ChangeDescription    string `json:"change_description"`
	ReasonDescription    string `json:"reason_description"`
	TechnicalDescription string `json:"technical_description"`
	CostDescription      string `json:"cost_description"`

	// Legacy shape.
	Description string `json:"description"`
	Reason      string `json:"reason"`

	Currency       string                `json:"currency" validate:"omitempty,len=3"`
	PriceImpact    money.Number          `json:"price_impact"`
	TimeImpactDays int                   `json:"time_impact_days" validate:"gte=0"`
	CostBreakdown  *CostBreakdownRequest `json:"cost_breakdown,omitempty"`
}

// normalize folds the legacy fields into the structured ones and checks
// that at least one shape carried its required fields.
func (r *CreateVariationRequest) normalize() error {
	if r.ChangeDescription == "" {
		r.ChangeDescription = r.Description
	}
	if r.ReasonDescription == "" {
		r.ReasonDescription = r.Reason
	}
	if r.ChangeDescription == "" {
		return shared.Validationf("either change_description or description is required")
	}
	if r.Date.IsZero() {
		r.Date = time.Now()
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	return nil
}

// UpdateVariationRequest patches an undecided variation.
type UpdateVariationRequest struct {
	Requestor            *string               `json:"requestor,omitempty" validate:"omitempty,max=200"`
	Reference            *string               `json:"reference,omitempty" validate:"omitempty,max=200"`
	Area                 *string               `json:"area,omitempty" validate:"omitempty,max=200"`
	WorkTypes            *[]string             `json:"work_types,omitempty"`
	Categories           *[]string             `json:"categories,omitempty"`
	ChangeDescription    *string               `json:"change_description,omitempty"`
	ReasonDescription    *string               `json:"reason_description,omitempty"`
	TechnicalDescription *string               `json:"technical_description,omitempty"`
	CostDescription      *string               `json:"cost_description,omitempty"`
	PriceImpact          *money.Number         `json:"price_impact,omitempty"`
	TimeImpactDays       *int                  `json:"time_impact_days,omitempty" validate:"omitempty,gte=0"`
	CostBreakdown        *CostBreakdownRequest `json:"cost_breakdown,omitempty"`
}

// SetDispositionRequest is the internal staff decision.
type SetDispositionRequest struct {
	Disposition Disposition `json:"disposition" validate:"required,oneof=APPROVE REJECT DEFER"`
	Reason      string      `json:"reason" validate:"max=2000"`
	ActorID     int64       `json:"actor_id" validate:"required,gt=0"`
}

// ClientDecisionRequest is the client's own approve/decline.
type ClientDecisionRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
}

// GenerateInvoiceRequest bills an approved variation.
type GenerateInvoiceRequest struct {
	IssueDate time.Time `json:"issue_date" validate:"required"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// ListVariationsRequest filters the listing.
type ListVariationsRequest struct {
	ProjectID *int64           `json:"project_id,omitempty"`
	Status    *VariationStatus `json:"status,omitempty"`
	Limit     int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int              `json:"offset" validate:"gte=0"`
}

func toCostItems(reqs []CostLineRequest) []money.CostLine {
	out := make([]money.CostLine, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, money.CostLine{
			Description: req.Description,
			Quantity:    req.Quantity.Decimal(),
			Rate:        req.Rate.Decimal(),
		})
	}
	return out
}
