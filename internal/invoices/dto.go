package invoices

import (
	"time"

	"github.com/atelier-erp/atelier/internal/money"
)

// LineItemRequest is one client-supplied line. The numeric fields are
// lenient: anything non-numeric coerces to zero instead of failing the
// decode or corrupting the totals.
type LineItemRequest struct {
	Description string       `json:"description" validate:"max=500"`
	Quantity    money.Number `json:"quantity"`
	Rate        money.Number `json:"rate"`
	TaxPercent  money.Number `json:"tax_percent"`
}

// CreateInvoiceRequest carries the create payload. Client-supplied
// subtotal/tax/total fields are deliberately absent: totals are derived.
type CreateInvoiceRequest struct {
	ProjectID int64             `json:"project_id" validate:"required,gt=0"`
	IssueDate time.Time         `json:"issue_date" validate:"required"`
	DueDate   time.Time         `json:"due_date" validate:"required"`
	Currency  string            `json:"currency" validate:"required,len=3"`
	LineItems []LineItemRequest `json:"line_items" validate:"dive"`
	Notes     *string           `json:"notes,omitempty"`
}

// UpdateInvoiceRequest patches a draft invoice. A non-nil LineItems
// replaces all lines and triggers full recomputation.
type UpdateInvoiceRequest struct {
	IssueDate *time.Time         `json:"issue_date,omitempty"`
	DueDate   *time.Time         `json:"due_date,omitempty"`
	Currency  *string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	LineItems *[]LineItemRequest `json:"line_items,omitempty" validate:"omitempty,dive"`
	Notes     *string            `json:"notes,omitempty"`
}

// RecordPaymentRequest records the payment moment; PaidAt defaults to now.
type RecordPaymentRequest struct {
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// ListInvoicesRequest filters the invoice listing.
type ListInvoicesRequest struct {
	ProjectID *int64         `json:"project_id,omitempty"`
	Status    *InvoiceStatus `json:"status,omitempty"`
	Limit     int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int            `json:"offset" validate:"gte=0"`
}

func toMoneyItems(items []LineItemRequest) []money.LineItem {
	out := make([]money.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, money.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity.Decimal(),
			Rate:        item.Rate.Decimal(),
			TaxPercent:  item.TaxPercent.Decimal(),
		})
	}
	return out
}
