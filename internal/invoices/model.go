// Package invoices implements the invoice document lifecycle: numbered
// creation, derived monetary totals, and the Draft → Sent → Paid state
// machine.
package invoices

import "time"

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	InvoiceStatusSent  InvoiceStatus = "SENT"
	InvoiceStatusPaid  InvoiceStatus = "PAID"
)

// Invoice model. Subtotal, TaxTotal and Total are fixed-point decimal
// strings derived from the line items on every write; they are never taken
// from the client.
type Invoice struct {
	ID        int64         `json:"id"`
	ProjectID int64         `json:"project_id"`
	Number    string        `json:"number"`
	IssueDate time.Time     `json:"issue_date"`
	DueDate   time.Time     `json:"due_date"`
	Currency  string        `json:"currency"`
	Status    InvoiceStatus `json:"status"`
	Subtotal  string        `json:"subtotal"`
	TaxTotal  string        `json:"tax_total"`
	Total     string        `json:"total"`
	Notes     *string       `json:"notes,omitempty"`
	SentAt    *time.Time    `json:"sent_at,omitempty"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Lines     []InvoiceLine `json:"lines,omitempty"`
}

// InvoiceLine is one ordered line of an invoice. Amount is always derived
// from Quantity and Rate.
type InvoiceLine struct {
	ID          int64  `json:"id"`
	InvoiceID   int64  `json:"invoice_id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	TaxPercent  string `json:"tax_percent"`
	Amount      string `json:"amount"`
	LineOrder   int    `json:"line_order"`
}
