// Package numbering issues the globally-unique, human-readable document
// numbers. A single sequence_counters row per calendar year carries four
// independent counters, one per document kind; issuance is a single atomic
// upsert-increment-return statement so two concurrent creates can never
// receive the same integer.
package numbering

import (
	"fmt"
)

// Kind identifies one of the four numbered document kinds.
type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindVariation Kind = "variation"
	KindTicket    Kind = "ticket"
	KindApproval  Kind = "approval"
)

// Prefix returns the display prefix for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindInvoice:
		return "INV"
	case KindVariation:
		return "VR"
	case KindTicket:
		return "TK"
	case KindApproval:
		return "AP"
	}
	return ""
}

// column maps a kind to its counter column. The mapping doubles as the
// whitelist for the interpolated identifier in the upsert statement.
func (k Kind) column() (string, error) {
	switch k {
	case KindInvoice:
		return "invoice_seq", nil
	case KindVariation:
		return "variation_seq", nil
	case KindTicket:
		return "ticket_seq", nil
	case KindApproval:
		return "approval_seq", nil
	}
	return "", fmt.Errorf("numbering: unknown kind %q", string(k))
}

// Format renders the canonical display number PREFIX-YYYY-NNNN. Sequence
// values beyond 9999 keep all their digits.
func Format(kind Kind, year int, n int64) (string, error) {
	prefix := kind.Prefix()
	if prefix == "" {
		return "", fmt.Errorf("numbering: unknown kind %q", string(kind))
	}
	if year < 1 {
		return "", fmt.Errorf("numbering: invalid year %d", year)
	}
	if n < 1 {
		return "", fmt.Errorf("numbering: invalid sequence value %d", n)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, n), nil
}
