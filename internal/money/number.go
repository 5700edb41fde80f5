// Package money recomputes monetary totals from untrusted client line items.
// Client-submitted aggregates are never trusted; every figure that reaches
// the store is derived here, rounded to two places, and persisted as a
// fixed-point decimal string.
package money

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a lenient JSON scalar for client-supplied numeric fields. It
// accepts a JSON number, a numeric string, null, or nothing at all; any
// value that does not parse coerces to zero so malformed input can never
// propagate into stored totals.
type Number struct {
	dec decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		n.dec = decimal.Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			n.dec = decimal.Zero
			return nil
		}
		s = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		n.dec = decimal.Zero
		return nil
	}
	n.dec = d
	return nil
}

// MarshalJSON renders the value as a JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.dec.String()), nil
}

// Decimal returns the parsed value, zero when input was absent or invalid.
func (n Number) Decimal() decimal.Decimal {
	return n.dec
}

// FromFloat builds a Number from a float, mainly for tests and internal
// callers.
func FromFloat(f float64) Number {
	return Number{dec: decimal.NewFromFloat(f)}
}

// FromString builds a Number the way UnmarshalJSON would, defaulting
// unparsable input to zero.
func FromString(s string) Number {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Number{dec: decimal.Zero}
	}
	return Number{dec: d}
}
