package money

import "golang.org/x/text/currency"

// ValidCurrency reports whether code is a well-formed ISO 4217 currency
// code.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}
