package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineItem is one sanitized invoice line. Amount is always derived from
// Quantity and Rate, never taken from the client.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	TaxPercent  decimal.Decimal
	Amount      decimal.Decimal
}

// Totals carries the derived aggregates for a document.
type Totals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// SubtotalString returns the subtotal as a fixed-point 2-dp string.
func (t Totals) SubtotalString() string { return t.Subtotal.StringFixed(2) }

// TaxTotalString returns the tax total as a fixed-point 2-dp string.
func (t Totals) TaxTotalString() string { return t.TaxTotal.StringFixed(2) }

// TotalString returns the grand total as a fixed-point 2-dp string.
func (t Totals) TotalString() string { return t.Total.StringFixed(2) }

// Recalculate derives per-line amounts and document totals from the
// authoritative per-line fields: lineTotal = quantity × rate, lineTax =
// lineTotal × taxPercent/100, subtotal = Σ lineTotal, taxTotal = Σ lineTax,
// total = subtotal + taxTotal. Sums round to two places only once, after
// accumulation, so total always equals subtotal + taxTotal at 2 dp.
func Recalculate(items []LineItem) ([]LineItem, Totals) {
	out := make([]LineItem, 0, len(items))
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, item := range items {
		lineTotal := item.Quantity.Mul(item.Rate)
		lineTax := lineTotal.Mul(item.TaxPercent).Div(hundred)
		subtotal = subtotal.Add(lineTotal)
		taxTotal = taxTotal.Add(lineTax)

		item.Amount = lineTotal.Round(2)
		out = append(out, item)
	}
	sub := subtotal.Round(2)
	tax := taxTotal.Round(2)
	return out, Totals{
		Subtotal: sub,
		TaxTotal: tax,
		Total:    sub.Add(tax),
	}
}

// CostLine is one entry of a variation cost breakdown. Cost lines carry no
// tax component.
type CostLine struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// SumCostLines derives per-line amounts and the category total for one cost
// breakdown category.
func SumCostLines(lines []CostLine) ([]CostLine, decimal.Decimal) {
	out := make([]CostLine, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		amount := line.Quantity.Mul(line.Rate)
		total = total.Add(amount)
		line.Amount = amount.Round(2)
		out = append(out, line)
	}
	return out, total.Round(2)
}
