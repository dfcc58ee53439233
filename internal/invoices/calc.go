package invoices

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ValuateLineItems filters out invalid rows (blank description, quantity
// below one, non-positive price) and assigns line positions. Invalid rows are
// dropped silently; an empty result is the caller's error to raise. Unit
// prices are rounded to 2 decimal places (half up) before any amount is
// derived, so recomputing from the persisted price yields the same totals.
func ValuateLineItems(items []LineItemInput) []LineItem {
	valid := make([]LineItem, 0, len(items))
	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		price := it.UnitPrice.Round(2)
		if desc == "" || it.Quantity < 1 || price.Sign() <= 0 {
			continue
		}
		valid = append(valid, LineItem{
			Description: desc,
			Quantity:    it.Quantity,
			UnitPrice:   price,
			Taxable:     it.TaxableOrDefault(),
			Position:    len(valid) + 1,
		})
	}
	return valid
}

// ComputeTax applies the CGST/SGST percentage rates to the taxable subset of
// the given line items. Intermediate sums keep full precision; only the two
// tax amounts are rounded to 2 decimal places (half up).
func ComputeTax(lines []LineItem, cgstRate, sgstRate decimal.Decimal) TaxInfo {
	taxable := decimal.Zero
	for _, l := range lines {
		if l.Taxable {
			taxable = taxable.Add(l.Amount())
		}
	}
	return TaxInfo{
		CGSTRate:      cgstRate,
		SGSTRate:      sgstRate,
		TaxableAmount: taxable,
		CGSTAmount:    taxable.Mul(cgstRate).Div(hundred).Round(2),
		SGSTAmount:    taxable.Mul(sgstRate).Div(hundred).Round(2),
	}
}

// AssembleTotal sums every line amount, taxable or not, plus both tax
// amounts. Pure function of its inputs; callers must rerun it whenever a line
// or a rate changes.
func AssembleTotal(lines []LineItem, tax TaxInfo) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount())
	}
	return sum.Add(tax.CGSTAmount).Add(tax.SGSTAmount).Round(2)
}

// sequenceWidth is the zero-pad width of invoice numbers.
const sequenceWidth = 5

// FormatNumber renders the nth invoice number for an owner, e.g. INV-00042.
func FormatNumber(n int64) string {
	return fmt.Sprintf("INV-%0*d", sequenceWidth, n)
}
