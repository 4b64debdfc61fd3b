package invoices

import (
	"github.com/shopspring/decimal"
)

// Regime selects how a line's tax is computed. The split regimes are
// mutually exclusive: a line carries either CGST+SGST or IGST, never both.
type Regime string

const (
	// RegimeSingle applies one tax percentage.
	RegimeSingle Regime = "single"
	// RegimeIntra splits the percentage evenly into CGST and SGST.
	RegimeIntra Regime = "intra"
	// RegimeInter charges the whole percentage as IGST.
	RegimeInter Regime = "inter"
)

// Valid reports whether r is a known regime. The empty regime means single.
func (r Regime) Valid() bool {
	switch r {
	case "", RegimeSingle, RegimeIntra, RegimeInter:
		return true
	}
	return false
}

func (r Regime) normalize() Regime {
	if r == "" {
		return RegimeSingle
	}
	return r
}

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

const moneyPlaces = 2

// LineTotals holds the derived amounts of one line, each rounded to 2 places.
type LineTotals struct {
	Base   decimal.Decimal `json:"base"`
	CGST   decimal.Decimal `json:"cgst"`
	SGST   decimal.Decimal `json:"sgst"`
	IGST   decimal.Decimal `json:"igst"`
	Tax    decimal.Decimal `json:"tax"`
	Amount decimal.Decimal `json:"amount"`
}

// CalculateLineTotals computes base = max(qty*rate - discount, 0), the tax on
// the base under regime and amount = base + tax.
func CalculateLineTotals(quantity int, unitRate, discount, taxPercent decimal.Decimal, regime Regime) LineTotals {
	gross := unitRate.Mul(decimal.NewFromInt(int64(quantity)))
	base := gross.Sub(discount)
	if base.IsNegative() {
		base = decimal.Zero
	}
	base = base.Round(moneyPlaces)

	out := LineTotals{Base: base, CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero}
	switch regime.normalize() {
	case RegimeIntra:
		// the odd cent of an uneven split goes to CGST so CGST+SGST == tax
		out.Tax = percentOf(base, taxPercent)
		out.CGST = out.Tax.Div(two).Round(moneyPlaces)
		out.SGST = out.Tax.Sub(out.CGST)
	case RegimeInter:
		out.IGST = percentOf(base, taxPercent)
		out.Tax = out.IGST
	default:
		out.Tax = percentOf(base, taxPercent)
	}
	out.Amount = base.Add(out.Tax)
	return out
}

func percentOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred).Round(moneyPlaces)
}

// Totals are the invoice sums over already rounded line values.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	CGST       decimal.Decimal `json:"cgst"`
	SGST       decimal.Decimal `json:"sgst"`
	IGST       decimal.Decimal `json:"igst"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// CalculateTotals sums the line values. Summing rounded per-line values keeps
// totals reproducible regardless of line order.
func CalculateTotals(lines []Line) Totals {
	t := Totals{Subtotal: decimal.Zero, CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero, TaxTotal: decimal.Zero}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Base)
		t.CGST = t.CGST.Add(l.CGST)
		t.SGST = t.SGST.Add(l.SGST)
		t.IGST = t.IGST.Add(l.IGST)
		t.TaxTotal = t.TaxTotal.Add(l.Tax)
	}
	t.Subtotal = t.Subtotal.Round(moneyPlaces)
	t.TaxTotal = t.TaxTotal.Round(moneyPlaces)
	t.GrandTotal = t.Subtotal.Add(t.TaxTotal).Round(moneyPlaces)
	return t
}
