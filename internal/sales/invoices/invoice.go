package invoices

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Line is one invoice row. Lines built from units carry the product id and
// the units that make up the quantity; manual lines carry neither.
type Line struct {
	ProductID   uuid.UUID       `json:"product_id,omitempty"`
	Description string          `json:"description"`
	HSN         string          `json:"hsn,omitempty"`
	Quantity    int             `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Discount    decimal.Decimal `json:"discount"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`
	UnitIDs     []uuid.UUID     `json:"unit_ids,omitempty"`
	LineTotals
}

// Invoice is an ephemeral projection; nothing is persisted.
type Invoice struct {
	Regime Regime `json:"regime"`
	Lines  []Line `json:"lines"`
	Totals Totals `json:"totals"`
}

// ManualLine is an operator-authored row.
type ManualLine struct {
	Description string
	HSN         string
	Quantity    int
	Rate        decimal.Decimal
	Discount    decimal.Decimal
	TaxPercent  decimal.Decimal
}

func (l *Line) compute(regime Regime) {
	l.LineTotals = CalculateLineTotals(l.Quantity, l.Rate, l.Discount, l.TaxPercent, regime)
}

func newInvoice(regime Regime, lines []Line) Invoice {
	regime = regime.normalize()
	for i := range lines {
		lines[i].compute(regime)
	}
	if lines == nil {
		lines = []Line{}
	}
	return Invoice{Regime: regime, Lines: lines, Totals: CalculateTotals(lines)}
}

// FromLines builds an invoice from manual rows.
func FromLines(regime Regime, rows []ManualLine) (Invoice, error) {
	const op = "invoices.from_lines"
	if !regime.Valid() {
		return Invoice{}, shared.Validation(op, "unknown tax regime %q", regime)
	}
	if len(rows) == 0 {
		return Invoice{}, shared.Validation(op, "at least one line is required")
	}
	lines := make([]Line, 0, len(rows))
	for i, row := range rows {
		desc := strings.TrimSpace(row.Description)
		if desc == "" {
			return Invoice{}, shared.Validation(op, "line %d: description is required", i+1)
		}
		if row.Quantity <= 0 {
			return Invoice{}, shared.Validation(op, "line %d: quantity must be positive", i+1)
		}
		if msg := checkAmounts(row.Rate, row.Discount, row.TaxPercent); msg != "" {
			return Invoice{}, shared.Validation(op, "line %d: %s", i+1, msg)
		}
		lines = append(lines, Line{
			Description: desc,
			HSN:         strings.TrimSpace(row.HSN),
			Quantity:    row.Quantity,
			Rate:        row.Rate,
			Discount:    row.Discount,
			TaxPercent:  row.TaxPercent,
		})
	}
	return newInvoice(regime, lines), nil
}

func checkAmounts(rate, discount, taxPercent decimal.Decimal) string {
	switch {
	case rate.IsNegative():
		return "rate cannot be negative"
	case discount.IsNegative():
		return "discount cannot be negative"
	case taxPercent.IsNegative() || taxPercent.GreaterThan(hundred):
		return "tax percent must be between 0 and 100"
	}
	return ""
}
