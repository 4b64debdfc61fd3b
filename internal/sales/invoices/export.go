package invoices

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// WriteLinesCSV writes the invoice lines followed by a totals row.
func WriteLinesCSV(w io.Writer, inv Invoice) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Description", "HSN", "Quantity", "Rate", "Discount", "Tax %", "Base", "CGST", "SGST", "IGST", "Tax", "Amount"}); err != nil {
		return err
	}
	for _, l := range inv.Lines {
		if err := writer.Write([]string{
			l.Description,
			l.HSN,
			strconv.Itoa(l.Quantity),
			money(l.Rate),
			money(l.Discount),
			l.TaxPercent.String(),
			money(l.Base),
			money(l.CGST),
			money(l.SGST),
			money(l.IGST),
			money(l.Tax),
			money(l.Amount),
		}); err != nil {
			return err
		}
	}
	t := inv.Totals
	if err := writer.Write([]string{"TOTAL", "", "", "", "", "", money(t.Subtotal), money(t.CGST), money(t.SGST), money(t.IGST), money(t.TaxTotal), money(t.GrandTotal)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}
