package invoices

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

type lineBody struct {
	Description string          `json:"description" validate:"required,max=200"`
	HSN         string          `json:"hsn,omitempty" validate:"max=20"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	Rate        decimal.Decimal `json:"rate"`
	Discount    decimal.Decimal `json:"discount"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`
}

type overrideBody struct {
	ProductID uuid.UUID        `json:"product_id"`
	Rate      *decimal.Decimal `json:"rate,omitempty"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
}

// previewRequest carries either manual lines or unit ids, never both.
type previewRequest struct {
	Regime    Regime         `json:"regime,omitempty" validate:"omitempty,oneof=single intra inter"`
	UnitIDs   []uuid.UUID    `json:"unit_ids,omitempty" validate:"max=5000"`
	Overrides []overrideBody `json:"overrides,omitempty" validate:"dive"`
	Lines     []lineBody     `json:"lines,omitempty" validate:"max=500,dive"`
}

func (r previewRequest) manualLines() []ManualLine {
	out := make([]ManualLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, ManualLine(l))
	}
	return out
}

func (r previewRequest) unitsRequest() (UnitsRequest, error) {
	req := UnitsRequest{Regime: r.Regime, UnitIDs: r.UnitIDs}
	if len(r.Overrides) > 0 {
		req.Overrides = make(map[uuid.UUID]Override, len(r.Overrides))
		for _, o := range r.Overrides {
			if _, dup := req.Overrides[o.ProductID]; dup {
				return UnitsRequest{}, shared.Validation("invoices.preview", "duplicate override for product %s", o.ProductID)
			}
			req.Overrides[o.ProductID] = Override{Rate: o.Rate, Discount: o.Discount}
		}
	}
	return req, nil
}
