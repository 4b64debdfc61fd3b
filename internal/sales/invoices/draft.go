package invoices

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Item is one sold unit added to a draft, with the catalog values of its
// product.
type Item struct {
	UnitID      uuid.UUID
	ProductID   uuid.UUID
	Description string
	HSN         string
	Rate        decimal.Decimal
	TaxPercent  decimal.Decimal
}

// Override replaces the rate and/or flat discount of every unit of a product.
type Override struct {
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
}

// Draft groups units into one line per product. Lines keep the order in which
// their product was first added. A Draft is not safe for concurrent use.
type Draft struct {
	regime Regime
	lines  []*Line
	byProd map[uuid.UUID]*Line
	units  map[uuid.UUID]uuid.UUID
}

// NewDraft returns an empty draft under regime.
func NewDraft(regime Regime) (*Draft, error) {
	if !regime.Valid() {
		return nil, shared.Validation("invoices.draft", "unknown tax regime %q", regime)
	}
	return &Draft{
		regime: regime.normalize(),
		byProd: make(map[uuid.UUID]*Line),
		units:  make(map[uuid.UUID]uuid.UUID),
	}, nil
}

// AddUnit adds one unit of quantity to the line of its product.
func (d *Draft) AddUnit(item Item) error {
	const op = "invoices.draft_add"
	if item.UnitID == uuid.Nil || item.ProductID == uuid.Nil {
		return shared.Validation(op, "unit and product are required")
	}
	if _, dup := d.units[item.UnitID]; dup {
		return shared.Validation(op, "unit %s is already on the invoice", item.UnitID)
	}
	line, ok := d.byProd[item.ProductID]
	if !ok {
		line = &Line{
			ProductID:   item.ProductID,
			Description: item.Description,
			HSN:         item.HSN,
			Rate:        item.Rate,
			Discount:    decimal.Zero,
			TaxPercent:  item.TaxPercent,
		}
		d.byProd[item.ProductID] = line
		d.lines = append(d.lines, line)
	}
	line.Quantity++
	line.UnitIDs = append(line.UnitIDs, item.UnitID)
	d.units[item.UnitID] = item.ProductID
	return nil
}

// RemoveUnit takes one unit off its line. The line disappears when its
// quantity reaches zero; other lines are untouched. It reports whether the
// unit was on the draft.
func (d *Draft) RemoveUnit(unitID uuid.UUID) bool {
	productID, ok := d.units[unitID]
	if !ok {
		return false
	}
	delete(d.units, unitID)
	line := d.byProd[productID]
	for i, id := range line.UnitIDs {
		if id == unitID {
			line.UnitIDs = append(line.UnitIDs[:i], line.UnitIDs[i+1:]...)
			break
		}
	}
	line.Quantity--
	if line.Quantity > 0 {
		return true
	}
	delete(d.byProd, productID)
	for i, l := range d.lines {
		if l == line {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			break
		}
	}
	return true
}

// Override applies rate and discount overrides to a product's line.
func (d *Draft) Override(productID uuid.UUID, o Override) error {
	const op = "invoices.draft_override"
	line, ok := d.byProd[productID]
	if !ok {
		return shared.NotFound(op, "invoice line")
	}
	rate, discount := line.Rate, line.Discount
	if o.Rate != nil {
		rate = *o.Rate
	}
	if o.Discount != nil {
		discount = *o.Discount
	}
	if msg := checkAmounts(rate, discount, line.TaxPercent); msg != "" {
		return shared.Validation(op, "%s", msg)
	}
	line.Rate, line.Discount = rate, discount
	return nil
}

// Len returns the number of lines.
func (d *Draft) Len() int { return len(d.lines) }

// Invoice computes the current lines and totals. The draft stays editable.
func (d *Draft) Invoice() Invoice {
	lines := make([]Line, 0, len(d.lines))
	for _, l := range d.lines {
		cp := *l
		cp.UnitIDs = append([]uuid.UUID(nil), l.UnitIDs...)
		lines = append(lines, cp)
	}
	return newInvoice(d.regime, lines)
}
