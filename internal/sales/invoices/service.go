package invoices

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/inventory"
	"github.com/odyssey-erp/unitdesk/internal/masterdata/products"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// UnitSource loads units by id across the tenant's products.
type UnitSource interface {
	GetByIDs(ctx context.Context, tenantID, productID uuid.UUID, ids []uuid.UUID) ([]inventory.Unit, error)
}

// Catalog resolves the products referenced by invoiced units.
type Catalog interface {
	GetMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]products.Product, error)
}

// Service builds invoice previews from sold units.
type Service struct {
	units   UnitSource
	catalog Catalog
}

// NewService constructs the invoice service.
func NewService(units UnitSource, catalog Catalog) *Service {
	return &Service{units: units, catalog: catalog}
}

// UnitsRequest names the units to invoice. Overrides are keyed by product id
// and apply uniformly to all units of that product.
type UnitsRequest struct {
	Regime    Regime
	UnitIDs   []uuid.UUID
	Overrides map[uuid.UUID]Override
}

// FromUnits groups the units into one line per product. Every unit must belong
// to the tenant and be SOLD. Unit statuses are not changed.
func (s *Service) FromUnits(ctx context.Context, p shared.Principal, req UnitsRequest) (Invoice, error) {
	const op = "invoices.from_units"
	if !p.Valid() {
		return Invoice{}, shared.Validation(op, "tenant is required")
	}
	draft, err := NewDraft(req.Regime)
	if err != nil {
		return Invoice{}, err
	}
	ids := uniqueIDs(req.UnitIDs)
	if len(ids) == 0 {
		return Invoice{}, shared.Validation(op, "at least one unit is required")
	}

	units, err := s.units.GetByIDs(ctx, p.TenantID, uuid.Nil, ids)
	if err != nil {
		return Invoice{}, shared.Store(op, err)
	}
	byID := make(map[uuid.UUID]inventory.Unit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}
	var notSold []string
	productIDs := make([]uuid.UUID, 0)
	seenProduct := make(map[uuid.UUID]struct{})
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return Invoice{}, shared.NotFound(op, "unit "+id.String())
		}
		if u.Status != inventory.StatusSold {
			notSold = append(notSold, u.Code)
		}
		if _, ok := seenProduct[u.ProductID]; !ok {
			seenProduct[u.ProductID] = struct{}{}
			productIDs = append(productIDs, u.ProductID)
		}
	}
	if len(notSold) > 0 {
		sort.Strings(notSold)
		return Invoice{}, shared.Validation(op, "only SOLD units can be invoiced: %s", strings.Join(notSold, ", "))
	}

	catalog, err := s.catalog.GetMany(ctx, p.TenantID, productIDs)
	if err != nil {
		return Invoice{}, shared.Store(op, err)
	}
	for _, id := range ids {
		u := byID[id]
		prod, ok := catalog[u.ProductID]
		if !ok {
			return Invoice{}, shared.NotFound(op, "product "+u.ProductID.String())
		}
		if err := draft.AddUnit(Item{
			UnitID:      u.ID,
			ProductID:   prod.ID,
			Description: prod.Name,
			HSN:         prod.HSN,
			Rate:        prod.Price,
			TaxPercent:  prod.TaxPercent,
		}); err != nil {
			return Invoice{}, err
		}
	}
	for productID, o := range req.Overrides {
		if _, ok := seenProduct[productID]; !ok {
			return Invoice{}, shared.Validation(op, "override for product %s has no units on the invoice", productID)
		}
		if err := draft.Override(productID, o); err != nil {
			return Invoice{}, err
		}
	}
	return draft.Invoice(), nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
