package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/auth"
	"github.com/odyssey-erp/unitdesk/internal/sales/customers"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// TransitionInput requests a status change for one unit. Customer is required
// for SOLD and DEMO. Credentials are required for RETURNED and for any
// transition of a verified unit.
type TransitionInput struct {
	Target      Status
	Customer    *customers.Input
	Credentials *auth.Credentials
}

// Transition moves one unit to in.Target. Checks run in a fixed order so no
// write happens unless every check passes: target, unit lookup, lock, no-op,
// customer name, protected target. A verified unit reports Locked whatever
// the rest of the input holds.
func (s *Service) Transition(ctx context.Context, p shared.Principal, productID, unitID uuid.UUID, in TransitionInput) (Unit, error) {
	const op = "inventory.transition"
	if !in.Target.Valid() {
		return Unit{}, shared.Validation(op, "unknown target status %q", in.Target)
	}

	unit, err := s.GetUnit(ctx, p, productID, unitID)
	if err != nil {
		return Unit{}, err
	}
	if err := s.checkLock(op, unit, in.Credentials); err != nil {
		return Unit{}, err
	}
	if unit.Status == in.Target {
		return unit, nil
	}
	if in.Target.Attributed() && (in.Customer == nil || strings.TrimSpace(in.Customer.Name) == "") {
		return Unit{}, shared.Validation(op, "customer name is required for %s", in.Target)
	}
	if in.Target == StatusReturned {
		if err := s.gate.Check(in.Credentials); err != nil {
			return Unit{}, err
		}
	}

	now := s.now().UTC()
	target := in.Target
	ch := Change{Patch: Patch{Status: &target}, At: now}
	if target.Attributed() {
		customer, err := s.customers.ResolveOrCreate(ctx, p.TenantID, *in.Customer)
		if err != nil {
			return Unit{}, err
		}
		phone := strings.TrimSpace(in.Customer.Phone)
		if phone == "" {
			phone = customer.PhoneValue()
		}
		ch.Attribution = &Attribution{
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			CustomerPhone: phone,
			At:            now,
		}
	} else {
		ch.ClearAttribution = true
	}

	if err := s.updateOne(ctx, op, unit, ch); err != nil {
		return Unit{}, err
	}
	s.metrics.ObserveTransition(string(unit.Status), string(target))
	return ch.Apply(unit), nil
}
