package inventory

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/auth"
	"github.com/odyssey-erp/unitdesk/internal/sales/customers"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Credentials are never validated at the boundary: missing or malformed
// override credentials must reach the gate and fail as an authorization error.

type addUnitRequest struct {
	Code           string `json:"code" validate:"required,max=100"`
	ManufacturedOn string `json:"manufactured_on" validate:"required,datetime=2006-01-02"`
	ExpiresOn      string `json:"expires_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type scanRequest struct {
	Codes          []string `json:"codes" validate:"required,min=1,max=5000,dive,max=100"`
	ManufacturedOn string   `json:"manufactured_on" validate:"required,datetime=2006-01-02"`
	ExpiresOn      string   `json:"expires_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type datesRequest struct {
	ManufacturedOn string            `json:"manufactured_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExpiresOn      string            `json:"expires_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearExpiry    bool              `json:"clear_expiry,omitempty"`
	Credentials    *auth.Credentials `json:"credentials,omitempty" validate:"-"`
}

type credentialsRequest struct {
	Credentials *auth.Credentials `json:"credentials,omitempty" validate:"-"`
}

type transitionRequest struct {
	Status      Status             `json:"status" validate:"required"`
	Customer    *customers.Payload `json:"customer,omitempty"`
	Credentials *auth.Credentials  `json:"credentials,omitempty" validate:"-"`
}

type verifyRequest struct {
	IDs         []uuid.UUID       `json:"ids" validate:"required,min=1"`
	Verified    bool              `json:"verified"`
	Credentials *auth.Credentials `json:"credentials,omitempty" validate:"-"`
}

type rangeBody struct {
	From string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type filterBody struct {
	Statuses        []Status  `json:"statuses,omitempty"`
	Code            string    `json:"code,omitempty" validate:"max=100"`
	Manufactured    rangeBody `json:"manufactured"`
	Expiry          rangeBody `json:"expiry"`
	ExpiryState     string    `json:"expiry_state,omitempty" validate:"omitempty,oneof=expired not_expired"`
	IncludeNoExpiry bool      `json:"include_no_expiry,omitempty"`
	Verified        *bool     `json:"verified,omitempty"`
}

type scopeBody struct {
	Kind   ScopeKind   `json:"kind" validate:"required,oneof=ids filter"`
	IDs    []uuid.UUID `json:"ids,omitempty"`
	Filter filterBody  `json:"filter"`
}

type patchBody struct {
	Status         *Status `json:"status,omitempty"`
	ManufacturedOn string  `json:"manufactured_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExpiresOn      string  `json:"expires_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearExpiry    bool    `json:"clear_expiry,omitempty"`
}

type bulkPreviewRequest struct {
	Scope scopeBody `json:"scope"`
}

type bulkEditRequest struct {
	Scope       scopeBody         `json:"scope"`
	Patch       patchBody         `json:"patch"`
	Credentials *auth.Credentials `json:"credentials,omitempty" validate:"-"`
}

type bulkDeleteRequest struct {
	Scope        scopeBody         `json:"scope"`
	Mode         DeleteMode        `json:"mode,omitempty" validate:"omitempty,oneof=SKIP_VERIFIED DELETE_ALL"`
	Confirmation string            `json:"confirmation,omitempty"`
	Credentials  *auth.Credentials `json:"credentials,omitempty" validate:"-"`
}

func parseDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

func mustDate(v string) time.Time {
	if t := parseDate(v); t != nil {
		return *t
	}
	return time.Time{}
}

func (r rangeBody) toRange() DateRange {
	return DateRange{From: parseDate(r.From), To: parseDate(r.To)}
}

func (f filterBody) toFilter() Filter {
	return Filter{
		Statuses:        f.Statuses,
		Code:            f.Code,
		Manufactured:    f.Manufactured.toRange(),
		Expiry:          f.Expiry.toRange(),
		ExpiryState:     ExpiryState(f.ExpiryState),
		IncludeNoExpiry: f.IncludeNoExpiry,
		Verified:        f.Verified,
	}
}

func (s scopeBody) toScope(productID uuid.UUID) Scope {
	return Scope{Kind: s.Kind, ProductID: productID, IDs: s.IDs, Filter: s.Filter.toFilter()}
}

func (p patchBody) toPatch() Patch {
	return Patch{Status: p.Status, ManufacturedOn: parseDate(p.ManufacturedOn), ExpiresOn: parseDate(p.ExpiresOn), ClearExpiry: p.ClearExpiry}
}

// filterFromQuery reads the listing filter from query parameters.
func filterFromQuery(q url.Values) (Filter, error) {
	const op = "inventory.query"
	var f Filter
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Statuses = append(f.Statuses, Status(strings.ToUpper(part)))
			}
		}
	}
	f.Code = q.Get("code")
	for _, p := range []struct {
		key  string
		dest **time.Time
	}{
		{"manufactured_from", &f.Manufactured.From},
		{"manufactured_to", &f.Manufactured.To},
		{"expires_from", &f.Expiry.From},
		{"expires_to", &f.Expiry.To},
	} {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		t := parseDate(raw)
		if t == nil {
			return Filter{}, shared.Validation(op, "invalid %s", p.key)
		}
		*p.dest = t
	}
	f.ExpiryState = ExpiryState(strings.TrimSpace(q.Get("expiry")))
	if v := strings.TrimSpace(q.Get("include_no_expiry")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, shared.Validation(op, "invalid include_no_expiry")
		}
		f.IncludeNoExpiry = b
	}
	if v := strings.TrimSpace(q.Get("verified")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, shared.Validation(op, "invalid verified")
		}
		f.Verified = &b
	}
	return f, f.Validate()
}
