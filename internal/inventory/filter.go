package inventory

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// ExpiryState narrows units by whether their expiry date has passed.
type ExpiryState string

const (
	ExpiryAny        ExpiryState = ""
	ExpiryExpired    ExpiryState = "expired"
	ExpiryNotExpired ExpiryState = "not_expired"
)

// DateRange is an inclusive calendar-date window. Either bound may be open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Set reports whether either bound is present.
func (r DateRange) Set() bool {
	return r.From != nil || r.To != nil
}

func (r DateRange) contains(t time.Time) bool {
	day := Day(t)
	if r.From != nil && day.Before(Day(*r.From)) {
		return false
	}
	if r.To != nil && day.After(Day(*r.To)) {
		return false
	}
	return true
}

// Filter is the predicate shared by listing, bulk preview and bulk mutation.
// Every field is optional; the zero Filter matches all units.
type Filter struct {
	Statuses        []Status    `json:"statuses,omitempty"`
	Code            string      `json:"code,omitempty"`
	Manufactured    DateRange   `json:"manufactured,omitempty"`
	Expiry          DateRange   `json:"expiry,omitempty"`
	ExpiryState     ExpiryState `json:"expiry_state,omitempty"`
	IncludeNoExpiry bool        `json:"include_no_expiry,omitempty"`
	Verified        *bool       `json:"verified,omitempty"`
}

// Validate rejects unknown statuses, inverted ranges and unknown expiry states.
func (f Filter) Validate() error {
	for _, s := range f.Statuses {
		if !s.Valid() {
			return shared.Validation("inventory.filter", "unknown status %q", s)
		}
	}
	if f.Manufactured.From != nil && f.Manufactured.To != nil && Day(*f.Manufactured.From).After(Day(*f.Manufactured.To)) {
		return shared.Validation("inventory.filter", "manufactured range is inverted")
	}
	if f.Expiry.From != nil && f.Expiry.To != nil && Day(*f.Expiry.From).After(Day(*f.Expiry.To)) {
		return shared.Validation("inventory.filter", "expiry range is inverted")
	}
	switch f.ExpiryState {
	case ExpiryAny, ExpiryExpired, ExpiryNotExpired:
	default:
		return shared.Validation("inventory.filter", "unknown expiry state %q", f.ExpiryState)
	}
	return nil
}

// constrainsExpiry reports whether any expiry predicate applies. Units without
// an expiry date pass such predicates only when IncludeNoExpiry is set.
func (f Filter) constrainsExpiry() bool {
	return f.Expiry.Set() || f.ExpiryState != ExpiryAny
}

// WithVerified returns a copy of f narrowed to the given verified flag.
func (f Filter) WithVerified(v bool) Filter {
	f.Verified = &v
	return f
}

// Matches evaluates f against u. asOf is the reference date for ExpiryState.
func (f Filter) Matches(u Unit, asOf time.Time) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if u.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if code := strings.TrimSpace(f.Code); code != "" {
		fold := cases.Fold()
		if !strings.Contains(fold.String(u.Code), fold.String(code)) {
			return false
		}
	}
	if f.Manufactured.Set() && !f.Manufactured.contains(u.ManufacturedOn) {
		return false
	}
	if f.constrainsExpiry() {
		if u.ExpiresOn == nil {
			if !f.IncludeNoExpiry {
				return false
			}
		} else {
			if f.Expiry.Set() && !f.Expiry.contains(*u.ExpiresOn) {
				return false
			}
			today := Day(asOf)
			switch f.ExpiryState {
			case ExpiryExpired:
				if !Day(*u.ExpiresOn).Before(today) {
					return false
				}
			case ExpiryNotExpired:
				if Day(*u.ExpiresOn).Before(today) {
					return false
				}
			}
		}
	}
	if f.Verified != nil && u.Verified != *f.Verified {
		return false
	}
	return true
}
