package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a physical unit.
type Status string

const (
	StatusInStock    Status = "IN_STOCK"
	StatusDemo       Status = "DEMO"
	StatusSold       Status = "SOLD"
	StatusReturned   Status = "RETURNED"
	StatusInvoiced   Status = "INVOICED"
	StatusOutOfStock Status = "OUT_OF_STOCK"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusInStock, StatusDemo, StatusSold, StatusReturned, StatusInvoiced, StatusOutOfStock}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Attributed reports whether units in this status carry a customer.
func (s Status) Attributed() bool {
	return s == StatusSold || s == StatusDemo
}

// Unit is one physical, serial-coded item of a product.
type Unit struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	Code           string     `json:"code"`
	Status         Status     `json:"status"`
	ManufacturedOn time.Time  `json:"manufactured_on"`
	ExpiresOn      *time.Time `json:"expires_on,omitempty"`
	CustomerID     *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName   *string    `json:"customer_name,omitempty"`
	CustomerPhone  *string    `json:"customer_phone,omitempty"`
	AttributedAt   *time.Time `json:"attributed_at,omitempty"`
	Verified       bool       `json:"verified"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Attribution is the customer snapshot written on SOLD and DEMO units.
type Attribution struct {
	CustomerID    uuid.UUID
	CustomerName  string
	CustomerPhone string
	At            time.Time
}

// Patch is the subset of unit fields a bulk edit may set.
type Patch struct {
	Status         *Status    `json:"status,omitempty"`
	ManufacturedOn *time.Time `json:"manufactured_on,omitempty"`
	ExpiresOn      *time.Time `json:"expires_on,omitempty"`
	ClearExpiry    bool       `json:"clear_expiry,omitempty"`
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.ManufacturedOn == nil && p.ExpiresOn == nil && !p.ClearExpiry
}

// Change is the full set of column writes a store applies to selected rows.
type Change struct {
	Patch
	// Attribution, when set, is written to every selected row.
	Attribution *Attribution
	// ClearAttribution nulls the customer columns on every selected row.
	ClearAttribution bool
	// ClearAttributionOnStatusChange nulls the customer columns only on rows
	// whose current status differs from Patch.Status.
	ClearAttributionOnStatusChange bool
	Verified                       *bool
	At                             time.Time
}

// Selection addresses units inside one tenant. ProductID is required for
// writes. A nil IDs slice means no id restriction; an empty one matches
// nothing.
type Selection struct {
	TenantID  uuid.UUID
	ProductID uuid.UUID
	IDs       []uuid.UUID
	Filter    Filter
	AsOf      time.Time
}

// Apply returns u with the change applied.
func (ch Change) Apply(u Unit) Unit {
	previous := u.Status
	if ch.Status != nil {
		u.Status = *ch.Status
	}
	if ch.ManufacturedOn != nil {
		u.ManufacturedOn = Day(*ch.ManufacturedOn)
	}
	if ch.ClearExpiry {
		u.ExpiresOn = nil
	} else if ch.ExpiresOn != nil {
		v := Day(*ch.ExpiresOn)
		u.ExpiresOn = &v
	}
	switch {
	case ch.Attribution != nil:
		id := ch.Attribution.CustomerID
		name := ch.Attribution.CustomerName
		at := ch.Attribution.At
		u.CustomerID = &id
		u.CustomerName = &name
		u.CustomerPhone = nil
		if ch.Attribution.CustomerPhone != "" {
			phone := ch.Attribution.CustomerPhone
			u.CustomerPhone = &phone
		}
		u.AttributedAt = &at
	case ch.ClearAttribution,
		ch.ClearAttributionOnStatusChange && ch.Status != nil && previous != *ch.Status:
		u.CustomerID = nil
		u.CustomerName = nil
		u.CustomerPhone = nil
		u.AttributedAt = nil
	}
	if ch.Verified != nil {
		u.Verified = *ch.Verified
		if u.Verified {
			at := ch.At
			u.VerifiedAt = &at
		} else {
			u.VerifiedAt = nil
		}
	}
	if !ch.At.IsZero() {
		u.UpdatedAt = ch.At
	}
	return u
}

// NewUnit is the input for a single manual add.
type NewUnit struct {
	Code           string
	ManufacturedOn time.Time
	ExpiresOn      *time.Time
}

// ScanInput is a batch of scanned codes sharing the same dates.
type ScanInput struct {
	Codes          []string
	ManufacturedOn time.Time
	ExpiresOn      *time.Time
}

// ScanResult reports which scanned codes were created and which were skipped.
type ScanResult struct {
	Added      []Unit   `json:"added"`
	Duplicates []string `json:"duplicates"`
}

// DatesPatch edits the lifecycle dates of one unit.
type DatesPatch struct {
	ManufacturedOn *time.Time
	ExpiresOn      *time.Time
	ClearExpiry    bool
}

// StatusCounts maps each status to its unit count.
type StatusCounts map[Status]int

// Total sums every status.
func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
