package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a tenant catalog entry. Units reference it and invoices read
// their description, HSN code, default rate and tax percentage from it.
type Product struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	HSN        string          `json:"hsn"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}
