package products

import "github.com/shopspring/decimal"

// CreateProductRequest is the JSON body for catalog creation.
type CreateProductRequest struct {
	Code       string          `json:"code" validate:"required,max=50"`
	Name       string          `json:"name" validate:"required,max=200"`
	HSN        string          `json:"hsn" validate:"max=20"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
	IsActive   *bool           `json:"is_active,omitempty"`
}
