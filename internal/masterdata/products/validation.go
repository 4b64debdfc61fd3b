package products

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

var hundred = decimal.NewFromInt(100)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return shared.Validation("products.validate", "product code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return shared.Validation("products.validate", "product name is required")
	}
	if p.Price.IsNegative() {
		return shared.Validation("products.validate", "price must be >= 0")
	}
	if p.TaxPercent.IsNegative() || p.TaxPercent.GreaterThan(hundred) {
		return shared.Validation("products.validate", "tax percent must be between 0 and 100")
	}
	return nil
}
