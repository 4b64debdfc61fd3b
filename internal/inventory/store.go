package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Store is the tenant-partitioned unit store. Every read and write is
// conditioned on sel.TenantID and, when set, sel.ProductID.
type Store interface {
	// Find returns matching units newest first. A non-positive limit returns all.
	Find(ctx context.Context, sel Selection, limit, offset int) ([]Unit, error)
	Count(ctx context.Context, sel Selection) (int, error)
	CountByStatus(ctx context.Context, sel Selection) (StatusCounts, error)
	// ExistingCodes returns those of codes already used within the tenant.
	ExistingCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]string, error)
	// Insert writes all units or none. A taken code yields a conflict error.
	Insert(ctx context.Context, units []Unit) error
	UpdateMany(ctx context.Context, sel Selection, ch Change) (int64, error)
	DeleteMany(ctx context.Context, sel Selection) (int64, error)
}
