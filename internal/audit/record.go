package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Operation names a bulk mutation kind.
type Operation string

const (
	OpBulkDelete Operation = "bulk_delete"
	OpBulkEdit   Operation = "bulk_edit"
)

// BulkRecord is one append-only entry describing an executed bulk operation.
type BulkRecord struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Operation       Operation       `json:"operation"`
	ScopeKind       string          `json:"scope_kind"`
	Scope           json.RawMessage `json:"scope,omitempty"`
	Patch           json.RawMessage `json:"patch,omitempty"`
	Mode            string          `json:"mode,omitempty"`
	TargetCount     int             `json:"target_count"`
	VerifiedCount   int             `json:"verified_count"`
	AffectedCount   int64           `json:"affected_count"`
	SkippedVerified int             `json:"skipped_verified"`
	AdminOverride   bool            `json:"admin_override"`
	ActorID         string          `json:"actor_id"`
	ActorName       string          `json:"actor_name"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ListFilters narrows the bulk audit listing.
type ListFilters struct {
	ProductID uuid.UUID
	Operation Operation
	Page      int
	PageSize  int
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	HasNext  bool `json:"has_next"`
	PageSize int  `json:"page_size"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result membungkus hasil listing dengan informasi paging.
type Result struct {
	Rows   []BulkRecord `json:"rows"`
	Paging PagingInfo   `json:"paging"`
}
