package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/platform/db"
)

type repository struct {
	db db.DBTX
}

// NewRepository returns the PostgreSQL bulk audit store.
func NewRepository(conn db.DBTX) Store {
	return &repository{db: conn}
}

func (r *repository) Insert(ctx context.Context, rec BulkRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO bulk_audit
(id, tenant_id, product_id, operation, scope_kind, scope, patch, mode, target_count, verified_count,
 affected_count, skipped_verified, admin_override, actor_id, actor_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rec.ID, rec.TenantID, rec.ProductID, string(rec.Operation), rec.ScopeKind, nullJSON(rec.Scope), nullJSON(rec.Patch),
		rec.Mode, rec.TargetCount, rec.VerifiedCount, rec.AffectedCount, rec.SkippedVerified, rec.AdminOverride,
		rec.ActorID, rec.ActorName, rec.CreatedAt)
	return err
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters, limit, offset int) ([]BulkRecord, error) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if filters.ProductID != uuid.Nil {
		args = append(args, filters.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filters.Operation != "" {
		args = append(args, string(filters.Operation))
		conds = append(conds, fmt.Sprintf("operation = $%d", len(args)))
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT id, tenant_id, product_id, operation, scope_kind, scope, patch, mode, target_count,
 verified_count, affected_count, skipped_verified, admin_override, actor_id, actor_name, created_at
FROM bulk_audit WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BulkRecord
	for rows.Next() {
		var rec BulkRecord
		var op string
		var scope, patch []byte
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.ProductID, &op, &rec.ScopeKind, &scope, &patch, &rec.Mode,
			&rec.TargetCount, &rec.VerifiedCount, &rec.AffectedCount, &rec.SkippedVerified, &rec.AdminOverride,
			&rec.ActorID, &rec.ActorName, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Operation = Operation(op)
		rec.Scope = scope
		rec.Patch = patch
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
