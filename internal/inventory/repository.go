package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/unitdesk/internal/platform/db"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Pool is the subset of *pgxpool.Pool the repository needs.
type Pool interface {
	db.DBTX
	db.TxStarter
}

// Repository persists units in PostgreSQL.
type Repository struct {
	pool Pool
}

// NewRepository constructs Repository.
func NewRepository(pool Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Find(ctx context.Context, sel Selection, limit, offset int) ([]Unit, error) {
	b := &sqlBuilder{}
	query := `SELECT ` + unitColumns + ` FROM units WHERE ` + b.where(sel) + ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += " LIMIT " + b.arg(limit)
	}
	if offset > 0 {
		query += " OFFSET " + b.arg(offset)
	}
	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (r *Repository) Count(ctx context.Context, sel Selection) (int, error) {
	b := &sqlBuilder{}
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM units WHERE `+b.where(sel), b.args...).Scan(&n)
	return n, err
}

func (r *Repository) CountByStatus(ctx context.Context, sel Selection) (StatusCounts, error) {
	b := &sqlBuilder{}
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM units WHERE `+b.where(sel)+` GROUP BY status`, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := StatusCounts{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

func (r *Repository) ExistingCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT code FROM units WHERE tenant_id = $1 AND code = ANY($2::text[])`, tenantID, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// Insert writes the batch in one transaction.
func (r *Repository) Insert(ctx context.Context, units []Unit) error {
	if len(units) == 0 {
		return nil
	}
	return db.InTx(ctx, r.pool, func(tx db.DBTX) error {
		for _, u := range units {
			_, err := tx.Exec(ctx, `INSERT INTO units
(id, tenant_id, product_id, code, status, manufactured_on, expires_on, verified, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6::date,$7::date,$8,$9,$10)`,
				u.ID, u.TenantID, u.ProductID, u.Code, string(u.Status), u.ManufacturedOn, u.ExpiresOn, u.Verified, u.CreatedAt, u.UpdatedAt)
			if err != nil {
				if db.IsUniqueViolation(err) {
					return shared.Conflict("inventory.insert", "unit code %q already exists", u.Code)
				}
				return fmt.Errorf("insert unit %s: %w", u.Code, err)
			}
		}
		return nil
	})
}

func (r *Repository) UpdateMany(ctx context.Context, sel Selection, ch Change) (int64, error) {
	b := &sqlBuilder{}
	set := b.set(ch)
	tag, err := r.pool.Exec(ctx, `UPDATE units SET `+set+` WHERE `+b.where(sel), b.args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) DeleteMany(ctx context.Context, sel Selection) (int64, error) {
	b := &sqlBuilder{}
	tag, err := r.pool.Exec(ctx, `DELETE FROM units WHERE `+b.where(sel), b.args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUnits(rows pgx.Rows) ([]Unit, error) {
	var items []Unit
	for rows.Next() {
		var u Unit
		var status string
		if err := rows.Scan(&u.ID, &u.TenantID, &u.ProductID, &u.Code, &status, &u.ManufacturedOn, &u.ExpiresOn,
			&u.CustomerID, &u.CustomerName, &u.CustomerPhone, &u.AttributedAt, &u.Verified, &u.VerifiedAt,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Status = Status(status)
		items = append(items, u)
	}
	return items, rows.Err()
}
