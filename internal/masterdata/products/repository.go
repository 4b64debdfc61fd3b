package products

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/unitdesk/internal/platform/db"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

const productColumns = `id, tenant_id, code, name, hsn, price::text, tax_percent::text, is_active, created_at, updated_at`

type repository struct {
	db db.DBTX
}

// NewRepository returns the PostgreSQL catalog repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Product, int, error) {
	where := ` WHERE tenant_id = $1`
	args := []any{tenantID}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR code ILIKE $` + n + `)`
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY name ASC`
	args = append(args, filter.Limit, filter.Offset)
	query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := scanProducts(rows)
	return items, total, err
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return Product{}, err
	}
	defer rows.Close()
	items, err := scanProducts(rows)
	if err != nil {
		return Product{}, err
	}
	if len(items) == 0 {
		return Product{}, shared.NotFound("products.get", "product")
	}
	return items[0], nil
}

func (r *repository) GetMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *repository) Create(ctx context.Context, p Product) error {
	_, err := r.db.Exec(ctx, `INSERT INTO products (id, tenant_id, code, name, hsn, price, tax_percent, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8,$9,$10)`,
		p.ID, p.TenantID, p.Code, p.Name, p.HSN, p.Price.String(), p.TaxPercent.String(), p.IsActive, p.CreatedAt, p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return shared.Conflict("products.create", "product code %q already exists", p.Code)
	}
	return err
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var items []Product
	for rows.Next() {
		var p Product
		var price, tax string
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Code, &p.Name, &p.HSN, &price, &tax, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		var err error
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if p.TaxPercent, err = decimal.NewFromString(tax); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
