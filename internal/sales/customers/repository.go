package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/unitdesk/internal/platform/db"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Repository is the tenant-scoped customer store.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (Customer, error)
	// FindByContact returns customers matching phone OR email, newest first
	// (created_at DESC, id DESC). Blank arguments do not match.
	FindByContact(ctx context.Context, tenantID uuid.UUID, phone, email string) ([]Customer, error)
	Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]Customer, error)
	Create(ctx context.Context, customer Customer) error
}

const customerColumns = `id, tenant_id, name, phone, email, address, created_at`

type repository struct {
	db db.DBTX
}

// NewRepository returns the PostgreSQL customer repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return Customer{}, err
	}
	defer rows.Close()
	items, err := scanCustomers(rows)
	if err != nil {
		return Customer{}, err
	}
	if len(items) == 0 {
		return Customer{}, shared.NotFound("customers.get", "customer")
	}
	return items[0], nil
}

func (r *repository) FindByContact(ctx context.Context, tenantID uuid.UUID, phone, email string) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers
WHERE tenant_id = $1
  AND (($2 <> '' AND phone = $2) OR ($3 <> '' AND email = $3))
ORDER BY created_at DESC, id DESC
LIMIT 5`, tenantID, phone, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (r *repository) Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]Customer, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers
WHERE tenant_id = $1 AND (name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2)
ORDER BY created_at DESC, id DESC
LIMIT $3`, tenantID, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (r *repository) Create(ctx context.Context, c Customer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO customers (id, tenant_id, name, phone, email, address, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, c.ID, c.TenantID, c.Name, c.Phone, c.Email, c.Address, c.CreatedAt)
	return err
}

func scanCustomers(rows pgx.Rows) ([]Customer, error) {
	var items []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
