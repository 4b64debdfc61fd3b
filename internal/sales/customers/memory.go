package customers

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// MemoryRepository is an in-process Repository for the memory driver and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []Customer
}

// NewMemoryRepository returns an empty customer store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// newestFirst orders by created_at DESC, id DESC.
func newestFirst(items []Customer) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.String() > items[j].ID.String()
	})
}

func (m *MemoryRepository) Get(_ context.Context, tenantID, id uuid.UUID) (Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.items {
		if c.TenantID == tenantID && c.ID == id {
			return c, nil
		}
	}
	return Customer{}, shared.NotFound("customers.get", "customer")
}

func (m *MemoryRepository) FindByContact(_ context.Context, tenantID uuid.UUID, phone, email string) ([]Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Customer
	for _, c := range m.items {
		if c.TenantID != tenantID {
			continue
		}
		phoneHit := phone != "" && c.Phone != nil && *c.Phone == phone
		emailHit := email != "" && c.Email != nil && *c.Email == email
		if phoneHit || emailHit {
			out = append(out, c)
		}
	}
	newestFirst(out)
	return out, nil
}

func (m *MemoryRepository) Search(_ context.Context, tenantID uuid.UUID, query string, limit int) ([]Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fold := cases.Fold()
	needle := fold.String(query)
	contains := func(v *string) bool {
		return v != nil && strings.Contains(fold.String(*v), needle)
	}
	var out []Customer
	for _, c := range m.items {
		if c.TenantID != tenantID {
			continue
		}
		if strings.Contains(fold.String(c.Name), needle) || contains(c.Phone) || contains(c.Email) {
			out = append(out, c)
		}
	}
	newestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Create(_ context.Context, c Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, c)
	return nil
}
