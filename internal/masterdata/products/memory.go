package products

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
	items map[uuid.UUID]Product
}

// NewMemoryRepository returns an empty catalog.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]Product)}
}

func (m *MemoryRepository) List(_ context.Context, tenantID uuid.UUID, filter ListFilter) ([]Product, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(filter.Search))
	var matched []Product
	for _, p := range m.items {
		if p.TenantID != tenantID {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if search != "" && !strings.Contains(fold.String(p.Name), search) && !strings.Contains(fold.String(p.Code), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	if filter.Offset >= total {
		return []Product{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *MemoryRepository) Get(_ context.Context, tenantID, id uuid.UUID) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[id]
	if !ok || p.TenantID != tenantID {
		return Product{}, shared.NotFound("products.get", "product")
	}
	return p, nil
}

func (m *MemoryRepository) GetMany(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Product
	for _, id := range ids {
		if p, ok := m.items[id]; ok && p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryRepository) Create(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.TenantID == p.TenantID && existing.Code == p.Code {
			return shared.Conflict("products.create", "product code %q already exists", p.Code)
		}
	}
	m.items[p.ID] = p
	return nil
}
