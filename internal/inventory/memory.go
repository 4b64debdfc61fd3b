package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

type memoryKey struct {
	tenant uuid.UUID
	id     uuid.UUID
}

// MemoryStore is an in-process Store used by the memory driver and tests.
type MemoryStore struct {
	mu    sync.Mutex
	units map[memoryKey]Unit
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{units: make(map[memoryKey]Unit)}
}

func (m *MemoryStore) selected(sel Selection) []Unit {
	var ids map[uuid.UUID]struct{}
	if sel.IDs != nil {
		ids = make(map[uuid.UUID]struct{}, len(sel.IDs))
		for _, id := range sel.IDs {
			ids[id] = struct{}{}
		}
	}
	var out []Unit
	for key, u := range m.units {
		if key.tenant != sel.TenantID {
			continue
		}
		if sel.ProductID != uuid.Nil && u.ProductID != sel.ProductID {
			continue
		}
		if ids != nil {
			if _, ok := ids[u.ID]; !ok {
				continue
			}
		}
		if !sel.Filter.Matches(u, sel.AsOf) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (m *MemoryStore) Find(_ context.Context, sel Selection, limit, offset int) ([]Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.selected(sel)
	if offset > 0 {
		if offset >= len(items) {
			return []Unit{}, nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) Count(_ context.Context, sel Selection) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.selected(sel)), nil
}

func (m *MemoryStore) CountByStatus(_ context.Context, sel Selection) (StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := StatusCounts{}
	for _, u := range m.selected(sel) {
		counts[u.Status]++
	}
	return counts, nil
}

func (m *MemoryStore) ExistingCodes(_ context.Context, tenantID uuid.UUID, codes []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := m.codes(tenantID)
	var out []string
	for _, c := range codes {
		if _, ok := taken[c]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) codes(tenantID uuid.UUID) map[string]struct{} {
	taken := make(map[string]struct{})
	for key, u := range m.units {
		if key.tenant == tenantID {
			taken[u.Code] = struct{}{}
		}
	}
	return taken
}

func (m *MemoryStore) Insert(_ context.Context, units []Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]map[string]struct{})
	for _, u := range units {
		taken, ok := seen[u.TenantID]
		if !ok {
			taken = m.codes(u.TenantID)
			seen[u.TenantID] = taken
		}
		if _, dup := taken[u.Code]; dup {
			return shared.Conflict("inventory.insert", "unit code %q already exists", u.Code)
		}
		taken[u.Code] = struct{}{}
	}
	for _, u := range units {
		m.units[memoryKey{tenant: u.TenantID, id: u.ID}] = u
	}
	return nil
}

func (m *MemoryStore) UpdateMany(_ context.Context, sel Selection, ch Change) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.selected(sel) {
		m.units[memoryKey{tenant: u.TenantID, id: u.ID}] = ch.Apply(u)
		n++
	}
	return n, nil
}

func (m *MemoryStore) DeleteMany(_ context.Context, sel Selection) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.selected(sel) {
		delete(m.units, memoryKey{tenant: u.TenantID, id: u.ID})
		n++
	}
	return n, nil
}
