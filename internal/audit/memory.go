package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an append-only in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []BulkRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(_ context.Context, rec BulkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// List walks the log backwards so the newest record comes first.
func (m *MemoryStore) List(_ context.Context, tenantID uuid.UUID, filters ListFilters, limit, offset int) ([]BulkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []BulkRecord
	skipped := 0
	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if rec.TenantID != tenantID {
			continue
		}
		if filters.ProductID != uuid.Nil && rec.ProductID != filters.ProductID {
			continue
		}
		if filters.Operation != "" && rec.Operation != filters.Operation {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Records returns a copy of every stored record in insertion order.
func (m *MemoryStore) Records() []BulkRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]BulkRecord, len(m.records))
	copy(out, m.records)
	return out
}
