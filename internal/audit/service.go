package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Store persists bulk records. Records are never updated or deleted.
type Store interface {
	Insert(ctx context.Context, rec BulkRecord) error
	// List returns records newest first. limit may exceed the page size by
	// one so callers can detect a further page.
	List(ctx context.Context, tenantID uuid.UUID, filters ListFilters, limit, offset int) ([]BulkRecord, error)
}

// Service mengoordinasikan pencatatan dan pengambilan audit bulk.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService membuat service audit baru.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Record appends rec, assigning its id and timestamp.
func (s *Service) Record(ctx context.Context, rec BulkRecord) (BulkRecord, error) {
	if s == nil || s.store == nil {
		return BulkRecord{}, shared.Store("audit.record", fmt.Errorf("audit: store not configured"))
	}
	if rec.TenantID == uuid.Nil {
		return BulkRecord{}, shared.Validation("audit.record", "tenant is required")
	}
	if rec.Operation != OpBulkDelete && rec.Operation != OpBulkEdit {
		return BulkRecord{}, shared.Validation("audit.record", "unknown operation %q", rec.Operation)
	}
	rec.ID = uuid.New()
	rec.CreatedAt = s.now().UTC()
	if err := s.store.Insert(ctx, rec); err != nil {
		return BulkRecord{}, shared.Store("audit.record", err)
	}
	return rec, nil
}

// List mengambil data audit dengan paging.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) (Result, error) {
	if s == nil || s.store == nil {
		return Result{}, shared.Store("audit.list", fmt.Errorf("audit: store not configured"))
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.store.List(ctx, tenantID, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, shared.Store("audit.list", err)
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []BulkRecord{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}
