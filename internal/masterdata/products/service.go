package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Repository is the tenant-scoped catalog store.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Product, int, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (Product, error)
	GetMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	Create(ctx context.Context, product Product) error
}

// Service exposes catalog reads and creation.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns products of the tenant.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Product, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	items, total, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, shared.Store("products.list", err)
	}
	return items, total, nil
}

// Get returns one product of the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (Product, error) {
	if id == uuid.Nil {
		return Product{}, shared.Validation("products.get", "invalid product id")
	}
	p, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return Product{}, shared.Store("products.get", err)
	}
	return p, nil
}

// GetMany returns the products found for ids keyed by id; missing ids are
// simply absent from the map.
func (s *Service) GetMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	out := make(map[uuid.UUID]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := s.repo.GetMany(ctx, tenantID, ids)
	if err != nil {
		return nil, shared.Store("products.get_many", err)
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (Product, error) {
	now := s.now().UTC()
	p := Product{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		HSN:        strings.TrimSpace(req.HSN),
		Price:      req.Price,
		TaxPercent: req.TaxPercent,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Product{}, shared.Store("products.create", err)
	}
	return p, nil
}
