package inventory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/unitdesk/internal/audit"
	"github.com/odyssey-erp/unitdesk/internal/auth"
	"github.com/odyssey-erp/unitdesk/internal/masterdata/products"
	"github.com/odyssey-erp/unitdesk/internal/observability"
	"github.com/odyssey-erp/unitdesk/internal/sales/customers"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

const (
	// DefaultChunkSize bounds the ids sent in one store request.
	DefaultChunkSize = 200
	// MaxChunkSize caps the configurable chunk size.
	MaxChunkSize = 1000

	defaultPageSize = 50
	maxPageSize     = 500
	maxScanBatch    = 5000
	exportLimit     = 10000
)

// CustomerResolver finds or creates the customer of a sale or demo.
type CustomerResolver interface {
	ResolveOrCreate(ctx context.Context, tenantID uuid.UUID, in customers.Input) (customers.Customer, error)
}

// ProductLookup confirms a product exists in the tenant catalog.
type ProductLookup interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (products.Product, error)
}

// AuditPort abstracts bulk audit logging.
type AuditPort interface {
	Record(ctx context.Context, rec audit.BulkRecord) (audit.BulkRecord, error)
}

// ServiceConfig groups optional settings and collaborators.
type ServiceConfig struct {
	ChunkSize int
	Cache     *StatusCache
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Service coordinates unit lifecycle and bulk operations.
type Service struct {
	store     Store
	products  ProductLookup
	customers CustomerResolver
	gate      auth.Checker
	audit     AuditPort
	cache     *StatusCache
	metrics   *observability.Metrics
	logger    *slog.Logger
	chunkSize int
	now       func() time.Time
}

// NewService builds Service.
func NewService(store Store, catalog ProductLookup, resolver CustomerResolver, gate auth.Checker, auditor AuditPort, cfg ServiceConfig) *Service {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if chunk > MaxChunkSize {
		chunk = MaxChunkSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		products:  catalog,
		customers: resolver,
		gate:      gate,
		audit:     auditor,
		cache:     cfg.Cache,
		metrics:   cfg.Metrics,
		logger:    logger,
		chunkSize: chunk,
		now:       time.Now,
	}
}

func (s *Service) selection(p shared.Principal, productID uuid.UUID) Selection {
	return Selection{TenantID: p.TenantID, ProductID: productID, AsOf: s.now()}
}

func requireScope(op string, p shared.Principal, productID uuid.UUID) error {
	if !p.Valid() {
		return shared.Validation(op, "tenant is required")
	}
	if productID == uuid.Nil {
		return shared.Validation(op, "product is required")
	}
	return nil
}

func validateDates(op string, manufactured time.Time, expires *time.Time) error {
	if manufactured.IsZero() {
		return shared.Validation(op, "manufacture date is required")
	}
	if expires != nil && Day(*expires).Before(Day(manufactured)) {
		return shared.Validation(op, "expiry date is before manufacture date")
	}
	return nil
}

func (s *Service) newUnit(p shared.Principal, productID uuid.UUID, code string, manufactured time.Time, expires *time.Time, now time.Time) Unit {
	u := Unit{
		ID:             uuid.New(),
		TenantID:       p.TenantID,
		ProductID:      productID,
		Code:           code,
		Status:         StatusInStock,
		ManufacturedOn: Day(manufactured),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if expires != nil {
		d := Day(*expires)
		u.ExpiresOn = &d
	}
	return u
}

// AddUnit creates one IN_STOCK unit.
func (s *Service) AddUnit(ctx context.Context, p shared.Principal, productID uuid.UUID, in NewUnit) (Unit, error) {
	const op = "inventory.add"
	if err := requireScope(op, p, productID); err != nil {
		return Unit{}, err
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return Unit{}, shared.Validation(op, "unit code is required")
	}
	if err := validateDates(op, in.ManufacturedOn, in.ExpiresOn); err != nil {
		return Unit{}, err
	}
	if _, err := s.products.Get(ctx, p.TenantID, productID); err != nil {
		return Unit{}, shared.Store(op, err)
	}
	u := s.newUnit(p, productID, code, in.ManufacturedOn, in.ExpiresOn, s.now().UTC())
	if err := s.store.Insert(ctx, []Unit{u}); err != nil {
		return Unit{}, shared.Store(op, err)
	}
	s.invalidate(ctx, p.TenantID, productID)
	return u, nil
}

// ScanUnits creates one unit per scanned code. Codes already used in the
// tenant, or repeated within the batch, are reported as duplicates and skipped.
func (s *Service) ScanUnits(ctx context.Context, p shared.Principal, productID uuid.UUID, in ScanInput) (ScanResult, error) {
	const op = "inventory.scan"
	if err := requireScope(op, p, productID); err != nil {
		return ScanResult{}, err
	}
	if err := validateDates(op, in.ManufacturedOn, in.ExpiresOn); err != nil {
		return ScanResult{}, err
	}
	if len(in.Codes) > maxScanBatch {
		return ScanResult{}, shared.Validation(op, "at most %d codes per scan", maxScanBatch)
	}
	result := ScanResult{Added: []Unit{}, Duplicates: []string{}}
	seen := make(map[string]struct{}, len(in.Codes))
	var codes []string
	for _, raw := range in.Codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			result.Duplicates = append(result.Duplicates, code)
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		if len(result.Duplicates) == 0 {
			return ScanResult{}, shared.Validation(op, "no unit codes supplied")
		}
		return result, nil
	}
	if _, err := s.products.Get(ctx, p.TenantID, productID); err != nil {
		return ScanResult{}, shared.Store(op, err)
	}

	taken := make(map[string]struct{})
	for _, chunk := range chunkStrings(codes, s.chunkSize) {
		existing, err := s.store.ExistingCodes(ctx, p.TenantID, chunk)
		if err != nil {
			return ScanResult{}, shared.Store(op, err)
		}
		for _, c := range existing {
			taken[c] = struct{}{}
		}
	}

	now := s.now().UTC()
	units := make([]Unit, 0, len(codes))
	for _, code := range codes {
		if _, ok := taken[code]; ok {
			result.Duplicates = append(result.Duplicates, code)
			continue
		}
		units = append(units, s.newUnit(p, productID, code, in.ManufacturedOn, in.ExpiresOn, now))
	}
	if len(units) > 0 {
		if err := s.store.Insert(ctx, units); err != nil {
			return ScanResult{}, shared.Store(op, err)
		}
		s.invalidate(ctx, p.TenantID, productID)
	}
	result.Added = units
	return result, nil
}

// GetUnit loads one unit of the product.
func (s *Service) GetUnit(ctx context.Context, p shared.Principal, productID, unitID uuid.UUID) (Unit, error) {
	const op = "inventory.get"
	if err := requireScope(op, p, productID); err != nil {
		return Unit{}, err
	}
	sel := s.selection(p, productID)
	sel.IDs = []uuid.UUID{unitID}
	items, err := s.store.Find(ctx, sel, 1, 0)
	if err != nil {
		return Unit{}, shared.Store(op, err)
	}
	if len(items) == 0 {
		return Unit{}, shared.NotFound(op, "unit")
	}
	return items[0], nil
}

// GetByIDs loads the units with the given ids in chunks. A nil productID
// searches every product of the tenant. Missing ids are silently absent.
func (s *Service) GetByIDs(ctx context.Context, tenantID, productID uuid.UUID, ids []uuid.UUID) ([]Unit, error) {
	const op = "inventory.get_by_ids"
	chunks := chunkIDs(dedupeIDs(ids), s.chunkSize)
	results := make([][]Unit, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, chunk := range chunks {
		g.Go(func() error {
			items, err := s.store.Find(gctx, Selection{TenantID: tenantID, ProductID: productID, IDs: chunk}, 0, 0)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, shared.Store(op, err)
	}
	var out []Unit
	for _, items := range results {
		out = append(out, items...)
	}
	return out, nil
}

// ListUnits returns one page of units matching filter and the total count.
func (s *Service) ListUnits(ctx context.Context, p shared.Principal, productID uuid.UUID, filter Filter, page shared.Page) ([]Unit, int, error) {
	const op = "inventory.list"
	if err := requireScope(op, p, productID); err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	page = page.Normalize(defaultPageSize, maxPageSize)
	sel := s.selection(p, productID)
	sel.Filter = filter
	total, err := s.store.Count(ctx, sel)
	if err != nil {
		return nil, 0, shared.Store(op, err)
	}
	items, err := s.store.Find(ctx, sel, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, shared.Store(op, err)
	}
	if items == nil {
		items = []Unit{}
	}
	return items, total, nil
}

// ExportUnits returns every unit matching filter, up to the export limit.
func (s *Service) ExportUnits(ctx context.Context, p shared.Principal, productID uuid.UUID, filter Filter) ([]Unit, error) {
	const op = "inventory.export"
	if err := requireScope(op, p, productID); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	sel := s.selection(p, productID)
	sel.Filter = filter
	items, err := s.store.Find(ctx, sel, exportLimit, 0)
	if err != nil {
		return nil, shared.Store(op, err)
	}
	return items, nil
}

// StatusCounts returns per-status counts through the projection cache. The
// result may lag recent mutations; cache failures fall back to the store.
func (s *Service) StatusCounts(ctx context.Context, p shared.Principal, productID uuid.UUID) (StatusCounts, error) {
	const op = "inventory.status_counts"
	if err := requireScope(op, p, productID); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) (StatusCounts, error) {
		return s.store.CountByStatus(ctx, s.selection(p, productID))
	}
	counts, err := s.cache.Fetch(ctx, p.TenantID, productID, load)
	if err != nil && s.cache != nil {
		s.logger.Warn("status cache unavailable", slog.Any("error", err), slog.String("product_id", productID.String()))
		counts, err = load(ctx)
	}
	if err != nil {
		return nil, shared.Store(op, err)
	}
	for _, st := range Statuses {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

// UpdateDates edits the lifecycle dates of one unit. Verified units require
// valid override credentials.
func (s *Service) UpdateDates(ctx context.Context, p shared.Principal, productID, unitID uuid.UUID, patch DatesPatch, creds *auth.Credentials) (Unit, error) {
	const op = "inventory.update_dates"
	if err := requireScope(op, p, productID); err != nil {
		return Unit{}, err
	}
	if patch.ManufacturedOn == nil && patch.ExpiresOn == nil && !patch.ClearExpiry {
		return Unit{}, shared.Validation(op, "nothing to update")
	}
	if patch.ClearExpiry && patch.ExpiresOn != nil {
		return Unit{}, shared.Validation(op, "expiry date cannot be set and cleared together")
	}
	unit, err := s.GetUnit(ctx, p, productID, unitID)
	if err != nil {
		return Unit{}, err
	}
	if err := s.checkLock(op, unit, creds); err != nil {
		return Unit{}, err
	}
	ch := Change{Patch: Patch{ManufacturedOn: patch.ManufacturedOn, ExpiresOn: patch.ExpiresOn, ClearExpiry: patch.ClearExpiry}, At: s.now().UTC()}
	updated := ch.Apply(unit)
	if err := validateDates(op, updated.ManufacturedOn, updated.ExpiresOn); err != nil {
		return Unit{}, err
	}
	if err := s.updateOne(ctx, op, unit, ch); err != nil {
		return Unit{}, err
	}
	return updated, nil
}

// DeleteUnit removes one unit. Verified units require valid override credentials.
func (s *Service) DeleteUnit(ctx context.Context, p shared.Principal, productID, unitID uuid.UUID, creds *auth.Credentials) error {
	const op = "inventory.delete"
	unit, err := s.GetUnit(ctx, p, productID, unitID)
	if err != nil {
		return err
	}
	if err := s.checkLock(op, unit, creds); err != nil {
		return err
	}
	sel := s.selection(p, productID)
	sel.IDs = []uuid.UUID{unit.ID}
	n, err := s.store.DeleteMany(ctx, sel)
	if err != nil {
		return shared.Store(op, err)
	}
	if n == 0 {
		return shared.NotFound(op, "unit")
	}
	s.invalidate(ctx, p.TenantID, productID)
	return nil
}

// SetVerified sets or clears the verification lock on the given units.
// Clearing the lock on any currently verified unit requires valid override
// credentials; setting it does not.
func (s *Service) SetVerified(ctx context.Context, p shared.Principal, productID uuid.UUID, ids []uuid.UUID, verified bool, creds *auth.Credentials) (int64, error) {
	const op = "inventory.set_verified"
	if err := requireScope(op, p, productID); err != nil {
		return 0, err
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return 0, shared.Validation(op, "no units selected")
	}
	if !verified {
		locked, err := s.countChunked(ctx, s.selection(p, productID), Filter{}.WithVerified(true), ids)
		if err != nil {
			return 0, shared.Store(op, err)
		}
		if locked > 0 {
			if err := s.gate.Check(creds); err != nil {
				return 0, shared.Locked(op, "selection contains verified units", err)
			}
		}
	}
	ch := Change{Verified: &verified, At: s.now().UTC()}
	sel := s.selection(p, productID)
	sel.Filter = Filter{}.WithVerified(!verified)
	affected, applied, total, err := s.runChunks(ctx, sel, ids, func(ctx context.Context, sel Selection) (int64, error) {
		return s.store.UpdateMany(ctx, sel, ch)
	})
	if affected > 0 {
		s.invalidate(ctx, p.TenantID, productID)
	}
	if err != nil {
		return affected, bulkError(op, err, applied, total, affected)
	}
	return affected, nil
}

// checkLock enforces the verification lock on one unit.
func (s *Service) checkLock(op string, u Unit, creds *auth.Credentials) error {
	if !u.Verified {
		return nil
	}
	if creds == nil {
		return shared.Locked(op, "unit is verified", nil)
	}
	if err := s.gate.Check(creds); err != nil {
		return shared.Locked(op, "unit is verified", err)
	}
	return nil
}

func (s *Service) updateOne(ctx context.Context, op string, u Unit, ch Change) error {
	sel := Selection{TenantID: u.TenantID, ProductID: u.ProductID, IDs: []uuid.UUID{u.ID}}
	n, err := s.store.UpdateMany(ctx, sel, ch)
	if err != nil {
		return shared.Store(op, err)
	}
	if n == 0 {
		return shared.NotFound(op, "unit")
	}
	s.invalidate(ctx, u.TenantID, u.ProductID)
	return nil
}

// invalidate bumps the projection cache; failures only delay freshness.
func (s *Service) invalidate(ctx context.Context, tenantID, productID uuid.UUID) {
	if err := s.cache.Bump(ctx, tenantID, productID); err != nil {
		s.logger.Warn("status cache bump failed", slog.Any("error", err), slog.String("product_id", productID.String()))
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func chunkStrings(values []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
