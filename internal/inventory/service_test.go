package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/unitdesk/internal/audit"
	"github.com/odyssey-erp/unitdesk/internal/auth"
	"github.com/odyssey-erp/unitdesk/internal/masterdata/products"
	"github.com/odyssey-erp/unitdesk/internal/sales/customers"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

var (
	fixedNow  = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	goodCreds = &auth.Credentials{Username: "admin", Password: "s3cret"}
	badCreds  = &auth.Credentials{Username: "admin", Password: "guess"}
)

// hookStore wraps MemoryStore with failure injection.
type hookStore struct {
	*MemoryStore
	updateCalls  int
	failUpdateAt int
	deleteCalls  int
	failDeleteAt int
	beforeDelete func()
	countErr     error
}

func (h *hookStore) Count(ctx context.Context, sel Selection) (int, error) {
	if h.countErr != nil {
		return 0, h.countErr
	}
	return h.MemoryStore.Count(ctx, sel)
}

func (h *hookStore) UpdateMany(ctx context.Context, sel Selection, ch Change) (int64, error) {
	h.updateCalls++
	if h.failUpdateAt > 0 && h.updateCalls == h.failUpdateAt {
		return 0, errors.New("store unavailable")
	}
	return h.MemoryStore.UpdateMany(ctx, sel, ch)
}

func (h *hookStore) DeleteMany(ctx context.Context, sel Selection) (int64, error) {
	h.deleteCalls++
	if h.beforeDelete != nil {
		h.beforeDelete()
	}
	if h.failDeleteAt > 0 && h.deleteCalls == h.failDeleteAt {
		return 0, errors.New("store unavailable")
	}
	return h.MemoryStore.DeleteMany(ctx, sel)
}

type fixture struct {
	svc       *Service
	store     *hookStore
	audit     *audit.MemoryStore
	customers *customers.MemoryRepository
	catalog   *products.MemoryRepository
	principal shared.Principal
	product   uuid.UUID
}

func newFixture(t *testing.T, opts ...func(*ServiceConfig)) *fixture {
	t.Helper()
	f := &fixture{
		store:     &hookStore{MemoryStore: NewMemoryStore()},
		audit:     audit.NewMemoryStore(),
		customers: customers.NewMemoryRepository(),
		catalog:   products.NewMemoryRepository(),
		principal: shared.Principal{TenantID: uuid.New(), ActorID: "u-1", ActorName: "Operator"},
	}
	f.product = f.addProduct(t, f.principal.TenantID, "SKU-1")
	cfg := ServiceConfig{ChunkSize: 200}
	for _, opt := range opts {
		opt(&cfg)
	}
	gate := auth.NewGate(nil, auth.Pair{Username: "admin", Password: "s3cret"})
	resolver := customers.NewService(f.customers, nil, 0)
	f.svc = NewService(f.store, products.NewService(f.catalog), resolver, gate, audit.NewService(f.audit), cfg)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) addProduct(t *testing.T, tenant uuid.UUID, code string) uuid.UUID {
	t.Helper()
	p := products.Product{ID: uuid.New(), TenantID: tenant, Code: code, Name: code, Price: decimal.NewFromInt(100), TaxPercent: decimal.NewFromInt(18), IsActive: true}
	require.NoError(t, f.catalog.Create(context.Background(), p))
	return p.ID
}

// seed inserts a unit directly into the store.
func (f *fixture) seed(t *testing.T, code string, mutate func(*Unit)) Unit {
	t.Helper()
	u := Unit{
		ID:             uuid.New(),
		TenantID:       f.principal.TenantID,
		ProductID:      f.product,
		Code:           code,
		Status:         StatusInStock,
		ManufacturedOn: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:      fixedNow.Add(-time.Hour),
		UpdatedAt:      fixedNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&u)
	}
	require.NoError(t, f.store.MemoryStore.Insert(context.Background(), []Unit{u}))
	return u
}

func (f *fixture) seedMany(t *testing.T, n int, mutate func(int, *Unit)) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		u := f.seed(t, fmt.Sprintf("U-%04d", i), func(u *Unit) {
			if mutate != nil {
				mutate(i, u)
			}
		})
		ids = append(ids, u.ID)
	}
	return ids
}

func (f *fixture) get(t *testing.T, id uuid.UUID) Unit {
	t.Helper()
	u, err := f.svc.GetUnit(context.Background(), f.principal, f.product, id)
	require.NoError(t, err)
	return u
}

func verified(u *Unit) {
	at := fixedNow.Add(-24 * time.Hour)
	u.Verified = true
	u.VerifiedAt = &at
}

func sold(u *Unit) {
	id := uuid.New()
	name, phone := "Budi", "0812"
	at := fixedNow.Add(-2 * time.Hour)
	u.Status = StatusSold
	u.CustomerID = &id
	u.CustomerName = &name
	u.CustomerPhone = &phone
	u.AttributedAt = &at
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestAddUnitRejectsDuplicateCodeWithinTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.AddUnit(ctx, f.principal, f.product, NewUnit{Code: " SN-1 ", ManufacturedOn: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, "SN-1", u.Code)
	assert.Equal(t, StatusInStock, u.Status)
	assert.Equal(t, Day(fixedNow), u.ManufacturedOn)

	_, err = f.svc.AddUnit(ctx, f.principal, f.product, NewUnit{Code: "SN-1", ManufacturedOn: fixedNow})
	require.ErrorIs(t, err, shared.ErrConflict)

	other := shared.Principal{TenantID: uuid.New()}
	otherProduct := f.addProduct(t, other.TenantID, "SKU-X")
	_, err = f.svc.AddUnit(ctx, other, otherProduct, NewUnit{Code: "SN-1", ManufacturedOn: fixedNow})
	require.NoError(t, err)
}

func TestAddUnitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddUnit(ctx, f.principal, f.product, NewUnit{Code: "  ", ManufacturedOn: fixedNow})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.AddUnit(ctx, f.principal, f.product, NewUnit{Code: "A", ManufacturedOn: fixedNow, ExpiresOn: datePtr(2024, 1, 1)})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.AddUnit(ctx, f.principal, uuid.New(), NewUnit{Code: "A", ManufacturedOn: fixedNow})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestScanUnitsSkipsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "SN-EXIST", nil)

	result, err := f.svc.ScanUnits(context.Background(), f.principal, f.product, ScanInput{
		Codes:          []string{"SN-1", " SN-2", "SN-1", "", "SN-EXIST"},
		ManufacturedOn: fixedNow,
		ExpiresOn:      datePtr(2026, 1, 1),
	})
	require.NoError(t, err)
	require.Len(t, result.Added, 2)
	assert.ElementsMatch(t, []string{"SN-1", "SN-EXIST"}, result.Duplicates)
	for _, u := range result.Added {
		require.NotNil(t, u.ExpiresOn)
		assert.Equal(t, *datePtr(2026, 1, 1), *u.ExpiresOn)
	}

	_, err = f.svc.ScanUnits(context.Background(), f.principal, f.product, ScanInput{Codes: []string{" "}, ManufacturedOn: fixedNow})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateDatesHonoursLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plain := f.seed(t, "A", nil)
	locked := f.seed(t, "B", verified)

	got, err := f.svc.UpdateDates(ctx, f.principal, f.product, plain.ID, DatesPatch{ExpiresOn: datePtr(2025, 12, 31)}, nil)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiresOn)
	assert.Equal(t, *datePtr(2025, 12, 31), *f.get(t, plain.ID).ExpiresOn)

	_, err = f.svc.UpdateDates(ctx, f.principal, f.product, plain.ID, DatesPatch{ExpiresOn: datePtr(2023, 1, 1)}, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.UpdateDates(ctx, f.principal, f.product, locked.ID, DatesPatch{ClearExpiry: true}, nil)
	require.ErrorIs(t, err, shared.ErrLocked)

	_, err = f.svc.UpdateDates(ctx, f.principal, f.product, locked.ID, DatesPatch{ManufacturedOn: datePtr(2024, 2, 1)}, goodCreds)
	require.NoError(t, err)
	assert.Equal(t, *datePtr(2024, 2, 1), f.get(t, locked.ID).ManufacturedOn)
}

func TestDeleteUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plain := f.seed(t, "A", nil)
	locked := f.seed(t, "B", verified)

	require.NoError(t, f.svc.DeleteUnit(ctx, f.principal, f.product, plain.ID, nil))
	require.ErrorIs(t, f.svc.DeleteUnit(ctx, f.principal, f.product, plain.ID, nil), shared.ErrNotFound)

	err := f.svc.DeleteUnit(ctx, f.principal, f.product, locked.ID, badCreds)
	require.ErrorIs(t, err, shared.ErrLocked)
	require.ErrorIs(t, err, shared.ErrAuthorization)
	assert.True(t, f.get(t, locked.ID).Verified)

	require.NoError(t, f.svc.DeleteUnit(ctx, f.principal, f.product, locked.ID, goodCreds))
}

func TestSetVerifiedClearingRequiresCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.seedMany(t, 3, nil)

	n, err := f.svc.SetVerified(ctx, f.principal, f.product, ids, true, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	u := f.get(t, ids[0])
	assert.True(t, u.Verified)
	require.NotNil(t, u.VerifiedAt)

	n, err = f.svc.SetVerified(ctx, f.principal, f.product, ids, true, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.SetVerified(ctx, f.principal, f.product, ids[:1], false, nil)
	require.ErrorIs(t, err, shared.ErrLocked)
	assert.True(t, f.get(t, ids[0]).Verified)

	n, err = f.svc.SetVerified(ctx, f.principal, f.product, ids[:1], false, goodCreds)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	u = f.get(t, ids[0])
	assert.False(t, u.Verified)
	assert.Nil(t, u.VerifiedAt)
}

func TestListUnitsPagesAndCounts(t *testing.T) {
	f := newFixture(t)
	f.seedMany(t, 7, func(i int, u *Unit) {
		u.CreatedAt = fixedNow.Add(-time.Duration(i) * time.Minute)
		if i%2 == 0 {
			u.Status = StatusDemo
		}
	})

	items, total, err := f.svc.ListUnits(context.Background(), f.principal, f.product, Filter{Statuses: []Status{StatusDemo}}, shared.Page{Number: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, items, 1)
	assert.Equal(t, "U-0006", items[0].Code)

	_, _, err = f.svc.ListUnits(context.Background(), f.principal, f.product, Filter{Statuses: []Status{"LOST"}}, shared.Page{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetByIDsChunksAcrossProducts(t *testing.T) {
	f := newFixture(t)
	second := f.addProduct(t, f.principal.TenantID, "SKU-2")
	ids := f.seedMany(t, 450, func(i int, u *Unit) {
		if i%3 == 0 {
			u.ProductID = second
		}
	})
	ids = append(ids, uuid.New(), ids[0])

	got, err := f.svc.GetByIDs(context.Background(), f.principal.TenantID, uuid.Nil, ids)
	require.NoError(t, err)
	assert.Len(t, got, 450)

	got, err = f.svc.GetByIDs(context.Background(), f.principal.TenantID, second, ids)
	require.NoError(t, err)
	assert.Len(t, got, 150)

	got, err = f.svc.GetByIDs(context.Background(), uuid.New(), uuid.Nil, ids)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStatusCountsUsesVersionedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, func(cfg *ServiceConfig) { cfg.Cache = NewStatusCache(client, time.Minute) })
	ctx := context.Background()
	ids := f.seedMany(t, 3, nil)

	counts, err := f.svc.StatusCounts(ctx, f.principal, f.product)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[StatusInStock])
	assert.Equal(t, 0, counts[StatusSold])
	assert.Len(t, counts, len(Statuses))

	// a write behind the service's back is not seen until the version moves
	f.seed(t, "LATE", nil)
	counts, err = f.svc.StatusCounts(ctx, f.principal, f.product)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[StatusInStock])

	_, err = f.svc.Transition(ctx, f.principal, f.product, ids[0], TransitionInput{Target: StatusOutOfStock})
	require.NoError(t, err)
	counts, err = f.svc.StatusCounts(ctx, f.principal, f.product)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[StatusInStock])
	assert.Equal(t, 1, counts[StatusOutOfStock])

	ver, err := client.Get(ctx, versionKey(f.principal.TenantID, f.product)).Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 2, ver)
}

func TestStatusCountsFallsBackWhenCacheDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	f := newFixture(t, func(cfg *ServiceConfig) { cfg.Cache = NewStatusCache(client, time.Minute) })
	f.seedMany(t, 2, nil)

	counts, err := f.svc.StatusCounts(context.Background(), f.principal, f.product)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total())
}

func TestChunkIDs(t *testing.T) {
	ids := make([]uuid.UUID, 450)
	chunks := chunkIDs(ids, 200)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 50)
	assert.Empty(t, chunkIDs(nil, 200))
}
