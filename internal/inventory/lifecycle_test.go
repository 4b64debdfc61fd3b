package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/unitdesk/internal/sales/customers"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

func assertNoAttribution(t *testing.T, u Unit) {
	t.Helper()
	assert.Nil(t, u.CustomerID)
	assert.Nil(t, u.CustomerName)
	assert.Nil(t, u.CustomerPhone)
	assert.Nil(t, u.AttributedAt)
}

func TestTransitionToSoldAttachesCustomer(t *testing.T) {
	f := newFixture(t)
	u := f.seed(t, "A", nil)

	got, err := f.svc.Transition(context.Background(), f.principal, f.product, u.ID, TransitionInput{
		Target:   StatusSold,
		Customer: &customers.Input{Name: " Budi ", Phone: "0812"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSold, got.Status)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, "Budi", *got.CustomerName)
	assert.Equal(t, "0812", *got.CustomerPhone)
	assert.Equal(t, fixedNow, *got.AttributedAt)
	assert.Equal(t, got, f.get(t, u.ID))
}

func TestRevertToInStockClearsAttribution(t *testing.T) {
	for _, from := range []Status{StatusSold, StatusDemo} {
		t.Run(string(from), func(t *testing.T) {
			f := newFixture(t)
			u := f.seed(t, "A", func(u *Unit) {
				sold(u)
				u.Status = from
			})

			got, err := f.svc.Transition(context.Background(), f.principal, f.product, u.ID, TransitionInput{Target: StatusInStock})
			require.NoError(t, err)
			assert.Equal(t, StatusInStock, got.Status)
			assertNoAttribution(t, got)
			assertNoAttribution(t, f.get(t, u.ID))
		})
	}
}

func TestTransitionToNonAttributedStatusClearsAttribution(t *testing.T) {
	f := newFixture(t)
	u := f.seed(t, "A", sold)

	got, err := f.svc.Transition(context.Background(), f.principal, f.product, u.ID, TransitionInput{Target: StatusInvoiced})
	require.NoError(t, err)
	assertNoAttribution(t, got)
}

func TestSoldWithoutCustomerNameFails(t *testing.T) {
	f := newFixture(t)
	u := f.seed(t, "A", nil)

	for _, in := range []TransitionInput{
		{Target: StatusSold},
		{Target: StatusSold, Customer: &customers.Input{Name: "  ", Phone: "0812"}},
		{Target: StatusDemo, Customer: &customers.Input{}},
	} {
		_, err := f.svc.Transition(context.Background(), f.principal, f.product, u.ID, in)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	assert.Equal(t, u, f.get(t, u.ID))
	created, err := f.customers.Search(context.Background(), f.principal.TenantID, "", 0)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestVerifiedUnitIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seed(t, "A", func(u *Unit) {
		sold(u)
		verified(u)
	})

	for _, target := range Statuses {
		_, err := f.svc.Transition(ctx, f.principal, f.product, u.ID, TransitionInput{
			Target:   target,
			Customer: &customers.Input{Name: "Budi"},
		})
		require.ErrorIs(t, err, shared.ErrLocked, target)
	}

	_, err := f.svc.Transition(ctx, f.principal, f.product, u.ID, TransitionInput{Target: StatusInStock, Credentials: badCreds})
	require.ErrorIs(t, err, shared.ErrLocked)
	require.ErrorIs(t, err, shared.ErrAuthorization)
	assert.Equal(t, u, f.get(t, u.ID))

	got, err := f.svc.Transition(ctx, f.principal, f.product, u.ID, TransitionInput{Target: StatusInStock, Credentials: goodCreds})
	require.NoError(t, err)
	assert.Equal(t, StatusInStock, got.Status)
	assert.True(t, got.Verified)
	assertNoAttribution(t, got)
}

func TestVerifiedUnitLockWinsOverMissingCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seed(t, "A", verified)

	for _, in := range []TransitionInput{
		{Target: StatusSold},
		{Target: StatusDemo, Customer: &customers.Input{Name: " "}},
		{Target: StatusSold, Credentials: badCreds},
	} {
		_, err := f.svc.Transition(ctx, f.principal, f.product, u.ID, in)
		require.ErrorIs(t, err, shared.ErrLocked, in.Target)
	}
	assert.Equal(t, u, f.get(t, u.ID))
	assert.Zero(t, f.store.updateCalls)

	// with the lock lifted the missing name is what fails
	_, err := f.svc.Transition(ctx, f.principal, f.product, u.ID, TransitionInput{Target: StatusSold, Credentials: goodCreds})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, u, f.get(t, u.ID))
}

func TestSameStatusWithoutCustomerIsNoop(t *testing.T) {
	f := newFixture(t)
	u := f.seed(t, "A", sold)

	got, err := f.svc.Transition(context.Background(), f.principal, f.product, u.ID, TransitionInput{Target: StatusSold})
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.Zero(t, f.store.updateCalls)
}

func TestReturnedIsProtected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seed(t, "A", sold)

	_, err := f.svc.Transition(ctx, f.principal, f.product, u.ID, TransitionInput{Target: StatusReturned})
	require.ErrorIs(t, err, shared.ErrAuthorization)
	_, err = f.svc.Transition(ctx, f.principal, f.product, u.ID, TransitionInput{Target: StatusReturned, Credentials: badCreds})
	require.ErrorIs(t, err, shared.ErrAuthorization)
	assert.Equal(t, StatusSold, f.get(t, u.ID).Status)

	got, err := f.svc.Transition(ctx, f.principal, f.product, u.ID, TransitionInput{Target: StatusReturned, Credentials: goodCreds})
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, got.Status)
	assertNoAttribution(t, got)
}

func TestSameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	u := f.seed(t, "A", func(u *Unit) { u.Status = StatusReturned })

	got, err := f.svc.Transition(context.Background(), f.principal, f.product, u.ID, TransitionInput{Target: StatusReturned})
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.Zero(t, f.store.updateCalls)
}

func TestTransitionIsScopedToTenantAndProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seed(t, "A", nil)
	otherProduct := f.addProduct(t, f.principal.TenantID, "SKU-2")

	_, err := f.svc.Transition(ctx, f.principal, otherProduct, u.ID, TransitionInput{Target: StatusOutOfStock})
	require.ErrorIs(t, err, shared.ErrNotFound)

	intruder := shared.Principal{TenantID: uuid.New()}
	_, err = f.svc.Transition(ctx, intruder, f.product, u.ID, TransitionInput{Target: StatusOutOfStock})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, StatusInStock, f.get(t, u.ID).Status)
}

func TestRepeatSaleReusesCustomerByPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed(t, "A", nil)
	b := f.seed(t, "B", nil)

	first, err := f.svc.Transition(ctx, f.principal, f.product, a.ID, TransitionInput{Target: StatusSold, Customer: &customers.Input{Name: "Budi", Phone: "0812"}})
	require.NoError(t, err)
	second, err := f.svc.Transition(ctx, f.principal, f.product, b.ID, TransitionInput{Target: StatusDemo, Customer: &customers.Input{Name: "Pak Budi", Phone: "0812"}})
	require.NoError(t, err)

	assert.Equal(t, *first.CustomerID, *second.CustomerID)
	assert.Equal(t, "Budi", *second.CustomerName)
}

func TestUnknownTargetRejected(t *testing.T) {
	f := newFixture(t)
	u := f.seed(t, "A", nil)
	_, err := f.svc.Transition(context.Background(), f.principal, f.product, u.ID, TransitionInput{Target: "LOST"})
	require.ErrorIs(t, err, shared.ErrValidation)
}
