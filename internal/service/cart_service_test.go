package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCartService_CreateUsesCatalogPrice(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	clientPrice := decimal.RequireFromString("1.00")

	c, err := svc.Create(context.Background(), []CartProductInput{{ProductID: f.product.ID, Quantity: 2, Price: &clientPrice}})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	it := c.Items[0]
	assert.Nil(t, c.UserID)
	assert.Equal(t, "39.95", it.PurchasePrice.StringFixed(2))
	assert.Equal(t, "79.90", it.TotalPrice.StringFixed(2))
	require.NotNil(t, it.VariantName)
	assert.Equal(t, "Small", *it.VariantName)
}

func TestCartService_CreateValidation(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = svc.Create(ctx, []CartProductInput{{ProductID: f.product.ID, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Create(ctx, []CartProductInput{{ProductID: uuid.New(), Quantity: 1}})
	assert.ErrorIs(t, err, ErrProductsUnavailable)

	_, err = svc.Create(ctx, []CartProductInput{{Quantity: 1}})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCartService_AddItemMergesAndRemove(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	ctx := context.Background()

	c, err := svc.Create(ctx, []CartProductInput{{ProductID: f.product.ID, Quantity: 1}})
	require.NoError(t, err)

	c, err = svc.AddItem(ctx, c.ID, CartProductInput{ProductID: f.product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int32(3), c.Items[0].Quantity)
	assert.Equal(t, "119.85", c.Items[0].TotalPrice.StringFixed(2))

	c, err = svc.RemoveProduct(ctx, c.ID, f.product.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = svc.RemoveProduct(ctx, c.ID, f.product.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = svc.AddItem(ctx, uuid.New(), CartProductInput{ProductID: f.product.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_UserCartAccess(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	owner := uuid.New()

	c, err := svc.Create(customerCtx(owner), []CartProductInput{{ProductID: f.product.ID, Quantity: 1}})
	require.NoError(t, err)
	require.NotNil(t, c.UserID)
	assert.Equal(t, owner, *c.UserID)

	_, err = svc.Get(customerCtx(owner), c.ID)
	assert.NoError(t, err)
	_, err = svc.Get(adminCtx(), c.ID)
	assert.NoError(t, err)
	_, err = svc.Get(customerCtx(uuid.New()), c.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Get(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCartService_Resolve(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	owner := uuid.New()
	ctx := customerCtx(owner)
	missing := uuid.New()

	_, err := svc.Resolve(ctx, ResolveCartInput{CartID: &missing})
	assert.ErrorIs(t, err, ErrCartNotFound)

	created, err := svc.Resolve(ctx, ResolveCartInput{
		CartID:   &missing,
		Products: []CartProductInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	latest, err := svc.Resolve(ctx, ResolveCartInput{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, latest.ID)

	byID, err := svc.Resolve(ctx, ResolveCartInput{CartID: &created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	_, err = svc.Resolve(customerCtx(uuid.New()), ResolveCartInput{CartID: &created.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCartService_DeleteOrderedCart(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	ctx := context.Background()

	res := f.createIntent(t, 1, false)
	assert.ErrorIs(t, svc.Delete(ctx, res.CartID), ErrCartAlreadyOrdered)

	c, err := svc.Create(ctx, []CartProductInput{{ProductID: f.product.ID, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_PaidCartIsNotEditable(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	owner := uuid.New()
	ord := f.paidOrderFor(t, customerCtx(owner), 1)

	_, err := svc.AddItem(customerCtx(owner), ord.CartID, CartProductInput{ProductID: f.product.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrCartAlreadyOrdered)
	_, err = svc.RemoveProduct(customerCtx(owner), ord.CartID, f.product.ID)
	assert.ErrorIs(t, err, ErrCartAlreadyOrdered)
}

func TestCartService_CartLockedOnceIntentIssued(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewCartService(f.repo, zap.NewNop())
	ctx := context.Background()
	res := f.createIntent(t, 1, false)

	_, err := svc.AddItem(ctx, res.CartID, CartProductInput{ProductID: f.product.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrCartAlreadyOrdered)
	_, err = svc.RemoveProduct(ctx, res.CartID, f.product.ID)
	assert.ErrorIs(t, err, ErrCartAlreadyOrdered)

	c, err := svc.Get(ctx, res.CartID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int32(1), c.Items[0].Quantity)
}
