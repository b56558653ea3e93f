package service

import (
	"context"
	"testing"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func customerCtx(id uuid.UUID) context.Context {
	return WithRole(WithUserID(context.Background(), id), RoleCustomer)
}

// paidOrderFor создаёт оплаченный заказ покупателя на qty штук.
func (f *paymentFixture) paidOrderFor(t *testing.T, ctx context.Context, qty int32) *models.Order {
	t.Helper()
	res, err := f.svc.CreatePaymentIntent(ctx, CreateIntentInput{
		Products: []CartProductInput{{ProductID: f.product.ID, Quantity: qty}},
		Billing:  &models.BillingDetails{Name: "Jane Doe", Email: "jane@example.com"},
	})
	require.NoError(t, err)
	f.succeed(res.PaymentIntentID)
	out, err := f.svc.ConfirmPayment(ctx, ConfirmInput{PaymentIntentID: res.PaymentIntentID})
	require.NoError(t, err)
	return out.Order
}

func TestOrderService_GetOrderScopedToOwner(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewOrderService(f.repo, zap.NewNop())
	owner := uuid.New()
	ord := f.paidOrderFor(t, customerCtx(owner), 1)

	got, err := svc.GetOrder(customerCtx(owner), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, ord.ID, got.ID)
	require.NotNil(t, got.Cart)
	assert.Len(t, got.Cart.Items, 1)

	_, err = svc.GetOrder(customerCtx(uuid.New()), ord.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.GetOrder(adminCtx(), ord.ID)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), ord.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestOrderService_ListAndSearch(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewOrderService(f.repo, zap.NewNop())
	owner := uuid.New()
	ord := f.paidOrderFor(t, customerCtx(owner), 1)
	f.createIntent(t, 1, false)

	mine, total, err := svc.ListMine(customerCtx(owner), ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, ord.ID, mine[0].ID)

	_, _, err = svc.ListAll(customerCtx(owner), ListFilter{Limit: 10})
	assert.ErrorIs(t, err, ErrForbidden)

	all, total, err := svc.ListAll(adminCtx(), ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	found, err := svc.Search(customerCtx(owner), ord.ID.String())
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = svc.Search(customerCtx(owner), "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = svc.Search(customerCtx(uuid.New()), ord.ID.String())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestOrderService_UpdateStatusTransitions(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewOrderService(f.repo, zap.NewNop())
	ctx := adminCtx()

	unpaid := f.createIntent(t, 1, false)
	_, err := svc.UpdateStatus(ctx, unpaid.OrderID, models.OrderShipped)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	ord := f.paidOrderFor(t, customerCtx(uuid.New()), 1)
	require.Equal(t, models.OrderProcessing, ord.OrderStatus)

	_, err = svc.UpdateStatus(customerCtx(uuid.New()), ord.ID, models.OrderShipped)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateStatus(ctx, ord.ID, models.OrderStatus("lost"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	got, err := svc.UpdateStatus(ctx, ord.ID, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.OrderStatus)

	_, err = svc.UpdateStatus(ctx, ord.ID, models.OrderPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err = svc.UpdateStatus(ctx, ord.ID, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, got.OrderStatus)

	_, err = svc.UpdateStatus(ctx, uuid.New(), models.OrderShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_CancelPaidOrderRestoresStock(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewOrderService(f.repo, zap.NewNop())
	ord := f.paidOrderFor(t, customerCtx(uuid.New()), 2)
	require.Equal(t, int32(3), f.stock(t))

	got, err := svc.UpdateStatus(adminCtx(), ord.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.OrderStatus)
	assert.False(t, got.StockCommitted)
	assert.Equal(t, int32(5), f.stock(t))
}

func TestOrderService_UpdateItemStatus(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewOrderService(f.repo, zap.NewNop())
	owner := uuid.New()
	ord := f.paidOrderFor(t, customerCtx(owner), 1)
	require.NotNil(t, ord.Cart)
	itemID := ord.Cart.Items[0].ID

	_, err := svc.UpdateItemStatus(customerCtx(owner), ord.ID, itemID, models.CartItemShipped)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateItemStatus(customerCtx(uuid.New()), ord.ID, itemID, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.UpdateItemStatus(customerCtx(owner), ord.ID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	res, err := svc.UpdateItemStatus(customerCtx(owner), ord.ID, itemID, "")
	require.NoError(t, err)
	assert.True(t, res.OrderCancelled)
	assert.Equal(t, models.OrderCancelled, res.Order.OrderStatus)
	assert.Equal(t, int32(5), f.stock(t))
}

func TestOrderService_ItemCancelRejectedWhileIntentPending(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewOrderService(f.repo, zap.NewNop())
	owner := uuid.New()
	res, err := f.svc.CreatePaymentIntent(customerCtx(owner), CreateIntentInput{
		Products: []CartProductInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	ord := f.order(t, res.OrderID)
	require.NotNil(t, ord.Cart)
	itemID := ord.Cart.Items[0].ID

	_, err = svc.UpdateItemStatus(customerCtx(owner), ord.ID, itemID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got := f.order(t, ord.ID)
	assert.Equal(t, models.OrderPending, got.OrderStatus)
	assert.Equal(t, models.CartItemNotProcessed, got.Cart.Items[0].Status)

	// после оплаты отмена позиции возвращает остаток ровно один раз
	f.succeed(res.PaymentIntentID)
	_, err = f.svc.ConfirmPayment(customerCtx(owner), ConfirmInput{PaymentIntentID: res.PaymentIntentID})
	require.NoError(t, err)
	require.Equal(t, int32(4), f.stock(t))

	for i := 0; i < 2; i++ {
		_, err = svc.UpdateItemStatus(customerCtx(owner), ord.ID, itemID, "")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), f.stock(t))
}

func TestOrderService_DeleteOrder(t *testing.T) {
	f := newPaymentFixture(t)
	svc := NewOrderService(f.repo, zap.NewNop())

	paid := f.paidOrderFor(t, customerCtx(uuid.New()), 1)
	assert.ErrorIs(t, svc.DeleteOrder(adminCtx(), paid.ID), ErrOrderNotDeletable)

	pending := f.createIntent(t, 1, false)
	assert.ErrorIs(t, svc.DeleteOrder(customerCtx(uuid.New()), pending.OrderID), ErrForbidden)
	require.NoError(t, svc.DeleteOrder(adminCtx(), pending.OrderID))

	o, err := f.repo.Orders.GetByID(context.Background(), pending.OrderID)
	require.NoError(t, err)
	assert.Nil(t, o)
	c, err := f.repo.Carts.GetByID(context.Background(), pending.CartID)
	require.NoError(t, err)
	assert.Nil(t, c)

	assert.ErrorIs(t, svc.DeleteOrder(adminCtx(), pending.OrderID), ErrOrderNotFound)
}
