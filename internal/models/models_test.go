package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestObituary_ComputeAge(t *testing.T) {
	o := &Obituary{BirthDate: date(1950, time.March, 10), DeathDate: date(2024, time.March, 9)}
	o.ComputeAge()
	require.NotNil(t, o.Age)
	assert.Equal(t, int32(73), *o.Age)

	preset := int32(99)
	o2 := &Obituary{BirthDate: date(1950, 1, 1), DeathDate: date(2000, 1, 1), Age: &preset}
	o2.ComputeAge()
	assert.Equal(t, int32(99), *o2.Age)

	o3 := &Obituary{DeathDate: date(2000, 1, 1)}
	o3.ComputeAge()
	assert.Nil(t, o3.Age)
}

func TestObituary_FullName(t *testing.T) {
	o := &Obituary{FirstName: "Mary", MiddleName: " ", LastName: "Smith"}
	assert.Equal(t, "Mary Smith", o.FullName())
}

func TestProduct_ResolveVariant(t *testing.T) {
	p := &Product{Variants: []ProductVariant{
		{Name: "Seedling", SKU: "T-1", IsActive: false, IsDefault: true},
		{Name: "Single Tree", SKU: "T-2", IsActive: true},
		{Name: "Grove", SKU: "T-3", IsActive: true, IsDefault: true},
	}}

	assert.Equal(t, "T-2", p.ResolveVariant("t-2", "").SKU)
	assert.Equal(t, "T-2", p.ResolveVariant("", "single tree").SKU)
	assert.Equal(t, "T-3", p.ResolveVariant("missing", "").SKU)
	// неактивный вариант по умолчанию пропускается
	p.Variants[2].IsDefault = false
	assert.Equal(t, "T-2", p.ResolveVariant("", "").SKU)

	empty := &Product{}
	assert.Nil(t, empty.ResolveVariant("", ""))
}

func TestCart_SubtotalSkipsCancelled(t *testing.T) {
	c := &Cart{Items: []CartItem{
		{Quantity: 2, PurchasePrice: decimal.RequireFromString("10.50"), Status: CartItemNotProcessed},
		{Quantity: 1, PurchasePrice: decimal.RequireFromString("39.95"), Status: CartItemCancelled},
	}}
	assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("21.00")))
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentSucceeded))
	assert.True(t, CanTransitionPayment(PaymentSucceeded, PaymentRefunded))
	assert.False(t, CanTransitionPayment(PaymentSucceeded, PaymentCancelled))
	assert.False(t, CanTransitionPayment(PaymentRefunded, PaymentSucceeded))
	assert.False(t, CanTransitionPayment(PaymentPending, PaymentRefunded))

	assert.True(t, PaymentFailed.IsTerminal())
	assert.True(t, PaymentRefunded.IsTerminal())
	assert.False(t, PaymentSucceeded.IsTerminal())

	assert.Equal(t, []PaymentStatus{PaymentSucceeded}, PaymentSources(PaymentRefunded))
	assert.Equal(t, OrderCancelled, PaymentRefunded.OrderStatusFor())
	assert.Equal(t, OrderProcessing, PaymentSucceeded.OrderStatusFor())
}

func TestOrderTransitions(t *testing.T) {
	assert.True(t, CanTransitionOrder(OrderProcessing, OrderShipped))
	assert.True(t, CanTransitionOrder(OrderShipped, OrderDelivered))
	assert.False(t, CanTransitionOrder(OrderDelivered, OrderCancelled))
	assert.False(t, CanTransitionOrder(OrderPending, OrderShipped))
	assert.ElementsMatch(t, []OrderStatus{OrderPending, OrderProcessing, OrderShipped}, OrderSources(OrderCancelled))
}
