package models

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Таблица переходов статуса оплаты. Отсутствующий ключ — терминальное состояние.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentSucceeded, PaymentFailed, PaymentCancelled},
	PaymentSucceeded: {PaymentRefunded},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
}

// Статус заказа, в который переводит каждый исход оплаты.
var paymentOutcome = map[PaymentStatus]OrderStatus{
	PaymentSucceeded: OrderProcessing,
	PaymentFailed:    OrderCancelled,
	PaymentCancelled: OrderCancelled,
	PaymentRefunded:  OrderCancelled,
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSucceeded, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	_, ok := paymentTransitions[s]
	return !ok
}

// OrderStatusFor возвращает статус заказа, соответствующий исходу оплаты.
func (s PaymentStatus) OrderStatusFor() OrderStatus {
	if os, ok := paymentOutcome[s]; ok {
		return os
	}
	return OrderPending
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanTransitionOrder(from, to OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PaymentSources — из каких статусов допустим переход в to.
func PaymentSources(to PaymentStatus) []PaymentStatus {
	var out []PaymentStatus
	for from, targets := range paymentTransitions {
		for _, t := range targets {
			if t == to {
				out = append(out, from)
			}
		}
	}
	return out
}

func OrderSources(to OrderStatus) []OrderStatus {
	var out []OrderStatus
	for from, targets := range orderTransitions {
		for _, t := range targets {
			if t == to {
				out = append(out, from)
			}
		}
	}
	return out
}
