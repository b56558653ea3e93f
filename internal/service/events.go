package service

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderPaid          = "order.paid"
	EventTypeOrderPaymentFailed = "order.payment_failed"
	EventTypeOrderCancelled     = "order.cancelled"
	EventTypeOrderRefunded      = "order.refunded"
)

type OrderItemEvent struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	VariantName string    `json:"variant_name,omitempty"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
}

type OrderPaidEvent struct {
	OrderID         uuid.UUID        `json:"order_id"`
	UserID          *uuid.UUID       `json:"user_id,omitempty"`
	PaymentIntentID string           `json:"payment_intent_id"`
	Items           []OrderItemEvent `json:"items"`
	TotalWithTax    string           `json:"total_with_tax"`
	Currency        string           `json:"currency"`
	ObituaryID      *uuid.UUID       `json:"obituary_id,omitempty"`
	CondolenceID    *uuid.UUID       `json:"condolence_id,omitempty"`
	PaidAt          time.Time        `json:"paid_at"`
}

type OrderPaymentFailedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	FailedAt        time.Time `json:"failed_at"`
}

type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type OrderRefundedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	RefundID       string    `json:"refund_id,omitempty"`
	RefundedAmount string    `json:"refunded_amount"`
	Reason         string    `json:"reason,omitempty"`
	RefundedAt     time.Time `json:"refunded_at"`
}
