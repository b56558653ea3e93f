package service

import (
	"context"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemorialLink — привязка заказа к странице памяти.
type MemorialLink struct {
	ObituaryID        *uuid.UUID
	ObituaryName      string
	DedicationMessage string
}

type CreateIntentInput struct {
	CartID   *uuid.UUID
	OrderID  *uuid.UUID
	Products []CartProductInput

	Billing       *models.BillingDetails
	Shipping      *models.ShippingDetails
	PaymentMethod models.PaymentMethod
	OrderNotes    string
	Memorial      MemorialLink
}

type IntentResult struct {
	ClientSecret    string
	PaymentIntentID string
	OrderID         uuid.UUID
	CartID          uuid.UUID
	// AmountMinor — сумма намерения в минимальных единицах валюты.
	AmountMinor int64
	Tax         decimal.Decimal
}

type ConfirmInput struct {
	PaymentIntentID string
	OrderID         *uuid.UUID
	Billing         *models.BillingDetails
	Memorial        MemorialLink
}

type ConfirmResult struct {
	Order             *models.Order
	CondolenceCreated bool
}

type CancelResult struct {
	Intent *Intent
	// Order == nil, если намерение не привязано ни к одному заказу.
	Order *models.Order
}

type RefundInput struct {
	OrderID uuid.UUID
	// Amount == nil — полный возврат.
	Amount *decimal.Decimal
	Reason string
}

type RefundResult struct {
	Refund *Refund
	Order  *models.Order
}

type PaymentStatusResult struct {
	Status   string
	Amount   decimal.Decimal
	Currency string
}

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, in CreateIntentInput) (*IntentResult, error)
	ConfirmPayment(ctx context.Context, in ConfirmInput) (*ConfirmResult, error)
	CancelPayment(ctx context.Context, paymentIntentID string) (*CancelResult, error)
	RefundOrder(ctx context.Context, in RefundInput) (*RefundResult, error)
	GetPaymentStatus(ctx context.Context, paymentIntentID string) (*PaymentStatusResult, error)
	// HandleWebhook проверяет подпись и применяет событие шлюза к заказу.
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
}
