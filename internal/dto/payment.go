package dto

import (
	"memorial-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartProductRequest struct {
	ProductID   uuid.UUID        `json:"product" binding:"required"`
	Quantity    int32            `json:"quantity"`
	VariantSKU  string           `json:"variantSku"`
	VariantName string           `json:"variantName"`
	Price       *decimal.Decimal `json:"price,omitempty" swaggertype:"number"`
}

// MemorialFields — привязка покупки к странице памяти.
type MemorialFields struct {
	ObituaryID        *uuid.UUID `json:"obituaryId,omitempty"`
	ObituaryName      string     `json:"obituaryName,omitempty"`
	DedicationMessage string     `json:"dedicationMessage,omitempty"`
}

type CreateIntentRequest struct {
	CartID          *uuid.UUID              `json:"cartId,omitempty"`
	OrderID         *uuid.UUID              `json:"orderId,omitempty"`
	Products        []CartProductRequest    `json:"products,omitempty"`
	BillingDetails  *models.BillingDetails  `json:"billingDetails,omitempty"`
	ShippingDetails *models.ShippingDetails `json:"shippingDetails,omitempty"`
	PaymentMethod   models.PaymentMethod    `json:"paymentMethod,omitempty"`
	OrderNotes      string                  `json:"orderNotes,omitempty"`
	MemorialFields
}

type CreateIntentResponse struct {
	ClientSecret    string  `json:"clientSecret"`
	PaymentIntentID string  `json:"paymentIntentId"`
	OrderID         string  `json:"orderId"`
	CartID          string  `json:"cartId"`
	Amount          int64   `json:"amount"`
	Tax             float64 `json:"tax"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string                 `json:"paymentIntentId" binding:"required"`
	OrderID         *uuid.UUID             `json:"orderId,omitempty"`
	CartID          *uuid.UUID             `json:"cartId,omitempty"`
	BillingDetails  *models.BillingDetails `json:"billingDetails,omitempty"`
	MemorialFields
}

type ConfirmedOrder struct {
	ID                string  `json:"_id"`
	Total             float64 `json:"total"`
	PaymentStatus     string  `json:"paymentStatus"`
	OrderStatus       string  `json:"orderStatus"`
	CondolenceCreated bool    `json:"condolenceCreated"`
}

type ConfirmPaymentResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Order   ConfirmedOrder `json:"order"`
}

type CancelPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

type PaymentIntentInfo struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type CancelPaymentResponse struct {
	Success       bool              `json:"success"`
	PaymentIntent PaymentIntentInfo `json:"paymentIntent"`
	OrderID       string            `json:"orderId,omitempty"`
}

type RefundRequest struct {
	OrderID uuid.UUID        `json:"orderId" binding:"required"`
	Amount  *decimal.Decimal `json:"amount,omitempty" swaggertype:"number"`
	Reason  string           `json:"reason,omitempty"`
}

type RefundInfo struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

type RefundResponse struct {
	Success bool       `json:"success"`
	Refund  RefundInfo `json:"refund"`
}

type PaymentStatusResponse struct {
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}
