package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrObituaryNotFound   = errors.New("obituary not found")
	ErrCondolenceNotFound = errors.New("condolence not found")
	ErrTributeNotFound    = errors.New("tribute not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrOrderNotFound      = errors.New("order not found")

	ErrCartNotFound          = errors.New("could not find or create cart")
	ErrProductsUnavailable   = errors.New("some products are not available")
	ErrInvalidQuantity       = errors.New("quantity must be > 0")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrCartAlreadyOrdered    = errors.New("cart is already checked out")
	ErrNoPaymentIntent       = errors.New("order not found or no payment intent")
	ErrIntentMismatch        = errors.New("payment intent does not belong to this order")
	ErrInvalidTransition     = errors.New("status transition not allowed")
	ErrOrderNotDeletable     = errors.New("only unpaid orders can be deleted")
	ErrRefundAmountTooLarge  = errors.New("refund amount exceeds paid amount")
	ErrInvalidSignature      = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload = errors.New("webhook payload is malformed")
	ErrSKUAlreadyExists      = errors.New("sku already exists")
	ErrSKUOrSlugInUse        = errors.New("sku or slug is already in use")
	ErrProductInUse          = errors.New("product is referenced by carts")
	ErrSearchQueryRequired   = errors.New("search query is required")
	ErrPaymentIntentRequired = errors.New("payment intent id is required")
	ErrPaymentAmountMismatch = errors.New("paid amount does not match order total")
)

// ValidationError — ошибка входных данных по конкретному полю.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// PaymentNotCompletedError — шлюз сообщил статус намерения, отличный от succeeded.
type PaymentNotCompletedError struct {
	Status string
}

func (e *PaymentNotCompletedError) Error() string {
	return "payment not completed: " + e.Status
}

// GatewayError — отказ платёжного шлюза; Message передаётся клиенту как есть.
type GatewayError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *GatewayError) Unwrap() error { return e.Err }
