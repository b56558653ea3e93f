package dto

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// BaseError универсальный корневой формат ошибки
// Code — машинно-ориентированный код (snake_case)
// Message — краткое человеко-читаемое описание
// Details — дополнительная строка (пояснение / статус шлюза)
// Fields — для валидационных ошибок (имя поля + текст)
type BaseError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError отдельная ошибка по конкретному полю
// Field: путь в JSON-нотации ("products[0].quantity")
// Tag: тег валидатора, на котором упала проверка
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// Семантические обёртки для swagger; по JSON совпадают с BaseError.

// ValidationErrorResponse 400
// Code: "validation_error"
type ValidationErrorResponse BaseError

// BadRequestErrorResponse 400
// Пример: неверная подпись вебхука
// Code: "bad_request"
type BadRequestErrorResponse BaseError

// UnauthorizedErrorResponse 401
// Code: "unauthorized"
type UnauthorizedErrorResponse BaseError

// PaymentRequiredErrorResponse 402
// Пример: намерение оплаты не в статусе succeeded, статус шлюза в Details
// Code: "payment_not_completed"
type PaymentRequiredErrorResponse BaseError

// ForbiddenErrorResponse 403
// Code: "forbidden"
type ForbiddenErrorResponse BaseError

// NotFoundErrorResponse 404
// Code: "not_found"
type NotFoundErrorResponse BaseError

// ConflictErrorResponse 409
// Пример: недостаточно остатков, недопустимый переход статуса
// Code: "conflict"
type ConflictErrorResponse BaseError

// RateLimitedErrorResponse 429
// Code: "rate_limited"
type RateLimitedErrorResponse BaseError

// InternalErrorResponse 500
// Code: "internal_error"
type InternalErrorResponse BaseError

// BadGatewayErrorResponse 502
// Пример: отказ платёжного шлюза, Message — текст шлюза как есть
// Code: "gateway_error"
type BadGatewayErrorResponse BaseError

func NewValidationError(msg string, fields []FieldError) ValidationErrorResponse {
	return ValidationErrorResponse(BaseError{Code: "validation_error", Message: msg, Fields: fields})
}
func NewBadRequestError(msg string) BadRequestErrorResponse {
	return BadRequestErrorResponse(BaseError{Code: "bad_request", Message: msg})
}
func NewUnauthorizedError(msg string) UnauthorizedErrorResponse {
	return UnauthorizedErrorResponse(BaseError{Code: "unauthorized", Message: msg})
}
func NewPaymentRequiredError(status string) PaymentRequiredErrorResponse {
	return PaymentRequiredErrorResponse(BaseError{Code: "payment_not_completed", Message: "Payment not completed", Details: status})
}
func NewForbiddenError(msg string) ForbiddenErrorResponse {
	return ForbiddenErrorResponse(BaseError{Code: "forbidden", Message: msg})
}
func NewNotFoundError(msg string) NotFoundErrorResponse {
	return NotFoundErrorResponse(BaseError{Code: "not_found", Message: msg})
}
func NewConflictError(msg string) ConflictErrorResponse {
	return ConflictErrorResponse(BaseError{Code: "conflict", Message: msg})
}
func NewRateLimitedError(msg string) RateLimitedErrorResponse {
	return RateLimitedErrorResponse(BaseError{Code: "rate_limited", Message: msg})
}
func NewInternalError(details string) InternalErrorResponse {
	return InternalErrorResponse(BaseError{Code: "internal_error", Message: "internal server error", Details: details})
}
func NewBadGatewayError(msg, code string) BadGatewayErrorResponse {
	return BadGatewayErrorResponse(BaseError{Code: "gateway_error", Message: msg, Details: code})
}

// FieldsFromBinding раскладывает ошибку ShouldBindJSON по полям.
// Ошибки разбора JSON (не валидатора) дают пустой список.
func FieldsFromBinding(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{}
	}
	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{
			Field:   jsonPath(fe.Namespace()),
			Message: ruleMessage(fe),
			Tag:     fe.Tag(),
		})
	}
	return out
}

// jsonPath: "CreateIntentRequest.Products[0].Quantity" -> "products[0].quantity".
func jsonPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = lowerFirst(p)
	}
	return strings.Join(parts, ".")
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
