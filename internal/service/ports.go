package service

import (
	"context"
	"time"

	"memorial-service/internal/producer"

	"github.com/google/uuid"
)

// Статусы намерения оплаты на стороне шлюза.
const (
	IntentStatusSucceeded = "succeeded"
	IntentStatusCanceled  = "canceled"
)

// Типы событий шлюза, которые обрабатывает сверка.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
	EventChargeRefunded  = "charge.refunded"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
	Metadata     map[string]string
}

type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	Description string
}

type RefundRequest struct {
	IntentID string
	// nil — полный возврат
	AmountMinor *int64
	Reason      string
}

type Refund struct {
	ID          string
	AmountMinor int64
	Status      string
}

// GatewayEvent — проверенное подписью событие шлюза, приведённое к полям, нужным сверке.
type GatewayEvent struct {
	ID       string
	Type     string
	IntentID string
	// AmountMinor — сумма намерения (события payment_intent.*).
	AmountMinor int64
	// Для charge.refunded: возвращено всего и возвращён ли платёж полностью.
	AmountRefundedMinor int64
	FullyRefunded       bool
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	// CancelIntent не обращается к шлюзу с отменой, если намерение уже succeeded/canceled.
	CancelIntent(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
	ParseWebhook(payload []byte, signatureHeader string) (*GatewayEvent, error)
}

type CacheClient interface {
	// SetNX возвращает true, если ключ установлен впервые.
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type EmailProducer interface {
	SendEmail(ctx context.Context, key string, msg producer.EmailMessage) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, payload any) error
}

type Claims struct {
	UserID uuid.UUID
	Role   string
	Exp    time.Time
}

type AccessTokenProvider interface {
	SignAccess(ctx context.Context, sub uuid.UUID, role string, ttl time.Duration) (token string, exp time.Time, err error)
	ParseAndValidateAccess(ctx context.Context, token string) (*Claims, error)
}
