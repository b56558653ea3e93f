package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"memorial-service/internal/service"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 15 * time.Second
	webhookTolerance = 5 * time.Minute
	networkRetries   = 2
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
	// BaseURL переопределяет адрес API (локальный мок в тестах).
	BaseURL string
}

// StripeGateway — реализация service.PaymentGateway поверх Stripe PaymentIntents.
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
	timeout       time.Duration
	log           *zap.Logger
}

func NewStripeGateway(cfg StripeConfig, log *zap.Logger) *StripeGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := int64(networkRetries)
	bc := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     log.Sugar(),
		MaxNetworkRetries: &retries,
	}
	if cfg.BaseURL != "" {
		bc.URL = stripe.String(cfg.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bc)

	sc := &client.API{}
	sc.Init(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return &StripeGateway{
		sc:            sc,
		webhookSecret: cfg.WebhookSecret,
		timeout:       timeout,
		log:           log,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req service.IntentRequest) (*service.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, toGatewayError("create intent", err)
	}
	g.log.Info("Намерение оплаты создано", zap.String("intent_id", pi.ID), zap.Int64("amount", pi.Amount))
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*service.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.sc.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, toGatewayError("retrieve intent", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) (*service.Intent, error) {
	cur, err := g.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if cur.Status == service.IntentStatusSucceeded || cur.Status == service.IntentStatusCanceled {
		return cur, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	pi, err := g.sc.PaymentIntents.Cancel(intentID, params)
	if err != nil {
		return nil, toGatewayError("cancel intent", err)
	}
	g.log.Info("Намерение оплаты отменено", zap.String("intent_id", pi.ID))
	return toIntent(pi), nil
}

func (g *StripeGateway) Refund(ctx context.Context, req service.RefundRequest) (*service.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.IntentID),
	}
	params.Context = ctx
	if req.AmountMinor != nil {
		params.Amount = stripe.Int64(*req.AmountMinor)
	}
	if req.Reason != "" {
		params.Reason = stripe.String(req.Reason)
	}

	r, err := g.sc.Refunds.New(params)
	if err != nil {
		return nil, toGatewayError("refund", err)
	}
	g.log.Info("Возврат создан", zap.String("refund_id", r.ID), zap.String("intent_id", req.IntentID), zap.Int64("amount", r.Amount))
	return &service.Refund{ID: r.ID, AmountMinor: r.Amount, Status: string(r.Status)}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*service.GatewayEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidSignature, err)
	}

	out := &service.GatewayEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return out, nil
	}

	switch out.Type {
	case service.EventIntentSucceeded, service.EventIntentFailed, service.EventIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", service.ErrInvalidWebhookPayload, err)
		}
		out.IntentID = pi.ID
		out.AmountMinor = pi.Amount
	case service.EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: %v", service.ErrInvalidWebhookPayload, err)
		}
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
		}
		out.AmountRefundedMinor = ch.AmountRefunded
		out.FullyRefunded = ch.Refunded
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *service.Intent {
	return &service.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func toGatewayError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &service.GatewayError{Op: op, Code: string(se.Code), Message: se.Msg, Err: err}
	}
	return &service.GatewayError{Op: op, Err: err}
}
