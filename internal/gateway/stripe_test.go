package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"memorial-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test"

func newTestGateway(t *testing.T, baseURL string) *StripeGateway {
	t.Helper()
	return NewStripeGateway(StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		Timeout:       5 * time.Second,
		BaseURL:       baseURL,
	}, zap.NewNop())
}

func signed(payload string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	}).Header
}

func TestParseWebhook_IntentSucceeded(t *testing.T) {
	g := newTestGateway(t, "")
	payload := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded",` +
		`"data":{"object":{"id":"pi_1","object":"payment_intent","status":"succeeded","amount":4315}}}`

	ev, err := g.ParseWebhook([]byte(payload), signed(payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, service.EventIntentSucceeded, ev.Type)
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, int64(4315), ev.AmountMinor)
}

func TestParseWebhook_ChargeRefunded(t *testing.T) {
	g := newTestGateway(t, "")
	payload := `{"id":"evt_2","object":"event","type":"charge.refunded",` +
		`"data":{"object":{"id":"ch_1","object":"charge","amount_refunded":1000,"refunded":false,"payment_intent":"pi_9"}}}`

	ev, err := g.ParseWebhook([]byte(payload), signed(payload))
	require.NoError(t, err)
	assert.Equal(t, service.EventChargeRefunded, ev.Type)
	assert.Equal(t, "pi_9", ev.IntentID)
	assert.Equal(t, int64(1000), ev.AmountRefundedMinor)
	assert.False(t, ev.FullyRefunded)
}

func TestParseWebhook_UnknownTypeKeepsIDOnly(t *testing.T) {
	g := newTestGateway(t, "")
	payload := `{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`

	ev, err := g.ParseWebhook([]byte(payload), signed(payload))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.Empty(t, ev.IntentID)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	g := newTestGateway(t, "")
	payload := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`
	header := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  "whsec_other",
	}).Header

	_, err := g.ParseWebhook([]byte(payload), header)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidSignature))

	_, err = g.ParseWebhook([]byte(payload), "")
	assert.True(t, errors.Is(err, service.ErrInvalidSignature))
}

func TestCreateIntent_SendsAmountAndMetadata(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_42","object":"payment_intent","client_secret":"pi_42_secret","amount":4315,"currency":"usd","status":"requires_payment_method","metadata":{"order_id":"o1"}}`)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	in, err := g.CreateIntent(context.Background(), service.IntentRequest{
		AmountMinor: 4315,
		Currency:    "usd",
		Metadata:    map[string]string{"order_id": "o1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_42", in.ID)
	assert.Equal(t, "pi_42_secret", in.ClientSecret)
	assert.Equal(t, int64(4315), in.AmountMinor)
	assert.Equal(t, "o1", in.Metadata["order_id"])

	assert.Equal(t, "4315", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "o1", form.Get("metadata[order_id]"))
	assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
}

func TestCreateIntent_GatewayErrorMessagePassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.CreateIntent(context.Background(), service.IntentRequest{AmountMinor: 100, Currency: "usd"})
	require.Error(t, err)

	var ge *service.GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "card_declined", ge.Code)
	assert.Equal(t, "Your card was declined.", ge.Error())
}

func TestCancelIntent_SucceededIsNoop(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_7","object":"payment_intent","amount":500,"currency":"usd","status":"succeeded"}`)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	in, err := g.CancelIntent(context.Background(), "pi_7")
	require.NoError(t, err)
	assert.Equal(t, service.IntentStatusSucceeded, in.Status)
	assert.Equal(t, 1, calls)
}
