package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"memorial-service/internal/dto"
	"memorial-service/internal/models"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockPaymentService struct {
	CreateFunc  func(ctx context.Context, in service.CreateIntentInput) (*service.IntentResult, error)
	ConfirmFunc func(ctx context.Context, in service.ConfirmInput) (*service.ConfirmResult, error)
	CancelFunc  func(ctx context.Context, paymentIntentID string) (*service.CancelResult, error)
	RefundFunc  func(ctx context.Context, in service.RefundInput) (*service.RefundResult, error)
	StatusFunc  func(ctx context.Context, paymentIntentID string) (*service.PaymentStatusResult, error)
	WebhookFunc func(ctx context.Context, payload []byte, signatureHeader string) error
}

func (m *MockPaymentService) CreatePaymentIntent(ctx context.Context, in service.CreateIntentInput) (*service.IntentResult, error) {
	return m.CreateFunc(ctx, in)
}

func (m *MockPaymentService) ConfirmPayment(ctx context.Context, in service.ConfirmInput) (*service.ConfirmResult, error) {
	return m.ConfirmFunc(ctx, in)
}

func (m *MockPaymentService) CancelPayment(ctx context.Context, paymentIntentID string) (*service.CancelResult, error) {
	return m.CancelFunc(ctx, paymentIntentID)
}

func (m *MockPaymentService) RefundOrder(ctx context.Context, in service.RefundInput) (*service.RefundResult, error) {
	return m.RefundFunc(ctx, in)
}

func (m *MockPaymentService) GetPaymentStatus(ctx context.Context, paymentIntentID string) (*service.PaymentStatusResult, error) {
	return m.StatusFunc(ctx, paymentIntentID)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	return m.WebhookFunc(ctx, payload, signatureHeader)
}

func init() { gin.SetMode(gin.TestMode) }

func paymentEngine(svc service.PaymentService) *gin.Engine {
	h := NewPaymentHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/payment/create-intent", h.CreateIntent)
	r.POST("/payment/confirm", h.Confirm)
	r.POST("/payment/cancel", h.Cancel)
	r.GET("/payment/status/:paymentIntentId", h.Status)
	r.POST("/webhook/gateway", h.Webhook)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.BaseError {
	t.Helper()
	var e dto.BaseError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func paidOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		TotalWithTax:  decimal.RequireFromString("43.15"),
		PaymentStatus: models.PaymentSucceeded,
		OrderStatus:   models.OrderProcessing,
	}
}

func TestCreateIntent_ReturnsAmountInMinorUnits(t *testing.T) {
	orderID, cartID := uuid.New(), uuid.New()
	var got service.CreateIntentInput
	svc := &MockPaymentService{CreateFunc: func(ctx context.Context, in service.CreateIntentInput) (*service.IntentResult, error) {
		got = in
		return &service.IntentResult{
			ClientSecret:    "pi_1_secret",
			PaymentIntentID: "pi_1",
			OrderID:         orderID,
			CartID:          cartID,
			AmountMinor:     4315,
			Tax:             decimal.RequireFromString("3.20"),
		}, nil
	}}

	obit := uuid.New()
	w := postJSON(t, paymentEngine(svc), "/payment/create-intent", map[string]any{
		"cartId":            cartID,
		"obituaryId":        obit,
		"dedicationMessage": "Rest in peace",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CreateIntentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pi_1", resp.PaymentIntentID)
	assert.Equal(t, int64(4315), resp.Amount)
	assert.InDelta(t, 3.20, resp.Tax, 0.0001)

	require.NotNil(t, got.CartID)
	assert.Equal(t, cartID, *got.CartID)
	require.NotNil(t, got.Memorial.ObituaryID)
	assert.Equal(t, obit, *got.Memorial.ObituaryID)
	assert.Equal(t, "Rest in peace", got.Memorial.DedicationMessage)
}

func TestConfirm_MessageDependsOnCondolence(t *testing.T) {
	for _, tc := range []struct {
		created bool
		want    string
	}{
		{false, msgOrderPlaced},
		{true, msgOrderPlacedTribute},
	} {
		svc := &MockPaymentService{ConfirmFunc: func(ctx context.Context, in service.ConfirmInput) (*service.ConfirmResult, error) {
			assert.Equal(t, "pi_1", in.PaymentIntentID)
			return &service.ConfirmResult{Order: paidOrder(), CondolenceCreated: tc.created}, nil
		}}

		w := postJSON(t, paymentEngine(svc), "/payment/confirm", map[string]any{"paymentIntentId": "pi_1"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ConfirmPaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, tc.want, resp.Message)
		assert.Equal(t, tc.created, resp.Order.CondolenceCreated)
		assert.InDelta(t, 43.15, resp.Order.Total, 0.0001)
		assert.Equal(t, "succeeded", resp.Order.PaymentStatus)
	}
}

func TestConfirm_MissingIntentIsValidationError(t *testing.T) {
	svc := &MockPaymentService{ConfirmFunc: func(ctx context.Context, in service.ConfirmInput) (*service.ConfirmResult, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	w := postJSON(t, paymentEngine(svc), "/payment/confirm", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Code)
}

func TestConfirm_NotSucceededIs402WithStatus(t *testing.T) {
	svc := &MockPaymentService{ConfirmFunc: func(ctx context.Context, in service.ConfirmInput) (*service.ConfirmResult, error) {
		return nil, &service.PaymentNotCompletedError{Status: "requires_payment_method"}
	}}
	w := postJSON(t, paymentEngine(svc), "/payment/confirm", map[string]any{"paymentIntentId": "pi_1"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "payment_not_completed", e.Code)
	assert.Equal(t, "requires_payment_method", e.Details)
}

func TestConfirm_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrOrderNotFound, http.StatusNotFound},
		{service.ErrInsufficientStock, http.StatusConflict},
		{service.ErrIntentMismatch, http.StatusConflict},
		{&service.ValidationError{Field: "paymentIntentId", Message: "is required"}, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &MockPaymentService{ConfirmFunc: func(ctx context.Context, in service.ConfirmInput) (*service.ConfirmResult, error) {
			return nil, tc.err
		}}
		w := postJSON(t, paymentEngine(svc), "/payment/confirm", map[string]any{"paymentIntentId": "pi_1"})
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestCreateIntent_GatewayMessagePassedThrough(t *testing.T) {
	svc := &MockPaymentService{CreateFunc: func(ctx context.Context, in service.CreateIntentInput) (*service.IntentResult, error) {
		return nil, &service.GatewayError{Op: "create intent", Code: "card_declined", Message: "Your card was declined."}
	}}
	w := postJSON(t, paymentEngine(svc), "/payment/create-intent", map[string]any{"cartId": uuid.New()})
	require.Equal(t, http.StatusBadGateway, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "Your card was declined.", e.Message)
	assert.Equal(t, "card_declined", e.Details)
}

func TestCancel_ReturnsIntentAndOrder(t *testing.T) {
	order := &models.Order{ID: uuid.New()}
	svc := &MockPaymentService{CancelFunc: func(ctx context.Context, id string) (*service.CancelResult, error) {
		return &service.CancelResult{
			Intent: &service.Intent{ID: id, Status: "canceled", AmountMinor: 500, Currency: "usd"},
			Order:  order,
		}, nil
	}}
	w := postJSON(t, paymentEngine(svc), "/payment/cancel", map[string]any{"paymentIntentId": "pi_5"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CancelPaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pi_5", resp.PaymentIntent.ID)
	assert.Equal(t, "canceled", resp.PaymentIntent.Status)
	assert.Equal(t, order.ID.String(), resp.OrderID)
}

func TestStatus(t *testing.T) {
	svc := &MockPaymentService{StatusFunc: func(ctx context.Context, id string) (*service.PaymentStatusResult, error) {
		assert.Equal(t, "pi_3", id)
		return &service.PaymentStatusResult{Status: "succeeded", Amount: decimal.RequireFromString("43.15"), Currency: "usd"}, nil
	}}
	w := httptest.NewRecorder()
	paymentEngine(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payment/status/pi_3", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.PaymentStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "succeeded", resp.Status)
	assert.InDelta(t, 43.15, resp.Amount, 0.0001)
}

func webhookRequest(r http.Handler, body, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/gateway", bytes.NewBufferString(body))
	req.Header.Set("Stripe-Signature", sig)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_PassesRawBodyAndSignature(t *testing.T) {
	body := `{"id":"evt_1","type":"payment_intent.succeeded"}`
	svc := &MockPaymentService{WebhookFunc: func(ctx context.Context, payload []byte, sig string) error {
		assert.Equal(t, body, string(payload))
		assert.Equal(t, "t=1,v1=abc", sig)
		return nil
	}}
	w := webhookRequest(paymentEngine(svc), body, "t=1,v1=abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestWebhook_StatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrInvalidSignature, http.StatusBadRequest},
		{service.ErrInvalidWebhookPayload, http.StatusBadRequest},
		{errors.New("tx failed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &MockPaymentService{WebhookFunc: func(ctx context.Context, payload []byte, sig string) error {
			return tc.err
		}}
		w := webhookRequest(paymentEngine(svc), `{}`, "bad")
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}
