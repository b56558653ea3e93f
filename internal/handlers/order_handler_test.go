package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"memorial-service/internal/dto"
	"memorial-service/internal/models"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockOrderService struct {
	GetFunc        func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListMineFunc   func(ctx context.Context, f service.ListFilter) ([]models.Order, int64, error)
	ListAllFunc    func(ctx context.Context, f service.ListFilter) ([]models.Order, int64, error)
	SearchFunc     func(ctx context.Context, query string) ([]models.Order, error)
	StatusFunc     func(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error)
	ItemStatusFunc func(ctx context.Context, orderID, itemID uuid.UUID, status models.CartItemStatus) (*service.ItemStatusResult, error)
	DeleteFunc     func(ctx context.Context, id uuid.UUID) error
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return m.GetFunc(ctx, id)
}

func (m *MockOrderService) ListMine(ctx context.Context, f service.ListFilter) ([]models.Order, int64, error) {
	return m.ListMineFunc(ctx, f)
}

func (m *MockOrderService) ListAll(ctx context.Context, f service.ListFilter) ([]models.Order, int64, error) {
	return m.ListAllFunc(ctx, f)
}

func (m *MockOrderService) Search(ctx context.Context, query string) ([]models.Order, error) {
	return m.SearchFunc(ctx, query)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	return m.StatusFunc(ctx, id, to)
}

func (m *MockOrderService) UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status models.CartItemStatus) (*service.ItemStatusResult, error) {
	return m.ItemStatusFunc(ctx, orderID, itemID, status)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func orderEngine(svc service.OrderService) *gin.Engine {
	h := NewOrderHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/api/orders/me", h.ListMine)
	r.GET("/api/orders/:id", h.Get)
	r.PUT("/api/orders/:id/status", h.UpdateStatus)
	r.PUT("/api/orders/:id/items/:itemId/status", h.UpdateItemStatus)
	r.DELETE("/api/orders/:id", h.Delete)
	return r
}

func TestListMine_Pagination(t *testing.T) {
	svc := &MockOrderService{ListMineFunc: func(ctx context.Context, f service.ListFilter) ([]models.Order, int64, error) {
		assert.Equal(t, 5, f.Limit)
		assert.Equal(t, 10, f.Offset)
		return []models.Order{{ID: uuid.New()}}, 11, nil
	}}
	w := httptest.NewRecorder()
	orderEngine(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/me?page=3&limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.OrderListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.Total)
	assert.Equal(t, 3, resp.Page)
	assert.Len(t, resp.Orders, 1)
}

func TestGetOrder_InvalidIDAndForbidden(t *testing.T) {
	svc := &MockOrderService{GetFunc: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return nil, service.ErrForbidden
	}}
	r := orderEngine(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateStatus_InvalidTransitionIsConflict(t *testing.T) {
	svc := &MockOrderService{StatusFunc: func(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
		assert.Equal(t, models.OrderShipped, to)
		return nil, service.ErrInvalidTransition
	}}
	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	orderEngine(svc).ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateItemStatus_EmptyBodyCancelsAndReportsOrderCancelled(t *testing.T) {
	order := &models.Order{ID: uuid.New(), OrderStatus: models.OrderCancelled}
	svc := &MockOrderService{ItemStatusFunc: func(ctx context.Context, orderID, itemID uuid.UUID, status models.CartItemStatus) (*service.ItemStatusResult, error) {
		assert.Empty(t, status)
		return &service.ItemStatusResult{Order: order, OrderCancelled: true}, nil
	}}
	path := "/api/orders/" + order.ID.String() + "/items/" + uuid.NewString() + "/status"
	w := httptest.NewRecorder()
	orderEngine(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPut, path, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ItemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OrderCancelled)
	assert.Equal(t, "Your order has been cancelled successfully!", resp.Message)
}

func TestDeleteOrder_PaidIsConflict(t *testing.T) {
	svc := &MockOrderService{DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
		return service.ErrOrderNotDeletable
	}}
	w := httptest.NewRecorder()
	orderEngine(svc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/orders/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}
