package service

import (
	"context"

	"memorial-service/internal/models"

	"github.com/google/uuid"
)

type ListFilter struct {
	Limit  int
	Offset int
}

type ItemStatusResult struct {
	Order          *models.Order
	OrderCancelled bool
}

type OrderService interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, f ListFilter) ([]models.Order, int64, error)
	ListAll(ctx context.Context, f ListFilter) ([]models.Order, int64, error)
	// Search ищет заказ по id; невалидный id даёт пустой результат.
	Search(ctx context.Context, query string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error)
	UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status models.CartItemStatus) (*ItemStatusResult, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}
