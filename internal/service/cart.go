package service

import (
	"context"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartProductInput struct {
	ProductID   uuid.UUID
	Quantity    int32
	VariantSKU  string
	VariantName string
	// Price — цена клиента, используется только если у товара нет цены в каталоге.
	Price *decimal.Decimal
}

// ResolveCartInput — источники корзины в порядке приоритета: CartID, пользователь из контекста, Products.
type ResolveCartInput struct {
	CartID   *uuid.UUID
	Products []CartProductInput
}

type CartService interface {
	// Resolve — сборщик корзины. Вариант с Products сохраняет новую корзину.
	Resolve(ctx context.Context, in ResolveCartInput) (*models.Cart, error)
	Create(ctx context.Context, products []CartProductInput) (*models.Cart, error)
	Get(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, cartID uuid.UUID, in CartProductInput) (*models.Cart, error)
	RemoveProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.Cart, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
}
