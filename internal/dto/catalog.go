package dto

import (
	"memorial-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VariantRequest struct {
	Name           string           `json:"name"`
	Quantity       int32            `json:"quantity"`
	Price          decimal.Decimal  `json:"price" swaggertype:"number"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice,omitempty" swaggertype:"number"`
	SKU            string           `json:"sku"`
	IsDefault      bool             `json:"isDefault"`
	IsActive       *bool            `json:"isActive,omitempty"`
}

type ProductRequest struct {
	SKU         string             `json:"sku"`
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Type        models.ProductType `json:"type"`
	Description string             `json:"description"`
	Highlights  []string           `json:"highlights"`
	ImageURL    *string            `json:"imageUrl"`
	Taxable     bool               `json:"taxable"`
	Brand       *string            `json:"brand"`
	IsActive    *bool              `json:"isActive"`
	Stock       *int32             `json:"stock"`
	Variants    []VariantRequest   `json:"variants"`
}

type ProductPatchRequest struct {
	SKU         *string             `json:"sku"`
	Name        *string             `json:"name"`
	Slug        *string             `json:"slug"`
	Type        *models.ProductType `json:"type"`
	Description *string             `json:"description"`
	Highlights  []string            `json:"highlights"`
	ImageURL    *string             `json:"imageUrl"`
	Taxable     *bool               `json:"taxable"`
	Brand       *string             `json:"brand"`
	Stock       *int32              `json:"stock"`
	Variants    []VariantRequest    `json:"variants"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
}

type CartRequest struct {
	Products []CartProductRequest `json:"products" binding:"required,min=1,dive"`
}

type CartResponse struct {
	Success bool         `json:"success"`
	CartID  uuid.UUID    `json:"cartId"`
	Cart    *models.Cart `json:"cart"`
}

type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
}

type OrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type ItemStatusRequest struct {
	Status models.CartItemStatus `json:"status"`
}

type ItemStatusResponse struct {
	Success        bool          `json:"success"`
	Order          *models.Order `json:"order"`
	OrderCancelled bool          `json:"orderCancelled"`
	Message        string        `json:"message"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
