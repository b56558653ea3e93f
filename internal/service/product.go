package service

import (
	"context"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VariantInput struct {
	Name           string
	Quantity       int32
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	SKU            string
	IsDefault      bool
	// nil — активен
	IsActive *bool
}

type ProductInput struct {
	SKU         string
	Name        string
	Slug        string
	Type        models.ProductType
	Description string
	Highlights  []string
	ImageURL    *string
	Taxable     bool
	Brand       *string
	IsActive    *bool
	Stock       *int32
	Variants    []VariantInput
}

// ProductPatch: nil-поля не меняются, Variants != nil заменяет все варианты.
type ProductPatch struct {
	SKU         *string
	Name        *string
	Slug        *string
	Type        *models.ProductType
	Description *string
	Highlights  []string
	ImageURL    *string
	Taxable     *bool
	Brand       *string
	Stock       *int32
	Variants    []VariantInput
}

type ProductService interface {
	// ListMemorial — активные мемориальные товары; t == nil — все мемориальные типы.
	ListMemorial(ctx context.Context, t *models.ProductType) ([]models.Product, error)
	SearchByName(ctx context.Context, name string) ([]models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)

	ListAll(ctx context.Context, page, perPage int) ([]models.Product, int64, error)
	AdminGet(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, p ProductPatch) (*models.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
