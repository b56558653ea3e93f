package repository

import (
	"context"
	"errors"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartRepo interface {
	Create(ctx context.Context, c *models.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID, variantSKU *string) (*models.CartItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	AddItem(ctx context.Context, it *models.CartItem) error
	UpdateItemFields(ctx context.Context, itemID uuid.UUID, fields map[string]any) error
	RemoveProduct(ctx context.Context, cartID, productID uuid.UUID) (int64, error)
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status models.CartItemStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) CartRepo { return &cartRepo{db: db} }

func preloadCart(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Product.Variants", withVariants)
}

func (r *cartRepo) Create(ctx context.Context, c *models.Cart) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cartRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := preloadCart(r.db.WithContext(ctx)).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *cartRepo) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := preloadCart(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM orders o WHERE o.cart_id = carts.id AND o.payment_status <> ?)", models.PaymentPending).
		Order("created_at DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *cartRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID, variantSKU *string) (*models.CartItem, error) {
	q := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantSKU != nil {
		q = q.Where("variant_sku = ?", *variantSKU)
	} else {
		q = q.Where("variant_sku IS NULL")
	}

	var it models.CartItem
	err := q.First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &it, err
}

func (r *cartRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var it models.CartItem
	err := r.db.WithContext(ctx).Preload("Product").First(&it, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &it, err
}

func (r *cartRepo) AddItem(ctx context.Context, it *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(it).Error
}

func (r *cartRepo) UpdateItemFields(ctx context.Context, itemID uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Updates(fields).Error
}

func (r *cartRepo) RemoveProduct(ctx context.Context, cartID, productID uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return tx.RowsAffected, tx.Error
}

func (r *cartRepo) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status models.CartItemStatus) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND status <> ?", itemID, status).
		Update("status", status)
	return tx.RowsAffected > 0, tx.Error
}

func (r *cartRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}
