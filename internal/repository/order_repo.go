package repository

import (
	"context"
	"errors"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderListFilter struct {
	UserID *uuid.UUID
	Limit  int
	Offset int
}

type OrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	// GetByIDForUpdate блокирует строку заказа до конца транзакции (SELECT ... FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	GetByCartID(ctx context.Context, cartID uuid.UUID) (*models.Order, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// SaveColumns сохраняет перечисленные колонки из o (в том числе jsonb-снимки реквизитов).
	SaveColumns(ctx context.Context, o *models.Order, columns ...string) error
	List(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// TransitionPayment — compare-and-swap по статусу оплаты: обновляет строку, только если
	// текущий payment_status входит в from. ok=false — переход уже выполнен кем-то другим.
	TransitionPayment(ctx context.Context, id uuid.UUID, from []models.PaymentStatus, to models.PaymentStatus, extra map[string]any) (bool, error)
	TransitionOrder(ctx context.Context, id uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error)
	// SetStockCommitted переключает флаг списания остатков; ok=false, если флаг уже в нужном состоянии.
	SetStockCommitted(ctx context.Context, id uuid.UUID, committed bool) (bool, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Cart").
		Preload("Cart.Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Cart.Items.Product")
}

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Omit("Cart").Create(o).Error
}

func (r *orderRepo) first(ctx context.Context, query string, args ...any) (*models.Order, error) {
	var ord models.Order
	err := preloadOrder(r.db.WithContext(ctx)).Where(query, args...).First(&ord).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ord, err
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *orderRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var locked models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&locked, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.first(ctx, "id = ?", id)
}

func (r *orderRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	return r.first(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *orderRepo) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	return r.first(ctx, "payment_intent_id = ?", intentID)
}

func (r *orderRepo) GetByCartID(ctx context.Context, cartID uuid.UUID) (*models.Order, error) {
	return r.first(ctx, "cart_id = ?", cartID)
}

func (r *orderRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *orderRepo) SaveColumns(ctx context.Context, o *models.Order, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(o).Select(columns).Updates(o).Error
}

func (r *orderRepo) List(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.Order
	err := preloadOrder(q).Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepo) TransitionPayment(ctx context.Context, id uuid.UUID, from []models.PaymentStatus, to models.PaymentStatus, extra map[string]any) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	upd := map[string]any{
		"payment_status": to,
		"order_status":   to.OrderStatusFor(),
	}
	for k, v := range extra {
		upd[k] = v
	}

	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status IN ?", id, from).
		Updates(upd)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepo) TransitionOrder(ctx context.Context, id uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND order_status IN ?", id, from).
		Update("order_status", to)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepo) SetStockCommitted(ctx context.Context, id uuid.UUID, committed bool) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND stock_committed = ?", id, !committed).
		Update("stock_committed", committed)
	return tx.RowsAffected > 0, tx.Error
}
