package repository

import (
	"context"
	"errors"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CondolenceStats struct {
	Total       int64 `json:"total"`
	WithCandles int64 `json:"withCandles"`
	Private     int64 `json:"private"`
	Public      int64 `json:"public"`
}

type CondolenceRepo interface {
	Create(ctx context.Context, c *models.Condolence) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Condolence, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Condolence, error)
	ListByObituary(ctx context.Context, obituaryID uuid.UUID, includePrivate bool) ([]models.Condolence, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Condolence, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Stats(ctx context.Context, obituaryID uuid.UUID) (CondolenceStats, error)
}

type condolenceRepo struct{ db *gorm.DB }

func NewCondolenceRepo(db *gorm.DB) CondolenceRepo { return &condolenceRepo{db: db} }

func (r *condolenceRepo) Create(ctx context.Context, c *models.Condolence) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *condolenceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Condolence, error) {
	var c models.Condolence
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *condolenceRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Condolence, error) {
	var c models.Condolence
	err := r.db.WithContext(ctx).First(&c, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *condolenceRepo) ListByObituary(ctx context.Context, obituaryID uuid.UUID, includePrivate bool) ([]models.Condolence, error) {
	q := r.db.WithContext(ctx).
		Where("obituary_id = ? AND is_approved = ?", obituaryID, true)
	if !includePrivate {
		q = q.Where("is_private = ?", false)
	}

	var list []models.Condolence
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *condolenceRepo) ListAll(ctx context.Context, limit, offset int) ([]models.Condolence, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Condolence{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var list []models.Condolence
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *condolenceRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Condolence{}).Where("id = ?", id).Updates(fields).Error
}

func (r *condolenceRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Condolence{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *condolenceRepo) Stats(ctx context.Context, obituaryID uuid.UUID) (CondolenceStats, error) {
	var s CondolenceStats
	err := r.db.WithContext(ctx).Model(&models.Condolence{}).
		Select(`COUNT(*) AS total,
COUNT(*) FILTER (WHERE has_candle) AS with_candles,
COUNT(*) FILTER (WHERE is_private) AS "private",
COUNT(*) FILTER (WHERE NOT is_private) AS "public"`).
		Where("obituary_id = ?", obituaryID).
		Scan(&s).Error
	return s, err
}
