package repository

import (
	"context"
	"errors"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TributeRepo interface {
	Create(ctx context.Context, t *models.Tribute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tribute, error)
	ListApprovedByObituary(ctx context.Context, obituaryID uuid.UUID) ([]models.Tribute, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	SaveMedia(ctx context.Context, t *models.Tribute) error
	Approve(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type tributeRepo struct{ db *gorm.DB }

func NewTributeRepo(db *gorm.DB) TributeRepo { return &tributeRepo{db: db} }

func (r *tributeRepo) Create(ctx context.Context, t *models.Tribute) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tributeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tribute, error) {
	var t models.Tribute
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

func (r *tributeRepo) ListApprovedByObituary(ctx context.Context, obituaryID uuid.UUID) ([]models.Tribute, error) {
	var list []models.Tribute
	err := r.db.WithContext(ctx).
		Where("obituary_id = ? AND is_approved = ?", obituaryID, true).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *tributeRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Tribute{}).Where("id = ?", id).Updates(fields).Error
}

func (r *tributeRepo) SaveMedia(ctx context.Context, t *models.Tribute) error {
	return r.db.WithContext(ctx).Model(t).Select("photos", "videos").Updates(t).Error
}

func (r *tributeRepo) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Tribute{}).Where("id = ?", id).Update("is_approved", true)
	return tx.RowsAffected > 0, tx.Error
}

func (r *tributeRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Tribute{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}
