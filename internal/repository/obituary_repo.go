package repository

import (
	"context"
	"errors"
	"strings"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ObituaryListFilter struct {
	OnlyPublished bool
	Limit         int
	Offset        int
}

type ObituaryRepo interface {
	Create(ctx context.Context, o *models.Obituary) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Obituary, error)
	GetBySlug(ctx context.Context, slug string) (*models.Obituary, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, f ObituaryListFilter) ([]models.Obituary, int64, error)
	Recent(ctx context.Context, limit int) ([]models.Obituary, error)
	Search(ctx context.Context, query string, limit int) ([]models.Obituary, error)
}

type obituaryRepo struct{ db *gorm.DB }

func NewObituaryRepo(db *gorm.DB) ObituaryRepo { return &obituaryRepo{db: db} }

func (r *obituaryRepo) Create(ctx context.Context, o *models.Obituary) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *obituaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Obituary, error) {
	var o models.Obituary
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &o, err
}

func (r *obituaryRepo) GetBySlug(ctx context.Context, slug string) (*models.Obituary, error) {
	var o models.Obituary
	err := r.db.WithContext(ctx).First(&o, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &o, err
}

func (r *obituaryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Obituary{}).Where("slug = ?", slug).Count(&cnt).Error
	return cnt > 0, err
}

func (r *obituaryRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Obituary{}).Where("id = ?", id).Updates(fields).Error
}

func (r *obituaryRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Obituary{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *obituaryRepo) List(ctx context.Context, f ObituaryListFilter) ([]models.Obituary, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Obituary{})
	if f.OnlyPublished {
		q = q.Where("is_published = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.Obituary
	err := q.Order("death_date DESC NULLS LAST").Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

func (r *obituaryRepo) Recent(ctx context.Context, limit int) ([]models.Obituary, error) {
	if limit <= 0 {
		limit = 12
	}
	var list []models.Obituary
	err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("death_date DESC NULLS LAST").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *obituaryRepo) Search(ctx context.Context, query string, limit int) ([]models.Obituary, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	var list []models.Obituary
	err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Where(`first_name ILIKE @p OR middle_name ILIKE @p OR last_name ILIKE @p OR location ILIKE @p
OR (first_name || ' ' || middle_name || ' ' || last_name) ILIKE @p`, map[string]any{"p": pattern}).
		Order("death_date DESC NULLS LAST").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
