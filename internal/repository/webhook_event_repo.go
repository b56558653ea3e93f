package repository

import (
	"context"

	"memorial-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepo interface {
	// Record фиксирует событие шлюза. inserted=false — событие с таким id уже обработано.
	Record(ctx context.Context, e *models.WebhookEvent) (inserted bool, err error)
}

type webhookEventRepo struct{ db *gorm.DB }

func NewWebhookEventRepo(db *gorm.DB) WebhookEventRepo { return &webhookEventRepo{db: db} }

func (r *webhookEventRepo) Record(ctx context.Context, e *models.WebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(e)
	return tx.RowsAffected > 0, tx.Error
}
