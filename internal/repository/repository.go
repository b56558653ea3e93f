package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB            *gorm.DB
	Obituaries    ObituaryRepo
	Condolences   CondolenceRepo
	Tributes      TributeRepo
	Products      ProductRepo
	Carts         CartRepo
	Orders        OrderRepo
	WebhookEvents WebhookEventRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:            db,
		Obituaries:    NewObituaryRepo(db),
		Condolences:   NewCondolenceRepo(db),
		Tributes:      NewTributeRepo(db),
		Products:      NewProductRepo(db),
		Carts:         NewCartRepo(db),
		Orders:        NewOrderRepo(db),
		WebhookEvents: NewWebhookEventRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx — единица работы на весь набор репозиториев. Вызов внутри fn открывает SAVEPOINT.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
