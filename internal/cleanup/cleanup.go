package cleanup

import (
	"context"
	"time"

	"memorial-service/internal/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	StaleOrderAfter time.Duration
	GuestCartTTL    time.Duration
	WebhookEventTTL time.Duration
}

type CleanupService struct {
	db  *gorm.DB
	opt Options
	log *zap.Logger
	now func() time.Time
}

func NewCleanupService(db *gorm.DB, opt Options, log *zap.Logger) *CleanupService {
	return &CleanupService{
		db:  db,
		opt: opt,
		log: log,
		now: time.Now,
	}
}

// CancelStaleOrders отменяет заказы, которые так и не получили намерение оплаты.
// Заказы с намерением закрывает только сверка событий шлюза.
func (c *CleanupService) CancelStaleOrders(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.opt.StaleOrderAfter)

	result := c.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_status = ? AND payment_intent_id IS NULL AND created_at < ?", models.PaymentPending, cutoff).
		Updates(map[string]any{
			"payment_status": models.PaymentCancelled,
			"order_status":   models.OrderCancelled,
			"updated_at":     c.now(),
		})
	if result.Error != nil {
		c.log.Error("failed to cancel stale orders", zap.Error(result.Error))
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		c.log.Info("cancelled stale orders", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// PurgeAbandonedCarts удаляет гостевые корзины без заказа старше GuestCartTTL.
func (c *CleanupService) PurgeAbandonedCarts(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.opt.GuestCartTTL)
	stale := `SELECT c.id FROM carts c
		WHERE c.user_id IS NULL AND c.updated_at < ?
		AND NOT EXISTS (SELECT 1 FROM orders o WHERE o.cart_id = c.id)`

	var removed int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM cart_items WHERE cart_id IN ("+stale+")", cutoff).Error; err != nil {
			return err
		}
		res := tx.Exec("DELETE FROM carts WHERE id IN ("+stale+")", cutoff)
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		c.log.Error("failed to purge abandoned carts", zap.Error(err))
		return 0, err
	}
	if removed > 0 {
		c.log.Info("purged abandoned carts", zap.Int64("count", removed))
	}
	return removed, nil
}

// PurgeWebhookEvents удаляет журнал событий шлюза старше WebhookEventTTL.
func (c *CleanupService) PurgeWebhookEvents(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.opt.WebhookEventTTL)

	result := c.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&models.WebhookEvent{})
	if result.Error != nil {
		c.log.Error("failed to purge webhook events", zap.Error(result.Error))
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		c.log.Info("purged webhook events", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// RunFullCleanup выполняет все задачи; ошибка одной задачи не останавливает остальные.
func (c *CleanupService) RunFullCleanup(ctx context.Context) error {
	c.log.Info("starting full cleanup")

	var errs error
	_, err := c.CancelStaleOrders(ctx)
	errs = multierr.Append(errs, err)
	_, err = c.PurgeAbandonedCarts(ctx)
	errs = multierr.Append(errs, err)
	_, err = c.PurgeWebhookEvents(ctx)
	errs = multierr.Append(errs, err)

	if errs != nil {
		c.log.Warn("full cleanup finished with errors", zap.Int("failed", len(multierr.Errors(errs))))
		return errs
	}
	c.log.Info("full cleanup completed")
	return nil
}
