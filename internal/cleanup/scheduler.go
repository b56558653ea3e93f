package cleanup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	cleanup  *CleanupService
	log      *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(cleanup *CleanupService, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cleanup: cleanup,
		log:     log,
		stopCh:  make(chan struct{}),
	}
}

// Start запускает планировщик задач
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting cleanup scheduler")

	s.every(ctx, "stale orders", 15*time.Minute, true, func(ctx context.Context) error {
		_, err := s.cleanup.CancelStaleOrders(ctx)
		return err
	})
	s.every(ctx, "abandoned carts", 6*time.Hour, false, func(ctx context.Context) error {
		_, err := s.cleanup.PurgeAbandonedCarts(ctx)
		return err
	})
	s.every(ctx, "webhook events", 24*time.Hour, false, func(ctx context.Context) error {
		_, err := s.cleanup.PurgeWebhookEvents(ctx)
		return err
	})
}

// Stop останавливает планировщик и ждёт завершения текущих задач
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("stopping cleanup scheduler")
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) every(ctx context.Context, name string, interval time.Duration, immediate bool, job func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if immediate {
			if err := job(ctx); err != nil {
				s.log.Error("initial cleanup failed", zap.String("job", name), zap.Error(err))
			}
		}

		for {
			select {
			case <-ticker.C:
				if err := job(ctx); err != nil {
					s.log.Error("cleanup failed", zap.String("job", name), zap.Error(err))
				}
			case <-s.stopCh:
				s.log.Info("cleanup stopped", zap.String("job", name))
				return
			case <-ctx.Done():
				s.log.Info("cleanup cancelled", zap.String("job", name))
				return
			}
		}
	}()
}

// RunOnceNow выполняет полную очистку немедленно
func (s *Scheduler) RunOnceNow(ctx context.Context) error {
	return s.cleanup.RunFullCleanup(ctx)
}
