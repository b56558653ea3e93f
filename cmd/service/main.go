package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memorial-service/config"
	"memorial-service/internal/cache"
	"memorial-service/internal/cleanup"
	"memorial-service/internal/gateway"
	"memorial-service/internal/middleware"
	"memorial-service/internal/producer"
	"memorial-service/internal/repository"
	"memorial-service/internal/router"
	"memorial-service/internal/service"
	"memorial-service/internal/token"
	"memorial-service/pkg/database"
	"memorial-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// @Title Memorial API
// @Version 1.0
// @Description API страниц памяти, соболезнований и мемориальных заказов
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var (
		cacheClient service.CacheClient
		limiter     middleware.Limiter
		closers     []func() error
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("redis connect failed", zap.Error(err))
		}
		cacheClient, limiter = rdb, rdb
		closers = append(closers, rdb.Close)
	} else {
		log.Warn("Redis отключен: кэш и rate limit не работают")
	}

	// Kafka необязательна: без брокеров события и письма не публикуются.
	var (
		events service.EventPublisher
		emails service.EmailProducer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		ep := producer.NewEventProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders)
		mp := producer.NewEmailProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEmail)
		events, emails = ep, mp
		closers = append(closers, ep.Close, mp.Close)
	}

	gw := gateway.NewStripeGateway(gateway.StripeConfig{
		SecretKey:     cfg.Payment.SecretKey,
		WebhookSecret: cfg.Payment.WebhookSecret,
		Timeout:       cfg.Payment.GatewayTimeout,
	}, log)
	tokens := token.NewHSProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)

	carts := service.NewCartService(repos, log)
	deps := router.Deps{
		Payments: service.NewPaymentService(repos, carts, gw, service.PaymentOptions{
			Currency: cfg.Payment.Currency,
			Cache:    cacheClient,
			Events:   events,
			Emails:   emails,
		}, log),
		Obituaries:  service.NewObituaryService(repos, cacheClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second, log),
		Condolences: service.NewCondolenceService(repos, log),
		Tributes:    service.NewTributeService(repos, log),
		Products:    service.NewProductService(repos, log),
		Carts:       carts,
		Orders:      service.NewOrderService(repos, log),
		Tokens:      tokens,
		Limiter:     limiter,
		RateLimit:   router.RateLimitConfig{Window: cfg.Redis.RateLimitWindow},
	}

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router.Router(deps, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := cleanup.NewScheduler(cleanup.NewCleanupService(db, cleanup.Options{
		StaleOrderAfter: cfg.Cleanup.StaleOrderAfter,
		GuestCartTTL:    cfg.Cleanup.GuestCartTTL,
		WebhookEventTTL: cfg.Cleanup.WebhookEventTTL,
	}, log), log)
	scheduler.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting Memorial HTTP server", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down Memorial HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("http server stopped with error", zap.Error(err))
	}

	scheduler.Stop()

	var closeErr error
	for _, c := range closers {
		closeErr = multierr.Append(closeErr, c())
	}
	if closeErr != nil {
		log.Warn("failed to close resources", zap.Error(closeErr))
	}
	log.Info("Memorial HTTP server stopped gracefully")
}
