package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"memorial-service/config"
	"memorial-service/internal/cleanup"
	"memorial-service/internal/service"
	"memorial-service/internal/token"
	"memorial-service/pkg/database"
	"memorial-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()

	app := &cli.App{
		Name:  "maintenance",
		Usage: "разовые задачи обслуживания memorial-service",
		Commands: []*cli.Command{
			cleanupCommand("orders", "отменить заказы без намерения оплаты старше STALE_ORDER_AFTER", log,
				func(ctx context.Context, c *cleanup.CleanupService) error {
					_, err := c.CancelStaleOrders(ctx)
					return err
				}),
			cleanupCommand("carts", "удалить брошенные гостевые корзины старше GUEST_CART_TTL", log,
				func(ctx context.Context, c *cleanup.CleanupService) error {
					_, err := c.PurgeAbandonedCarts(ctx)
					return err
				}),
			cleanupCommand("events", "удалить обработанные события вебхуков старше WEBHOOK_EVENT_TTL", log,
				func(ctx context.Context, c *cleanup.CleanupService) error {
					_, err := c.PurgeWebhookEvents(ctx)
					return err
				}),
			cleanupCommand("all", "выполнить полную очистку", log,
				func(ctx context.Context, c *cleanup.CleanupService) error {
					return c.RunFullCleanup(ctx)
				}),
			tokenCommand(log),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal("maintenance failed", zap.Error(err))
	}
}

func cleanupCommand(name, usage string, log *zap.Logger, job func(context.Context, *cleanup.CleanupService) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			cfg := config.LoadMaintenance(log)
			db := database.ConnectDB(&cfg.DB.Config, log)
			defer database.CloseDB(db, log)

			svc := cleanup.NewCleanupService(db, cleanup.Options{
				StaleOrderAfter: cfg.Cleanup.StaleOrderAfter,
				GuestCartTTL:    cfg.Cleanup.GuestCartTTL,
				WebhookEventTTL: cfg.Cleanup.WebhookEventTTL,
			}, log)

			log.Info("running cleanup", zap.String("job", name))
			if err := job(c.Context, svc); err != nil {
				return fmt.Errorf("%s cleanup: %w", name, err)
			}
			log.Info("cleanup completed successfully", zap.String("job", name))
			return nil
		},
	}
}

func tokenCommand(log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "выпустить access-токен HS256 для оператора",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sub", Usage: "id пользователя (uuid)", Required: true},
			&cli.StringFlag{Name: "role", Value: string(service.RoleAdmin), Usage: "ROLE_ADMIN | ROLE_CUSTOMER"},
			&cli.DurationFlag{Name: "ttl", Value: time.Hour, Usage: "время жизни токена"},
		},
		Action: func(c *cli.Context) error {
			sub, err := uuid.Parse(c.String("sub"))
			if err != nil {
				return fmt.Errorf("invalid --sub: %w", err)
			}
			role := service.Role(c.String("role"))
			if role != service.RoleAdmin && role != service.RoleCustomer {
				return fmt.Errorf("invalid --role %q", role)
			}

			cfg := config.LoadMaintenance(log)
			tokens := token.NewHSProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
			tok, exp, err := tokens.SignAccess(c.Context, sub, string(role), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, tok)
			log.Info("token issued", zap.String("sub", sub.String()), zap.String("role", string(role)), zap.Time("expires_at", exp))
			return nil
		},
	}
}
