package cleanup

import (
	"context"
	"testing"
	"time"

	"memorial-service/internal/migrate"
	"memorial-service/internal/models"
	"memorial-service/internal/repository"
	"memorial-service/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*repository.Repository, *CleanupService) {
	t.Helper()
	db := testutil.SetupTestPostgres(t)
	require.NoError(t, migrate.MigrateMemorialDB(context.Background(), db, zap.NewNop(), migrate.DefaultMigrateOptions()))

	svc := NewCleanupService(db, Options{
		StaleOrderAfter: 24 * time.Hour,
		GuestCartTTL:    7 * 24 * time.Hour,
		WebhookEventTTL: 30 * 24 * time.Hour,
	}, zap.NewNop())
	return repository.New(db), svc
}

func newOrder(t *testing.T, repo *repository.Repository, intentID *string) *models.Order {
	t.Helper()
	ctx := context.Background()
	cart := &models.Cart{}
	require.NoError(t, repo.Carts.Create(ctx, cart))
	o := &models.Order{CartID: cart.ID, PaymentIntentID: intentID}
	require.NoError(t, repo.Orders.Create(ctx, o))
	return o
}

func TestCancelStaleOrders_OnlyOrphans(t *testing.T) {
	repo, svc := setup(t)
	ctx := context.Background()

	orphan := newOrder(t, repo, nil)
	intent := "pi_live"
	withIntent := newOrder(t, repo, &intent)

	n, err := svc.CancelStaleOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "fresh orders must be kept")

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	n, err = svc.CancelStaleOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Orders.GetByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, got.PaymentStatus)
	assert.Equal(t, models.OrderCancelled, got.OrderStatus)

	got, err = repo.Orders.GetByID(ctx, withIntent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
}

func TestPurgeAbandonedCarts(t *testing.T) {
	repo, svc := setup(t)
	ctx := context.Background()

	guest := &models.Cart{}
	require.NoError(t, repo.Carts.Create(ctx, guest))
	uid := uuid.New()
	owned := &models.Cart{UserID: &uid}
	require.NoError(t, repo.Carts.Create(ctx, owned))
	ordered := newOrder(t, repo, nil)

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	n, err := svc.PurgeAbandonedCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	c, err := repo.Carts.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = repo.Carts.GetByID(ctx, owned.ID)
	require.NoError(t, err)
	assert.NotNil(t, c)

	c, err = repo.Carts.GetByID(ctx, ordered.CartID)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestRunFullCleanup_PurgesWebhookEvents(t *testing.T) {
	repo, svc := setup(t)
	ctx := context.Background()

	inserted, err := repo.WebhookEvents.Record(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "payment_intent.succeeded"})
	require.NoError(t, err)
	require.True(t, inserted)

	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	require.NoError(t, svc.RunFullCleanup(ctx))

	inserted, err = repo.WebhookEvents.Record(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "payment_intent.succeeded"})
	require.NoError(t, err)
	assert.True(t, inserted, "purged event id can be recorded again")
}
