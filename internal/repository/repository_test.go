package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"memorial-service/internal/migrate"
	"memorial-service/internal/models"
	"memorial-service/internal/repository"
	"memorial-service/pkg/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func setupRepo(t *testing.T) *repository.Repository {
	t.Helper()
	db := testutil.SetupTestPostgres(t)

	if err := migrate.MigrateMemorialDB(context.Background(), db, zap.NewNop(), migrate.DefaultMigrateOptions()); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return repository.New(db)
}

func newProduct(t *testing.T, repo *repository.Repository, sku string, stock *int32) *models.Product {
	t.Helper()
	p := &models.Product{
		SKU:        sku,
		Name:       "Rose " + sku,
		Slug:       "rose-" + sku,
		Type:       models.ProductTypeFlower,
		IsActive:   true,
		Stock:      stock,
		Highlights: []string{},
		Variants: []models.ProductVariant{
			{Name: "Bouquet", Quantity: 1, Price: decimal.RequireFromString("19.99"), IsDefault: true, IsActive: true},
		},
	}
	if err := repo.Products.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return p
}

func TestProductRepo_AdjustStock(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	stock := int32(2)
	p := newProduct(t, repo, "R1", &stock)

	if ok, err := repo.Products.AdjustStock(ctx, p.ID, -2); err != nil || !ok {
		t.Fatalf("expected stock to be taken: ok=%v err=%v", ok, err)
	}
	// остаток не уходит в минус
	if ok, err := repo.Products.AdjustStock(ctx, p.ID, -1); err != nil || ok {
		t.Fatalf("expected adjust to be rejected: ok=%v err=%v", ok, err)
	}

	got, err := repo.Products.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("failed to get product: %v", err)
	}
	if got.Stock == nil || *got.Stock != 0 {
		t.Fatalf("stock = %v, want 0", got.Stock)
	}

	// товар без учёта остатка всегда проходит
	untracked := newProduct(t, repo, "R2", nil)
	if ok, err := repo.Products.AdjustStock(ctx, untracked.ID, -100); err != nil || !ok {
		t.Fatalf("untracked stock must pass: ok=%v err=%v", ok, err)
	}
	got, _ = repo.Products.GetByID(ctx, untracked.ID)
	if got.Stock != nil {
		t.Fatalf("untracked stock became %d", *got.Stock)
	}
}

func TestProductRepo_UniqueSKUAndSlug(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	p := newProduct(t, repo, "R1", nil)

	dup := &models.Product{SKU: p.SKU, Name: "x", Slug: "other", Type: models.ProductTypeTree, Highlights: []string{}}
	if err := repo.Products.Create(ctx, dup); err == nil {
		t.Fatal("expected unique constraint error on sku, got nil")
	}

	if exists, err := repo.Products.SlugExists(ctx, p.Slug); err != nil || !exists {
		t.Fatalf("expected slug to exist: %v %v", exists, err)
	}
	if missing, err := repo.Products.GetBySKU(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("expected nil,nil for missing sku, got %v %v", missing, err)
	}
}

func TestOrderRepo_TransitionPaymentIsCAS(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	cart := &models.Cart{}
	if err := repo.Carts.Create(ctx, cart); err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	intent := "pi_cas"
	o := &models.Order{CartID: cart.ID, PaymentIntentID: &intent}
	if err := repo.Orders.Create(ctx, o); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	from := models.PaymentSources(models.PaymentSucceeded)
	ok, err := repo.Orders.TransitionPayment(ctx, o.ID, from, models.PaymentSucceeded, map[string]any{"paid_at": time.Now()})
	if err != nil || !ok {
		t.Fatalf("first transition must apply: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Orders.TransitionPayment(ctx, o.ID, from, models.PaymentSucceeded, nil)
	if err != nil || ok {
		t.Fatalf("second transition must be a no-op: ok=%v err=%v", ok, err)
	}

	got, err := repo.Orders.GetByPaymentIntent(ctx, intent)
	if err != nil || got == nil {
		t.Fatalf("failed to get order by intent: %v", err)
	}
	if got.PaymentStatus != models.PaymentSucceeded || got.OrderStatus != models.OrderProcessing {
		t.Fatalf("status = %s/%s, want succeeded/processing", got.PaymentStatus, got.OrderStatus)
	}
	if got.PaidAt == nil {
		t.Fatal("paid_at not set")
	}

	if ok, _ := repo.Orders.SetStockCommitted(ctx, o.ID, true); !ok {
		t.Fatal("expected stock flag to flip")
	}
	if ok, _ := repo.Orders.SetStockCommitted(ctx, o.ID, true); ok {
		t.Fatal("stock flag flipped twice")
	}

	// на каждую корзину не более одного заказа
	if err := repo.Orders.Create(ctx, &models.Order{CartID: cart.ID}); err == nil {
		t.Fatal("expected unique cart_id violation, got nil")
	}
}

func TestOrderRepo_GetByIDForUpdate(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	p := newProduct(t, repo, "R1", nil)

	cart := &models.Cart{Items: []models.CartItem{
		{ProductID: p.ID, Quantity: 2, PurchasePrice: decimal.RequireFromString("19.99"), TotalPrice: decimal.RequireFromString("39.98")},
	}}
	if err := repo.Carts.Create(ctx, cart); err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	o := &models.Order{CartID: cart.ID}
	if err := repo.Orders.Create(ctx, o); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		got, err := tx.Orders.GetByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		if got == nil || got.Cart == nil || len(got.Cart.Items) != 1 {
			t.Fatalf("expected locked order with its cart items, got %+v", got)
		}
		missing, err := tx.Orders.GetByIDForUpdate(ctx, uuid.New())
		if err != nil || missing != nil {
			t.Fatalf("expected nil,nil for missing order, got %v %v", missing, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestWebhookEventRepo_RecordDedupes(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	ev := &models.WebhookEvent{EventID: "evt_1", EventType: "payment_intent.succeeded", ProcessedAt: time.Now()}
	inserted, err := repo.WebhookEvents.Record(ctx, ev)
	if err != nil || !inserted {
		t.Fatalf("first record must insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = repo.WebhookEvents.Record(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "payment_intent.succeeded", ProcessedAt: time.Now()})
	if err != nil || inserted {
		t.Fatalf("duplicate must be skipped: inserted=%v err=%v", inserted, err)
	}
}

func TestWithTx_RollsBackAllRepositories(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	stock := int32(3)
	p := newProduct(t, repo, "R1", &stock)

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Products.AdjustStock(ctx, p.ID, -3); err != nil {
			return err
		}
		if _, err := tx.WebhookEvents.Record(ctx, &models.WebhookEvent{EventID: "evt_tx", EventType: "x", ProcessedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, _ := repo.Products.GetByID(ctx, p.ID)
	if got.Stock == nil || *got.Stock != 3 {
		t.Fatalf("stock = %v, want 3 after rollback", got.Stock)
	}
	if inserted, err := repo.WebhookEvents.Record(ctx, &models.WebhookEvent{EventID: "evt_tx", EventType: "x", ProcessedAt: time.Now()}); err != nil || !inserted {
		t.Fatalf("event must be absent after rollback: inserted=%v err=%v", inserted, err)
	}
}

func TestObituaryRepo_SearchAndSlug(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	o := &models.Obituary{FirstName: "Margaret", LastName: "Thompson", Slug: "margaret-thompson", IsPublished: true}
	if err := repo.Obituaries.Create(ctx, o); err != nil {
		t.Fatalf("failed to create obituary: %v", err)
	}

	got, err := repo.Obituaries.GetBySlug(ctx, "margaret-thompson")
	if err != nil || got == nil || got.ID != o.ID {
		t.Fatalf("GetBySlug = %v, %v", got, err)
	}
	if got.Location != "Unknown" {
		t.Fatalf("location default = %q, want Unknown", got.Location)
	}

	found, err := repo.Obituaries.Search(ctx, "thomp", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != o.ID {
		t.Fatalf("search returned %d results", len(found))
	}

	if missing, err := repo.Obituaries.GetBySlug(ctx, "nobody"); err != nil || missing != nil {
		t.Fatalf("expected nil,nil for missing slug, got %v %v", missing, err)
	}
}
