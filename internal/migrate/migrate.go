package migrate

import (
	"context"

	"memorial-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto, uuid-ossp, pg_trgm
	CreateChecks           bool // CHECK-constraint'ы
	CreateIndexes          bool // составные индексы
	CreateFKsViaSQL        bool // FK через Exec после AutoMigrate
	CreateUpdatedAtTrigger bool // триггеры updated_at
	CreateSearchIndexes    bool // GIN trgm для поиска по именам
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
		CreateSearchIndexes:    true,
	}
}

type step struct {
	name string
	sql  string
}

var updatedAtTables = []string{"obituaries", "products", "carts", "cart_items", "orders", "condolences", "tributes"}

var checks = []step{
	{"chk products.type", `
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_type_allowed,
	ADD CONSTRAINT chk_products_type_allowed
	CHECK (type IN ('tree','flower','gift'));`},
	{"chk products.stock", `
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_stock_non_negative,
	ADD CONSTRAINT chk_products_stock_non_negative
	CHECK (stock IS NULL OR stock >= 0);`},
	{"chk product_variants.price", `
ALTER TABLE product_variants
	DROP CONSTRAINT IF EXISTS chk_product_variants_price_non_negative,
	ADD CONSTRAINT chk_product_variants_price_non_negative
	CHECK (price >= 0 AND (compare_at_price IS NULL OR compare_at_price >= 0));`},
	{"chk cart_items.quantity", `
ALTER TABLE cart_items
	DROP CONSTRAINT IF EXISTS chk_cart_items_quantity_gt_zero,
	ADD CONSTRAINT chk_cart_items_quantity_gt_zero
	CHECK (quantity > 0 AND purchase_price >= 0 AND total_price >= 0);`},
	{"chk cart_items.status", `
ALTER TABLE cart_items
	DROP CONSTRAINT IF EXISTS chk_cart_items_status_allowed,
	ADD CONSTRAINT chk_cart_items_status_allowed
	CHECK (status IN ('Not processed','Processing','Shipped','Delivered','Cancelled'));`},
	{"chk orders.payment_status", `
ALTER TABLE orders
	DROP CONSTRAINT IF EXISTS chk_orders_payment_status_allowed,
	ADD CONSTRAINT chk_orders_payment_status_allowed
	CHECK (payment_status IN ('pending','succeeded','failed','cancelled','refunded'));`},
	{"chk orders.order_status", `
ALTER TABLE orders
	DROP CONSTRAINT IF EXISTS chk_orders_order_status_allowed,
	ADD CONSTRAINT chk_orders_order_status_allowed
	CHECK (order_status IN ('pending','processing','shipped','delivered','cancelled'));`},
	{"chk orders.payment_method", `
ALTER TABLE orders
	DROP CONSTRAINT IF EXISTS chk_orders_payment_method_allowed,
	ADD CONSTRAINT chk_orders_payment_method_allowed
	CHECK (payment_method IN ('card','wallet'));`},
	{"chk orders.totals", `
ALTER TABLE orders
	DROP CONSTRAINT IF EXISTS chk_orders_totals_non_negative,
	ADD CONSTRAINT chk_orders_totals_non_negative
	CHECK (total >= 0 AND total_tax >= 0 AND total_with_tax >= 0 AND refunded_amount >= 0);`},
	{"chk condolences.type", `
ALTER TABLE condolences
	DROP CONSTRAINT IF EXISTS chk_condolences_type_allowed,
	ADD CONSTRAINT chk_condolences_type_allowed
	CHECK (type IN ('message','tree','flower','gift','mixed'));`},
}

var indexes = []step{
	{"ix obituaries published_death", `
CREATE INDEX IF NOT EXISTS ix_obituaries_published_death
ON obituaries (is_published, death_date DESC);`},
	{"ix condolences obituary_created", `
CREATE INDEX IF NOT EXISTS ix_condolences_obituary_created
ON condolences (obituary_id, is_approved, created_at DESC);`},
	{"ix tributes obituary_created", `
CREATE INDEX IF NOT EXISTS ix_tributes_obituary_created
ON tributes (obituary_id, is_approved, created_at DESC);`},
	{"ix carts user_created", `
CREATE INDEX IF NOT EXISTS ix_carts_user_created
ON carts (user_id, created_at DESC);`},
	{"ix orders user_created", `
CREATE INDEX IF NOT EXISTS ix_orders_user_created
ON orders (user_id, created_at DESC);`},
	{"ix orders pending_created", `
CREATE INDEX IF NOT EXISTS ix_orders_pending_created
ON orders (created_at) WHERE payment_status = 'pending';`},
	{"ix products active_type", `
CREATE INDEX IF NOT EXISTS ix_products_active_type
ON products (is_active, type, created_at DESC);`},
	{"ux product_variants product_default", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_product_variants_one_default
ON product_variants (product_id) WHERE is_default;`},
}

var searchIndexes = []step{
	{"gin obituaries names", `
CREATE INDEX IF NOT EXISTS gin_obituaries_names_trgm
ON obituaries USING gin ((first_name || ' ' || middle_name || ' ' || last_name) gin_trgm_ops);`},
	{"gin obituaries location", `
CREATE INDEX IF NOT EXISTS gin_obituaries_location_trgm
ON obituaries USING gin (location gin_trgm_ops);`},
	{"gin products name", `
CREATE INDEX IF NOT EXISTS gin_products_name_trgm
ON products USING gin (name gin_trgm_ops);`},
}

var foreignKeys = []step{
	{"fk condolences.obituary_id", `
ALTER TABLE condolences
  DROP CONSTRAINT IF EXISTS fk_condolences_obituary,
  ADD CONSTRAINT fk_condolences_obituary
    FOREIGN KEY (obituary_id) REFERENCES obituaries(id) ON DELETE CASCADE;`},
	{"fk tributes.obituary_id", `
ALTER TABLE tributes
  DROP CONSTRAINT IF EXISTS fk_tributes_obituary,
  ADD CONSTRAINT fk_tributes_obituary
    FOREIGN KEY (obituary_id) REFERENCES obituaries(id) ON DELETE CASCADE;`},
	{"fk orders.obituary_id", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_obituary,
  ADD CONSTRAINT fk_orders_obituary
    FOREIGN KEY (obituary_id) REFERENCES obituaries(id) ON DELETE SET NULL;`},
	{"fk orders.condolence_id", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_condolence,
  ADD CONSTRAINT fk_orders_condolence
    FOREIGN KEY (condolence_id) REFERENCES condolences(id) ON DELETE SET NULL;`},
	{"fk condolences.order_id", `
ALTER TABLE condolences
  DROP CONSTRAINT IF EXISTS fk_condolences_order,
  ADD CONSTRAINT fk_condolences_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE SET NULL;`},
}

func runSteps(db *gorm.DB, log *zap.Logger, steps []step) error {
	for _, s := range steps {
		if err := db.Exec(s.sql).Error; err != nil {
			log.Error(s.name, zap.Error(err))
			return err
		}
	}
	return nil
}

func MigrateMemorialDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы мемориального сервиса")
	db = db.WithContext(ctx)

	// Расширения
	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("pgcrypto error", zap.Error(err))
			return err
		}
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			log.Error("uuid-ossp error", zap.Error(err))
			return err
		}
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`).Error; err != nil {
			log.Error("pg_trgm error", zap.Error(err))
			return err
		}
		log.Info("Расширения созданы")
	}

	// Таблицы
	log.Info("Создание таблиц")
	if err := db.AutoMigrate(
		&models.Obituary{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.Condolence{},
		&models.Tribute{},
		&models.WebhookEvent{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}
	log.Info("Таблицы созданы")

	// Триггеры updated_at
	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;
`).Error; err != nil {
			log.Error("set_updated_at error", zap.Error(err))
			return err
		}
		for _, table := range updatedAtTables {
			if err := db.Exec(`DROP TRIGGER IF EXISTS trg_` + table + `_updated ON ` + table + `;
CREATE TRIGGER trg_` + table + `_updated BEFORE UPDATE ON ` + table + `
FOR EACH ROW EXECUTE FUNCTION set_updated_at();`).Error; err != nil {
				log.Error("trigger error", zap.String("table", table), zap.Error(err))
				return err
			}
		}
		log.Info("Триггеры созданы")
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := runSteps(db, log, checks); err != nil {
			return err
		}
		log.Info("CHECK-и созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")
		if err := runSteps(db, log, indexes); err != nil {
			return err
		}
		log.Info("Индексы созданы")
	}

	if opt.CreateSearchIndexes {
		log.Info("Создание GIN(trgm) индексов для поиска")
		if err := runSteps(db, log, searchIndexes); err != nil {
			return err
		}
		log.Info("GIN индексы созданы")
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := runSteps(db, log, foreignKeys); err != nil {
			return err
		}
		log.Info("Внешние ключи созданы")
	}

	log.Info("Миграция базы мемориального сервиса успешно завершена")
	return nil
}
