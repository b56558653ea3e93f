package service

import (
	"context"
	"strconv"
	"time"

	"memorial-service/internal/models"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type cartService struct {
	repo   *repository.Repository
	withTx txFunc
	log    *zap.Logger
	now    func() time.Time
}

func NewCartService(repo *repository.Repository, log *zap.Logger) CartService {
	return &cartService{
		repo:   repo,
		withTx: repo.WithTx,
		log:    log,
		now:    time.Now,
	}
}

func activeItems(c *models.Cart) []models.CartItem {
	if c == nil {
		return nil
	}
	out := make([]models.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Status != models.CartItemCancelled {
			out = append(out, it)
		}
	}
	return out
}

// canAccess: гостевая корзина доступна по id, пользовательская — владельцу и админу.
func canAccess(ctx context.Context, c *models.Cart) bool {
	if c.UserID == nil {
		return true
	}
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return false
	}
	return role == RoleAdmin || uid == *c.UserID
}

func (s *cartService) Resolve(ctx context.Context, in ResolveCartInput) (*models.Cart, error) {
	if in.CartID != nil {
		c, err := s.repo.Carts.GetByID(ctx, *in.CartID)
		if err != nil {
			return nil, err
		}
		switch {
		case c == nil:
			s.log.Info("cart id not found, falling through", zap.String("cart_id", in.CartID.String()))
		case !canAccess(ctx, c):
			return nil, ErrForbidden
		case len(activeItems(c)) > 0:
			return c, nil
		}
	}

	if uid := optionalUser(ctx); uid != nil {
		c, err := s.repo.Carts.GetLatestByUser(ctx, *uid)
		if err != nil {
			return nil, err
		}
		if len(activeItems(c)) > 0 {
			return c, nil
		}
	}

	if len(in.Products) > 0 {
		return s.Create(ctx, in.Products)
	}

	return nil, ErrCartNotFound
}

func (s *cartService) buildItems(ctx context.Context, products []CartProductInput) ([]models.CartItem, error) {
	ids := make([]uuid.UUID, 0, len(products))
	for i, p := range products {
		if p.ProductID == uuid.Nil {
			return nil, invalid("products["+strconv.Itoa(i)+"].product", "is required")
		}
		if p.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		ids = append(ids, p.ProductID)
	}

	found, err := s.repo.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	now := s.now()
	items := make([]models.CartItem, 0, len(products))
	for _, in := range products {
		p, ok := byID[in.ProductID]
		if !ok || !p.IsActive {
			return nil, ErrProductsUnavailable
		}

		it := models.CartItem{
			ProductID: p.ID,
			Quantity:  in.Quantity,
			Status:    models.CartItemNotProcessed,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if v := p.ResolveVariant(in.VariantSKU, in.VariantName); v != nil {
			name := v.Name
			it.VariantName = &name
			if v.SKU != "" {
				sku := v.SKU
				it.VariantSKU = &sku
			}
			it.PurchasePrice = v.Price
		} else if in.Price != nil && !in.Price.IsNegative() {
			s.log.Warn("no catalog price, using client price",
				zap.String("product_id", p.ID.String()), zap.String("price", in.Price.String()))
			it.PurchasePrice = *in.Price
		} else {
			return nil, ErrProductsUnavailable
		}

		it.PurchasePrice = it.PurchasePrice.Round(2)
		it.TotalPrice = it.PurchasePrice.Mul(decimal.NewFromInt32(it.Quantity)).Round(2)
		items = append(items, it)
	}
	return items, nil
}

func (s *cartService) Create(ctx context.Context, products []CartProductInput) (*models.Cart, error) {
	if len(products) == 0 {
		return nil, ErrCartNotFound
	}
	items, err := s.buildItems(ctx, products)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Cart{
		UserID:    optionalUser(ctx),
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Carts.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("cart created", zap.String("cart_id", c.ID.String()), zap.Int("items", len(items)))

	return s.repo.Carts.GetByID(ctx, c.ID)
}

func (s *cartService) load(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	c, err := s.repo.Carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	if !canAccess(ctx, c) {
		return nil, ErrForbidden
	}
	return c, nil
}

// ensureEditable: корзину нельзя менять, если по заказу уже выдано намерение оплаты
// или платёж завершён. Иначе оплаченная сумма разойдётся с составом корзины.
func (s *cartService) ensureEditable(ctx context.Context, cartID uuid.UUID) error {
	ord, err := s.repo.Orders.GetByCartID(ctx, cartID)
	if err != nil {
		return err
	}
	if ord != nil && (ord.PaymentStatus != models.PaymentPending || ord.PaymentIntentID != nil) {
		return ErrCartAlreadyOrdered
	}
	return nil
}

func (s *cartService) Get(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return s.load(ctx, cartID)
}

func (s *cartService) AddItem(ctx context.Context, cartID uuid.UUID, in CartProductInput) (*models.Cart, error) {
	if _, err := s.load(ctx, cartID); err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, cartID); err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, []CartProductInput{in})
	if err != nil {
		return nil, err
	}
	item := items[0]
	item.CartID = cartID

	err = s.withTx(ctx, func(tx *repository.Repository) error {
		existing, err := tx.Carts.FindItem(ctx, cartID, item.ProductID, item.VariantSKU)
		if err != nil {
			return err
		}
		if existing == nil {
			return tx.Carts.AddItem(ctx, &item)
		}

		qty := existing.Quantity + item.Quantity
		return tx.Carts.UpdateItemFields(ctx, existing.ID, map[string]any{
			"quantity":       qty,
			"purchase_price": item.PurchasePrice,
			"total_price":    item.PurchasePrice.Mul(decimal.NewFromInt32(qty)).Round(2),
			"status":         models.CartItemNotProcessed,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Carts.GetByID(ctx, cartID)
}

func (s *cartService) RemoveProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.Cart, error) {
	if _, err := s.load(ctx, cartID); err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, cartID); err != nil {
		return nil, err
	}

	n, err := s.repo.Carts.RemoveProduct(ctx, cartID, productID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrCartItemNotFound
	}
	return s.repo.Carts.GetByID(ctx, cartID)
}

func (s *cartService) Delete(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.load(ctx, cartID); err != nil {
		return err
	}
	ord, err := s.repo.Orders.GetByCartID(ctx, cartID)
	if err != nil {
		return err
	}
	if ord != nil {
		return ErrCartAlreadyOrdered
	}
	_, err = s.repo.Carts.Delete(ctx, cartID)
	return err
}
