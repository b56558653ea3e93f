package service

import (
	"context"
	"errors"
	"strings"

	"memorial-service/internal/models"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type orderService struct {
	repo   *repository.Repository
	withTx txFunc
	log    *zap.Logger
}

func NewOrderService(repo *repository.Repository, log *zap.Logger) OrderService {
	return &orderService{
		repo:   repo,
		withTx: repo.WithTx,
		log:    log,
	}
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	userID, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	var ord *models.Order
	if role == RoleAdmin {
		ord, err = s.repo.Orders.GetByID(ctx, id)
	} else {
		ord, err = s.repo.Orders.GetByIDForUser(ctx, id, userID)
	}
	if err != nil {
		return nil, err
	}
	if ord == nil || ord.Cart == nil {
		return nil, ErrOrderNotFound
	}
	return ord, nil
}

func (s *orderService) ListMine(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	userID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.Orders.List(ctx, repository.OrderListFilter{
		UserID: &userID,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

func (s *orderService) ListAll(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.Orders.List(ctx, repository.OrderListFilter{Limit: f.Limit, Offset: f.Offset})
}

func (s *orderService) Search(ctx context.Context, query string) ([]models.Order, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(query))
	if err != nil {
		return []models.Order{}, nil
	}

	ord, err := s.GetOrder(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return []models.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []models.Order{*ord}, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, invalid("status", "unknown order status")
	}

	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if ord.OrderStatus == to {
		return ord, nil
	}
	// Отгрузка возможна только по оплаченному заказу.
	if to != models.OrderCancelled && ord.PaymentStatus != models.PaymentSucceeded {
		return nil, ErrInvalidTransition
	}
	if !models.CanTransitionOrder(ord.OrderStatus, to) {
		return nil, ErrInvalidTransition
	}

	err = s.withTx(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Orders.TransitionOrder(ctx, id, []models.OrderStatus{ord.OrderStatus}, to)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		if to == models.OrderCancelled {
			return restoreStock(ctx, tx, ord, s.log)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order status updated",
		zap.String("order_id", id.String()),
		zap.String("from", string(ord.OrderStatus)),
		zap.String("to", string(to)))

	return s.repo.Orders.GetByID(ctx, id)
}

func (s *orderService) UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status models.CartItemStatus) (*ItemStatusResult, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = models.CartItemCancelled
	}
	if !status.Valid() {
		return nil, invalid("status", "unknown item status")
	}
	// Покупатель может только отменить позицию.
	if role != RoleAdmin && status != models.CartItemCancelled {
		return nil, ErrForbidden
	}

	ord, err := s.repo.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil || (role != RoleAdmin && (ord.UserID == nil || *ord.UserID != uid)) {
		return nil, ErrOrderNotFound
	}

	orderCancelled := false
	err = s.withTx(ctx, func(tx *repository.Repository) error {
		// Флаг склада и состав корзины читаются под блокировкой строки заказа.
		cur, err := tx.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrOrderNotFound
		}
		// Сумма выданного намерения уже зафиксирована: отменять позиции до исхода оплаты нельзя.
		if cur.PaymentStatus == models.PaymentPending && cur.PaymentIntentID != nil {
			return ErrInvalidTransition
		}

		var item *models.CartItem
		if cur.Cart != nil {
			for i := range cur.Cart.Items {
				if cur.Cart.Items[i].ID == itemID {
					item = &cur.Cart.Items[i]
					break
				}
			}
		}
		if item == nil {
			return ErrCartItemNotFound
		}

		changed, err := tx.Carts.UpdateItemStatus(ctx, itemID, status)
		if err != nil || !changed {
			return err
		}
		if status != models.CartItemCancelled {
			return nil
		}

		if cur.StockCommitted {
			if _, err := tx.Products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		remaining := 0
		for _, it := range cur.Cart.Items {
			if it.ID != itemID && it.Status != models.CartItemCancelled {
				remaining++
			}
		}
		if remaining > 0 {
			return nil
		}

		ok, err := tx.Orders.TransitionOrder(ctx, ord.ID, models.OrderSources(models.OrderCancelled), models.OrderCancelled)
		if err != nil {
			return err
		}
		orderCancelled = ok
		// Все позиции уже возвращены на склад поштучно.
		_, err = tx.Orders.SetStockCommitted(ctx, ord.ID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	if orderCancelled {
		s.log.Info("all items cancelled, order cancelled", zap.String("order_id", ord.ID.String()))
	}
	fresh, err := s.repo.Orders.GetByID(ctx, ord.ID)
	if err != nil {
		return nil, err
	}
	return &ItemStatusResult{Order: fresh, OrderCancelled: orderCancelled}, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ord == nil {
		return ErrOrderNotFound
	}
	switch ord.PaymentStatus {
	case models.PaymentPending, models.PaymentFailed, models.PaymentCancelled:
	default:
		return ErrOrderNotDeletable
	}

	err = s.withTx(ctx, func(tx *repository.Repository) error {
		if err := restoreStock(ctx, tx, ord, s.log); err != nil {
			return err
		}
		if _, err := tx.Orders.Delete(ctx, id); err != nil {
			return err
		}
		_, err := tx.Carts.Delete(ctx, ord.CartID)
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info("order deleted", zap.String("order_id", id.String()))
	return nil
}
