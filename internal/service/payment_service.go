package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"memorial-service/internal/models"
	"memorial-service/internal/producer"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultRefundReason = "requested_by_customer"
	webhookSeenTTL      = 24 * time.Hour
	webhookSeenPrefix   = "webhook:event:"
)

// savepointFunc выполняет fn во вложенной транзакции (SAVEPOINT) поверх tx.
type savepointFunc func(ctx context.Context, tx *repository.Repository, fn func(sp *repository.Repository) error) error

func repoSavepoint(ctx context.Context, tx *repository.Repository, fn func(sp *repository.Repository) error) error {
	return tx.WithTx(ctx, fn)
}

type PaymentOptions struct {
	Currency string
	// Необязательные зависимости: nil отключает соответствующую функцию.
	Cache  CacheClient
	Events EventPublisher
	Emails EmailProducer
}

type paymentService struct {
	repo      *repository.Repository
	withTx    txFunc
	savepoint savepointFunc
	carts     CartService
	gateway   PaymentGateway
	cache     CacheClient
	events    EventPublisher
	emails    EmailProducer
	currency  string
	log       *zap.Logger
	now       func() time.Time
}

func NewPaymentService(repo *repository.Repository, carts CartService, gateway PaymentGateway, opt PaymentOptions, log *zap.Logger) PaymentService {
	currency := strings.ToLower(strings.TrimSpace(opt.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &paymentService{
		repo:      repo,
		withTx:    repo.WithTx,
		savepoint: repoSavepoint,
		carts:     carts,
		gateway:   gateway,
		cache:     opt.Cache,
		events:    opt.Events,
		emails:    opt.Emails,
		currency:  currency,
		log:       log,
		now:       time.Now,
	}
}

// checkAvailability сверяет суммарное количество по каждому товару с остатком.
func checkAvailability(c *models.Cart) error {
	need := make(map[uuid.UUID]int64)
	stock := make(map[uuid.UUID]*int32)
	for _, it := range activeItems(c) {
		need[it.ProductID] += int64(it.Quantity)
		if it.Product != nil {
			stock[it.ProductID] = it.Product.Stock
		}
	}
	for pid, qty := range need {
		if st := stock[pid]; st != nil && int64(*st) < qty {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, pid)
		}
	}
	return nil
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, in CreateIntentInput) (*IntentResult, error) {
	cart, err := s.carts.Resolve(ctx, ResolveCartInput{CartID: in.CartID, Products: in.Products})
	if err != nil {
		return nil, err
	}
	if len(activeItems(cart)) == 0 {
		return nil, ErrCartNotFound
	}
	if err := checkAvailability(cart); err != nil {
		return nil, err
	}

	totals := ComputeTotals(cart.Subtotal())
	amountMinor := ToMinorUnits(totals.TotalWithTax)
	if amountMinor <= 0 {
		return nil, invalid("amount", "must be > 0")
	}

	ord, err := s.pendingOrder(ctx, cart, in)
	if err != nil {
		return nil, err
	}
	reusable, err := s.settlePreviousIntent(ctx, ord, amountMinor)
	if err != nil {
		return nil, err
	}

	ord.Total = totals.Subtotal
	ord.TotalTax = totals.Tax
	ord.TotalWithTax = totals.TotalWithTax
	ord.Currency = s.currency
	applyCheckoutDetails(ord, in)

	if ord.ID == uuid.Nil {
		if err := s.repo.Orders.Create(ctx, ord); err != nil {
			return nil, err
		}
		s.log.Info("order created", zap.String("order_id", ord.ID.String()), zap.String("cart_id", cart.ID.String()))
	} else {
		err := s.repo.Orders.SaveColumns(ctx, ord,
			"total", "total_tax", "total_with_tax", "currency", "user_id", "payment_method",
			"billing", "shipping", "obituary_id", "obituary_name", "dedication_message", "order_notes")
		if err != nil {
			return nil, err
		}
	}

	if reusable != nil {
		return intentResult(reusable, ord, amountMinor, totals), nil
	}

	meta := map[string]string{
		"order_id": ord.ID.String(),
		"cart_id":  cart.ID.String(),
	}
	if ord.ObituaryID != nil {
		meta["obituary_id"] = ord.ObituaryID.String()
	}
	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountMinor: amountMinor,
		Currency:    s.currency,
		Metadata:    meta,
		Description: "Memorial order " + ord.ID.String(),
	})
	if err != nil {
		s.log.Error("create intent failed", zap.String("order_id", ord.ID.String()), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Orders.UpdateFields(ctx, ord.ID, map[string]any{"payment_intent_id": intent.ID}); err != nil {
		return nil, err
	}
	s.log.Info("payment intent created",
		zap.String("order_id", ord.ID.String()),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", amountMinor))

	return intentResult(intent, ord, amountMinor, totals), nil
}

func intentResult(intent *Intent, ord *models.Order, amountMinor int64, totals Totals) *IntentResult {
	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		OrderID:         ord.ID,
		CartID:          ord.CartID,
		AmountMinor:     amountMinor,
		Tax:             totals.Tax,
	}
}

// pendingOrder возвращает неоплаченный заказ корзины или новый несохранённый заказ.
func (s *paymentService) pendingOrder(ctx context.Context, cart *models.Cart, in CreateIntentInput) (*models.Order, error) {
	var (
		ord *models.Order
		err error
	)
	if in.OrderID != nil {
		ord, err = s.repo.Orders.GetByID(ctx, *in.OrderID)
		if err != nil {
			return nil, err
		}
		if ord != nil && ord.CartID != cart.ID {
			ord = nil
		}
	}
	if ord == nil {
		ord, err = s.repo.Orders.GetByCartID(ctx, cart.ID)
		if err != nil {
			return nil, err
		}
	}

	if ord != nil {
		if ord.PaymentStatus != models.PaymentPending {
			return nil, ErrCartAlreadyOrdered
		}
		return ord, nil
	}

	userID := cart.UserID
	if uid := optionalUser(ctx); uid != nil {
		userID = uid
	}
	return &models.Order{
		CartID:        cart.ID,
		UserID:        userID,
		PaymentStatus: models.PaymentPending,
		OrderStatus:   models.OrderPending,
		PaymentMethod: models.PaymentMethodCard,
	}, nil
}

func applyCheckoutDetails(ord *models.Order, in CreateIntentInput) {
	if in.Billing != nil {
		ord.Billing = *in.Billing
	}
	if in.Shipping != nil {
		ord.Shipping = *in.Shipping
	}
	if in.PaymentMethod != "" {
		ord.PaymentMethod = in.PaymentMethod
	}
	if notes := strings.TrimSpace(in.OrderNotes); notes != "" {
		ord.OrderNotes = &notes
	}
	applyMemorial(ord, in.Memorial)
}

// applyMemorial заполняет привязку к странице памяти, только если заказ ещё не привязан.
func applyMemorial(ord *models.Order, m MemorialLink) bool {
	if ord.ObituaryID != nil || m.ObituaryID == nil {
		return false
	}
	id := *m.ObituaryID
	ord.ObituaryID = &id
	if name := strings.TrimSpace(m.ObituaryName); name != "" {
		ord.ObituaryName = &name
	}
	if msg := strings.TrimSpace(m.DedicationMessage); msg != "" {
		ord.DedicationMessage = &msg
	}
	return true
}

// settlePreviousIntent разбирается с намерением, уже выданным заказу.
// Оплаченное намерение проводится по заказу, и новое не создаётся (ErrCartAlreadyOrdered).
// Ожидающее оплаты намерение на ту же сумму переиспользуется, на другую сумму отменяется.
// Если шлюз недоступен, прежний id не перезаписывается.
func (s *paymentService) settlePreviousIntent(ctx context.Context, ord *models.Order, amountMinor int64) (*Intent, error) {
	if ord.ID == uuid.Nil || ord.PaymentIntentID == nil {
		return nil, nil
	}
	prev, err := s.gateway.RetrieveIntent(ctx, *ord.PaymentIntentID)
	if err != nil {
		s.log.Warn("retrieve previous intent failed", zap.String("intent_id", *ord.PaymentIntentID), zap.Error(err))
		return nil, err
	}

	switch prev.Status {
	case IntentStatusSucceeded:
		return nil, s.settlePaidIntent(ctx, ord, prev)
	case IntentStatusCanceled:
		return nil, nil
	}
	if prev.AmountMinor == amountMinor {
		return prev, nil
	}

	cancelled, err := s.gateway.CancelIntent(ctx, prev.ID)
	if err != nil {
		s.log.Warn("cancel previous intent failed", zap.String("intent_id", prev.ID), zap.Error(err))
		return nil, err
	}
	if cancelled.Status == IntentStatusSucceeded {
		return nil, s.settlePaidIntent(ctx, ord, cancelled)
	}
	return nil, nil
}

func (s *paymentService) settlePaidIntent(ctx context.Context, ord *models.Order, intent *Intent) error {
	s.log.Info("previous intent already paid, completing order",
		zap.String("order_id", ord.ID.String()), zap.String("intent_id", intent.ID))
	if _, err := s.completePayment(ctx, ord.ID, intent.AmountMinor); err != nil {
		return err
	}
	return ErrCartAlreadyOrdered
}

func (s *paymentService) ConfirmPayment(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	intentID := strings.TrimSpace(in.PaymentIntentID)
	if intentID == "" {
		return nil, ErrPaymentIntentRequired
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != IntentStatusSucceeded {
		return nil, &PaymentNotCompletedError{Status: intent.Status}
	}

	ord, err := s.findOrderForIntent(ctx, in.OrderID, intent)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if ord.PaymentIntentID != nil && *ord.PaymentIntentID != intentID {
		return nil, ErrIntentMismatch
	}

	if ord.PaymentStatus == models.PaymentPending {
		var cols []string
		if ord.PaymentIntentID == nil {
			ord.PaymentIntentID = &intentID
			cols = append(cols, "payment_intent_id")
		}
		if applyMemorial(ord, in.Memorial) {
			cols = append(cols, "obituary_id", "obituary_name", "dedication_message")
		}
		if in.Billing != nil && ord.Billing.Name == "" && ord.Billing.Email == "" {
			ord.Billing = *in.Billing
			cols = append(cols, "billing")
		}
		if err := s.repo.Orders.SaveColumns(ctx, ord, cols...); err != nil {
			return nil, err
		}
	}

	if _, err := s.completePayment(ctx, ord.ID, intent.AmountMinor); err != nil {
		return nil, err
	}

	fresh, err := s.repo.Orders.GetByID(ctx, ord.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, ErrOrderNotFound
	}
	return &ConfirmResult{Order: fresh, CondolenceCreated: fresh.CondolenceID != nil}, nil
}

func (s *paymentService) findOrderForIntent(ctx context.Context, orderID *uuid.UUID, intent *Intent) (*models.Order, error) {
	if orderID != nil {
		return s.repo.Orders.GetByID(ctx, *orderID)
	}
	ord, err := s.repo.Orders.GetByPaymentIntent(ctx, intent.ID)
	if err != nil || ord != nil {
		return ord, err
	}
	if raw := intent.Metadata["order_id"]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return s.repo.Orders.GetByID(ctx, id)
		}
	}
	return nil, nil
}

// completePayment — единственный путь перевода заказа в оплаченный: используется подтверждением
// и вебхуком payment_intent.succeeded. Повторный вызов ничего не меняет.
// paidMinor — сумма оплаченного намерения, она должна совпасть с итогом заказа.
func (s *paymentService) completePayment(ctx context.Context, orderID uuid.UUID, paidMinor int64) (bool, error) {
	var (
		ord  *models.Order
		done bool
	)
	err := s.withTx(ctx, func(tx *repository.Repository) error {
		var err error
		ord, done, err = s.completeInTx(ctx, tx, orderID, paidMinor)
		return err
	})
	if err != nil {
		return false, err
	}
	if done {
		s.afterPaid(ctx, ord)
	} else {
		s.log.Info("payment already applied", zap.String("order_id", orderID.String()))
	}
	return done, nil
}

func (s *paymentService) completeInTx(ctx context.Context, tx *repository.Repository, orderID uuid.UUID, paidMinor int64) (*models.Order, bool, error) {
	cur, err := tx.Orders.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if cur == nil {
		return nil, false, ErrOrderNotFound
	}
	if !models.CanTransitionPayment(cur.PaymentStatus, models.PaymentSucceeded) {
		return nil, false, nil
	}
	if expected := ToMinorUnits(cur.TotalWithTax); paidMinor != expected {
		s.log.Error("paid amount differs from order total, order left pending",
			zap.String("order_id", orderID.String()),
			zap.Int64("paid", paidMinor),
			zap.Int64("expected", expected))
		return nil, false, fmt.Errorf("%w: paid %d, expected %d", ErrPaymentAmountMismatch, paidMinor, expected)
	}

	paidAt := s.now()
	ok, err := tx.Orders.TransitionPayment(ctx, orderID,
		models.PaymentSources(models.PaymentSucceeded), models.PaymentSucceeded,
		map[string]any{"paid_at": paidAt})
	if err != nil || !ok {
		return nil, false, err
	}

	ord, err := tx.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if ord == nil {
		return nil, false, ErrOrderNotFound
	}

	if err := s.commitStock(ctx, tx, ord); err != nil {
		return nil, false, err
	}

	if ord.ObituaryID != nil {
		if id := s.attachCondolence(ctx, tx, ord); id != nil {
			ord.CondolenceID = id
		}
	}
	return ord, true, nil
}

func (s *paymentService) commitStock(ctx context.Context, tx *repository.Repository, ord *models.Order) error {
	ok, err := tx.Orders.SetStockCommitted(ctx, ord.ID, true)
	if err != nil || !ok {
		return err
	}
	var items []models.CartItem
	if ord.Cart != nil {
		items = activeItems(ord.Cart)
	}
	for _, it := range items {
		ok, err := tx.Products.AdjustStock(ctx, it.ProductID, -it.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Error("stock exhausted on payment",
				zap.String("order_id", ord.ID.String()),
				zap.String("product_id", it.ProductID.String()),
				zap.Int32("quantity", it.Quantity))
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, it.ProductID)
		}
	}
	ord.StockCommitted = true
	return nil
}

// attachCondolence создаёт соболезнование заказа в SAVEPOINT: ошибка откатывает только его.
func (s *paymentService) attachCondolence(ctx context.Context, tx *repository.Repository, ord *models.Order) *uuid.UUID {
	lines := MemorialLines(ord.Cart)
	if len(lines) == 0 {
		return nil
	}

	existing, err := tx.Condolences.GetByOrderID(ctx, ord.ID)
	if err != nil {
		s.log.Error("lookup order condolence failed", zap.String("order_id", ord.ID.String()), zap.Error(err))
		return nil
	}
	if existing != nil {
		return &existing.ID
	}

	in := OrderCondolenceInput{
		ObituaryID:   *ord.ObituaryID,
		OrderID:      ord.ID,
		CustomerName: ord.Billing.Name,
		Lines:        lines,
	}
	in.CustomerEmail = ord.Billing.Email
	if ord.DedicationMessage != nil {
		in.DedicationMessage = *ord.DedicationMessage
	}
	c, err := BuildOrderCondolence(in)
	if err != nil {
		s.log.Error("build condolence failed", zap.String("order_id", ord.ID.String()), zap.Error(err))
		return nil
	}

	err = s.savepoint(ctx, tx, func(sp *repository.Repository) error {
		if err := sp.Condolences.Create(ctx, c); err != nil {
			return err
		}
		return sp.Orders.UpdateFields(ctx, ord.ID, map[string]any{"condolence_id": c.ID})
	})
	if err != nil {
		s.log.Error("condolence not created, payment kept",
			zap.String("order_id", ord.ID.String()), zap.Error(err))
		return nil
	}
	s.log.Info("condolence created from order",
		zap.String("order_id", ord.ID.String()),
		zap.String("condolence_id", c.ID.String()),
		zap.String("type", string(c.Type)))
	return &c.ID
}

// releaseOrder возвращает списанные остатки и удаляет соболезнование заказа.
func (s *paymentService) releaseOrder(ctx context.Context, tx *repository.Repository, ord *models.Order) error {
	if err := restoreStock(ctx, tx, ord, s.log); err != nil {
		return err
	}

	condID := ord.CondolenceID
	if condID == nil {
		c, err := tx.Condolences.GetByOrderID(ctx, ord.ID)
		if err != nil {
			return err
		}
		if c != nil {
			condID = &c.ID
		}
	}
	if condID == nil {
		return nil
	}
	if _, err := tx.Condolences.Delete(ctx, *condID); err != nil {
		return err
	}
	ord.CondolenceID = nil
	return tx.Orders.UpdateFields(ctx, ord.ID, map[string]any{"condolence_id": nil})
}

// restoreStock возвращает на склад ровно то, что было списано при оплате.
func restoreStock(ctx context.Context, tx *repository.Repository, ord *models.Order, log *zap.Logger) error {
	ok, err := tx.Orders.SetStockCommitted(ctx, ord.ID, false)
	if err != nil || !ok {
		return err
	}
	var items []models.CartItem
	if ord.Cart != nil {
		items = activeItems(ord.Cart)
	}
	for _, it := range items {
		ok, err := tx.Products.AdjustStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn("stock restore skipped", zap.String("product_id", it.ProductID.String()))
		}
	}
	ord.StockCommitted = false
	return nil
}

func (s *paymentService) CancelPayment(ctx context.Context, paymentIntentID string) (*CancelResult, error) {
	intentID := strings.TrimSpace(paymentIntentID)
	if intentID == "" {
		return nil, ErrPaymentIntentRequired
	}

	ord, err := s.repo.Orders.GetByPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if ord != nil && ord.PaymentStatus == models.PaymentSucceeded {
		return nil, ErrInvalidTransition
	}

	intent, err := s.gateway.CancelIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		s.log.Info("cancelled intent without order", zap.String("intent_id", intentID))
		return &CancelResult{Intent: intent}, nil
	}
	if intent.Status == IntentStatusSucceeded {
		return nil, ErrInvalidTransition
	}

	cancelled, err := s.cancelOrder(ctx, ord.ID, "cancelled by customer")
	if err != nil {
		return nil, err
	}
	if !cancelled {
		s.log.Info("order already closed", zap.String("order_id", ord.ID.String()))
	}

	fresh, err := s.repo.Orders.GetByID(ctx, ord.ID)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Intent: intent, Order: fresh}, nil
}

func (s *paymentService) cancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	var ord *models.Order
	err := s.withTx(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Orders.TransitionPayment(ctx, orderID,
			models.PaymentSources(models.PaymentCancelled), models.PaymentCancelled, nil)
		if err != nil || !ok {
			return err
		}
		ord, err = tx.Orders.GetByID(ctx, orderID)
		if err != nil || ord == nil {
			return err
		}
		return s.releaseOrder(ctx, tx, ord)
	})
	if err != nil || ord == nil {
		return false, err
	}

	s.publish(ctx, ord.ID, EventTypeOrderCancelled, OrderCancelledEvent{
		OrderID:     ord.ID,
		Reason:      reason,
		CancelledAt: s.now(),
	})
	return true, nil
}

func (s *paymentService) RefundOrder(ctx context.Context, in RefundInput) (*RefundResult, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	ord, err := s.repo.Orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if ord == nil || ord.PaymentIntentID == nil {
		return nil, ErrNoPaymentIntent
	}
	if role != RoleAdmin && (ord.UserID == nil || *ord.UserID != uid) {
		return nil, ErrForbidden
	}
	if !models.CanTransitionPayment(ord.PaymentStatus, models.PaymentRefunded) {
		return nil, ErrInvalidTransition
	}

	req := RefundRequest{IntentID: *ord.PaymentIntentID, Reason: strings.TrimSpace(in.Reason)}
	if req.Reason == "" {
		req.Reason = defaultRefundReason
	}
	amount := ord.TotalWithTax
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, invalid("amount", "must be > 0")
		}
		if in.Amount.GreaterThan(ord.TotalWithTax) {
			return nil, ErrRefundAmountTooLarge
		}
		amount = in.Amount.Round(2)
		minor := ToMinorUnits(amount)
		req.AmountMinor = &minor
	}

	refund, err := s.gateway.Refund(ctx, req)
	if err != nil {
		s.log.Error("refund failed", zap.String("order_id", ord.ID.String()), zap.Error(err))
		return nil, err
	}
	if refund.AmountMinor > 0 {
		amount = FromMinorUnits(refund.AmountMinor)
	}

	done, err := s.refundInTx(ctx, ord.ID, amount, req.Reason)
	if err != nil {
		return nil, err
	}
	fresh, err := s.repo.Orders.GetByID(ctx, ord.ID)
	if err != nil {
		return nil, err
	}
	if done && fresh != nil {
		s.afterRefunded(ctx, fresh, refund.ID)
	}
	return &RefundResult{Refund: refund, Order: fresh}, nil
}

func (s *paymentService) refundInTx(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, reason string) (bool, error) {
	done := false
	err := s.withTx(ctx, func(tx *repository.Repository) error {
		extra := map[string]any{"refunded_amount": amount}
		if reason != "" {
			extra["refund_reason"] = reason
		}
		ok, err := tx.Orders.TransitionPayment(ctx, orderID,
			models.PaymentSources(models.PaymentRefunded), models.PaymentRefunded, extra)
		if err != nil || !ok {
			return err
		}
		ord, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil || ord == nil {
			return err
		}
		done = true
		return s.releaseOrder(ctx, tx, ord)
	})
	return done, err
}

func (s *paymentService) GetPaymentStatus(ctx context.Context, paymentIntentID string) (*PaymentStatusResult, error) {
	intentID := strings.TrimSpace(paymentIntentID)
	if intentID == "" {
		return nil, ErrPaymentIntentRequired
	}
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	return &PaymentStatusResult{
		Status:   intent.Status,
		Amount:   FromMinorUnits(intent.AmountMinor),
		Currency: intent.Currency,
	}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	ev, err := s.gateway.ParseWebhook(payload, signatureHeader)
	if err != nil {
		return err
	}
	log := s.log.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type), zap.String("intent_id", ev.IntentID))

	seenKey := webhookSeenPrefix + ev.ID
	if s.cache != nil {
		fresh, err := s.cache.SetNX(ctx, seenKey, s.now().Unix(), webhookSeenTTL)
		if err != nil {
			log.Warn("webhook dedupe cache unavailable", zap.Error(err))
		} else if !fresh {
			log.Info("duplicate webhook event skipped")
			return nil
		}
	}

	var after func()
	err = s.withTx(ctx, func(tx *repository.Repository) error {
		var intentRef *string
		if ev.IntentID != "" {
			id := ev.IntentID
			intentRef = &id
		}
		inserted, err := tx.WebhookEvents.Record(ctx, &models.WebhookEvent{
			EventID:         ev.ID,
			EventType:       ev.Type,
			PaymentIntentID: intentRef,
			ProcessedAt:     s.now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			log.Info("webhook event already processed")
			return nil
		}

		after, err = s.applyEvent(ctx, tx, ev, log)
		return err
	})

	if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrPaymentAmountMismatch) {
		// Повтор события не поможет: заказ остаётся pending до ручного разбора.
		log.Error("paid order could not be completed", zap.Error(err))
		return nil
	}
	if err != nil {
		if s.cache != nil {
			if derr := s.cache.Del(ctx, seenKey); derr != nil {
				log.Warn("webhook dedupe key not released", zap.Error(derr))
			}
		}
		log.Error("webhook processing failed", zap.Error(err))
		return err
	}

	if after != nil {
		after()
	}
	return nil
}

// applyEvent применяет событие внутри транзакции и возвращает действия после коммита.
func (s *paymentService) applyEvent(ctx context.Context, tx *repository.Repository, ev *GatewayEvent, log *zap.Logger) (func(), error) {
	switch ev.Type {
	case EventIntentSucceeded, EventIntentFailed, EventIntentCanceled, EventChargeRefunded:
	default:
		log.Info("webhook event ignored")
		return nil, nil
	}
	if ev.IntentID == "" {
		log.Warn("webhook event without payment intent")
		return nil, nil
	}

	ord, err := tx.Orders.GetByPaymentIntent(ctx, ev.IntentID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		log.Warn("no order for payment intent")
		return nil, nil
	}
	log = log.With(zap.String("order_id", ord.ID.String()))

	switch ev.Type {
	case EventIntentSucceeded:
		paid, done, err := s.completeInTx(ctx, tx, ord.ID, ev.AmountMinor)
		if err != nil || !done {
			return nil, err
		}
		log.Info("order paid via webhook")
		return func() { s.afterPaid(ctx, paid) }, nil

	case EventIntentFailed:
		ok, err := s.closeInTx(ctx, tx, ord, models.PaymentFailed, nil)
		if err != nil || !ok {
			return nil, err
		}
		log.Info("order payment failed")
		return func() {
			s.publish(ctx, ord.ID, EventTypeOrderPaymentFailed, OrderPaymentFailedEvent{
				OrderID:         ord.ID,
				PaymentIntentID: ev.IntentID,
				FailedAt:        s.now(),
			})
		}, nil

	case EventIntentCanceled:
		ok, err := s.closeInTx(ctx, tx, ord, models.PaymentCancelled, nil)
		if err != nil || !ok {
			return nil, err
		}
		log.Info("order cancelled via webhook")
		return func() {
			s.publish(ctx, ord.ID, EventTypeOrderCancelled, OrderCancelledEvent{
				OrderID:     ord.ID,
				Reason:      "payment intent canceled",
				CancelledAt: s.now(),
			})
		}, nil

	default: // EventChargeRefunded
		amount := ord.TotalWithTax
		if ev.AmountRefundedMinor > 0 {
			amount = FromMinorUnits(ev.AmountRefundedMinor)
		}
		if !ev.FullyRefunded {
			// Частичный возврат из кабинета шлюза: заказ остаётся оплаченным, фиксируется только сумма.
			if ord.PaymentStatus != models.PaymentSucceeded || ev.AmountRefundedMinor <= 0 {
				return nil, nil
			}
			log.Info("partial refund recorded", zap.String("amount", amount.String()))
			return nil, tx.Orders.UpdateFields(ctx, ord.ID, map[string]any{"refunded_amount": amount})
		}
		ok, err := s.closeInTx(ctx, tx, ord, models.PaymentRefunded, map[string]any{"refunded_amount": amount})
		if err != nil || !ok {
			return nil, err
		}
		ord.RefundedAmount = amount
		log.Info("order refunded via webhook", zap.String("amount", amount.String()))
		return func() { s.afterRefunded(ctx, ord, "") }, nil
	}
}

// closeInTx переводит заказ в терминальный статус оплаты и освобождает его ресурсы.
func (s *paymentService) closeInTx(ctx context.Context, tx *repository.Repository, ord *models.Order, to models.PaymentStatus, extra map[string]any) (bool, error) {
	ok, err := tx.Orders.TransitionPayment(ctx, ord.ID, models.PaymentSources(to), to, extra)
	if err != nil || !ok {
		return false, err
	}
	ord.PaymentStatus = to
	ord.OrderStatus = to.OrderStatusFor()
	return true, s.releaseOrder(ctx, tx, ord)
}

func (s *paymentService) publish(ctx context.Context, orderID uuid.UUID, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, orderID.String(), eventType, payload); err != nil {
		s.log.Warn("publish order event failed",
			zap.String("order_id", orderID.String()), zap.String("type", eventType), zap.Error(err))
	}
}

func (s *paymentService) sendEmail(ctx context.Context, ord *models.Order, subject, template string, data map[string]any) {
	if s.emails == nil || ord.Billing.Email == "" {
		return
	}
	msg := producer.EmailMessage{
		To:       ord.Billing.Email,
		Subject:  subject,
		Template: template,
		Data:     data,
	}
	if err := s.emails.SendEmail(ctx, ord.ID.String(), msg); err != nil {
		s.log.Warn("queue email failed", zap.String("order_id", ord.ID.String()), zap.String("template", template), zap.Error(err))
	}
}

func orderItemEvents(ord *models.Order) []OrderItemEvent {
	if ord.Cart == nil {
		return nil
	}
	items := activeItems(ord.Cart)
	out := make([]OrderItemEvent, 0, len(items))
	for _, it := range items {
		ev := OrderItemEvent{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.PurchasePrice.StringFixed(2),
		}
		if it.Product != nil {
			ev.ProductName = it.Product.Name
		}
		if it.VariantName != nil {
			ev.VariantName = *it.VariantName
		}
		out = append(out, ev)
	}
	return out
}

func customerName(ord *models.Order) string {
	if n := strings.TrimSpace(ord.Billing.Name); n != "" {
		return n
	}
	return anonymousCustomer
}

func (s *paymentService) afterPaid(ctx context.Context, ord *models.Order) {
	if ord == nil {
		return
	}
	paidAt := s.now()
	if ord.PaidAt != nil {
		paidAt = *ord.PaidAt
	}
	intentID := ""
	if ord.PaymentIntentID != nil {
		intentID = *ord.PaymentIntentID
	}
	items := orderItemEvents(ord)

	s.publish(ctx, ord.ID, EventTypeOrderPaid, OrderPaidEvent{
		OrderID:         ord.ID,
		UserID:          ord.UserID,
		PaymentIntentID: intentID,
		Items:           items,
		TotalWithTax:    ord.TotalWithTax.StringFixed(2),
		Currency:        ord.Currency,
		ObituaryID:      ord.ObituaryID,
		CondolenceID:    ord.CondolenceID,
		PaidAt:          paidAt,
	})

	data := map[string]any{
		"Name":     customerName(ord),
		"OrderID":  ord.ID.String(),
		"Items":    items,
		"Subtotal": ord.Total.StringFixed(2),
		"Tax":      ord.TotalTax.StringFixed(2),
		"Total":    ord.TotalWithTax.StringFixed(2),
		"Currency": strings.ToUpper(ord.Currency),
	}
	if ord.ObituaryName != nil {
		data["ObituaryName"] = *ord.ObituaryName
	}
	s.sendEmail(ctx, ord, "Your memorial order is confirmed", "order_confirmation", data)
}

func (s *paymentService) afterRefunded(ctx context.Context, ord *models.Order, refundID string) {
	reason := ""
	if ord.RefundReason != nil {
		reason = *ord.RefundReason
	}
	s.publish(ctx, ord.ID, EventTypeOrderRefunded, OrderRefundedEvent{
		OrderID:        ord.ID,
		RefundID:       refundID,
		RefundedAmount: ord.RefundedAmount.StringFixed(2),
		Reason:         reason,
		RefundedAt:     s.now(),
	})
	s.sendEmail(ctx, ord, "Your memorial order was refunded", "order_refunded", map[string]any{
		"Name":     customerName(ord),
		"OrderID":  ord.ID.String(),
		"Amount":   ord.RefundedAmount.StringFixed(2),
		"Currency": strings.ToUpper(ord.Currency),
	})
}
