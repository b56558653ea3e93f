package handlers

import (
	"net/http"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgOrderPlaced        = "Order placed successfully!"
	msgOrderPlacedTribute = "Order placed successfully! Your tribute has been added to the memorial."
)

type PaymentHandler struct {
	payments service.PaymentService
	log      *zap.Logger
}

func NewPaymentHandler(payments service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

func toCartProducts(in []dto.CartProductRequest) []service.CartProductInput {
	out := make([]service.CartProductInput, 0, len(in))
	for _, p := range in {
		out = append(out, service.CartProductInput{
			ProductID:   p.ProductID,
			Quantity:    p.Quantity,
			VariantSKU:  p.VariantSKU,
			VariantName: p.VariantName,
			Price:       p.Price,
		})
	}
	return out
}

func toMemorial(m dto.MemorialFields) service.MemorialLink {
	return service.MemorialLink{
		ObituaryID:        m.ObituaryID,
		ObituaryName:      m.ObituaryName,
		DedicationMessage: m.DedicationMessage,
	}
}

// CreateIntent godoc
// @Summary Создание намерения оплаты
// @Description Собирает корзину (cartId, корзина пользователя или список товаров), создаёт заказ в статусе pending и намерение оплаты на сумму с налогом 8%
// @Tags payment
// @Accept json
// @Produce json
// @Param request body dto.CreateIntentRequest true "Корзина, реквизиты и привязка к странице памяти"
// @Success 200 {object} dto.CreateIntentResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 404 {object} dto.NotFoundErrorResponse "Корзина не найдена или пуста"
// @Failure 409 {object} dto.ConflictErrorResponse "Недостаточно остатков или корзина уже оформлена"
// @Failure 502 {object} dto.BadGatewayErrorResponse "Отказ платёжного шлюза"
// @Security BearerAuth
// @Router /payment/create-intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}

	res, err := h.payments.CreatePaymentIntent(c.Request.Context(), service.CreateIntentInput{
		CartID:        req.CartID,
		OrderID:       req.OrderID,
		Products:      toCartProducts(req.Products),
		Billing:       req.BillingDetails,
		Shipping:      req.ShippingDetails,
		PaymentMethod: req.PaymentMethod,
		OrderNotes:    req.OrderNotes,
		Memorial:      toMemorial(req.MemorialFields),
	})
	if err != nil {
		respondError(c, h.log, "create payment intent", err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateIntentResponse{
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.PaymentIntentID,
		OrderID:         res.OrderID.String(),
		CartID:          res.CartID.String(),
		Amount:          res.AmountMinor,
		Tax:             res.Tax.InexactFloat64(),
	})
}

// Confirm godoc
// @Summary Подтверждение оплаты
// @Description Проверяет статус намерения у шлюза, переводит заказ в succeeded/processing, списывает остатки и создаёт соболезнование на странице памяти
// @Tags payment
// @Accept json
// @Produce json
// @Param request body dto.ConfirmPaymentRequest true "Идентификатор намерения и реквизиты"
// @Success 200 {object} dto.ConfirmPaymentResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 402 {object} dto.PaymentRequiredErrorResponse "Оплата не завершена"
// @Failure 404 {object} dto.NotFoundErrorResponse "Заказ не найден"
// @Failure 409 {object} dto.ConflictErrorResponse "Недостаточно остатков"
// @Failure 502 {object} dto.BadGatewayErrorResponse "Отказ платёжного шлюза"
// @Router /payment/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}

	res, err := h.payments.ConfirmPayment(c.Request.Context(), service.ConfirmInput{
		PaymentIntentID: req.PaymentIntentID,
		OrderID:         req.OrderID,
		Billing:         req.BillingDetails,
		Memorial:        toMemorial(req.MemorialFields),
	})
	if err != nil {
		respondError(c, h.log, "confirm payment", err)
		return
	}

	msg := msgOrderPlaced
	if res.CondolenceCreated {
		msg = msgOrderPlacedTribute
	}
	c.JSON(http.StatusOK, dto.ConfirmPaymentResponse{
		Success: true,
		Message: msg,
		Order: dto.ConfirmedOrder{
			ID:                res.Order.ID.String(),
			Total:             res.Order.TotalWithTax.InexactFloat64(),
			PaymentStatus:     string(res.Order.PaymentStatus),
			OrderStatus:       string(res.Order.OrderStatus),
			CondolenceCreated: res.CondolenceCreated,
		},
	})
}

// Cancel godoc
// @Summary Отмена намерения оплаты
// @Description Отменяет намерение у шлюза (без повторной отмены, если оно уже завершено) и переводит связанный заказ в cancelled
// @Tags payment
// @Accept json
// @Produce json
// @Param request body dto.CancelPaymentRequest true "Идентификатор намерения"
// @Success 200 {object} dto.CancelPaymentResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 409 {object} dto.ConflictErrorResponse "Заказ уже оплачен"
// @Failure 502 {object} dto.BadGatewayErrorResponse "Отказ платёжного шлюза"
// @Router /payment/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req dto.CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}

	res, err := h.payments.CancelPayment(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		respondError(c, h.log, "cancel payment", err)
		return
	}

	resp := dto.CancelPaymentResponse{
		Success: true,
		PaymentIntent: dto.PaymentIntentInfo{
			ID:       res.Intent.ID,
			Status:   res.Intent.Status,
			Amount:   res.Intent.AmountMinor,
			Currency: res.Intent.Currency,
			Metadata: res.Intent.Metadata,
		},
	}
	if res.Order != nil {
		resp.OrderID = res.Order.ID.String()
	}
	c.JSON(http.StatusOK, resp)
}

// Refund godoc
// @Summary Возврат оплаты заказа
// @Description Полный или частичный возврат: сначала шлюз, затем статус refunded, возврат остатков и удаление соболезнования
// @Tags payment
// @Accept json
// @Produce json
// @Param request body dto.RefundRequest true "Заказ, сумма и причина"
// @Success 200 {object} dto.RefundResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Требуется авторизация"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Чужой заказ"
// @Failure 404 {object} dto.NotFoundErrorResponse "Заказ не найден или без намерения оплаты"
// @Failure 409 {object} dto.ConflictErrorResponse "Заказ не оплачен"
// @Failure 502 {object} dto.BadGatewayErrorResponse "Отказ платёжного шлюза"
// @Security BearerAuth
// @Router /payment/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}

	res, err := h.payments.RefundOrder(c.Request.Context(), service.RefundInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		respondError(c, h.log, "refund order", err)
		return
	}

	c.JSON(http.StatusOK, dto.RefundResponse{
		Success: true,
		Refund: dto.RefundInfo{
			ID:     res.Refund.ID,
			Amount: service.FromMinorUnits(res.Refund.AmountMinor).InexactFloat64(),
			Status: res.Refund.Status,
		},
	})
}

// Status godoc
// @Summary Статус намерения оплаты
// @Tags payment
// @Produce json
// @Param paymentIntentId path string true "Идентификатор намерения"
// @Success 200 {object} dto.PaymentStatusResponse
// @Failure 502 {object} dto.BadGatewayErrorResponse "Отказ платёжного шлюза"
// @Router /payment/status/{paymentIntentId} [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	res, err := h.payments.GetPaymentStatus(c.Request.Context(), c.Param("paymentIntentId"))
	if err != nil {
		respondError(c, h.log, "get payment status", err)
		return
	}
	c.JSON(http.StatusOK, dto.PaymentStatusResponse{
		Status:   res.Status,
		Amount:   res.Amount.InexactFloat64(),
		Currency: res.Currency,
	})
}

// Webhook godoc
// @Summary Вебхук платёжного шлюза
// @Description Тело читается как есть до любого разбора JSON, подпись берётся из заголовка Stripe-Signature. Повторы и события по неизвестным заказам подтверждаются 200
// @Tags payment
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} dto.BadRequestErrorResponse "Неверная подпись или тело"
// @Failure 500 {object} dto.InternalErrorResponse "Ошибка обработки, шлюз повторит доставку"
// @Router /webhook/gateway [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.log.Warn("webhook body read failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.NewBadRequestError("cannot read body"))
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, h.log, "handle webhook", err)
		return
	}
	c.JSON(http.StatusOK, dto.WebhookAckResponse{Received: true})
}
