package handlers

import (
	"net/http"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultOrdersPage = 20

type OrderHandler struct {
	orders service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

func listFilter(c *gin.Context) (int, service.ListFilter) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", defaultOrdersPage)
	return page, service.ListFilter{Limit: limit, Offset: (page - 1) * limit}
}

// ListMine godoc
// @Summary Мои заказы
// @Tags orders
// @Produce json
// @Param page query int false "Страница"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} dto.OrderListResponse
// @Failure 401 {object} dto.UnauthorizedErrorResponse "Требуется авторизация"
// @Security BearerAuth
// @Router /api/orders/me [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	page, f := listFilter(c)
	list, total, err := h.orders.ListMine(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, "list my orders", err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: list, Total: total, Page: page})
}

// ListAll godoc
// @Summary Все заказы (администратор)
// @Tags orders
// @Produce json
// @Success 200 {object} dto.OrderListResponse
// @Security BearerAuth
// @Router /api/orders [get]
func (h *OrderHandler) ListAll(c *gin.Context) {
	page, f := listFilter(c)
	list, total, err := h.orders.ListAll(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, "list orders", err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: list, Total: total, Page: page})
}

// Search godoc
// @Summary Поиск заказа по id
// @Tags orders
// @Produce json
// @Param search query string true "Id заказа"
// @Success 200 {object} dto.OrderListResponse
// @Security BearerAuth
// @Router /api/orders/search [get]
func (h *OrderHandler) Search(c *gin.Context) {
	list, err := h.orders.Search(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, h.log, "search orders", err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: list, Total: int64(len(list)), Page: 1})
}

// Get godoc
// @Summary Заказ по id
// @Tags orders
// @Produce json
// @Param id path string true "Id"
// @Success 200 {object} models.Order
// @Failure 404 {object} dto.NotFoundErrorResponse "Не найден"
// @Security BearerAuth
// @Router /api/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "get order", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// UpdateStatus godoc
// @Summary Смена статуса выполнения заказа
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Id"
// @Param request body dto.OrderStatusRequest true "Новый статус"
// @Success 200 {object} models.Order
// @Failure 409 {object} dto.ConflictErrorResponse "Переход не разрешён"
// @Security BearerAuth
// @Router /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.log, "update order status", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// UpdateItemStatus godoc
// @Summary Смена статуса позиции заказа
// @Description Отмена последней активной позиции отменяет весь заказ
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Id заказа"
// @Param itemId path string true "Id позиции"
// @Param request body dto.ItemStatusRequest true "Статус (по умолчанию Cancelled)"
// @Success 200 {object} dto.ItemStatusResponse
// @Security BearerAuth
// @Router /api/orders/{id}/items/{itemId}/status [put]
func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req dto.ItemStatusRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badBody(c, h.log, err)
			return
		}
	}
	res, err := h.orders.UpdateItemStatus(c.Request.Context(), id, itemID, req.Status)
	if err != nil {
		respondError(c, h.log, "update item status", err)
		return
	}
	msg := "Item status has been updated successfully!"
	if res.OrderCancelled {
		msg = "Your order has been cancelled successfully!"
	}
	c.JSON(http.StatusOK, dto.ItemStatusResponse{Success: true, Order: res.Order, OrderCancelled: res.OrderCancelled, Message: msg})
}

// Delete godoc
// @Summary Удаление неоплаченного заказа
// @Tags orders
// @Param id path string true "Id"
// @Success 200 {object} dto.SuccessResponse
// @Failure 409 {object} dto.ConflictErrorResponse "Заказ оплачен"
// @Security BearerAuth
// @Router /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete order", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
