package handlers

import (
	"net/http"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts service.CartService
	log   *zap.Logger
}

func NewCartHandler(carts service.CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

// Create godoc
// @Summary Создание корзины
// @Description Гостевая корзина или корзина авторизованного пользователя; цены берутся из каталога
// @Tags cart
// @Accept json
// @Produce json
// @Param request body dto.CartRequest true "Товары"
// @Success 201 {object} dto.CartResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Router /api/cart [post]
func (h *CartHandler) Create(c *gin.Context) {
	var req dto.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	cart, err := h.carts.Create(c.Request.Context(), toCartProducts(req.Products))
	if err != nil {
		respondError(c, h.log, "create cart", err)
		return
	}
	c.JSON(http.StatusCreated, dto.CartResponse{Success: true, CartID: cart.ID, Cart: cart})
}

// Get godoc
// @Summary Корзина по id
// @Tags cart
// @Produce json
// @Param cartId path string true "Id корзины"
// @Success 200 {object} dto.CartResponse
// @Router /api/cart/{cartId} [get]
func (h *CartHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "cartId")
	if !ok {
		return
	}
	cart, err := h.carts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "get cart", err)
		return
	}
	c.JSON(http.StatusOK, dto.CartResponse{Success: true, CartID: cart.ID, Cart: cart})
}

// AddItem godoc
// @Summary Добавить товар в корзину
// @Tags cart
// @Accept json
// @Produce json
// @Param cartId path string true "Id корзины"
// @Param request body dto.CartProductRequest true "Товар"
// @Success 200 {object} dto.CartResponse
// @Failure 409 {object} dto.ConflictErrorResponse "Корзина уже оформлена"
// @Router /api/cart/{cartId}/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	id, ok := uuidParam(c, "cartId")
	if !ok {
		return
	}
	var req dto.CartProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	cart, err := h.carts.AddItem(c.Request.Context(), id, toCartProducts([]dto.CartProductRequest{req})[0])
	if err != nil {
		respondError(c, h.log, "add cart item", err)
		return
	}
	c.JSON(http.StatusOK, dto.CartResponse{Success: true, CartID: cart.ID, Cart: cart})
}

func (h *CartHandler) RemoveProduct(c *gin.Context) {
	id, ok := uuidParam(c, "cartId")
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "productId")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveProduct(c.Request.Context(), id, productID)
	if err != nil {
		respondError(c, h.log, "remove cart product", err)
		return
	}
	c.JSON(http.StatusOK, dto.CartResponse{Success: true, CartID: cart.ID, Cart: cart})
}

func (h *CartHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "cartId")
	if !ok {
		return
	}
	if err := h.carts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete cart", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
