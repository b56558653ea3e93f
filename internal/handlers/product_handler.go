package handlers

import (
	"net/http"

	"memorial-service/internal/dto"
	"memorial-service/internal/models"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products service.ProductService
	log      *zap.Logger
}

func NewProductHandler(products service.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, log: log}
}

func toVariants(in []dto.VariantRequest) []service.VariantInput {
	if in == nil {
		return nil
	}
	out := make([]service.VariantInput, 0, len(in))
	for _, v := range in {
		out = append(out, service.VariantInput{
			Name:           v.Name,
			Quantity:       v.Quantity,
			Price:          v.Price,
			CompareAtPrice: v.CompareAtPrice,
			SKU:            v.SKU,
			IsDefault:      v.IsDefault,
			IsActive:       v.IsActive,
		})
	}
	return out
}

// ListMemorial godoc
// @Summary Мемориальные товары (деревья, цветы, подарки)
// @Tags products
// @Produce json
// @Param type query string false "tree | flower | gift"
// @Success 200 {array} models.Product
// @Router /api/products/list/memorial [get]
func (h *ProductHandler) ListMemorial(c *gin.Context) {
	var t *models.ProductType
	if v := c.Query("type"); v != "" {
		pt := models.ProductType(v)
		t = &pt
	}
	list, err := h.products.ListMemorial(c.Request.Context(), t)
	if err != nil {
		respondError(c, h.log, "list memorial products", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SearchByName godoc
// @Summary Поиск товаров по названию
// @Tags products
// @Produce json
// @Param name path string true "Часть названия"
// @Success 200 {array} models.Product
// @Router /api/products/list/search/{name} [get]
func (h *ProductHandler) SearchByName(c *gin.Context) {
	list, err := h.products.SearchByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.log, "search products", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetByID godoc
// @Summary Активный товар по id
// @Tags products
// @Produce json
// @Param id path string true "Id"
// @Success 200 {object} models.Product
// @Failure 404 {object} dto.NotFoundErrorResponse "Не найден"
// @Router /api/products/item/id/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "get product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetBySlug godoc
// @Summary Активный товар по slug
// @Tags products
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} models.Product
// @Router /api/products/item/{slug} [get]
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	p, err := h.products.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, "get product by slug", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) ListAll(c *gin.Context) {
	page := intQuery(c, "page", 1)
	list, total, err := h.products.ListAll(c.Request.Context(), page, intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, h.log, "list products", err)
		return
	}
	c.JSON(http.StatusOK, dto.ProductListResponse{Products: list, Total: total, Page: page})
}

func (h *ProductHandler) AdminGet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.products.AdminGet(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "admin get product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create godoc
// @Summary Создание товара
// @Tags products
// @Accept json
// @Produce json
// @Param request body dto.ProductRequest true "Товар с вариантами"
// @Success 201 {object} models.Product
// @Failure 400 {object} dto.ValidationErrorResponse "Не заполнены обязательные поля"
// @Failure 409 {object} dto.ConflictErrorResponse "SKU уже существует"
// @Security BearerAuth
// @Router /api/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	p, err := h.products.Create(c.Request.Context(), service.ProductInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Slug:        req.Slug,
		Type:        req.Type,
		Description: req.Description,
		Highlights:  req.Highlights,
		ImageURL:    req.ImageURL,
		Taxable:     req.Taxable,
		Brand:       req.Brand,
		IsActive:    req.IsActive,
		Stock:       req.Stock,
		Variants:    toVariants(req.Variants),
	})
	if err != nil {
		respondError(c, h.log, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update godoc
// @Summary Изменение товара
// @Description variants заменяет все варианты товара
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Id"
// @Param request body dto.ProductPatchRequest true "Изменяемые поля"
// @Success 200 {object} models.Product
// @Failure 409 {object} dto.ConflictErrorResponse "SKU или slug заняты"
// @Security BearerAuth
// @Router /api/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ProductPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	p, err := h.products.Update(c.Request.Context(), id, service.ProductPatch{
		SKU:         req.SKU,
		Name:        req.Name,
		Slug:        req.Slug,
		Type:        req.Type,
		Description: req.Description,
		Highlights:  req.Highlights,
		ImageURL:    req.ImageURL,
		Taxable:     req.Taxable,
		Brand:       req.Brand,
		Stock:       req.Stock,
		Variants:    toVariants(req.Variants),
	})
	if err != nil {
		respondError(c, h.log, "update product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) SetActive(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	p, err := h.products.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, h.log, "set product active", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete godoc
// @Summary Удаление товара
// @Tags products
// @Param id path string true "Id"
// @Success 200 {object} dto.SuccessResponse
// @Failure 409 {object} dto.ConflictErrorResponse "Товар есть в корзинах"
// @Security BearerAuth
// @Router /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete product", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Product has been deleted successfully!"})
}
