package handlers

import (
	"net/http"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CondolenceHandler struct {
	condolences service.CondolenceService
	log         *zap.Logger
}

func NewCondolenceHandler(condolences service.CondolenceService, log *zap.Logger) *CondolenceHandler {
	return &CondolenceHandler{condolences: condolences, log: log}
}

func includePrivate(c *gin.Context) bool {
	role, _ := service.RoleFromContext(c.Request.Context())
	return role == service.RoleAdmin
}

func condolenceList(l *service.CondolenceList) dto.CondolenceListResponse {
	return dto.CondolenceListResponse{ObituaryID: l.ObituaryID, Condolences: l.Condolences, Count: len(l.Condolences)}
}

// ListByObituary godoc
// @Summary Соболезнования страницы памяти
// @Description Приватные записи видит только администратор
// @Tags condolences
// @Produce json
// @Param obituaryId path string true "Id страницы памяти"
// @Success 200 {object} dto.CondolenceListResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Страница памяти не найдена"
// @Router /api/condolences/obituary/{obituaryId} [get]
func (h *CondolenceHandler) ListByObituary(c *gin.Context) {
	id, ok := uuidParam(c, "obituaryId")
	if !ok {
		return
	}
	l, err := h.condolences.ListByObituary(c.Request.Context(), id, includePrivate(c))
	if err != nil {
		respondError(c, h.log, "list condolences", err)
		return
	}
	c.JSON(http.StatusOK, condolenceList(l))
}

// ListBySlug godoc
// @Summary Соболезнования по slug страницы памяти
// @Tags condolences
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} dto.CondolenceListResponse
// @Router /api/condolences/obituary/slug/{slug} [get]
func (h *CondolenceHandler) ListBySlug(c *gin.Context) {
	l, err := h.condolences.ListBySlug(c.Request.Context(), c.Param("slug"), includePrivate(c))
	if err != nil {
		respondError(c, h.log, "list condolences by slug", err)
		return
	}
	c.JSON(http.StatusOK, condolenceList(l))
}

// Stats godoc
// @Summary Статистика соболезнований
// @Tags condolences
// @Produce json
// @Param obituaryId path string true "Id страницы памяти"
// @Success 200 {object} repository.CondolenceStats
// @Router /api/condolences/stats/{obituaryId} [get]
func (h *CondolenceHandler) Stats(c *gin.Context) {
	id, ok := uuidParam(c, "obituaryId")
	if !ok {
		return
	}
	st, err := h.condolences.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "condolence stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Create godoc
// @Summary Оставить соболезнование
// @Tags condolences
// @Accept json
// @Produce json
// @Param request body dto.CondolenceRequest true "Соболезнование"
// @Success 201 {object} models.Condolence
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 429 {object} dto.RateLimitedErrorResponse "Слишком много запросов"
// @Router /api/condolences [post]
func (h *CondolenceHandler) Create(c *gin.Context) {
	var req dto.CondolenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	cd, err := h.condolences.Create(c.Request.Context(), service.CondolenceInput{
		ObituaryID:         req.ObituaryID,
		Name:               req.Name,
		Email:              req.Email,
		Message:            req.Message,
		IsPrivate:          req.IsPrivate,
		HasCandle:          req.HasCandle,
		GestureID:          req.GestureID,
		GestureDescription: req.GestureDescription,
	})
	if err != nil {
		respondError(c, h.log, "create condolence", err)
		return
	}
	c.JSON(http.StatusCreated, cd)
}

// Update godoc
// @Summary Модерация соболезнования
// @Tags condolences
// @Accept json
// @Produce json
// @Param id path string true "Id"
// @Param request body dto.CondolencePatchRequest true "Изменяемые поля"
// @Success 200 {object} models.Condolence
// @Security BearerAuth
// @Router /api/condolences/{id} [put]
func (h *CondolenceHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CondolencePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	cd, err := h.condolences.Update(c.Request.Context(), id, service.CondolencePatch{
		Name:               req.Name,
		Email:              req.Email,
		Message:            req.Message,
		IsPrivate:          req.IsPrivate,
		HasCandle:          req.HasCandle,
		GestureID:          req.GestureID,
		GestureDescription: req.GestureDescription,
		IsApproved:         req.IsApproved,
	})
	if err != nil {
		respondError(c, h.log, "update condolence", err)
		return
	}
	c.JSON(http.StatusOK, cd)
}

// Delete godoc
// @Summary Удаление соболезнования
// @Tags condolences
// @Param id path string true "Id"
// @Success 200 {object} dto.SuccessResponse
// @Security BearerAuth
// @Router /api/condolences/{id} [delete]
func (h *CondolenceHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.condolences.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete condolence", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Condolence deleted"})
}

// ListAll godoc
// @Summary Все соболезнования (администратор)
// @Tags condolences
// @Produce json
// @Param page query int false "Страница"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} dto.CondolencePageResponse
// @Security BearerAuth
// @Router /api/condolences [get]
func (h *CondolenceHandler) ListAll(c *gin.Context) {
	page := intQuery(c, "page", 1)
	list, total, err := h.condolences.ListAll(c.Request.Context(), page, intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, h.log, "list all condolences", err)
		return
	}
	c.JSON(http.StatusOK, dto.CondolencePageResponse{Condolences: list, Total: total, Page: page})
}
