package handlers

import (
	"net/http"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ObituaryHandler struct {
	obituaries service.ObituaryService
	log        *zap.Logger
}

func NewObituaryHandler(obituaries service.ObituaryService, log *zap.Logger) *ObituaryHandler {
	return &ObituaryHandler{obituaries: obituaries, log: log}
}

// Recent godoc
// @Summary Последние страницы памяти
// @Tags obituaries
// @Produce json
// @Param limit query int false "Количество (по умолчанию 12, максимум 50)"
// @Success 200 {array} models.Obituary
// @Router /api/obituaries/recent [get]
func (h *ObituaryHandler) Recent(c *gin.Context) {
	list, err := h.obituaries.Recent(c.Request.Context(), intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, h.log, "recent obituaries", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Search godoc
// @Summary Поиск по имени
// @Tags obituaries
// @Produce json
// @Param q query string true "Строка поиска"
// @Success 200 {array} models.Obituary
// @Failure 400 {object} dto.BadRequestErrorResponse "Пустой запрос"
// @Router /api/obituaries/search [get]
func (h *ObituaryHandler) Search(c *gin.Context) {
	list, err := h.obituaries.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, "search obituaries", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// List godoc
// @Summary Список страниц памяти
// @Tags obituaries
// @Produce json
// @Param page query int false "Страница"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} dto.ObituaryPageResponse
// @Router /api/obituaries [get]
func (h *ObituaryHandler) List(c *gin.Context) {
	page, err := h.obituaries.List(c.Request.Context(), intQuery(c, "page", 1), intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, h.log, "list obituaries", err)
		return
	}
	c.JSON(http.StatusOK, dto.ObituaryPageResponse{
		Obituaries:  page.Items,
		Total:       page.Total,
		CurrentPage: page.Page,
		PerPage:     page.PerPage,
		TotalPages:  page.TotalPages,
	})
}

// Get godoc
// @Summary Страница памяти по slug или id
// @Tags obituaries
// @Produce json
// @Param slug path string true "Slug или id"
// @Success 200 {object} models.Obituary
// @Failure 404 {object} dto.NotFoundErrorResponse "Не найдена"
// @Router /api/obituaries/{slug} [get]
func (h *ObituaryHandler) Get(c *gin.Context) {
	o, err := h.obituaries.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, "get obituary", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Create godoc
// @Summary Создание страницы памяти
// @Tags obituaries
// @Accept json
// @Produce json
// @Param request body dto.ObituaryRequest true "Данные"
// @Success 201 {object} models.Obituary
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 403 {object} dto.ForbiddenErrorResponse "Только администратор"
// @Security BearerAuth
// @Router /api/obituaries [post]
func (h *ObituaryHandler) Create(c *gin.Context) {
	var req dto.ObituaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	o, err := h.obituaries.Create(c.Request.Context(), service.ObituaryInput{
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		BirthDate:       req.BirthDate,
		DeathDate:       req.DeathDate,
		Age:             req.Age,
		Photo:           req.Photo,
		Location:        req.Location,
		Biography:       req.Biography,
		VideoURL:        req.VideoURL,
		ExternalVideo:   req.ExternalVideo,
		EmbeddedVideo:   req.EmbeddedVideo,
		ServiceType:     req.ServiceType,
		ServiceDate:     req.ServiceDate,
		ServiceLocation: req.ServiceLocation,
		FloralStoreLink: req.FloralStoreLink,
		TreePlantingURL: req.TreePlantingURL,
		BackgroundImage: req.BackgroundImage,
		Slug:            req.Slug,
		IsPublished:     req.IsPublished,
	})
	if err != nil {
		respondError(c, h.log, "create obituary", err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// Update godoc
// @Summary Изменение страницы памяти
// @Tags obituaries
// @Accept json
// @Produce json
// @Param id path string true "Id"
// @Param request body dto.ObituaryPatchRequest true "Изменяемые поля"
// @Success 200 {object} models.Obituary
// @Failure 404 {object} dto.NotFoundErrorResponse "Не найдена"
// @Security BearerAuth
// @Router /api/obituaries/{id} [put]
func (h *ObituaryHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ObituaryPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	o, err := h.obituaries.Update(c.Request.Context(), id, service.ObituaryPatch{
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		BirthDate:       req.BirthDate,
		DeathDate:       req.DeathDate,
		Age:             req.Age,
		Photo:           req.Photo,
		Location:        req.Location,
		Biography:       req.Biography,
		VideoURL:        req.VideoURL,
		ExternalVideo:   req.ExternalVideo,
		EmbeddedVideo:   req.EmbeddedVideo,
		ServiceType:     req.ServiceType,
		ServiceDate:     req.ServiceDate,
		ServiceLocation: req.ServiceLocation,
		FloralStoreLink: req.FloralStoreLink,
		TreePlantingURL: req.TreePlantingURL,
		BackgroundImage: req.BackgroundImage,
		Slug:            req.Slug,
		IsPublished:     req.IsPublished,
	})
	if err != nil {
		respondError(c, h.log, "update obituary", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Delete godoc
// @Summary Удаление страницы памяти
// @Tags obituaries
// @Produce json
// @Param id path string true "Id"
// @Success 200 {object} dto.SuccessResponse
// @Security BearerAuth
// @Router /api/obituaries/{id} [delete]
func (h *ObituaryHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.obituaries.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete obituary", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Obituary deleted"})
}
