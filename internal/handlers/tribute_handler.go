package handlers

import (
	"net/http"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TributeHandler struct {
	tributes service.TributeService
	log      *zap.Logger
}

func NewTributeHandler(tributes service.TributeService, log *zap.Logger) *TributeHandler {
	return &TributeHandler{tributes: tributes, log: log}
}

// ListByObituary godoc
// @Summary Одобренные воспоминания страницы памяти
// @Tags tributes
// @Produce json
// @Param obituaryId path string true "Id страницы памяти"
// @Success 200 {array} models.Tribute
// @Router /api/tributes/obituary/{obituaryId} [get]
func (h *TributeHandler) ListByObituary(c *gin.Context) {
	id, ok := uuidParam(c, "obituaryId")
	if !ok {
		return
	}
	list, err := h.tributes.ListByObituary(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "list tributes", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create godoc
// @Summary Добавить воспоминание (уходит на модерацию)
// @Tags tributes
// @Accept json
// @Produce json
// @Param request body dto.TributeRequest true "Воспоминание"
// @Success 201 {object} models.Tribute
// @Failure 400 {object} dto.ValidationErrorResponse "Неверные данные"
// @Failure 429 {object} dto.RateLimitedErrorResponse "Слишком много запросов"
// @Router /api/tributes [post]
func (h *TributeHandler) Create(c *gin.Context) {
	var req dto.TributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	t, err := h.tributes.Create(c.Request.Context(), service.TributeInput{
		ObituaryID: req.ObituaryID,
		Name:       req.Name,
		Email:      req.Email,
		Message:    req.Message,
		Photos:     req.Photos,
		Videos:     req.Videos,
	})
	if err != nil {
		respondError(c, h.log, "create tribute", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TributeHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.TributePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.log, err)
		return
	}
	t, err := h.tributes.Update(c.Request.Context(), id, service.TributePatch{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
		Photos:  req.Photos,
		Videos:  req.Videos,
	})
	if err != nil {
		respondError(c, h.log, "update tribute", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TributeHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.tributes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete tribute", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Tribute deleted"})
}

func (h *TributeHandler) Approve(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	t, err := h.tributes.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, "approve tribute", err)
		return
	}
	c.JSON(http.StatusOK, t)
}
