package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	notFoundErrors = []error{
		service.ErrObituaryNotFound, service.ErrCondolenceNotFound, service.ErrTributeNotFound,
		service.ErrProductNotFound, service.ErrCartItemNotFound, service.ErrOrderNotFound,
		service.ErrCartNotFound, service.ErrNoPaymentIntent,
	}
	badRequestErrors = []error{
		service.ErrProductsUnavailable, service.ErrInvalidQuantity, service.ErrSearchQueryRequired,
		service.ErrPaymentIntentRequired, service.ErrRefundAmountTooLarge,
		service.ErrInvalidSignature, service.ErrInvalidWebhookPayload,
	}
	conflictErrors = []error{
		service.ErrInsufficientStock, service.ErrCartAlreadyOrdered, service.ErrIntentMismatch,
		service.ErrInvalidTransition, service.ErrOrderNotDeletable, service.ErrSKUAlreadyExists,
		service.ErrSKUOrSlugInUse, service.ErrProductInUse, service.ErrPaymentAmountMismatch,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError переводит ошибку сервиса в HTTP-ответ формата dto.BaseError.
func respondError(c *gin.Context, log *zap.Logger, op string, err error) {
	var (
		verr *service.ValidationError
		perr *service.PaymentNotCompletedError
		gerr *service.GatewayError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.NewValidationError(verr.Message, []dto.FieldError{{Field: verr.Field, Message: verr.Message}}))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.NewUnauthorizedError("authentication required"))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.NewForbiddenError("access denied"))
	case isAny(err, notFoundErrors):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError(err.Error()))
	case isAny(err, badRequestErrors):
		c.JSON(http.StatusBadRequest, dto.NewBadRequestError(err.Error()))
	case isAny(err, conflictErrors):
		c.JSON(http.StatusConflict, dto.NewConflictError(err.Error()))
	case errors.As(err, &perr):
		c.JSON(http.StatusPaymentRequired, dto.NewPaymentRequiredError(perr.Status))
	case errors.As(err, &gerr):
		log.Warn("gateway rejected request", zap.String("op", op), zap.String("code", gerr.Code), zap.Error(err))
		c.JSON(http.StatusBadGateway, dto.NewBadGatewayError(gerr.Error(), gerr.Code))
	default:
		log.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(""))
	}
}

func badBody(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", dto.FieldsFromBinding(err)))
}

// uuidParam читает uuid из пути; при ошибке отвечает 400.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid id", []dto.FieldError{{Field: name, Message: "must be a valid UUID"}}))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
