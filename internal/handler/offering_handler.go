package handler

import (
	"context"
	"errors"
	"net/http"

	"go-formation-reservation/internal/model"
	"go-formation-reservation/internal/service"
	apperrors "go-formation-reservation/pkg/apperrors"
	"go-formation-reservation/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OfferingHandler struct {
	service service.OfferingService
}

func NewOfferingHandler(service service.OfferingService) *OfferingHandler {
	return &OfferingHandler{service: service}
}

func (h *OfferingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("offerings", h.GetOfferings)
		router.GET("offerings/:id", h.GetOffering)
		router.POST("offerings", h.CreateOffering)
		router.PUT("offerings/:id", h.UpdateOffering)
		router.PUT("offerings/:id/publish", h.PublishOffering)
		router.PUT("offerings/:id/cancel", h.CancelOffering)
		router.PUT("offerings/:id/complete", h.CompleteOffering)
		router.PUT("offerings/:id/capacity", h.AdjustCapacity)
		router.DELETE("offerings/:id", h.DeleteOffering)
	}
}

func (h *OfferingHandler) CreateOffering(c *gin.Context) {
	var req model.CreateOfferingRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Create(c, req)
	if err != nil {
		h.handleOfferingError(c, err, "CreateOffering")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *OfferingHandler) GetOfferings(c *gin.Context) {
	offerings, err := h.service.ListPublished(c)
	if err != nil {
		h.handleOfferingError(c, err, "GetOfferings")
		return
	}

	c.JSON(http.StatusOK, offerings)
}

func (h *OfferingHandler) GetOffering(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	offering, err := h.service.GetByOfferingID(c, id)
	if err != nil {
		h.handleOfferingError(c, err, "GetOffering")
		return
	}

	c.JSON(http.StatusOK, offering)
}

func (h *OfferingHandler) UpdateOffering(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		Title       *string `json:"title" binding:"omitempty,max=100"`
		Description *string `json:"description" binding:"omitempty,max=500"`
	}
	if err := BindJson(c, &body); err != nil {
		return
	}

	updated, err := h.service.UpdateByOfferingID(c, id, model.UpdateOfferingParams{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		h.handleOfferingError(c, err, "UpdateOffering")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *OfferingHandler) PublishOffering(c *gin.Context) {
	h.transition(c, "PublishOffering", h.service.Publish)
}

func (h *OfferingHandler) CancelOffering(c *gin.Context) {
	h.transition(c, "CancelOffering", h.service.Cancel)
}

func (h *OfferingHandler) CompleteOffering(c *gin.Context) {
	h.transition(c, "CompleteOffering", h.service.Complete)
}

func (h *OfferingHandler) transition(
	c *gin.Context,
	operation string,
	fn func(ctx context.Context, id uuid.UUID) (*model.Offering, error),
) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	offering, err := fn(c, id)
	if err != nil {
		h.handleOfferingError(c, err, operation)
		return
	}

	c.JSON(http.StatusOK, offering)
}

func (h *OfferingHandler) AdjustCapacity(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.AdjustCapacityRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	offering, err := h.service.AdjustCapacity(c, id, req.CapacityTotal)
	if err != nil {
		h.handleOfferingError(c, err, "AdjustCapacity")
		return
	}

	c.JSON(http.StatusOK, offering)
}

func (h *OfferingHandler) DeleteOffering(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteByOfferingID(c, id); err != nil {
		h.handleOfferingError(c, err, "DeleteOffering")
		return
	}

	c.Status(http.StatusOK)
}

// Helper functions

func (h *OfferingHandler) handleOfferingError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrOfferingNotFound):
		log.Warn("Offering not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Offering not found",
		})
	case errors.Is(err, apperrors.ErrCapacityBelowReserved):
		log.Warn("Capacity below reserved count")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "New capacity is below the number of reserved seats",
		})
	case errors.Is(err, apperrors.ErrInvalidStatusTransition):
		log.Warn("Invalid status transition")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Offering cannot change to the requested status",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		log.Warn("Concurrency conflict after retries")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Temporary conflict, please retry",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
