package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go-formation-reservation/internal/model"
	"go-formation-reservation/internal/service"
	apperrors "go-formation-reservation/pkg/apperrors"
	"go-formation-reservation/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service service.ReservationService
}

func NewReservationHandler(service service.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("reservations", h.GetReservations)
		router.GET("reservations/stats", h.GetStats)
		router.GET("reservations/user/:userID", h.GetUserReservations)
		router.GET("reservations/offering/:offeringID", h.GetOfferingReservations)
		router.GET("reservations/:id", h.GetReservation)
		router.POST("reservations", h.CreateReservation)
		router.PUT("reservations/:id/cancel", h.CancelReservation)
		router.PUT("reservations/:id/outcome", h.MarkOutcome)
	}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req model.CreateReservationRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.CreateReservation(c, req)
	if err != nil {
		h.handleReservationError(c, err, "CreateReservation")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	reservation, err := h.service.GetByReservationID(c, id)
	if err != nil {
		h.handleReservationError(c, err, "GetReservation")
		return
	}

	c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandler) GetReservations(c *gin.Context) {
	reservations, err := h.service.ListReservations(c)
	if err != nil {
		h.handleReservationError(c, err, "GetReservations")
		return
	}

	c.JSON(http.StatusOK, reservations)
}

func (h *ReservationHandler) GetUserReservations(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var query model.ListReservationsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	reservations, err := h.service.ListUserReservations(c, userID, query)
	if err != nil {
		h.handleReservationError(c, err, "GetUserReservations")
		return
	}

	c.JSON(http.StatusOK, reservations)
}

func (h *ReservationHandler) GetOfferingReservations(c *gin.Context) {
	offeringID, ok := ParseUUIDParam(c, "offeringID")
	if !ok {
		return
	}

	reservations, err := h.service.ListOfferingReservations(c, offeringID)
	if err != nil {
		h.handleReservationError(c, err, "GetOfferingReservations")
		return
	}

	c.JSON(http.StatusOK, reservations)
}

func (h *ReservationHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c)
	if err != nil {
		h.handleReservationError(c, err, "GetStats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CancelReservationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	cancelled, err := h.service.CancelReservation(c, id, req.Actor, req.Reason)
	if err != nil {
		h.handleReservationError(c, err, "CancelReservation")
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

func (h *ReservationHandler) MarkOutcome(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.MarkOutcomeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	marked, err := h.service.MarkOutcome(c, id, req.Outcome)
	if err != nil {
		h.handleReservationError(c, err, "MarkOutcome")
		return
	}

	c.JSON(http.StatusOK, marked)
}

// Helper functions

func (h *ReservationHandler) handleReservationError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrOutOfCapacity):
		log.Warn("Out of capacity")
		c.JSON(http.StatusConflict, gin.H{
			"error": "No seats remaining for this offering",
		})
	case errors.Is(err, apperrors.ErrDuplicateReservation):
		log.Warn("Duplicate reservation")
		c.JSON(http.StatusConflict, gin.H{
			"error": "User already has a live reservation for this offering",
		})
	case errors.Is(err, apperrors.ErrOfferingNotPublished):
		log.Warn("Offering not published")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Offering is not open for reservation",
		})
	case errors.Is(err, apperrors.ErrOfferingNotFound):
		log.Warn("Offering not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Offering not found",
		})
	case errors.Is(err, apperrors.ErrReservationNotFound):
		log.Warn("Reservation not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Reservation not found",
		})
	case errors.Is(err, apperrors.ErrReservationNotActive):
		log.Warn("Reservation not active")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Reservation is not active",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		// 內部重試已用盡，請客戶端稍後再試
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
