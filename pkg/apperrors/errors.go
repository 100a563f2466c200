package apperrors

import "errors"

var (
	ErrOfferingNotFound        = errors.New("offering not found")
	ErrOfferingNotPublished    = errors.New("offering not published")
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrReservationNotActive    = errors.New("reservation not active")
	ErrOutOfCapacity           = errors.New("out of capacity")
	ErrCapacityAlreadyFull     = errors.New("capacity already full")
	ErrDuplicateReservation    = errors.New("duplicate reservation")
	ErrCapacityBelowReserved   = errors.New("capacity below reserved count")
	ErrConcurrencyConflict     = errors.New("concurrency conflict")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInternalServerError     = errors.New("internal server error")
)
