package mocks

import (
	"context"

	"go-formation-reservation/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type ReservationServiceMock struct {
	mock.Mock
}

func NewReservationServiceMock() *ReservationServiceMock {
	return &ReservationServiceMock{}
}

func (m *ReservationServiceMock) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (*model.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *ReservationServiceMock) CancelReservation(ctx context.Context, reservationID uuid.UUID, actor model.CancelActor, reason string) (*model.Reservation, error) {
	args := m.Called(ctx, reservationID, actor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *ReservationServiceMock) MarkOutcome(ctx context.Context, reservationID uuid.UUID, outcome model.Outcome) (*model.Reservation, error) {
	args := m.Called(ctx, reservationID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *ReservationServiceMock) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *ReservationServiceMock) ListReservations(ctx context.Context) ([]*model.Reservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reservation), args.Error(1)
}

func (m *ReservationServiceMock) ListUserReservations(ctx context.Context, userID int, query model.ListReservationsQuery) ([]*model.Reservation, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reservation), args.Error(1)
}

func (m *ReservationServiceMock) ListOfferingReservations(ctx context.Context, offeringID uuid.UUID) ([]*model.Reservation, error) {
	args := m.Called(ctx, offeringID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reservation), args.Error(1)
}

func (m *ReservationServiceMock) GetStats(ctx context.Context) (*model.ReservationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReservationStats), args.Error(1)
}
