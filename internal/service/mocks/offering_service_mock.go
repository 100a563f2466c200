package mocks

import (
	"context"

	"go-formation-reservation/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type OfferingServiceMock struct {
	mock.Mock
}

func NewOfferingServiceMock() *OfferingServiceMock {
	return &OfferingServiceMock{}
}

func (m *OfferingServiceMock) offeringResult(args mock.Arguments) (*model.Offering, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offering), args.Error(1)
}

func (m *OfferingServiceMock) Create(ctx context.Context, req model.CreateOfferingRequest) (*model.Offering, error) {
	return m.offeringResult(m.Called(ctx, req))
}

func (m *OfferingServiceMock) ListPublished(ctx context.Context) ([]*model.Offering, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Offering), args.Error(1)
}

func (m *OfferingServiceMock) GetByOfferingID(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return m.offeringResult(m.Called(ctx, offeringID))
}

func (m *OfferingServiceMock) UpdateByOfferingID(ctx context.Context, offeringID uuid.UUID, params model.UpdateOfferingParams) (*model.Offering, error) {
	return m.offeringResult(m.Called(ctx, offeringID, params))
}

func (m *OfferingServiceMock) Publish(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return m.offeringResult(m.Called(ctx, offeringID))
}

func (m *OfferingServiceMock) Cancel(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return m.offeringResult(m.Called(ctx, offeringID))
}

func (m *OfferingServiceMock) Complete(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return m.offeringResult(m.Called(ctx, offeringID))
}

func (m *OfferingServiceMock) AdjustCapacity(ctx context.Context, offeringID uuid.UUID, newTotal int) (*model.Offering, error) {
	return m.offeringResult(m.Called(ctx, offeringID, newTotal))
}

func (m *OfferingServiceMock) DeleteByOfferingID(ctx context.Context, offeringID uuid.UUID) error {
	args := m.Called(ctx, offeringID)
	return args.Error(0)
}
