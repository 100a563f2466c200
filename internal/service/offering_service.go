package service

import (
	"context"
	"time"

	"go-formation-reservation/internal/database"
	"go-formation-reservation/internal/events"
	"go-formation-reservation/internal/ledger"
	"go-formation-reservation/internal/model"
	"go-formation-reservation/internal/repository"
	apperrors "go-formation-reservation/pkg/apperrors"
	"go-formation-reservation/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type OfferingService interface {
	Create(ctx context.Context, req model.CreateOfferingRequest) (*model.Offering, error)
	ListPublished(ctx context.Context) ([]*model.Offering, error)
	GetByOfferingID(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error)
	UpdateByOfferingID(ctx context.Context, offeringID uuid.UUID, params model.UpdateOfferingParams) (*model.Offering, error)
	// Publish 發佈場次，開放預約
	Publish(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error)
	// Cancel 取消場次(終態，不可再預約)
	Cancel(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error)
	// Complete 結束場次(終態)，之後可對預約標記出席結果
	Complete(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error)
	// AdjustCapacity 調整總座位數，新值低於已佔用座位數時拒絕
	AdjustCapacity(ctx context.Context, offeringID uuid.UUID, newTotal int) (*model.Offering, error)
	DeleteByOfferingID(ctx context.Context, offeringID uuid.UUID) error
}

type OfferingServiceImpl struct {
	pool           *pgxpool.Pool
	repo           repository.OfferingRepository
	capacityLedger ledger.CapacityLedger
	publisher      events.Publisher
}

func NewOfferingService(
	pool *pgxpool.Pool,
	repo repository.OfferingRepository,
	capacityLedger ledger.CapacityLedger,
	publisher events.Publisher,
) OfferingService {
	return &OfferingServiceImpl{
		pool:           pool,
		repo:           repo,
		capacityLedger: capacityLedger,
		publisher:      publisher,
	}
}

func (s *OfferingServiceImpl) Create(ctx context.Context, req model.CreateOfferingRequest) (*model.Offering, error) {
	offering := &model.Offering{
		OfferingID:        uuid.New(),
		Title:             req.Title,
		Description:       req.Description,
		CapacityTotal:     req.CapacityTotal,
		CapacityRemaining: req.CapacityTotal, // 一開始全部座位可約
		Status:            model.OfferingStatusDraft,
	}
	return s.repo.Create(ctx, offering)
}

func (s *OfferingServiceImpl) ListPublished(ctx context.Context) ([]*model.Offering, error) {
	return s.repo.ListPublished(ctx)
}

func (s *OfferingServiceImpl) GetByOfferingID(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return s.repo.FindByOfferingID(ctx, offeringID)
}

func (s *OfferingServiceImpl) UpdateByOfferingID(ctx context.Context, offeringID uuid.UUID, params model.UpdateOfferingParams) (*model.Offering, error) {
	offering, err := s.repo.FindByOfferingID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, offering.ID, params)
}

func (s *OfferingServiceImpl) Publish(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return s.transition(ctx, offeringID, model.OfferingStatusPublished)
}

func (s *OfferingServiceImpl) Cancel(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return s.transition(ctx, offeringID, model.OfferingStatusCancelled)
}

func (s *OfferingServiceImpl) Complete(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	return s.transition(ctx, offeringID, model.OfferingStatusCompleted)
}

// transition 條件式狀態轉換：以讀到的目前狀態當條件，併發改動時轉換直接失敗
func (s *OfferingServiceImpl) transition(ctx context.Context, offeringID uuid.UUID, to model.OfferingStatus) (*model.Offering, error) {
	offering, err := s.repo.FindByOfferingID(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	if !offering.Status.CanTransitionTo(to) {
		return nil, apperrors.ErrInvalidStatusTransition
	}

	return s.repo.UpdateStatus(ctx, offering.ID, offering.Status, to)
}

func (s *OfferingServiceImpl) AdjustCapacity(ctx context.Context, offeringID uuid.UUID, newTotal int) (*model.Offering, error) {
	if newTotal < 1 {
		return nil, apperrors.ErrInvalidInput
	}

	offering, err := s.repo.FindByOfferingID(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	var resized *model.Offering
	err = database.RunInTxWithRetry(ctx, s.pool, func(tx pgx.Tx) error {
		resized, err = s.capacityLedger.AdjustCapacityTotal(ctx, tx, offering.ID, newTotal)
		return err
	})
	if err != nil {
		return nil, err
	}

	if publishErr := s.publisher.Publish(ctx, events.Event{
		Type:              events.TypeOfferingCapacityChanged,
		OccurredAt:        time.Now().UTC(),
		OfferingID:        resized.OfferingID,
		CapacityTotal:     resized.CapacityTotal,
		CapacityRemaining: resized.CapacityRemaining,
	}); publishErr != nil {
		logger.WithComponent("service").Warn("publish event failed",
			zap.String("event_type", string(events.TypeOfferingCapacityChanged)), zap.Error(publishErr))
	}

	return resized, nil
}

func (s *OfferingServiceImpl) DeleteByOfferingID(ctx context.Context, offeringID uuid.UUID) error {
	offering, err := s.repo.FindByOfferingID(ctx, offeringID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, offering.ID)
}
