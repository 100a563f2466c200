package service

import (
	"context"
	"errors"
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

type ReservationService interface {
	// CreateReservation 建立預約：唯一性守衛 → 座位扣減 → 寫入預約，同一交易完成。
	// 座位扣減失敗時不會留下任何預約列。
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (*model.Reservation, error)
	// CancelReservation 取消預約並釋放座位。場次已不存在時取消仍成立(歷史紀錄)，
	// 座位釋放跳過並記 log。
	CancelReservation(ctx context.Context, reservationID uuid.UUID, actor model.CancelActor, reason string) (*model.Reservation, error)
	// MarkOutcome 場次結束後標記出席結果，不影響座位數
	MarkOutcome(ctx context.Context, reservationID uuid.UUID, outcome model.Outcome) (*model.Reservation, error)
	GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error)
	ListReservations(ctx context.Context) ([]*model.Reservation, error)
	ListUserReservations(ctx context.Context, userID int, query model.ListReservationsQuery) ([]*model.Reservation, error)
	ListOfferingReservations(ctx context.Context, offeringID uuid.UUID) ([]*model.Reservation, error)
	GetStats(ctx context.Context) (*model.ReservationStats, error)
}

type ReservationServiceImpl struct {
	pool           *pgxpool.Pool
	repository     repository.ReservationRepository
	offeringRepo   repository.OfferingRepository
	capacityLedger ledger.CapacityLedger
	publisher      events.Publisher
}

func NewReservationService(
	pool *pgxpool.Pool,
	reservationRepository repository.ReservationRepository,
	offeringRepo repository.OfferingRepository,
	capacityLedger ledger.CapacityLedger,
	publisher events.Publisher,
) ReservationService {
	return &ReservationServiceImpl{
		pool:           pool,
		repository:     reservationRepository,
		offeringRepo:   offeringRepo,
		capacityLedger: capacityLedger,
		publisher:      publisher,
	}
}

func (s *ReservationServiceImpl) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (*model.Reservation, error) {
	offering, err := s.offeringRepo.FindByOfferingID(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		ReservationID: uuid.New(),
		UserID:        req.UserID,
		OfferingID:    offering.ID,
		Status:        model.ReservationStatusActive,
		FirstName:     req.Contact.FirstName,
		LastName:      req.Contact.LastName,
		Email:         req.Contact.Email,
		Phone:         req.Contact.Phone,
	}

	var created *model.Reservation
	err = database.RunInTxWithRetry(ctx, s.pool, func(tx pgx.Tx) error {
		// 1. 唯一性守衛：應用層先查，常見重複走乾淨錯誤；
		//    併發下漏掉的由 live 唯一索引在 Create 時擋下
		exists, err := s.repository.HasLiveReservation(ctx, tx, req.UserID, offering.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateReservation
		}

		// 2. 座位扣減：失敗則整筆交易中止，不會有半套狀態
		if err := s.capacityLedger.ReserveSeat(ctx, tx, offering.ID); err != nil {
			return err
		}

		// 3. 寫入預約。唯一索引在此攔下同使用者的併發重複請求，
		//    回滾會一併還原座位扣減
		created, err = s.repository.Create(ctx, tx, reservation)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.TypeReservationCreated,
		OccurredAt:    time.Now().UTC(),
		ReservationID: &created.ReservationID,
		OfferingID:    offering.OfferingID,
		UserID:        created.UserID,
		Status:        string(created.Status),
	})

	return created, nil
}

func (s *ReservationServiceImpl) CancelReservation(ctx context.Context, reservationID uuid.UUID, actor model.CancelActor, reason string) (*model.Reservation, error) {
	if !actor.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}

	reservation, err := s.repository.FindByReservationID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	var cancelled *model.Reservation
	err = database.RunInTxWithRetry(ctx, s.pool, func(tx pgx.Tx) error {
		// 1. 狀態轉換：只在仍為 Active 時成立
		cancelled, err = s.repository.Cancel(ctx, tx, reservation.ID, actor, reason)
		if err != nil {
			return err
		}

		// 2. 釋放座位：與狀態轉換同一交易提交
		err = s.capacityLedger.ReleaseSeat(ctx, tx, reservation.OfferingID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, apperrors.ErrOfferingNotFound):
			// 場次已刪除：取消仍成立，座位釋放跳過
			logger.WithComponent("service").Warn("offering gone, skip seat release",
				zap.Int("reservation_id", reservation.ID),
				zap.Int("offering_id", reservation.OfferingID))
			return nil
		case errors.Is(err, apperrors.ErrCapacityAlreadyFull):
			// 餘位已達總數(外部改過容量)：取消仍成立，交給 reconciler 校正
			logger.WithComponent("service").Warn("capacity already full on release, skip",
				zap.Int("reservation_id", reservation.ID),
				zap.Int("offering_id", reservation.OfferingID))
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	event := events.Event{
		Type:          events.TypeReservationCancelled,
		OccurredAt:    time.Now().UTC(),
		ReservationID: &cancelled.ReservationID,
		OfferingID:    s.offeringUUID(ctx, cancelled.OfferingID),
		UserID:        cancelled.UserID,
		Status:        string(cancelled.Status),
		Actor:         string(actor),
	}
	s.publish(ctx, event)

	return cancelled, nil
}

func (s *ReservationServiceImpl) MarkOutcome(ctx context.Context, reservationID uuid.UUID, outcome model.Outcome) (*model.Reservation, error) {
	status, ok := outcome.StatusFor()
	if !ok {
		return nil, apperrors.ErrInvalidInput
	}

	reservation, err := s.repository.FindByReservationID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	var marked *model.Reservation
	err = database.RunInTxWithRetry(ctx, s.pool, func(tx pgx.Tx) error {
		// 座位在建立時已被消耗，標記結果不觸碰容量
		marked, err = s.repository.UpdateStatusFromActive(ctx, tx, reservation.ID, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.TypeReservationOutcomeMarked,
		OccurredAt:    time.Now().UTC(),
		ReservationID: &marked.ReservationID,
		OfferingID:    s.offeringUUID(ctx, marked.OfferingID),
		UserID:        marked.UserID,
		Status:        string(marked.Status),
	})

	return marked, nil
}

func (s *ReservationServiceImpl) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	return s.repository.FindByReservationID(ctx, reservationID)
}

func (s *ReservationServiceImpl) ListReservations(ctx context.Context) ([]*model.Reservation, error) {
	return s.repository.List(ctx)
}

func (s *ReservationServiceImpl) ListUserReservations(ctx context.Context, userID int, query model.ListReservationsQuery) ([]*model.Reservation, error) {
	return s.repository.FindByUserID(ctx, userID, query)
}

func (s *ReservationServiceImpl) ListOfferingReservations(ctx context.Context, offeringID uuid.UUID) ([]*model.Reservation, error) {
	offering, err := s.offeringRepo.FindByOfferingID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	return s.repository.FindByOfferingID(ctx, offering.ID)
}

func (s *ReservationServiceImpl) GetStats(ctx context.Context) (*model.ReservationStats, error) {
	return s.repository.GetStats(ctx)
}

// publish 事件於交易提交後送出，失敗只記 log：事件不是本核心正確性的前提
func (s *ReservationServiceImpl) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WithComponent("service").Warn("publish event failed",
			zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// offeringUUID 取場次公開識別碼供事件使用；場次已刪除時回傳零值
func (s *ReservationServiceImpl) offeringUUID(ctx context.Context, offeringID int) uuid.UUID {
	offering, err := s.offeringRepo.FindByID(ctx, offeringID)
	if err != nil {
		return uuid.Nil
	}
	return offering.OfferingID
}
