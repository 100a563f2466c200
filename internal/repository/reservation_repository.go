package repository

import (
	"context"
	"fmt"
	"time"

	"go-formation-reservation/internal/database"
	"go-formation-reservation/internal/model"
	apperrors "go-formation-reservation/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `id, reservation_id, user_id, offering_id, status,
		first_name, last_name, email, phone,
		cancelled_at, cancelled_by, cancel_reason, created_at, updated_at`

type ReservationRepository interface {
	List(ctx context.Context) ([]*model.Reservation, error)
	FindByID(ctx context.Context, id int) (*model.Reservation, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error)
	FindByUserID(ctx context.Context, userID int, query model.ListReservationsQuery) ([]*model.Reservation, error)
	FindByOfferingID(ctx context.Context, offeringID int) ([]*model.Reservation, error)
	CountActiveByOfferingID(ctx context.Context, offeringID int) (int, error)
	GetStats(ctx context.Context) (*model.ReservationStats, error)

	// Transaction methods
	// Create 於交易內寫入 Active 預約；撞到 live 唯一索引回報 ErrDuplicateReservation
	Create(ctx context.Context, tx pgx.Tx, reservation *model.Reservation) (*model.Reservation, error)
	// HasLiveReservation 唯一性守衛的應用層檢查：該 (user, offering) 是否已有 active/completed 預約
	HasLiveReservation(ctx context.Context, tx pgx.Tx, userID, offeringID int) (bool, error)
	// UpdateStatusFromActive 條件式轉換：只在預約仍為 Active 時寫入終態
	UpdateStatusFromActive(ctx context.Context, tx pgx.Tx, id int, status model.ReservationStatus) (*model.Reservation, error)
	// Cancel 條件式取消：寫入終態與取消欄位，只在預約仍為 Active 時生效
	Cancel(ctx context.Context, tx pgx.Tx, id int, actor model.CancelActor, reason string) (*model.Reservation, error)
	FindByIDTx(ctx context.Context, tx pgx.Tx, id int) (*model.Reservation, error)
}

type ReservationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &ReservationRepositoryImpl{
		pool: pool,
	}
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var reservation model.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.ReservationID,
		&reservation.UserID,
		&reservation.OfferingID,
		&reservation.Status,
		&reservation.FirstName,
		&reservation.LastName,
		&reservation.Email,
		&reservation.Phone,
		&reservation.CancelledAt,
		&reservation.CancelledBy,
		&reservation.CancelReason,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *ReservationRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, reservation *model.Reservation) (*model.Reservation, error) {
	query := fmt.Sprintf(`
		INSERT INTO reservations (
			reservation_id, user_id, offering_id, status,
			first_name, last_name, email, phone
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s
	`, reservationColumns)

	created, err := scanReservation(tx.QueryRow(ctx, query,
		reservation.ReservationID, reservation.UserID, reservation.OfferingID, reservation.Status,
		reservation.FirstName, reservation.LastName, reservation.Email, reservation.Phone,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateReservation
		}
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	return created, nil
}

func (r *ReservationRepositoryImpl) HasLiveReservation(ctx context.Context, tx pgx.Tx, userID, offeringID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE user_id = $1 AND offering_id = $2
			  AND status IN ($3, $4)
		)
	`

	var exists bool
	err := tx.QueryRow(ctx, query, userID, offeringID,
		model.ReservationStatusActive, model.ReservationStatusCompleted,
	).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *ReservationRepositoryImpl) List(ctx context.Context) ([]*model.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		ORDER BY created_at DESC
	`, reservationColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]*model.Reservation, error) {
	reservations := make([]*model.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}

func (r *ReservationRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE id = $1
	`, reservationColumns)

	reservation, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (r *ReservationRepositoryImpl) FindByIDTx(ctx context.Context, tx pgx.Tx, id int) (*model.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE id = $1
	`, reservationColumns)

	reservation, err := scanReservation(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (r *ReservationRepositoryImpl) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE reservation_id = $1
	`, reservationColumns)

	reservation, err := scanReservation(r.pool.QueryRow(ctx, query, reservationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (r *ReservationRepositoryImpl) FindByUserID(ctx context.Context, userID int, listQuery model.ListReservationsQuery) ([]*model.Reservation, error) {
	page := listQuery.Page
	if page < 1 {
		page = 1
	}
	limit := listQuery.Limit
	if limit < 1 {
		limit = 10
	}

	args := []interface{}{userID}
	filter := ""
	if listQuery.Status != "" {
		filter = " AND status = $2"
		args = append(args, listQuery.Status)
	}
	args = append(args, limit, (page-1)*limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE user_id = $1%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, reservationColumns, filter, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *ReservationRepositoryImpl) FindByOfferingID(ctx context.Context, offeringID int) ([]*model.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE offering_id = $1
		ORDER BY created_at DESC
	`, reservationColumns)

	rows, err := r.pool.Query(ctx, query, offeringID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *ReservationRepositoryImpl) CountActiveByOfferingID(ctx context.Context, offeringID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE offering_id = $1 AND status = $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, offeringID, model.ReservationStatusActive).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ReservationRepositoryImpl) GetStats(ctx context.Context) (*model.ReservationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'no_show')
		FROM reservations
	`

	var stats model.ReservationStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Cancelled,
		&stats.Completed,
		&stats.NoShow,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *ReservationRepositoryImpl) UpdateStatusFromActive(
	ctx context.Context,
	tx pgx.Tx,
	id int,
	status model.ReservationStatus,
) (*model.Reservation, error) {
	query := fmt.Sprintf(`
		UPDATE reservations
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING %s
	`, reservationColumns)

	reservation, err := scanReservation(tx.QueryRow(ctx, query,
		status, time.Now().UTC(), id, model.ReservationStatusActive,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyMissedUpdate(ctx, tx, id)
		}
		return nil, fmt.Errorf("failed to update reservation status: %w", err)
	}

	return reservation, nil
}

func (r *ReservationRepositoryImpl) Cancel(
	ctx context.Context,
	tx pgx.Tx,
	id int,
	actor model.CancelActor,
	reason string,
) (*model.Reservation, error) {
	query := fmt.Sprintf(`
		UPDATE reservations
		SET status = $1, cancelled_at = $2, cancelled_by = $3, cancel_reason = $4, updated_at = $2
		WHERE id = $5 AND status = $6
		RETURNING %s
	`, reservationColumns)

	reservation, err := scanReservation(tx.QueryRow(ctx, query,
		model.ReservationStatusCancelled, time.Now().UTC(), actor, reason,
		id, model.ReservationStatusActive,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyMissedUpdate(ctx, tx, id)
		}
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}

	return reservation, nil
}

// classifyMissedUpdate 條件式轉換沒改到任何列：分不出是不存在還是已非 Active，補一次讀取
func (r *ReservationRepositoryImpl) classifyMissedUpdate(ctx context.Context, tx pgx.Tx, id int) error {
	if _, err := r.FindByIDTx(ctx, tx, id); err != nil {
		return err
	}
	return apperrors.ErrReservationNotActive
}
