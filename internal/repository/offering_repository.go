package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-formation-reservation/internal/model"
	apperrors "go-formation-reservation/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const offeringColumns = `id, offering_id, title, description, capacity_total,
		capacity_remaining, status, created_at, updated_at, deleted_at`

type OfferingRepository interface {
	Create(ctx context.Context, offering *model.Offering) (*model.Offering, error)
	ListPublished(ctx context.Context) ([]*model.Offering, error)
	FindByID(ctx context.Context, id int) (*model.Offering, error)
	FindByOfferingID(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error)
	Update(ctx context.Context, id int, params model.UpdateOfferingParams) (*model.Offering, error)
	UpdateStatus(ctx context.Context, id int, from, to model.OfferingStatus) (*model.Offering, error)
	Delete(ctx context.Context, id int) error

	// Transaction methods
	FindByIDTx(ctx context.Context, tx pgx.Tx, id int) (*model.Offering, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Offering, error)
	// DecrementRemaining 條件式扣減一個座位，只對 published、未刪除、尚有餘位的場次生效。
	// 回傳是否真的扣到；沒扣到的原因由呼叫端讀取該列後分類。
	DecrementRemaining(ctx context.Context, tx pgx.Tx, id int) (bool, error)
	// IncrementRemaining 條件式釋放一個座位，拒絕超過 capacity_total
	IncrementRemaining(ctx context.Context, tx pgx.Tx, id int) (bool, error)
	// ResizeCapacity 以計算好的新值改寫總座位與餘位，呼叫端負責持鎖與驗證
	ResizeCapacity(ctx context.Context, tx pgx.Tx, id int, newTotal, newRemaining int) (*model.Offering, error)
	// ReconcileCapacity 把每個場次的 capacity_remaining 重算為
	// capacity_total - count(active)，回傳被修正的場次數
	ReconcileCapacity(ctx context.Context) (int64, error)
}

type OfferingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewOfferingRepository(pool *pgxpool.Pool) OfferingRepository {
	return &OfferingRepositoryImpl{
		pool: pool,
	}
}

func scanOffering(row pgx.Row) (*model.Offering, error) {
	var offering model.Offering
	err := row.Scan(
		&offering.ID,
		&offering.OfferingID,
		&offering.Title,
		&offering.Description,
		&offering.CapacityTotal,
		&offering.CapacityRemaining,
		&offering.Status,
		&offering.CreatedAt,
		&offering.UpdatedAt,
		&offering.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

func (r *OfferingRepositoryImpl) Create(ctx context.Context, offering *model.Offering) (*model.Offering, error) {
	query := fmt.Sprintf(`
		INSERT INTO offerings (
			offering_id, title, description, capacity_total, capacity_remaining, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, offeringColumns)

	row := r.pool.QueryRow(ctx, query,
		offering.OfferingID, offering.Title, offering.Description,
		offering.CapacityTotal, offering.CapacityRemaining, offering.Status,
	)
	return scanOffering(row)
}

func (r *OfferingRepositoryImpl) ListPublished(ctx context.Context) ([]*model.Offering, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offerings
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, offeringColumns)

	rows, err := r.pool.Query(ctx, query, model.OfferingStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offerings := make([]*model.Offering, 0)
	for rows.Next() {
		offering, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, offering)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return offerings, nil
}

func (r *OfferingRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Offering, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offerings
		WHERE id = $1 AND deleted_at IS NULL
	`, offeringColumns)

	offering, err := scanOffering(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, err
	}
	return offering, nil
}

func (r *OfferingRepositoryImpl) FindByOfferingID(ctx context.Context, offeringID uuid.UUID) (*model.Offering, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offerings
		WHERE offering_id = $1 AND deleted_at IS NULL
	`, offeringColumns)

	offering, err := scanOffering(r.pool.QueryRow(ctx, query, offeringID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, err
	}
	return offering, nil
}

func (r *OfferingRepositoryImpl) FindByIDTx(ctx context.Context, tx pgx.Tx, id int) (*model.Offering, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offerings
		WHERE id = $1 AND deleted_at IS NULL
	`, offeringColumns)

	offering, err := scanOffering(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, err
	}
	return offering, nil
}

func (r *OfferingRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Offering, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offerings
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, offeringColumns)

	offering, err := scanOffering(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, err
	}
	return offering, nil
}

func (r *OfferingRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateOfferingParams) (*model.Offering, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	if params.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argPos))
		args = append(args, *params.Title)
		argPos++
	}

	if params.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *params.Description)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE offerings
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, offeringColumns)

	offering, err := scanOffering(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, err
	}
	return offering, nil
}

// UpdateStatus 條件式狀態轉換：只在目前狀態等於 from 時寫入 to
func (r *OfferingRepositoryImpl) UpdateStatus(ctx context.Context, id int, from, to model.OfferingStatus) (*model.Offering, error) {
	query := fmt.Sprintf(`
		UPDATE offerings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
		RETURNING %s
	`, offeringColumns)

	offering, err := scanOffering(r.pool.QueryRow(ctx, query, to, time.Now().UTC(), id, from))
	if err != nil {
		if err == pgx.ErrNoRows {
			// 分不出是不存在還是狀態不符，補一次讀取
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, apperrors.ErrInvalidStatusTransition
		}
		return nil, err
	}
	return offering, nil
}

func (r *OfferingRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `
		UPDATE offerings
		SET deleted_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return err
	}

	// check if offering exists and not already deleted
	if result.RowsAffected() == 0 {
		return apperrors.ErrOfferingNotFound
	}

	return nil
}

func (r *OfferingRepositoryImpl) DecrementRemaining(ctx context.Context, tx pgx.Tx, id int) (bool, error) {
	query := `
		UPDATE offerings
		SET capacity_remaining = capacity_remaining - 1, updated_at = $1
		WHERE id = $2
		  AND status = $3
		  AND deleted_at IS NULL
		  AND capacity_remaining > 0
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id, model.OfferingStatusPublished)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

func (r *OfferingRepositoryImpl) IncrementRemaining(ctx context.Context, tx pgx.Tx, id int) (bool, error) {
	query := `
		UPDATE offerings
		SET capacity_remaining = capacity_remaining + 1, updated_at = $1
		WHERE id = $2
		  AND deleted_at IS NULL
		  AND capacity_remaining < capacity_total
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

func (r *OfferingRepositoryImpl) ResizeCapacity(ctx context.Context, tx pgx.Tx, id int, newTotal, newRemaining int) (*model.Offering, error) {
	query := fmt.Sprintf(`
		UPDATE offerings
		SET capacity_total = $1, capacity_remaining = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
		RETURNING %s
	`, offeringColumns)

	offering, err := scanOffering(tx.QueryRow(ctx, query, newTotal, newRemaining, time.Now().UTC(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, err
	}
	return offering, nil
}

func (r *OfferingRepositoryImpl) ReconcileCapacity(ctx context.Context) (int64, error) {
	query := `
		UPDATE offerings o
		SET capacity_remaining = o.capacity_total - sub.active_count,
			updated_at = $1
		FROM (
			SELECT o2.id,
			       (SELECT COUNT(*) FROM reservations r
			         WHERE r.offering_id = o2.id AND r.status = $2) AS active_count
			FROM offerings o2
			WHERE o2.deleted_at IS NULL
		) sub
		WHERE o.id = sub.id
		  AND o.capacity_remaining <> o.capacity_total - sub.active_count
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), model.ReservationStatusActive)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
