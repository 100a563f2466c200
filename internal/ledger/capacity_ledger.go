// Package ledger 是 capacity_remaining 的唯一寫入者。
// 座位的扣減與釋放都走單一條件式 UPDATE，不做先讀後寫。
package ledger

import (
	"context"

	"go-formation-reservation/internal/model"
	"go-formation-reservation/internal/repository"
	apperrors "go-formation-reservation/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type CapacityLedger interface {
	// ReserveSeat 原子性檢查並扣減一個座位。同一場次併發呼叫時，
	// 餘位為 1 的兩個請求恰好一成一敗。
	ReserveSeat(ctx context.Context, tx pgx.Tx, offeringID int) error
	// ReleaseSeat 原子性釋放一個座位，拒絕超過 capacity_total
	ReleaseSeat(ctx context.Context, tx pgx.Tx, offeringID int) error
	// AdjustCapacityTotal 管理端改總座位數；新值低於已佔用座位數時拒絕。
	// 餘位重算為 newTotal - reserved，已佔用的座位不受影響。
	AdjustCapacityTotal(ctx context.Context, tx pgx.Tx, offeringID int, newTotal int) (*model.Offering, error)
}

type CapacityLedgerImpl struct {
	offeringRepo repository.OfferingRepository
}

func NewCapacityLedger(offeringRepo repository.OfferingRepository) CapacityLedger {
	return &CapacityLedgerImpl{
		offeringRepo: offeringRepo,
	}
}

func (l *CapacityLedgerImpl) ReserveSeat(ctx context.Context, tx pgx.Tx, offeringID int) error {
	applied, err := l.offeringRepo.DecrementRemaining(ctx, tx, offeringID)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	// 條件不符，讀一次該列把失敗原因分類
	offering, err := l.offeringRepo.FindByIDTx(ctx, tx, offeringID)
	if err != nil {
		return err
	}
	if offering.Status != model.OfferingStatusPublished {
		return apperrors.ErrOfferingNotPublished
	}
	return apperrors.ErrOutOfCapacity
}

func (l *CapacityLedgerImpl) ReleaseSeat(ctx context.Context, tx pgx.Tx, offeringID int) error {
	applied, err := l.offeringRepo.IncrementRemaining(ctx, tx, offeringID)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	if _, err := l.offeringRepo.FindByIDTx(ctx, tx, offeringID); err != nil {
		return err
	}
	// 場次存在但餘位已達總數：防止重複釋放
	return apperrors.ErrCapacityAlreadyFull
}

func (l *CapacityLedgerImpl) AdjustCapacityTotal(ctx context.Context, tx pgx.Tx, offeringID int, newTotal int) (*model.Offering, error) {
	offering, err := l.offeringRepo.FindByIDWithLock(ctx, tx, offeringID)
	if err != nil {
		return nil, err
	}

	reserved := offering.ReservedCount()
	if newTotal < reserved {
		return nil, apperrors.ErrCapacityBelowReserved
	}

	return l.offeringRepo.ResizeCapacity(ctx, tx, offeringID, newTotal, newTotal-reserved)
}
