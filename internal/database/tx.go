package database

import (
	"context"
	"errors"
	"time"

	apperrors "go-formation-reservation/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	txMaxAttempts  = 3
	txRetryBackoff = 20 * time.Millisecond
)

// IsUniqueViolation 檢查是否為唯一約束衝突 (SQLSTATE 23505)
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isRetryableTxError 序列化失敗(40001)與死鎖(40P01)可安全重試；唯一約束衝突不可
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// RunInTx 開啟交易執行 fn，fn 回錯誤則回滾
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RunInTxWithRetry 對暫時性衝突做有限次重試，用盡後回報 ErrConcurrencyConflict
func RunInTxWithRetry(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(txRetryBackoff):
			}
		}

		err = RunInTx(ctx, pool, fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
	}
	return apperrors.ErrConcurrencyConflict
}
