package worker

import (
	"context"
	"time"

	"go-formation-reservation/internal/repository"
	"go-formation-reservation/pkg/logger"

	"go.uber.org/zap"
)

// CapacityReconciler 定期把每個場次的 capacity_remaining 重算為
// capacity_total - count(active)。餘位永遠可由預約表推導回來，
// 這裡是狀態寫入與座位增減之間萬一出現落差時的校正機制。
type CapacityReconciler struct {
	offeringRepo repository.OfferingRepository
	interval     time.Duration
}

func NewCapacityReconciler(offeringRepo repository.OfferingRepository, interval time.Duration) *CapacityReconciler {
	return &CapacityReconciler{
		offeringRepo: offeringRepo,
		interval:     interval,
	}
}

func (r *CapacityReconciler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce 執行一輪校正並回報修正筆數
func (r *CapacityReconciler) RunOnce(ctx context.Context) {
	fixed, err := r.offeringRepo.ReconcileCapacity(ctx)
	if err != nil {
		logger.WithComponent("reconciler").Error("reconcile capacity failed", zap.Error(err))
		return
	}
	if fixed > 0 {
		// 正常情況下應為 0；非 0 代表某處的座位增減漏了
		logger.WithComponent("reconciler").Warn("capacity drift repaired", zap.Int64("offerings_fixed", fixed))
	}
}
