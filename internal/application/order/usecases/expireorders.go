package usecases

import (
	"context"
	"fmt"

	"settlo/internal/application/order/suffixalloc"
	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/shared/biztime"
	"settlo/internal/shared/logger"
)

// SweepStats summarizes one expiry sweep.
type SweepStats struct {
	Checked        int
	Expired        int
	TokensReleased int
	Errors         int
}

// ExpireOrdersUseCase is one sweep: expire every overdue pending order and
// return its disambiguation token to the pool. Per-order failures are
// counted and skipped, never aborting the sweep. Expiring the order and
// releasing its suffix are deliberately separable steps: the expired status
// commits even when the claim store is unreachable, and a stuck suffix is
// reconciled on the next sweep or restart.
type ExpireOrdersUseCase struct {
	orderRepo order.OrderRepository
	allocator suffixalloc.Allocator
	logger    logger.Interface
}

func NewExpireOrdersUseCase(
	orderRepo order.OrderRepository,
	allocator suffixalloc.Allocator,
	logger logger.Interface,
) *ExpireOrdersUseCase {
	return &ExpireOrdersUseCase{
		orderRepo: orderRepo,
		allocator: allocator,
		logger:    logger,
	}
}

func (uc *ExpireOrdersUseCase) Execute(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	overdue, err := uc.orderRepo.GetExpiredPending(ctx, biztime.NowUTC())
	if err != nil {
		return stats, fmt.Errorf("failed to query overdue orders: %w", err)
	}

	stats.Checked = len(overdue)
	if len(overdue) == 0 {
		uc.logger.Debugw("no overdue pending orders")
		return stats, nil
	}

	for _, o := range overdue {
		if err := uc.expireOne(ctx, o, &stats); err != nil {
			stats.Errors++
			uc.logger.Errorw("failed to expire order",
				"order_no", o.OrderNo(),
				"error", err,
			)
		}
	}

	uc.logger.Infow("expiry sweep finished",
		"checked", stats.Checked,
		"expired", stats.Expired,
		"tokens_released", stats.TokensReleased,
		"errors", stats.Errors,
	)
	return stats, nil
}

func (uc *ExpireOrdersUseCase) expireOne(ctx context.Context, o *order.Order, stats *SweepStats) error {
	if err := o.MarkAsExpired(); err != nil {
		return err
	}

	applied, err := uc.orderRepo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
	if err != nil {
		return err
	}
	if !applied {
		// A concurrent settlement or cancellation won; nothing to reclaim.
		return nil
	}
	stats.Expired++

	// The suffix is recovered from the stored amount rather than the suffix
	// column, so orders persisted before the column existed still release.
	suffix, ok := vo.ExtractSuffix(o.TotalAmountMicro())
	if !ok {
		return nil
	}

	if err := uc.allocator.ReleaseExpired(ctx, suffix, o.OrderNo()); err != nil {
		// The expired status is already committed; count the stuck token and
		// move on.
		stats.Errors++
		uc.logger.Warnw("failed to release suffix for expired order",
			"order_no", o.OrderNo(),
			"suffix", suffix,
			"error", err,
		)
		return nil
	}
	stats.TokensReleased++

	return nil
}
