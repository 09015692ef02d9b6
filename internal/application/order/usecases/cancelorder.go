package usecases

import (
	"context"
	"fmt"

	"settlo/internal/application/order/suffixalloc"
	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

// CancelOrderUseCase cancels a pending order and returns its suffix to the
// pool synchronously, without waiting for the sweeper.
type CancelOrderUseCase struct {
	orderRepo order.OrderRepository
	allocator suffixalloc.Allocator
	logger    logger.Interface
}

func NewCancelOrderUseCase(
	orderRepo order.OrderRepository,
	allocator suffixalloc.Allocator,
	logger logger.Interface,
) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		orderRepo: orderRepo,
		allocator: allocator,
		logger:    logger,
	}
}

func (uc *CancelOrderUseCase) Execute(ctx context.Context, orderNo string) error {
	o, err := uc.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return err
	}

	if err := o.MarkAsCancelled(); err != nil {
		return err
	}

	applied, err := uc.orderRepo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
	if err != nil {
		return err
	}
	if !applied {
		current, err := uc.orderRepo.GetByOrderNo(ctx, orderNo)
		if err != nil {
			return err
		}
		if current.Status() == vo.OrderStatusCancelled {
			return nil
		}
		return apperrors.NewInvalidTransitionError(fmt.Sprintf("order %s is %s", orderNo, current.Status()))
	}

	if s := o.Suffix(); s != nil {
		if err := uc.allocator.Release(ctx, *s, o.OrderNo()); err != nil {
			uc.logger.Warnw("failed to release suffix on cancellation",
				"order_no", o.OrderNo(),
				"suffix", *s,
				"error", err,
			)
		}
	}

	uc.logger.Infow("order cancelled", "order_no", o.OrderNo())
	return nil
}
