package usecases

import (
	"context"

	"settlo/internal/domain/order"
	"settlo/internal/shared/logger"
)

type MarkUserConfirmedCommand struct {
	OrderNo string
	TxHash  string
	Source  string
}

// MarkUserConfirmedUseCase records a self-reported payment confirmation.
// Writes advisory fields only; the order status is never changed here, and
// support tooling uses the record to reconcile payments the watcher missed.
type MarkUserConfirmedUseCase struct {
	orderRepo order.OrderRepository
	logger    logger.Interface
}

func NewMarkUserConfirmedUseCase(orderRepo order.OrderRepository, logger logger.Interface) *MarkUserConfirmedUseCase {
	return &MarkUserConfirmedUseCase{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

func (uc *MarkUserConfirmedUseCase) Execute(ctx context.Context, cmd MarkUserConfirmedCommand) error {
	o, err := uc.orderRepo.GetByOrderNo(ctx, cmd.OrderNo)
	if err != nil {
		return err
	}

	o.MarkUserConfirmed(cmd.TxHash, cmd.Source)

	if err := uc.orderRepo.UpdateUserConfirmation(ctx, o); err != nil {
		return err
	}

	uc.logger.Infow("user confirmation recorded",
		"order_no", cmd.OrderNo,
		"source", cmd.Source,
	)
	return nil
}
