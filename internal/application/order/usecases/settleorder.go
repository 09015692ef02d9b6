package usecases

import (
	"context"
	"fmt"

	"settlo/internal/application/order/delivery"
	"settlo/internal/application/order/suffixalloc"
	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/shared/biztime"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

type SettleOrderCommand struct {
	OrderNo     string
	AmountMicro int64
	TxHash      string
}

type SettleOrderResult struct {
	OrderNo     string
	Status      vo.OrderStatus
	AlreadyPaid bool
}

// SettleOrderUseCase settles a non-deposit order against a verified
// payment: exact amount check, conditional pending -> paid transition,
// suffix release, then the external delivery call. The conditional
// transition makes concurrent deliveries of the same callback collapse to
// one credit.
type SettleOrderUseCase struct {
	orderRepo order.OrderRepository
	allocator suffixalloc.Allocator
	deliverer delivery.Deliverer
	logger    logger.Interface
}

func NewSettleOrderUseCase(
	orderRepo order.OrderRepository,
	allocator suffixalloc.Allocator,
	deliverer delivery.Deliverer,
	logger logger.Interface,
) *SettleOrderUseCase {
	return &SettleOrderUseCase{
		orderRepo: orderRepo,
		allocator: allocator,
		deliverer: deliverer,
		logger:    logger,
	}
}

func (uc *SettleOrderUseCase) Execute(ctx context.Context, cmd SettleOrderCommand) (*SettleOrderResult, error) {
	o, err := uc.orderRepo.GetByOrderNo(ctx, cmd.OrderNo)
	if err != nil {
		return nil, err
	}
	if o.OrderType().IsDeposit() {
		return nil, apperrors.NewValidationError("deposit orders settle through the ledger credit path")
	}

	if o.Status().IsPaid() || o.Status() == vo.OrderStatusDelivered || o.Status() == vo.OrderStatusPartial {
		// Replayed callback for an already settled order.
		return &SettleOrderResult{OrderNo: o.OrderNo(), Status: o.Status(), AlreadyPaid: true}, nil
	}

	if o.IsExpired(biztime.NowUTC()) {
		return nil, apperrors.NewOrderExpiredError(fmt.Sprintf("order %s expired at %s", o.OrderNo(), o.ExpiresAt()))
	}

	if cmd.AmountMicro != o.TotalAmountMicro() {
		return nil, apperrors.NewAmountMismatchError(fmt.Sprintf("order %s", o.OrderNo()))
	}

	if err := o.MarkAsPaid(cmd.TxHash); err != nil {
		return nil, err
	}
	applied, err := uc.orderRepo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race: reload and report idempotently if the winner paid it.
		current, err := uc.orderRepo.GetByOrderNo(ctx, cmd.OrderNo)
		if err != nil {
			return nil, err
		}
		if current.Status().IsPaid() || current.Status() == vo.OrderStatusDelivered || current.Status() == vo.OrderStatusPartial {
			return &SettleOrderResult{OrderNo: current.OrderNo(), Status: current.Status(), AlreadyPaid: true}, nil
		}
		return nil, apperrors.NewInvalidTransitionError(fmt.Sprintf("order %s is %s", current.OrderNo(), current.Status()))
	}

	uc.logger.Infow("order settled",
		"order_no", o.OrderNo(),
		"order_type", o.OrderType(),
		"amount_micro", cmd.AmountMicro,
		"tx_hash", cmd.TxHash,
	)

	uc.releaseSuffix(ctx, o)

	status := uc.deliver(ctx, o)

	return &SettleOrderResult{OrderNo: o.OrderNo(), Status: status}, nil
}

// releaseSuffix returns the disambiguation token the moment the order
// leaves pending. Failure here is logged, not fatal: the settlement stands
// and the sweeper or restart reconciliation picks the token up later.
func (uc *SettleOrderUseCase) releaseSuffix(ctx context.Context, o *order.Order) {
	s := o.Suffix()
	if s == nil {
		return
	}
	if err := uc.allocator.Release(ctx, *s, o.OrderNo()); err != nil {
		uc.logger.Warnw("failed to release suffix after settlement",
			"order_no", o.OrderNo(),
			"suffix", *s,
			"error", err,
		)
	}
}

// deliver runs the external fulfillment call and persists the aggregate
// outcome: delivered when every recipient succeeded, partial otherwise. A
// failed delivery leaves the order paid for a later retry by support
// tooling.
func (uc *SettleOrderUseCase) deliver(ctx context.Context, o *order.Order) vo.OrderStatus {
	if !o.OrderType().RequiresDelivery() || uc.deliverer == nil {
		return o.Status()
	}

	results, err := uc.deliverer.Deliver(ctx, o)
	if err != nil {
		uc.logger.Errorw("delivery failed, order stays paid",
			"order_no", o.OrderNo(),
			"error", err,
		)
		return o.Status()
	}

	var markErr error
	if delivery.AllSucceeded(results) {
		markErr = o.MarkAsDelivered()
	} else {
		uc.logger.Warnw("partial delivery",
			"order_no", o.OrderNo(),
			"recipients", len(results),
		)
		markErr = o.MarkAsPartial()
	}
	if markErr != nil {
		uc.logger.Errorw("failed to mark delivery outcome", "order_no", o.OrderNo(), "error", markErr)
		return o.Status()
	}

	applied, err := uc.orderRepo.UpdateStatusIf(ctx, o, vo.OrderStatusPaid)
	if err != nil || !applied {
		uc.logger.Errorw("failed to persist delivery outcome",
			"order_no", o.OrderNo(),
			"applied", applied,
			"error", err,
		)
	}
	return o.Status()
}
