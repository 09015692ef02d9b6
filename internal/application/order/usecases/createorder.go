package usecases

import (
	"context"
	"fmt"
	"time"

	"settlo/internal/application/order/suffixalloc"
	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	sharedConfig "settlo/internal/shared/config"
	"settlo/internal/shared/logger"
)

type CreateOrderCommand struct {
	UserID          int64
	BaseAmountMicro int64
	OrderType       vo.OrderType
}

type CreateOrderResult struct {
	OrderNo          string
	TotalAmountMicro int64
	PayAmount        string
	ReceivingAddress string
	ExpiresAt        time.Time
}

// CreateOrderUseCase creates a pending order and reserves its disambiguation
// suffix. Suffix-pool exhaustion is surfaced as-is: it is a transient
// capacity bound (at most 999 concurrently outstanding disambiguated
// orders), and callers should retry shortly rather than treat it as a
// permanent failure.
type CreateOrderUseCase struct {
	orderRepo order.OrderRepository
	allocator suffixalloc.Allocator
	settings  sharedConfig.Settings
	logger    logger.Interface
}

func NewCreateOrderUseCase(
	orderRepo order.OrderRepository,
	allocator suffixalloc.Allocator,
	settings sharedConfig.Settings,
	logger logger.Interface,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo: orderRepo,
		allocator: allocator,
		settings:  settings,
		logger:    logger,
	}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	ttl := time.Duration(uc.settings.OrderTimeoutMinutes()) * time.Minute

	o, err := order.NewOrder(cmd.UserID, cmd.BaseAmountMicro, cmd.OrderType, ttl)
	if err != nil {
		return nil, err
	}

	if cmd.OrderType.IsDisambiguated() {
		suffix, err := uc.allocator.Allocate(ctx, o.OrderNo(), ttl)
		if err != nil {
			return nil, err
		}
		if err := o.AttachSuffix(suffix); err != nil {
			uc.releaseAfterFailure(ctx, suffix, o.OrderNo())
			return nil, err
		}
	}

	if err := uc.orderRepo.Create(ctx, o); err != nil {
		if s := o.Suffix(); s != nil {
			uc.releaseAfterFailure(ctx, *s, o.OrderNo())
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	uc.logger.Infow("order created",
		"order_no", o.OrderNo(),
		"user_id", o.UserID(),
		"order_type", o.OrderType(),
		"total_amount_micro", o.TotalAmountMicro(),
		"expires_at", o.ExpiresAt(),
	)

	result := &CreateOrderResult{
		OrderNo:          o.OrderNo(),
		TotalAmountMicro: o.TotalAmountMicro(),
		PayAmount:        vo.FormatMicro(o.TotalAmountMicro()),
		ExpiresAt:        o.ExpiresAt(),
	}
	if addrs := uc.settings.ReceivingAddresses(); len(addrs) > 0 {
		result.ReceivingAddress = addrs[0]
	}
	return result, nil
}

func (uc *CreateOrderUseCase) releaseAfterFailure(ctx context.Context, suffix int, orderNo string) {
	if err := uc.allocator.Release(ctx, suffix, orderNo); err != nil {
		uc.logger.Warnw("failed to release suffix after order creation failure",
			"suffix", suffix,
			"order_no", orderNo,
			"error", err,
		)
	}
}
