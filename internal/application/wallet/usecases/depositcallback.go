package usecases

import (
	"context"
	"fmt"

	"settlo/internal/application/order/suffixalloc"
	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/domain/wallet"
	"settlo/internal/shared/biztime"
	"settlo/internal/shared/db"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

type ProcessDepositCallbackCommand struct {
	OrderNo     string
	AmountMicro int64
	TxHash      string
}

type ProcessDepositCallbackResult struct {
	OrderNo         string
	CreditedMicro   int64
	AlreadyCredited bool
}

// ProcessDepositCallbackUseCase settles a deposit order: exact amount
// verification, conditional pending -> paid transition and the balance
// credit, all in one transaction. A replay with the same order and tx hash
// reports success without touching the balance again: the order transitions
// to paid exactly once, ever.
type ProcessDepositCallbackUseCase struct {
	orderRepo  order.OrderRepository
	walletRepo wallet.WalletRepository
	allocator  suffixalloc.Allocator
	txManager  *db.TransactionManager
	logger     logger.Interface
}

func NewProcessDepositCallbackUseCase(
	orderRepo order.OrderRepository,
	walletRepo wallet.WalletRepository,
	allocator suffixalloc.Allocator,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ProcessDepositCallbackUseCase {
	return &ProcessDepositCallbackUseCase{
		orderRepo:  orderRepo,
		walletRepo: walletRepo,
		allocator:  allocator,
		txManager:  txManager,
		logger:     logger,
	}
}

func (uc *ProcessDepositCallbackUseCase) Execute(ctx context.Context, cmd ProcessDepositCallbackCommand) (*ProcessDepositCallbackResult, error) {
	o, err := uc.orderRepo.GetByOrderNo(ctx, cmd.OrderNo)
	if err != nil {
		return nil, err
	}
	if !o.OrderType().IsDeposit() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("order %s is not a deposit", cmd.OrderNo))
	}

	if replay := uc.replayResult(o, cmd.TxHash); replay != nil {
		return replay, nil
	}

	// The deadline is checked at the moment of settlement: a payment
	// arriving exactly at or after expiry is rejected, never credited.
	if o.IsExpired(biztime.NowUTC()) {
		return nil, apperrors.NewOrderExpiredError(fmt.Sprintf("order %s expired at %s", o.OrderNo(), o.ExpiresAt()))
	}

	if cmd.AmountMicro != o.TotalAmountMicro() {
		return nil, apperrors.NewAmountMismatchError(fmt.Sprintf("order %s", o.OrderNo()))
	}

	if err := o.MarkAsPaid(cmd.TxHash); err != nil {
		return nil, err
	}

	var applied bool
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		applied, err = uc.orderRepo.UpdateStatusIf(txCtx, o, vo.OrderStatusPending)
		if err != nil {
			return err
		}
		if !applied {
			// Raced with another delivery of the same callback; decided
			// outside the transaction.
			return nil
		}

		if _, err := uc.walletRepo.GetOrCreate(txCtx, o.UserID()); err != nil {
			return err
		}
		if err := uc.walletRepo.Credit(txCtx, o.UserID(), o.TotalAmountMicro()); err != nil {
			return err
		}
		return uc.walletRepo.CreateCreditRecord(txCtx, &wallet.CreditRecord{
			UserID:      o.UserID(),
			AmountMicro: o.TotalAmountMicro(),
			OrderNo:     o.OrderNo(),
			TxHash:      cmd.TxHash,
			CreatedAt:   biztime.NowUTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if !applied {
		current, err := uc.orderRepo.GetByOrderNo(ctx, cmd.OrderNo)
		if err != nil {
			return nil, err
		}
		if replay := uc.replayResult(current, cmd.TxHash); replay != nil {
			return replay, nil
		}
		return nil, apperrors.NewInvalidTransitionError(fmt.Sprintf("order %s is %s", cmd.OrderNo, current.Status()))
	}

	uc.logger.Infow("deposit credited",
		"order_no", o.OrderNo(),
		"user_id", o.UserID(),
		"amount_micro", o.TotalAmountMicro(),
		"tx_hash", cmd.TxHash,
	)

	if s := o.Suffix(); s != nil {
		if err := uc.allocator.Release(ctx, *s, o.OrderNo()); err != nil {
			uc.logger.Warnw("failed to release suffix after deposit settlement",
				"order_no", o.OrderNo(),
				"suffix", *s,
				"error", err,
			)
		}
	}

	return &ProcessDepositCallbackResult{
		OrderNo:       o.OrderNo(),
		CreditedMicro: o.TotalAmountMicro(),
	}, nil
}

// replayResult recognizes an already settled deposit. The balance was
// credited when the order first became paid, so the replay reports success
// with no further mutation.
func (uc *ProcessDepositCallbackUseCase) replayResult(o *order.Order, txHash string) *ProcessDepositCallbackResult {
	if !o.Status().IsPaid() && !o.Status().IsFinal() {
		return nil
	}
	if o.Status() == vo.OrderStatusExpired || o.Status() == vo.OrderStatusCancelled {
		return nil
	}

	if o.TxHash() != nil && *o.TxHash() != txHash {
		uc.logger.Warnw("replayed deposit callback carries different tx hash",
			"order_no", o.OrderNo(),
			"recorded_tx_hash", *o.TxHash(),
			"callback_tx_hash", txHash,
		)
	}
	return &ProcessDepositCallbackResult{
		OrderNo:         o.OrderNo(),
		CreditedMicro:   o.TotalAmountMicro(),
		AlreadyCredited: true,
	}
}
