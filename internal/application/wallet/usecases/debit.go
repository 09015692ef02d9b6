package usecases

import (
	"context"
	"fmt"

	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/domain/wallet"
	"settlo/internal/shared/biztime"
	"settlo/internal/shared/db"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

type DebitCommand struct {
	UserID         int64
	AmountMicro    int64
	OrderType      vo.OrderType
	RelatedOrderNo string
}

type DebitResult struct {
	BalanceMicro int64
}

// DebitUseCase charges a user's balance. The guarded decrement and the
// ledger line are written in one transaction: if the ledger insert fails
// the decrement rolls back too, so partial effects are impossible. An
// insufficient balance is rejected with no mutation at all.
type DebitUseCase struct {
	walletRepo wallet.WalletRepository
	txManager  *db.TransactionManager
	logger     logger.Interface
}

func NewDebitUseCase(
	walletRepo wallet.WalletRepository,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *DebitUseCase {
	return &DebitUseCase{
		walletRepo: walletRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

func (uc *DebitUseCase) Execute(ctx context.Context, cmd DebitCommand) (*DebitResult, error) {
	if cmd.AmountMicro <= 0 {
		return nil, apperrors.NewValidationError("debit amount must be positive")
	}

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.walletRepo.GetOrCreate(txCtx, cmd.UserID); err != nil {
			return err
		}

		debited, err := uc.walletRepo.TryDebit(txCtx, cmd.UserID, cmd.AmountMicro)
		if err != nil {
			return err
		}
		if !debited {
			return apperrors.NewInsufficientBalanceError(fmt.Sprintf("user %d", cmd.UserID))
		}

		return uc.walletRepo.CreateDebitRecord(txCtx, &wallet.DebitRecord{
			UserID:         cmd.UserID,
			AmountMicro:    cmd.AmountMicro,
			OrderType:      cmd.OrderType,
			RelatedOrderNo: cmd.RelatedOrderNo,
			CreatedAt:      biztime.NowUTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	w, err := uc.walletRepo.GetOrCreate(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("balance debited",
		"user_id", cmd.UserID,
		"amount_micro", cmd.AmountMicro,
		"order_type", cmd.OrderType,
		"related_order_no", cmd.RelatedOrderNo,
		"balance_micro", w.BalanceMicro(),
	)

	return &DebitResult{BalanceMicro: w.BalanceMicro()}, nil
}
