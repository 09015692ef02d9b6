package usecases

import (
	"context"

	"settlo/internal/domain/wallet"
)

// GetBalanceUseCase reads the user's current balance, creating the wallet
// row with balance 0 on first interaction.
type GetBalanceUseCase struct {
	walletRepo wallet.WalletRepository
}

func NewGetBalanceUseCase(walletRepo wallet.WalletRepository) *GetBalanceUseCase {
	return &GetBalanceUseCase{walletRepo: walletRepo}
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, userID int64) (int64, error) {
	w, err := uc.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, err
	}
	return w.BalanceMicro(), nil
}
