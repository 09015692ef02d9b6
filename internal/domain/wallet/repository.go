package wallet

import "context"

// WalletRepository persists balances and ledger lines. Credit and TryDebit
// are single-row atomic mutations; multi-step invariants (debit + ledger
// line, settle + credit) are composed by the use cases inside one database
// transaction.
type WalletRepository interface {
	// GetOrCreate returns the user's wallet, creating it with balance 0 on
	// first interaction.
	GetOrCreate(ctx context.Context, userID int64) (*Wallet, error)

	// Credit adds amountMicro to the user's balance.
	Credit(ctx context.Context, userID int64, amountMicro int64) error

	// TryDebit subtracts amountMicro only if the balance stays >= 0,
	// reporting whether the debit was applied. The check and decrement are
	// one atomic guarded update.
	TryDebit(ctx context.Context, userID int64, amountMicro int64) (bool, error)

	CreateDebitRecord(ctx context.Context, rec *DebitRecord) error
	CreateCreditRecord(ctx context.Context, rec *CreditRecord) error

	// ListDebitRecords returns the user's debit lines, newest first.
	ListDebitRecords(ctx context.Context, userID int64, limit int) ([]*DebitRecord, error)
}
