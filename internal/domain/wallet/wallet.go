// Package wallet is the integer-denominated balance ledger. Balances are
// held in micro-units and mutated only through credit/debit operations; the
// append-only record tables form the audit trail.
package wallet

import (
	"time"

	vo "settlo/internal/domain/order/valueobjects"
)

// Wallet is a user's balance row. Created lazily on first ledger
// interaction. The balance never goes below zero: a debit that would
// violate this is rejected with no observable side effect.
type Wallet struct {
	userID       int64
	balanceMicro int64
	createdAt    time.Time
	updatedAt    time.Time
}

func (w *Wallet) UserID() int64       { return w.userID }
func (w *Wallet) BalanceMicro() int64 { return w.balanceMicro }
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time { return w.updatedAt }

// ReconstructWallet rebuilds a Wallet from persistence.
func ReconstructWallet(userID, balanceMicro int64, createdAt, updatedAt time.Time) *Wallet {
	return &Wallet{
		userID:       userID,
		balanceMicro: balanceMicro,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// DebitRecord is an append-only ledger line, written exactly once per
// successful debit in the same transaction as the balance mutation. Never
// updated or deleted.
type DebitRecord struct {
	ID             uint
	UserID         int64
	AmountMicro    int64
	OrderType      vo.OrderType
	RelatedOrderNo string
	CreatedAt      time.Time
}

// CreditRecord is the deposit-side audit line, written in the same
// transaction as a deposit settlement credit.
type CreditRecord struct {
	ID          uint
	UserID      int64
	AmountMicro int64
	OrderNo     string
	TxHash      string
	CreatedAt   time.Time
}
