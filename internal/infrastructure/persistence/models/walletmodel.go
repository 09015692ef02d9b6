package models

import "time"

// WalletModel holds a user's balance in micro-units. Rows are created
// lazily on first ledger interaction and the balance is mutated only by
// guarded credit/debit updates.
type WalletModel struct {
	UserID       int64 `gorm:"primaryKey;autoIncrement:false"`
	BalanceMicro int64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (WalletModel) TableName() string {
	return "wallets"
}

// DebitRecordModel is an append-only ledger line.
type DebitRecordModel struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         int64  `gorm:"index;not null"`
	AmountMicro    int64  `gorm:"not null"`
	OrderType      string `gorm:"size:20;not null"`
	RelatedOrderNo string `gorm:"size:64;not null"`
	CreatedAt      time.Time
}

func (DebitRecordModel) TableName() string {
	return "debit_records"
}

// CreditRecordModel is the deposit-settlement audit line.
type CreditRecordModel struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"index;not null"`
	AmountMicro int64  `gorm:"not null"`
	OrderNo     string `gorm:"size:64;not null"`
	TxHash      string `gorm:"size:128;not null"`
	CreatedAt   time.Time
}

func (CreditRecordModel) TableName() string {
	return "credit_records"
}
