package models

import "time"

// OrderModel is the persistence shape of an order. The partial-style unique
// pressure on total_amount_micro for pending rows comes from the suffix
// allocator; the composite index here backs the attribution lookup.
type OrderModel struct {
	ID        uint   `gorm:"primaryKey"`
	OrderNo   string `gorm:"uniqueIndex;size:64;not null"`
	UserID    int64  `gorm:"index;not null"`
	OrderType string `gorm:"size:20;not null"`
	Status    string `gorm:"size:20;not null;index:idx_orders_amount_status,priority:2"`

	BaseAmountMicro  int64 `gorm:"not null"`
	Suffix           *int
	TotalAmountMicro int64 `gorm:"not null;index:idx_orders_amount_status,priority:1"`

	TxHash *string `gorm:"size:128;uniqueIndex"`

	UserTxHash        *string `gorm:"size:128"`
	UserConfirmSource *string `gorm:"size:32"`
	UserConfirmedAt   *time.Time

	ExpiresAt   time.Time `gorm:"not null;index"`
	PaidAt      *time.Time
	DeliveredAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}
