package models

import "time"

// SuffixAllocationModel is the durable side of the suffix pool: one row per
// suffix value (1-999), created at bootstrap and mutated by
// allocate/release, never created or destroyed per order. OrderNo is
// non-null only while the owning order is pending; it is used to rebuild
// the volatile claim store after a restart.
type SuffixAllocationModel struct {
	Suffix      int     `gorm:"primaryKey;autoIncrement:false"`
	OrderNo     *string `gorm:"size:64;index"`
	AllocatedAt *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SuffixAllocationModel) TableName() string {
	return "suffix_allocations"
}
