package order

import (
	"context"
	"time"

	vo "settlo/internal/domain/order/valueobjects"
)

// OrderRepository persists orders. FindPendingByTotalAmount is the
// attribution primitive: the suffix allocator guarantees at most one pending
// order per total amount, and a unique index on (total_amount_micro, status)
// coverage backs the lookup so concurrent creation cannot produce two live
// matches.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error

	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// GetByTxHash returns the order already settled with the given on-chain
	// transaction, if any. This is the idempotency key for webhook replays:
	// a transaction hash settles at most one order, ever.
	GetByTxHash(ctx context.Context, txHash string) (*Order, error)

	// FindPendingByTotalAmount returns the single pending order whose total
	// amount equals the given micro-unit value, or an order-not-found error.
	FindPendingByTotalAmount(ctx context.Context, totalAmountMicro int64) (*Order, error)

	// UpdateStatusIf performs the conditional state transition: the row is
	// updated only when its current status equals from. Returns true when
	// the transition was applied, false when the predicate did not match.
	// This is what keeps two concurrent webhook deliveries from
	// double-crediting the same order.
	UpdateStatusIf(ctx context.Context, o *Order, from vo.OrderStatus) (bool, error)

	// UpdateUserConfirmation writes the advisory self-reported fields only.
	UpdateUserConfirmation(ctx context.Context, o *Order) error

	// GetExpiredPending returns pending orders whose deadline has passed at
	// the given instant, both generic and deposit.
	GetExpiredPending(ctx context.Context, now time.Time) ([]*Order, error)
}
