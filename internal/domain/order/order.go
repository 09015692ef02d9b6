package order

import (
	"fmt"
	"time"

	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/shared/biztime"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/id"
)

// Order is a pending purchase awaiting an on-chain payment. Orders are
// mutated only through validated state transitions and are never physically
// deleted: terminal states are retained for audit.
type Order struct {
	id         uint
	orderNo    string
	userID     int64
	orderType  vo.OrderType
	status     vo.OrderStatus

	baseAmountMicro  int64
	suffix           *int
	totalAmountMicro int64

	// txHash is the authoritative on-chain reference, set on settlement.
	txHash *string

	// Self-reported confirmation, advisory only. Never trusted for crediting.
	userTxHash        *string
	userConfirmSource *string
	userConfirmedAt   *time.Time

	expiresAt   time.Time
	paidAt      *time.Time
	deliveredAt *time.Time

	createdAt time.Time
	updatedAt time.Time
}

// NewOrder creates a pending order. The total amount equals the base amount
// until a disambiguation suffix is attached.
func NewOrder(userID int64, baseAmountMicro int64, orderType vo.OrderType, timeout time.Duration) (*Order, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if baseAmountMicro <= 0 {
		return nil, fmt.Errorf("base amount must be positive")
	}
	// The suffix is the only thing allowed in the fractional digits. A base
	// carrying its own fraction could collide with another base+suffix total
	// while both are pending, making amount attribution ambiguous.
	if baseAmountMicro%vo.MicroPerUnit != 0 {
		return nil, fmt.Errorf("base amount must be a whole number of units")
	}
	if !orderType.IsValid() {
		return nil, fmt.Errorf("invalid order type %q", orderType)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("order timeout must be positive")
	}

	now := biztime.NowUTC()
	prefix := "ORD"
	if orderType.IsDeposit() {
		prefix = "DEP"
	}

	return &Order{
		orderNo:          generateOrderNo(prefix, now),
		userID:           userID,
		orderType:        orderType,
		status:           vo.OrderStatusPending,
		baseAmountMicro:  baseAmountMicro,
		totalAmountMicro: baseAmountMicro,
		expiresAt:        now.Add(timeout),
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

func generateOrderNo(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%s%s", prefix, now.Format("20060102150405"), id.MustGenerate(6))
}

// AttachSuffix binds an allocated disambiguation suffix and fixes the total
// amount. Allowed once, while pending.
func (o *Order) AttachSuffix(suffix int) error {
	if !o.status.IsPending() {
		return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot attach suffix with status %s", o.status))
	}
	if o.suffix != nil {
		return fmt.Errorf("suffix already attached")
	}
	if suffix < vo.MinSuffix || suffix > vo.MaxSuffix {
		return fmt.Errorf("suffix %d out of range", suffix)
	}

	o.suffix = &suffix
	o.totalAmountMicro = vo.PaymentAmountMicro(o.baseAmountMicro, suffix)
	o.updatedAt = biztime.NowUTC()
	return nil
}

// MarkAsPaid transitions pending -> paid. Reports success without mutation
// when the order is already paid, so a replayed callback is a no-op.
func (o *Order) MarkAsPaid(txHash string) error {
	if o.status.IsPaid() {
		return nil
	}
	if !o.status.CanTransitionTo(vo.OrderStatusPaid) {
		return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot mark order as paid with status %s", o.status))
	}

	now := biztime.NowUTC()
	o.status = vo.OrderStatusPaid
	o.txHash = &txHash
	o.paidAt = &now
	o.updatedAt = now
	return nil
}

// MarkAsDelivered transitions paid -> delivered (all recipients succeeded).
func (o *Order) MarkAsDelivered() error {
	if o.status == vo.OrderStatusDelivered {
		return nil
	}
	if !o.status.CanTransitionTo(vo.OrderStatusDelivered) {
		return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot mark order as delivered with status %s", o.status))
	}

	now := biztime.NowUTC()
	o.status = vo.OrderStatusDelivered
	o.deliveredAt = &now
	o.updatedAt = now
	return nil
}

// MarkAsPartial transitions paid -> partial (some recipients failed).
func (o *Order) MarkAsPartial() error {
	if o.status == vo.OrderStatusPartial {
		return nil
	}
	if !o.status.CanTransitionTo(vo.OrderStatusPartial) {
		return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot mark order as partial with status %s", o.status))
	}

	o.status = vo.OrderStatusPartial
	o.updatedAt = biztime.NowUTC()
	return nil
}

// MarkAsExpired transitions pending -> expired. Idempotent when already
// expired.
func (o *Order) MarkAsExpired() error {
	if o.status == vo.OrderStatusExpired {
		return nil
	}
	if !o.status.CanTransitionTo(vo.OrderStatusExpired) {
		return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot expire order with status %s", o.status))
	}

	o.status = vo.OrderStatusExpired
	o.updatedAt = biztime.NowUTC()
	return nil
}

// MarkAsCancelled transitions pending -> cancelled.
func (o *Order) MarkAsCancelled() error {
	if o.status == vo.OrderStatusCancelled {
		return nil
	}
	if !o.status.CanTransitionTo(vo.OrderStatusCancelled) {
		return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot cancel order with status %s", o.status))
	}

	o.status = vo.OrderStatusCancelled
	o.updatedAt = biztime.NowUTC()
	return nil
}

// MarkUserConfirmed records a self-reported payment confirmation. Advisory
// fields only: the status never changes here, and these values are never a
// trust signal for settlement.
func (o *Order) MarkUserConfirmed(txHash, source string) {
	now := biztime.NowUTC()
	o.userTxHash = &txHash
	o.userConfirmSource = &source
	o.userConfirmedAt = &now
	o.updatedAt = now
}

// IsExpired reports whether the order's deadline has passed at the given
// instant. An order checked exactly at its deadline counts as expired, so a
// payment landing at that moment is rejected.
func (o *Order) IsExpired(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

func (o *Order) ID() uint                     { return o.id }
func (o *Order) OrderNo() string              { return o.orderNo }
func (o *Order) UserID() int64                { return o.userID }
func (o *Order) OrderType() vo.OrderType      { return o.orderType }
func (o *Order) Status() vo.OrderStatus       { return o.status }
func (o *Order) BaseAmountMicro() int64       { return o.baseAmountMicro }
func (o *Order) Suffix() *int                 { return o.suffix }
func (o *Order) TotalAmountMicro() int64      { return o.totalAmountMicro }
func (o *Order) TxHash() *string              { return o.txHash }
func (o *Order) UserTxHash() *string          { return o.userTxHash }
func (o *Order) UserConfirmSource() *string   { return o.userConfirmSource }
func (o *Order) UserConfirmedAt() *time.Time  { return o.userConfirmedAt }
func (o *Order) ExpiresAt() time.Time         { return o.expiresAt }
func (o *Order) PaidAt() *time.Time           { return o.paidAt }
func (o *Order) DeliveredAt() *time.Time      { return o.deliveredAt }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }

// SetID sets the order ID after persistence (used by repository after Create).
func (o *Order) SetID(id uint) {
	o.id = id
}

// OrderReconstructParams carries persisted state back into the domain.
type OrderReconstructParams struct {
	ID                uint
	OrderNo           string
	UserID            int64
	OrderType         vo.OrderType
	Status            vo.OrderStatus
	BaseAmountMicro   int64
	Suffix            *int
	TotalAmountMicro  int64
	TxHash            *string
	UserTxHash        *string
	UserConfirmSource *string
	UserConfirmedAt   *time.Time
	ExpiresAt         time.Time
	PaidAt            *time.Time
	DeliveredAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReconstructOrder rebuilds an Order from persistence without validation.
func ReconstructOrder(p OrderReconstructParams) *Order {
	return &Order{
		id:                p.ID,
		orderNo:           p.OrderNo,
		userID:            p.UserID,
		orderType:         p.OrderType,
		status:            p.Status,
		baseAmountMicro:   p.BaseAmountMicro,
		suffix:            p.Suffix,
		totalAmountMicro:  p.TotalAmountMicro,
		txHash:            p.TxHash,
		userTxHash:        p.UserTxHash,
		userConfirmSource: p.UserConfirmSource,
		userConfirmedAt:   p.UserConfirmedAt,
		expiresAt:         p.ExpiresAt,
		paidAt:            p.PaidAt,
		deliveredAt:       p.DeliveredAt,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
}
