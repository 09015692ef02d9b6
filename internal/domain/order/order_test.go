package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "settlo/internal/domain/order/valueobjects"
)

func newTestOrder(t *testing.T, orderType vo.OrderType) *Order {
	o, err := NewOrder(1001, 10_000_000, orderType, 30*time.Minute)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("starts pending with total equal to base", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)

		assert.True(t, o.Status().IsPending())
		assert.Equal(t, int64(10_000_000), o.TotalAmountMicro())
		assert.Nil(t, o.Suffix())
		assert.Contains(t, o.OrderNo(), "ORD")
	})

	t.Run("deposit orders get the DEP prefix", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeDeposit)
		assert.Contains(t, o.OrderNo(), "DEP")
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		_, err := NewOrder(0, 10_000_000, vo.OrderTypeSubscription, time.Minute)
		assert.Error(t, err)

		_, err = NewOrder(1001, 0, vo.OrderTypeSubscription, time.Minute)
		assert.Error(t, err)

		_, err = NewOrder(1001, 10_000_000, vo.OrderType("bogus"), time.Minute)
		assert.Error(t, err)

		_, err = NewOrder(1001, 10_000_000, vo.OrderTypeSubscription, 0)
		assert.Error(t, err)
	})

	t.Run("rejects base amounts with fractional digits", func(t *testing.T) {
		// A fractional base can collide with another base+suffix total:
		// 10.122 + suffix 1 equals 10 + suffix 123. Only whole-unit bases
		// keep pending totals unambiguous.
		_, err := NewOrder(1001, 10_122_000, vo.OrderTypeSubscription, time.Minute)
		assert.ErrorContains(t, err, "whole number")

		// Sub-suffix micros would also corrupt suffix recovery on expiry.
		_, err = NewOrder(1001, 10_000_500, vo.OrderTypeSubscription, time.Minute)
		assert.ErrorContains(t, err, "whole number")

		_, err = NewOrder(1001, 10_123_000, vo.OrderTypeDeposit, time.Minute)
		assert.ErrorContains(t, err, "whole number")
	})
}

func TestAttachSuffix(t *testing.T) {
	t.Run("fixes the total amount", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)

		require.NoError(t, o.AttachSuffix(123))
		require.NotNil(t, o.Suffix())
		assert.Equal(t, 123, *o.Suffix())
		assert.Equal(t, int64(10_123_000), o.TotalAmountMicro())
	})

	t.Run("only once", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.AttachSuffix(123))
		assert.Error(t, o.AttachSuffix(124))
	})

	t.Run("rejects out-of-range suffixes", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		assert.Error(t, o.AttachSuffix(0))
		assert.Error(t, o.AttachSuffix(1000))
	})

	t.Run("rejected once paid", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsPaid("0xabc"))
		assert.Error(t, o.AttachSuffix(123))
	})
}

func TestStateMachine(t *testing.T) {
	t.Run("pending to paid records the tx hash", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)

		require.NoError(t, o.MarkAsPaid("0xabc"))
		assert.True(t, o.Status().IsPaid())
		require.NotNil(t, o.TxHash())
		assert.Equal(t, "0xabc", *o.TxHash())
		assert.NotNil(t, o.PaidAt())
	})

	t.Run("marking paid twice is a no-op", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsPaid("0xabc"))
		firstPaidAt := o.PaidAt()

		require.NoError(t, o.MarkAsPaid("0xdef"))
		assert.Equal(t, "0xabc", *o.TxHash())
		assert.Equal(t, firstPaidAt, o.PaidAt())
	})

	t.Run("paid to delivered", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsPaid("0xabc"))
		require.NoError(t, o.MarkAsDelivered())
		assert.Equal(t, vo.OrderStatusDelivered, o.Status())
		assert.NotNil(t, o.DeliveredAt())
	})

	t.Run("paid to partial", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsPaid("0xabc"))
		require.NoError(t, o.MarkAsPartial())
		assert.Equal(t, vo.OrderStatusPartial, o.Status())
	})

	t.Run("pending cannot skip to delivered", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		assert.Error(t, o.MarkAsDelivered())
	})

	t.Run("expired orders cannot be paid", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsExpired())
		assert.Error(t, o.MarkAsPaid("0xabc"))
	})

	t.Run("cancelled orders cannot be paid", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsCancelled())
		assert.Error(t, o.MarkAsPaid("0xabc"))
	})

	t.Run("paid orders cannot be expired or cancelled", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsPaid("0xabc"))
		assert.Error(t, o.MarkAsExpired())
		assert.Error(t, o.MarkAsCancelled())
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		o := newTestOrder(t, vo.OrderTypeSubscription)
		require.NoError(t, o.MarkAsPaid("0xabc"))
		require.NoError(t, o.MarkAsDelivered())
		assert.True(t, o.Status().IsFinal())
		assert.Error(t, o.MarkAsExpired())
		assert.Error(t, o.MarkAsCancelled())
	})
}

func TestIsExpired(t *testing.T) {
	o := newTestOrder(t, vo.OrderTypeSubscription)

	assert.False(t, o.IsExpired(o.ExpiresAt().Add(-time.Second)))
	// Exactly at the deadline counts as expired.
	assert.True(t, o.IsExpired(o.ExpiresAt()))
	assert.True(t, o.IsExpired(o.ExpiresAt().Add(time.Second)))
}

func TestMarkUserConfirmed(t *testing.T) {
	o := newTestOrder(t, vo.OrderTypeSubscription)

	o.MarkUserConfirmed("0xuser", "web")

	// Advisory only: the status must not move.
	assert.True(t, o.Status().IsPending())
	require.NotNil(t, o.UserTxHash())
	assert.Equal(t, "0xuser", *o.UserTxHash())
	require.NotNil(t, o.UserConfirmSource())
	assert.Equal(t, "web", *o.UserConfirmSource())
	assert.NotNil(t, o.UserConfirmedAt())
}
