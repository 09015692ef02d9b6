package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/infrastructure/persistence/models"
	apperrors "settlo/internal/shared/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.OrderModel{},
		&models.SuffixAllocationModel{},
		&models.WalletModel{},
		&models.DebitRecordModel{},
		&models.CreditRecordModel{},
	)
	require.NoError(t, err)

	return db
}

func createTestOrder(t *testing.T, repo *OrderRepository, suffix int) *order.Order {
	o, err := order.NewOrder(1001, 10_000_000, vo.OrderTypeSubscription, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, o.AttachSuffix(suffix))
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestOrderRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("create assigns an ID", func(t *testing.T) {
		o := createTestOrder(t, repo, 101)
		assert.NotZero(t, o.ID())
	})

	t.Run("round trip preserves amounts and suffix", func(t *testing.T) {
		o := createTestOrder(t, repo, 102)

		found, err := repo.GetByOrderNo(ctx, o.OrderNo())
		require.NoError(t, err)
		assert.Equal(t, o.BaseAmountMicro(), found.BaseAmountMicro())
		assert.Equal(t, o.TotalAmountMicro(), found.TotalAmountMicro())
		require.NotNil(t, found.Suffix())
		assert.Equal(t, 102, *found.Suffix())
		assert.True(t, found.Status().IsPending())
	})

	t.Run("duplicate order number fails", func(t *testing.T) {
		o := createTestOrder(t, repo, 103)

		dup := order.ReconstructOrder(order.OrderReconstructParams{
			OrderNo:          o.OrderNo(),
			UserID:           1001,
			OrderType:        vo.OrderTypeSubscription,
			Status:           vo.OrderStatusPending,
			BaseAmountMicro:  10_000_000,
			TotalAmountMicro: 10_103_000,
			ExpiresAt:        time.Now().Add(time.Hour),
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		})
		assert.Error(t, repo.Create(ctx, dup))
	})
}

func TestOrderRepository_GetByOrderNo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("missing order is an order-not-found error", func(t *testing.T) {
		_, err := repo.GetByOrderNo(ctx, "ORD-missing")
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}

func TestOrderRepository_FindPendingByTotalAmount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("finds the pending order by exact amount", func(t *testing.T) {
		o := createTestOrder(t, repo, 123)

		found, err := repo.FindPendingByTotalAmount(ctx, 10_123_000)
		require.NoError(t, err)
		assert.Equal(t, o.OrderNo(), found.OrderNo())
	})

	t.Run("no match is an order-not-found error", func(t *testing.T) {
		_, err := repo.FindPendingByTotalAmount(ctx, 99_999_000)
		assert.True(t, apperrors.IsNotFoundError(err))
	})

	t.Run("settled orders no longer match", func(t *testing.T) {
		o := createTestOrder(t, repo, 124)
		require.NoError(t, o.MarkAsPaid("0xsettled124"))
		applied, err := repo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
		require.NoError(t, err)
		require.True(t, applied)

		_, err = repo.FindPendingByTotalAmount(ctx, 10_124_000)
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}

func TestOrderRepository_GetByTxHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	o := createTestOrder(t, repo, 125)
	require.NoError(t, o.MarkAsPaid("0xhash125"))
	applied, err := repo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
	require.NoError(t, err)
	require.True(t, applied)

	t.Run("finds a settled order by its tx hash", func(t *testing.T) {
		found, err := repo.GetByTxHash(ctx, "0xhash125")
		require.NoError(t, err)
		assert.Equal(t, o.OrderNo(), found.OrderNo())
	})

	t.Run("unknown hash is an order-not-found error", func(t *testing.T) {
		_, err := repo.GetByTxHash(ctx, "0xunknown")
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}

func TestOrderRepository_UpdateStatusIf(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("applies when the predicate matches", func(t *testing.T) {
		o := createTestOrder(t, repo, 201)
		require.NoError(t, o.MarkAsPaid("0xabc201"))

		applied, err := repo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
		require.NoError(t, err)
		assert.True(t, applied)

		found, err := repo.GetByOrderNo(ctx, o.OrderNo())
		require.NoError(t, err)
		assert.True(t, found.Status().IsPaid())
		require.NotNil(t, found.TxHash())
		assert.Equal(t, "0xabc201", *found.TxHash())
	})

	t.Run("second transition from pending does not apply", func(t *testing.T) {
		o := createTestOrder(t, repo, 202)
		require.NoError(t, o.MarkAsPaid("0xabc202"))

		applied, err := repo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
		require.NoError(t, err)
		require.True(t, applied)

		// Simulates the losing worker of a concurrent delivery race.
		applied, err = repo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("paid to delivered", func(t *testing.T) {
		o := createTestOrder(t, repo, 203)
		require.NoError(t, o.MarkAsPaid("0xabc203"))
		applied, err := repo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
		require.NoError(t, err)
		require.True(t, applied)

		require.NoError(t, o.MarkAsDelivered())
		applied, err = repo.UpdateStatusIf(ctx, o, vo.OrderStatusPaid)
		require.NoError(t, err)
		assert.True(t, applied)

		found, err := repo.GetByOrderNo(ctx, o.OrderNo())
		require.NoError(t, err)
		assert.Equal(t, vo.OrderStatusDelivered, found.Status())
		assert.NotNil(t, found.DeliveredAt())
	})
}

func TestOrderRepository_UpdateUserConfirmation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	o := createTestOrder(t, repo, 301)
	o.MarkUserConfirmed("0xuserhash", "web")

	require.NoError(t, repo.UpdateUserConfirmation(ctx, o))

	found, err := repo.GetByOrderNo(ctx, o.OrderNo())
	require.NoError(t, err)
	require.NotNil(t, found.UserTxHash())
	assert.Equal(t, "0xuserhash", *found.UserTxHash())
	// Advisory fields must not move the status.
	assert.True(t, found.Status().IsPending())
}

func TestOrderRepository_GetExpiredPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	expired := order.ReconstructOrder(order.OrderReconstructParams{
		OrderNo:          "ORD-expired-1",
		UserID:           1001,
		OrderType:        vo.OrderTypeSubscription,
		Status:           vo.OrderStatusPending,
		BaseAmountMicro:  10_000_000,
		TotalAmountMicro: 10_401_000,
		ExpiresAt:        time.Now().UTC().Add(-time.Minute),
		CreatedAt:        time.Now().UTC().Add(-time.Hour),
		UpdatedAt:        time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, repo.Create(ctx, expired))

	live := createTestOrder(t, repo, 402)

	overdue, err := repo.GetExpiredPending(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "ORD-expired-1", overdue[0].OrderNo())
	assert.NotEqual(t, live.OrderNo(), overdue[0].OrderNo())
}
