package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/infrastructure/persistence/models"
	"settlo/internal/infrastructure/repository"
	sharedConfig "settlo/internal/shared/config"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

type exhaustedAllocator struct{}

func (exhaustedAllocator) Allocate(ctx context.Context, orderNo string, ttl time.Duration) (int, error) {
	return 0, apperrors.NewSuffixPoolExhaustedError()
}
func (exhaustedAllocator) Release(ctx context.Context, suffix int, orderNo string) error { return nil }
func (exhaustedAllocator) ReleaseExpired(ctx context.Context, suffix int, orderNo string) error {
	return nil
}

func testSettings() sharedConfig.StaticSettings {
	return sharedConfig.StaticSettings{
		TimeoutMinutes: 30,
		Secret:         "secret",
		SkewSeconds:    300,
		Addresses:      []string{"0xreceiving1", "0xreceiving2"},
	}
}

func setupOrderTest(t *testing.T) (*repository.OrderRepository, *recordingAllocator) {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&models.OrderModel{}))

	return repository.NewOrderRepository(gormDB), &recordingAllocator{failOn: map[int]bool{}}
}

func TestCreateOrderUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending order with a reserved suffix", func(t *testing.T) {
		repo, allocator := setupOrderTest(t)
		uc := NewCreateOrderUseCase(repo, allocator, testSettings(), logger.NewLogger())

		result, err := uc.Execute(ctx, CreateOrderCommand{
			UserID:          1001,
			BaseAmountMicro: 10_000_000,
			OrderType:       vo.OrderTypeSubscription,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10_001_000), result.TotalAmountMicro)
		assert.Equal(t, "10.001", result.PayAmount)
		assert.Equal(t, "0xreceiving1", result.ReceivingAddress)

		stored, err := repo.GetByOrderNo(ctx, result.OrderNo)
		require.NoError(t, err)
		assert.True(t, stored.Status().IsPending())
		require.NotNil(t, stored.Suffix())
		assert.Equal(t, 1, *stored.Suffix())
	})

	t.Run("concurrent orders get distinct totals", func(t *testing.T) {
		repo, allocator := setupOrderTest(t)
		uc := NewCreateOrderUseCase(repo, allocator, testSettings(), logger.NewLogger())

		totals := map[int64]bool{}
		for i := 0; i < 5; i++ {
			result, err := uc.Execute(ctx, CreateOrderCommand{
				UserID:          1001,
				BaseAmountMicro: 10_000_000,
				OrderType:       vo.OrderTypeSubscription,
			})
			require.NoError(t, err)
			assert.False(t, totals[result.TotalAmountMicro])
			totals[result.TotalAmountMicro] = true
		}
	})

	t.Run("fractional base cannot collide with another pending total", func(t *testing.T) {
		repo, allocator := setupOrderTest(t)
		allocator.allocated = 122
		uc := NewCreateOrderUseCase(repo, allocator, testSettings(), logger.NewLogger())

		// Base 10 with suffix 123 totals 10.123.
		first, err := uc.Execute(ctx, CreateOrderCommand{
			UserID:          1001,
			BaseAmountMicro: 10_000_000,
			OrderType:       vo.OrderTypeSubscription,
		})
		require.NoError(t, err)
		require.Equal(t, int64(10_123_000), first.TotalAmountMicro)

		// Base 10.122 would reach the same total with suffix 1. It is
		// refused before a suffix is even allocated.
		_, err = uc.Execute(ctx, CreateOrderCommand{
			UserID:          1002,
			BaseAmountMicro: 10_122_000,
			OrderType:       vo.OrderTypeSubscription,
		})
		require.ErrorContains(t, err, "whole number")
		assert.Equal(t, 123, allocator.allocated)

		// Sub-suffix micros are refused the same way.
		_, err = uc.Execute(ctx, CreateOrderCommand{
			UserID:          1003,
			BaseAmountMicro: 10_122_999,
			OrderType:       vo.OrderTypeSubscription,
		})
		require.ErrorContains(t, err, "whole number")

		// Attribution by amount stays unambiguous.
		match, err := repo.FindPendingByTotalAmount(ctx, 10_123_000)
		require.NoError(t, err)
		assert.Equal(t, first.OrderNo, match.OrderNo())
	})

	t.Run("pool exhaustion surfaces as a transient error", func(t *testing.T) {
		repo, _ := setupOrderTest(t)
		uc := NewCreateOrderUseCase(repo, exhaustedAllocator{}, testSettings(), logger.NewLogger())

		_, err := uc.Execute(ctx, CreateOrderCommand{
			UserID:          1001,
			BaseAmountMicro: 10_000_000,
			OrderType:       vo.OrderTypeSubscription,
		})
		assert.True(t, apperrors.IsSuffixPoolExhaustedError(err))
	})
}

func TestCancelOrderUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels a pending order and releases the suffix immediately", func(t *testing.T) {
		repo, allocator := setupOrderTest(t)
		createUC := NewCreateOrderUseCase(repo, allocator, testSettings(), logger.NewLogger())
		cancelUC := NewCancelOrderUseCase(repo, allocator, logger.NewLogger())

		result, err := createUC.Execute(ctx, CreateOrderCommand{
			UserID:          1001,
			BaseAmountMicro: 10_000_000,
			OrderType:       vo.OrderTypeSubscription,
		})
		require.NoError(t, err)

		require.NoError(t, cancelUC.Execute(ctx, result.OrderNo))

		stored, err := repo.GetByOrderNo(ctx, result.OrderNo)
		require.NoError(t, err)
		assert.Equal(t, vo.OrderStatusCancelled, stored.Status())
		assert.Equal(t, []int{1}, allocator.released)
	})

	t.Run("cancelling twice is idempotent", func(t *testing.T) {
		repo, allocator := setupOrderTest(t)
		createUC := NewCreateOrderUseCase(repo, allocator, testSettings(), logger.NewLogger())
		cancelUC := NewCancelOrderUseCase(repo, allocator, logger.NewLogger())

		result, err := createUC.Execute(ctx, CreateOrderCommand{
			UserID:          1001,
			BaseAmountMicro: 10_000_000,
			OrderType:       vo.OrderTypeSubscription,
		})
		require.NoError(t, err)

		require.NoError(t, cancelUC.Execute(ctx, result.OrderNo))
		require.NoError(t, cancelUC.Execute(ctx, result.OrderNo))
	})

	t.Run("cannot cancel a paid order", func(t *testing.T) {
		repo, allocator := setupOrderTest(t)
		createUC := NewCreateOrderUseCase(repo, allocator, testSettings(), logger.NewLogger())
		cancelUC := NewCancelOrderUseCase(repo, allocator, logger.NewLogger())

		result, err := createUC.Execute(ctx, CreateOrderCommand{
			UserID:          1001,
			BaseAmountMicro: 10_000_000,
			OrderType:       vo.OrderTypeSubscription,
		})
		require.NoError(t, err)

		o, err := repo.GetByOrderNo(ctx, result.OrderNo)
		require.NoError(t, err)
		require.NoError(t, o.MarkAsPaid("0xpaid"))
		applied, err := repo.UpdateStatusIf(ctx, o, vo.OrderStatusPending)
		require.NoError(t, err)
		require.True(t, applied)

		err = cancelUC.Execute(ctx, result.OrderNo)
		assert.Error(t, err)
	})
}
