package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/infrastructure/persistence/models"
	"settlo/internal/infrastructure/repository"
	"settlo/internal/shared/biztime"
	"settlo/internal/shared/logger"
)

type recordingAllocator struct {
	allocated int
	released  []int
	expired   []int
	failOn    map[int]bool
}

func (a *recordingAllocator) Allocate(ctx context.Context, orderNo string, ttl time.Duration) (int, error) {
	a.allocated++
	return a.allocated, nil
}

func (a *recordingAllocator) Release(ctx context.Context, suffix int, orderNo string) error {
	a.released = append(a.released, suffix)
	return nil
}

func (a *recordingAllocator) ReleaseExpired(ctx context.Context, suffix int, orderNo string) error {
	if a.failOn[suffix] {
		return errors.New("claim store unreachable")
	}
	a.expired = append(a.expired, suffix)
	return nil
}

func setupSweepTest(t *testing.T) (*repository.OrderRepository, *recordingAllocator, *ExpireOrdersUseCase) {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&models.OrderModel{}))

	repo := repository.NewOrderRepository(gormDB)
	allocator := &recordingAllocator{failOn: map[int]bool{}}
	uc := NewExpireOrdersUseCase(repo, allocator, logger.NewLogger())
	return repo, allocator, uc
}

func seedOverdueOrder(t *testing.T, repo *repository.OrderRepository, orderNo string, suffix int) *order.Order {
	s := suffix
	var suffixPtr *int
	total := int64(10_000_000)
	if suffix > 0 {
		suffixPtr = &s
		total = vo.PaymentAmountMicro(10_000_000, suffix)
	}

	o := order.ReconstructOrder(order.OrderReconstructParams{
		OrderNo:          orderNo,
		UserID:           1001,
		OrderType:        vo.OrderTypeSubscription,
		Status:           vo.OrderStatusPending,
		BaseAmountMicro:  10_000_000,
		Suffix:           suffixPtr,
		TotalAmountMicro: total,
		ExpiresAt:        biztime.NowUTC().Add(-time.Minute),
		CreatedAt:        biztime.NowUTC().Add(-time.Hour),
		UpdatedAt:        biztime.NowUTC().Add(-time.Hour),
	})
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestExpireOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("expires overdue orders and releases their suffixes", func(t *testing.T) {
		repo, allocator, uc := setupSweepTest(t)

		for i := 1; i <= 5; i++ {
			seedOverdueOrder(t, repo, fmt.Sprintf("ORD-overdue-%d", i), 100+i)
		}

		live, err := order.NewOrder(1001, 10_000_000, vo.OrderTypeSubscription, 30*time.Minute)
		require.NoError(t, err)
		require.NoError(t, live.AttachSuffix(200))
		require.NoError(t, repo.Create(ctx, live))

		stats, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.Checked)
		assert.Equal(t, 5, stats.Expired)
		assert.Equal(t, 5, stats.TokensReleased)
		assert.Zero(t, stats.Errors)
		assert.ElementsMatch(t, []int{101, 102, 103, 104, 105}, allocator.expired)

		// The live order is untouched.
		found, err := repo.GetByOrderNo(ctx, live.OrderNo())
		require.NoError(t, err)
		assert.True(t, found.Status().IsPending())

		for i := 1; i <= 5; i++ {
			found, err := repo.GetByOrderNo(ctx, fmt.Sprintf("ORD-overdue-%d", i))
			require.NoError(t, err)
			assert.Equal(t, vo.OrderStatusExpired, found.Status())
		}
	})

	t.Run("empty sweep", func(t *testing.T) {
		_, _, uc := setupSweepTest(t)

		stats, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Checked)
	})

	t.Run("a stuck suffix does not abort the sweep or the expiry", func(t *testing.T) {
		repo, allocator, uc := setupSweepTest(t)

		seedOverdueOrder(t, repo, "ORD-stuck", 301)
		seedOverdueOrder(t, repo, "ORD-fine", 302)
		allocator.failOn[301] = true

		stats, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Checked)
		assert.Equal(t, 2, stats.Expired)
		assert.Equal(t, 1, stats.TokensReleased)
		assert.Equal(t, 1, stats.Errors)

		// The expired status is committed even though the release failed.
		found, err := repo.GetByOrderNo(ctx, "ORD-stuck")
		require.NoError(t, err)
		assert.Equal(t, vo.OrderStatusExpired, found.Status())
	})

	t.Run("suffix-less amounts expire without a release", func(t *testing.T) {
		repo, allocator, uc := setupSweepTest(t)

		seedOverdueOrder(t, repo, "ORD-plain", 0)

		stats, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Expired)
		assert.Zero(t, stats.TokensReleased)
		assert.Empty(t, allocator.expired)
	})
}
