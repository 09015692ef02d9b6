package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/infrastructure/repository"
	"settlo/internal/shared/biztime"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

type stubAllocator struct {
	released []int
}

func (a *stubAllocator) Allocate(ctx context.Context, orderNo string, ttl time.Duration) (int, error) {
	return 0, nil
}

func (a *stubAllocator) Release(ctx context.Context, suffix int, orderNo string) error {
	a.released = append(a.released, suffix)
	return nil
}

func (a *stubAllocator) ReleaseExpired(ctx context.Context, suffix int, orderNo string) error {
	return nil
}

func TestProcessDepositCallback(t *testing.T) {
	ctx := context.Background()

	newFixture := func(t *testing.T) (*ProcessDepositCallbackUseCase, *depositFixture) {
		walletRepo, orderRepo, txManager := setupWalletTest(t)
		allocator := &stubAllocator{}
		uc := NewProcessDepositCallbackUseCase(orderRepo, walletRepo, allocator, txManager, logger.NewLogger())
		return uc, &depositFixture{walletRepo: walletRepo, orderRepo: orderRepo, allocator: allocator}
	}

	t.Run("credits the full amount including the suffix", func(t *testing.T) {
		uc, f := newFixture(t)
		o := f.createDeposit(t, 123)

		result, err := uc.Execute(ctx, ProcessDepositCallbackCommand{
			OrderNo:     o.OrderNo(),
			AmountMicro: o.TotalAmountMicro(),
			TxHash:      "0xdep1",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10_123_000), result.CreditedMicro)
		assert.False(t, result.AlreadyCredited)

		w, err := f.walletRepo.GetOrCreate(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, int64(10_123_000), w.BalanceMicro())

		stored, err := f.orderRepo.GetByOrderNo(ctx, o.OrderNo())
		require.NoError(t, err)
		assert.True(t, stored.Status().IsPaid())

		assert.Equal(t, []int{123}, f.allocator.released)
	})

	t.Run("identical replay is a no-op reporting success", func(t *testing.T) {
		uc, f := newFixture(t)
		o := f.createDeposit(t, 123)

		cmd := ProcessDepositCallbackCommand{
			OrderNo:     o.OrderNo(),
			AmountMicro: o.TotalAmountMicro(),
			TxHash:      "0xdep2",
		}
		_, err := uc.Execute(ctx, cmd)
		require.NoError(t, err)

		result, err := uc.Execute(ctx, cmd)
		require.NoError(t, err)
		assert.True(t, result.AlreadyCredited)

		w, err := f.walletRepo.GetOrCreate(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, int64(10_123_000), w.BalanceMicro())
	})

	t.Run("amount mismatch rejects without crediting", func(t *testing.T) {
		uc, f := newFixture(t)
		o := f.createDeposit(t, 123)

		_, err := uc.Execute(ctx, ProcessDepositCallbackCommand{
			OrderNo:     o.OrderNo(),
			AmountMicro: o.TotalAmountMicro() + vo.SuffixUnitMicro,
			TxHash:      "0xdep3",
		})
		assert.True(t, apperrors.IsAmountMismatchError(err))

		w, err := f.walletRepo.GetOrCreate(ctx, 1001)
		require.NoError(t, err)
		assert.Zero(t, w.BalanceMicro())
	})

	t.Run("expired deposit is never credited", func(t *testing.T) {
		uc, f := newFixture(t)
		o := f.seedExpiredDeposit(t)

		_, err := uc.Execute(ctx, ProcessDepositCallbackCommand{
			OrderNo:     o.OrderNo(),
			AmountMicro: o.TotalAmountMicro(),
			TxHash:      "0xdep4",
		})
		assert.True(t, apperrors.IsOrderExpiredError(err))

		w, err := f.walletRepo.GetOrCreate(ctx, 1001)
		require.NoError(t, err)
		assert.Zero(t, w.BalanceMicro())
	})

	t.Run("non-deposit orders are rejected", func(t *testing.T) {
		uc, f := newFixture(t)

		o, err := order.NewOrder(1001, 10_000_000, vo.OrderTypeSubscription, 30*time.Minute)
		require.NoError(t, err)
		require.NoError(t, f.orderRepo.Create(ctx, o))

		_, err = uc.Execute(ctx, ProcessDepositCallbackCommand{
			OrderNo:     o.OrderNo(),
			AmountMicro: o.TotalAmountMicro(),
			TxHash:      "0xdep5",
		})
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("unknown order", func(t *testing.T) {
		uc, _ := newFixture(t)

		_, err := uc.Execute(ctx, ProcessDepositCallbackCommand{
			OrderNo:     "DEP-nope",
			AmountMicro: 1,
			TxHash:      "0xdep6",
		})
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}

type depositFixture struct {
	walletRepo *repository.WalletRepository
	orderRepo  *repository.OrderRepository
	allocator  *stubAllocator
}

func (f *depositFixture) createDeposit(t *testing.T, suffix int) *order.Order {
	o, err := order.NewOrder(1001, 10_000_000, vo.OrderTypeDeposit, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, o.AttachSuffix(suffix))
	require.NoError(t, f.orderRepo.Create(context.Background(), o))
	return o
}

func (f *depositFixture) seedExpiredDeposit(t *testing.T) *order.Order {
	suffix := 123
	o := order.ReconstructOrder(order.OrderReconstructParams{
		OrderNo:          "DEP-late",
		UserID:           1001,
		OrderType:        vo.OrderTypeDeposit,
		Status:           vo.OrderStatusPending,
		BaseAmountMicro:  10_000_000,
		Suffix:           &suffix,
		TotalAmountMicro: vo.PaymentAmountMicro(10_000_000, suffix),
		ExpiresAt:        biztime.NowUTC().Add(-time.Minute),
		CreatedAt:        biztime.NowUTC().Add(-time.Hour),
		UpdatedAt:        biztime.NowUTC().Add(-time.Hour),
	})
	require.NoError(t, f.orderRepo.Create(context.Background(), o))
	return o
}
