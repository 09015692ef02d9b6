package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"settlo/internal/application/order/suffixalloc"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/infrastructure/persistence/models"
	"settlo/internal/shared/biztime"
	"settlo/internal/shared/db"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

const (
	// claimKeyPrefix namespaces the volatile claim keys.
	claimKeyPrefix = "settlo:suffix:"

	// suffixCooldownPeriod keeps an expired suffix out of circulation for a
	// while after its order expires. A late payment from the old order must
	// not be attributed to a newer order that reused the suffix.
	suffixCooldownPeriod = 1 * time.Hour
)

// releaseClaimScript deletes the volatile claim only if it is still owned
// by the releasing order. Guards the race where a delayed release arrives
// after the suffix was reallocated.
var releaseClaimScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// SuffixAllocator manages the pool of payment disambiguation suffixes.
// Redis is the fast-path mutual exclusion mechanism for "currently free";
// the suffix_allocations table is the durable record used to rebuild the
// volatile claims after a restart. Losing Redis without reconciliation can
// therefore never hand the same suffix to two orders.
type SuffixAllocator struct {
	rdb    *redis.Client
	db     *gorm.DB
	logger logger.Interface
}

func NewSuffixAllocator(rdb *redis.Client, db *gorm.DB, logger logger.Interface) *SuffixAllocator {
	return &SuffixAllocator{
		rdb:    rdb,
		db:     db,
		logger: logger,
	}
}

var _ suffixalloc.Allocator = (*SuffixAllocator)(nil)

func claimKey(suffix int) string {
	return fmt.Sprintf("%s%d", claimKeyPrefix, suffix)
}

// Allocate claims the lowest free suffix for orderNo. The volatile SETNX is
// the race arbiter under concurrent allocation; the durable row is claimed
// second so a crash between the two steps leaves only an over-held volatile
// key that lapses on its own TTL.
func (a *SuffixAllocator) Allocate(ctx context.Context, orderNo string, ttl time.Duration) (int, error) {
	now := biztime.NowUTC()
	expiresAt := now.Add(ttl)

	for suffix := vo.MinSuffix; suffix <= vo.MaxSuffix; suffix++ {
		// The volatile claim outlives the order by the cooldown period so a
		// freshly expired suffix is not immediately reused.
		ok, err := a.rdb.SetNX(ctx, claimKey(suffix), orderNo, ttl+suffixCooldownPeriod).Result()
		if err != nil {
			return 0, fmt.Errorf("suffix claim store unavailable: %w", err)
		}
		if !ok {
			continue
		}

		claimed, err := a.claimDurable(ctx, suffix, orderNo, now, expiresAt)
		if err != nil || !claimed {
			// The durable row is still held (stale volatile state after an
			// unreconciled restart) or the update failed. Back out our
			// volatile claim and keep scanning.
			if delErr := releaseClaimScript.Run(ctx, a.rdb, []string{claimKey(suffix)}, orderNo).Err(); delErr != nil && delErr != redis.Nil {
				a.logger.Warnw("failed to back out suffix claim",
					"suffix", suffix,
					"order_no", orderNo,
					"error", delErr,
				)
			}
			if err != nil {
				a.logger.Debugw("durable suffix claim failed",
					"suffix", suffix,
					"order_no", orderNo,
					"error", err,
				)
			}
			continue
		}

		a.logger.Infow("allocated payment suffix",
			"suffix", suffix,
			"order_no", orderNo,
			"expires_at", expiresAt,
		)
		return suffix, nil
	}

	return 0, apperrors.NewSuffixPoolExhaustedError(fmt.Sprintf("all %d suffixes in use", vo.MaxSuffix))
}

// claimDurable marks the suffix row owned by orderNo only if it is free.
// The conditional UPDATE is atomic on the row, so two claimants can never
// both see RowsAffected == 1.
func (a *SuffixAllocator) claimDurable(ctx context.Context, suffix int, orderNo string, now, expiresAt time.Time) (bool, error) {
	result := db.GetTxFromContext(ctx, a.db).
		Model(&models.SuffixAllocationModel{}).
		Where("suffix = ? AND order_no IS NULL", suffix).
		Updates(map[string]interface{}{
			"order_no":     orderNo,
			"allocated_at": now,
			"expires_at":   expiresAt,
			"updated_at":   now,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim suffix row: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Release frees the suffix if it is still owned by orderNo. Used on
// cancellation and settlement; the suffix becomes immediately
// re-allocatable. Releasing under a stale owner is a no-op.
func (a *SuffixAllocator) Release(ctx context.Context, suffix int, orderNo string) error {
	released, err := a.releaseDurable(ctx, suffix, orderNo)
	if err != nil {
		return err
	}

	// The script checks ownership itself, so this is safe even when the
	// durable row was already handed to a newer order.
	if err := releaseClaimScript.Run(ctx, a.rdb, []string{claimKey(suffix)}, orderNo).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release suffix claim: %w", err)
	}

	if released {
		a.logger.Infow("released payment suffix",
			"suffix", suffix,
			"order_no", orderNo,
		)
	}
	return nil
}

// ReleaseExpired frees only the durable claim of an expired order's suffix.
// The volatile claim is deliberately left to lapse on its own TTL, which
// enforces the cooldown before reuse.
func (a *SuffixAllocator) ReleaseExpired(ctx context.Context, suffix int, orderNo string) error {
	released, err := a.releaseDurable(ctx, suffix, orderNo)
	if err != nil {
		return err
	}

	if released {
		a.logger.Infow("released expired payment suffix",
			"suffix", suffix,
			"order_no", orderNo,
			"cooldown", suffixCooldownPeriod,
		)
	}
	return nil
}

func (a *SuffixAllocator) releaseDurable(ctx context.Context, suffix int, orderNo string) (bool, error) {
	result := db.GetTxFromContext(ctx, a.db).
		Model(&models.SuffixAllocationModel{}).
		Where("suffix = ? AND order_no = ?", suffix, orderNo).
		Updates(map[string]interface{}{
			"order_no":     nil,
			"allocated_at": nil,
			"expires_at":   nil,
			"updated_at":   biztime.NowUTC(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to release suffix row: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Reconcile rebuilds the volatile claim store from the durable table. Must
// run before the allocator serves traffic after a restart: in-flight claims
// that only exist durably are restored so they cannot be double-assigned.
func (a *SuffixAllocator) Reconcile(ctx context.Context) error {
	var rows []models.SuffixAllocationModel
	if err := a.db.WithContext(ctx).
		Where("order_no IS NOT NULL").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load durable suffix claims: %w", err)
	}

	now := biztime.NowUTC()
	restored := 0
	for _, row := range rows {
		if row.ExpiresAt == nil || row.OrderNo == nil {
			continue
		}
		claimTTL := row.ExpiresAt.Add(suffixCooldownPeriod).Sub(now)
		if claimTTL <= 0 {
			// Expired past cooldown; the sweeper will clear the row.
			continue
		}
		if err := a.rdb.Set(ctx, claimKey(row.Suffix), *row.OrderNo, claimTTL).Err(); err != nil {
			return fmt.Errorf("failed to restore suffix claim %d: %w", row.Suffix, err)
		}
		restored++
	}

	a.logger.Infow("reconciled suffix claim store",
		"durable_claims", len(rows),
		"restored", restored,
	)
	return nil
}

// SeedPool creates the fixed pool of suffix rows (1-999). Idempotent: rows
// that already exist are left untouched.
func (a *SuffixAllocator) SeedPool(ctx context.Context) error {
	now := biztime.NowUTC()
	rows := make([]models.SuffixAllocationModel, 0, vo.MaxSuffix)
	for suffix := vo.MinSuffix; suffix <= vo.MaxSuffix; suffix++ {
		rows = append(rows, models.SuffixAllocationModel{
			Suffix:    suffix,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 200).Error; err != nil {
		return fmt.Errorf("failed to seed suffix pool: %w", err)
	}
	return nil
}
