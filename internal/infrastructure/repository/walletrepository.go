package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"settlo/internal/domain/wallet"
	"settlo/internal/infrastructure/persistence/mappers"
	"settlo/internal/infrastructure/persistence/models"
	"settlo/internal/shared/biztime"
	"settlo/internal/shared/db"
	apperrors "settlo/internal/shared/errors"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

var _ wallet.WalletRepository = (*WalletRepository)(nil)

func (r *WalletRepository) GetOrCreate(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.WalletModel
	err := tx.Where("user_id = ?", userID).First(&model).Error
	if err == nil {
		return mappers.WalletToDomain(&model), nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	now := biztime.NowUTC()
	model = models.WalletModel{
		UserID:       userID,
		BalanceMicro: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Create(&model).Error; err != nil {
		// Concurrent first interaction for the same user: fall back to the
		// row the other writer created.
		if apperrors.IsDuplicateError(err) {
			if err := tx.Where("user_id = ?", userID).First(&model).Error; err != nil {
				return nil, fmt.Errorf("failed to get wallet after duplicate create: %w", err)
			}
			return mappers.WalletToDomain(&model), nil
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return mappers.WalletToDomain(&model), nil
}

// Credit adds amountMicro to the balance as a single relative update, so no
// read-modify-write race can lose a concurrent mutation.
func (r *WalletRepository) Credit(ctx context.Context, userID int64, amountMicro int64) error {
	if amountMicro <= 0 {
		return fmt.Errorf("credit amount must be positive")
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WalletModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance_micro": gorm.Expr("balance_micro + ?", amountMicro),
			"updated_at":    biztime.NowUTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to credit wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wallet for user %d does not exist", userID)
	}
	return nil
}

// TryDebit decrements the balance only when it stays non-negative. The
// predicate rides on the UPDATE itself, which is the row-level-locking
// equivalent: under concurrent debits the storage engine serializes the
// guarded updates on the wallet row, so the balance can never go below
// zero.
func (r *WalletRepository) TryDebit(ctx context.Context, userID int64, amountMicro int64) (bool, error) {
	if amountMicro <= 0 {
		return false, fmt.Errorf("debit amount must be positive")
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WalletModel{}).
		Where("user_id = ? AND balance_micro >= ?", userID, amountMicro).
		Updates(map[string]interface{}{
			"balance_micro": gorm.Expr("balance_micro - ?", amountMicro),
			"updated_at":    biztime.NowUTC(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to debit wallet: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *WalletRepository) CreateDebitRecord(ctx context.Context, rec *wallet.DebitRecord) error {
	model := mappers.DebitRecordToModel(rec)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create debit record: %w", err)
	}

	rec.ID = model.ID
	return nil
}

func (r *WalletRepository) CreateCreditRecord(ctx context.Context, rec *wallet.CreditRecord) error {
	model := mappers.CreditRecordToModel(rec)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create credit record: %w", err)
	}

	rec.ID = model.ID
	return nil
}

func (r *WalletRepository) ListDebitRecords(ctx context.Context, userID int64, limit int) ([]*wallet.DebitRecord, error) {
	var recordModels []models.DebitRecordModel

	query := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list debit records: %w", err)
	}

	records := make([]*wallet.DebitRecord, 0, len(recordModels))
	for i := range recordModels {
		records = append(records, mappers.DebitRecordToDomain(&recordModels[i]))
	}

	return records, nil
}
