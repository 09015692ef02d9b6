package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/infrastructure/persistence/mappers"
	"settlo/internal/infrastructure/persistence/models"
	"settlo/internal/shared/db"
	apperrors "settlo/internal/shared/errors"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

var _ order.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := mappers.OrderToModel(o)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	o.SetID(model.ID)
	return nil
}

func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_no = ?", orderNo).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewOrderNotFoundError(fmt.Sprintf("order %s", orderNo))
		}
		return nil, fmt.Errorf("failed to get order by order_no: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

func (r *OrderRepository) GetByTxHash(ctx context.Context, txHash string) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("tx_hash = ?", txHash).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewOrderNotFoundError("no order for tx hash")
		}
		return nil, fmt.Errorf("failed to get order by tx_hash: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

func (r *OrderRepository) FindPendingByTotalAmount(ctx context.Context, totalAmountMicro int64) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("total_amount_micro = ? AND status = ?", totalAmountMicro, vo.OrderStatusPending.String()).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewOrderNotFoundError("no pending order for amount")
		}
		return nil, fmt.Errorf("failed to find order by amount: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

// UpdateStatusIf applies the order's current (already transitioned) state
// to the row only when the stored status still equals from. A false return
// means another worker got there first; the caller decides whether that is
// idempotent success or an invalid transition.
func (r *OrderRepository) UpdateStatusIf(ctx context.Context, o *order.Order, from vo.OrderStatus) (bool, error) {
	model := mappers.OrderToModel(o)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", model.ID, from.String()).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"tx_hash":      model.TxHash,
			"paid_at":      model.PaidAt,
			"delivered_at": model.DeliveredAt,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to update order status: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *OrderRepository) UpdateUserConfirmation(ctx context.Context, o *order.Order) error {
	model := mappers.OrderToModel(o)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"user_tx_hash":        model.UserTxHash,
			"user_confirm_source": model.UserConfirmSource,
			"user_confirmed_at":   model.UserConfirmedAt,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update user confirmation: %w", result.Error)
	}
	return nil
}

func (r *OrderRepository) GetExpiredPending(ctx context.Context, now time.Time) ([]*order.Order, error) {
	var orderModels []models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND expires_at <= ?", vo.OrderStatusPending.String(), now).
		Order("expires_at ASC").
		Find(&orderModels).Error; err != nil {
		return nil, fmt.Errorf("failed to get expired pending orders: %w", err)
	}

	orders := make([]*order.Order, 0, len(orderModels))
	for i := range orderModels {
		o, err := mappers.OrderToDomain(&orderModels[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
