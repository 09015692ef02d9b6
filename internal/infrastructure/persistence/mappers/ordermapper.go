package mappers

import (
	"fmt"

	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/infrastructure/persistence/models"
)

// OrderToModel converts a domain order to its persistence shape.
func OrderToModel(o *order.Order) *models.OrderModel {
	return &models.OrderModel{
		ID:                o.ID(),
		OrderNo:           o.OrderNo(),
		UserID:            o.UserID(),
		OrderType:         o.OrderType().String(),
		Status:            o.Status().String(),
		BaseAmountMicro:   o.BaseAmountMicro(),
		Suffix:            o.Suffix(),
		TotalAmountMicro:  o.TotalAmountMicro(),
		TxHash:            o.TxHash(),
		UserTxHash:        o.UserTxHash(),
		UserConfirmSource: o.UserConfirmSource(),
		UserConfirmedAt:   o.UserConfirmedAt(),
		ExpiresAt:         o.ExpiresAt(),
		PaidAt:            o.PaidAt(),
		DeliveredAt:       o.DeliveredAt(),
		CreatedAt:         o.CreatedAt(),
		UpdatedAt:         o.UpdatedAt(),
	}
}

// OrderToDomain converts a persistence row back into the domain.
func OrderToDomain(m *models.OrderModel) (*order.Order, error) {
	orderType, ok := vo.NewOrderType(m.OrderType)
	if !ok {
		return nil, fmt.Errorf("invalid order type %q in order %s", m.OrderType, m.OrderNo)
	}
	status := vo.OrderStatus(m.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid order status %q in order %s", m.Status, m.OrderNo)
	}

	return order.ReconstructOrder(order.OrderReconstructParams{
		ID:                m.ID,
		OrderNo:           m.OrderNo,
		UserID:            m.UserID,
		OrderType:         orderType,
		Status:            status,
		BaseAmountMicro:   m.BaseAmountMicro,
		Suffix:            m.Suffix,
		TotalAmountMicro:  m.TotalAmountMicro,
		TxHash:            m.TxHash,
		UserTxHash:        m.UserTxHash,
		UserConfirmSource: m.UserConfirmSource,
		UserConfirmedAt:   m.UserConfirmedAt,
		ExpiresAt:         m.ExpiresAt,
		PaidAt:            m.PaidAt,
		DeliveredAt:       m.DeliveredAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}), nil
}
