package mappers

import (
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/domain/wallet"
	"settlo/internal/infrastructure/persistence/models"
)

func WalletToDomain(m *models.WalletModel) *wallet.Wallet {
	return wallet.ReconstructWallet(m.UserID, m.BalanceMicro, m.CreatedAt, m.UpdatedAt)
}

func DebitRecordToModel(r *wallet.DebitRecord) *models.DebitRecordModel {
	return &models.DebitRecordModel{
		ID:             r.ID,
		UserID:         r.UserID,
		AmountMicro:    r.AmountMicro,
		OrderType:      r.OrderType.String(),
		RelatedOrderNo: r.RelatedOrderNo,
		CreatedAt:      r.CreatedAt,
	}
}

func DebitRecordToDomain(m *models.DebitRecordModel) *wallet.DebitRecord {
	return &wallet.DebitRecord{
		ID:             m.ID,
		UserID:         m.UserID,
		AmountMicro:    m.AmountMicro,
		OrderType:      vo.OrderType(m.OrderType),
		RelatedOrderNo: m.RelatedOrderNo,
		CreatedAt:      m.CreatedAt,
	}
}

func CreditRecordToModel(r *wallet.CreditRecord) *models.CreditRecordModel {
	return &models.CreditRecordModel{
		ID:          r.ID,
		UserID:      r.UserID,
		AmountMicro: r.AmountMicro,
		OrderNo:     r.OrderNo,
		TxHash:      r.TxHash,
		CreatedAt:   r.CreatedAt,
	}
}
