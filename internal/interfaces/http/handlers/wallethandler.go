package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	walletUsecases "settlo/internal/application/wallet/usecases"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/shared/logger"
	"settlo/internal/shared/utils"
)

type WalletHandler struct {
	getBalanceUC *walletUsecases.GetBalanceUseCase
	debitUC      *walletUsecases.DebitUseCase
	logger       logger.Interface
}

func NewWalletHandler(
	getBalanceUC *walletUsecases.GetBalanceUseCase,
	debitUC *walletUsecases.DebitUseCase,
	logger logger.Interface,
) *WalletHandler {
	return &WalletHandler{
		getBalanceUC: getBalanceUC,
		debitUC:      debitUC,
		logger:       logger,
	}
}

type BalanceResponse struct {
	UserID       int64  `json:"user_id"`
	BalanceMicro int64  `json:"balance_micro"`
	Balance      string `json:"balance"`
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid user id")
		return
	}

	balanceMicro, err := h.getBalanceUC.Execute(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to get balance", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", BalanceResponse{
		UserID:       userID,
		BalanceMicro: balanceMicro,
		Balance:      vo.FormatMicro(balanceMicro),
	})
}

type DebitRequest struct {
	Amount         string `json:"amount" binding:"required"`
	OrderType      string `json:"order_type" binding:"required,oneof=subscription currency_swap network_fee"`
	RelatedOrderNo string `json:"related_order_no" binding:"required"`
}

type DebitResponse struct {
	UserID       int64  `json:"user_id"`
	BalanceMicro int64  `json:"balance_micro"`
	Balance      string `json:"balance"`
}

func (h *WalletHandler) Debit(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	amountMicro, err := vo.MicroFromString(req.Amount)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid amount: "+err.Error())
		return
	}

	cmd := walletUsecases.DebitCommand{
		UserID:         userID,
		AmountMicro:    amountMicro,
		OrderType:      vo.OrderType(req.OrderType),
		RelatedOrderNo: req.RelatedOrderNo,
	}

	result, err := h.debitUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Warnw("debit rejected", "error", err, "user_id", userID, "amount_micro", amountMicro)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "debit applied", DebitResponse{
		UserID:       userID,
		BalanceMicro: result.BalanceMicro,
		Balance:      vo.FormatMicro(result.BalanceMicro),
	})
}
