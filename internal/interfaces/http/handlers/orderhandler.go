package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	orderUsecases "settlo/internal/application/order/usecases"
	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/shared/logger"
	"settlo/internal/shared/utils"
)

type OrderHandler struct {
	createOrderUC   *orderUsecases.CreateOrderUseCase
	cancelOrderUC   *orderUsecases.CancelOrderUseCase
	userConfirmUC   *orderUsecases.MarkUserConfirmedUseCase
	orderRepo       order.OrderRepository
	logger          logger.Interface
}

func NewOrderHandler(
	createOrderUC *orderUsecases.CreateOrderUseCase,
	cancelOrderUC *orderUsecases.CancelOrderUseCase,
	userConfirmUC *orderUsecases.MarkUserConfirmedUseCase,
	orderRepo order.OrderRepository,
	logger logger.Interface,
) *OrderHandler {
	return &OrderHandler{
		createOrderUC: createOrderUC,
		cancelOrderUC: cancelOrderUC,
		userConfirmUC: userConfirmUC,
		orderRepo:     orderRepo,
		logger:        logger,
	}
}

type CreateOrderRequest struct {
	UserID     int64  `json:"user_id" binding:"required"`
	BaseAmount string `json:"base_amount" binding:"required"`
	OrderType  string `json:"order_type" binding:"required,oneof=subscription deposit currency_swap network_fee"`
}

type CreateOrderResponse struct {
	OrderNo          string `json:"order_no"`
	PayAmount        string `json:"pay_amount"`
	ReceivingAddress string `json:"receiving_address,omitempty"`
	ExpiresAt        string `json:"expires_at"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	baseMicro, err := vo.MicroFromString(req.BaseAmount)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid base_amount: "+err.Error())
		return
	}
	if baseMicro%vo.MicroPerUnit != 0 {
		// Fractional digits are reserved for the disambiguation suffix.
		utils.ErrorResponse(c, http.StatusBadRequest, "base_amount must be a whole number of units")
		return
	}

	cmd := orderUsecases.CreateOrderCommand{
		UserID:          req.UserID,
		BaseAmountMicro: baseMicro,
		OrderType:       vo.OrderType(req.OrderType),
	}

	result, err := h.createOrderUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to create order", "error", err, "user_id", req.UserID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "order created", CreateOrderResponse{
		OrderNo:          result.OrderNo,
		PayAmount:        result.PayAmount,
		ReceivingAddress: result.ReceivingAddress,
		ExpiresAt:        result.ExpiresAt.Format(time.RFC3339),
	})
}

type OrderResponse struct {
	OrderNo     string `json:"order_no"`
	UserID      int64  `json:"user_id"`
	OrderType   string `json:"order_type"`
	Status      string `json:"status"`
	PayAmount   string `json:"pay_amount"`
	TxHash      string `json:"tx_hash,omitempty"`
	ExpiresAt   string `json:"expires_at"`
	PaidAt      string `json:"paid_at,omitempty"`
	DeliveredAt string `json:"delivered_at,omitempty"`
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderNo := c.Param("orderNo")

	o, err := h.orderRepo.GetByOrderNo(c.Request.Context(), orderNo)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := OrderResponse{
		OrderNo:   o.OrderNo(),
		UserID:    o.UserID(),
		OrderType: o.OrderType().String(),
		Status:    o.Status().String(),
		PayAmount: vo.FormatMicro(o.TotalAmountMicro()),
		ExpiresAt: o.ExpiresAt().Format(time.RFC3339),
	}
	if o.TxHash() != nil {
		resp.TxHash = *o.TxHash()
	}
	if o.PaidAt() != nil {
		resp.PaidAt = o.PaidAt().Format(time.RFC3339)
	}
	if o.DeliveredAt() != nil {
		resp.DeliveredAt = o.DeliveredAt().Format(time.RFC3339)
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderNo := c.Param("orderNo")

	if err := h.cancelOrderUC.Execute(c.Request.Context(), orderNo); err != nil {
		h.logger.Errorw("failed to cancel order", "error", err, "order_no", orderNo)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "order cancelled", nil)
}

type ConfirmPaymentRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
	Source string `json:"source"`
}

// ConfirmPayment records the user's self-reported "I have paid" claim. It is
// advisory only: settlement still waits for the signed webhook.
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	orderNo := c.Param("orderNo")

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := orderUsecases.MarkUserConfirmedCommand{
		OrderNo: orderNo,
		TxHash:  req.TxHash,
		Source:  req.Source,
	}
	if err := h.userConfirmUC.Execute(c.Request.Context(), cmd); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment confirmation recorded", nil)
}
