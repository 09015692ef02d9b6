package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"settlo/internal/application/webhook"
	"settlo/internal/shared/logger"
	"settlo/internal/shared/utils"
)

const maxWebhookBodyBytes = 64 * 1024

type WebhookHandler struct {
	service *webhook.Service
	logger  logger.Interface
}

func NewWebhookHandler(service *webhook.Service, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger,
	}
}

// HandlePaymentWebhook ingests a signed payment notification. The raw body
// is passed through untouched so signature verification sees the exact
// bytes the notifier signed over.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := h.service.Handle(c.Request.Context(), body)
	if err != nil {
		h.logger.Warnw("webhook rejected", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "processed", result)
}

type SimulateWebhookRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

// SimulateWebhook builds a correctly signed synthetic notification for an
// existing order and runs it through the normal ingestion path. Local
// development only; the route is not registered in release mode.
func (h *WebhookHandler) SimulateWebhook(c *gin.Context) {
	var req SimulateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, payload, err := h.service.Simulate(c.Request.Context(), req.OrderNo)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "simulated", gin.H{
		"result":  result,
		"payload": string(payload),
	})
}
