package routes

import (
	"github.com/gin-gonic/gin"

	"settlo/internal/interfaces/http/handlers"
	"settlo/internal/interfaces/http/middleware"
)

// WebhookRouteConfig holds dependencies for webhook routes.
type WebhookRouteConfig struct {
	WebhookHandler *handlers.WebhookHandler
	RateLimiter    *middleware.RateLimiter
	EnableSimulate bool
}

// SetupWebhookRoutes configures payment notification ingestion routes.
func SetupWebhookRoutes(engine *gin.Engine, cfg *WebhookRouteConfig) {
	webhooks := engine.Group("/webhooks")
	if cfg.RateLimiter != nil {
		webhooks.Use(cfg.RateLimiter.Limit())
	}
	{
		webhooks.POST("/payment", cfg.WebhookHandler.HandlePaymentWebhook)

		if cfg.EnableSimulate {
			webhooks.POST("/payment/simulate", cfg.WebhookHandler.SimulateWebhook)
		}
	}
}
