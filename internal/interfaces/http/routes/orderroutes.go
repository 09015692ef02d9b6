package routes

import (
	"github.com/gin-gonic/gin"

	"settlo/internal/interfaces/http/handlers"
)

// OrderRouteConfig holds dependencies for order routes.
type OrderRouteConfig struct {
	OrderHandler *handlers.OrderHandler
}

// SetupOrderRoutes configures order lifecycle routes.
func SetupOrderRoutes(engine *gin.Engine, cfg *OrderRouteConfig) {
	orders := engine.Group("/orders")
	{
		orders.POST("", cfg.OrderHandler.CreateOrder)
		orders.GET("/:orderNo", cfg.OrderHandler.GetOrder)
		orders.POST("/:orderNo/cancel", cfg.OrderHandler.CancelOrder)
		orders.POST("/:orderNo/confirm", cfg.OrderHandler.ConfirmPayment)
	}
}
