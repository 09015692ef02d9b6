package routes

import (
	"github.com/gin-gonic/gin"

	"settlo/internal/interfaces/http/handlers"
)

// WalletRouteConfig holds dependencies for wallet routes.
type WalletRouteConfig struct {
	WalletHandler *handlers.WalletHandler
}

// SetupWalletRoutes configures balance ledger routes.
func SetupWalletRoutes(engine *gin.Engine, cfg *WalletRouteConfig) {
	wallets := engine.Group("/wallets")
	{
		wallets.GET("/:userID/balance", cfg.WalletHandler.GetBalance)
		wallets.POST("/:userID/debit", cfg.WalletHandler.Debit)
	}
}
