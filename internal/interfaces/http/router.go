package http

import (
	"github.com/gin-gonic/gin"

	"settlo/internal/interfaces/http/handlers"
	"settlo/internal/interfaces/http/middleware"
	"settlo/internal/interfaces/http/routes"
	"settlo/internal/shared/logger"
)

// Router wires the HTTP surface: order lifecycle, wallet, webhook ingestion
// and the health probe.
type Router struct {
	engine         *gin.Engine
	orderHandler   *handlers.OrderHandler
	walletHandler  *handlers.WalletHandler
	webhookHandler *handlers.WebhookHandler
	healthHandler  *handlers.HealthHandler
	rateLimiter    *middleware.RateLimiter
	logger         logger.Interface
	enableSimulate bool
}

type RouterConfig struct {
	OrderHandler   *handlers.OrderHandler
	WalletHandler  *handlers.WalletHandler
	WebhookHandler *handlers.WebhookHandler
	HealthHandler  *handlers.HealthHandler
	// RateLimiter throttles the public webhook endpoint per client IP.
	// Optional; nil disables throttling.
	RateLimiter *middleware.RateLimiter
	// AllowedOrigins enables CORS when non-empty.
	AllowedOrigins []string
	// EnableSimulate registers the webhook simulation route. Keep it off in
	// release mode.
	EnableSimulate bool
}

func NewRouter(cfg RouterConfig, log logger.Interface) *Router {
	engine := gin.New()
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.Recovery())
	if len(cfg.AllowedOrigins) > 0 {
		engine.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	return &Router{
		engine:         engine,
		orderHandler:   cfg.OrderHandler,
		walletHandler:  cfg.WalletHandler,
		webhookHandler: cfg.WebhookHandler,
		healthHandler:  cfg.HealthHandler,
		rateLimiter:    cfg.RateLimiter,
		logger:         log,
		enableSimulate: cfg.EnableSimulate,
	}
}

// SetupRoutes registers all route groups.
func (r *Router) SetupRoutes() {
	r.engine.GET("/health", r.healthHandler.Check)

	routes.SetupOrderRoutes(r.engine, &routes.OrderRouteConfig{
		OrderHandler: r.orderHandler,
	})

	routes.SetupWalletRoutes(r.engine, &routes.WalletRouteConfig{
		WalletHandler: r.walletHandler,
	})

	routes.SetupWebhookRoutes(r.engine, &routes.WebhookRouteConfig{
		WebhookHandler: r.webhookHandler,
		RateLimiter:    r.rateLimiter,
		EnableSimulate: r.enableSimulate,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
