package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	orderUsecases "settlo/internal/application/order/usecases"
	walletUsecases "settlo/internal/application/wallet/usecases"
	"settlo/internal/application/webhook"
	"settlo/internal/infrastructure/config"
	"settlo/internal/infrastructure/database"
	"settlo/internal/infrastructure/payment"
	"settlo/internal/infrastructure/repository"
	"settlo/internal/infrastructure/scheduler"
	httpRouter "settlo/internal/interfaces/http"
	"settlo/internal/interfaces/http/handlers"
	"settlo/internal/interfaces/http/middleware"
	"settlo/internal/shared/db"
	"settlo/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the settlement HTTP server with the webhook listener and the expiry sweeper.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	debugMode := env == "development"
	if err := logger.Init(&cfg.Logger, debugMode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(cmd.Context()).Err(); err != nil {
		log.Fatalw("failed to connect to Redis", "error", err)
	}
	defer rdb.Close()

	gormDB := database.Get()
	txManager := db.NewTransactionManager(gormDB)
	settings := config.NewViperSettings()

	orderRepo := repository.NewOrderRepository(gormDB)
	walletRepo := repository.NewWalletRepository(gormDB)

	allocator := payment.NewSuffixAllocator(rdb, gormDB, log)
	// Rebuild volatile claims from the durable table before serving
	// allocations, so a Redis flush cannot hand out an in-flight suffix.
	if err := allocator.Reconcile(cmd.Context()); err != nil {
		log.Fatalw("suffix pool reconciliation failed", "error", err)
	}

	createOrderUC := orderUsecases.NewCreateOrderUseCase(orderRepo, allocator, settings, log)
	cancelOrderUC := orderUsecases.NewCancelOrderUseCase(orderRepo, allocator, log)
	userConfirmUC := orderUsecases.NewMarkUserConfirmedUseCase(orderRepo, log)
	settleOrderUC := orderUsecases.NewSettleOrderUseCase(orderRepo, allocator, nil, log)
	expireOrdersUC := orderUsecases.NewExpireOrdersUseCase(orderRepo, allocator, log)

	getBalanceUC := walletUsecases.NewGetBalanceUseCase(walletRepo)
	debitUC := walletUsecases.NewDebitUseCase(walletRepo, txManager, log)
	depositUC := walletUsecases.NewProcessDepositCallbackUseCase(orderRepo, walletRepo, allocator, txManager, log)

	webhookService := webhook.NewService(orderRepo, settleOrderUC, depositUC, settings, log)

	var webhookLimiter *middleware.RateLimiter
	if limit := cfg.Payment.WebhookRateLimitPerMinute; limit > 0 {
		webhookLimiter = middleware.NewRateLimiter(rdb, limit, time.Minute)
	}

	router := httpRouter.NewRouter(httpRouter.RouterConfig{
		OrderHandler:   handlers.NewOrderHandler(createOrderUC, cancelOrderUC, userConfirmUC, orderRepo, log),
		WalletHandler:  handlers.NewWalletHandler(getBalanceUC, debitUC, log),
		WebhookHandler: handlers.NewWebhookHandler(webhookService, log),
		HealthHandler:  handlers.NewHealthHandler(gormDB, rdb),
		RateLimiter:    webhookLimiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		EnableSimulate: env != "production",
	}, log)
	router.SetupRoutes()

	sweeper := scheduler.NewSweepScheduler(expireOrdersUC, cfg.Payment.SweepIntervalMinutes, log)
	sweeper.Start(cmd.Context())
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited")
	return nil
}

func mapEnvToGinMode(env string) string {
	switch env {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
