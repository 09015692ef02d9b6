package migrate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"settlo/internal/infrastructure/config"
	"settlo/internal/infrastructure/database"
	"settlo/internal/infrastructure/payment"
	"settlo/internal/infrastructure/persistence/models"
	"settlo/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Create or update the database schema and seed the suffix pool.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(newUpCommand())

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema changes and seed the suffix pool",
		RunE:  runUp,
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	gormDB := database.Get()

	if err := gormDB.AutoMigrate(
		&models.OrderModel{},
		&models.SuffixAllocationModel{},
		&models.WalletModel{},
		&models.DebitRecordModel{},
		&models.CreditRecordModel{},
	); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	log.Infow("schema migrated")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	allocator := payment.NewSuffixAllocator(rdb, gormDB, log)
	if err := allocator.SeedPool(context.Background()); err != nil {
		return fmt.Errorf("failed to seed suffix pool: %w", err)
	}
	log.Infow("suffix pool seeded")

	return nil
}
