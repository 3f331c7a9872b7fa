package main

import (
	"fmt"
	"os"

	"github.com/pagevault/library/internal/auth"
	"github.com/pagevault/library/internal/config"
	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/internal/repo"
	"github.com/pagevault/library/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "libraryd",
		Short:         "Library catalog and rental request service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedAdminCmd(),
		newGrantAdminCmd(),
		newReviewCmd(),
		newEventsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger) {
	cfg := config.Load()
	return cfg, logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*db.DB, error) {
	dsn := cfg.PGDSN
	if cfg.DBDriver == "sqlite" {
		dsn = cfg.SQLitePath
	}

	log.Info("Connecting to database...", zap.String("driver", cfg.DBDriver))
	database, err := db.Connect(cfg.DBDriver, dsn, db.GormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	log.Info("Running database migrations...")
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return database, nil
}

func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func newAuthService(cfg *config.Config, database *db.DB, rdb *redis.Client, log *zap.Logger) *auth.Service {
	return auth.NewService(
		repo.NewAccountRepository(database, log),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		auth.NewSessionStore(rdb),
		log,
	)
}
