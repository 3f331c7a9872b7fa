package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagevault/library/internal/auth"
	"github.com/pagevault/library/internal/config"
	"github.com/pagevault/library/internal/events"
	grpcserver "github.com/pagevault/library/internal/grpc"
	"github.com/pagevault/library/internal/httpapi"
	"github.com/pagevault/library/internal/metrics"
	"github.com/pagevault/library/internal/repo"
	"github.com/pagevault/library/internal/uploads"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			defer log.Sync()
			return serve(cfg, log)
		},
	}
}

func serve(cfg *config.Config, log *zap.Logger) error {
	log.Info("Library service starting")

	database, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()

	rdb := newRedisClient(cfg)
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	authService := newAuthService(cfg, database, rdb, log)
	catalog := repo.NewCatalogRepository(database, log)
	ledger := repo.NewRentalLedger(database, log, repo.WithStrictReferences(cfg.RentalStrictReferences))

	if cfg.AdminEmail != "" {
		if cfg.AdminPassword == "" {
			log.Warn("ADMIN_EMAIL set without ADMIN_PASSWORD, skipping admin seed")
		} else if _, created, err := authService.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		} else if created {
			log.Info("Admin account created", zap.String("email", cfg.AdminEmail))
		}
	}

	var publisher events.EventPublisher
	if cfg.RabbitMQURL == "" {
		log.Warn("RABBITMQ_URL not set, events will not be published")
		publisher = events.NewNopPublisher(log)
	} else {
		log.Info("Connecting to RabbitMQ")
		p, err := events.NewPublisher(cfg.RabbitMQURL, log)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		publisher = p
	}
	defer publisher.Close()

	storage, err := uploads.NewStorage(cfg.UploadDir, cfg.ImageBaseURL, log)
	if err != nil {
		return err
	}

	checker := grpcserver.NewChecker(log,
		grpcserver.Probe{Name: "database", Check: func(ctx context.Context) error { return database.Ping() }},
		grpcserver.Probe{Name: "redis", Check: sessions.Ping},
		grpcserver.Probe{Name: "rabbitmq", Check: func(ctx context.Context) error {
			if !publisher.IsHealthy() {
				return errors.New("connection closed")
			}
			return nil
		}},
	)

	api := httpapi.NewServer(httpapi.Options{
		Catalog:     catalog,
		Ledger:      ledger,
		Auth:        authService,
		Storage:     storage,
		Publisher:   publisher,
		Metrics:     metrics.New(catalog, ledger, log),
		Health:      checker,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Log:         log,
	})

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(log)),
	)
	grpc_health_v1.RegisterHealthServer(grpcServer, grpcserver.NewHealthServer(checker))
	reflection.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on gRPC port: %w", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("Starting gRPC server", zap.String("address", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()
	go func() {
		log.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve HTTP: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		log.Error("Server failed", zap.Error(runErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("Server stopped")
	return runErr
}
