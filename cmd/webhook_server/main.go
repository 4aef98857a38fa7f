package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/longsangforge/payment-reconciler/internal/config"
	"github.com/longsangforge/payment-reconciler/internal/data/mongo"
	"github.com/longsangforge/payment-reconciler/internal/data/postgres"
	"github.com/longsangforge/payment-reconciler/internal/logger"
	"github.com/longsangforge/payment-reconciler/internal/platform/messaging/producers"
	"github.com/longsangforge/payment-reconciler/internal/platform/persistence"
	"github.com/longsangforge/payment-reconciler/internal/reconciler"
	"github.com/longsangforge/payment-reconciler/internal/reconciler/reference"
	"github.com/longsangforge/payment-reconciler/internal/webhook_server"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("webhook_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for settlement events
	kafkaProducer, err := producers.NewSettlementEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize settlement event Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	bookingRepo := postgres.NewBookingRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize the reconciliation pipeline
	scheme, err := reference.NewScheme(cfg.Reference.Marker, cfg.Reference.NameMaxLen)
	if err != nil {
		log.Error("Failed to build payment reference scheme", "error", err)
		os.Exit(1)
	}

	matcher := reconciler.NewBookingMatcher(scheme, cfg.Matcher.AmountTolerancePct, log)
	executor := reconciler.NewExecutor(bookingRepo, log)
	reconcilerService := reconciler.NewService(
		scheme,
		bookingRepo,
		matcher,
		executor,
		kafkaProducer,
		auditRepo,
		cfg.Matcher.CandidateLimit,
		log,
	)

	// Initialize REST server
	server := webhook_server.NewServer(log, cfg, reconcilerService, auditRepo)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
