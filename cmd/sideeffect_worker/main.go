package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/longsangforge/payment-reconciler/internal/config"
	"github.com/longsangforge/payment-reconciler/internal/data/postgres"
	"github.com/longsangforge/payment-reconciler/internal/logger"
	"github.com/longsangforge/payment-reconciler/internal/platform/messaging/consumers"
	"github.com/longsangforge/payment-reconciler/internal/platform/messaging/producers"
	"github.com/longsangforge/payment-reconciler/internal/platform/persistence"
	"github.com/longsangforge/payment-reconciler/internal/sideeffect_worker/consumer"
	"github.com/longsangforge/payment-reconciler/internal/sideeffect_worker/dispatcher"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("sideeffect_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Side-Effect Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	bookingRepo := postgres.NewBookingRepository(log, postgresDB)

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler should be nil-safe.

	// Initialize the external collaborators
	calendarClient, err := dispatcher.NewCalendarClient(log, &cfg.Calendar)
	if err != nil {
		log.Error("Failed to initialize calendar client", "error", err)
		os.Exit(1)
	}
	emailClient := dispatcher.NewEmailClient(log, &cfg.Email)

	// Initialize the side-effect dispatcher with its worker pool
	sideEffectDispatcher, err := dispatcher.NewDispatcher(
		log,
		calendarClient,
		emailClient,
		bookingRepo,
		cfg.WorkerPool.Size,
	)
	if err != nil {
		log.Error("Failed to initialize side-effect dispatcher", "error", err)
		os.Exit(1)
	}

	// Initialize settlement event handler
	settlementEventHandler := consumer.NewSettlementEventHandler(
		log,
		sideEffectDispatcher,
		dlqProducer, // Pass the DLQ producer
	)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.SettlementTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.SettlementTopic, cfg.Kafka.ConsumerGroup, settlementEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shut down the worker pool before closing its collaborators
	sideEffectDispatcher.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serviceErr != nil {
		log.Error("Side-Effect Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Side-Effect Worker shutdown completed with errors")
	} else {
		log.Info("Side-Effect Worker shutdown completed successfully")
	}
}
