package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banking-transfer-saga/internal/config"
	"github.com/banking-transfer-saga/internal/data/mongo"
	"github.com/banking-transfer-saga/internal/data/postgres"
	"github.com/banking-transfer-saga/internal/logger"
	"github.com/banking-transfer-saga/internal/platform/messaging/consumers"
	"github.com/banking-transfer-saga/internal/platform/messaging/producers"
	"github.com/banking-transfer-saga/internal/platform/persistence"
	"github.com/banking-transfer-saga/internal/transfer_processor/consumer"
	"github.com/banking-transfer-saga/internal/transfer_processor/errorhandling"
	"github.com/banking-transfer-saga/internal/transfer_processor/monitoring"
	"github.com/banking-transfer-saga/internal/transfer_processor/outbox_relay"
	"github.com/banking-transfer-saga/internal/transfer_processor/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("transfer_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Transfer Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transferRepo := postgres.NewTransferRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	attemptStore := postgres.NewAttemptRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize Kafka producers. The event publisher ensures the saga
	// topics and their DLTs exist before anything consumes them.
	eventPublisher, err := producers.NewKafkaEventPublisher(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka event publisher", "error", err)
		os.Exit(1)
	}

	dltProducer, err := producers.NewDLTProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLT Kafka producer", "error", err)
		os.Exit(1)
	}

	// Dead-letter plumbing shared by all saga consumers. publishedStats
	// counts what this instance dead-letters; observedStats counts what
	// the monitor group sees across all instances.
	publishedStats := errorhandling.NewStats()
	observedStats := errorhandling.NewStats()
	classifier := errorhandling.NewClassifier()
	deadLetterService := errorhandling.NewDeadLetterService(log, dltProducer, publishedStats)
	failureHandler := errorhandling.NewHandler(log, classifier, deadLetterService, attemptStore)

	// Initialize stage services
	validationService := service.NewTransferValidationService(log, postgresDB, transferRepo, accountRepo, outboxRepo, cfg.Kafka.ExecutionTopic)
	executionService := service.NewTransferExecutionService(log, postgresDB, transferRepo, accountRepo, outboxRepo, cfg.Kafka.CompletedTopic)

	notifier := service.NewLogNotifier(log)
	dispatcher, err := service.NewPooledNotificationDispatcher(log, notifier, cfg.Dispatch.PoolSize)
	if err != nil {
		log.Error("Failed to initialize notification dispatcher", "error", err)
		os.Exit(1)
	}

	// Saga consumers: one per stage topic, same group, manual ack with
	// retry/dead-letter policy applied by the failure handler.
	validationConsumer := consumers.NewKafkaConsumer(
		log, &cfg.Kafka,
		[]string{cfg.Kafka.ValidationTopic},
		cfg.Kafka.SagaConsumerGroup,
		consumer.NewValidationHandler(log, validationService).Handle,
		failureHandler,
		attemptStore,
	)
	executionConsumer := consumers.NewKafkaConsumer(
		log, &cfg.Kafka,
		[]string{cfg.Kafka.ExecutionTopic},
		cfg.Kafka.SagaConsumerGroup,
		consumer.NewExecutionHandler(log, executionService).Handle,
		failureHandler,
		attemptStore,
	)
	notificationConsumer := consumers.NewKafkaConsumer(
		log, &cfg.Kafka,
		[]string{cfg.Kafka.CompletedTopic},
		cfg.Kafka.SagaConsumerGroup,
		consumer.NewNotificationHandler(log, dispatcher).Handle,
		failureHandler,
		attemptStore,
	)

	// Audit consumer: independent group over all saga topics. An audit
	// store outage retries and eventually dead-letters like any other
	// failure; attempt counters are scoped per group, so the audit
	// group's failures never consume the saga group's retry budget.
	auditConsumer := consumers.NewKafkaConsumer(
		log, &cfg.Kafka,
		cfg.Kafka.SagaTopics(),
		cfg.Kafka.AuditGroup,
		consumer.NewAuditHandler(log, auditRepo).Handle,
		failureHandler,
		attemptStore,
	)

	// DLT monitor: independent group over all dead-letter topics
	dltTopics := make([]string, 0, len(cfg.Kafka.SagaTopics()))
	for _, topic := range cfg.Kafka.SagaTopics() {
		dltTopics = append(dltTopics, producers.DLTTopic(topic))
	}
	dltMonitorConsumer := consumers.NewKafkaConsumer(
		log, &cfg.Kafka,
		dltTopics,
		cfg.Kafka.DLTMonitorGroup,
		consumer.NewDLTMonitorHandler(log, observedStats).Handle,
		nil,
		nil,
	)

	// Outbox relay and its lag monitor
	relay := outbox_relay.NewRelay(&cfg.Outbox, outboxRepo, eventPublisher, log)
	lagMonitor := outbox_relay.NewMonitor(&cfg.Outbox, outboxRepo, log)

	// Stats HTTP surface
	statsServer := monitoring.NewServer(log, cfg, publishedStats, observedStats)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start all consumers
	validationConsumer.Start(appCtx)
	executionConsumer.Start(appCtx)
	notificationConsumer.Start(appCtx)
	auditConsumer.Start(appCtx)
	dltMonitorConsumer.Start(appCtx)

	// Start outbox relay in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting outbox relay",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		relay.Start(appCtx)
	}()

	// Start outbox lag monitor in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		lagMonitor.Start(appCtx)
	}()

	// Start stats server in a goroutine
	go func() {
		log.Info("Starting monitoring server", "port", cfg.Server.Port)
		if err := statsServer.Start(); err != nil {
			errChan <- fmt.Errorf("monitoring server error: %w", err)
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

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for the relay and monitor to finish their cycles
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("Background services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close consumers
	for _, c := range []*consumers.KafkaConsumer{
		validationConsumer,
		executionConsumer,
		notificationConsumer,
		auditConsumer,
		dltMonitorConsumer,
	} {
		if err = c.Close(); err != nil {
			log.Error("Error closing Kafka consumer", "error", err)
		}
	}

	// Shut down the notification worker pool
	dispatcher.Shutdown()

	// Close producers
	if err = eventPublisher.Close(); err != nil {
		log.Error("Error closing Kafka event publisher", "error", err)
	}
	if err = dltProducer.Close(); err != nil {
		log.Error("Error closing DLT Kafka producer", "error", err)
	}

	// Stop the stats server
	if err = statsServer.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping monitoring server", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Transfer Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Transfer Processor shutdown completed with errors")
	} else {
		log.Info("Transfer Processor shutdown completed successfully")
	}
}
