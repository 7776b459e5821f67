// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for all major components including
// the HTTP servers, database connections, Kafka topology, the outbox relay and
// the dead-letter subsystem.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all
// components. Each field represents a major subsystem's configuration and is
// validated during application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	DeadLetter  DeadLetterConfig
	Dispatch    DispatchConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka topology and consumer tuning
type KafkaConfig struct {
	Brokers           string
	ValidationTopic   string // Stage 1: business-rule validation
	ExecutionTopic    string // Stage 2: ledger movement
	CompletedTopic    string // Stage 3: notification fan-out
	NumPartitions     int    // Number of partitions for topics
	ReplicationFactor int    // Replication factor for topics
	SagaConsumerGroup string // Drives the saga, manual acknowledgment
	AuditGroup        string // Read-only observer with independent offsets
	DLTMonitorGroup   string // Dead-letter monitoring
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
}

// SagaTopics returns the three pipeline topics in stage order.
func (k *KafkaConfig) SagaTopics() []string {
	return []string{k.ValidationTopic, k.ExecutionTopic, k.CompletedTopic}
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration for the audit trail
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox relay configuration
type OutboxConfig struct {
	PollingInterval time.Duration // How often the relay drains pending events
	BatchSize       int           // Maximum events fetched per cycle
	MonitorInterval time.Duration // How often pending lag is measured
	LagThreshold    int           // Pending-event count that trips the lag warning
}

// DeadLetterConfig contains dead-letter subsystem configuration
type DeadLetterConfig struct {
	HealthThreshold int64 // Total dead-lettered count that flips health to WARNING
}

// DispatchConfig contains notification dispatch worker pool configuration
type DispatchConfig struct {
	PoolSize int // Maximum concurrent notification dispatches
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if c.Kafka.Brokers == "" {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.ValidationTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_VALIDATION_TOPIC is required")
	}
	if c.Kafka.ExecutionTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_EXECUTION_TOPIC is required")
	}
	if c.Kafka.CompletedTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_COMPLETED_TOPIC is required")
	}
	if c.Kafka.SagaConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_SAGA_CONSUMER_GROUP is required")
	}
	if c.Kafka.AuditGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_AUDIT_GROUP is required")
	}
	if c.Kafka.DLTMonitorGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_DLT_MONITOR_GROUP is required")
	}
	if c.Kafka.NumPartitions <= 0 {
		validationErrors = append(validationErrors, "KAFKA_NUM_PARTITIONS must be greater than 0")
	}
	if c.Kafka.ReplicationFactor <= 0 {
		validationErrors = append(validationErrors, "KAFKA_REPLICATION_FACTOR must be greater than 0")
	}

	// Validate Postgres config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns < 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must not be negative")
	}
	if c.Postgres.MaxConns < c.Postgres.MinConns {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than or equal to POSTGRES_MIN_CONNS")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Outbox config
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MonitorInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MONITOR_INTERVAL must be greater than 0")
	}
	if c.Outbox.LagThreshold <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_LAG_THRESHOLD must be greater than 0")
	}

	// Validate DeadLetter config
	if c.DeadLetter.HealthThreshold <= 0 {
		validationErrors = append(validationErrors, "DLT_HEALTH_THRESHOLD must be greater than 0")
	}

	// Validate Dispatch config
	if c.Dispatch.PoolSize <= 0 {
		validationErrors = append(validationErrors, "DISPATCH_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
