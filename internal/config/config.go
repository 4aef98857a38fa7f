// Package config provides configuration structures and validation for the service.
// It handles environment-based configuration for all major components including
// the HTTP server, database connections, message queues, matching rules and the
// external calendar/email collaborators.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration and is validated during
// application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Webhook     WebhookConfig
	Reference   ReferenceConfig
	Matcher     MatcherConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Calendar    CalendarConfig
	Email       EmailConfig
	WorkerPool  WorkerPoolConfig
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

// WebhookConfig contains the inbound bank-webhook settings
type WebhookConfig struct {
	// SecretToken is compared against the Secure-Token header of incoming
	// webhook calls. Empty disables the check (local development only).
	SecretToken string
}

// ReferenceConfig controls how payment references are generated and parsed
type ReferenceConfig struct {
	Marker     string // Keyword anchoring reference extraction, e.g. "TUVAN"
	NameMaxLen int    // Normalized client name is truncated to this length
}

// MatcherConfig controls candidate selection and amount verification
type MatcherConfig struct {
	CandidateLimit     int // Maximum pending bookings scanned per transaction
	AmountTolerancePct int // Allowed deviation from the expected price, in percent
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	SettlementTopic   string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// CalendarConfig contains the calendar collaborator settings
type CalendarConfig struct {
	BaseURL       string        // Base URL of the calendar API service
	CalendarEmail string        // Calendar the events are created on
	Timezone      string        // IANA timezone for event start/end datetimes
	Timeout       time.Duration // Per-call timeout
}

// EmailConfig contains the email collaborator settings
type EmailConfig struct {
	BaseURL    string        // Base URL of the email sending service
	APIKey     string        // Bearer token for the email service
	AdminEmail string        // Fixed recipient for admin notifications
	Timeout    time.Duration // Per-call timeout
}

// WorkerPoolConfig contains side-effect worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
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

	// Validate Reference config
	if c.Reference.Marker == "" {
		validationErrors = append(validationErrors, "PAYMENT_REF_MARKER is required")
	}
	if c.Reference.NameMaxLen <= 0 {
		validationErrors = append(validationErrors, "PAYMENT_REF_NAME_MAX_LEN must be greater than 0")
	}

	// Validate Matcher config
	if c.Matcher.CandidateLimit <= 0 {
		validationErrors = append(validationErrors, "MATCHER_CANDIDATE_LIMIT must be greater than 0")
	}
	if c.Matcher.AmountTolerancePct < 0 {
		validationErrors = append(validationErrors, "MATCHER_AMOUNT_TOLERANCE_PCT must not be negative")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.SettlementTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_SETTLEMENT_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
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

	// Validate Calendar config
	if c.Calendar.BaseURL == "" {
		validationErrors = append(validationErrors, "CALENDAR_BASE_URL is required")
	}
	if c.Calendar.CalendarEmail == "" {
		validationErrors = append(validationErrors, "CALENDAR_EMAIL is required")
	}
	if c.Calendar.Timezone == "" {
		validationErrors = append(validationErrors, "CALENDAR_TIMEZONE is required")
	}
	if c.Calendar.Timeout <= 0 {
		validationErrors = append(validationErrors, "CALENDAR_TIMEOUT must be greater than 0")
	}

	// Validate Email config
	if c.Email.BaseURL == "" {
		validationErrors = append(validationErrors, "EMAIL_BASE_URL is required")
	}
	if c.Email.AdminEmail == "" {
		validationErrors = append(validationErrors, "EMAIL_ADMIN_ADDRESS is required")
	}
	if c.Email.Timeout <= 0 {
		validationErrors = append(validationErrors, "EMAIL_TIMEOUT must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
