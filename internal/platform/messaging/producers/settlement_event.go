package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/longsangforge/payment-reconciler/internal/config"
	"github.com/segmentio/kafka-go"
)

// SettlementEventProducer publishes settlement events for the side-effect
// worker. Writes are synchronous: the caller treats publish failures as
// best-effort, so there is no completion callback to lose errors in.
type SettlementEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewSettlementEventProducer creates the producer and ensures the topic exists
func NewSettlementEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*SettlementEventProducer, error) {
	if cfg.SettlementTopic == "" {
		return nil, fmt.Errorf("kafka settlement topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for settlement producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.SettlementTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure settlement topic %s exists: %w", cfg.SettlementTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.SettlementTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &SettlementEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.SettlementTopic,
	}, nil
}

func (p *SettlementEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish settlement event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish settlement event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published settlement event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *SettlementEventProducer) Close() error {
	p.logger.Info("Closing settlement event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close settlement kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
