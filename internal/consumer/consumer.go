// Package consumer provides Kafka consumer functionality for the
// detections.events topic.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/Wassi1m/app-surveince/internal/events"
	kafkautil "github.com/Wassi1m/app-surveince/pkg/kafka"
)

// Consumer wraps a Kafka reader and provides a simple interface for consuming
// detection events published by camera integrations.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a new Kafka consumer with the specified brokers, topic,
// and group ID. The consumer is configured for at-least-once delivery
// semantics.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	reader := kafka.NewReader(kafkautil.NewReaderConfig(brokerList, topic, groupID))

	slog.Info("Kafka consumer configured",
		"min_bytes", 1,
		"max_bytes", 10e6,
		"max_wait", kafkautil.MaxPollWait,
		"commit_interval", kafkautil.CommitInterval,
	)

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadMessage reads the next message from Kafka and deserializes it as a
// DetectionMessage. Returns the raw Kafka message alongside so the caller can
// commit the offset after processing.
func (c *Consumer) ReadMessage(ctx context.Context) (*events.DetectionMessage, *kafka.Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	detection, err := DecodeDetection(msg.Value)
	if err != nil {
		return nil, &msg, err
	}

	return detection, &msg, nil
}

// CommitMessage commits the offset for the given message.
// This should be called after successfully processing a message.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}

// DecodeDetection unmarshals a detection event payload. Payload validation
// beyond JSON shape is left to the pipeline.
func DecodeDetection(value []byte) (*events.DetectionMessage, error) {
	var detection events.DetectionMessage
	if err := json.Unmarshal(value, &detection); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detection event: %w", err)
	}
	return &detection, nil
}
