package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"showingcover/internal/shared/events"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaBus publishes envelopes as JSON keyed by partition key and consumes
// them with one consumer-group reader per subscription.
type KafkaBus struct {
	writer    kafkaWriter
	newReader func(topic string, groupID string) kafkaReader
	logger    *slog.Logger
}

func NewKafkaBus(brokers []string, logger *slog.Logger) (*KafkaBus, error) {
	cleaned := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("kafka brokers required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &KafkaBus{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cleaned...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		newReader: func(topic string, groupID string) kafkaReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:        cleaned,
				Topic:          topic,
				GroupID:        groupID,
				MinBytes:       1,
				MaxBytes:       10e6,
				CommitInterval: time.Second,
				MaxWait:        500 * time.Millisecond,
			})
		},
		logger: logger,
	}, nil
}

func (k *KafkaBus) Publish(ctx context.Context, topic string, event events.Envelope) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.PartitionKey),
		Value: value,
		Time:  event.OccurredAt,
	})
	if err != nil {
		return err
	}

	k.logger.Info("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

func (k *KafkaBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Envelope) error,
) error {
	if strings.TrimSpace(topic) == "" || strings.TrimSpace(consumerGroup) == "" {
		return errors.New("kafka topic and consumer group required")
	}
	reader := k.newReader(topic, consumerGroup)

	go func() {
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				k.logger.Error("kafka read failed",
					"event", "kafka_read_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", consumerGroup,
					"error", err.Error(),
				)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			k.dispatch(ctx, topic, consumerGroup, msg, handler)
		}
	}()
	return nil
}

func (k *KafkaBus) dispatch(
	ctx context.Context,
	topic string,
	consumerGroup string,
	msg kafka.Message,
	handler func(context.Context, events.Envelope) error,
) {
	var event events.Envelope
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		k.logger.Warn("kafka message is not an envelope",
			"event", "kafka_decode_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"offset", msg.Offset,
			"error", err.Error(),
		)
		return
	}
	if err := handler(ctx, event); err != nil {
		k.logger.Error("consumer handler failed",
			"event", "kafka_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
	}
}

func (k *KafkaBus) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
