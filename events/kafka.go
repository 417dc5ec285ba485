// Package events publishes persisted messages to Kafka for downstream
// consumers (audit, analytics). The firehose is strictly best-effort: it
// never participates in delivery and its failures are never surfaced to
// senders.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"chatwire/models"
)

// Publisher emits one event per persisted message.
type Publisher interface {
	Publish(ctx context.Context, msg models.Message) error
	Close() error
}

// KafkaPublisher writes message records keyed by message ID, so downstream
// compaction keeps one record per message.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewKafkaPublisher(broker, topic string, log *zap.SugaredLogger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(broker),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		log: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg models.Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	p.log.Debugw("message published", "message_id", msg.ID, "topic", p.writer.Topic)
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
