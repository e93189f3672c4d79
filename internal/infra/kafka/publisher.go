// internal/infra/kafka/publisher.go
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/IBM/sarama"
)

// Publisher writes work items to a Kafka topic with a sync producer. The
// work id is the record key so every item keeps to one partition.
type Publisher struct {
	producer sarama.SyncProducer
	logger   *slog.Logger
}

func NewPublisher(producer sarama.SyncProducer, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger.With("component", "kafka-publisher")}
}

// NewSyncProducer builds a producer that waits for all in-sync replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka producer: at least one broker is required")
	}
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 6
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// Publish returns "<partition>-<offset>" as the message id.
func (p *Publisher) Publish(ctx context.Context, topic string, msg domain.OutboundMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	record := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg.Body),
	}
	if id, ok := msg.Attributes[domain.AttrWorkID]; ok {
		record.Key = sarama.StringEncoder(id)
	}
	for k, v := range msg.Attributes {
		record.Headers = append(record.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	partition, offset, err := p.producer.SendMessage(record)
	if err != nil {
		return "", fmt.Errorf("kafka send to %s: %w", topic, err)
	}
	id := fmt.Sprintf("%d-%d", partition, offset)
	p.logger.Debug("message sent", "topic", topic, "message_id", id)
	return id, nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
