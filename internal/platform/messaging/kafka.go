package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"

	"ccdemo/contexts/streaming/word-pipeline/ports"
)

const headerMessageID = "message_id"

// Kafka publishes through a synchronous writer and consumes through a
// consumer-group reader per subscription. The ordering key becomes the
// message key so every word lands on the same partition.
type Kafka struct {
	brokers []string
	topic   string
	writer  *kafka.Writer
	logger  *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka transport requires at least one broker")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers: brokers,
		topic:   topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchSize:              1,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, msg ports.OutboundMessage) error {
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.OrderingKey),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: headerMessageID, Value: []byte(msg.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	k.logger.Debug("message published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", msg.Topic,
		"message_id", msg.ID,
	)
	return nil
}

func (k *Kafka) Subscribe(ctx context.Context, subscriptionID string) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  subscriptionID,
		Topic:    k.topic,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})

	k.mu.Lock()
	k.readers = append(k.readers, reader)
	k.mu.Unlock()
	return &kafkaSubscription{reader: reader}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	errs := []error{k.writer.Close()}
	for _, reader := range readers {
		errs = append(errs, reader.Close())
	}
	return errors.Join(errs...)
}

type kafkaSubscription struct {
	reader *kafka.Reader
}

func (s *kafkaSubscription) Next(ctx context.Context) (ports.Delivery, error) {
	msg, err := s.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ports.ErrSubscriptionClosed
		}
		return nil, fmt.Errorf("kafka fetch: %w", err)
	}
	return &kafkaDelivery{reader: s.reader, msg: msg}, nil
}

func (s *kafkaSubscription) Close() error {
	return s.reader.Close()
}

type kafkaDelivery struct {
	reader *kafka.Reader
	msg    kafka.Message
}

func (d *kafkaDelivery) ID() string {
	for _, header := range d.msg.Headers {
		if header.Key == headerMessageID {
			return string(header.Value)
		}
	}
	return fmt.Sprintf("%s/%d/%d", d.msg.Topic, d.msg.Partition, d.msg.Offset)
}

func (d *kafkaDelivery) Data() []byte { return d.msg.Value }

func (d *kafkaDelivery) Ack(ctx context.Context) error {
	return d.reader.CommitMessages(ctx, d.msg)
}
