package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"ccdemo/contexts/streaming/word-pipeline/ports"
)

// RabbitMQ maps the topic onto a durable fanout exchange and each
// subscription onto a durable queue bound to it. Publishing waits for the
// broker confirm; consumers ack manually with a prefetch of one.
type RabbitMQ struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	mu      sync.Mutex
	publish *amqp.Channel
}

func NewRabbitMQ(amqpURL string, topic string, logger *slog.Logger) (*RabbitMQ, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(topic, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", topic, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return &RabbitMQ{
		conn:     conn,
		exchange: topic,
		logger:   logger,
		publish:  ch,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, msg ports.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	confirm, err := r.publish.PublishWithDeferredConfirmWithContext(ctx, msg.Topic, "", false, false, amqp.Publishing{
		ContentType:  "text/plain",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Headers:      amqp.Table{headerOrderingKey: msg.OrderingKey},
		Body:         msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("amqp confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("amqp publish %s nacked by broker", msg.ID)
	}
	r.logger.Debug("message published",
		"event", "rabbitmq_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"exchange", msg.Topic,
		"message_id", msg.ID,
	)
	return nil
}

func (r *RabbitMQ) Subscribe(_ context.Context, subscriptionID string) (ports.Subscription, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(subscriptionID, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", subscriptionID, err)
	}
	if err := ch.QueueBind(subscriptionID, "", r.exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue %s: %w", subscriptionID, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	deliveries, err := ch.Consume(subscriptionID, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", subscriptionID, err)
	}
	return &rabbitSubscription{channel: ch, deliveries: deliveries}, nil
}

func (r *RabbitMQ) Close() error {
	if r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}

type rabbitSubscription struct {
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
}

func (s *rabbitSubscription) Next(ctx context.Context) (ports.Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.deliveries:
		if !ok {
			return nil, ports.ErrSubscriptionClosed
		}
		return &rabbitDelivery{d: d}, nil
	}
}

// Close returns unacknowledged deliveries to the queue.
func (s *rabbitSubscription) Close() error {
	err := s.channel.Close()
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

type rabbitDelivery struct {
	d amqp.Delivery
}

func (d *rabbitDelivery) ID() string {
	if d.d.MessageId != "" {
		return d.d.MessageId
	}
	return fmt.Sprintf("%d", d.d.DeliveryTag)
}

func (d *rabbitDelivery) Data() []byte { return d.d.Body }

func (d *rabbitDelivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.d.Ack(false)
}
