package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub"

	"ccdemo/contexts/streaming/word-pipeline/ports"
)

const attrMessageID = "message_id"

// PubSub publishes with message ordering enabled and receives with one
// outstanding message at a time so persistence order follows delivery order.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *slog.Logger
}

func NewPubSub(ctx context.Context, projectID string, topicID string, logger *slog.Logger) (*PubSub, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	topic.EnableMessageOrdering = true
	return &PubSub{client: client, topic: topic, logger: logger}, nil
}

func (p *PubSub) Publish(ctx context.Context, msg ports.OutboundMessage) error {
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:        msg.Payload,
		Attributes:  map[string]string{attrMessageID: msg.ID},
		OrderingKey: msg.OrderingKey,
	})
	serverID, err := result.Get(ctx)
	if err != nil {
		// An ordering key is paused after a failure until resumed.
		p.topic.ResumePublish(msg.OrderingKey)
		return fmt.Errorf("pubsub publish: %w", err)
	}
	p.logger.Debug("message published",
		"event", "pubsub_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", p.topic.ID(),
		"message_id", msg.ID,
		"server_id", serverID,
	)
	return nil
}

func (p *PubSub) Subscribe(ctx context.Context, subscriptionID string) (ports.Subscription, error) {
	sub := p.client.Subscription(subscriptionID)
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	sub.ReceiveSettings.NumGoroutines = 1

	receiveCtx, cancel := context.WithCancel(ctx)
	s := &pubsubSubscription{
		messages: make(chan *pubsub.Message),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go s.receive(receiveCtx, sub)
	return s, nil
}

func (p *PubSub) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

type pubsubSubscription struct {
	messages chan *pubsub.Message
	done     chan struct{}
	cancel   context.CancelFunc

	mu  sync.Mutex
	err error
}

func (s *pubsubSubscription) receive(ctx context.Context, sub *pubsub.Subscription) {
	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		select {
		case s.messages <- m:
		case <-ctx.Done():
			m.Nack()
		}
	})
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

func (s *pubsubSubscription) Next(ctx context.Context) (ports.Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case m := <-s.messages:
		return &pubsubDelivery{m: m}, nil
	case <-s.done:
		s.mu.Lock()
		err := s.err
		s.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("pubsub receive: %w", err)
		}
		return nil, ports.ErrSubscriptionClosed
	}
}

func (s *pubsubSubscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

type pubsubDelivery struct {
	m *pubsub.Message
}

func (d *pubsubDelivery) ID() string {
	if id := d.m.Attributes[attrMessageID]; id != "" {
		return id
	}
	return d.m.ID
}

func (d *pubsubDelivery) Data() []byte { return d.m.Data }

func (d *pubsubDelivery) Ack(ctx context.Context) error {
	status, err := d.m.AckWithResult().Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub ack: %w", err)
	}
	if status != pubsub.AcknowledgeStatusSuccess {
		return fmt.Errorf("pubsub ack status %d", status)
	}
	return nil
}
