package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"ccdemo/contexts/streaming/word-pipeline/ports"
)

const (
	headerOrderingKey = "Ordering-Key"
	natsFetchWait     = 5 * time.Second
)

// NATS publishes to a JetStream stream that captures the topic subject and
// consumes through one durable pull consumer per subscription.
type NATS struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	topic  string
	stream string
	logger *slog.Logger
}

func NewNATS(serverURL string, topic string, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(serverURL, nats.Name("ccdemo"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open jetstream context: %w", err)
	}

	n := &NATS{
		conn:   conn,
		js:     js,
		topic:  topic,
		stream: streamName(topic),
		logger: logger,
	}
	if err := n.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}
	return n, nil
}

func (n *NATS) ensureStream() error {
	_, err := n.js.StreamInfo(n.stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("lookup stream %s: %w", n.stream, err)
	}
	_, err = n.js.AddStream(&nats.StreamConfig{
		Name:     n.stream,
		Subjects: []string{n.topic},
		Storage:  nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("create stream %s: %w", n.stream, err)
	}
	n.logger.Info("jetstream stream created",
		"event", "nats_stream_created",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"stream", n.stream,
		"subject", n.topic,
	)
	return nil
}

func (n *NATS) Publish(ctx context.Context, msg ports.OutboundMessage) error {
	out := &nats.Msg{
		Subject: msg.Topic,
		Data:    msg.Payload,
		Header:  make(nats.Header),
	}
	out.Header.Set(headerOrderingKey, msg.OrderingKey)

	ack, err := n.js.PublishMsg(out, nats.MsgId(msg.ID), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("jetstream publish: %w", err)
	}
	n.logger.Debug("message published",
		"event", "nats_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"subject", msg.Topic,
		"message_id", msg.ID,
		"stream_seq", ack.Sequence,
	)
	return nil
}

func (n *NATS) Subscribe(_ context.Context, subscriptionID string) (ports.Subscription, error) {
	sub, err := n.js.PullSubscribe(n.topic, subscriptionID,
		nats.BindStream(n.stream),
		nats.MaxAckPending(1),
		nats.AckExplicit(),
	)
	if err != nil {
		return nil, fmt.Errorf("pull subscribe %s: %w", subscriptionID, err)
	}
	return &natsSubscription{sub: sub}, nil
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}

type natsSubscription struct {
	sub    *nats.Subscription
	closed atomic.Bool
}

func (s *natsSubscription) Next(ctx context.Context) (ports.Delivery, error) {
	for {
		if s.closed.Load() {
			return nil, ports.ErrSubscriptionClosed
		}
		fetchCtx, cancel := context.WithTimeout(ctx, natsFetchWait)
		msgs, err := s.sub.Fetch(1, nats.Context(fetchCtx))
		cancel()

		switch {
		case err == nil && len(msgs) > 0:
			return &natsDelivery{msg: msgs[0]}, nil
		case err == nil:
			continue
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
			continue
		case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrBadSubscription):
			return nil, ports.ErrSubscriptionClosed
		default:
			return nil, fmt.Errorf("jetstream fetch: %w", err)
		}
	}
}

// Close stops fetching. The durable consumer is kept on the server so a
// restarted subscriber resumes from the last acknowledged message.
func (s *natsSubscription) Close() error {
	s.closed.Store(true)
	return nil
}

type natsDelivery struct {
	msg *nats.Msg
}

func (d *natsDelivery) ID() string {
	if id := d.msg.Header.Get(nats.MsgIdHdr); id != "" {
		return id
	}
	return d.msg.Reply
}

func (d *natsDelivery) Data() []byte { return d.msg.Data }

func (d *natsDelivery) Ack(ctx context.Context) error {
	return d.msg.AckSync(nats.Context(ctx))
}

func streamName(topic string) string {
	name := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(topic)
	return strings.ToUpper(name)
}
