package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"ccdemo/contexts/streaming/word-pipeline/ports"
)

// Transport is the capability a pipeline process needs from a broker.
// Implementations are selected by configuration and injected into the
// publisher and subscriber.
type Transport interface {
	ports.MessagePublisher
	ports.SubscriptionSource
	Close() error
}

// Options selects and configures a transport.
type Options struct {
	Kind         string
	Topic        string
	ProjectID    string
	KafkaBrokers []string
	NATSURL      string
	AMQPURL      string
	Logger       *slog.Logger
}

// Open builds the transport named by opts.Kind.
func Open(ctx context.Context, opts Options) (Transport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Kind {
	case "", "memory":
		return NewMemory(opts.Topic, logger), nil
	case "kafka":
		return NewKafka(opts.KafkaBrokers, opts.Topic, logger)
	case "nats":
		return NewNATS(opts.NATSURL, opts.Topic, logger)
	case "rabbitmq":
		return NewRabbitMQ(opts.AMQPURL, opts.Topic, logger)
	case "pubsub":
		return NewPubSub(ctx, opts.ProjectID, opts.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown message transport %q", opts.Kind)
	}
}
