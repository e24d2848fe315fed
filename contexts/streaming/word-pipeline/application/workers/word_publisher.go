package workers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"time"

	application "ccdemo/contexts/streaming/word-pipeline/application"
	domainerrors "ccdemo/contexts/streaming/word-pipeline/domain/errors"
	"ccdemo/contexts/streaming/word-pipeline/ports"
)

// DefaultOrderingKey is attached to every message of a run so that ordered
// subscribers observe words in publish order.
const DefaultOrderingKey = "order"

// WordPublisher emits one message per word and waits for the broker
// confirmation of each message before moving on to the next.
type WordPublisher struct {
	Publisher   ports.MessagePublisher
	IDGenerator ports.IDGenerator
	Metrics     ports.PipelineMetrics
	Topic       string
	OrderingKey string
	Delay       time.Duration
	Logger      *slog.Logger
}

// PublishAll returns the number of confirmed publishes. The first
// unconfirmed publish aborts the run; there is no per-message retry.
func (p WordPublisher) PublishAll(ctx context.Context, words iter.Seq[string]) (int, error) {
	logger := application.ResolveLogger(p.Logger)
	metrics := application.ResolveMetrics(p.Metrics)
	if p.Topic == "" {
		return 0, domainerrors.ErrEmptyTopic
	}
	orderingKey := p.OrderingKey
	if orderingKey == "" {
		orderingKey = DefaultOrderingKey
	}

	published := 0
	for word := range words {
		msg := ports.OutboundMessage{
			ID:          p.newID(published),
			Topic:       p.Topic,
			OrderingKey: orderingKey,
			Payload:     []byte(word),
		}
		if err := p.Publisher.Publish(ctx, msg); err != nil {
			logger.Error("word publish failed",
				"event", "word_publish_failed",
				"module", "streaming/word-pipeline",
				"layer", "worker",
				"topic", p.Topic,
				"message_id", msg.ID,
				"published_count", published,
				"error", err.Error(),
			)
			return published, fmt.Errorf("publish word %d to %s: %w", published+1, p.Topic, err)
		}
		published++
		metrics.WordPublished()
		logger.Debug("word published",
			"event", "word_published",
			"module", "streaming/word-pipeline",
			"layer", "worker",
			"topic", p.Topic,
			"message_id", msg.ID,
			"payload", word,
		)

		if p.Delay > 0 {
			if err := sleepContext(ctx, p.Delay); err != nil {
				return published, err
			}
		}
	}

	logger.Info("word publishing completed",
		"event", "word_publish_completed",
		"module", "streaming/word-pipeline",
		"layer", "worker",
		"topic", p.Topic,
		"published_count", published,
	)
	return published, nil
}

func (p WordPublisher) newID(sequence int) string {
	if p.IDGenerator != nil {
		return p.IDGenerator.NewID()
	}
	return strconv.Itoa(sequence + 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
