package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	application "ccdemo/contexts/streaming/word-pipeline/application"
	"ccdemo/contexts/streaming/word-pipeline/ports"
)

// WordConsumer persists each received word and acknowledges the message
// only after the insert succeeded. A failed insert leaves the message
// unacknowledged for the transport to redeliver and stops the loop.
type WordConsumer struct {
	Words   ports.WordRepository
	Metrics ports.PipelineMetrics
	Logger  *slog.Logger
}

// Run consumes sub until the stream ends (nil error) or the first receive,
// persist or ack failure.
func (c WordConsumer) Run(ctx context.Context, sub ports.Subscription) error {
	logger := application.ResolveLogger(c.Logger)
	logger.Info("word consumer started",
		"event", "word_consumer_started",
		"module", "streaming/word-pipeline",
		"layer", "worker",
	)

	for {
		delivery, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrSubscriptionClosed) {
				logger.Info("word consumer stream ended",
					"event", "word_consumer_stream_ended",
					"module", "streaming/word-pipeline",
					"layer", "worker",
				)
				return nil
			}
			return fmt.Errorf("receive message: %w", err)
		}
		if err := c.Handle(ctx, delivery); err != nil {
			return err
		}
	}
}

// Handle processes a single delivery.
func (c WordConsumer) Handle(ctx context.Context, delivery ports.Delivery) error {
	logger := application.ResolveLogger(c.Logger)
	metrics := application.ResolveMetrics(c.Metrics)

	word := decodePayload(delivery.Data())
	if word == "" {
		logger.Warn("received empty message; skipping",
			"event", "word_consumer_empty_message",
			"module", "streaming/word-pipeline",
			"layer", "worker",
			"message_id", delivery.ID(),
		)
		metrics.MessageSkipped()
		if err := delivery.Ack(ctx); err != nil {
			return fmt.Errorf("ack empty message %s: %w", delivery.ID(), err)
		}
		return nil
	}

	record, err := c.Words.InsertWord(ctx, word)
	if err != nil {
		logger.Error("word persist failed",
			"event", "word_consumer_persist_failed",
			"module", "streaming/word-pipeline",
			"layer", "worker",
			"message_id", delivery.ID(),
			"error", err.Error(),
		)
		return fmt.Errorf("persist message %s: %w", delivery.ID(), err)
	}
	metrics.WordPersisted()

	if err := delivery.Ack(ctx); err != nil {
		logger.Error("word ack failed",
			"event", "word_consumer_ack_failed",
			"module", "streaming/word-pipeline",
			"layer", "worker",
			"message_id", delivery.ID(),
			"word_id", record.ID,
			"error", err.Error(),
		)
		return fmt.Errorf("ack message %s: %w", delivery.ID(), err)
	}

	logger.Debug("word persisted",
		"event", "word_consumer_persisted",
		"module", "streaming/word-pipeline",
		"layer", "worker",
		"message_id", delivery.ID(),
		"word_id", record.ID,
	)
	return nil
}

// decodePayload treats a payload that is not valid UTF-8 as empty.
func decodePayload(data []byte) string {
	if !utf8.Valid(data) {
		return ""
	}
	return string(data)
}
