package ports

import (
	"context"
	"errors"

	"ccdemo/contexts/streaming/word-pipeline/domain/entities"
)

// ErrSubscriptionClosed is returned by Subscription.Next once the transport
// has ended the message stream.
var ErrSubscriptionClosed = errors.New("subscription closed")

// WordRepository is the persistence gateway for word records.
type WordRepository interface {
	// InsertWord stores one row and returns it with its storage-assigned id.
	InsertWord(ctx context.Context, word string) (entities.Word, error)
	// ListWords returns rows with id > cursor (all rows when cursor is nil),
	// ascending by id, at most limit rows.
	ListWords(ctx context.Context, cursor *int64, limit int) (entities.Page, error)
}

// SchemaBootstrapper creates the word table when absent. Safe on every start.
type SchemaBootstrapper interface {
	EnsureSchema(ctx context.Context) error
}

// OutboundMessage is one publish request. Payload carries the raw word bytes;
// ID and OrderingKey travel as transport attributes.
type OutboundMessage struct {
	ID          string
	Topic       string
	OrderingKey string
	Payload     []byte
}

// MessagePublisher publishes to a broker. Publish returns only after the
// broker confirmed acceptance of the message.
type MessagePublisher interface {
	Publish(ctx context.Context, msg OutboundMessage) error
}

// Delivery is one received message under lease. Until Ack succeeds the
// transport may deliver it again.
type Delivery interface {
	ID() string
	Data() []byte
	Ack(ctx context.Context) error
}

// Subscription is a pull-style message stream.
type Subscription interface {
	// Next blocks until a message arrives, ctx is done, or the stream ends
	// (ErrSubscriptionClosed).
	Next(ctx context.Context) (Delivery, error)
	Close() error
}

// SubscriptionSource opens a durable subscription by id.
type SubscriptionSource interface {
	Subscribe(ctx context.Context, subscriptionID string) (Subscription, error)
}

// IDGenerator abstracts message identifier generation.
type IDGenerator interface {
	NewID() string
}

// PipelineMetrics receives pipeline counters.
type PipelineMetrics interface {
	WordPublished()
	WordPersisted()
	MessageSkipped()
	PageServed(items int)
}
