package messaging

import (
	"context"
	"log/slog"
	"sync"

	"ccdemo/contexts/streaming/word-pipeline/ports"
)

// Memory is the in-process transport. Every subscription created for a topic
// receives each message published after it was created; a topic without
// subscriptions only logs. Messages delivered but not acknowledged when a
// subscription handle is closed are redelivered to the next handle.
type Memory struct {
	topic  string
	mu     sync.Mutex
	queues map[string]*memoryQueue
	closed bool
	logger *slog.Logger
}

// NewMemory returns a broker whose Subscribe binds new subscriptions to topic.
func NewMemory(topic string, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		topic:  topic,
		queues: make(map[string]*memoryQueue),
		logger: logger,
	}
}

func (m *Memory) Publish(ctx context.Context, msg ports.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ports.ErrSubscriptionClosed
	}
	targets := make([]*memoryQueue, 0, len(m.queues))
	for _, queue := range m.queues {
		if queue.topic == msg.Topic {
			targets = append(targets, queue)
		}
	}
	m.mu.Unlock()

	for _, queue := range targets {
		queue.push(memoryMessage{
			id:          msg.ID,
			orderingKey: msg.OrderingKey,
			data:        append([]byte(nil), msg.Payload...),
		})
	}

	m.logger.Info("[MOCK] publish",
		"event", "memory_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", msg.Topic,
		"message_id", msg.ID,
		"ordering_key", msg.OrderingKey,
		"payload", string(msg.Payload),
		"subscriptions", len(targets),
	)
	return nil
}

// SubscribeTopic opens (or reattaches to) the durable subscription id on topic.
// After Close an existing subscription can still be attached to drain it.
func (m *Memory) SubscribeTopic(topic string, subscriptionID string) (ports.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, ok := m.queues[subscriptionID]
	if !ok && m.closed {
		return nil, ports.ErrSubscriptionClosed
	}
	if !ok {
		queue = newMemoryQueue(topic)
		m.queues[subscriptionID] = queue
	}
	return &memorySubscription{queue: queue}, nil
}

// Subscribe attaches to subscriptionID on the broker's topic.
func (m *Memory) Subscribe(ctx context.Context, subscriptionID string) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.SubscribeTopic(m.topic, subscriptionID)
}

// Close ends every stream once its pending messages are drained.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, queue := range m.queues {
		queue.close()
	}
	return nil
}

type memoryMessage struct {
	id          string
	orderingKey string
	data        []byte
}

type memoryQueue struct {
	topic    string
	mu       sync.Mutex
	pending  []memoryMessage
	inflight map[string]memoryMessage
	order    []string
	ready    chan struct{}
	done     chan struct{}
	closed   bool
}

func newMemoryQueue(topic string) *memoryQueue {
	return &memoryQueue{
		topic:    topic,
		inflight: make(map[string]memoryMessage),
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (q *memoryQueue) push(msg memoryMessage) {
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	q.mu.Unlock()
	q.signal()
}

func (q *memoryQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *memoryQueue) next(ctx context.Context) (memoryMessage, error) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			msg := q.pending[0]
			q.pending = q.pending[1:]
			q.inflight[msg.id] = msg
			q.order = append(q.order, msg.id)
			q.mu.Unlock()
			return msg, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return memoryMessage{}, ports.ErrSubscriptionClosed
		}

		select {
		case <-ctx.Done():
			return memoryMessage{}, ctx.Err()
		case <-q.done:
		case <-q.ready:
		}
	}
}

func (q *memoryQueue) ack(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, id)
}

// release puts unacknowledged messages back at the head of the queue in
// their original delivery order.
func (q *memoryQueue) release() {
	q.mu.Lock()
	var requeued []memoryMessage
	for _, id := range q.order {
		if msg, ok := q.inflight[id]; ok {
			requeued = append(requeued, msg)
			delete(q.inflight, id)
		}
	}
	q.order = nil
	q.pending = append(requeued, q.pending...)
	q.mu.Unlock()
	if len(requeued) > 0 {
		q.signal()
	}
}

func (q *memoryQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

type memorySubscription struct {
	queue *memoryQueue
	once  sync.Once
}

func (s *memorySubscription) Next(ctx context.Context) (ports.Delivery, error) {
	msg, err := s.queue.next(ctx)
	if err != nil {
		return nil, err
	}
	return &memoryDelivery{queue: s.queue, msg: msg}, nil
}

func (s *memorySubscription) Close() error {
	s.once.Do(s.queue.release)
	return nil
}

type memoryDelivery struct {
	queue *memoryQueue
	msg   memoryMessage
}

func (d *memoryDelivery) ID() string   { return d.msg.id }
func (d *memoryDelivery) Data() []byte { return d.msg.data }

func (d *memoryDelivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.queue.ack(d.msg.id)
	return nil
}
