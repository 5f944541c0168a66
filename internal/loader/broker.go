package loader

import (
	"sync"
	"time"

	"github.com/seantiz/soundbatch/internal/model"
)

// subscriberBufferSize is the channel buffer for each progress subscriber.
// Events are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// defaultTopicRetention is how long a settled batch's marker is kept.
const defaultTopicRetention = time.Minute

// Broker fans out per-batch asset events to live subscribers.
// It is safe for concurrent use.
//
// Closed topics are retained as markers for a while so that subscribers
// arriving just after a batch settled receive a closed channel instead of
// blocking forever. Later subscribers are expected to have seen the settled
// batch in the store.
type Broker struct {
	mu        sync.Mutex
	topics    map[string]*topic
	retention time.Duration
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithTopicRetention sets how long settled batch markers are kept.
func WithTopicRetention(d time.Duration) BrokerOption {
	return func(b *Broker) {
		b.retention = d
	}
}

type topic struct {
	subs   map[int]chan model.AssetEvent
	nextID int
	closed bool
}

// NewBroker creates a new progress broker.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		topics:    make(map[string]*topic),
		retention: defaultTopicRetention,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe returns a channel that receives asset events for the given batch
// and an unsubscribe function. If the batch already settled (Close was
// called), the returned channel is immediately closed.
func (b *Broker) Subscribe(batchID string) (<-chan model.AssetEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[batchID]
	if !ok {
		t = &topic{subs: make(map[int]chan model.AssetEvent)}
		b.topics[batchID] = t
	}

	ch := make(chan model.AssetEvent, subscriberBufferSize)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(t.subs, id)
		if !t.closed && len(t.subs) == 0 && b.topics[batchID] == t {
			delete(b.topics, batchID)
		}
	}
}

// Publish sends an event to all subscribers of the given batch.
// Events are dropped for subscribers whose buffers are full.
func (b *Broker) Publish(batchID string, ev model.AssetEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[batchID]
	if !ok || t.closed {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- ev:
		default:
			// Never block event routing on a slow reader.
		}
	}
}

// Close signals that the batch settled. All subscriber channels are closed
// and Subscribe calls within the retention window return a closed channel.
func (b *Broker) Close(batchID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[batchID]
	if !ok {
		t = &topic{subs: make(map[int]chan model.AssetEvent)}
		b.topics[batchID] = t
	}

	t.closed = true
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}

	time.AfterFunc(b.retention, func() { b.prune(batchID, t) })
}

func (b *Broker) prune(batchID string, t *topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.topics[batchID] == t {
		delete(b.topics, batchID)
	}
}

func (b *Broker) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}
