package notify

import "sync"

// Collection names the two record sets that emit change events.
type Collection string

const (
	CollectionPlans Collection = "plans"
	CollectionMedia Collection = "media"
)

// Event carries no payload beyond which collection changed. Subscribers
// react by re-fetching the whole collection, so the changed row and the
// operation kind are deliberately not part of the event.
type Event struct {
	Collection Collection `json:"collection"`
}

// Subscription is one listener on a collection's change feed.
type Subscription struct {
	C chan Event

	broker     *Broker
	collection Collection
	id         int
	once       sync.Once
}

// Unsubscribe detaches the subscription and closes C. Safe to call more
// than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.drop(s)
	})
}

// Broker is an in-process change-notification channel: writes to a
// collection publish an event, dashboards subscribe per collection.
// The two collection feeds are independent of each other.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[Collection]map[int]*Subscription
	closed bool
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[Collection]map[int]*Subscription),
	}
}

func (b *Broker) Subscribe(collection Collection) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		// Buffered so a slow subscriber never blocks a publisher.
		C:          make(chan Event, 8),
		broker:     b,
		collection: collection,
		id:         b.nextID,
	}
	b.nextID++

	if b.closed {
		close(sub.C)
		return sub
	}

	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]*Subscription)
	}
	b.subs[collection][sub.id] = sub
	return sub
}

// Publish notifies every subscriber of collection. Delivery is
// best-effort: a subscriber whose buffer is full misses the event,
// which is harmless because any later event triggers the same full
// re-fetch.
func (b *Broker) Publish(collection Collection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, sub := range b.subs[collection] {
		select {
		case sub.C <- Event{Collection: collection}:
		default:
		}
	}
}

// Close drops all subscriptions and closes their channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			close(sub.C)
		}
	}
	b.subs = nil
}

func (b *Broker) drop(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if subs, ok := b.subs[s.collection]; ok {
		if _, ok := subs[s.id]; ok {
			delete(subs, s.id)
			close(s.C)
		}
	}
}
