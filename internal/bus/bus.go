// Package bus fans queue and order-update events out to every connected
// viewer. Delivery is broadcast and best-effort: nothing is persisted, a
// subscriber that connects after an emission never sees it, and a slow
// subscriber has messages dropped rather than ever blocking the mutation
// that triggered the publish.
package bus

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Topics carried by the bus. Staff and kitchen boards listen on
// TopicRefreshQueue and re-fetch their whole view; per-order trackers
// listen on TopicOrderUpdate and filter by order id or public code.
const (
	TopicRefreshQueue = "refresh-queue"
	TopicOrderUpdate  = "order-update"
)

// Event types carried on TopicOrderUpdate.
const (
	EventItemCompleted  = "item-completed"
	EventItemCancelled  = "item-cancelled"
	EventOrderCompleted = "order-completed"
	EventOrderCancelled = "order-cancelled"
	EventRefresh        = "refresh"
)

// Event is the payload delivered to subscribers.
type Event struct {
	Type          string `json:"type"`
	OrderID       uint   `json:"orderId,omitempty"`
	ItemID        uint   `json:"itemId,omitempty"`
	PublicID      string `json:"publicId,omitempty"`
	RecipientName string `json:"recipientName,omitempty"`
	ItemName      string `json:"itemName,omitempty"`
}

// Message pairs an event with the topic it was emitted on.
type Message struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

// Publisher is the write side of the bus, the only part mutating
// operations depend on.
type Publisher interface {
	Emit(topic string, event Event)
}

// Subscription is one subscriber's receive handle. Messages arrive on C;
// the channel is closed on Unsubscribe or bus Close.
type Subscription struct {
	id     uuid.UUID
	topics map[string]bool
	ch     chan Message
}

// C returns the subscription's receive channel.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// ID identifies the subscription, used for logging dropped deliveries.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Bus is an in-process topic broadcaster. It is an explicit instance
// injected into every component that publishes or subscribes; there is no
// ambient global connection.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	buffer int
	closed bool
}

// New creates a bus whose subscribers buffer up to 256 messages each.
func New() *Bus {
	return &Bus{
		subs:   make(map[uuid.UUID]*Subscription),
		buffer: 256,
	}
}

// Subscribe registers a subscriber for the given topics.
func (b *Bus) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		id:     uuid.New(),
		topics: make(map[string]bool, len(topics)),
		ch:     make(chan Message, b.buffer),
	}
	for _, topic := range topics {
		sub.topics[topic] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.ch)
}

// Emit broadcasts an event to every subscriber of the topic. It never
// blocks: a subscriber whose buffer is full misses the message and relies
// on its own refresh fallback.
func (b *Bus) Emit(topic string, event Event) {
	msg := Message{Topic: topic, Event: event}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			log.Printf("bus: subscriber %s buffer full, dropping %s message", sub.id, topic)
		}
	}
}

// SubscriberCount reports the number of registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
