// Package realtime provides an in-process publish/subscribe broker used to
// drive live view refreshes. Publishers only signal "this topic changed";
// subscribers re-read the full snapshot from the store, so delivery is a
// coalescible nudge rather than a data payload.
package realtime

import "sync"

// Topic names. Event-list changes and per-event message changes are
// independent streams.
const (
	TopicEvents = "events"
)

// MessagesTopic returns the topic carrying chat changes for one event.
func MessagesTopic(eventID string) string {
	return "events/" + eventID + "/messages"
}

// Broker fans change signals out to subscribers per topic.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

// Subscription is one subscriber's handle on a topic. C receives a signal
// whenever the topic changes; signals coalesce while the subscriber is busy.
type Subscription struct {
	C <-chan struct{}

	broker *Broker
	topic  string
	ch     chan struct{}
	once   sync.Once
}

// NewBroker constructs an empty Broker.
func NewBroker() *Broker {
	return &Broker{topics: map[string]map[*Subscription]struct{}{}}
}

// Subscribe registers a new subscriber on topic. The caller must Close the
// subscription when the view goes away; a closed subscription receives no
// further signals.
func (b *Broker) Subscribe(topic string) *Subscription {
	ch := make(chan struct{}, 1)
	s := &Subscription{C: ch, broker: b, topic: topic, ch: ch}

	b.mu.Lock()
	if b.topics[topic] == nil {
		b.topics[topic] = map[*Subscription]struct{}{}
	}
	b.topics[topic][s] = struct{}{}
	b.mu.Unlock()

	return s
}

// Publish signals every subscriber of topic. A subscriber that already has
// a pending signal is skipped; re-reading the snapshot once covers any
// number of missed publishes.
func (b *Broker) Publish(topic string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.topics[topic] {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}

// Close tears the subscription down. It is safe to call more than once and
// safe to race with Publish; a publish after Close is discarded.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		if set, ok := b.topics[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(b.topics, s.topic)
			}
		}
		b.mu.Unlock()
	})
}
