// Package pubsub fans encoded market-data frames out to a dynamic set of
// subscribers. Delivery is best-effort and independent per subscriber: one
// slow or dead subscriber never blocks the others, and never fails the
// publishing tick.
package pubsub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Subscriber is an opaque delivery handle registered by the transport layer.
// Deliver must be bounded: it either accepts the frame or fails immediately,
// it never blocks the fan-out pass.
type Subscriber interface {
	Deliver(frame []byte) error
	Close()
}

type Publisher struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]Subscriber
	log         zerolog.Logger
}

func New(log zerolog.Logger) *Publisher {
	return &Publisher{
		subscribers: make(map[uuid.UUID]Subscriber),
		log:         log,
	}
}

// Register adds a subscriber and returns its handle id.
func (p *Publisher) Register(sub Subscriber) uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.New()
	p.subscribers[id] = sub
	p.log.Info().Str("subscriber", id.String()).Int("total", len(p.subscribers)).
		Msg("subscriber registered")
	return id
}

// Deregister removes and closes a subscriber. Removing an unknown id is a
// no-op, so transport teardown racing with lazy eviction is harmless.
func (p *Publisher) Deregister(id uuid.UUID) {
	p.mu.Lock()
	sub, ok := p.subscribers[id]
	if ok {
		delete(p.subscribers, id)
	}
	total := len(p.subscribers)
	p.mu.Unlock()

	if ok {
		sub.Close()
		p.log.Info().Str("subscriber", id.String()).Int("total", total).
			Msg("subscriber deregistered")
	}
}

// Publish delivers the frame to every currently registered subscriber.
// The pass runs over a point-in-time copy of the set, so registrations and
// deregistrations during the pass are safe. Subscribers whose delivery fails
// are evicted and closed after the pass completes; they are not retried.
// Returns the number of successful deliveries and evictions.
func (p *Publisher) Publish(frame []byte) (delivered, evicted int) {
	p.mu.Lock()
	snapshot := make(map[uuid.UUID]Subscriber, len(p.subscribers))
	for id, sub := range p.subscribers {
		snapshot[id] = sub
	}
	p.mu.Unlock()

	var failed []uuid.UUID
	for id, sub := range snapshot {
		if err := sub.Deliver(frame); err != nil {
			p.log.Warn().Err(err).Str("subscriber", id.String()).
				Msg("delivery failed, evicting subscriber")
			failed = append(failed, id)
			continue
		}
		delivered++
	}

	for _, id := range failed {
		p.mu.Lock()
		sub, ok := p.subscribers[id]
		if ok {
			delete(p.subscribers, id)
		}
		p.mu.Unlock()
		// A concurrent Deregister may have beaten us to it.
		if ok {
			sub.Close()
			evicted++
		}
	}
	return delivered, evicted
}

// Len reports the current number of registered subscribers.
func (p *Publisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// Close deregisters and closes every subscriber. Called once on shutdown.
func (p *Publisher) Close() {
	p.mu.Lock()
	subscribers := p.subscribers
	p.subscribers = make(map[uuid.UUID]Subscriber)
	p.mu.Unlock()

	for _, sub := range subscribers {
		sub.Close()
	}
}
