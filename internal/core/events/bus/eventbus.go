// Package bus is a small synchronous pub/sub hub for simulation events.
// Dispatch happens inline on the simulation goroutine, so subscribers observe
// events in deterministic frame order.
package bus

import "sync"

// Event is anything published on the bus; Topic routes it to subscribers.
type Event interface {
	Topic() string
}

// Handler consumes one event. Handlers must not block; they run inside the
// frame that produced the event.
type Handler func(Event)

type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[int]Handler
	nextID int
}

func New() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers h for a topic and returns a token for Unsubscribe.
func (b *Bus) Subscribe(topic string, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][b.nextID] = h
	return b.nextID
}

// Unsubscribe removes a previously registered handler. Unknown tokens are a
// no-op.
func (b *Bus) Unsubscribe(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[topic], id)
}

// Publish delivers e to every subscriber of its topic; delivery order across
// subscribers is unspecified. A nil bus drops everything, so producers need no
// guard.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[e.Topic()]))
	for _, h := range b.subs[e.Topic()] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
}
