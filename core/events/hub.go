package events

import (
	"sync"
	"sync/atomic"

	"auctionhouse/core/types"
)

// Envelope is one emitted event with its position in the stream.
type Envelope struct {
	Seq        uint64            `json:"seq"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Hub fans emitted events out to live subscribers. A subscriber that falls
// behind by more than its buffer loses the overflow; Dropped reports how
// many envelopes it missed.
type Hub struct {
	mu     sync.Mutex
	seq    uint64
	nextID int
	subs   map[int]*Subscription
}

// Subscription receives envelopes until cancelled.
type Subscription struct {
	C       <-chan Envelope
	ch      chan Envelope
	dropped atomic.Uint64
}

// Dropped returns the number of envelopes discarded for this subscriber.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*Subscription)}
}

// Subscribe registers a subscriber with the given buffer. The returned cancel
// func closes the channel.
func (h *Hub) Subscribe(buffer int) (*Subscription, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Envelope, buffer)
	sub := &Subscription{C: ch, ch: ch}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Emit implements Emitter.
func (h *Hub) Emit(evt Event) {
	if evt == nil {
		return
	}
	env := Envelope{Type: evt.EventType()}
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if e := carrier.Event(); e != nil {
			env.Type = e.Type
			env.Attributes = e.Clone().Attributes
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	env.Seq = h.seq
	for _, sub := range h.subs {
		select {
		case sub.ch <- env:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
