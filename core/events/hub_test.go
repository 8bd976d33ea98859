package events

import (
	"testing"

	"auctionhouse/core/types"
)

type ledgerEvent struct{ evt *types.Event }

func (e ledgerEvent) EventType() string   { return e.evt.Type }
func (e ledgerEvent) Event() *types.Event { return e.evt }

func TestHubFansOut(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe(4)
	b, cancelB := hub.Subscribe(4)
	defer cancelB()

	hub.Emit(ledgerEvent{&types.Event{Type: "auctionhouse.sell", Attributes: map[string]string{"price": "5"}}})
	for _, sub := range []*Subscription{a, b} {
		env := <-sub.C
		if env.Seq != 1 || env.Type != "auctionhouse.sell" || env.Attributes["price"] != "5" {
			t.Fatalf("unexpected envelope %+v", env)
		}
	}

	cancelA()
	cancelA()
	if _, ok := <-a.C; ok {
		t.Fatalf("cancelled subscription still open")
	}
	hub.Emit(Transfer{Amount: 1})
	if env := <-b.C; env.Seq != 2 || env.Type != TypeTransfer {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub()
	sub, cancel := hub.Subscribe(1)
	defer cancel()
	hub.Emit(Transfer{Amount: 1})
	hub.Emit(Transfer{Amount: 2})
	if sub.Dropped() != 1 {
		t.Fatalf("expected one drop, got %d", sub.Dropped())
	}
	if env := <-sub.C; env.Seq != 1 {
		t.Fatalf("expected first envelope, got %+v", env)
	}
}
