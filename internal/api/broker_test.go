package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	sid := "s1"
	ch := b.Subscribe(sid)

	evt := SSEEvent{Type: "optimization.started", Data: map[string]any{"x": 1}}
	b.Publish(sid, evt)
	b.Publish("other", SSEEvent{Type: "ignored"})

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["x"].(int) != 1 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	select {
	case got := <-ch:
		t.Fatalf("unexpected event from another session: %+v", got)
	default:
	}

	b.Unsubscribe(sid, ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	if n := b.Subscribers(sid); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
	// second unsubscribe must not panic on a closed channel
	b.Unsubscribe(sid, ch)
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("s")
	defer b.Unsubscribe("s", ch)
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(ch)+10; i++ {
			b.Publish("s", SSEEvent{Type: "optimization.progress"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered = %d, want %d", len(ch), cap(ch))
	}
}

func TestSessionLimiter(t *testing.T) {
	l := NewSessionLimiter(0.001, 2)
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("sessions must not share a bucket")
	}
}
