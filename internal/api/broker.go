package api

import (
	"sync"
)

// SSEEvent is one optimization event fanned out to session subscribers.
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// EventBroker fans session events out to SSE and WebSocket subscribers.
type EventBroker interface {
	Subscribe(sessionID string) chan SSEEvent
	Unsubscribe(sessionID string, ch chan SSEEvent)
	Publish(sessionID string, evt SSEEvent)
}

// Broker is the in-process EventBroker. Slow subscribers drop events
// rather than block the optimizer.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SSEEvent]struct{} // sessionId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SSEEvent]struct{}{}}
}

func (b *Broker) Subscribe(sessionID string) chan SSEEvent {
	ch := make(chan SSEEvent, 32)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = map[chan SSEEvent]struct{}{}
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[sessionID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, sessionID)
	}
	close(ch)
}

func (b *Broker) Publish(sessionID string, evt SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribers reports the number of open subscriptions for a session.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}
