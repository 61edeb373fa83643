package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so several API
// replicas can serve the same session's event streams.
type RedisBroker struct {
	rdb *redis.Client

	mu  sync.Mutex
	pss map[chan SSEEvent]*redis.PubSub
}

// NewRedisBroker connects to url and verifies the connection with a PING.
func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisBroker{rdb: rdb, pss: map[chan SSEEvent]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(sessionID string) chan SSEEvent {
	ch := make(chan SSEEvent, 32)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(sessionID))
	// initial consume to ensure subscription
	if _, err := ps.Receive(ctx); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("redis subscribe")
	}
	b.mu.Lock()
	b.pss[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt SSEEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the PubSub; the forwarding goroutine then closes ch.
func (b *RedisBroker) Unsubscribe(sessionID string, ch chan SSEEvent) {
	b.mu.Lock()
	ps, ok := b.pss[ch]
	delete(b.pss, ch)
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(sessionID string, evt SSEEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, b.chanName(sessionID), data).Err(); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Str("type", evt.Type).Msg("redis publish")
	}
}

func (b *RedisBroker) Close() error { return b.rdb.Close() }

func (b *RedisBroker) chanName(sessionID string) string { return "session:" + sessionID + ":events" }
