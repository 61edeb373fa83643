package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 20 * time.Second
	wsWriteWait  = 5 * time.Second
)

// wsMessage is the frame written to WebSocket clients. Clients may send
// {"type":"ping"} and receive {"type":"pong"}.
type wsMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// EventsWSHandler streams the same events as EventsStreamHandler over a
// WebSocket.
func (s *Server) EventsWSHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("session", sid).Msg("websocket upgrade")
		return
	}
	defer func() { _ = conn.Close() }()

	// gorilla allows one concurrent writer
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}
	ping := func() error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
	}

	ch := s.Broker.Subscribe(sid)
	defer s.Broker.Unsubscribe(sid, ch)
	if err := write(wsMessage{Type: "connection_ack", Data: map[string]any{"sessionId": sid}}); err != nil {
		return
	}

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsPongWait)) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == "ping" {
				_ = write(wsMessage{Type: "pong"})
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			if err := write(wsMessage{Type: evt.Type, Data: evt.Data}); err != nil {
				return
			}
		case <-ticker.C:
			if err := ping(); err != nil {
				return
			}
		}
	}
}
