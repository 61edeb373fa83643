// Package main runs a demo WebSocket client for optimization events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	sid := "demo-" + uuid.NewString()[:8]
	session := base + "/v1/sessions/" + sid

	// Seed a small configuration
	mustDo(http.MethodPut, session+"/factory", map[string]any{"name": "Demo Plant", "lat": 12.9716, "lng": 77.5946})
	mustDo(http.MethodPost, session+"/vehicles/bulk", map[string]any{"vehicles": []map[string]any{
		{"name": "Bus 1", "type": "Self-owned", "capacity": 20, "costPerKm": 12},
		{"name": "Van 1", "type": "Rented", "capacity": 8, "costPerKm": 9},
	}})
	mustDo(http.MethodPost, session+"/pickup-spots/bulk", map[string]any{"pickupSpots": []map[string]any{
		{"name": "North Gate", "lat": 13.02, "lng": 77.59, "workerCount": 6},
		{"name": "East Colony", "lat": 12.97, "lng": 77.65, "workerCount": 5},
		{"name": "South Depot", "lat": 12.92, "lng": 77.60, "workerCount": 7},
	}})

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/sessions/" + sid + "/events/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil {
		log.Fatalf("ack: %v", err)
	}
	log.Printf("subscribed to session %s", sid)

	go mustDo(http.MethodPost, session+"/optimize", map[string]any{"seed": 42})

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Fatalf("read: %v", err)
		}
		b, _ := json.Marshal(msg.Data)
		log.Printf("%s %s", msg.Type, b)
		if msg.Type == "optimization.completed" || msg.Type == "optimization.failed" {
			return
		}
	}
}

func mustDo(method, target string, body any) {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		log.Fatalf("%s %s: %s", method, target, resp.Status)
	}
}
