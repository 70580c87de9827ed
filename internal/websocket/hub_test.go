// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package websocket

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func setupHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	hub := NewHub(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	})
	return hub
}

func createTestClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHubDefaults(t *testing.T) {
	hub := NewHub(Config{})
	def := DefaultConfig()
	if hub.cfg != def {
		t.Errorf("cfg = %+v, want %+v", hub.cfg, def)
	}
	if hub.ClientCount() != 0 || hub.Full() {
		t.Error("new hub should be empty")
	}
}

func TestBroadcastRanking(t *testing.T) {
	hub := setupHub(t, Config{})
	a, b := createTestClient(hub, 4), createTestClient(hub, 4)
	hub.register <- a
	hub.register <- b
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	r := &models.Ranking{Version: 3, Items: []models.CatalogItem{{ID: "x"}}}
	hub.BroadcastRanking(r)
	hub.BroadcastRanking(nil)

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if msg.Type != MessageTypeRanking || msg.Data.(*models.Ranking).Version != 3 {
				t.Errorf("client %d got %+v", c.id, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %d got nothing", c.id)
		}
	}
}

func TestSnapshotOnRegister(t *testing.T) {
	hub := setupHub(t, Config{})
	hub.SetSnapshot(func() *models.Ranking { return &models.Ranking{Version: 9} })

	c := createTestClient(hub, 4)
	hub.register <- c
	select {
	case msg := <-c.send:
		if msg.Data.(*models.Ranking).Version != 9 {
			t.Errorf("snapshot = %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot sent")
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := setupHub(t, Config{})
	slow := createTestClient(hub, 1)
	hub.register <- slow
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastJSON(MessageTypeRefresh, "one")
	hub.BroadcastJSON(MessageTypeRefresh, "two")

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Error("dropped client's channel should be closed")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := setupHub(t, Config{})
	c := createTestClient(hub, 1)
	hub.register <- c
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.unregister <- c
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
}

func TestFull(t *testing.T) {
	hub := setupHub(t, Config{MaxClients: 1})
	hub.register <- createTestClient(hub, 1)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	if !hub.Full() {
		t.Error("hub should be full")
	}
}

func TestShutdownClosesClients(t *testing.T) {
	hub := NewHub(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()

	c := createTestClient(hub, 1)
	hub.register <- c
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	<-done
	if _, ok := <-c.send; ok {
		t.Error("client channel should be closed on shutdown")
	}
}

func TestClientRoundTrip(t *testing.T) {
	hub := setupHub(t, Config{PingInterval: time.Second})
	hub.SetSnapshot(func() *models.Ranking { return &models.Ranking{Version: 1} })

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn).Start()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.Type != MessageTypeRanking {
		t.Errorf("first message type = %s", first.Type)
	}

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong.Type != MessageTypePong {
		t.Errorf("reply type = %s, want pong", pong.Type)
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypeRefresh, Data: map[string]bool{"ok": true}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"refresh","data":{"ok":true}}` {
		t.Errorf("got %s", data)
	}
}
