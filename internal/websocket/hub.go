// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/metrics"
	"github.com/tomtom215/reelfeed/internal/models"
)

// ShutdownReason describes why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types.
const (
	MessageTypeRanking = "ranking"
	MessageTypeRefresh = "refresh"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is the envelope written to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Config tunes client connections.
type Config struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
	MaxClients   int
}

// DefaultConfig returns the standard client settings.
func DefaultConfig() Config {
	return Config{
		PingInterval: 54 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   16,
		MaxClients:   64,
	}
}

// Hub tracks clients and broadcasts to them.
type Hub struct {
	cfg        Config
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	snapshot   func() *models.Ranking
	logger     zerolog.Logger
	mu         sync.RWMutex
}

// NewHub creates a hub. Zero fields in cfg take their defaults.
func NewHub(cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	return &Hub{
		cfg:        cfg,
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		clients:    make(map[*Client]bool),
		logger:     logging.Component("websocket-hub"),
	}
}

// SetSnapshot sets the function that supplies the ranking sent to newly
// connected clients.
func (h *Hub) SetSnapshot(fn func() *models.Ranking) {
	h.mu.Lock()
	h.snapshot = fn
	h.mu.Unlock()
}

// Serve runs the hub until ctx ends.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Drain membership changes before broadcasts so a message never goes
		// to a client that already left.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.register:
			h.add(client)
			continue
		case client := <-h.unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	snapshot := h.snapshot
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(n))
	h.logger.Info().Int("total_clients", n).Msg("websocket client connected")

	if snapshot == nil {
		return
	}
	if r := snapshot(); r != nil {
		select {
		case client.send <- Message{Type: MessageTypeRanking, Data: r}:
		default:
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(n))
	h.logger.Info().Int("total_clients", n).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	n := h.ClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	h.logger.Info().
		Str("reason", string(reason)).
		Int("clients_closed", n).
		Msg("websocket hub stopped")
}

// broadcastToClients sends to clients in id order. Clients whose buffer is
// full are disconnected.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, dropped")
		}
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebSocketClients.Set(0)
}

// BroadcastRanking queues r for every client. It never blocks, so it can
// be used directly as a feed listener.
func (h *Hub) BroadcastRanking(r *models.Ranking) {
	if r == nil {
		return
	}
	h.BroadcastJSON(MessageTypeRanking, r)
}

// BroadcastJSON queues an arbitrary message, dropping it if the hub is
// backed up.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		h.logger.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Full reports whether the hub is at MaxClients.
func (h *Hub) Full() bool {
	return h.ClientCount() >= h.cfg.MaxClients
}

// MarshalMessage encodes msg as JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
