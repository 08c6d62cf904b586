// Package realtime fans evaluation snapshots out to websocket
// subscribers. The feed is one-way: inbound frames are drained for
// keepalive only.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/pesowatch/pkg/logger"
)

// Message is the wire envelope for every frame the hub sends.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	// TypeConnected greets a client right after the upgrade.
	TypeConnected = "connected"
	// TypeSnapshot carries one monitor evaluation snapshot.
	TypeSnapshot = "snapshot"
)

// Hub tracks subscribers and broadcasts marshaled frames. All client
// set mutation happens on the Run goroutine; the public methods only
// feed its channels.
type Hub struct {
	logger *logger.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]struct{}
	done       chan struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a hub. Call Run before accepting connections.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:     log.WithField("module", "realtime"),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The feed carries public reference-rate data; any
			// origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				c.close()
			}
			h.clients = make(map[*client]struct{})
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.WithField("clients", len(h.clients)).Debug("Websocket client connected")
			c.enqueue(mustMarshal(Message{
				Type:      TypeConnected,
				Timestamp: time.Now().UTC(),
			}))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
			}
			h.logger.WithField("clients", len(h.clients)).Debug("Websocket client disconnected")

		case frame := <-h.broadcast:
			for c := range h.clients {
				if !c.enqueue(frame) {
					delete(h.clients, c)
					c.close()
				}
			}
		}
	}
}

// BroadcastJSON wraps v in a snapshot envelope and queues it for all
// subscribers. Slow consumers are dropped, never waited on.
func (h *Hub) BroadcastJSON(v interface{}) {
	frame, err := json.Marshal(Message{
		Type:      TypeSnapshot,
		Data:      v,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal broadcast frame")
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("Broadcast queue full, dropping frame")
	}
}

// Handler upgrades the request and hands the connection to the hub.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.WithError(err).Warn("Websocket upgrade failed")
			return
		}

		c := newClient(h, conn)
		select {
		case h.register <- c:
		case <-h.done:
			conn.Close()
			return
		}
		go c.writePump()
		go c.readPump()
	}
}

func mustMarshal(msg Message) []byte {
	frame, err := json.Marshal(msg)
	if err != nil {
		// The envelope has no unmarshalable fields.
		panic(err)
	}
	return frame
}
