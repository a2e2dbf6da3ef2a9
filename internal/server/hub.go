package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tcgsim/battlesim/internal/game"
	"github.com/tcgsim/battlesim/internal/sim"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 256
	broadcastQueue = 1024
)

// WSMessage is the envelope of every message sent to observers.
type WSMessage struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type outbound struct {
	matchID string
	payload []byte
}

// client is one websocket observer. An empty matchID follows every match.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	matchID string
}

// Hub fans match snapshots out to websocket observers. Slow observers and a
// full queue drop messages instead of stalling the simulation.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan outbound
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	dropped    atomic.Int64
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan outbound, broadcastQueue),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run dispatches messages until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Debug("observer registered", zap.String("match_id", c.matchID))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Debug("observer unregistered", zap.String("match_id", c.matchID))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if c.matchID != "" && c.matchID != msg.matchID {
					continue
				}
				select {
				case c.send <- msg.payload:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many snapshots were dropped because the queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Publish queues a snapshot for every observer of its match.
func (h *Hub) Publish(snapshot game.MatchSnapshot) {
	msgType := "turn"
	if snapshot.Over {
		msgType = "match_over"
	}
	payload, err := json.Marshal(WSMessage{Type: msgType, MatchID: snapshot.MatchID, Data: snapshot})
	if err != nil {
		h.logger.Warn("failed to encode snapshot", zap.String("match_id", snapshot.MatchID), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{matchID: snapshot.MatchID, payload: payload}:
	default:
		h.dropped.Add(1)
	}
}

// Observer returns Publish as a harness observer.
func (h *Hub) Observer() sim.Observer {
	return h.Publish
}

// ServeHTTP upgrades the request to a websocket. The optional match_id
// query parameter limits the stream to one match.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, clientBuffer),
		matchID: r.URL.Query().Get("match_id"),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// readPump discards inbound messages and notices disconnects.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// StartWebSocketServer serves the hub on address under /ws until ctx is done.
func StartWebSocketServer(ctx context.Context, address string, hub *Hub, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting WebSocket server", zap.String("address", address))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
