package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// MaxWSConnectionsTotal is the maximum number of feed connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum feed connections per IP
	MaxWSConnectionsPerIP = 10

	// feedInterval is how often the hub pushes live snapshots. 10 Hz is
	// plenty for spectating; the engine still ticks at full rate.
	feedInterval = 100 * time.Millisecond
)

// wsClient tracks a feed connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// FeedHub manages the live-feed WebSocket connections with DoS protection.
// The feed is one-way: snapshots go out, nothing a client sends changes
// simulation state.
type FeedHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	log        zerolog.Logger

	upgrader websocket.Upgrader

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter
	maxTotal  int
}

// NewFeedHub creates a new hub with connection limiting. extraOrigins adds
// to the localhost origins accepted for browser connections.
func NewFeedHub(maxClients int, extraOrigins []string, log zerolog.Logger) *FeedHub {
	if maxClients <= 0 {
		maxClients = MaxWSConnectionsTotal
	}
	h := &FeedHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		maxTotal:   maxClients,
		log:        log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if IsAllowedOrigin(origin, extraOrigins) {
				return true
			}
			log.Warn().Str("origin", origin).Msg("feed connection rejected by origin check")
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run starts the hub loop. Call it once, on its own goroutine.
func (h *FeedHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			h.log.Debug().Str("ip", client.ip).Int("total", count).Msg("feed client connected")
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				// Release the connection slot for this IP
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.log.Debug().Int("remaining", count).Msg("feed client disconnected")
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.RLock()
			var dead []*websocket.Conn
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					dead = append(dead, conn)
				}
			}
			h.mu.RUnlock()

			for _, conn := range dead {
				h.mu.Lock()
				if client, ok := h.clients[conn]; ok {
					h.wsLimiter.Release(client.ip)
					delete(h.clients, conn)
					conn.Close()
				}
				h.mu.Unlock()
			}
			IncrementWSMessages()
		}
	}
}

// Broadcast sends an event envelope to all connected clients.
func (h *FeedHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients.
func (h *FeedHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes live snapshots to all clients periodically.
// Snapshots come from the published triple buffer, so the loop never
// touches engine state.
func (h *FeedHub) StartBroadcastLoop(live LiveInterface) {
	ticker := time.NewTicker(feedInterval)

	go func() {
		var lastSeq uint64
		for range ticker.C {
			if h.ClientCount() == 0 {
				continue
			}

			snap := live.LatestSnapshot()
			if snap == nil || snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence

			h.Broadcast("match:snapshot", snap)
		}
	}()
}

// HandleWebSocket handles incoming feed connections with DoS protection.
func (h *FeedHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get client IP for rate limiting
	ip := GetClientIP(r)

	// Check total connection limit
	h.mu.RLock()
	totalConnections := len(h.clients)
	h.mu.RUnlock()

	if totalConnections >= h.maxTotal {
		h.log.Warn().Int("total", totalConnections).Msg("feed connection rejected: total limit")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.wsLimiter.Allow(ip) {
		h.log.Warn().Str("ip", ip).Msg("feed connection rejected: per-IP limit")
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	// Upgrade to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}

	// Register the connection
	client := &wsClient{conn: conn, ip: ip}
	h.register <- client

	// Drain the read side so pings and closes are processed. The feed is
	// one-way; client payloads are discarded.
	go func() {
		defer func() {
			h.unregister <- conn
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
