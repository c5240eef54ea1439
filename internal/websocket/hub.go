package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/contentguard/backend/internal/cache"
	"github.com/contentguard/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub maintains the set of active clients and broadcasts decision events to them
type Hub struct {
	// Registered clients
	clients map[uuid.UUID]*Client

	// Outbound events for every client
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Redis client for pub/sub, nil when events are local only
	redis *cache.RedisClient

	logger *zap.Logger

	// done is closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub. redis may be nil.
func NewHub(redis *cache.RedisClient, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      redis,
		logger:     logger.With(zap.String("component", "ws_hub")),
		done:       make(chan struct{}),
	}
}

// Run starts the hub and stops when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.redis != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("client_id", client.id.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				h.drop(client)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("client_id", client.id.String()))

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// fanOut delivers message to every client, dropping clients that fell behind
func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		select {
		case client.send <- message:
		default:
			h.drop(client)
		}
	}
}

// drop removes client and closes its send channel. Callers hold h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client.id)
	client.closed = true
	close(client.send)
}

// enqueue hands message to one client unless the hub already dropped it
func (h *Hub) enqueue(client *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client.closed {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Register attaches client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister detaches client; a no-op once the hub has stopped
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// subscribeToRedis forwards decision events from every server instance
func (h *Hub) subscribeToRedis(ctx context.Context) {
	ps := h.redis.SubscribeToDecisions(ctx)
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast([]byte(msg.Payload))
		}
	}
}

// Broadcast queues raw event bytes for all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, dropping event")
	}
}

// DecisionLogged broadcasts a decision to local clients. It is used as the
// pipeline notifier when Redis is not configured.
func (h *Hub) DecisionLogged(ctx context.Context, d models.ModerationDecision) error {
	return h.publish(models.WSMessage{Event: models.EventDecisionNew, Payload: d})
}

// LogsCleared broadcasts a log reset to local clients
func (h *Hub) LogsCleared(ctx context.Context) error {
	return h.publish(models.WSMessage{Event: models.EventLogsCleared, Payload: map[string]any{"cleared_at": time.Now().UTC()}})
}

func (h *Hub) publish(msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
