package websocket

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/pkg/metrics"
)

// Hub keeps track of the open connections. Fan-out itself is done by the
// messaging Router; the hub owns connection lifetime.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(m *metrics.Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		metrics: m,
		logger:  logger,
	}
}

// add registers a client. It reports false once the hub is closed.
func (h *Hub) add(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client] = struct{}{}
	h.metrics.SubscriberOpened()

	h.logger.Info().
		Str("viewerID", client.viewer.ID.String()).
		Int("clientCount", len(h.clients)).
		Msg("Client registered")
	return true
}

// remove unregisters a client and ends its subscription. Safe to call more than once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	remaining := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	if client.sub != nil {
		client.sub.Close()
	}
	if client.changes != nil {
		client.changes.Close()
	}
	client.shutdown()
	h.metrics.SubscriberClosed()

	h.logger.Info().
		Str("viewerID", client.viewer.ID.String()).
		Int("clientCount", remaining).
		Msg("Client unregistered")
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
	h.logger.Info().Int("clientCount", len(clients)).Msg("Realtime hub closed")
}
