package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/activity"
	"github.com/athome/driveops/internal/app/messaging"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024
)

// Client is one realtime connection. Deliveries come from its Router
// subscription; acknowledgements come from the peer.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	viewer  messaging.Viewer
	sub     *messaging.Subscription
	changes *activity.Subscription
	acks    ReadAcker

	// ctx carries the caller's identity for database calls made on behalf of the peer
	ctx context.Context

	mu     sync.Mutex
	send   chan []byte
	closed bool
	done   chan struct{}

	logger zerolog.Logger
}

func newClient(ctx context.Context, hub *Hub, viewer messaging.Viewer, acks ReadAcker, buffer int, logger zerolog.Logger) *Client {
	return &Client{
		hub:    hub,
		viewer: viewer,
		acks:   acks,
		ctx:    ctx,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger.With().Str("viewerID", viewer.ID.String()).Logger(),
	}
}

// deliver is the Router callback. It never blocks: a peer that cannot keep up
// loses the message and is disconnected so it can reload history.
func (c *Client) deliver(d messaging.Delivery) {
	msg := dto.ToMessageResponse(d.Message, c.viewer.ID)
	data, err := json.Marshal(Event{Type: EventMessage, Conversation: d.Conversation, Message: &msg})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal delivery")
		return
	}
	if !c.trySend(data) {
		c.logger.Warn().Str("messageID", d.Message.ID.String()).Msg("Send buffer full, dropping slow client")
		c.hub.remove(c)
		return
	}
	c.hub.metrics.Delivered(1)
}

// deliverChange is the activity Stream callback. Like deliver it never blocks.
func (c *Client) deliverChange(ch activity.Change) {
	data, err := json.Marshal(Event{Type: EventChange, Change: &ch})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal change")
		return
	}
	if !c.trySend(data) {
		c.logger.Warn().Str("table", ch.Table).Msg("Send buffer full, dropping slow client")
		c.hub.remove(c)
	}
}

// watchViewer reloads the caller's role and zone every interval so a changed
// profile re-targets the open subscriptions. A caller who lost access is sent
// an error event and disconnected.
func (c *Client) watchViewer(viewers ViewerResolver, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if !c.refreshViewer(viewers) {
				return
			}
		}
	}
}

// refreshViewer reports whether the client is still connected afterwards
func (c *Client) refreshViewer(viewers ViewerResolver) bool {
	ctx, cancel := context.WithTimeout(c.ctx, ackTimeout)
	defer cancel()

	v, err := viewers.Viewer(ctx, c.viewer.ID)
	switch {
	case err == nil:
		if c.sub != nil {
			c.sub.SetViewer(v)
		}
		if c.changes != nil {
			c.changes.SetViewer(v)
		}
		return true
	case apperrors.Is(err, apperrors.ErrAccountPending, apperrors.ErrAccountDisabled,
		apperrors.ErrProfileNotFound, apperrors.ErrAuthorization):
		c.logger.Info().Err(err).Msg("Viewer lost access, closing connection")
		if data, err := json.Marshal(Event{Type: EventError, Error: "access revoked"}); err == nil {
			c.trySend(data)
		}
		c.hub.remove(c)
		return false
	default:
		c.logger.Warn().Err(err).Msg("Failed to refresh viewer, keeping previous identity")
		return true
	}
}

// trySend queues data without blocking and reports whether it was queued
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// shutdown stops further sends and lets writePump drain and close the connection
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	close(c.done)
}

// readPump reads acknowledgements from the peer until the connection fails
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			// Don't log normal close conditions as warnings
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info().Msg("WebSocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().Err(err).Msg("WebSocket read error")
			}
			break
		}

		if reply := c.handleCommand(message); reply != nil {
			if data, err := json.Marshal(reply); err == nil {
				c.trySend(data)
			}
		}
	}
}

// writePump pumps queued events to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame so peers can parse each frame as JSON
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
