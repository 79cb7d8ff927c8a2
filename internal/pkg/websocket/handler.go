package websocket

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/activity"
	"github.com/athome/driveops/internal/app/messaging"
	"github.com/athome/driveops/internal/middleware"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/auth"
)

// ViewerResolver loads the identity used for visibility decisions
type ViewerResolver interface {
	Viewer(ctx context.Context, userID uuid.UUID) (messaging.Viewer, error)
}

// Handler for WebSocket connections
type Handler struct {
	hub      *Hub
	router   *messaging.Router
	changes  *activity.Stream
	viewers  ViewerResolver
	acks     ReadAcker
	buffer   int
	refresh  time.Duration
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// defaultViewerRefresh is how often an open connection reloads its viewer
const defaultViewerRefresh = time.Minute

// NewHandler creates a new WebSocket handler. An empty origins list, or one
// containing "*", accepts any origin. changes may be nil, in which case only
// messages are streamed.
func NewHandler(
	hub *Hub,
	router *messaging.Router,
	changes *activity.Stream,
	viewers ViewerResolver,
	acks ReadAcker,
	buffer int,
	origins []string,
	logger zerolog.Logger,
) *Handler {
	if buffer <= 0 {
		buffer = 64
	}
	return &Handler{
		hub:     hub,
		router:  router,
		changes: changes,
		viewers: viewers,
		acks:    acks,
		buffer:  buffer,
		refresh: defaultViewerRefresh,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger,
	}
}

// WithViewerRefresh sets how often open connections reload their viewer
func (h *Handler) WithViewerRefresh(d time.Duration) *Handler {
	if d > 0 {
		h.refresh = d
	}
	return h
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// HandleConnection upgrades to a WebSocket that streams every new message the
// caller may see, plus change events for the operational tables. History is
// not replayed; clients load threads over HTTP.
func (h *Handler) HandleConnection(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		middleware.HandleAPIError(c, apperrors.ErrUnauthorized)
		return
	}

	viewer, err := h.viewers.Viewer(c.Request.Context(), identity.UserID)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	// The request context ends when this handler returns; keep its values only
	ctx := context.WithoutCancel(c.Request.Context())
	client := newClient(ctx, h.hub, viewer, h.acks, h.buffer, h.logger)

	// Subscribe before the handshake completes so nothing published after the
	// peer sees 101 is missed
	client.sub = h.router.Subscribe(viewer, client.deliver)
	if h.changes != nil {
		client.changes = h.changes.Subscribe(viewer, client.deliverChange)
	}
	if !h.hub.add(client) {
		client.sub.Close()
		if client.changes != nil {
			client.changes.Close()
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is shutting down"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).
			Str("viewerID", viewer.ID.String()).
			Msg("Failed to upgrade connection to WebSocket")
		h.hub.remove(client)
		return
	}
	client.conn = conn

	go client.writePump()
	go client.readPump()
	go client.watchViewer(h.viewers, h.refresh)

	h.logger.Info().
		Str("viewerID", viewer.ID.String()).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
