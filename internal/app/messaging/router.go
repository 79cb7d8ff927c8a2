package messaging

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/models"
)

// Delivery is one message handed to a subscriber, tagged with the conversation
// it belongs to from the subscriber's point of view.
type Delivery struct {
	Message      *models.Message `json:"message"`
	Conversation string          `json:"conversation"`
}

// Router fans a raw insert stream out to subscribers, re-checking visibility for
// every subscriber instead of trusting the transport to have filtered rows.
type Router struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	logger zerolog.Logger
}

// Subscription is a live registration on a Router. It must be closed by its owner.
type Subscription struct {
	id     uint64
	viewer atomic.Pointer[Viewer]
	fn     func(Delivery)
	router *Router
	closed atomic.Bool
}

// NewRouter creates a Router
func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		subs:   make(map[uint64]*Subscription),
		logger: logger,
	}
}

// Subscribe registers fn for every future message viewer may see. There is no
// replay: history must be fetched separately.
func (r *Router) Subscribe(viewer Viewer, fn func(Delivery)) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub := &Subscription{id: r.nextID, fn: fn, router: r}
	sub.viewer.Store(&viewer)
	r.subs[sub.id] = sub

	r.logger.Debug().
		Str("viewerID", viewer.ID.String()).
		Int("subscribers", len(r.subs)).
		Msg("Realtime subscription opened")
	return sub
}

// Close removes the subscription. It is safe to call more than once and from
// inside the subscription's own callback.
func (s *Subscription) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	r := s.router
	r.mu.Lock()
	delete(r.subs, s.id)
	remaining := len(r.subs)
	r.mu.Unlock()

	r.logger.Debug().
		Str("viewerID", s.Viewer().ID.String()).
		Int("subscribers", remaining).
		Msg("Realtime subscription closed")
}

// Viewer returns the identity the subscription filters for
func (s *Subscription) Viewer() Viewer {
	return *s.viewer.Load()
}

// SetViewer replaces the identity used for later deliveries, after the
// subscriber's role or zone changed. The id must stay the same.
func (s *Subscription) SetViewer(v Viewer) {
	if v.ID != s.Viewer().ID {
		return
	}
	s.viewer.Store(&v)
}

// Count returns the number of open subscriptions
func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Dispatch delivers m to every subscriber entitled to see it and returns how many
// callbacks ran. Malformed rows are dropped.
func (r *Router) Dispatch(m *models.Message) int {
	if err := Validate(m); err != nil {
		r.logger.Warn().Err(err).Msg("Dropping malformed message from feed")
		return 0
	}

	r.mu.RLock()
	targets := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		targets = append(targets, s)
	}
	r.mu.RUnlock()

	conversation := ConversationKey(m)
	delivered := 0
	for _, s := range targets {
		if s.closed.Load() || !CanView(s.Viewer(), m) {
			continue
		}
		s.fn(Delivery{Message: m, Conversation: conversation})
		delivered++
	}
	return delivered
}

// Run dispatches messages from feed in arrival order until ctx is done or the
// feed is closed.
func (r *Router) Run(ctx context.Context, feed <-chan *models.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-feed:
			if !ok {
				r.logger.Info().Msg("Message feed closed, router stopping")
				return nil
			}
			if m == nil {
				continue
			}
			n := r.Dispatch(m)
			r.logger.Debug().
				Str("messageID", m.ID.String()).
				Str("scope", string(m.Scope)).
				Int("delivered", n).
				Msg("Message routed")
		}
	}
}
