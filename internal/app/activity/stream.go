package activity

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/messaging"
)

// Stream fans changes out to subscribers, checking CanSee per subscriber
type Stream struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	logger zerolog.Logger
}

// Subscription is a live registration on a Stream. It must be closed by its owner.
type Subscription struct {
	id     uint64
	viewer atomic.Pointer[messaging.Viewer]
	fn     func(Change)
	stream *Stream
	closed atomic.Bool
}

// NewStream creates a Stream
func NewStream(logger zerolog.Logger) *Stream {
	return &Stream{
		subs:   make(map[uint64]*Subscription),
		logger: logger,
	}
}

// Subscribe registers fn for every future change viewer should hear about
func (s *Stream) Subscribe(viewer messaging.Viewer, fn func(Change)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sub := &Subscription{id: s.nextID, fn: fn, stream: s}
	sub.viewer.Store(&viewer)
	s.subs[sub.id] = sub
	return sub
}

// Close removes the subscription. Safe to call more than once.
func (sub *Subscription) Close() {
	if !sub.closed.CompareAndSwap(false, true) {
		return
	}
	s := sub.stream
	s.mu.Lock()
	delete(s.subs, sub.id)
	s.mu.Unlock()
}

// Viewer returns the identity the subscription filters for
func (sub *Subscription) Viewer() messaging.Viewer {
	return *sub.viewer.Load()
}

// SetViewer replaces the identity used for later changes. The id must stay the same.
func (sub *Subscription) SetViewer(v messaging.Viewer) {
	if v.ID != sub.Viewer().ID {
		return
	}
	sub.viewer.Store(&v)
}

// Count returns the number of open subscriptions
func (s *Stream) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Dispatch hands c to every subscriber allowed to see it and returns how many
// callbacks ran
func (s *Stream) Dispatch(c Change) int {
	s.mu.RLock()
	targets := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		targets = append(targets, sub)
	}
	s.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if sub.closed.Load() || !CanSee(sub.Viewer(), c) {
			continue
		}
		sub.fn(c)
		delivered++
	}
	return delivered
}

// Run dispatches changes from feed until ctx is done or the feed is closed
func (s *Stream) Run(ctx context.Context, feed <-chan Change) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-feed:
			if !ok {
				s.logger.Info().Msg("Activity feed closed, stream stopping")
				return nil
			}
			n := s.Dispatch(c)
			s.logger.Debug().
				Str("table", c.Table).
				Str("op", c.Op).
				Str("rowID", c.ID).
				Int("delivered", n).
				Msg("Change routed")
		}
	}
}
