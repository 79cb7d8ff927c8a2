package repositories

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/activity"
)

// ActivityFeed turns change notifications on the operational tables into
// activity.Change values. Payloads carry keys only, so nothing is loaded.
type ActivityFeed struct {
	listener Listener
	channel  string
	logger   zerolog.Logger
}

// NewActivityFeed creates an ActivityFeed
func NewActivityFeed(listener Listener, channel string, logger zerolog.Logger) *ActivityFeed {
	return &ActivityFeed{listener: listener, channel: channel, logger: logger}
}

// Run streams changes into out until ctx is done. out is closed on return.
func (f *ActivityFeed) Run(ctx context.Context, out chan<- activity.Change) error {
	defer close(out)
	err := f.listener.Listen(ctx, f.channel, func(ctx context.Context, payload string) {
		c, err := activity.ParseChange(payload)
		if err != nil {
			f.logger.Warn().Err(err).Str("payload", payload).Msg("Ignoring malformed activity notification")
			return
		}
		select {
		case out <- c:
		case <-ctx.Done():
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
