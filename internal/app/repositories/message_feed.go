package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/db"
)

// Listener delivers NOTIFY payloads. *db.PostgresDB satisfies it.
type Listener interface {
	Listen(ctx context.Context, channel string, handle db.NotificationHandler) error
}

type messageLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
}

// MessageFeed turns insert notifications on the messages table into full rows.
// The insert trigger publishes only the new id; the row is loaded with the
// service's own privileges since visibility is decided per subscriber later.
type MessageFeed struct {
	listener Listener
	loader   messageLoader
	channel  string
	logger   zerolog.Logger
}

// NewMessageFeed creates a MessageFeed
func NewMessageFeed(listener Listener, loader messageLoader, channel string, logger zerolog.Logger) *MessageFeed {
	return &MessageFeed{listener: listener, loader: loader, channel: channel, logger: logger}
}

// Run streams inserted messages into out until ctx is done. out is closed on return.
func (f *MessageFeed) Run(ctx context.Context, out chan<- *models.Message) error {
	defer close(out)
	err := f.listener.Listen(ctx, f.channel, func(ctx context.Context, payload string) {
		m := f.load(ctx, payload)
		if m == nil {
			return
		}
		select {
		case out <- m:
		case <-ctx.Done():
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (f *MessageFeed) load(ctx context.Context, payload string) *models.Message {
	id, err := uuid.Parse(strings.TrimSpace(payload))
	if err != nil {
		f.logger.Warn().Str("payload", payload).Msg("Ignoring malformed message notification")
		return nil
	}

	m, err := f.loader.GetByID(ctx, id)
	if err != nil {
		f.logger.Error().Err(err).Str("messageID", id.String()).Msg("Failed to load notified message")
		return nil
	}
	return m
}
