package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/pkg/logger"
)

// NotificationHandler receives the payload of one NOTIFY
type NotificationHandler func(ctx context.Context, payload string)

// Listen LISTENs on channel and calls handle for every notification until ctx
// is done. Dropped connections are re-established with exponential backoff;
// notifications sent while disconnected are lost.
func (db *PostgresDB) Listen(ctx context.Context, channel string, handle NotificationHandler) error {
	log := logger.Component("listener").With().Str("channel", channel).Logger()

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.MaxInterval = 30 * time.Second

	for {
		err := db.listenOnce(ctx, channel, handle, b, log)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := b.NextBackOff()
		log.Warn().Err(err).Dur("retryIn", wait).Msg("Listener disconnected")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (db *PostgresDB) listenOnce(ctx context.Context, channel string, handle NotificationHandler, b backoff.BackOff, log zerolog.Logger) error {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	defer func() {
		// a connection still listening must not go back to the pool
		_ = conn.Conn().Close(context.Background())
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	b.Reset()
	log.Info().Msg("Listening for notifications")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		handle(ctx, n.Payload)
	}
}
