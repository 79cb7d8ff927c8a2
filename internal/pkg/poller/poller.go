// Package poller runs a check repeatedly with exponential backoff until it
// reports completion, the attempt budget runs out or the context is cancelled.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// ErrExhausted is returned when every attempt ran without the check completing
var ErrExhausted = errors.New("poller: attempts exhausted")

// Check is one attempt. done stops the poller; a non-nil err is recorded and
// the next attempt is scheduled unless the error is permanent.
type Check func(ctx context.Context, attempt int) (done bool, err error)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config tunes a Poller
type Config struct {
	Interval    time.Duration
	MaxInterval time.Duration
	MaxAttempts int
	// Sleep is replaced in tests; defaults to a timer wait
	Sleep SleepFunc
}

// Poller is a cancellable repeating task
type Poller struct {
	cfg Config
}

// New creates a Poller
func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxInterval < cfg.Interval {
		cfg.MaxInterval = cfg.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	return &Poller{cfg: cfg}
}

// permanentError stops the poller immediately
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return &permanentError{err: err}
}

// Run calls check until it is done. It returns nil on completion, the
// unwrapped error for permanent failures, ctx.Err() on cancellation and
// ErrExhausted joined with the last error otherwise.
func (p *Poller) Run(ctx context.Context, check Check) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.Interval
	b.MaxInterval = p.cfg.MaxInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	var last error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := check(ctx, attempt)
		if done {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err

		if attempt == p.cfg.MaxAttempts {
			break
		}
		if err := p.cfg.Sleep(ctx, b.NextBackOff()); err != nil {
			return err
		}
	}

	if last != nil {
		return errors.Join(ErrExhausted, last)
	}
	return ErrExhausted
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
