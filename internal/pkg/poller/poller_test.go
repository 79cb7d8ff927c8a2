package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleep struct {
	waits []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func TestRunStopsWhenDone(t *testing.T) {
	rec := &recordedSleep{}
	p := New(Config{Interval: time.Second, MaxInterval: 10 * time.Second, MaxAttempts: 10, Sleep: rec.sleep})

	calls := 0
	err := p.Run(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return attempt == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, rec.waits)
}

func TestRunBacksOffUpToMax(t *testing.T) {
	rec := &recordedSleep{}
	p := New(Config{Interval: time.Second, MaxInterval: 2 * time.Second, MaxAttempts: 5, Sleep: rec.sleep})

	err := p.Run(context.Background(), func(context.Context, int) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, ErrExhausted)
	require.Len(t, rec.waits, 4)
	for _, w := range rec.waits {
		assert.LessOrEqual(t, w, 2*time.Second)
	}
	assert.Equal(t, 2*time.Second, rec.waits[3])
}

func TestRunExhaustedCarriesLastError(t *testing.T) {
	boom := errors.New("fetch failed")
	p := New(Config{Interval: time.Millisecond, MaxAttempts: 2, Sleep: (&recordedSleep{}).sleep})

	err := p.Run(context.Background(), func(context.Context, int) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, boom)
}

func TestRunPermanentError(t *testing.T) {
	denied := errors.New("denied")
	p := New(Config{Interval: time.Millisecond, MaxAttempts: 5, Sleep: (&recordedSleep{}).sleep})

	calls := 0
	err := p.Run(context.Background(), func(context.Context, int) (bool, error) {
		calls++
		return false, Permanent(denied)
	})
	assert.Equal(t, denied, err)
	assert.Equal(t, 1, calls)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(Config{Interval: time.Hour, MaxAttempts: 5})

	calls := 0
	err := p.Run(ctx, func(context.Context, int) (bool, error) {
		calls++
		cancel()
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
