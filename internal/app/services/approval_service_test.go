package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/metrics"
	"github.com/athome/driveops/internal/pkg/poller"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newApprovalService(store *fakeProfiles, attempts int) ApprovalService {
	cfg := poller.Config{Interval: time.Second, MaxInterval: 4 * time.Second, MaxAttempts: attempts, Sleep: noSleep}
	return NewApprovalService(store, cfg, metrics.New(), zerolog.Nop())
}

func profileWith(status models.Status) func() (*models.Profile, error) {
	return func() (*models.Profile, error) {
		return &models.Profile{ID: pendingID, Role: models.RoleClient, Status: status}, nil
	}
}

func failing(err error) func() (*models.Profile, error) {
	return func() (*models.Profile, error) { return nil, err }
}

func TestWaitUntilApproved(t *testing.T) {
	store := newFakeProfiles()
	store.script = []func() (*models.Profile, error){
		failing(apperrors.ErrProfileNotFound),
		failing(apperrors.ErrTransient),
		profileWith(models.StatusPending),
		profileWith(models.StatusApproved),
	}

	resp, err := newApprovalService(store, 10).Wait(context.Background(), pendingID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, resp.Outcome)
	assert.Equal(t, "/client.html", resp.Route)
	assert.Equal(t, 4, resp.Attempts)
}

func TestWaitStopsOnDecline(t *testing.T) {
	store := newFakeProfiles()
	store.script = []func() (*models.Profile, error){profileWith(models.StatusDeclined)}

	resp, err := newApprovalService(store, 10).Wait(context.Background(), pendingID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeclined, resp.Outcome)
	assert.Equal(t, "/pending.html", resp.Route)
	assert.Equal(t, 1, store.calls)
}

func TestWaitSuspendedHasNoRoute(t *testing.T) {
	store := newFakeProfiles()
	store.script = []func() (*models.Profile, error){profileWith(models.StatusSuspended)}

	resp, err := newApprovalService(store, 10).Wait(context.Background(), pendingID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuspended, resp.Outcome)
	assert.Empty(t, resp.Route)
}

func TestWaitExhausted(t *testing.T) {
	store := newFakeProfiles()

	resp, err := newApprovalService(store, 3).Wait(context.Background(), pendingID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, resp.Outcome)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, "pending", resp.Status)
}

func TestWaitAuthorizationIsFinal(t *testing.T) {
	store := newFakeProfiles()
	store.script = []func() (*models.Profile, error){failing(apperrors.ErrAuthorization)}

	_, err := newApprovalService(store, 5).Wait(context.Background(), pendingID)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))
	assert.Equal(t, 1, store.calls)
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newApprovalService(newFakeProfiles(), 5).Wait(ctx, pendingID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckOnce(t *testing.T) {
	store := newFakeProfiles()
	svc := newApprovalService(store, 10)
	ctx := context.Background()

	resp, err := svc.Check(ctx, pendingID)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, resp.Outcome)
	assert.Equal(t, 1, store.calls)

	resp, err = svc.Check(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, resp.Outcome)
	assert.Equal(t, "/admin.html", resp.Route)

	resp, err = svc.Check(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissing, resp.Outcome)
	assert.Equal(t, "/signup.html", resp.Route)

	store.script = []func() (*models.Profile, error){failing(apperrors.ErrTransient)}
	_, err = svc.Check(ctx, pendingID)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
}
