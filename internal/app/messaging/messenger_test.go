package messaging

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athome/driveops/internal/app/messaging/messagingtest"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

func TestSendInvalidNeverReachesStore(t *testing.T) {
	store := messagingtest.NewMemStore()
	m := NewMessenger(store, models.NewZoneSet(), zerolog.Nop())
	ctx := context.Background()

	_, err := m.SendDirect(ctx, alice, alice, "hi")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = m.SendAll(ctx, alice, "  ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = m.Send(ctx, &models.Message{SenderID: alice, Scope: models.ScopeRole, Body: "x"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Equal(t, 0, store.Inserts())
}

func TestSendAssignsIDAndTimestamp(t *testing.T) {
	store := messagingtest.NewMemStore()
	m := NewMessenger(store, models.NewZoneSet(), zerolog.Nop())

	msg, err := m.SendAll(context.Background(), alice, "office closed monday")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.Equal(t, "office closed monday", msg.Body)
}

func TestUserThreadIsSymmetric(t *testing.T) {
	store := messagingtest.NewMemStore()
	m := NewMessenger(store, models.NewZoneSet(), zerolog.Nop())
	ctx := context.Background()

	_, err := m.SendDirect(ctx, alice, bob, "hi")
	require.NoError(t, err)
	_, err = m.SendDirect(ctx, bob, alice, "hello")
	require.NoError(t, err)
	_, err = m.SendDirect(ctx, alice, carol, "unrelated")
	require.NoError(t, err)

	fromAlice, err := m.UserThread(ctx, alice, bob)
	require.NoError(t, err)
	fromBob, err := m.UserThread(ctx, bob, alice)
	require.NoError(t, err)

	require.Len(t, fromAlice, 2)
	require.Len(t, fromBob, 2)
	for i := range fromAlice {
		assert.Equal(t, fromAlice[i].ID, fromBob[i].ID)
	}
}

func TestZoneThreadRoundTrip(t *testing.T) {
	store := messagingtest.NewMemStore()
	m := NewMessenger(store, models.NewZoneSet("north", "south"), zerolog.Nop())
	ctx := context.Background()

	sent, err := m.SendZone(ctx, alice, "North", "meet at the depot")
	require.NoError(t, err)

	thread, err := m.ZoneThread(ctx, "north")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, sent.ID, thread[0].ID)
	assert.Equal(t, models.Zone("north"), *thread[0].ToZone)

	south, err := m.ZoneThread(ctx, "south")
	require.NoError(t, err)
	assert.Empty(t, south)

	_, err = m.ZoneThread(ctx, "east")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestThreadsAreOrderedByCreation(t *testing.T) {
	store := messagingtest.NewMemStore()
	m := NewMessenger(store, models.NewZoneSet(), zerolog.Nop())
	ctx := context.Background()

	var sent []uuid.UUID
	for _, body := range []string{"first", "second", "third"} {
		msg, err := m.SendRole(ctx, alice, models.RoleInstructor, "north", body)
		require.NoError(t, err)
		sent = append(sent, msg.ID)
	}

	thread, err := m.RoleThread(ctx, models.RoleInstructor, "north")
	require.NoError(t, err)
	require.Len(t, thread, 3)
	for i := range sent {
		assert.Equal(t, sent[i], thread[i].ID)
	}
	assert.True(t, thread[0].CreatedAt.Before(thread[1].CreatedAt))
	assert.True(t, thread[1].CreatedAt.Before(thread[2].CreatedAt))

	_, err = m.RoleThread(ctx, models.Role("janitor"), "north")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAllThreadEmpty(t *testing.T) {
	m := NewMessenger(messagingtest.NewMemStore(), models.NewZoneSet(), zerolog.Nop())
	thread, err := m.AllThread(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, thread)
	assert.Empty(t, thread)
}
