package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athome/driveops/internal/app/messaging"
	"github.com/athome/driveops/internal/app/models"
)

var (
	instructor = uuid.MustParse("6b0d3c4e-2f1a-4b5c-9d8e-7f6a5b4c3d2e")
	client     = uuid.MustParse("1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
	lead       = uuid.MustParse("7e8f9a0b-1c2d-4e3f-a4b5-c6d7e8f9a0b1")
)

func zone(z string) *models.Zone {
	v := models.Zone(z)
	return &v
}

func TestParseChange(t *testing.T) {
	c, err := ParseChange(`{"table":"schedules","op":"update","id":"42a7c1d0-9a2b-4c3d-8e4f-5a6b7c8d9e0f",` +
		`"user_id":"` + instructor.String() + `","client_id":"` + client.String() + `","team_leader_id":null,"zone":" North "}`)
	require.NoError(t, err)
	assert.Equal(t, TableSchedules, c.Table)
	assert.Equal(t, "update", c.Op)
	require.NotNil(t, c.UserID)
	assert.Equal(t, instructor, *c.UserID)
	require.NotNil(t, c.ClientID)
	assert.Equal(t, client, *c.ClientID)
	assert.Nil(t, c.TeamLeaderID)
	assert.Equal(t, zone("north"), c.Zone)

	c, err = ParseChange(`{"table":"live_locations","op":"insert","id":"` + instructor.String() + `","user_id":"` + instructor.String() + `","zone":""}`)
	require.NoError(t, err)
	assert.Nil(t, c.Zone)

	for _, bad := range []string{
		`{`,
		`{"table":"messages","op":"insert","id":"x"}`,
		`{"table":"schedules","op":"truncate","id":"x"}`,
		`{"table":"schedules","op":"insert"}`,
		`{"table":"schedules","op":"insert","id":"x","user_id":"nope"}`,
	} {
		_, err := ParseChange(bad)
		assert.Error(t, err, bad)
	}
}

func TestCanSee(t *testing.T) {
	booked := Change{Table: TableSchedules, Op: "update", UserID: &instructor, ClientID: &client, Zone: zone("north")}

	tests := []struct {
		name   string
		viewer messaging.Viewer
		change Change
		want   bool
	}{
		{"instructor on own slot", messaging.Viewer{ID: instructor, Role: models.RoleInstructor}, booked, true},
		{"client on own slot", messaging.Viewer{ID: client, Role: models.RoleClient}, booked, true},
		{"other client", messaging.Viewer{ID: uuid.New(), Role: models.RoleClient, Zone: zone("north")}, booked, false},
		{"team leader in zone", messaging.Viewer{ID: lead, Role: models.RoleTeamLeader, Zone: zone("north")}, booked, true},
		{"manager elsewhere", messaging.Viewer{ID: uuid.New(), Role: models.RoleManager, Zone: zone("south")}, booked, false},
		{"manager without zone", messaging.Viewer{ID: uuid.New(), Role: models.RoleAdmin}, booked, false},
		{"supervisor", messaging.Viewer{ID: uuid.New(), Role: models.RoleSupervisor}, booked, true},
		{"named team leader", messaging.Viewer{ID: lead, Role: models.RoleTeamLeader, Zone: zone("south")},
			Change{Table: TableAssignments, TeamLeaderID: &lead, Zone: zone("north")}, true},
		{"zone-less material", messaging.Viewer{ID: client, Role: models.RoleClient},
			Change{Table: TableMaterials}, true},
		{"material for zone", messaging.Viewer{ID: client, Role: models.RoleClient, Zone: zone("south")},
			Change{Table: TableMaterials, Zone: zone("north")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanSee(tt.viewer, tt.change))
		})
	}
}

type collector struct {
	mu  sync.Mutex
	got []Change
}

func (c *collector) add(ch Change) {
	c.mu.Lock()
	c.got = append(c.got, ch)
	c.mu.Unlock()
}

func (c *collector) changes() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Change(nil), c.got...)
}

func TestStreamDispatchAndSetViewer(t *testing.T) {
	s := NewStream(zerolog.Nop())
	viewer := uuid.New()

	var got collector
	sub := s.Subscribe(messaging.Viewer{ID: viewer, Role: models.RoleTeamLeader, Zone: zone("north")}, got.add)
	assert.Equal(t, 1, s.Count())

	south := Change{Table: TableClockEvents, Op: "insert", ID: "1", UserID: &instructor, Zone: zone("south")}
	assert.Equal(t, 0, s.Dispatch(south))

	sub.SetViewer(messaging.Viewer{ID: viewer, Role: models.RoleTeamLeader, Zone: zone("south")})
	assert.Equal(t, 1, s.Dispatch(south))
	require.Len(t, got.changes(), 1)

	// demoted to client: zone changes stop
	sub.SetViewer(messaging.Viewer{ID: viewer, Role: models.RoleClient, Zone: zone("south")})
	assert.Equal(t, 0, s.Dispatch(south))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, s.Count())
}

func TestStreamRun(t *testing.T) {
	s := NewStream(zerolog.Nop())
	var got collector
	defer s.Subscribe(messaging.Viewer{ID: instructor, Role: models.RoleInstructor}, got.add).Close()

	feed := make(chan Change, 2)
	feed <- Change{Table: TableLiveLocations, Op: "update", ID: instructor.String(), UserID: &instructor}
	feed <- Change{Table: TableLiveLocations, Op: "update", ID: client.String(), UserID: &client}
	close(feed)
	require.NoError(t, s.Run(context.Background(), feed))
	require.Len(t, got.changes(), 1)
	assert.Equal(t, instructor.String(), got.changes()[0].ID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, make(chan Change)) }()
	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}
