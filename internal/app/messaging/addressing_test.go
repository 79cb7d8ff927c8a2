package messaging

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

var (
	alice = uuid.MustParse("7b1c6a52-2f0e-4b8e-9a1f-0c2d3e4f5a6b")
	bob   = uuid.MustParse("1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d")
	carol = uuid.MustParse("c0ffee00-0000-4000-8000-000000000003")
)

func zonePtr(z string) *models.Zone {
	v := models.Zone(z)
	return &v
}

func TestResolveThreadKeyIsOrderIndependent(t *testing.T) {
	pairs := [][2]uuid.UUID{{alice, bob}, {bob, carol}, {alice, carol}, {uuid.New(), uuid.New()}}
	for _, p := range pairs {
		assert.Equal(t, ResolveThreadKey(p[0], p[1]), ResolveThreadKey(p[1], p[0]))
	}
	assert.Equal(t, bob.String()+"-"+alice.String(), ResolveThreadKey(alice, bob))
	assert.NotEqual(t, ResolveThreadKey(alice, bob), ResolveThreadKey(alice, carol))
}

func TestComposeDirect(t *testing.T) {
	c := NewComposer(models.NewZoneSet())

	m, err := c.ComposeDirect(alice, bob, "hi")
	require.NoError(t, err)
	assert.Equal(t, models.ScopeUser, m.Scope)
	require.NotNil(t, m.ToUserID)
	assert.Equal(t, bob, *m.ToUserID)
	assert.Nil(t, m.ToRole)
	assert.Nil(t, m.ToZone)
	require.NotNil(t, m.ThreadID)
	assert.Equal(t, ResolveThreadKey(bob, alice), *m.ThreadID)
	assert.Empty(t, m.ReadBy)
	assert.NoError(t, Validate(m))

	back, err := c.ComposeDirect(bob, alice, "hello")
	require.NoError(t, err)
	assert.Equal(t, *m.ThreadID, *back.ThreadID)
}

func TestComposeDirectToSelfFails(t *testing.T) {
	c := NewComposer(models.NewZoneSet())
	for _, id := range []uuid.UUID{alice, bob, uuid.New()} {
		m, err := c.ComposeDirect(id, id, "note to self")
		assert.Nil(t, m)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	}
}

func TestBlankBodyFailsEveryCompose(t *testing.T) {
	c := NewComposer(models.NewZoneSet("north"))
	for _, body := range []string{"", " ", "\t\n", "   \r\n "} {
		_, err := c.ComposeDirect(alice, bob, body)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

		_, err = c.ComposeRoleBroadcast(alice, models.RoleInstructor, "north", body)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

		_, err = c.ComposeZoneBroadcast(alice, "north", body)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

		_, err = c.ComposeGlobalBroadcast(alice, body)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	}
}

func TestComposeRoleBroadcast(t *testing.T) {
	c := NewComposer(models.NewZoneSet("north", "south"))

	m, err := c.ComposeRoleBroadcast(alice, models.RoleInstructor, "North", "briefing at 8")
	require.NoError(t, err)
	assert.Equal(t, models.ScopeRole, m.Scope)
	assert.Equal(t, models.RoleInstructor, *m.ToRole)
	assert.Equal(t, models.Zone("north"), *m.ToZone)
	assert.Nil(t, m.ToUserID)
	assert.Nil(t, m.ThreadID)
	assert.NoError(t, Validate(m))

	_, err = c.ComposeRoleBroadcast(alice, models.Role("Admin"), "north", "x")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "role casing must be normalized before composing")

	_, err = c.ComposeRoleBroadcast(alice, models.RoleAdmin, "", "x")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = c.ComposeRoleBroadcast(alice, models.RoleAdmin, "east", "x")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestComposeZoneAndGlobal(t *testing.T) {
	c := NewComposer(models.NewZoneSet())

	z, err := c.ComposeZoneBroadcast(alice, "north", "hello")
	require.NoError(t, err)
	assert.Equal(t, models.ScopeZone, z.Scope)
	assert.Equal(t, models.Zone("north"), *z.ToZone)
	assert.Nil(t, z.ToRole)
	assert.Nil(t, z.ToUserID)

	g, err := c.ComposeGlobalBroadcast(alice, "closed on friday")
	require.NoError(t, err)
	assert.Equal(t, models.ScopeAll, g.Scope)
	assert.Nil(t, g.ToZone)
	assert.Nil(t, g.ToRole)
	assert.Nil(t, g.ToUserID)
}

func TestValidateRejectsMixedAddressing(t *testing.T) {
	to := bob
	role := models.RoleAdmin

	userWithZone := &models.Message{SenderID: alice, Scope: models.ScopeUser, ToUserID: &to, ToZone: zonePtr("north"), Body: "x"}
	assert.ErrorIs(t, Validate(userWithZone), apperrors.ErrValidationFailed)

	roleWithoutZone := &models.Message{SenderID: alice, Scope: models.ScopeRole, ToRole: &role, Body: "x"}
	assert.ErrorIs(t, Validate(roleWithoutZone), apperrors.ErrValidationFailed)

	zoneWithUser := &models.Message{SenderID: alice, Scope: models.ScopeZone, ToZone: zonePtr("north"), ToUserID: &to, Body: "x"}
	assert.ErrorIs(t, Validate(zoneWithUser), apperrors.ErrValidationFailed)

	allWithZone := &models.Message{SenderID: alice, Scope: models.ScopeAll, ToZone: zonePtr("north"), Body: "x"}
	assert.ErrorIs(t, Validate(allWithZone), apperrors.ErrValidationFailed)

	wrongThread := "not-a-key"
	badThread := &models.Message{SenderID: alice, Scope: models.ScopeUser, ToUserID: &to, ThreadID: &wrongThread, Body: "x"}
	assert.ErrorIs(t, Validate(badThread), apperrors.ErrValidationFailed)

	unknownScope := &models.Message{SenderID: alice, Scope: "team", Body: "x"}
	assert.ErrorIs(t, Validate(unknownScope), apperrors.ErrValidationFailed)
}

func TestCanView(t *testing.T) {
	c := NewComposer(models.NewZoneSet())
	north := models.Zone("north")
	south := models.Zone("south")

	instructorNorth := Viewer{ID: carol, Role: models.RoleInstructor, Zone: &north}
	instructorSouth := Viewer{ID: uuid.New(), Role: models.RoleInstructor, Zone: &south}
	managerNorth := Viewer{ID: uuid.New(), Role: models.RoleManager, Zone: &north}
	noZone := Viewer{ID: uuid.New(), Role: models.RoleSupervisor}

	dm, _ := c.ComposeDirect(alice, bob, "hi")
	assert.True(t, CanView(Viewer{ID: alice}, dm))
	assert.True(t, CanView(Viewer{ID: bob}, dm))
	assert.False(t, CanView(instructorNorth, dm))

	rb, _ := c.ComposeRoleBroadcast(alice, models.RoleInstructor, "north", "x")
	assert.True(t, CanView(instructorNorth, rb))
	assert.False(t, CanView(instructorSouth, rb))
	assert.False(t, CanView(managerNorth, rb))

	zb, _ := c.ComposeZoneBroadcast(alice, "north", "x")
	assert.True(t, CanView(instructorNorth, zb))
	assert.True(t, CanView(managerNorth, zb))
	assert.False(t, CanView(instructorSouth, zb))
	assert.False(t, CanView(noZone, zb))

	all, _ := c.ComposeGlobalBroadcast(alice, "x")
	assert.True(t, CanView(noZone, all))
	assert.True(t, CanView(instructorSouth, all))
}

func TestConversationKey(t *testing.T) {
	c := NewComposer(models.NewZoneSet())

	ab, _ := c.ComposeDirect(alice, bob, "hi")
	ba, _ := c.ComposeDirect(bob, alice, "hey")
	assert.Equal(t, ConversationKey(ab), ConversationKey(ba))

	rb, _ := c.ComposeRoleBroadcast(alice, models.RoleTeamLeader, "north", "x")
	assert.Equal(t, "role:team_leader:north", ConversationKey(rb))

	zb, _ := c.ComposeZoneBroadcast(alice, "south", "x")
	assert.Equal(t, "zone:south", ConversationKey(zb))

	all, _ := c.ComposeGlobalBroadcast(alice, "x")
	assert.Equal(t, "all", ConversationKey(all))
}

func TestViewerFromProfileNormalizesZone(t *testing.T) {
	p := &models.Profile{ID: alice, Role: models.RoleAdmin, Zone: zonePtr(" North ")}
	v := ViewerFromProfile(p)
	require.NotNil(t, v.Zone)
	assert.Equal(t, models.Zone("north"), *v.Zone)
	assert.Equal(t, models.RoleAdmin, v.Role)
}
