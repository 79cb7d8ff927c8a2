package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostLoginRoute(t *testing.T) {
	assert.Equal(t, SignupPath, PostLoginRoute(nil))

	p := &Profile{Role: RoleTeamLeader, Status: StatusPending}
	assert.Equal(t, PendingPath, PostLoginRoute(p))

	p.Status = StatusDeclined
	assert.Equal(t, PendingPath, PostLoginRoute(p))

	p.Status = StatusApproved
	assert.Equal(t, "/team-leader.html", PostLoginRoute(p))

	p.Status = StatusSuspended
	assert.Empty(t, PostLoginRoute(p))
}

func TestProfileUpdateEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	name := "x"
	assert.False(t, ProfileUpdate{FullName: &name}.Empty())
}
