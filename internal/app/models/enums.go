package models

import (
	"sort"
	"strings"

	"github.com/athome/driveops/internal/pkg/apperrors"
)

// Role is the closed set of roles a profile can hold.
type Role string

const (
	RoleClient     Role = "client"
	RoleInstructor Role = "instructor"
	RoleTeamLeader Role = "team_leader"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
)

// Roles lists every recognized role
var Roles = []Role{RoleClient, RoleInstructor, RoleTeamLeader, RoleManager, RoleAdmin, RoleSupervisor}

var dashboardPaths = map[Role]string{
	RoleSupervisor: "/supervisor.html",
	RoleAdmin:      "/admin.html",
	RoleManager:    "/manager.html",
	RoleTeamLeader: "/team-leader.html",
	RoleInstructor: "/instructor.html",
	RoleClient:     "/client.html",
}

// ParseRole accepts any casing and the "team leader" / "team-leader" spellings.
func ParseRole(raw string) (Role, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	r := Role(s)
	if !r.Valid() {
		return "", apperrors.NewValidationError("role", "is not a recognized role")
	}
	return r, nil
}

// Valid reports whether r is one of Roles
func (r Role) Valid() bool {
	_, ok := dashboardPaths[r]
	return ok
}

// DashboardPath is where a user of this role lands after login.
func (r Role) DashboardPath() string {
	if p, ok := dashboardPaths[r]; ok {
		return p
	}
	return "/signup.html"
}

// Status is the approval state of a profile.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusSuspended Status = "suspended"
	StatusDeclined  Status = "declined"
)

// ParseStatus normalizes casing; "rejected" is treated as declined.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusApproved, StatusSuspended, StatusDeclined:
		return s, nil
	case "rejected":
		return StatusDeclined, nil
	}
	return "", apperrors.NewValidationError("status", "is not a recognized status")
}

// Scope is the addressing mode of a message.
type Scope string

const (
	ScopeUser Scope = "user"
	ScopeRole Scope = "role"
	ScopeZone Scope = "zone"
	ScopeAll  Scope = "all"
)

// Valid reports whether s is a known scope
func (s Scope) Valid() bool {
	switch s {
	case ScopeUser, ScopeRole, ScopeZone, ScopeAll:
		return true
	}
	return false
}

// Zone is an organizational partition. Zones are compared in normalized form.
type Zone string

// NormalizeZone trims and lower-cases a raw zone name.
func NormalizeZone(raw string) Zone {
	return Zone(strings.ToLower(strings.TrimSpace(raw)))
}

// ZoneSet is the closed set of zones known to the deployment.
// An empty set accepts any non-empty zone.
type ZoneSet map[Zone]struct{}

// NewZoneSet builds a ZoneSet from raw names
func NewZoneSet(names ...string) ZoneSet {
	set := make(ZoneSet, len(names))
	for _, n := range names {
		if z := NormalizeZone(n); z != "" {
			set[z] = struct{}{}
		}
	}
	return set
}

// Parse normalizes raw and checks membership.
func (s ZoneSet) Parse(raw string) (Zone, error) {
	z := NormalizeZone(raw)
	if z == "" {
		return "", apperrors.NewValidationError("zone", "is required")
	}
	if len(s) > 0 {
		if _, ok := s[z]; !ok {
			return "", apperrors.NewValidationError("zone", "is not a known zone")
		}
	}
	return z, nil
}

// Names returns the sorted zone names
func (s ZoneSet) Names() []string {
	out := make([]string, 0, len(s))
	for z := range s {
		out = append(out, string(z))
	}
	sort.Strings(out)
	return out
}
