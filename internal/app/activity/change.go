// Package activity streams change notifications for the operational tables
// (clock events, live locations, schedules, assignments, driving routes and
// materials) to realtime subscribers.
package activity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/messaging"
	"github.com/athome/driveops/internal/app/models"
)

// Tables that announce changes
const (
	TableClockEvents   = "clock_events"
	TableLiveLocations = "live_locations"
	TableSchedules     = "schedules"
	TableAssignments   = "assignments"
	TableRoutes        = "driving_routes"
	TableMaterials     = "materials"
)

var knownTables = map[string]bool{
	TableClockEvents:   true,
	TableLiveLocations: true,
	TableSchedules:     true,
	TableAssignments:   true,
	TableRoutes:        true,
	TableMaterials:     true,
}

// Change is one row change. It carries keys only; subscribers reload the row
// through the HTTP API, where row-level security applies.
type Change struct {
	Table        string       `json:"table"`
	Op           string       `json:"op"`
	ID           string       `json:"id"`
	UserID       *uuid.UUID   `json:"userId,omitempty"`
	ClientID     *uuid.UUID   `json:"clientId,omitempty"`
	TeamLeaderID *uuid.UUID   `json:"teamLeaderId,omitempty"`
	Zone         *models.Zone `json:"zone,omitempty"`
}

type notification struct {
	Table        string  `json:"table"`
	Op           string  `json:"op"`
	ID           string  `json:"id"`
	UserID       *string `json:"user_id"`
	ClientID     *string `json:"client_id"`
	TeamLeaderID *string `json:"team_leader_id"`
	Zone         *string `json:"zone"`
}

// ParseChange decodes the payload published by the notify_activity trigger
func ParseChange(payload string) (Change, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return Change{}, fmt.Errorf("error decoding activity payload: %w", err)
	}
	if !knownTables[n.Table] {
		return Change{}, fmt.Errorf("unknown activity table %q", n.Table)
	}
	switch n.Op {
	case "insert", "update", "delete":
	default:
		return Change{}, fmt.Errorf("unknown activity op %q", n.Op)
	}
	if n.ID == "" {
		return Change{}, fmt.Errorf("activity payload for %s has no id", n.Table)
	}

	c := Change{Table: n.Table, Op: n.Op, ID: n.ID}
	var err error
	if c.UserID, err = optionalID("user_id", n.UserID); err != nil {
		return Change{}, err
	}
	if c.ClientID, err = optionalID("client_id", n.ClientID); err != nil {
		return Change{}, err
	}
	if c.TeamLeaderID, err = optionalID("team_leader_id", n.TeamLeaderID); err != nil {
		return Change{}, err
	}
	if n.Zone != nil {
		if z := models.NormalizeZone(*n.Zone); z != "" {
			c.Zone = &z
		}
	}
	return c, nil
}

func optionalID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("activity payload %s: %w", field, err)
	}
	return &id, nil
}

// CanSee reports whether v should hear about c. Everyone hears about rows
// naming them; supervisors hear everything; the other managing roles hear
// about their zone. Materials are announced to their zone, or to everyone
// when they have none.
func CanSee(v messaging.Viewer, c Change) bool {
	for _, id := range []*uuid.UUID{c.UserID, c.ClientID, c.TeamLeaderID} {
		if id != nil && *id == v.ID {
			return true
		}
	}
	if v.Role == models.RoleSupervisor {
		return true
	}
	if c.Table == TableMaterials {
		return c.Zone == nil || sameZone(v.Zone, c.Zone)
	}
	if appauth.HasRole(v.Role, appauth.SchedulerRoles...) {
		return sameZone(v.Zone, c.Zone)
	}
	return false
}

func sameZone(a, b *models.Zone) bool {
	return a != nil && b != nil && *a == *b
}
