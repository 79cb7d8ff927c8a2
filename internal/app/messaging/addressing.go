// Package messaging implements message addressing, read receipts and realtime
// routing independently of any transport.
package messaging

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// Composer builds storage-ready messages. It never touches the network.
type Composer struct {
	zones models.ZoneSet
}

// NewComposer creates a Composer that accepts the given zones
func NewComposer(zones models.ZoneSet) *Composer {
	return &Composer{zones: zones}
}

// ResolveThreadKey returns the key of the direct conversation between a and b.
// It is order independent: ResolveThreadKey(a, b) == ResolveThreadKey(b, a).
func ResolveThreadKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return strings.Join(ids, "-")
}

// ComposeDirect addresses body to a single recipient.
func (c *Composer) ComposeDirect(senderID, recipientID uuid.UUID, body string) (*models.Message, error) {
	if err := checkSender(senderID, body); err != nil {
		return nil, err
	}
	if recipientID == uuid.Nil {
		return nil, apperrors.NewValidationError("to_user_id", "is required")
	}
	if recipientID == senderID {
		return nil, apperrors.NewValidationError("to_user_id", "must differ from the sender")
	}

	key := ResolveThreadKey(senderID, recipientID)
	to := recipientID
	return &models.Message{
		SenderID: senderID,
		Scope:    models.ScopeUser,
		ToUserID: &to,
		ThreadID: &key,
		Body:     body,
		ReadBy:   []uuid.UUID{},
	}, nil
}

// ComposeRoleBroadcast addresses every holder of role inside zone.
func (c *Composer) ComposeRoleBroadcast(senderID uuid.UUID, role models.Role, zone models.Zone, body string) (*models.Message, error) {
	if err := checkSender(senderID, body); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("to_role", "is not a recognized role")
	}
	z, err := c.zones.Parse(string(zone))
	if err != nil {
		return nil, err
	}

	return &models.Message{
		SenderID: senderID,
		Scope:    models.ScopeRole,
		ToRole:   &role,
		ToZone:   &z,
		Body:     body,
		ReadBy:   []uuid.UUID{},
	}, nil
}

// ComposeZoneBroadcast addresses everyone in zone.
func (c *Composer) ComposeZoneBroadcast(senderID uuid.UUID, zone models.Zone, body string) (*models.Message, error) {
	if err := checkSender(senderID, body); err != nil {
		return nil, err
	}
	z, err := c.zones.Parse(string(zone))
	if err != nil {
		return nil, err
	}

	return &models.Message{
		SenderID: senderID,
		Scope:    models.ScopeZone,
		ToZone:   &z,
		Body:     body,
		ReadBy:   []uuid.UUID{},
	}, nil
}

// ComposeGlobalBroadcast addresses everyone.
func (c *Composer) ComposeGlobalBroadcast(senderID uuid.UUID, body string) (*models.Message, error) {
	if err := checkSender(senderID, body); err != nil {
		return nil, err
	}
	return &models.Message{
		SenderID: senderID,
		Scope:    models.ScopeAll,
		Body:     body,
		ReadBy:   []uuid.UUID{},
	}, nil
}

func checkSender(senderID uuid.UUID, body string) error {
	if senderID == uuid.Nil {
		return apperrors.NewValidationError("sender_id", "is required")
	}
	if strings.TrimSpace(body) == "" {
		return apperrors.NewValidationError("body", "must not be blank")
	}
	return nil
}

// Validate checks that the addressing fields of m agree with its scope.
func Validate(m *models.Message) error {
	if m == nil {
		return apperrors.NewValidationError("", "message is nil")
	}
	if err := checkSender(m.SenderID, m.Body); err != nil {
		return err
	}

	switch m.Scope {
	case models.ScopeUser:
		if m.ToUserID == nil || *m.ToUserID == uuid.Nil {
			return apperrors.NewValidationError("to_user_id", "is required for scope user")
		}
		if *m.ToUserID == m.SenderID {
			return apperrors.NewValidationError("to_user_id", "must differ from the sender")
		}
		if m.ToRole != nil || m.ToZone != nil {
			return apperrors.NewValidationError("scope", "user messages cannot carry a role or zone")
		}
		if m.ThreadID != nil && *m.ThreadID != ResolveThreadKey(m.SenderID, *m.ToUserID) {
			return apperrors.NewValidationError("thread_id", "does not match the participants")
		}
	case models.ScopeRole:
		if m.ToUserID != nil {
			return apperrors.NewValidationError("scope", "role broadcasts cannot carry a recipient")
		}
		if m.ToRole == nil || !m.ToRole.Valid() {
			return apperrors.NewValidationError("to_role", "is required for scope role")
		}
		if m.ToZone == nil || *m.ToZone == "" {
			return apperrors.NewValidationError("to_zone", "is required for scope role")
		}
	case models.ScopeZone:
		if m.ToUserID != nil || m.ToRole != nil {
			return apperrors.NewValidationError("scope", "zone broadcasts cannot carry a recipient or role")
		}
		if m.ToZone == nil || *m.ToZone == "" {
			return apperrors.NewValidationError("to_zone", "is required for scope zone")
		}
	case models.ScopeAll:
		if m.ToUserID != nil || m.ToRole != nil || m.ToZone != nil {
			return apperrors.NewValidationError("scope", "global broadcasts cannot carry addressing fields")
		}
	default:
		return apperrors.NewValidationError("scope", "is not a recognized scope")
	}
	return nil
}

// Viewer is the identity a visibility decision is made for.
type Viewer struct {
	ID   uuid.UUID
	Role models.Role
	Zone *models.Zone
}

// ViewerFromProfile builds a Viewer from a loaded profile
func ViewerFromProfile(p *models.Profile) Viewer {
	v := Viewer{ID: p.ID, Role: p.Role}
	if p.Zone != nil {
		z := models.NormalizeZone(string(*p.Zone))
		v.Zone = &z
	}
	return v
}

// CanView reports whether v is part of the audience of m. Authors always see their own messages.
func CanView(v Viewer, m *models.Message) bool {
	if m.SenderID == v.ID {
		return true
	}
	switch m.Scope {
	case models.ScopeUser:
		return m.ToUserID != nil && *m.ToUserID == v.ID
	case models.ScopeRole:
		return m.ToRole != nil && *m.ToRole == v.Role && sameZone(v.Zone, m.ToZone)
	case models.ScopeZone:
		return sameZone(v.Zone, m.ToZone)
	case models.ScopeAll:
		return true
	}
	return false
}

func sameZone(viewer, target *models.Zone) bool {
	if viewer == nil || target == nil {
		return false
	}
	return models.NormalizeZone(string(*viewer)) == models.NormalizeZone(string(*target))
}

// ConversationKey names the conversation m belongs to, so both sides of a direct
// thread and every member of a broadcast audience file it under the same key.
func ConversationKey(m *models.Message) string {
	switch m.Scope {
	case models.ScopeUser:
		if m.ToUserID != nil {
			return ResolveThreadKey(m.SenderID, *m.ToUserID)
		}
	case models.ScopeRole:
		if m.ToRole != nil && m.ToZone != nil {
			return RoleConversation(*m.ToRole, *m.ToZone)
		}
	case models.ScopeZone:
		if m.ToZone != nil {
			return ZoneConversation(*m.ToZone)
		}
	case models.ScopeAll:
		return AllConversation
	}
	return ""
}

// AllConversation is the key of the global broadcast conversation
const AllConversation = "all"

// RoleConversation is the key of the broadcasts to role within zone
func RoleConversation(role models.Role, zone models.Zone) string {
	return "role:" + string(role) + ":" + string(models.NormalizeZone(string(zone)))
}

// ZoneConversation is the key of the broadcasts to zone
func ZoneConversation(zone models.Zone) string {
	return "zone:" + string(models.NormalizeZone(string(zone)))
}
