package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// Store is the message table of the backing service. Thread queries return rows
// ordered by creation time ascending and an empty slice when nothing matches.
type Store interface {
	ReceiptStore
	Insert(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	UserThread(ctx context.Context, threadKey string) ([]*models.Message, error)
	RoleThread(ctx context.Context, role models.Role, zone models.Zone) ([]*models.Message, error)
	ZoneThread(ctx context.Context, zone models.Zone) ([]*models.Message, error)
	AllThread(ctx context.Context) ([]*models.Message, error)
}

// Messenger composes, validates and stores messages and reads conversations back.
type Messenger struct {
	*Composer
	*ReadTracker
	store  Store
	logger zerolog.Logger
}

// NewMessenger wires a Messenger over store
func NewMessenger(store Store, zones models.ZoneSet, logger zerolog.Logger) *Messenger {
	return &Messenger{
		Composer:    NewComposer(zones),
		ReadTracker: NewReadTracker(store, logger),
		store:       store,
		logger:      logger,
	}
}

// Send validates m and inserts it. Invalid messages never reach the store.
func (s *Messenger) Send(ctx context.Context, m *models.Message) (*models.Message, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("messageID", m.ID.String()).
		Str("scope", string(m.Scope)).
		Str("senderID", m.SenderID.String()).
		Msg("Message stored")
	return m, nil
}

// SendDirect composes and sends a direct message
func (s *Messenger) SendDirect(ctx context.Context, senderID, recipientID uuid.UUID, body string) (*models.Message, error) {
	m, err := s.ComposeDirect(senderID, recipientID, body)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, m)
}

// SendRole composes and sends a role broadcast
func (s *Messenger) SendRole(ctx context.Context, senderID uuid.UUID, role models.Role, zone models.Zone, body string) (*models.Message, error) {
	m, err := s.ComposeRoleBroadcast(senderID, role, zone, body)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, m)
}

// SendZone composes and sends a zone broadcast
func (s *Messenger) SendZone(ctx context.Context, senderID uuid.UUID, zone models.Zone, body string) (*models.Message, error) {
	m, err := s.ComposeZoneBroadcast(senderID, zone, body)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, m)
}

// SendAll composes and sends a global broadcast
func (s *Messenger) SendAll(ctx context.Context, senderID uuid.UUID, body string) (*models.Message, error) {
	m, err := s.ComposeGlobalBroadcast(senderID, body)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, m)
}

// UserThread returns the direct conversation between me and other.
func (s *Messenger) UserThread(ctx context.Context, me, other uuid.UUID) ([]*models.Message, error) {
	return s.store.UserThread(ctx, ResolveThreadKey(me, other))
}

// RoleThread returns the broadcasts to role within zone
func (s *Messenger) RoleThread(ctx context.Context, role models.Role, zone models.Zone) ([]*models.Message, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("to_role", "is not a recognized role")
	}
	z, err := s.zones.Parse(string(zone))
	if err != nil {
		return nil, err
	}
	return s.store.RoleThread(ctx, role, z)
}

// ZoneThread returns the broadcasts to zone
func (s *Messenger) ZoneThread(ctx context.Context, zone models.Zone) ([]*models.Message, error) {
	z, err := s.zones.Parse(string(zone))
	if err != nil {
		return nil, err
	}
	return s.store.ZoneThread(ctx, z)
}

// AllThread returns the global broadcasts
func (s *Messenger) AllThread(ctx context.Context) ([]*models.Message, error) {
	return s.store.AllThread(ctx)
}

// Get returns one message by id
func (s *Messenger) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	return s.store.GetByID(ctx, id)
}
