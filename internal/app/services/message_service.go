package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/messaging"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/metrics"
)

// MessageService defines the interface for messaging operations
type MessageService interface {
	SendDirect(ctx context.Context, senderID uuid.UUID, req *dto.SendDirectRequest) (*dto.MessageResponse, error)
	SendRole(ctx context.Context, senderID uuid.UUID, req *dto.SendRoleRequest) (*dto.MessageResponse, error)
	SendZone(ctx context.Context, senderID uuid.UUID, req *dto.SendZoneRequest) (*dto.MessageResponse, error)
	SendAll(ctx context.Context, senderID uuid.UUID, req *dto.SendAllRequest) (*dto.MessageResponse, error)
	UserThread(ctx context.Context, viewerID, otherID uuid.UUID) (*dto.ThreadResponse, error)
	RoleThread(ctx context.Context, viewerID uuid.UUID, role, zone string) (*dto.ThreadResponse, error)
	ZoneThread(ctx context.Context, viewerID uuid.UUID, zone string) (*dto.ThreadResponse, error)
	AllThread(ctx context.Context, viewerID uuid.UUID) (*dto.ThreadResponse, error)
	MarkRead(ctx context.Context, viewerID, messageID uuid.UUID) error
	MarkReadBatch(ctx context.Context, viewerID uuid.UUID, req *dto.MarkReadBatchRequest) (*dto.MarkReadBatchResponse, error)
}

// messageServiceImpl implements MessageService
type messageServiceImpl struct {
	messenger *messaging.Messenger
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(messenger *messaging.Messenger, m *metrics.Metrics, logger zerolog.Logger) MessageService {
	return &messageServiceImpl{
		messenger: messenger,
		metrics:   m,
		logger:    logger,
	}
}

// SendDirect sends a message to a single user
func (s *messageServiceImpl) SendDirect(ctx context.Context, senderID uuid.UUID, req *dto.SendDirectRequest) (*dto.MessageResponse, error) {
	to, err := uuid.Parse(req.ToUserID)
	if err != nil {
		return nil, apperrors.NewValidationError("toUserId", "must be a valid UUID")
	}
	m, err := s.messenger.SendDirect(ctx, senderID, to, req.Body)
	return s.sent(m, senderID, err)
}

// SendRole broadcasts to every holder of a role inside a zone
func (s *messageServiceImpl) SendRole(ctx context.Context, senderID uuid.UUID, req *dto.SendRoleRequest) (*dto.MessageResponse, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	m, err := s.messenger.SendRole(ctx, senderID, role, models.Zone(req.Zone), req.Body)
	return s.sent(m, senderID, err)
}

// SendZone broadcasts to everyone in a zone
func (s *messageServiceImpl) SendZone(ctx context.Context, senderID uuid.UUID, req *dto.SendZoneRequest) (*dto.MessageResponse, error) {
	m, err := s.messenger.SendZone(ctx, senderID, models.Zone(req.Zone), req.Body)
	return s.sent(m, senderID, err)
}

// SendAll broadcasts to everyone
func (s *messageServiceImpl) SendAll(ctx context.Context, senderID uuid.UUID, req *dto.SendAllRequest) (*dto.MessageResponse, error) {
	m, err := s.messenger.SendAll(ctx, senderID, req.Body)
	return s.sent(m, senderID, err)
}

func (s *messageServiceImpl) sent(m *models.Message, senderID uuid.UUID, err error) (*dto.MessageResponse, error) {
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			s.logger.Error().Err(err).
				Str("senderID", senderID.String()).
				Msg("Failed to send message")
		}
		return nil, err
	}
	s.metrics.MessageSent(string(m.Scope))
	resp := dto.ToMessageResponse(m, senderID)
	return &resp, nil
}

// UserThread returns the direct conversation between the viewer and another user
func (s *messageServiceImpl) UserThread(ctx context.Context, viewerID, otherID uuid.UUID) (*dto.ThreadResponse, error) {
	if otherID == uuid.Nil {
		return nil, apperrors.NewValidationError("userId", "is required")
	}
	messages, err := s.messenger.UserThread(ctx, viewerID, otherID)
	return s.thread(messaging.ResolveThreadKey(viewerID, otherID), messages, viewerID, err)
}

// RoleThread returns the broadcasts to a role within a zone
func (s *messageServiceImpl) RoleThread(ctx context.Context, viewerID uuid.UUID, role, zone string) (*dto.ThreadResponse, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}
	messages, err := s.messenger.RoleThread(ctx, r, models.Zone(zone))
	return s.thread(messaging.RoleConversation(r, models.Zone(zone)), messages, viewerID, err)
}

// ZoneThread returns the broadcasts to a zone
func (s *messageServiceImpl) ZoneThread(ctx context.Context, viewerID uuid.UUID, zone string) (*dto.ThreadResponse, error) {
	messages, err := s.messenger.ZoneThread(ctx, models.Zone(zone))
	return s.thread(messaging.ZoneConversation(models.Zone(zone)), messages, viewerID, err)
}

// AllThread returns the global broadcasts
func (s *messageServiceImpl) AllThread(ctx context.Context, viewerID uuid.UUID) (*dto.ThreadResponse, error) {
	messages, err := s.messenger.AllThread(ctx)
	return s.thread(messaging.AllConversation, messages, viewerID, err)
}

func (s *messageServiceImpl) thread(key string, messages []*models.Message, viewerID uuid.UUID, err error) (*dto.ThreadResponse, error) {
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			s.logger.Error().Err(err).
				Str("conversation", key).
				Msg("Failed to load conversation")
		}
		return nil, err
	}
	s.logger.Debug().
		Str("conversation", key).
		Int("count", len(messages)).
		Msg("Conversation loaded")
	return &dto.ThreadResponse{
		Conversation: key,
		Messages:     dto.ToMessageResponses(messages, viewerID),
	}, nil
}

// MarkRead records that the viewer has read one message
func (s *messageServiceImpl) MarkRead(ctx context.Context, viewerID, messageID uuid.UUID) error {
	err := s.messenger.MarkRead(ctx, messageID, viewerID)
	s.metrics.ReadReceipt(err)
	if err != nil && !errors.Is(err, apperrors.ErrValidationFailed) {
		s.logger.Warn().Err(err).
			Str("messageID", messageID.String()).
			Str("viewerID", viewerID.String()).
			Msg("Failed to record read receipt")
	}
	return err
}

// MarkReadBatch records read receipts for several messages. The response is
// returned alongside a *apperrors.PartialFailure when only some succeeded.
func (s *messageServiceImpl) MarkReadBatch(ctx context.Context, viewerID uuid.UUID, req *dto.MarkReadBatchRequest) (*dto.MarkReadBatchResponse, error) {
	messages := make([]*models.Message, 0, len(req.MessageIDs))
	seen := make(map[uuid.UUID]struct{}, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.NewValidationError("messageIds", "must contain valid UUIDs")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		messages = append(messages, &models.Message{ID: id})
	}

	err := s.messenger.MarkThreadRead(ctx, messages, viewerID)

	resp := &dto.MarkReadBatchResponse{Marked: []uuid.UUID{}, Failed: []uuid.UUID{}}
	var pf *apperrors.PartialFailure
	if err != nil && !errors.As(err, &pf) {
		return nil, err
	}
	failed := make(map[uuid.UUID]struct{})
	if pf != nil {
		resp.Failed = append(resp.Failed, pf.Failed...)
		for _, id := range pf.Failed {
			failed[id] = struct{}{}
		}
	}
	for _, m := range messages {
		if _, ok := failed[m.ID]; ok {
			s.metrics.ReadReceipt(pf.Causes[m.ID])
			continue
		}
		s.metrics.ReadReceipt(nil)
		resp.Marked = append(resp.Marked, m.ID)
	}

	s.logger.Debug().
		Str("viewerID", viewerID.String()).
		Int("marked", len(resp.Marked)).
		Int("failed", len(resp.Failed)).
		Msg("Batch read receipts recorded")

	if pf != nil {
		return resp, pf
	}
	return resp, nil
}
