package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

const (
	defaultClockDays = 7
	maxClockDays     = 90
	clockEventLimit  = 500
)

// ClockEventStore is the clock_events table
type ClockEventStore interface {
	Insert(ctx context.Context, userID uuid.UUID, eventType models.ClockEventType, meta map[string]interface{}) (*models.ClockEvent, error)
	Since(ctx context.Context, since time.Time, userID *uuid.UUID, limit uint64) ([]*models.ClockEvent, error)
}

// ClockService defines the interface for attendance operations
type ClockService interface {
	Record(ctx context.Context, userID uuid.UUID, eventType string, req *dto.ClockEventRequest) (*dto.ClockEventResponse, error)
	ClockIn(ctx context.Context, userID uuid.UUID, meta map[string]interface{}) (*dto.ClockEventResponse, error)
	ClockOut(ctx context.Context, userID uuid.UUID, meta map[string]interface{}) (*dto.ClockEventResponse, error)
	MarkClientShow(ctx context.Context, userID uuid.UUID, meta map[string]interface{}) (*dto.ClockEventResponse, error)
	VisibleEvents(ctx context.Context, days int) ([]dto.ClockEventResponse, error)
	EventsForUser(ctx context.Context, userID uuid.UUID, days int) ([]dto.ClockEventResponse, error)
}

// clockServiceImpl implements ClockService
type clockServiceImpl struct {
	events ClockEventStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewClockService creates a new ClockService
func NewClockService(events ClockEventStore, logger zerolog.Logger) ClockService {
	return &clockServiceImpl{
		events: events,
		now:    time.Now,
		logger: logger,
	}
}

// Record stores an event of the type named in a request path
func (s *clockServiceImpl) Record(ctx context.Context, userID uuid.UUID, eventType string, req *dto.ClockEventRequest) (*dto.ClockEventResponse, error) {
	t := models.ClockEventType(eventType)
	if !t.Valid() {
		return nil, apperrors.NewValidationError("type", "must be one of in, out, client_showed_up")
	}
	var meta map[string]interface{}
	if req != nil {
		meta = req.Meta
	}
	return s.record(ctx, userID, t, meta)
}

// ClockIn starts the caller's shift
func (s *clockServiceImpl) ClockIn(ctx context.Context, userID uuid.UUID, meta map[string]interface{}) (*dto.ClockEventResponse, error) {
	return s.record(ctx, userID, models.ClockIn, meta)
}

// ClockOut ends the caller's shift
func (s *clockServiceImpl) ClockOut(ctx context.Context, userID uuid.UUID, meta map[string]interface{}) (*dto.ClockEventResponse, error) {
	return s.record(ctx, userID, models.ClockOut, meta)
}

// MarkClientShow records that the client turned up for a lesson
func (s *clockServiceImpl) MarkClientShow(ctx context.Context, userID uuid.UUID, meta map[string]interface{}) (*dto.ClockEventResponse, error) {
	return s.record(ctx, userID, models.ClockClientShow, meta)
}

func (s *clockServiceImpl) record(ctx context.Context, userID uuid.UUID, t models.ClockEventType, meta map[string]interface{}) (*dto.ClockEventResponse, error) {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	e, err := s.events.Insert(ctx, userID, t, meta)
	if err != nil {
		s.logger.Error().Err(err).
			Str("userID", userID.String()).
			Str("type", string(t)).
			Msg("Failed to record clock event")
		return nil, err
	}

	s.logger.Info().
		Str("userID", userID.String()).
		Str("type", string(t)).
		Msg("Clock event recorded")
	resp := dto.ToClockEventResponse(e)
	return &resp, nil
}

// VisibleEvents returns every event of the last days the caller may see, newest first
func (s *clockServiceImpl) VisibleEvents(ctx context.Context, days int) ([]dto.ClockEventResponse, error) {
	return s.since(ctx, nil, days)
}

// EventsForUser returns one user's events of the last days, newest first
func (s *clockServiceImpl) EventsForUser(ctx context.Context, userID uuid.UUID, days int) ([]dto.ClockEventResponse, error) {
	return s.since(ctx, &userID, days)
}

func (s *clockServiceImpl) since(ctx context.Context, userID *uuid.UUID, days int) ([]dto.ClockEventResponse, error) {
	if days <= 0 {
		days = defaultClockDays
	}
	if days > maxClockDays {
		return nil, apperrors.NewValidationError("days", "must be at most 90")
	}

	from := s.now().AddDate(0, 0, -days)
	events, err := s.events.Since(ctx, from, userID, clockEventLimit)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("Failed to list clock events")
		return nil, err
	}
	return dto.ToClockEventResponses(events), nil
}
