package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// ScheduleStore is the schedules table
type ScheduleStore interface {
	Create(ctx context.Context, s *models.Schedule) (*models.Schedule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]*models.Schedule, error)
	Transition(ctx context.Context, id uuid.UUID, t models.ScheduleTransition) (*models.Schedule, error)
	SetRoute(ctx context.Context, id uuid.UUID, routeID *uuid.UUID) (*models.Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduleService defines the interface for lesson slot operations
type ScheduleService interface {
	List(ctx context.Context, userID uuid.UUID, req *dto.ListSchedulesRequest) ([]dto.ScheduleResponse, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*dto.ScheduleResponse, error)
	CreateSlot(ctx context.Context, actorID uuid.UUID, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	Book(ctx context.Context, actorID, id uuid.UUID, req *dto.BookScheduleRequest) (*dto.ScheduleResponse, error)
	RequestCancel(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error)
	ApproveCancel(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error)
	DeclineCancel(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error)
	Reopen(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error)
	AttachRoute(ctx context.Context, actorID, id uuid.UUID, req *dto.AttachRouteRequest) (*dto.ScheduleResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

// scheduleServiceImpl implements ScheduleService
type scheduleServiceImpl struct {
	schedules ScheduleStore
	profiles  appauth.ProfileLookup
	authz     *appauth.AuthorizationService
	zones     models.ZoneSet
	logger    zerolog.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(schedules ScheduleStore, profiles appauth.ProfileLookup, authz *appauth.AuthorizationService, zones models.ZoneSet, logger zerolog.Logger) ScheduleService {
	return &scheduleServiceImpl{
		schedules: schedules,
		profiles:  profiles,
		authz:     authz,
		zones:     zones,
		logger:    logger,
	}
}

// List returns the slots the caller may see. With Mine set, clients get the
// lessons they booked, team leaders the slots they opened and everyone else
// the slots they teach.
func (s *scheduleServiceImpl) List(ctx context.Context, userID uuid.UUID, req *dto.ListSchedulesRequest) ([]dto.ScheduleResponse, error) {
	p, err := s.authz.RequireApproved(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter := models.ScheduleFilter{
		Status: models.ScheduleStatus(req.Status),
		From:   req.From,
		To:     req.To,
	}
	if req.Mine {
		switch p.Role {
		case models.RoleClient:
			filter.ClientID = &p.ID
		case models.RoleTeamLeader:
			filter.TeamLeaderID = &p.ID
		default:
			filter.InstructorID = &p.ID
		}
	}
	if req.InstructorID != "" {
		id, err := parseID("instructorId", req.InstructorID)
		if err != nil {
			return nil, err
		}
		filter.InstructorID = &id
	}
	if req.Zone != "" {
		zone, err := s.zones.Parse(req.Zone)
		if err != nil {
			return nil, err
		}
		filter.Zone = zone
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return nil, apperrors.NewValidationError("to", "must be after from")
	}

	found, err := s.schedules.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID.String()).Msg("Failed to list schedules")
		return nil, err
	}
	return dto.ToScheduleResponses(found), nil
}

// Get returns one slot
func (s *scheduleServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*dto.ScheduleResponse, error) {
	if _, err := s.authz.RequireApproved(ctx, userID); err != nil {
		return nil, err
	}
	found, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToScheduleResponse(found)
	return &resp, nil
}

// CreateSlot opens an available slot for an approved instructor. The zone
// defaults to the instructor's; a team leader opening a slot leads it.
func (s *scheduleServiceImpl) CreateSlot(ctx context.Context, actorID uuid.UUID, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	actor, err := s.authz.RequireRole(ctx, actorID, appauth.SchedulerRoles...)
	if err != nil {
		return nil, err
	}
	if !req.SlotEnd.After(req.SlotStart) {
		return nil, apperrors.NewValidationError("slotEnd", "must be after slotStart")
	}
	instructorID, err := parseID("instructorId", req.InstructorID)
	if err != nil {
		return nil, err
	}
	instructor, err := loadWithRole(ctx, s.profiles, instructorID, "instructorId", models.RoleInstructor)
	if err != nil {
		return nil, err
	}

	slot := &models.Schedule{
		InstructorID: instructor.ID,
		SlotStart:    req.SlotStart.UTC(),
		SlotEnd:      req.SlotEnd.UTC(),
		Zone:         instructor.Zone,
	}
	if req.Zone != "" {
		zone, err := s.zones.Parse(req.Zone)
		if err != nil {
			return nil, err
		}
		slot.Zone = &zone
	}
	if req.RouteID != "" {
		routeID, err := parseID("routeId", req.RouteID)
		if err != nil {
			return nil, err
		}
		slot.RouteID = &routeID
	}
	if actor.Role == models.RoleTeamLeader {
		slot.TeamLeaderID = &actor.ID
	}

	created, err := s.schedules.Create(ctx, slot)
	if err != nil {
		s.logger.Error().Err(err).
			Str("actorID", actorID.String()).
			Str("instructorID", instructorID.String()).
			Msg("Failed to create schedule")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("scheduleID", created.ID.String()).
		Time("slotStart", created.SlotStart).
		Msg("Schedule slot opened")
	resp := dto.ToScheduleResponse(created)
	return &resp, nil
}

// Book books an available slot. Clients book for themselves; schedulers may
// book on behalf of any approved client.
func (s *scheduleServiceImpl) Book(ctx context.Context, actorID, id uuid.UUID, req *dto.BookScheduleRequest) (*dto.ScheduleResponse, error) {
	actor, err := s.authz.RequireApproved(ctx, actorID)
	if err != nil {
		return nil, err
	}

	clientID := actor.ID
	if req != nil && req.ClientID != "" {
		if clientID, err = parseID("clientId", req.ClientID); err != nil {
			return nil, err
		}
	}
	if clientID == actor.ID {
		if actor.Role != models.RoleClient {
			return nil, apperrors.NewValidationError("clientId", "is required when booking for a client")
		}
	} else {
		if !appauth.HasRole(actor.Role, appauth.SchedulerRoles...) {
			return nil, apperrors.NewForbiddenError("you can only book lessons for yourself")
		}
		if _, err := loadWithRole(ctx, s.profiles, clientID, "clientId", models.RoleClient); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, actorID, id, models.BookSlot(clientID))
}

// RequestCancel asks to drop a booked lesson. The booked client and schedulers may ask.
func (s *scheduleServiceImpl) RequestCancel(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error) {
	actor, err := s.authz.RequireApproved(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !appauth.HasRole(actor.Role, appauth.SchedulerRoles...) {
		slot, err := s.schedules.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if slot.ClientID == nil || *slot.ClientID != actor.ID {
			return nil, apperrors.NewForbiddenError("only the booked client can ask to cancel")
		}
	}
	return s.transition(ctx, actorID, id, models.RequestCancellation)
}

// ApproveCancel accepts a cancellation request and releases the client
func (s *scheduleServiceImpl) ApproveCancel(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error) {
	return s.schedulerTransition(ctx, actorID, id, models.ApproveCancellation)
}

// DeclineCancel keeps the lesson booked
func (s *scheduleServiceImpl) DeclineCancel(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error) {
	return s.schedulerTransition(ctx, actorID, id, models.DeclineCancellation)
}

// Reopen makes the slot bookable again
func (s *scheduleServiceImpl) Reopen(ctx context.Context, actorID, id uuid.UUID) (*dto.ScheduleResponse, error) {
	return s.schedulerTransition(ctx, actorID, id, models.ReopenSlot)
}

func (s *scheduleServiceImpl) schedulerTransition(ctx context.Context, actorID, id uuid.UUID, t models.ScheduleTransition) (*dto.ScheduleResponse, error) {
	if _, err := s.authz.RequireRole(ctx, actorID, appauth.SchedulerRoles...); err != nil {
		return nil, err
	}
	return s.transition(ctx, actorID, id, t)
}

func (s *scheduleServiceImpl) transition(ctx context.Context, actorID, id uuid.UUID, t models.ScheduleTransition) (*dto.ScheduleResponse, error) {
	updated, err := s.schedules.Transition(ctx, id, t)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("actorID", actorID.String()).
			Str("scheduleID", id.String()).
			Str("transition", t.Name).
			Msg("Schedule transition refused")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("scheduleID", id.String()).
		Str("status", string(updated.Status)).
		Msg("Schedule updated")
	resp := dto.ToScheduleResponse(updated)
	return &resp, nil
}

// AttachRoute sets or clears the driving route of a slot
func (s *scheduleServiceImpl) AttachRoute(ctx context.Context, actorID, id uuid.UUID, req *dto.AttachRouteRequest) (*dto.ScheduleResponse, error) {
	if _, err := s.authz.RequireRole(ctx, actorID, appauth.SchedulerRoles...); err != nil {
		return nil, err
	}
	var routeID *uuid.UUID
	if req.RouteID != nil && *req.RouteID != "" {
		parsed, err := parseID("routeId", *req.RouteID)
		if err != nil {
			return nil, err
		}
		routeID = &parsed
	}

	updated, err := s.schedules.SetRoute(ctx, id, routeID)
	if err != nil {
		s.logger.Error().Err(err).Str("scheduleID", id.String()).Msg("Failed to attach route")
		return nil, err
	}
	resp := dto.ToScheduleResponse(updated)
	return &resp, nil
}

// Delete removes a slot
func (s *scheduleServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := s.authz.RequireRole(ctx, actorID, appauth.SchedulerRoles...); err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("scheduleID", id.String()).Msg("Failed to delete schedule")
		return err
	}
	s.logger.Info().Str("actorID", actorID.String()).Str("scheduleID", id.String()).Msg("Schedule deleted")
	return nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError(field, "must be a UUID")
	}
	return id, nil
}

// loadWithRole loads an approved profile that must hold role
func loadWithRole(ctx context.Context, profiles appauth.ProfileLookup, id uuid.UUID, field string, role models.Role) (*models.Profile, error) {
	p, err := profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != role || appauth.CheckStatus(p) != nil {
		return nil, apperrors.NewValidationError(field, "must be an approved "+string(role))
	}
	return p, nil
}
