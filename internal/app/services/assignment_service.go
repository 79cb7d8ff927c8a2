package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
)

// AssignmentStore is the assignments table
type AssignmentStore interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]*models.Assignment, error)
	AssignInstructor(ctx context.Context, instructorID uuid.UUID, teamLeaderID *uuid.UUID, zone *models.Zone) (*models.Assignment, error)
	AssignClient(ctx context.Context, clientID, instructorID uuid.UUID, zone *models.Zone) (*models.Assignment, error)
	UnassignClient(ctx context.Context, clientID uuid.UUID) error
	UnassignInstructor(ctx context.Context, instructorID uuid.UUID) error
}

// AssignmentService defines the interface for team and client assignment operations
type AssignmentService interface {
	List(ctx context.Context, userID uuid.UUID, req *dto.ListAssignmentsRequest) ([]dto.AssignmentResponse, error)
	AssignInstructor(ctx context.Context, actorID uuid.UUID, req *dto.AssignInstructorRequest) (*dto.AssignmentResponse, error)
	AssignClient(ctx context.Context, actorID uuid.UUID, req *dto.AssignClientRequest) (*dto.AssignmentResponse, error)
	UnassignClient(ctx context.Context, actorID, clientID uuid.UUID) error
	UnassignInstructor(ctx context.Context, actorID, instructorID uuid.UUID) error
}

// assignmentServiceImpl implements AssignmentService
type assignmentServiceImpl struct {
	assignments AssignmentStore
	profiles    appauth.ProfileLookup
	authz       *appauth.AuthorizationService
	zones       models.ZoneSet
	logger      zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(assignments AssignmentStore, profiles appauth.ProfileLookup, authz *appauth.AuthorizationService, zones models.ZoneSet, logger zerolog.Logger) AssignmentService {
	return &assignmentServiceImpl{
		assignments: assignments,
		profiles:    profiles,
		authz:       authz,
		zones:       zones,
		logger:      logger,
	}
}

// List returns the assignments the caller may see. Mine narrows the list to
// rows naming the caller.
func (s *assignmentServiceImpl) List(ctx context.Context, userID uuid.UUID, req *dto.ListAssignmentsRequest) ([]dto.AssignmentResponse, error) {
	p, err := s.authz.RequireApproved(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter := models.AssignmentFilter{Kind: models.AssignmentKind(req.Kind)}
	if req.Mine {
		switch p.Role {
		case models.RoleClient:
			filter.ClientID = &p.ID
		case models.RoleInstructor:
			filter.InstructorID = &p.ID
		default:
			filter.TeamLeaderID = &p.ID
		}
	}
	if req.Zone != "" {
		zone, err := s.zones.Parse(req.Zone)
		if err != nil {
			return nil, err
		}
		filter.Zone = zone
	}

	found, err := s.assignments.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID.String()).Msg("Failed to list assignments")
		return nil, err
	}
	return dto.ToAssignmentResponses(found), nil
}

// AssignInstructor places an instructor under a team leader. Without a team
// leader the instructor row is kept unled. The zone defaults to the instructor's.
func (s *assignmentServiceImpl) AssignInstructor(ctx context.Context, actorID uuid.UUID, req *dto.AssignInstructorRequest) (*dto.AssignmentResponse, error) {
	if _, err := s.authz.RequireManager(ctx, actorID); err != nil {
		return nil, err
	}
	instructorID, err := parseID("instructorId", req.InstructorID)
	if err != nil {
		return nil, err
	}
	instructor, err := loadWithRole(ctx, s.profiles, instructorID, "instructorId", models.RoleInstructor)
	if err != nil {
		return nil, err
	}

	var teamLeaderID *uuid.UUID
	if req.TeamLeaderID != "" {
		id, err := parseID("teamLeaderId", req.TeamLeaderID)
		if err != nil {
			return nil, err
		}
		if _, err := loadWithRole(ctx, s.profiles, id, "teamLeaderId", models.RoleTeamLeader); err != nil {
			return nil, err
		}
		teamLeaderID = &id
	}
	zone, err := s.zoneOr(req.Zone, instructor.Zone)
	if err != nil {
		return nil, err
	}

	a, err := s.assignments.AssignInstructor(ctx, instructorID, teamLeaderID, zone)
	if err != nil {
		s.logger.Error().Err(err).Str("instructorID", instructorID.String()).Msg("Failed to assign instructor")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("instructorID", instructorID.String()).
		Msg("Instructor assigned")
	resp := dto.ToAssignmentResponse(a)
	return &resp, nil
}

// AssignClient places a client with an instructor. A zone in the request also
// moves the client's profile to that zone.
func (s *assignmentServiceImpl) AssignClient(ctx context.Context, actorID uuid.UUID, req *dto.AssignClientRequest) (*dto.AssignmentResponse, error) {
	if _, err := s.authz.RequireRole(ctx, actorID, appauth.SchedulerRoles...); err != nil {
		return nil, err
	}
	clientID, err := parseID("clientId", req.ClientID)
	if err != nil {
		return nil, err
	}
	instructorID, err := parseID("instructorId", req.InstructorID)
	if err != nil {
		return nil, err
	}
	if _, err := loadWithRole(ctx, s.profiles, clientID, "clientId", models.RoleClient); err != nil {
		return nil, err
	}
	if _, err := loadWithRole(ctx, s.profiles, instructorID, "instructorId", models.RoleInstructor); err != nil {
		return nil, err
	}
	zone, err := s.zoneOr(req.Zone, nil)
	if err != nil {
		return nil, err
	}

	a, err := s.assignments.AssignClient(ctx, clientID, instructorID, zone)
	if err != nil {
		s.logger.Error().Err(err).Str("clientID", clientID.String()).Msg("Failed to assign client")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("clientID", clientID.String()).
		Str("instructorID", instructorID.String()).
		Msg("Client assigned")
	resp := dto.ToAssignmentResponse(a)
	return &resp, nil
}

// UnassignClient removes a client's assignment
func (s *assignmentServiceImpl) UnassignClient(ctx context.Context, actorID, clientID uuid.UUID) error {
	if _, err := s.authz.RequireRole(ctx, actorID, appauth.SchedulerRoles...); err != nil {
		return err
	}
	if err := s.assignments.UnassignClient(ctx, clientID); err != nil {
		return err
	}
	s.logger.Info().Str("actorID", actorID.String()).Str("clientID", clientID.String()).Msg("Client unassigned")
	return nil
}

// UnassignInstructor removes an instructor from their team leader
func (s *assignmentServiceImpl) UnassignInstructor(ctx context.Context, actorID, instructorID uuid.UUID) error {
	if _, err := s.authz.RequireManager(ctx, actorID); err != nil {
		return err
	}
	if err := s.assignments.UnassignInstructor(ctx, instructorID); err != nil {
		return err
	}
	s.logger.Info().Str("actorID", actorID.String()).Str("instructorID", instructorID.String()).Msg("Instructor unassigned")
	return nil
}

func (s *assignmentServiceImpl) zoneOr(raw string, fallback *models.Zone) (*models.Zone, error) {
	if raw == "" {
		return fallback, nil
	}
	zone, err := s.zones.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &zone, nil
}
