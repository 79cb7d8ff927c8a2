package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/messaging"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

const searchLimit = 50

// ProfileStore is the profiles table
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Profile, error)
	List(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, error)
	Search(ctx context.Context, q string, limit uint64) ([]*models.Profile, error)
}

// ProfileService defines the interface for profile operations
type ProfileService interface {
	GetMyProfile(ctx context.Context, userID uuid.UUID) (*dto.MyProfileResponse, error)
	UpdateMyProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error)
	ListProfiles(ctx context.Context, req *dto.ListProfilesRequest) ([]dto.ProfileResponse, error)
	UsersByZone(ctx context.Context, zone string) ([]dto.ProfileResponse, error)
	Approve(ctx context.Context, actorID, id uuid.UUID) (*dto.ProfileResponse, error)
	Suspend(ctx context.Context, actorID, id uuid.UUID) (*dto.ProfileResponse, error)
	Decline(ctx context.Context, actorID, id uuid.UUID) (*dto.ProfileResponse, error)
	Viewer(ctx context.Context, userID uuid.UUID) (messaging.Viewer, error)
}

// profileServiceImpl implements ProfileService
type profileServiceImpl struct {
	profiles ProfileStore
	authz    *appauth.AuthorizationService
	zones    models.ZoneSet
	logger   zerolog.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(profiles ProfileStore, authz *appauth.AuthorizationService, zones models.ZoneSet, logger zerolog.Logger) ProfileService {
	return &profileServiceImpl{
		profiles: profiles,
		authz:    authz,
		zones:    zones,
		logger:   logger,
	}
}

// GetMyProfile returns the caller's profile with the page the dashboards should open.
// A missing profile row is not an error: the caller still has to sign up.
func (s *profileServiceImpl) GetMyProfile(ctx context.Context, userID uuid.UUID) (*dto.MyProfileResponse, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProfileNotFound) {
			s.logger.Debug().Str("userID", userID.String()).Msg("No profile yet, routing to sign-up")
			return &dto.MyProfileResponse{Route: models.PostLoginRoute(nil)}, nil
		}
		s.logger.Error().Err(err).Str("userID", userID.String()).Msg("Failed to get profile")
		return nil, err
	}

	resp := dto.ToProfileResponse(p)
	return &dto.MyProfileResponse{
		Profile: &resp,
		Status:  string(p.Status),
		Route:   models.PostLoginRoute(p),
	}, nil
}

// UpdateMyProfile changes the caller's self-editable fields
func (s *profileServiceImpl) UpdateMyProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	update := req.ToModel()
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, apperrors.NewValidationError("fullName", "must not be blank")
		}
		update.FullName = &name
	}

	p, err := s.profiles.Update(ctx, userID, update)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID.String()).Msg("Failed to update profile")
		return nil, err
	}

	s.logger.Info().Str("userID", userID.String()).Msg("Profile updated")
	resp := dto.ToProfileResponse(p)
	return &resp, nil
}

// GetProfile returns a profile by id
func (s *profileServiceImpl) GetProfile(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToProfileResponse(p)
	return &resp, nil
}

// ListProfiles filters the directory, or searches it by name and email when a query is given
func (s *profileServiceImpl) ListProfiles(ctx context.Context, req *dto.ListProfilesRequest) ([]dto.ProfileResponse, error) {
	if q := strings.TrimSpace(req.Query); q != "" {
		found, err := s.profiles.Search(ctx, q, searchLimit)
		if err != nil {
			s.logger.Error().Err(err).Str("query", q).Msg("Failed to search profiles")
			return nil, err
		}
		return dto.ToProfileResponses(found), nil
	}

	var filter models.ProfileFilter
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		filter.Role = role
	}
	if req.Status != "" {
		status, err := models.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	if req.Zone != "" {
		zone, err := s.zones.Parse(req.Zone)
		if err != nil {
			return nil, err
		}
		filter.Zone = zone
	}

	found, err := s.profiles.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Interface("filter", filter).Msg("Failed to list profiles")
		return nil, err
	}
	return dto.ToProfileResponses(found), nil
}

// UsersByZone lists the profiles in a zone
func (s *profileServiceImpl) UsersByZone(ctx context.Context, zone string) ([]dto.ProfileResponse, error) {
	return s.ListProfiles(ctx, &dto.ListProfilesRequest{Zone: zone})
}

// Approve lets a pending or declined account in
func (s *profileServiceImpl) Approve(ctx context.Context, actorID, id uuid.UUID) (*dto.ProfileResponse, error) {
	return s.setStatus(ctx, actorID, id, models.StatusApproved)
}

// Suspend locks an account out
func (s *profileServiceImpl) Suspend(ctx context.Context, actorID, id uuid.UUID) (*dto.ProfileResponse, error) {
	return s.setStatus(ctx, actorID, id, models.StatusSuspended)
}

// Decline rejects a sign-up
func (s *profileServiceImpl) Decline(ctx context.Context, actorID, id uuid.UUID) (*dto.ProfileResponse, error) {
	return s.setStatus(ctx, actorID, id, models.StatusDeclined)
}

func (s *profileServiceImpl) setStatus(ctx context.Context, actorID, id uuid.UUID, status models.Status) (*dto.ProfileResponse, error) {
	if actorID == id {
		return nil, apperrors.NewValidationError("id", "cannot change your own status")
	}
	if _, err := s.authz.RequireManager(ctx, actorID); err != nil {
		return nil, err
	}

	p, err := s.profiles.SetStatus(ctx, id, status)
	if err != nil {
		s.logger.Error().Err(err).
			Str("profileID", id.String()).
			Str("status", string(status)).
			Msg("Failed to change profile status")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("profileID", id.String()).
		Str("status", string(status)).
		Msg("Profile status changed")
	resp := dto.ToProfileResponse(p)
	return &resp, nil
}

// Viewer resolves the identity used for realtime visibility decisions
func (s *profileServiceImpl) Viewer(ctx context.Context, userID uuid.UUID) (messaging.Viewer, error) {
	p, err := s.authz.RequireApproved(ctx, userID)
	if err != nil {
		return messaging.Viewer{}, err
	}
	return messaging.ViewerFromProfile(p), nil
}
