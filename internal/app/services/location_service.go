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

// LocationStore is the live_locations table
type LocationStore interface {
	Upsert(ctx context.Context, loc *models.LiveLocation) (*models.LiveLocation, error)
	Visible(ctx context.Context) ([]*models.LiveLocation, error)
	ForUser(ctx context.Context, userID uuid.UUID) (*models.LiveLocation, error)
}

// LocationService defines the interface for live location operations
type LocationService interface {
	UpdateMyLocation(ctx context.Context, userID uuid.UUID, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error)
	VisibleLocations(ctx context.Context) ([]dto.LocationResponse, error)
	UserLocation(ctx context.Context, userID uuid.UUID) (*dto.LocationResponse, error)
}

// locationServiceImpl implements LocationService
type locationServiceImpl struct {
	locations LocationStore
	profiles  appauth.ProfileLookup
	logger    zerolog.Logger
}

// NewLocationService creates a new LocationService
func NewLocationService(locations LocationStore, profiles appauth.ProfileLookup, logger zerolog.Logger) LocationService {
	return &locationServiceImpl{
		locations: locations,
		profiles:  profiles,
		logger:    logger,
	}
}

// UpdateMyLocation writes the caller's position. Role and zone are copied from
// the profile so the row is visible to the same audience as the user.
func (s *locationServiceImpl) UpdateMyLocation(ctx context.Context, userID uuid.UUID, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	if req.Lat == nil || req.Lng == nil {
		return nil, apperrors.NewValidationError("lat", "lat and lng are required")
	}
	c := req.ToModel()
	if c.Lat < -90 || c.Lat > 90 {
		return nil, apperrors.NewValidationError("lat", "must be between -90 and 90")
	}
	if c.Lng < -180 || c.Lng > 180 {
		return nil, apperrors.NewValidationError("lng", "must be between -180 and 180")
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID.String()).Msg("Failed to load profile for location update")
		return nil, err
	}

	loc, err := s.locations.Upsert(ctx, &models.LiveLocation{
		UserID:   userID,
		Role:     p.Role,
		Zone:     p.Zone,
		Lat:      &c.Lat,
		Lng:      &c.Lng,
		Accuracy: c.Accuracy,
		Heading:  c.Heading,
		Speed:    c.Speed,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID.String()).Msg("Failed to save location")
		return nil, err
	}

	s.logger.Debug().Str("userID", userID.String()).Msg("Location updated")
	resp := dto.ToLocationResponse(loc)
	return &resp, nil
}

// VisibleLocations returns every position the caller may see
func (s *locationServiceImpl) VisibleLocations(ctx context.Context) ([]dto.LocationResponse, error) {
	locs, err := s.locations.Visible(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list locations")
		return nil, err
	}
	return dto.ToLocationResponses(locs), nil
}

// UserLocation returns the last position of one user
func (s *locationServiceImpl) UserLocation(ctx context.Context, userID uuid.UUID) (*dto.LocationResponse, error) {
	loc, err := s.locations.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToLocationResponse(loc)
	return &resp, nil
}
