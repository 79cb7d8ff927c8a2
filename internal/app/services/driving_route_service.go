package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// DrivingRouteStore is the driving_routes table
type DrivingRouteStore interface {
	List(ctx context.Context, filter models.DrivingRouteFilter) ([]*models.DrivingRoute, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.DrivingRoute, error)
	Save(ctx context.Context, route *models.DrivingRoute) (*models.DrivingRoute, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DrivingRouteService defines the interface for driving route operations
type DrivingRouteService interface {
	List(ctx context.Context, userID uuid.UUID, req *dto.ListRoutesRequest) ([]dto.RouteResponse, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*dto.RouteResponse, error)
	Save(ctx context.Context, actorID uuid.UUID, req *dto.SaveRouteRequest) (*dto.RouteResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

// drivingRouteServiceImpl implements DrivingRouteService
type drivingRouteServiceImpl struct {
	routes DrivingRouteStore
	authz  *appauth.AuthorizationService
	zones  models.ZoneSet
	logger zerolog.Logger
}

// NewDrivingRouteService creates a new DrivingRouteService
func NewDrivingRouteService(routes DrivingRouteStore, authz *appauth.AuthorizationService, zones models.ZoneSet, logger zerolog.Logger) DrivingRouteService {
	return &drivingRouteServiceImpl{
		routes: routes,
		authz:  authz,
		zones:  zones,
		logger: logger,
	}
}

// List returns the routes the caller may see, newest first
func (s *drivingRouteServiceImpl) List(ctx context.Context, userID uuid.UUID, req *dto.ListRoutesRequest) ([]dto.RouteResponse, error) {
	p, err := s.authz.RequireApproved(ctx, userID)
	if err != nil {
		return nil, err
	}
	var filter models.DrivingRouteFilter
	if req.Mine {
		filter.UserID = &p.ID
	}
	if req.Zone != "" {
		zone, err := s.zones.Parse(req.Zone)
		if err != nil {
			return nil, err
		}
		filter.Zone = zone
	}

	found, err := s.routes.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", userID.String()).Msg("Failed to list driving routes")
		return nil, err
	}
	return dto.ToRouteResponses(found), nil
}

// Get returns one route
func (s *drivingRouteServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*dto.RouteResponse, error) {
	if _, err := s.authz.RequireApproved(ctx, userID); err != nil {
		return nil, err
	}
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToRouteResponse(route)
	return &resp, nil
}

// Save creates a route owned by the caller, or replaces an existing one.
// Only the owner or a manager may replace a route.
func (s *drivingRouteServiceImpl) Save(ctx context.Context, actorID uuid.UUID, req *dto.SaveRouteRequest) (*dto.RouteResponse, error) {
	actor, err := s.authz.RequireRole(ctx, actorID, appauth.StaffRoles...)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title", "must not be blank")
	}
	if typ, _ := req.GeoJSON["type"].(string); typ == "" {
		return nil, apperrors.NewValidationError("geojson", "must be a GeoJSON object with a type")
	}

	route := &models.DrivingRoute{UserID: actor.ID, Title: title, GeoJSON: req.GeoJSON, Zone: actor.Zone}
	if req.ID != "" {
		id, err := parseID("id", req.ID)
		if err != nil {
			return nil, err
		}
		existing, err := s.owned(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		route.ID = existing.ID
		route.UserID = existing.UserID
	}
	if req.Zone != "" {
		zone, err := s.zones.Parse(req.Zone)
		if err != nil {
			return nil, err
		}
		route.Zone = &zone
	}

	saved, err := s.routes.Save(ctx, route)
	if err != nil {
		s.logger.Error().Err(err).Str("actorID", actorID.String()).Msg("Failed to save driving route")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("routeID", saved.ID.String()).
		Msg("Driving route saved")
	resp := dto.ToRouteResponse(saved)
	return &resp, nil
}

// Delete removes a route owned by the caller, or any route for managers
func (s *drivingRouteServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	actor, err := s.authz.RequireRole(ctx, actorID, appauth.StaffRoles...)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.routes.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("routeID", id.String()).Msg("Failed to delete driving route")
		return err
	}
	s.logger.Info().Str("actorID", actorID.String()).Str("routeID", id.String()).Msg("Driving route deleted")
	return nil
}

func (s *drivingRouteServiceImpl) owned(ctx context.Context, actor *models.Profile, id uuid.UUID) (*models.DrivingRoute, error) {
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if route.UserID != actor.ID && !appauth.HasRole(actor.Role, appauth.ManagerRoles...) {
		return nil, apperrors.NewForbiddenError("you can only change your own routes")
	}
	return route, nil
}
