package services

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// MaterialStore is the materials table
type MaterialStore interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]*models.Material, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Material, error)
	Create(ctx context.Context, m *models.Material) (*models.Material, error)
	Update(ctx context.Context, id uuid.UUID, u models.MaterialUpdate) (*models.Material, error)
	SetReviewed(ctx context.Context, id uuid.UUID, reviewed bool) (*models.Material, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MaterialService defines the interface for learning material operations
type MaterialService interface {
	Visible(ctx context.Context, userID uuid.UUID) ([]dto.MaterialResponse, error)
	Pending(ctx context.Context, userID uuid.UUID) ([]dto.MaterialResponse, error)
	Create(ctx context.Context, actorID uuid.UUID, req *dto.CreateMaterialRequest) (*dto.MaterialResponse, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req *dto.UpdateMaterialRequest) (*dto.MaterialResponse, error)
	SetReviewed(ctx context.Context, actorID, id uuid.UUID, req *dto.ReviewMaterialRequest) (*dto.MaterialResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

// materialServiceImpl implements MaterialService
type materialServiceImpl struct {
	materials MaterialStore
	authz     *appauth.AuthorizationService
	zones     models.ZoneSet
	logger    zerolog.Logger
}

// NewMaterialService creates a new MaterialService
func NewMaterialService(materials MaterialStore, authz *appauth.AuthorizationService, zones models.ZoneSet, logger zerolog.Logger) MaterialService {
	return &materialServiceImpl{
		materials: materials,
		authz:     authz,
		zones:     zones,
		logger:    logger,
	}
}

// Visible returns the reviewed materials meant for the caller. Reviewers see
// every reviewed material; others only those scoped to their role and zone.
func (s *materialServiceImpl) Visible(ctx context.Context, userID uuid.UUID) ([]dto.MaterialResponse, error) {
	p, err := s.authz.RequireApproved(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviewed := true
	filter := models.MaterialFilter{Reviewed: &reviewed}
	if !appauth.HasRole(p.Role, appauth.ReviewerRoles...) {
		filter.Role = p.Role
		if p.Zone != nil {
			filter.Zone = *p.Zone
		}
	}
	return s.list(ctx, filter)
}

// Pending returns the review queue
func (s *materialServiceImpl) Pending(ctx context.Context, userID uuid.UUID) ([]dto.MaterialResponse, error) {
	if _, err := s.authz.RequireRole(ctx, userID, appauth.ReviewerRoles...); err != nil {
		return nil, err
	}
	reviewed := false
	return s.list(ctx, models.MaterialFilter{Reviewed: &reviewed})
}

func (s *materialServiceImpl) list(ctx context.Context, filter models.MaterialFilter) ([]dto.MaterialResponse, error) {
	found, err := s.materials.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Interface("filter", filter).Msg("Failed to list materials")
		return nil, err
	}
	return dto.ToMaterialResponses(found), nil
}

// Create registers a material for review. Links must be http(s) URLs; files
// name an object key relative to the materials bucket.
func (s *materialServiceImpl) Create(ctx context.Context, actorID uuid.UUID, req *dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	actor, err := s.authz.RequireRole(ctx, actorID, appauth.StaffRoles...)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title", "must not be blank")
	}
	typ := models.MaterialType(req.Type)
	if !typ.Valid() {
		return nil, apperrors.NewValidationError("type", "must be file or link")
	}
	storagePath, err := checkStoragePath(typ, req.StoragePath)
	if err != nil {
		return nil, err
	}
	scope, err := parseScope(req.RoleScope)
	if err != nil {
		return nil, err
	}

	m := &models.Material{
		Title:       title,
		Type:        typ,
		StoragePath: &storagePath,
		RoleScope:   scope,
		CreatedBy:   &actor.ID,
	}
	if req.Zone != "" {
		zone, err := s.zones.Parse(req.Zone)
		if err != nil {
			return nil, err
		}
		m.Zone = &zone
	}

	created, err := s.materials.Create(ctx, m)
	if err != nil {
		s.logger.Error().Err(err).Str("actorID", actorID.String()).Msg("Failed to create material")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("materialID", created.ID.String()).
		Str("type", string(created.Type)).
		Msg("Material submitted for review")
	resp := dto.ToMaterialResponse(created)
	return &resp, nil
}

// Update edits title, audience and zone. The author and reviewers may edit.
func (s *materialServiceImpl) Update(ctx context.Context, actorID, id uuid.UUID, req *dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	actor, err := s.authz.RequireRole(ctx, actorID, appauth.StaffRoles...)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditor(ctx, actor, id); err != nil {
		return nil, err
	}

	var u models.MaterialUpdate
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title", "must not be blank")
		}
		u.Title = &title
	}
	if req.RoleScope != nil {
		if u.RoleScope, err = parseScope(req.RoleScope); err != nil {
			return nil, err
		}
	}
	if req.Zone != nil {
		if strings.TrimSpace(*req.Zone) == "" {
			u.ClearZone = true
		} else {
			zone, err := s.zones.Parse(*req.Zone)
			if err != nil {
				return nil, err
			}
			u.Zone = &zone
		}
	}

	updated, err := s.materials.Update(ctx, id, u)
	if err != nil {
		s.logger.Error().Err(err).Str("materialID", id.String()).Msg("Failed to update material")
		return nil, err
	}
	resp := dto.ToMaterialResponse(updated)
	return &resp, nil
}

// SetReviewed publishes a material or pulls it back into the review queue
func (s *materialServiceImpl) SetReviewed(ctx context.Context, actorID, id uuid.UUID, req *dto.ReviewMaterialRequest) (*dto.MaterialResponse, error) {
	if _, err := s.authz.RequireRole(ctx, actorID, appauth.ReviewerRoles...); err != nil {
		return nil, err
	}
	reviewed := req.Reviewed != nil && *req.Reviewed

	updated, err := s.materials.SetReviewed(ctx, id, reviewed)
	if err != nil {
		s.logger.Error().Err(err).Str("materialID", id.String()).Msg("Failed to review material")
		return nil, err
	}

	s.logger.Info().
		Str("actorID", actorID.String()).
		Str("materialID", id.String()).
		Bool("reviewed", reviewed).
		Msg("Material reviewed")
	resp := dto.ToMaterialResponse(updated)
	return &resp, nil
}

// Delete removes a material. The author and reviewers may delete.
func (s *materialServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	actor, err := s.authz.RequireRole(ctx, actorID, appauth.StaffRoles...)
	if err != nil {
		return err
	}
	if err := s.checkEditor(ctx, actor, id); err != nil {
		return err
	}
	if err := s.materials.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("materialID", id.String()).Msg("Failed to delete material")
		return err
	}
	s.logger.Info().Str("actorID", actorID.String()).Str("materialID", id.String()).Msg("Material deleted")
	return nil
}

func (s *materialServiceImpl) checkEditor(ctx context.Context, actor *models.Profile, id uuid.UUID) error {
	if appauth.HasRole(actor.Role, appauth.ReviewerRoles...) {
		return nil
	}
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.CreatedBy == nil || *m.CreatedBy != actor.ID {
		return apperrors.NewForbiddenError("you can only change materials you added")
	}
	return nil
}

func checkStoragePath(typ models.MaterialType, raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if typ == models.MaterialLink {
		u, err := url.Parse(p)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", apperrors.NewValidationError("storagePath", "must be an http(s) URL")
		}
		return p, nil
	}
	clean := path.Clean(p)
	if p == "" || path.IsAbs(p) || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", apperrors.NewValidationError("storagePath", "must be a relative object key")
	}
	return clean, nil
}

func parseScope(raw []string) ([]models.Role, error) {
	scope := make([]models.Role, 0, len(raw))
	seen := make(map[models.Role]bool, len(raw))
	for _, r := range raw {
		role, err := models.ParseRole(r)
		if err != nil {
			return nil, err
		}
		if !seen[role] {
			seen[role] = true
			scope = append(scope, role)
		}
	}
	return scope, nil
}
