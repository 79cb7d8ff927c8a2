package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/logger"
)

// ManagerRoles may change the approval status of other profiles
var ManagerRoles = []models.Role{models.RoleAdmin, models.RoleSupervisor, models.RoleManager}

// SchedulerRoles may open, cancel and reassign lesson slots and place clients
var SchedulerRoles = []models.Role{models.RoleAdmin, models.RoleSupervisor, models.RoleManager, models.RoleTeamLeader}

// StaffRoles are every role that teaches or manages
var StaffRoles = append([]models.Role{models.RoleInstructor}, SchedulerRoles...)

// ReviewerRoles may approve learning materials
var ReviewerRoles = []models.Role{models.RoleAdmin, models.RoleSupervisor}

// ProfileLookup loads a profile by user id
type ProfileLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// AuthorizationService decides what a signed-in user may do based on their profile
type AuthorizationService struct {
	profiles ProfileLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(profiles ProfileLookup) *AuthorizationService {
	return &AuthorizationService{profiles: profiles}
}

// CheckStatus maps a profile's approval state onto an access error
func CheckStatus(p *models.Profile) error {
	switch p.Status {
	case models.StatusApproved:
		return nil
	case models.StatusSuspended:
		return apperrors.ErrAccountDisabled
	default:
		return apperrors.ErrAccountPending
	}
}

// HasRole reports whether role is one of allowed
func HasRole(role models.Role, allowed ...models.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// RequireApproved returns the caller's profile when it exists and is approved
func (s *AuthorizationService) RequireApproved(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			logger.Error().Err(err).Str("userID", userID.String()).Msg("Error loading profile for authorization")
		}
		return nil, err
	}
	if err := CheckStatus(p); err != nil {
		logger.Debug().
			Str("userID", userID.String()).
			Str("status", string(p.Status)).
			Msg("Access refused for unapproved profile")
		return nil, err
	}
	return p, nil
}

// RequireRole returns the caller's profile when it is approved and holds one of roles
func (s *AuthorizationService) RequireRole(ctx context.Context, userID uuid.UUID, roles ...models.Role) (*models.Profile, error) {
	p, err := s.RequireApproved(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !HasRole(p.Role, roles...) {
		logger.Warn().
			Str("userID", userID.String()).
			Str("role", string(p.Role)).
			Msg("Role not allowed for this action")
		return nil, apperrors.NewForbiddenError("your role does not allow this action")
	}
	return p, nil
}

// RequireManager is RequireRole for ManagerRoles
func (s *AuthorizationService) RequireManager(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.RequireRole(ctx, userID, ManagerRoles...)
}
