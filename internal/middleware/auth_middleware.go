package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/auth"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID  = "userID"
	ContextEmail   = "email"
	ContextProfile = "profile"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	authz      *appauth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, authz *appauth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authz:      authz,
	}
}

// JWTAuth verifies the session token and publishes the caller's identity to the
// request context, where the database layer picks it up
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Browsers cannot set headers on WebSocket upgrades, so the token may come as a query parameter
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			authHeader = c.Query("access_token")
		}

		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Invalid token format")

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed")
			errorDetail = errorDetail.WithDetails(errorDetails)

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		identity, err := auth.NewIdentity(claims)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed")
			errorDetail = errorDetail.WithDetails("Token subject is not a user id")

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextEmail, identity.Email)

		c.Next()
	}
}

// ApprovalRequired only lets approved profiles through. Must run after JWTAuth.
func (m *AuthMiddleware) ApprovalRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			HandleAPIError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		profile, err := m.authz.RequireApproved(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrProfileNotFound) {
				err = apperrors.ErrAccountPending
			}
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextProfile, profile)
		c.Next()
	}
}

// RoleRequired only lets approved profiles holding one of roles through
func (m *AuthMiddleware) RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			HandleAPIError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		profile, err := m.authz.RequireRole(c.Request.Context(), userID, roles...)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextProfile, profile)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by JWTAuth
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// CurrentProfile returns the profile loaded by ApprovalRequired or RoleRequired
func CurrentProfile(c *gin.Context) (*models.Profile, bool) {
	v, exists := c.Get(ContextProfile)
	if !exists {
		return nil, false
	}
	p, ok := v.(*models.Profile)
	return p, ok
}
