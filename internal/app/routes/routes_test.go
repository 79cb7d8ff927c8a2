package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/middleware"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/auth"
)

type profiles map[uuid.UUID]*models.Profile

func (p profiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if pr, ok := p[id]; ok {
		return pr, nil
	}
	return nil, apperrors.ErrProfileNotFound
}

func newEngine(t *testing.T) (*gin.Engine, *auth.JWTService, uuid.UUID, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	instructor, pending := uuid.New(), uuid.New()
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "routes-secret"})
	authz := appauth.NewAuthorizationService(profiles{
		instructor: {ID: instructor, Role: models.RoleInstructor, Status: models.StatusApproved},
		pending:    {ID: pending, Role: models.RoleClient, Status: models.StatusPending},
	})

	// Handlers are never reached in these tests: every request is stopped by middleware
	r := gin.New()
	SetupRouter(r, Controllers{}, middleware.NewAuthMiddleware(jwtService, authz))
	return r, jwtService, instructor, pending
}

func TestRoutesAreRegistered(t *testing.T) {
	r, _, _, _ := newEngine(t)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/profiles/me",
		"PATCH /api/v1/profiles/me",
		"GET /api/v1/profiles/me/approval",
		"GET /api/v1/profiles",
		"GET /api/v1/profiles/:id",
		"POST /api/v1/profiles/:id/approve",
		"POST /api/v1/profiles/:id/suspend",
		"POST /api/v1/profiles/:id/decline",
		"GET /api/v1/zones/:zone/profiles",
		"POST /api/v1/messages/direct",
		"POST /api/v1/messages/role",
		"POST /api/v1/messages/zone",
		"POST /api/v1/messages/all",
		"POST /api/v1/messages/read",
		"POST /api/v1/messages/:id/read",
		"GET /api/v1/threads/user/:userId",
		"GET /api/v1/threads/role/:role/:zone",
		"GET /api/v1/threads/zone/:zone",
		"GET /api/v1/threads/all",
		"POST /api/v1/clock/:type",
		"GET /api/v1/clock/events",
		"GET /api/v1/locations",
		"PUT /api/v1/locations/me",
		"GET /api/v1/locations/:userId",
		"GET /api/v1/messages/ws",
		"GET /api/v1/schedules",
		"POST /api/v1/schedules",
		"GET /api/v1/schedules/:id",
		"DELETE /api/v1/schedules/:id",
		"POST /api/v1/schedules/:id/book",
		"POST /api/v1/schedules/:id/cancel-request",
		"POST /api/v1/schedules/:id/cancel-approve",
		"POST /api/v1/schedules/:id/cancel-decline",
		"POST /api/v1/schedules/:id/reopen",
		"PUT /api/v1/schedules/:id/route",
		"GET /api/v1/assignments",
		"PUT /api/v1/assignments/clients",
		"DELETE /api/v1/assignments/clients/:clientId",
		"PUT /api/v1/assignments/instructors",
		"DELETE /api/v1/assignments/instructors/:instructorId",
		"GET /api/v1/driving-routes",
		"PUT /api/v1/driving-routes",
		"GET /api/v1/driving-routes/:id",
		"DELETE /api/v1/driving-routes/:id",
		"GET /api/v1/materials",
		"GET /api/v1/materials/pending",
		"POST /api/v1/materials",
		"PATCH /api/v1/materials/:id",
		"POST /api/v1/materials/:id/review",
		"DELETE /api/v1/materials/:id",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestRoutesRequireAuthenticationAndApproval(t *testing.T) {
	r, jwtService, instructor, pending := newEngine(t)

	call := func(method, path string, user uuid.UUID) int {
		req := httptest.NewRequest(method, path, nil)
		if user != uuid.Nil {
			token, err := jwtService.GenerateToken(user, "", time.Hour)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/v1/profiles/me", uuid.Nil))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/v1/threads/all", uuid.Nil))
	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/api/v1/threads/all", pending))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/api/v1/messages/all", pending))
	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/api/v1/messages/ws", pending))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/api/v1/profiles/"+pending.String()+"/approve", instructor))
	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/api/v1/schedules", pending))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPut, "/api/v1/assignments/instructors", instructor))
	assert.Equal(t, http.StatusForbidden, call(http.MethodDelete, "/api/v1/assignments/instructors/"+instructor.String(), instructor))
}
