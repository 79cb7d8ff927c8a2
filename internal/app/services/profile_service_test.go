package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

func newProfileService(store *fakeProfiles) ProfileService {
	return NewProfileService(store, appauth.NewAuthorizationService(store), models.NewZoneSet("north", "south"), zerolog.Nop())
}

func TestGetMyProfileRoutes(t *testing.T) {
	store := newFakeProfiles()
	svc := newProfileService(store)
	ctx := context.Background()

	me, err := svc.GetMyProfile(ctx, instructorID)
	require.NoError(t, err)
	require.NotNil(t, me.Profile)
	assert.Equal(t, "approved", me.Status)
	assert.Equal(t, "/instructor.html", me.Route)

	me, err = svc.GetMyProfile(ctx, pendingID)
	require.NoError(t, err)
	assert.Equal(t, "/pending.html", me.Route)

	me, err = svc.GetMyProfile(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, me.Profile)
	assert.Equal(t, "/signup.html", me.Route)
}

func TestUpdateMyProfile(t *testing.T) {
	store := newFakeProfiles()
	svc := newProfileService(store)

	name := "  Cleo C.  "
	phone := "+44 1234"
	updated, err := svc.UpdateMyProfile(context.Background(), clientID, &dto.UpdateProfileRequest{FullName: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Cleo C.", updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	blank := "   "
	_, err = svc.UpdateMyProfile(context.Background(), clientID, &dto.UpdateProfileRequest{FullName: &blank})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestListProfiles(t *testing.T) {
	store := newFakeProfiles()
	svc := newProfileService(store)
	ctx := context.Background()

	found, err := svc.ListProfiles(ctx, &dto.ListProfilesRequest{Role: "Instructor", Zone: "NORTH"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, instructorID, found[0].ID)
	assert.Equal(t, models.Zone("north"), store.filter.Zone)

	found, err = svc.ListProfiles(ctx, &dto.ListProfilesRequest{Query: " cleo "})
	require.NoError(t, err)
	assert.Equal(t, "cleo", store.searched)
	assert.Len(t, found, 1)

	_, err = svc.ListProfiles(ctx, &dto.ListProfilesRequest{Zone: "east"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	inZone, err := svc.UsersByZone(ctx, "south")
	require.NoError(t, err)
	require.Len(t, inZone, 1)
	assert.Equal(t, clientID, inZone[0].ID)
}

func TestStatusChangesRequireManager(t *testing.T) {
	store := newFakeProfiles()
	svc := newProfileService(store)
	ctx := context.Background()

	_, err := svc.Approve(ctx, instructorID, pendingID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
	assert.Equal(t, models.StatusPending, store.rows[pendingID].Status)

	approved, err := svc.Approve(ctx, adminID, pendingID)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)

	suspended, err := svc.Suspend(ctx, adminID, clientID)
	require.NoError(t, err)
	assert.Equal(t, "suspended", suspended.Status)

	declined, err := svc.Decline(ctx, adminID, pendingID)
	require.NoError(t, err)
	assert.Equal(t, "declined", declined.Status)

	_, err = svc.Suspend(ctx, adminID, adminID)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestViewerRequiresApproval(t *testing.T) {
	svc := newProfileService(newFakeProfiles())

	v, err := svc.Viewer(context.Background(), clientID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, v.Role)
	require.NotNil(t, v.Zone)
	assert.Equal(t, models.Zone("south"), *v.Zone)

	_, err = svc.Viewer(context.Background(), pendingID)
	assert.ErrorIs(t, err, apperrors.ErrAccountPending)
}
