package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

var testZones = models.NewZoneSet("north", "south")

func newScheduleService(profiles *fakeProfiles, schedules *fakeSchedules) ScheduleService {
	return NewScheduleService(schedules, profiles, appauth.NewAuthorizationService(profiles), testZones, zerolog.Nop())
}

func openSlot(t *testing.T, svc ScheduleService, actor uuid.UUID) *dto.ScheduleResponse {
	t.Helper()
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	slot, err := svc.CreateSlot(context.Background(), actor, &dto.CreateScheduleRequest{
		InstructorID: instructorID.String(),
		SlotStart:    start,
		SlotEnd:      start.Add(time.Hour),
	})
	require.NoError(t, err)
	return slot
}

func TestCreateSlot(t *testing.T) {
	profiles := newFakeProfiles()
	svc := newScheduleService(profiles, newFakeSchedules())
	ctx := context.Background()

	slot := openSlot(t, svc, leadID)
	assert.Equal(t, "available", slot.Status)
	require.NotNil(t, slot.Zone)
	assert.Equal(t, "north", *slot.Zone, "zone defaults to the instructor's")
	require.NotNil(t, slot.TeamLeaderID)
	assert.Equal(t, leadID, *slot.TeamLeaderID)

	slot = openSlot(t, svc, adminID)
	assert.Nil(t, slot.TeamLeaderID)

	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	_, err := svc.CreateSlot(ctx, adminID, &dto.CreateScheduleRequest{InstructorID: instructorID.String(), SlotStart: start, SlotEnd: start})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CreateSlot(ctx, adminID, &dto.CreateScheduleRequest{InstructorID: clientID.String(), SlotStart: start, SlotEnd: start.Add(time.Hour)})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "slots belong to instructors")

	_, err = svc.CreateSlot(ctx, instructorID, &dto.CreateScheduleRequest{InstructorID: instructorID.String(), SlotStart: start, SlotEnd: start.Add(time.Hour)})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestScheduleBookingLifecycle(t *testing.T) {
	profiles := newFakeProfiles()
	svc := newScheduleService(profiles, newFakeSchedules())
	ctx := context.Background()
	slot := openSlot(t, svc, adminID)

	booked, err := svc.Book(ctx, clientID, slot.ID, &dto.BookScheduleRequest{})
	require.NoError(t, err)
	assert.Equal(t, "booked", booked.Status)
	require.NotNil(t, booked.ClientID)
	assert.Equal(t, clientID, *booked.ClientID)

	_, err = svc.Book(ctx, clientID, slot.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "a booked slot cannot be booked again")

	_, err = svc.ApproveCancel(ctx, adminID, slot.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "nothing to approve before a request")

	requested, err := svc.RequestCancel(ctx, clientID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancel_requested", requested.Status)

	declined, err := svc.DeclineCancel(ctx, leadID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "booked", declined.Status)

	_, err = svc.RequestCancel(ctx, clientID, slot.ID)
	require.NoError(t, err)
	cancelled, err := svc.ApproveCancel(ctx, adminID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Nil(t, cancelled.ClientID)

	reopened, err := svc.Reopen(ctx, adminID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "available", reopened.Status)
}

func TestBookingPermissions(t *testing.T) {
	profiles := newFakeProfiles()
	svc := newScheduleService(profiles, newFakeSchedules())
	ctx := context.Background()
	slot := openSlot(t, svc, adminID)

	_, err := svc.Book(ctx, instructorID, slot.ID, &dto.BookScheduleRequest{ClientID: clientID.String()})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	_, err = svc.Book(ctx, instructorID, slot.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Book(ctx, pendingID, slot.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrAccountPending)

	_, err = svc.Book(ctx, leadID, slot.ID, &dto.BookScheduleRequest{ClientID: pendingID.String()})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "only approved clients can be booked")

	booked, err := svc.Book(ctx, leadID, slot.ID, &dto.BookScheduleRequest{ClientID: clientID.String()})
	require.NoError(t, err)
	assert.Equal(t, clientID, *booked.ClientID)

	_, err = svc.RequestCancel(ctx, instructorID, slot.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization, "only the booked client may ask")
}

func TestListSchedulesMine(t *testing.T) {
	profiles := newFakeProfiles()
	schedules := newFakeSchedules()
	svc := newScheduleService(profiles, schedules)
	ctx := context.Background()

	_, err := svc.List(ctx, clientID, &dto.ListSchedulesRequest{Mine: true, Zone: "SOUTH"})
	require.NoError(t, err)
	require.NotNil(t, schedules.filter.ClientID)
	assert.Equal(t, clientID, *schedules.filter.ClientID)
	assert.Equal(t, models.Zone("south"), schedules.filter.Zone)

	_, err = svc.List(ctx, leadID, &dto.ListSchedulesRequest{Mine: true})
	require.NoError(t, err)
	require.NotNil(t, schedules.filter.TeamLeaderID)
	assert.Nil(t, schedules.filter.ClientID)

	from := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	_, err = svc.List(ctx, adminID, &dto.ListSchedulesRequest{From: &from, To: &from})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAttachRouteAndDelete(t *testing.T) {
	profiles := newFakeProfiles()
	svc := newScheduleService(profiles, newFakeSchedules())
	ctx := context.Background()
	slot := openSlot(t, svc, adminID)

	route := uuid.New().String()
	updated, err := svc.AttachRoute(ctx, leadID, slot.ID, &dto.AttachRouteRequest{RouteID: &route})
	require.NoError(t, err)
	require.NotNil(t, updated.RouteID)
	assert.Equal(t, route, updated.RouteID.String())

	updated, err = svc.AttachRoute(ctx, leadID, slot.ID, &dto.AttachRouteRequest{})
	require.NoError(t, err)
	assert.Nil(t, updated.RouteID)

	assert.ErrorIs(t, svc.Delete(ctx, clientID, slot.ID), apperrors.ErrAuthorization)
	require.NoError(t, svc.Delete(ctx, adminID, slot.ID))
	assert.ErrorIs(t, svc.Delete(ctx, adminID, slot.ID), apperrors.ErrScheduleNotFound)
}

func newAssignmentService(profiles *fakeProfiles, store *fakeAssignments) AssignmentService {
	return NewAssignmentService(store, profiles, appauth.NewAuthorizationService(profiles), testZones, zerolog.Nop())
}

func TestAssignInstructor(t *testing.T) {
	profiles := newFakeProfiles()
	store := &fakeAssignments{}
	svc := newAssignmentService(profiles, store)
	ctx := context.Background()

	a, err := svc.AssignInstructor(ctx, adminID, &dto.AssignInstructorRequest{InstructorID: instructorID.String(), TeamLeaderID: leadID.String()})
	require.NoError(t, err)
	assert.Equal(t, "instructor", a.Kind)
	require.NotNil(t, store.teamLeaderID)
	assert.Equal(t, leadID, *store.teamLeaderID)
	require.NotNil(t, store.zone)
	assert.Equal(t, models.Zone("north"), *store.zone)

	_, err = svc.AssignInstructor(ctx, adminID, &dto.AssignInstructorRequest{InstructorID: instructorID.String(), TeamLeaderID: clientID.String()})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.AssignInstructor(ctx, leadID, &dto.AssignInstructorRequest{InstructorID: instructorID.String()})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization, "team leaders do not build teams")
}

func TestAssignClient(t *testing.T) {
	profiles := newFakeProfiles()
	store := &fakeAssignments{}
	svc := newAssignmentService(profiles, store)
	ctx := context.Background()

	a, err := svc.AssignClient(ctx, leadID, &dto.AssignClientRequest{ClientID: clientID.String(), InstructorID: instructorID.String(), Zone: " North "})
	require.NoError(t, err)
	assert.Equal(t, "client", a.Kind)
	require.NotNil(t, store.zone)
	assert.Equal(t, models.Zone("north"), *store.zone)

	_, err = svc.AssignClient(ctx, leadID, &dto.AssignClientRequest{ClientID: clientID.String(), InstructorID: instructorID.String(), Zone: "mars"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.AssignClient(ctx, instructorID, &dto.AssignClientRequest{ClientID: clientID.String(), InstructorID: instructorID.String()})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	require.NoError(t, svc.UnassignClient(ctx, leadID, clientID))
	assert.ErrorIs(t, svc.UnassignInstructor(ctx, leadID, instructorID), apperrors.ErrAuthorization)
	require.NoError(t, svc.UnassignInstructor(ctx, adminID, instructorID))
	assert.Equal(t, []uuid.UUID{clientID, instructorID}, store.removed)
}

func TestListAssignmentsMine(t *testing.T) {
	profiles := newFakeProfiles()
	store := &fakeAssignments{}
	svc := newAssignmentService(profiles, store)

	_, err := svc.List(context.Background(), instructorID, &dto.ListAssignmentsRequest{Mine: true, Kind: "client"})
	require.NoError(t, err)
	require.NotNil(t, store.filter.InstructorID)
	assert.Equal(t, instructorID, *store.filter.InstructorID)
	assert.Equal(t, models.AssignmentClient, store.filter.Kind)
}

func TestDrivingRoutes(t *testing.T) {
	profiles := newFakeProfiles()
	routes := newFakeRoutes()
	svc := NewDrivingRouteService(routes, appauth.NewAuthorizationService(profiles), testZones, zerolog.Nop())
	ctx := context.Background()
	shape := map[string]interface{}{"type": "LineString", "coordinates": []interface{}{}}

	saved, err := svc.Save(ctx, instructorID, &dto.SaveRouteRequest{Title: " Ring road ", GeoJSON: shape})
	require.NoError(t, err)
	assert.Equal(t, "Ring road", saved.Title)
	assert.Equal(t, instructorID, saved.UserID)
	require.NotNil(t, saved.Zone)
	assert.Equal(t, "north", *saved.Zone)

	_, err = svc.Save(ctx, instructorID, &dto.SaveRouteRequest{Title: "x", GeoJSON: map[string]interface{}{}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Save(ctx, clientID, &dto.SaveRouteRequest{Title: "x", GeoJSON: shape})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	_, err = svc.Save(ctx, leadID, &dto.SaveRouteRequest{ID: saved.ID.String(), Title: "Taken", GeoJSON: shape})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization, "team leaders cannot replace other people's routes")

	edited, err := svc.Save(ctx, adminID, &dto.SaveRouteRequest{ID: saved.ID.String(), Title: "Ring road east", GeoJSON: shape})
	require.NoError(t, err)
	assert.Equal(t, instructorID, edited.UserID, "the owner is kept")

	mine, err := svc.List(ctx, adminID, &dto.ListRoutesRequest{Mine: true})
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, svc.Delete(ctx, instructorID, saved.ID))
	_, err = svc.Get(ctx, instructorID, saved.ID)
	assert.ErrorIs(t, err, apperrors.ErrRouteNotFound)
}

func TestMaterialReviewFlow(t *testing.T) {
	profiles := newFakeProfiles()
	materials := newFakeMaterials()
	svc := NewMaterialService(materials, appauth.NewAuthorizationService(profiles), testZones, zerolog.Nop())
	ctx := context.Background()

	link, err := svc.Create(ctx, instructorID, &dto.CreateMaterialRequest{
		Title:       "Highway code",
		Type:        "link",
		StoragePath: "https://example.com/code",
		RoleScope:   []string{"Client", "client"},
	})
	require.NoError(t, err)
	assert.False(t, link.Reviewed)
	assert.Equal(t, []string{"client"}, link.RoleScope)

	_, err = svc.Create(ctx, instructorID, &dto.CreateMaterialRequest{Title: "x", Type: "link", StoragePath: "ftp://example.com/x"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = svc.Create(ctx, instructorID, &dto.CreateMaterialRequest{Title: "x", Type: "file", StoragePath: "../etc/passwd"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = svc.Create(ctx, clientID, &dto.CreateMaterialRequest{Title: "x", Type: "file", StoragePath: "a.pdf"})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	visible, err := svc.Visible(ctx, clientID)
	require.NoError(t, err)
	assert.Empty(t, visible, "unreviewed materials stay hidden")

	_, err = svc.Pending(ctx, instructorID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
	pending, err := svc.Pending(ctx, adminID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	yes := true
	_, err = svc.SetReviewed(ctx, adminID, link.ID, &dto.ReviewMaterialRequest{Reviewed: &yes})
	require.NoError(t, err)

	visible, err = svc.Visible(ctx, clientID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
	assert.Equal(t, models.RoleClient, materials.filter.Role)
	assert.Equal(t, models.Zone("south"), materials.filter.Zone)

	visible, err = svc.Visible(ctx, instructorID)
	require.NoError(t, err)
	assert.Empty(t, visible, "scoped to clients only")
}

func TestMaterialEditing(t *testing.T) {
	profiles := newFakeProfiles()
	materials := newFakeMaterials()
	svc := NewMaterialService(materials, appauth.NewAuthorizationService(profiles), testZones, zerolog.Nop())
	ctx := context.Background()

	m, err := svc.Create(ctx, instructorID, &dto.CreateMaterialRequest{Title: "Mirrors", Type: "file", StoragePath: "lessons/./mirrors.pdf", Zone: "north"})
	require.NoError(t, err)
	require.NotNil(t, m.StoragePath)
	assert.Equal(t, "lessons/mirrors.pdf", *m.StoragePath)

	title := "Mirrors and blind spots"
	_, err = svc.Update(ctx, leadID, m.ID, &dto.UpdateMaterialRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization, "only the author or a reviewer edits")

	noZone := ""
	updated, err := svc.Update(ctx, instructorID, m.ID, &dto.UpdateMaterialRequest{Title: &title, Zone: &noZone})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Nil(t, updated.Zone)

	require.NoError(t, svc.Delete(ctx, adminID, m.ID))
	assert.ErrorIs(t, svc.Delete(ctx, adminID, m.ID), apperrors.ErrMaterialNotFound)
}
