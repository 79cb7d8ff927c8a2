package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

type fakeSchedules struct {
	services.ScheduleService
	booked   *dto.BookScheduleRequest
	listed   *dto.ListSchedulesRequest
	bookErr  error
	deleted  uuid.UUID
	actorIDs []uuid.UUID
}

func (f *fakeSchedules) List(_ context.Context, userID uuid.UUID, req *dto.ListSchedulesRequest) ([]dto.ScheduleResponse, error) {
	f.listed = req
	return []dto.ScheduleResponse{}, nil
}

func (f *fakeSchedules) CreateSlot(_ context.Context, actor uuid.UUID, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	f.actorIDs = append(f.actorIDs, actor)
	return &dto.ScheduleResponse{ID: uuid.New(), InstructorID: uuid.MustParse(req.InstructorID), SlotStart: req.SlotStart, SlotEnd: req.SlotEnd, Status: "available"}, nil
}

func (f *fakeSchedules) Book(_ context.Context, actor, id uuid.UUID, req *dto.BookScheduleRequest) (*dto.ScheduleResponse, error) {
	f.booked = req
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &dto.ScheduleResponse{ID: id, Status: "booked"}, nil
}

func (f *fakeSchedules) Delete(_ context.Context, actor, id uuid.UUID) error {
	f.deleted = id
	return nil
}

type fakeAssignmentService struct {
	services.AssignmentService
	client *dto.AssignClientRequest
}

func (f *fakeAssignmentService) AssignClient(_ context.Context, _ uuid.UUID, req *dto.AssignClientRequest) (*dto.AssignmentResponse, error) {
	f.client = req
	return &dto.AssignmentResponse{ID: uuid.New(), Kind: "client"}, nil
}

func (f *fakeAssignmentService) UnassignClient(context.Context, uuid.UUID, uuid.UUID) error {
	return apperrors.ErrAssignmentNotFound
}

type fakeMaterialService struct {
	services.MaterialService
	reviewed *bool
}

func (f *fakeMaterialService) SetReviewed(_ context.Context, _, id uuid.UUID, req *dto.ReviewMaterialRequest) (*dto.MaterialResponse, error) {
	f.reviewed = req.Reviewed
	return &dto.MaterialResponse{ID: id, Reviewed: *req.Reviewed}, nil
}

type opsHarness struct {
	*harness
	schedules   *fakeSchedules
	assignments *fakeAssignmentService
	materials   *fakeMaterialService
}

func newOpsHarness(t *testing.T) *opsHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	h := &opsHarness{
		harness:     &harness{},
		schedules:   &fakeSchedules{},
		assignments: &fakeAssignmentService{},
		materials:   &fakeMaterialService{},
	}
	sc := NewScheduleController(h.schedules)
	ac := NewAssignmentController(h.assignments)
	mc := NewMaterialController(h.materials)

	r := gin.New()
	authed := r.Group("", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, callerID)
		c.Next()
	})
	authed.GET("/schedules", sc.ListSchedules)
	authed.POST("/schedules", sc.CreateSchedule)
	authed.POST("/schedules/:id/book", sc.Book)
	authed.DELETE("/schedules/:id", sc.DeleteSchedule)
	authed.PUT("/assignments/clients", ac.AssignClient)
	authed.DELETE("/assignments/clients/:clientId", ac.UnassignClient)
	authed.POST("/materials/:id/review", mc.ReviewMaterial)

	h.engine = r
	return h
}

func TestScheduleEndpoints(t *testing.T) {
	h := newOpsHarness(t)
	instructor := uuid.New()

	w := h.do(http.MethodPost, "/schedules", `{"instructorId":"`+instructor.String()+`","slotStart":"2026-05-04T09:00:00Z","slotEnd":"2026-05-04T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var slot dto.ScheduleResponse
	decode(t, w, &slot)
	assert.Equal(t, instructor, slot.InstructorID)
	assert.Equal(t, []uuid.UUID{callerID}, h.schedules.actorIDs)

	w = h.do(http.MethodPost, "/schedules", `{"instructorId":"`+instructor.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/schedules?mine=true&status=booked&from=2026-05-01T00:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, h.schedules.listed)
	assert.True(t, h.schedules.listed.Mine)
	require.NotNil(t, h.schedules.listed.From)
	assert.Equal(t, 2026, h.schedules.listed.From.Year())

	w = h.do(http.MethodGet, "/schedules?status=gone", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodDelete, "/schedules/"+otherID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, otherID, h.schedules.deleted)
}

func TestBookEndpoint(t *testing.T) {
	h := newOpsHarness(t)

	w := h.do(http.MethodPost, "/schedules/"+otherID.String()+"/book", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, h.schedules.booked)
	assert.Empty(t, h.schedules.booked.ClientID)

	w = h.do(http.MethodPost, "/schedules/"+otherID.String()+"/book", `{"clientId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.schedules.bookErr = apperrors.NewConflictError("cannot book: schedule is booked")
	w = h.do(http.MethodPost, "/schedules/"+otherID.String()+"/book", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrorCodeStateConflict, errorCode(t, w))

	h.schedules.bookErr = apperrors.ErrScheduleNotFound
	w = h.do(http.MethodPost, "/schedules/"+otherID.String()+"/book", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignmentAndMaterialEndpoints(t *testing.T) {
	h := newOpsHarness(t)
	client, instructor := uuid.New(), uuid.New()

	w := h.do(http.MethodPut, "/assignments/clients", `{"clientId":"`+client.String()+`","instructorId":"`+instructor.String()+`","zone":"north"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, h.assignments.client)
	assert.Equal(t, "north", h.assignments.client.Zone)

	w = h.do(http.MethodPut, "/assignments/clients", `{"clientId":"`+client.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodDelete, "/assignments/clients/"+client.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPost, "/materials/"+otherID.String()+"/review", `{"reviewed":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, h.materials.reviewed)
	assert.False(t, *h.materials.reviewed)

	w = h.do(http.MethodPost, "/materials/"+otherID.String()+"/review", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
