package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
)

// ScheduleController handles lesson slots
type ScheduleController struct {
	scheduleService services.ScheduleService
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(scheduleService services.ScheduleService) *ScheduleController {
	return &ScheduleController{
		scheduleService: scheduleService,
	}
}

// ListSchedules returns the slots visible to the caller, earliest first
// @Summary List lesson slots
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param mine query bool false "Only the caller's slots"
// @Param instructorId query string false "Only this instructor's slots"
// @Param status query string false "available, booked, cancel_requested or cancelled"
// @Param zone query string false "Zone name"
// @Param from query string false "RFC3339 lower bound on slot start"
// @Param to query string false "RFC3339 upper bound on slot start"
// @Success 200 {object} dto.APIResponse{data=[]dto.ScheduleResponse}
// @Router /schedules [get]
func (c *ScheduleController) ListSchedules(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.ListSchedulesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.scheduleService.List(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetSchedule returns one slot
// @Summary Get a lesson slot
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Router /schedules/{id} [get]
func (c *ScheduleController) GetSchedule(ctx *gin.Context) {
	c.withSlot(ctx, http.StatusOK, c.scheduleService.Get)
}

// CreateSchedule opens a slot for an instructor
// @Summary Open a lesson slot
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateScheduleRequest true "Slot"
// @Success 201 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Router /schedules [post]
func (c *ScheduleController) CreateSchedule(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.scheduleService.CreateSlot(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// Book books an available slot. The body is optional.
// @Summary Book a lesson slot
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param request body dto.BookScheduleRequest false "Client to book for"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Failure 409 {object} dto.ErrorResponse "Slot is not available"
// @Router /schedules/{id}/book [post]
func (c *ScheduleController) Book(ctx *gin.Context) {
	var req dto.BookScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(ctx, err)
		return
	}
	c.withSlot(ctx, http.StatusOK, func(rctx context.Context, actor, id uuid.UUID) (*dto.ScheduleResponse, error) {
		return c.scheduleService.Book(rctx, actor, id, &req)
	})
}

// RequestCancel asks to cancel a booked lesson
// @Summary Request a cancellation
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Router /schedules/{id}/cancel-request [post]
func (c *ScheduleController) RequestCancel(ctx *gin.Context) {
	c.withSlot(ctx, http.StatusOK, c.scheduleService.RequestCancel)
}

// ApproveCancel accepts a cancellation request
// @Summary Approve a cancellation
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Router /schedules/{id}/cancel-approve [post]
func (c *ScheduleController) ApproveCancel(ctx *gin.Context) {
	c.withSlot(ctx, http.StatusOK, c.scheduleService.ApproveCancel)
}

// DeclineCancel keeps the lesson booked
// @Summary Decline a cancellation
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Router /schedules/{id}/cancel-decline [post]
func (c *ScheduleController) DeclineCancel(ctx *gin.Context) {
	c.withSlot(ctx, http.StatusOK, c.scheduleService.DeclineCancel)
}

// Reopen makes a slot bookable again
// @Summary Reopen a slot
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Router /schedules/{id}/reopen [post]
func (c *ScheduleController) Reopen(ctx *gin.Context) {
	c.withSlot(ctx, http.StatusOK, c.scheduleService.Reopen)
}

// AttachRoute sets or clears the driving route of a slot
// @Summary Attach a driving route
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param request body dto.AttachRouteRequest true "Route, null to clear"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse}
// @Router /schedules/{id}/route [put]
func (c *ScheduleController) AttachRoute(ctx *gin.Context) {
	var req dto.AttachRouteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}
	c.withSlot(ctx, http.StatusOK, func(rctx context.Context, actor, id uuid.UUID) (*dto.ScheduleResponse, error) {
		return c.scheduleService.AttachRoute(rctx, actor, id, &req)
	})
}

// DeleteSchedule removes a slot
// @Summary Delete a lesson slot
// @Tags schedules
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (c *ScheduleController) DeleteSchedule(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.scheduleService.Delete(ctx.Request.Context(), userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *ScheduleController) withSlot(ctx *gin.Context, status int, fn func(context.Context, uuid.UUID, uuid.UUID) (*dto.ScheduleResponse, error)) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := fn(ctx.Request.Context(), userID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(status, dto.NewSuccessResponse(resp))
}
