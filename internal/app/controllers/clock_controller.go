package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
)

// ClockController handles attendance events
type ClockController struct {
	clockService services.ClockService
}

// NewClockController creates a new ClockController
func NewClockController(clockService services.ClockService) *ClockController {
	return &ClockController{
		clockService: clockService,
	}
}

// Record stores a clock event for the caller. The body is optional.
// @Summary Record a clock event
// @Tags clock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "in, out or client_showed_up"
// @Param request body dto.ClockEventRequest false "Free-form metadata"
// @Success 201 {object} dto.APIResponse{data=dto.ClockEventResponse}
// @Router /clock/{type} [post]
func (c *ClockController) Record(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.ClockEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(ctx, err)
		return
	}

	resp, err := c.clockService.Record(ctx.Request.Context(), userID, ctx.Param("type"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// ListEvents returns the clock events visible to the caller within the last days
// @Summary List clock events
// @Tags clock
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window in days (1-90, default 7)"
// @Param userId query string false "Only this user's events"
// @Success 200 {object} dto.APIResponse{data=[]dto.ClockEventResponse}
// @Router /clock/events [get]
func (c *ClockController) ListEvents(ctx *gin.Context) {
	var req dto.ClockEventsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		bindError(ctx, err)
		return
	}

	var (
		events []dto.ClockEventResponse
		err    error
	)
	if req.UserID != "" {
		events, err = c.clockService.EventsForUser(ctx.Request.Context(), uuid.MustParse(req.UserID), req.Days)
	} else {
		events, err = c.clockService.VisibleEvents(ctx.Request.Context(), req.Days)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(events))
}
