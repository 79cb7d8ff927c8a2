package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
)

// AssignmentController handles team and client assignments
type AssignmentController struct {
	assignmentService services.AssignmentService
}

// NewAssignmentController creates a new AssignmentController
func NewAssignmentController(assignmentService services.AssignmentService) *AssignmentController {
	return &AssignmentController{
		assignmentService: assignmentService,
	}
}

// ListAssignments returns the assignments visible to the caller
// @Summary List assignments
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param mine query bool false "Only rows naming the caller"
// @Param kind query string false "instructor or client"
// @Param zone query string false "Zone name"
// @Success 200 {object} dto.APIResponse{data=[]dto.AssignmentResponse}
// @Router /assignments [get]
func (c *AssignmentController) ListAssignments(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.ListAssignmentsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.assignmentService.List(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// AssignInstructor places an instructor under a team leader
// @Summary Assign an instructor
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssignInstructorRequest true "Assignment"
// @Success 200 {object} dto.APIResponse{data=dto.AssignmentResponse}
// @Router /assignments/instructors [put]
func (c *AssignmentController) AssignInstructor(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.AssignInstructorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.assignmentService.AssignInstructor(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// AssignClient places a client with an instructor
// @Summary Assign a client
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssignClientRequest true "Assignment"
// @Success 200 {object} dto.APIResponse{data=dto.AssignmentResponse}
// @Router /assignments/clients [put]
func (c *AssignmentController) AssignClient(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.AssignClientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.assignmentService.AssignClient(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UnassignClient removes a client's assignment
// @Summary Unassign a client
// @Tags assignments
// @Security BearerAuth
// @Param clientId path string true "Client user ID"
// @Success 204
// @Router /assignments/clients/{clientId} [delete]
func (c *AssignmentController) UnassignClient(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	clientID, ok := uuidParam(ctx, "clientId")
	if !ok {
		return
	}
	if err := c.assignmentService.UnassignClient(ctx.Request.Context(), userID, clientID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UnassignInstructor removes an instructor from their team leader
// @Summary Unassign an instructor
// @Tags assignments
// @Security BearerAuth
// @Param instructorId path string true "Instructor user ID"
// @Success 204
// @Router /assignments/instructors/{instructorId} [delete]
func (c *AssignmentController) UnassignInstructor(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	instructorID, ok := uuidParam(ctx, "instructorId")
	if !ok {
		return
	}
	if err := c.assignmentService.UnassignInstructor(ctx.Request.Context(), userID, instructorID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
