package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
)

// ProfileController handles profile, directory and approval endpoints
type ProfileController struct {
	profileService  services.ProfileService
	approvalService services.ApprovalService
}

// NewProfileController creates a new ProfileController
func NewProfileController(profileService services.ProfileService, approvalService services.ApprovalService) *ProfileController {
	return &ProfileController{
		profileService:  profileService,
		approvalService: approvalService,
	}
}

// GetMyProfile returns the caller's profile and the page the client should show.
// A caller without a profile gets a 200 with route "signup".
// @Summary Get current profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MyProfileResponse}
// @Router /profiles/me [get]
func (c *ProfileController) GetMyProfile(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	resp, err := c.profileService.GetMyProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UpdateMyProfile edits the caller's own contact fields
// @Summary Update current profile
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Router /profiles/me [patch]
func (c *ProfileController) UpdateMyProfile(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.profileService.UpdateMyProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetApproval reports the caller's approval state. With wait=true the request
// polls until the account is decided or the attempts run out.
// @Summary Get approval state
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param wait query bool false "Poll until decided"
// @Success 200 {object} dto.APIResponse{data=dto.ApprovalResponse}
// @Router /profiles/me/approval [get]
func (c *ProfileController) GetApproval(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	wait, _ := strconv.ParseBool(ctx.DefaultQuery("wait", "false"))

	var (
		resp *dto.ApprovalResponse
		err  error
	)
	if wait {
		resp, err = c.approvalService.Wait(ctx.Request.Context(), userID)
	} else {
		resp, err = c.approvalService.Check(ctx.Request.Context(), userID)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListProfiles searches the profile directory
// @Summary List profiles
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter"
// @Param zone query string false "Zone filter"
// @Param status query string false "Status filter"
// @Param q query string false "Name or email search"
// @Success 200 {object} dto.APIResponse{data=[]dto.ProfileResponse}
// @Router /profiles [get]
func (c *ProfileController) ListProfiles(ctx *gin.Context) {
	var req dto.ListProfilesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		bindError(ctx, err)
		return
	}

	profiles, err := c.profileService.ListProfiles(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profiles))
}

// GetProfile returns one profile
// @Summary Get profile by ID
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Router /profiles/{id} [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.profileService.GetProfile(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UsersByZone lists the profiles assigned to a zone
// @Summary List profiles in a zone
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Router /zones/{zone}/profiles [get]
func (c *ProfileController) UsersByZone(ctx *gin.Context) {
	profiles, err := c.profileService.UsersByZone(ctx.Request.Context(), ctx.Param("zone"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profiles))
}

// Approve approves a pending account. Managers only.
// @Summary Approve an account
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Router /profiles/{id}/approve [post]
func (c *ProfileController) Approve(ctx *gin.Context) {
	c.changeStatus(ctx, c.profileService.Approve)
}

// Suspend disables an account. Managers only.
// @Summary Suspend an account
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Router /profiles/{id}/suspend [post]
func (c *ProfileController) Suspend(ctx *gin.Context) {
	c.changeStatus(ctx, c.profileService.Suspend)
}

// Decline rejects a pending account. Managers only.
// @Summary Decline an account
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Router /profiles/{id}/decline [post]
func (c *ProfileController) Decline(ctx *gin.Context) {
	c.changeStatus(ctx, c.profileService.Decline)
}

type statusChange func(ctx context.Context, actorID, id uuid.UUID) (*dto.ProfileResponse, error)

func (c *ProfileController) changeStatus(ctx *gin.Context, change statusChange) {
	actorID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := change(ctx.Request.Context(), actorID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
