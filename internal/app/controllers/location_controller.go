package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
)

// LocationController handles live location sharing
type LocationController struct {
	locationService services.LocationService
}

// NewLocationController creates a new LocationController
func NewLocationController(locationService services.LocationService) *LocationController {
	return &LocationController{
		locationService: locationService,
	}
}

// UpdateMyLocation publishes the caller's current position
// @Summary Update current location
// @Tags locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateLocationRequest true "Position"
// @Success 200 {object} dto.APIResponse{data=dto.LocationResponse}
// @Router /locations/me [put]
func (c *LocationController) UpdateMyLocation(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.UpdateLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.locationService.UpdateMyLocation(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListLocations returns the latest positions the caller may see
// @Summary List live locations
// @Tags locations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.LocationResponse}
// @Router /locations [get]
func (c *LocationController) ListLocations(ctx *gin.Context) {
	locations, err := c.locationService.VisibleLocations(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(locations))
}

// GetUserLocation returns one user's latest position
// @Summary Get a user's location
// @Tags locations
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.LocationResponse}
// @Failure 404 {object} dto.ErrorResponse "No location shared"
// @Router /locations/{userId} [get]
func (c *LocationController) GetUserLocation(ctx *gin.Context) {
	userID, ok := uuidParam(ctx, "userId")
	if !ok {
		return
	}

	resp, err := c.locationService.UserLocation(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
