package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
)

// DrivingRouteController handles lesson routes
type DrivingRouteController struct {
	routeService services.DrivingRouteService
}

// NewDrivingRouteController creates a new DrivingRouteController
func NewDrivingRouteController(routeService services.DrivingRouteService) *DrivingRouteController {
	return &DrivingRouteController{
		routeService: routeService,
	}
}

// ListRoutes returns the routes visible to the caller
// @Summary List driving routes
// @Tags routes
// @Produce json
// @Security BearerAuth
// @Param mine query bool false "Only the caller's routes"
// @Param zone query string false "Zone name"
// @Success 200 {object} dto.APIResponse{data=[]dto.RouteResponse}
// @Router /driving-routes [get]
func (c *DrivingRouteController) ListRoutes(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.ListRoutesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.routeService.List(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetRoute returns one route
// @Summary Get a driving route
// @Tags routes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Route ID"
// @Success 200 {object} dto.APIResponse{data=dto.RouteResponse}
// @Router /driving-routes/{id} [get]
func (c *DrivingRouteController) GetRoute(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.routeService.Get(ctx.Request.Context(), userID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// SaveRoute creates or replaces a route
// @Summary Save a driving route
// @Tags routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveRouteRequest true "Route"
// @Success 200 {object} dto.APIResponse{data=dto.RouteResponse}
// @Router /driving-routes [put]
func (c *DrivingRouteController) SaveRoute(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.SaveRouteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.routeService.Save(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// DeleteRoute removes a route
// @Summary Delete a driving route
// @Tags routes
// @Security BearerAuth
// @Param id path string true "Route ID"
// @Success 204
// @Router /driving-routes/{id} [delete]
func (c *DrivingRouteController) DeleteRoute(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.routeService.Delete(ctx.Request.Context(), userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
